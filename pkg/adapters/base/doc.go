// Package base предоставляет общие хелперы для всех адаптеров БД
//
// Этот пакет устраняет дублирование кода между адаптерами (SQLite, PostgreSQL, MS SQL Server, MySQL)
// путем вынесения общей логики именования, генерации DDL и конвертации значений.
//
// # Основные компоненты
//
// Dialect - правила SQL диалекта:
//   - QuoteIdentifier() - квотирование идентификаторов
//   - QualifiedName() - полное имя таблицы с учетом временных таблиц
//   - TempTableName() - имя временной таблицы с токеном уникальности
//
// Именование (naming.go):
//   - UniqueName() - "<base>_<32 hex>" на основе UUID
//   - ShortenName() - усечение длинных имен с xxh3 хешем
//
// DDL (ddl.go):
//   - ColumnDefinitions() - определения колонок через TypeMapper адаптера
//
// Значения (values.go):
//   - ToDriverValue() - приведение Go значений к типам драйвера
//   - ToText() - текстовое представление для LOAD DATA
//   - ConvertSource() - конвертирующая обертка над RowSource
//
// InsertRows (insert.go) - вставка подготовленным INSERT для СУБД без bulk протокола
package base
