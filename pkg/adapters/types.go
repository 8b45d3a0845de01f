package adapters

import "github.com/ruslano69/tdtp-bulk/pkg/core/schema"

// TypeMapper - интерфейс для маппинга типов данных
// Каждый адаптер реализует свой TypeMapper для конвертации
// абстрактных типов колонок в типы конкретной СУБД
type TypeMapper interface {
	// SQLType конвертирует описание колонки в SQL тип
	// Пример:
	//   PostgreSQL: FieldDef{Type:"INTEGER", Subtype:"bigint"} → "BIGINT"
	//   MS SQL:     FieldDef{Type:"TEXT", Length:100}          → "NVARCHAR(100)"
	//   SQLite:     FieldDef{Type:"INTEGER"}                   → "INTEGER"
	// Явный FieldDef.SQLType возвращается без изменений
	SQLType(field schema.FieldDef) string
}
