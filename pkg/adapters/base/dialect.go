package base

import (
	"strings"

	"github.com/ruslano69/tdtp-bulk/pkg/adapters"
	"github.com/ruslano69/tdtp-bulk/pkg/core/schema"
)

// Dialect описывает общие правила SQL диалекта: квотирование, длину имен,
// префикс временных таблиц
type Dialect struct {
	// QuoteOpen/QuoteClose - символы квотирования: `"` для PostgreSQL/SQLite, '[' ']' для MS SQL, '`' для MySQL
	QuoteOpen  string
	QuoteClose string

	// MaxIdentifierLength - максимальная длина идентификатора, 0 - без ограничения
	MaxIdentifierLength int

	// TempPrefix - префикс имени временной таблицы ('#' для MS SQL)
	TempPrefix string

	// TempSchema - схема временных таблиц ("temp" для SQLite), пусто - без схемы
	TempSchema string
}

// QuoteIdentifier квотирует идентификатор, удваивая закрывающий символ внутри имени
func (d Dialect) QuoteIdentifier(name string) string {
	return d.QuoteOpen + strings.ReplaceAll(name, d.QuoteClose, d.QuoteClose+d.QuoteClose) + d.QuoteClose
}

// QualifiedName возвращает полное квотированное имя таблицы
// Временные таблицы не квалифицируются пользовательской схемой
func (d Dialect) QualifiedName(t adapters.TableRef) string {
	if t.Temp {
		if d.TempSchema != "" {
			return d.TempSchema + "." + d.QuoteIdentifier(t.Name)
		}
		return d.QuoteIdentifier(t.Name)
	}
	if t.Schema != "" {
		return d.QuoteIdentifier(t.Schema) + "." + d.QuoteIdentifier(t.Name)
	}
	return d.QuoteIdentifier(t.Name)
}

// TempTableName строит имя временной таблицы
// unique=true добавляет токен уникальности; результат укладывается в MaxIdentifierLength
func (d Dialect) TempTableName(base string, unique bool) string {
	base = strings.TrimLeft(base, "#")
	name := base
	if unique {
		name = UniqueName(base)
	}

	limit := d.MaxIdentifierLength
	if limit > 0 {
		limit -= len(d.TempPrefix)
	}
	if unique && limit > len(name)-len(base) && len(name) > limit {
		// Токен уникальности сохраняется целиком, укорачивается базовое имя
		suffix := name[len(base):]
		name = ShortenName(base, limit-len(suffix)) + suffix
	} else {
		name = ShortenName(name, limit)
	}
	return d.TempPrefix + name
}

// ColumnList возвращает квотированный список колонок через запятую
func (d Dialect) ColumnList(columns []schema.FieldDef) string {
	names := make([]string, len(columns))
	for i, col := range columns {
		names[i] = d.QuoteIdentifier(col.Name)
	}
	return strings.Join(names, ", ")
}

// QuoteList квотирует имена и объединяет через запятую
func (d Dialect) QuoteList(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = d.QuoteIdentifier(n)
	}
	return strings.Join(quoted, ", ")
}
