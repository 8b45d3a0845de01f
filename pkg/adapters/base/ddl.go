package base

import (
	"fmt"
	"strings"

	"github.com/ruslano69/tdtp-bulk/pkg/adapters"
	"github.com/ruslano69/tdtp-bulk/pkg/core/schema"
)

// ColumnDefinitions генерирует определения колонок для CREATE TABLE:
// "<quoted name> <sql type>[ extra] NULL|NOT NULL"
// extra позволяет диалекту добавить, например, COLLATE для строк
func ColumnDefinitions(d Dialect, mapper adapters.TypeMapper, columns []schema.FieldDef, extra func(schema.FieldDef) string) ([]string, error) {
	if err := schema.ValidateColumns(columns); err != nil {
		return nil, fmt.Errorf("invalid columns: %w", err)
	}

	defs := make([]string, 0, len(columns))
	for _, col := range columns {
		var b strings.Builder
		b.WriteString(d.QuoteIdentifier(col.Name))
		b.WriteString(" ")
		b.WriteString(mapper.SQLType(col))
		if extra != nil {
			if e := extra(col); e != "" {
				b.WriteString(" ")
				b.WriteString(e)
			}
		}
		if col.Nullable {
			b.WriteString(" NULL")
		} else {
			b.WriteString(" NOT NULL")
		}
		defs = append(defs, b.String())
	}
	return defs, nil
}

// CreateTableBody возвращает "(\n  col1,\n  col2\n)"
func CreateTableBody(defs []string) string {
	return "(\n  " + strings.Join(defs, ",\n  ") + "\n)"
}
