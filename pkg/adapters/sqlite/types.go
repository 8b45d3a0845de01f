package sqlite

import (
	"fmt"
	"strings"

	"github.com/ruslano69/tdtp-bulk/pkg/core/schema"
)

// SQLType конвертирует описание колонки в SQLite тип
// Реализует интерфейс adapters.TypeMapper
func (a *Adapter) SQLType(field schema.FieldDef) string {
	return SchemaToSQLite(field)
}

// SchemaToSQLite конвертирует абстрактный тип в SQLite CREATE TABLE тип
func SchemaToSQLite(field schema.FieldDef) string {
	if field.SQLType != "" {
		return field.SQLType
	}

	switch schema.NormalizeType(field.Type) {
	case schema.TypeInteger:
		return "INTEGER"
	case schema.TypeReal:
		return "REAL"
	case schema.TypeDecimal:
		// SQLite не поддерживает DECIMAL нативно, используем NUMERIC
		precision := field.Precision
		scale := field.Scale
		if precision == 0 {
			precision = schema.GetDefaultPrecision()
			if scale == 0 {
				scale = schema.GetDefaultScale()
			}
		}
		return fmt.Sprintf("NUMERIC(%d,%d)", precision, scale)
	case schema.TypeText, schema.TypeUUID:
		// В SQLite TEXT не имеет ограничения длины
		return "TEXT"
	case schema.TypeBoolean:
		// SQLite не имеет BOOLEAN, используем INTEGER
		return "INTEGER"
	case schema.TypeDate:
		return "DATE"
	case schema.TypeDatetime, schema.TypeTimestamp:
		return "DATETIME"
	case schema.TypeBlob:
		return "BLOB"
	default:
		return "TEXT"
	}
}

// isAlreadyExists - SQLite сообщает о дубликате индекса текстом
func isAlreadyExists(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "already exists")
}
