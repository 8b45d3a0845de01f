package mysql

import (
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"

	"github.com/ruslano69/tdtp-bulk/pkg/core/schema"
)

// errMultiplePrimaryKeys - ER_MULTI_PRIMARY_KEY
const errMultiplePrimaryKeys = 1068

// maxVarcharLength - VARCHAR(n) в utf8mb4 укладывается в лимит строки 65535 байт
const maxVarcharLength = 16383

// keyVarcharLength - длина текстового ключа без явного размера (индекс InnoDB 3072 байт)
const keyVarcharLength = 255

// SQLType конвертирует описание колонки в MySQL тип
// Реализует интерфейс adapters.TypeMapper
func (a *Adapter) SQLType(field schema.FieldDef) string {
	return SchemaToMySQL(field)
}

// SchemaToMySQL конвертирует абстрактный тип в MySQL тип
func SchemaToMySQL(field schema.FieldDef) string {
	if field.SQLType != "" {
		return field.SQLType
	}

	switch schema.NormalizeType(field.Type) {
	// Целочисленные типы
	case schema.TypeInteger:
		switch field.Subtype {
		case schema.SubtypeTinyInt:
			return "TINYINT"
		case schema.SubtypeSmallInt:
			return "SMALLINT"
		case schema.SubtypeInt:
			return "INT"
		default:
			return "BIGINT"
		}

	// Числа с плавающей точкой
	case schema.TypeReal:
		if field.Subtype == schema.SubtypeFloat32 {
			return "FLOAT"
		}
		return "DOUBLE"

	case schema.TypeDecimal:
		precision := field.Precision
		scale := field.Scale
		if precision == 0 {
			precision = schema.GetDefaultPrecision()
			if scale == 0 {
				scale = schema.GetDefaultScale()
			}
		}
		return fmt.Sprintf("DECIMAL(%d,%d)", precision, scale)

	// Текстовые типы
	case schema.TypeText:
		switch {
		case field.Length > 0 && field.Length <= maxVarcharLength:
			return fmt.Sprintf("VARCHAR(%d)", field.Length)
		case field.Key && field.Length == 0:
			// TEXT не может быть ключом без длины префикса
			return fmt.Sprintf("VARCHAR(%d)", keyVarcharLength)
		case field.Length > maxVarcharLength:
			return "LONGTEXT"
		default:
			return "TEXT"
		}

	// Логический тип
	case schema.TypeBoolean:
		return "TINYINT(1)"

	// Временные типы
	case schema.TypeDate:
		return "DATE"

	case schema.TypeDatetime:
		return "DATETIME(6)"

	case schema.TypeTimestamp:
		return "TIMESTAMP(6)"

	case schema.TypeUUID:
		return "CHAR(36)"

	// Бинарные типы
	case schema.TypeBlob:
		switch {
		case field.IsRowVersion():
			return "BINARY(8)"
		case field.Length > 0 && field.Length <= 65535:
			return fmt.Sprintf("VARBINARY(%d)", field.Length)
		default:
			return "LONGBLOB"
		}

	default:
		return "TEXT"
	}
}

// isPrimaryKeyExists - ALTER TABLE ADD PRIMARY KEY на таблице с ключом
func isPrimaryKeyExists(err error) bool {
	var myErr *mysql.MySQLError
	return errors.As(err, &myErr) && myErr.Number == errMultiplePrimaryKeys
}
