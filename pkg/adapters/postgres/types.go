package postgres

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/ruslano69/tdtp-bulk/pkg/adapters/base"
	"github.com/ruslano69/tdtp-bulk/pkg/core/schema"
)

// pgMultiplePrimaryKeys - SQLSTATE 42P16: multiple primary keys for table are not allowed
const pgMultiplePrimaryKeys = "42P16"

// SQLType конвертирует описание колонки в PostgreSQL тип
// Реализует интерфейс adapters.TypeMapper
func (a *Adapter) SQLType(field schema.FieldDef) string {
	return SchemaToPostgreSQL(field)
}

// SchemaToPostgreSQL конвертирует абстрактный тип в PostgreSQL CREATE TABLE тип
func SchemaToPostgreSQL(field schema.FieldDef) string {
	if field.SQLType != "" {
		return field.SQLType
	}

	switch schema.NormalizeType(field.Type) {
	case schema.TypeInteger:
		switch field.Subtype {
		case schema.SubtypeSmallInt, schema.SubtypeTinyInt:
			return "SMALLINT"
		case schema.SubtypeInt:
			return "INTEGER"
		default:
			return "BIGINT"
		}

	case schema.TypeReal:
		if field.Subtype == schema.SubtypeFloat32 {
			return "REAL"
		}
		return "DOUBLE PRECISION"

	case schema.TypeDecimal:
		precision := field.Precision
		scale := field.Scale
		if precision == 0 {
			precision = schema.GetDefaultPrecision()
			if scale == 0 {
				scale = schema.GetDefaultScale()
			}
		}
		return fmt.Sprintf("NUMERIC(%d,%d)", precision, scale)

	case schema.TypeText:
		if field.Length > 0 {
			return fmt.Sprintf("VARCHAR(%d)", field.Length)
		}
		return "TEXT"

	case schema.TypeBoolean:
		return "BOOLEAN"

	case schema.TypeDate:
		return "DATE"

	case schema.TypeDatetime, schema.TypeTimestamp:
		return "TIMESTAMP"

	case schema.TypeUUID:
		return "UUID"

	case schema.TypeBlob:
		return "BYTEA"

	default:
		return "TEXT"
	}
}

// copyValue приводит значение к типу, который pgx кодирует в бинарный формат COPY
func copyValue(v any, col schema.FieldDef) (any, error) {
	v, err := base.ToDriverValue(v, col)
	if err != nil || v == nil {
		return v, err
	}
	if col.SQLType != "" {
		return v, nil
	}

	switch schema.NormalizeType(col.Type) {
	case schema.TypeDecimal:
		if s, ok := v.(string); ok {
			var n pgtype.Numeric
			if err := n.Scan(s); err != nil {
				return nil, fmt.Errorf("invalid numeric %q: %w", s, err)
			}
			return n, nil
		}

	case schema.TypeUUID:
		switch val := v.(type) {
		case string:
			u, err := uuid.Parse(val)
			if err != nil {
				return nil, fmt.Errorf("invalid uuid %q: %w", val, err)
			}
			return [16]byte(u), nil
		case []byte:
			if len(val) != 16 {
				return nil, fmt.Errorf("invalid uuid length %d", len(val))
			}
			return [16]byte(val), nil
		}

	case schema.TypeText:
		switch val := v.(type) {
		case string:
			return val, nil
		case []byte:
			return string(val), nil
		}
		s, _ := base.ToText(v, col)
		return s, nil

	case schema.TypeBoolean:
		if n, ok := v.(int64); ok {
			return n != 0, nil
		}
	}
	return v, nil
}

// isPrimaryKeyExists проверяет SQLSTATE ошибки сервера
func isPrimaryKeyExists(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgMultiplePrimaryKeys
}
