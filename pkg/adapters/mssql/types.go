package mssql

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	mssql "github.com/denisenkom/go-mssqldb"
	"github.com/google/uuid"

	"github.com/ruslano69/tdtp-bulk/pkg/adapters/base"
	"github.com/ruslano69/tdtp-bulk/pkg/core/schema"
	"github.com/ruslano69/tdtp-bulk/pkg/rowversion"
)

// Type mapping for MS SQL Server 2012+
//
// Column type        SQL Server Type       Notes
// ────────────────────────────────────────────────────
// INTEGER            BIGINT                subtype tinyint/smallint/int
// DECIMAL            DECIMAL(p,s)          default 18,2
// REAL               FLOAT                 subtype real → REAL
// TEXT               NVARCHAR(n|MAX)       key without length → NVARCHAR(450)
// BOOLEAN            BIT                   0/1
// DATE               DATE
// DATETIME           DATETIME2             High precision
// UUID               UNIQUEIDENTIFIER
// BLOB               VARBINARY(n|MAX)
// BLOB/rowversion    BINARY(8)             copied value, not server-generated

// maxKeyText - the longest NVARCHAR that fits into a 900-byte index key.
const maxKeyText = 450

// SQL Server error numbers
const (
	errTableHasPrimaryKey = 1779 // Table already has a primary key defined
)

// SQLType implements adapters.TypeMapper.
func (a *Adapter) SQLType(field schema.FieldDef) string {
	return SchemaToMSSQL(field)
}

// SchemaToMSSQL converts a column definition to a SQL Server CREATE TABLE type.
func SchemaToMSSQL(field schema.FieldDef) string {
	if field.SQLType != "" {
		return field.SQLType
	}

	subtype := strings.ToLower(field.Subtype)

	switch schema.NormalizeType(field.Type) {
	case schema.TypeInteger:
		switch subtype {
		case schema.SubtypeTinyInt:
			return "TINYINT"
		case schema.SubtypeSmallInt:
			return "SMALLINT"
		case schema.SubtypeInt:
			return "INT"
		default:
			return "BIGINT" // Safe default
		}

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

	case schema.TypeReal:
		if subtype == schema.SubtypeFloat32 {
			return "REAL"
		}
		return "FLOAT"

	case schema.TypeText:
		if field.Length > 0 && field.Length <= 4000 {
			return fmt.Sprintf("NVARCHAR(%d)", field.Length)
		}
		if field.Key && field.Length == 0 {
			// NVARCHAR(MAX) cannot be a key column
			return fmt.Sprintf("NVARCHAR(%d)", maxKeyText)
		}
		return "NVARCHAR(MAX)"

	case schema.TypeBoolean:
		return "BIT"

	case schema.TypeDate:
		return "DATE"

	case schema.TypeDatetime, schema.TypeTimestamp:
		return "DATETIME2" // Best precision

	case schema.TypeUUID:
		return "UNIQUEIDENTIFIER"

	case schema.TypeBlob:
		if field.IsRowVersion() {
			// ROWVERSION is generated by the server and cannot receive copied values
			return fmt.Sprintf("BINARY(%d)", rowversion.Size)
		}
		if field.Length > 0 && field.Length <= 8000 {
			return fmt.Sprintf("VARBINARY(%d)", field.Length)
		}
		return "VARBINARY(MAX)"

	default:
		// Unknown type - default to NVARCHAR(MAX)
		return "NVARCHAR(MAX)"
	}
}

// ParseMSSQLType parses MS SQL Server type and extracts parameters.
// Examples:
//   - "INT" → ("INT", 0, 0, 0)
//   - "NVARCHAR(100)" → ("NVARCHAR", 100, 0, 0)
//   - "DECIMAL(18,2)" → ("DECIMAL", 0, 18, 2)
//   - "VARBINARY(MAX)" → ("VARBINARY", -1, 0, 0) // MAX = -1
func ParseMSSQLType(sqlType string) (baseType string, length, precision, scale int) {
	sqlType = strings.ToUpper(strings.TrimSpace(sqlType))

	// Extract base type
	baseType = sqlType
	idx := strings.Index(sqlType, "(")
	if idx == -1 {
		return
	}
	baseType = strings.TrimSpace(sqlType[:idx])

	paramsStr := strings.TrimSpace(strings.TrimSuffix(sqlType[idx+1:], ")"))
	if paramsStr == "MAX" {
		length = -1 // Indicate MAX
		return
	}

	if p, s, ok := strings.Cut(paramsStr, ","); ok {
		precision, _ = strconv.Atoi(strings.TrimSpace(p))
		scale, _ = strconv.Atoi(strings.TrimSpace(s))
	} else {
		length, _ = strconv.Atoi(paramsStr)
	}
	return
}

// isCharacterColumn reports columns that need COLLATE database_default
// so that tempdb collation does not leak into comparisons with user tables.
func isCharacterColumn(field schema.FieldDef) bool {
	if field.SQLType == "" {
		return schema.NormalizeType(field.Type) == schema.TypeText
	}
	baseType, _, _, _ := ParseMSSQLType(field.SQLType)
	switch baseType {
	case "CHAR", "VARCHAR", "NCHAR", "NVARCHAR", "TEXT", "NTEXT":
		return true
	}
	return false
}

// collate adds the collation clause to character columns.
func collate(field schema.FieldDef) string {
	if isCharacterColumn(field) {
		return "COLLATE database_default"
	}
	return ""
}

// bulkValue converts a value to the Go type the TDS bulk protocol expects for the column.
func bulkValue(v any, col schema.FieldDef) (any, error) {
	v, err := base.ToDriverValue(v, col)
	if err != nil || v == nil {
		return v, err
	}

	if col.SQLType != "" && isCharacterColumn(col) {
		return textValue(v, col), nil
	}

	switch schema.NormalizeType(col.Type) {
	case schema.TypeUUID:
		return guidBytes(v)
	case schema.TypeText:
		return textValue(v, col), nil
	case schema.TypeBoolean:
		// bit columns accept only bool
		if n, ok := v.(int64); ok {
			return n != 0, nil
		}
	}
	return v, nil
}

func textValue(v any, col schema.FieldDef) any {
	switch val := v.(type) {
	case string:
		return val
	case []byte:
		// nvarchar receives raw bytes as UCS-2, text must go as string
		return string(val)
	}
	s, _ := base.ToText(v, col)
	return s
}

// guidBytes returns the GUID in SQL Server byte order.
func guidBytes(v any) (any, error) {
	var u uuid.UUID
	switch val := v.(type) {
	case string:
		parsed, err := uuid.Parse(val)
		if err != nil {
			return nil, fmt.Errorf("invalid uuid %q: %w", val, err)
		}
		u = parsed
	case [16]byte:
		u = val
	case []byte:
		if len(val) != 16 {
			return nil, fmt.Errorf("invalid uuid length %d", len(val))
		}
		copy(u[:], val)
	default:
		return nil, fmt.Errorf("unsupported uuid value %T", v)
	}
	return mssql.UniqueIdentifier(u).Value()
}

// WrapScanTarget reads uniqueidentifier columns back in RFC 4122 byte order.
func (a *Adapter) WrapScanTarget(col schema.FieldDef, dest any) any {
	if schema.NormalizeType(col.Type) != schema.TypeUUID {
		return dest
	}
	return &guidScanner{dest: dest}
}

// guidScanner is the inverse of guidBytes.
type guidScanner struct {
	dest any
}

func (g *guidScanner) Scan(src any) error {
	if src == nil {
		switch d := g.dest.(type) {
		case *uuid.NullUUID:
			*d = uuid.NullUUID{}
		case **uuid.UUID:
			*d = nil
		case *any:
			*d = nil
		default:
			return fmt.Errorf("cannot scan NULL uniqueidentifier into %T", g.dest)
		}
		return nil
	}

	var raw mssql.UniqueIdentifier
	if err := raw.Scan(src); err != nil {
		return err
	}
	u := uuid.UUID(raw)

	switch d := g.dest.(type) {
	case *uuid.UUID:
		*d = u
	case *uuid.NullUUID:
		*d = uuid.NullUUID{UUID: u, Valid: true}
	case **uuid.UUID:
		*d = &u
	case *string:
		*d = u.String()
	case *[]byte:
		*d = append([]byte(nil), u[:]...)
	case *any:
		*d = u
	default:
		return fmt.Errorf("unsupported uniqueidentifier scan target %T", g.dest)
	}
	return nil
}

// decodeRowVersion converts a binary(8) rowversion to a number.
func decodeRowVersion(raw []byte) (uint64, error) {
	rv, err := rowversion.FromBytes(raw)
	if err != nil {
		return 0, err
	}
	return uint64(rv), nil
}

// isPrimaryKeyExists checks the server error number.
func isPrimaryKeyExists(err error) bool {
	var msErr mssql.Error
	if errors.As(err, &msErr) {
		return msErr.Number == errTableHasPrimaryKey
	}
	return false
}
