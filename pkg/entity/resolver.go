package entity

import (
	"database/sql"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ruslano69/tdtp-bulk/pkg/core/schema"
	"github.com/ruslano69/tdtp-bulk/pkg/rowversion"
)

// TableNamer overrides the table name of a struct entity.
type TableNamer interface {
	TableName() string
}

// SchemaNamer overrides the table schema of a struct entity.
type SchemaNamer interface {
	TableSchema() string
}

var (
	timeType       = reflect.TypeOf(time.Time{})
	uuidType       = reflect.TypeOf(uuid.UUID{})
	rowVersionType = reflect.TypeOf(rowversion.RowVersion(0))
	bytesType      = reflect.TypeOf([]byte(nil))
)

// nullTypes maps database/sql null wrappers to their column definition.
var nullTypes = map[reflect.Type]schema.FieldDef{
	reflect.TypeOf(sql.NullString{}):  {Type: schema.TypeText},
	reflect.TypeOf(sql.NullInt64{}):   {Type: schema.TypeInteger, Subtype: schema.SubtypeBigInt},
	reflect.TypeOf(sql.NullInt32{}):   {Type: schema.TypeInteger, Subtype: schema.SubtypeInt},
	reflect.TypeOf(sql.NullInt16{}):   {Type: schema.TypeInteger, Subtype: schema.SubtypeSmallInt},
	reflect.TypeOf(sql.NullByte{}):    {Type: schema.TypeInteger, Subtype: schema.SubtypeTinyInt},
	reflect.TypeOf(sql.NullFloat64{}): {Type: schema.TypeReal},
	reflect.TypeOf(sql.NullBool{}):    {Type: schema.TypeBoolean},
	reflect.TypeOf(sql.NullTime{}):    {Type: schema.TypeDatetime},
	reflect.TypeOf(uuid.NullUUID{}):   {Type: schema.TypeUUID},
}

type fieldTag struct {
	name       string
	skip       bool
	key        bool
	nullable   bool
	notNull    bool
	computed   bool
	rowVersion bool
}

func parseTag(f reflect.StructField) fieldTag {
	raw, ok := f.Tag.Lookup("db")
	if !ok {
		return fieldTag{}
	}
	if raw == "-" {
		return fieldTag{skip: true}
	}
	parts := strings.Split(raw, ",")
	tag := fieldTag{name: strings.TrimSpace(parts[0])}
	for _, opt := range parts[1:] {
		switch strings.ToLower(strings.TrimSpace(opt)) {
		case "pk", "key":
			tag.key = true
		case "nullable", "null":
			tag.nullable = true
		case "notnull":
			tag.notNull = true
		case "computed":
			tag.computed = true
		case "rowversion", "timestamp":
			tag.rowVersion = true
		}
	}
	return tag
}

// resolveStruct builds the entity type for a struct type.
func resolveStruct(t reflect.Type, schemaName string) (*EntityType, error) {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: %s", ErrNotStruct, t)
	}

	e := &EntityType{
		Name:   t.Name(),
		Schema: schemaName,
		goType: t,
	}

	zero := reflect.New(t)
	if n, ok := zero.Interface().(TableNamer); ok && n.TableName() != "" {
		e.Name = n.TableName()
	}
	if n, ok := zero.Interface().(SchemaNamer); ok && n.TableSchema() != "" {
		e.Schema = n.TableSchema()
	}
	if e.Name == "" {
		return nil, fmt.Errorf("%w: anonymous struct needs a TableName method", ErrNotStruct)
	}

	props, err := collectFields(t, nil)
	if err != nil {
		return nil, fmt.Errorf("entity %s: %w", e.Name, err)
	}
	if len(props) == 0 {
		return nil, fmt.Errorf("entity %s has no mapped columns", e.Name)
	}
	e.properties = props

	if err := e.index(); err != nil {
		return nil, err
	}
	return e, nil
}

// collectFields walks t in declaration order, flattening embedded structs.
func collectFields(t reflect.Type, parent []int) ([]*Property, error) {
	var props []*Property

	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		tag := parseTag(f)
		if tag.skip {
			continue
		}

		index := make([]int, len(parent)+1)
		copy(index, parent)
		index[len(parent)] = i

		ft := f.Type
		if f.Anonymous && tag.name == "" {
			et := ft
			if et.Kind() == reflect.Pointer {
				et = et.Elem()
			}
			if et.Kind() == reflect.Struct && !isScalarStruct(et) {
				if ft.Kind() == reflect.Pointer && !f.IsExported() {
					continue
				}
				nested, err := collectFields(et, index)
				if err != nil {
					return nil, err
				}
				props = append(props, nested...)
				continue
			}
		}
		if !f.IsExported() {
			continue
		}

		def, nullable, err := columnType(ft)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", f.Name, err)
		}

		def.Name = f.Name
		if tag.name != "" {
			def.Name = tag.name
		}
		def.Nullable = nullable || tag.nullable
		if tag.notNull {
			def.Nullable = false
		}
		if tag.rowVersion || def.Subtype == schema.SubtypeRowVersion {
			def.Type = schema.TypeBlob
			def.Subtype = schema.SubtypeRowVersion
			def.Length = rowversion.Size
		}
		if tag.key {
			def.Key = true
			def.Nullable = false
		}

		if err := applyTypeTags(&def, f); err != nil {
			return nil, fmt.Errorf("field %s: %w", f.Name, err)
		}

		props = append(props, &Property{
			FieldDef:  def,
			FieldName: f.Name,
			Computed:  tag.computed || def.IsRowVersion(),
			index:     index,
		})
	}

	return props, nil
}

// applyTypeTags handles sqltype, size and precision tags.
func applyTypeTags(def *schema.FieldDef, f reflect.StructField) error {
	if s, ok := f.Tag.Lookup("sqltype"); ok {
		def.SQLType = strings.TrimSpace(s)
	}
	if s, ok := f.Tag.Lookup("size"); ok {
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil || n < 0 {
			return fmt.Errorf("invalid size tag %q", s)
		}
		def.Length = n
	}
	if s, ok := f.Tag.Lookup("precision"); ok {
		parsed, err := schema.ParseDataType("DECIMAL(" + s + ")")
		if err != nil {
			return fmt.Errorf("invalid precision tag %q: %w", s, err)
		}
		def.Type = schema.TypeDecimal
		def.Subtype = ""
		def.Precision = parsed.Precision
		def.Scale = parsed.Scale
	}
	return nil
}

// columnType maps a Go type to an abstract column type.
// Pointer types and sql.Null* wrappers are nullable.
func columnType(t reflect.Type) (schema.FieldDef, bool, error) {
	nullable := false
	if t.Kind() == reflect.Pointer && t != bytesType {
		nullable = true
		t = t.Elem()
	}

	if def, ok := nullTypes[t]; ok {
		return def, true, nil
	}

	switch t {
	case timeType:
		return schema.FieldDef{Type: schema.TypeDatetime}, nullable, nil
	case uuidType:
		return schema.FieldDef{Type: schema.TypeUUID}, nullable, nil
	case rowVersionType:
		return schema.FieldDef{Type: schema.TypeBlob, Subtype: schema.SubtypeRowVersion, Length: rowversion.Size}, nullable, nil
	case bytesType:
		return schema.FieldDef{Type: schema.TypeBlob}, true, nil
	}

	switch t.Kind() {
	case reflect.Bool:
		return schema.FieldDef{Type: schema.TypeBoolean}, nullable, nil
	case reflect.Int8, reflect.Int16, reflect.Uint8:
		return schema.FieldDef{Type: schema.TypeInteger, Subtype: schema.SubtypeSmallInt}, nullable, nil
	case reflect.Int32, reflect.Uint16:
		return schema.FieldDef{Type: schema.TypeInteger, Subtype: schema.SubtypeInt}, nullable, nil
	case reflect.Int, reflect.Int64, reflect.Uint, reflect.Uint32, reflect.Uint64:
		return schema.FieldDef{Type: schema.TypeInteger, Subtype: schema.SubtypeBigInt}, nullable, nil
	case reflect.Float32:
		return schema.FieldDef{Type: schema.TypeReal, Subtype: schema.SubtypeFloat32}, nullable, nil
	case reflect.Float64:
		return schema.FieldDef{Type: schema.TypeReal}, nullable, nil
	case reflect.String:
		return schema.FieldDef{Type: schema.TypeText}, nullable, nil
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			return schema.FieldDef{Type: schema.TypeBlob}, true, nil
		}
	}

	return schema.FieldDef{}, false, fmt.Errorf("%w: %s", ErrUnsupportedType, t)
}

// isScalarStruct reports struct types mapped to a single column.
func isScalarStruct(t reflect.Type) bool {
	if _, ok := nullTypes[t]; ok {
		return true
	}
	return t == timeType
}
