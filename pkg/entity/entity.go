// Package entity resolves column metadata for entity shapes.
//
// An entity shape is either a Go struct type, described by struct tags,
// or a dynamic shape created with Define whose rows are Record values.
// The resolved EntityType lists properties in a stable order; that order
// is used both for generated DDL and for bulk-copy column mapping.
//
// Struct tags:
//
//	type Customer struct {
//	    ID      int64      `db:"id,pk"`
//	    Name    string     `db:"name" size:"100"`
//	    Balance float64    `db:"balance" precision:"18,4"`
//	    Note    *string    `db:"note"`                 // pointer: nullable
//	    Code    string     `sqltype:"nchar(3)"`        // explicit SQL type
//	    Version rowversion.RowVersion `db:"ver,rowversion"`
//	    Cache   string     `db:"-"`                    // skipped
//	}
package entity

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/ruslano69/tdtp-bulk/pkg/core/schema"
)

var (
	// ErrNotStruct is returned when a Go type other than a struct (or pointer to struct) is resolved.
	ErrNotStruct = errors.New("entity: type is not a struct")

	// ErrUnsupportedType is returned for field types without a column mapping.
	ErrUnsupportedType = errors.New("entity: unsupported field type")

	// ErrEntityMismatch is returned when a value does not belong to the entity type.
	ErrEntityMismatch = errors.New("entity: value does not match entity type")
)

// Property is one mapped column.
type Property struct {
	schema.FieldDef

	// FieldName is the Go field name, or the column name for dynamic shapes.
	FieldName string

	// Computed columns are generated by the server and never written to real tables.
	Computed bool

	ordinal int
	index   []int // struct field path; nil for dynamic shapes
}

// Ordinal is the position of the property within its entity type.
func (p *Property) Ordinal() int {
	return p.ordinal
}

// Writable reports whether the server accepts explicit values for the column.
func (p *Property) Writable() bool {
	return !p.Computed && !p.IsRowVersion()
}

// EntityType is the resolved shape of an entity.
type EntityType struct {
	// Name is the table name.
	Name string

	// Schema is the table schema; empty means the connection default.
	Schema string

	goType     reflect.Type // struct type, nil for dynamic shapes
	properties []*Property
	byName     map[string]*Property
}

// GoType returns the struct type, or nil for dynamic shapes.
func (e *EntityType) GoType() reflect.Type {
	return e.goType
}

// IsDynamic reports whether the entity was created with Define.
func (e *EntityType) IsDynamic() bool {
	return e.goType == nil
}

// Filter selects properties.
type Filter func(*Property) bool

// Properties returns the properties accepted by every filter, in declaration order.
func (e *EntityType) Properties(filters ...Filter) []*Property {
	out := make([]*Property, 0, len(e.properties))
next:
	for _, p := range e.properties {
		for _, f := range filters {
			if f != nil && !f(p) {
				continue next
			}
		}
		out = append(out, p)
	}
	return out
}

// Keys returns the key properties in declaration order.
func (e *EntityType) Keys() []*Property {
	return e.Properties(func(p *Property) bool { return p.Key })
}

// Property looks a property up by column name or Go field name, case-insensitively.
func (e *EntityType) Property(name string) (*Property, bool) {
	p, ok := e.byName[strings.ToLower(name)]
	return p, ok
}

// Columns returns the column definitions of props.
func Columns(props []*Property) []schema.FieldDef {
	cols := make([]schema.FieldDef, len(props))
	for i, p := range props {
		cols[i] = p.FieldDef
	}
	return cols
}

// Names returns the column names of props.
func Names(props []*Property) []string {
	names := make([]string, len(props))
	for i, p := range props {
		names[i] = p.Name
	}
	return names
}

// Include keeps only the named properties. No names keeps everything.
func Include(names ...string) Filter {
	if len(names) == 0 {
		return nil
	}
	set := nameSet(names)
	return func(p *Property) bool {
		return set[strings.ToLower(p.Name)] || set[strings.ToLower(p.FieldName)]
	}
}

// Exclude drops the named properties.
func Exclude(names ...string) Filter {
	if len(names) == 0 {
		return nil
	}
	set := nameSet(names)
	return func(p *Property) bool {
		return !set[strings.ToLower(p.Name)] && !set[strings.ToLower(p.FieldName)]
	}
}

// Writable keeps properties the server accepts values for.
func Writable(p *Property) bool {
	return p.Writable()
}

func nameSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[strings.ToLower(strings.TrimSpace(n))] = true
	}
	return set
}

func (e *EntityType) index() error {
	e.byName = make(map[string]*Property, len(e.properties)*2)
	for i, p := range e.properties {
		p.ordinal = i
		key := strings.ToLower(p.Name)
		if _, dup := e.byName[key]; dup {
			return fmt.Errorf("entity %s: duplicate column %q", e.Name, p.Name)
		}
		e.byName[key] = p
	}
	// Go field names are a fallback and never shadow a column name
	for _, p := range e.properties {
		key := strings.ToLower(p.FieldName)
		if _, taken := e.byName[key]; !taken {
			e.byName[key] = p
		}
	}
	if err := schema.ValidateColumns(Columns(e.properties)); err != nil {
		return fmt.Errorf("entity %s: %w", e.Name, err)
	}
	return nil
}
