package entity

import (
	"fmt"
	"strings"

	"github.com/ruslano69/tdtp-bulk/pkg/core/schema"
)

// Record is a row of a dynamic entity; values are positional by property ordinal.
type Record []any

// Define creates a dynamic entity type from column definitions.
// name may be qualified as "schema.table".
func Define(name string, cols ...schema.FieldDef) (*EntityType, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("entity name is required")
	}

	e := &EntityType{Name: name}
	if dot := strings.LastIndex(name, "."); dot > 0 {
		e.Schema, e.Name = name[:dot], name[dot+1:]
	}

	e.properties = make([]*Property, len(cols))
	for i, col := range cols {
		if col.Key {
			col.Nullable = false
		}
		e.properties[i] = &Property{
			FieldDef:  col,
			FieldName: col.Name,
			Computed:  col.IsRowVersion(),
		}
	}

	if err := e.index(); err != nil {
		return nil, err
	}
	return e, nil
}

// MustDefine is like Define but panics on error.
func MustDefine(name string, cols ...schema.FieldDef) *EntityType {
	e, err := Define(name, cols...)
	if err != nil {
		panic(err)
	}
	return e
}

// NewRecord returns an empty record sized for e.
func (e *EntityType) NewRecord() Record {
	return make(Record, len(e.properties))
}
