package entity

import (
	"database/sql/driver"
	"fmt"
	"reflect"
)

var valuerType = reflect.TypeOf((*driver.Valuer)(nil)).Elem()

// AppendValues appends the column values of entity for props to dst.
// Pointers are dereferenced, nil pointers become NULL and driver.Valuer
// implementations are resolved, so every value is ready for a driver.
func (e *EntityType) AppendValues(dst []any, entity any, props []*Property) ([]any, error) {
	if e.IsDynamic() {
		rec, ok := entity.(Record)
		if !ok {
			if p, isPtr := entity.(*Record); isPtr && p != nil {
				rec, ok = *p, true
			}
		}
		if !ok {
			return dst, fmt.Errorf("%w: %s expects entity.Record, got %T", ErrEntityMismatch, e.Name, entity)
		}
		for _, p := range props {
			var v any
			if p.ordinal < len(rec) {
				v = rec[p.ordinal]
			}
			nv, err := normalize(reflect.ValueOf(v))
			if err != nil {
				return dst, fmt.Errorf("column %s: %w", p.Name, err)
			}
			dst = append(dst, nv)
		}
		return dst, nil
	}

	sv, err := e.structValue(entity)
	if err != nil {
		return dst, err
	}
	for _, p := range props {
		fv, err := sv.FieldByIndexErr(p.index)
		if err != nil {
			// nil embedded pointer: the promoted column is NULL
			dst = append(dst, nil)
			continue
		}
		nv, err := normalize(fv)
		if err != nil {
			return dst, fmt.Errorf("column %s: %w", p.Name, err)
		}
		dst = append(dst, nv)
	}
	return dst, nil
}

// Value returns a single column value, see AppendValues.
func (e *EntityType) Value(entity any, p *Property) (any, error) {
	vals, err := e.AppendValues(make([]any, 0, 1), entity, []*Property{p})
	if err != nil {
		return nil, err
	}
	return vals[0], nil
}

// ScanTargets returns scan destinations for props inside the entity target
// points to. target is *T for struct entities (T may itself be a pointer,
// which is then allocated) or *Record for dynamic shapes.
func (e *EntityType) ScanTargets(target any, props []*Property) ([]any, error) {
	if e.IsDynamic() {
		rp, ok := target.(*Record)
		if !ok || rp == nil {
			return nil, fmt.Errorf("%w: %s expects *entity.Record, got %T", ErrEntityMismatch, e.Name, target)
		}
		if len(*rp) < len(e.properties) {
			*rp = make(Record, len(e.properties))
		}
		dests := make([]any, len(props))
		for i, p := range props {
			dests[i] = &(*rp)[p.ordinal]
		}
		return dests, nil
	}

	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return nil, fmt.Errorf("%w: scan target must be a non-nil pointer, got %T", ErrEntityMismatch, target)
	}
	sv := rv.Elem()
	for sv.Kind() == reflect.Pointer {
		if sv.IsNil() {
			sv.Set(reflect.New(sv.Type().Elem()))
		}
		sv = sv.Elem()
	}
	if sv.Type() != e.goType {
		return nil, fmt.Errorf("%w: %s expects %s, got %s", ErrEntityMismatch, e.Name, e.goType, sv.Type())
	}

	dests := make([]any, len(props))
	for i, p := range props {
		fv := sv
		for _, idx := range p.index {
			if fv.Kind() == reflect.Pointer {
				if fv.IsNil() {
					fv.Set(reflect.New(fv.Type().Elem()))
				}
				fv = fv.Elem()
			}
			fv = fv.Field(idx)
		}
		dests[i] = fv.Addr().Interface()
	}
	return dests, nil
}

func (e *EntityType) structValue(entity any) (reflect.Value, error) {
	v := reflect.ValueOf(entity)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return reflect.Value{}, fmt.Errorf("%w: nil %s", ErrEntityMismatch, e.Name)
		}
		v = v.Elem()
	}
	if !v.IsValid() || v.Type() != e.goType {
		return reflect.Value{}, fmt.Errorf("%w: %s expects %s, got %T", ErrEntityMismatch, e.Name, e.goType, entity)
	}
	return v, nil
}

func normalize(v reflect.Value) (any, error) {
	if !v.IsValid() {
		return nil, nil
	}
	if v.Type().Implements(valuerType) {
		if v.Kind() == reflect.Pointer && v.IsNil() {
			return nil, nil
		}
		dv, err := v.Interface().(driver.Valuer).Value()
		if err != nil {
			return nil, err
		}
		return dv, nil
	}
	if v.CanAddr() && v.Addr().Type().Implements(valuerType) {
		return v.Addr().Interface().(driver.Valuer).Value()
	}
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil, nil
		}
		return normalize(v.Elem())
	}
	return v.Interface(), nil
}
