package entity

import (
	"fmt"
	"reflect"
	"sync"
)

type cacheKey struct {
	t      reflect.Type
	schema string
}

// Registry resolves and caches entity types.
//
// Resolution is schema aware: the same Go type resolved for two schemas yields
// two entity types, and the cache never hands out one in place of the other.
// A Registry is safe for concurrent use.
type Registry struct {
	defaultSchema string

	mu    sync.RWMutex
	cache map[cacheKey]*EntityType
}

// NewRegistry creates a registry. defaultSchema applies to entities without a
// TableSchema method; empty means the connection default.
func NewRegistry(defaultSchema string) *Registry {
	return &Registry{
		defaultSchema: defaultSchema,
		cache:         make(map[cacheKey]*EntityType),
	}
}

// DefaultSchema returns the schema used when none is given.
func (r *Registry) DefaultSchema() string {
	return r.defaultSchema
}

// Resolve returns the entity type for t in schemaName. An empty schemaName
// falls back to the registry default. A TableSchema method on the entity
// always wins.
func (r *Registry) Resolve(t reflect.Type, schemaName string) (*EntityType, error) {
	if t == nil {
		return nil, fmt.Errorf("%w: nil type", ErrNotStruct)
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if schemaName == "" {
		schemaName = r.defaultSchema
	}

	key := cacheKey{t: t, schema: schemaName}

	r.mu.RLock()
	e, ok := r.cache[key]
	r.mu.RUnlock()
	if ok {
		return e, nil
	}

	e, err := resolveStruct(t, schemaName)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	if cached, ok := r.cache[key]; ok {
		e = cached
	} else {
		r.cache[key] = e
	}
	r.mu.Unlock()

	return e, nil
}

// For resolves the entity type of T in the registry default schema.
func For[T any](r *Registry) (*EntityType, error) {
	return r.Resolve(reflect.TypeOf((*T)(nil)).Elem(), "")
}

// ForSchema resolves the entity type of T in schemaName.
func ForSchema[T any](r *Registry, schemaName string) (*EntityType, error) {
	return r.Resolve(reflect.TypeOf((*T)(nil)).Elem(), schemaName)
}

// Len returns the number of cached entity types.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.cache)
}
