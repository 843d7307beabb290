// Package schema describes the set of fields a record type declares.
//
// The predicate compiler consults a [Lookup] before emitting a field
// reference, so only fields the remote listing API knows about end up
// in a filter string. Schemas can be reflected from Go struct types or
// taken from an Arrow schema describing the remote records.
package schema

import (
	"reflect"
	"slices"
	"sync"

	"github.com/apache/arrow-go/v18/arrow"
)

// Lookup answers whether a record type declares a field.
type Lookup interface {
	// HasField reports whether the record type named typeName declares fieldName.
	// Field names are matched exactly.
	HasField(typeName, fieldName string) bool
}

// Schema is the set of field names declared on one record type.
// A Schema is immutable and safe for concurrent use.
type Schema struct {
	name   string
	fields map[string]struct{}
}

// New returns a schema for the record type named name with the given fields.
func New(name string, fields ...string) *Schema {
	s := &Schema{name: name, fields: make(map[string]struct{}, len(fields))}
	for _, f := range fields {
		s.fields[f] = struct{}{}
	}
	return s
}

// Of returns the schema reflected from T.
func Of[T any]() *Schema {
	return FromType(reflect.TypeFor[T]())
}

// FromType returns the schema reflected from the exported fields of t,
// including fields promoted from embedded structs. Pointer types are
// dereferenced; non-struct types have no fields.
func FromType(t reflect.Type) *Schema {
	t = Indirect(t)
	s := New(TypeName(t))
	if t == nil || t.Kind() != reflect.Struct {
		return s
	}
	for _, sf := range reflect.VisibleFields(t) {
		if sf.IsExported() && !sf.Anonymous {
			s.fields[sf.Name] = struct{}{}
		}
	}
	return s
}

// FromArrow returns a schema named name holding the field names of as.
func FromArrow(name string, as *arrow.Schema) *Schema {
	s := New(name)
	if as == nil {
		return s
	}
	for _, f := range as.Fields() {
		s.fields[f.Name] = struct{}{}
	}
	return s
}

// Name returns the record type name.
func (s *Schema) Name() string { return s.name }

// Has reports whether the schema declares field.
func (s *Schema) Has(field string) bool {
	_, ok := s.fields[field]
	return ok
}

// Fields returns the declared field names in sorted order.
func (s *Schema) Fields() []string {
	names := make([]string, 0, len(s.fields))
	for f := range s.fields {
		names = append(names, f)
	}
	slices.Sort(names)
	return names
}

// HasField implements [Lookup] for a single record type.
func (s *Schema) HasField(typeName, fieldName string) bool {
	return typeName == s.name && s.Has(fieldName)
}

// Registry maps record types to schemas.
//
// Schemas added with [NewRegistry] or [Registry.Register] are explicit
// and keyed by name. Schemas reflected by [Registry.Ensure] are keyed by
// the Go type itself, so distinct types that share a name, such as two
// function-local types, never share a schema.
// Registry is safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	schemas   map[string]*Schema
	reflected map[reflect.Type]*Schema
	names     map[string]*Schema
}

// NewRegistry returns a registry holding the given schemas.
// A later schema replaces an earlier one with the same name.
func NewRegistry(schemas ...*Schema) *Registry {
	r := &Registry{schemas: make(map[string]*Schema, len(schemas))}
	for _, s := range schemas {
		r.schemas[s.name] = s
	}
	return r
}

// Register adds s, replacing any explicit schema with the same name.
// An explicit schema takes precedence over reflected ones of that name.
func (r *Registry) Register(s *Schema) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.schemas == nil {
		r.schemas = make(map[string]*Schema)
	}
	r.schemas[s.name] = s
}

// Ensure returns the explicit schema registered under t's name, or the
// schema reflected from t, reflecting and registering it on first use.
func (r *Registry) Ensure(t reflect.Type) *Schema {
	t = Indirect(t)
	name := TypeName(t)

	r.mu.RLock()
	s, ok := r.lookup(t, name)
	r.mu.RUnlock()
	if ok {
		return s
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.lookup(t, name); ok {
		return s
	}
	if r.reflected == nil {
		r.reflected = make(map[reflect.Type]*Schema)
		r.names = make(map[string]*Schema)
	}
	s = FromType(t)
	r.reflected[t] = s
	if _, taken := r.names[name]; !taken {
		r.names[name] = s
	}
	return s
}

// lookup must be called with r.mu held.
func (r *Registry) lookup(t reflect.Type, name string) (*Schema, bool) {
	if s, ok := r.schemas[name]; ok {
		return s, true
	}
	s, ok := r.reflected[t]
	return s, ok
}

// Schema returns the schema registered under name.
// If only reflected schemas carry the name, the first one reflected is returned.
func (r *Registry) Schema(name string) (*Schema, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if s, ok := r.schemas[name]; ok {
		return s, true
	}
	s, ok := r.names[name]
	return s, ok
}

// HasField implements [Lookup].
// Unknown record types declare no fields.
func (r *Registry) HasField(typeName, fieldName string) bool {
	s, ok := r.Schema(typeName)
	return ok && s.Has(fieldName)
}

// TypeName returns the name a record type is known by: the import path
// and name of a named type with pointers removed, e.g.
// "example.com/api/models.User". Unnamed and predeclared types use
// their Go syntax.
func TypeName(t reflect.Type) string {
	t = Indirect(t)
	if t == nil {
		return ""
	}
	if t.Name() == "" || t.PkgPath() == "" {
		return t.String()
	}
	return t.PkgPath() + "." + t.Name()
}

// Indirect returns the type t points to, following pointers.
func Indirect(t reflect.Type) reflect.Type {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}
