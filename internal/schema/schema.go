package schema

import (
	"fmt"
	"sort"
)

// Schema describes one typed entity shape the quarantine gate can validate
// against. New must return a pointer to a fresh zero value of the target type
// so every validation works on its own instance.
type Schema struct {
	Name string
	New  func() any
}

// Registry holds the fixed set of known schemas. It is built once at startup
// and read-only afterwards, so lookups need no locking.
type Registry struct {
	schemas map[string]Schema
}

// NewRegistry creates an empty schema registry
func NewRegistry() *Registry {
	return &Registry{schemas: make(map[string]Schema)}
}

// Register adds a schema to the registry
func (r *Registry) Register(s Schema) error {
	if s.Name == "" {
		return fmt.Errorf("schema name must not be empty")
	}
	if s.New == nil {
		return fmt.Errorf("schema %q has no constructor", s.Name)
	}
	if _, exists := r.schemas[s.Name]; exists {
		return fmt.Errorf("schema %q already registered", s.Name)
	}
	r.schemas[s.Name] = s
	return nil
}

// Lookup returns the schema registered under name
func (r *Registry) Lookup(name string) (Schema, bool) {
	s, ok := r.schemas[name]
	return s, ok
}

// Names returns all registered schema names, sorted
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.schemas))
	for name := range r.schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry returns a registry with the platform's entity schemas
func DefaultRegistry() *Registry {
	r := NewRegistry()
	// Registration of the built-in entities cannot fail.
	_ = r.Register(Schema{Name: "user", New: func() any { return &User{} }})
	_ = r.Register(Schema{Name: "post", New: func() any { return &Post{} }})
	_ = r.Register(Schema{Name: "comment", New: func() any { return &Comment{} }})
	return r
}
