package schema

import (
	"reflect"
	"testing"
)

func TestRegistry(t *testing.T) {
	t.Run("register and lookup", func(t *testing.T) {
		r := NewRegistry()
		if err := r.Register(Schema{Name: "thing", New: func() any { return &struct{}{} }}); err != nil {
			t.Fatal(err)
		}

		s, ok := r.Lookup("thing")
		if !ok {
			t.Fatal("expected registered schema to be found")
		}
		if s.Name != "thing" {
			t.Errorf("unexpected schema name %q", s.Name)
		}
	})

	t.Run("unknown lookup", func(t *testing.T) {
		r := NewRegistry()
		if _, ok := r.Lookup("ghost"); ok {
			t.Error("expected miss for unregistered schema")
		}
	})

	t.Run("duplicate registration", func(t *testing.T) {
		r := NewRegistry()
		s := Schema{Name: "thing", New: func() any { return &struct{}{} }}
		if err := r.Register(s); err != nil {
			t.Fatal(err)
		}
		if err := r.Register(s); err == nil {
			t.Error("expected error for duplicate registration")
		}
	})

	t.Run("invalid schemas rejected", func(t *testing.T) {
		r := NewRegistry()
		if err := r.Register(Schema{Name: "", New: func() any { return nil }}); err == nil {
			t.Error("expected error for empty name")
		}
		if err := r.Register(Schema{Name: "x"}); err == nil {
			t.Error("expected error for missing constructor")
		}
	})
}

func TestDefaultRegistry(t *testing.T) {
	r := DefaultRegistry()

	want := []string{"comment", "post", "user"}
	if got := r.Names(); !reflect.DeepEqual(got, want) {
		t.Errorf("Names() = %v, want %v", got, want)
	}

	// Every constructor must return a fresh instance.
	s, _ := r.Lookup("user")
	if s.New() == s.New() {
		t.Error("constructor must mint a new instance per call")
	}

	if _, ok := s.New().(*User); !ok {
		t.Error("user schema must construct *User")
	}
}
