package ecs

import (
	"strings"

	"github.com/rotisserie/eris"
)

type fieldDef[T any] struct {
	name string
	get  func(*T) float64
	set  func(*T, float64)
}

// FieldSchema declares how a component kind decomposes into numeric columns.
// Each field is stored in its own packed []float64 indexed by store slot, and
// a component value is rebuilt from the columns on demand.
//
//	schema := ecs.NewFieldSchema[Position]().
//		Float64("x", func(p *Position) float64 { return float64(p.X) },
//			func(p *Position, v float64) { p.X = float32(v) }).
//		Float64("y", func(p *Position) float64 { return float64(p.Y) },
//			func(p *Position, v float64) { p.Y = float32(v) })
type FieldSchema[T any] struct {
	fields []fieldDef[T]
}

// NewFieldSchema returns an empty schema for T.
func NewFieldSchema[T any]() *FieldSchema[T] {
	return &FieldSchema[T]{}
}

// Float64 appends a column named name.
func (s *FieldSchema[T]) Float64(name string, get func(*T) float64, set func(*T, float64)) *FieldSchema[T] {
	s.fields = append(s.fields, fieldDef[T]{name: name, get: get, set: set})
	return s
}

// Names returns the column names in declaration order.
func (s *FieldSchema[T]) Names() []string {
	names := make([]string, len(s.fields))
	for i, f := range s.fields {
		names[i] = f.name
	}
	return names
}

func (s *FieldSchema[T]) validate() error {
	if s == nil || len(s.fields) == 0 {
		return eris.Wrap(ErrInvalidSchema, "schema declares no fields")
	}
	seen := make(map[string]struct{}, len(s.fields))
	for i, f := range s.fields {
		if strings.TrimSpace(f.name) == "" {
			return eris.Wrapf(ErrInvalidSchema, "field %d has a blank name", i)
		}
		if _, dup := seen[f.name]; dup {
			return eris.Wrapf(ErrInvalidSchema, "field %q declared twice", f.name)
		}
		if f.get == nil || f.set == nil {
			return eris.Wrapf(ErrInvalidSchema, "field %q is missing an accessor", f.name)
		}
		seen[f.name] = struct{}{}
	}
	return nil
}

func (s *FieldSchema[T]) index(name string) int {
	for i, f := range s.fields {
		if f.name == name {
			return i
		}
	}
	return -1
}
