package ecs

import (
	"reflect"
)

// AddSingleton stores value as the world's only instance of T and returns a
// pointer to it. An existing instance is overwritten in place, so pointers
// handed out earlier stay valid.
func AddSingleton[T any](w *World, value T) *T {
	t := reflect.TypeFor[T]()
	if existing, ok := w.singletons[t]; ok {
		p := existing.(*T)
		*p = value
		return p
	}
	p := new(T)
	*p = value
	w.singletons[t] = p
	return p
}

// GetSingleton returns the world's instance of T.
func GetSingleton[T any](w *World) (*T, bool) {
	p, ok := w.singletons[reflect.TypeFor[T]()]
	if !ok {
		return nil, false
	}
	return p.(*T), true
}

// RemoveSingleton drops the world's instance of T.
func RemoveSingleton[T any](w *World) bool {
	t := reflect.TypeFor[T]()
	if _, ok := w.singletons[t]; !ok {
		return false
	}
	delete(w.singletons, t)
	return true
}

// Singleton provides access to a single value that is not associated with
// any entity. Use this for global game state, configuration, or other
// singleton data.
type Singleton[T any] struct {
	world *World
}

// NewSingleton creates a Singleton accessor for w. If the value does not
// exist yet it is created from initializer, or the zero value otherwise.
func NewSingleton[T any](w *World, initializer ...T) *Singleton[T] {
	if _, ok := GetSingleton[T](w); !ok {
		var value T
		if len(initializer) > 0 {
			value = initializer[0]
		}
		AddSingleton(w, value)
	}
	return &Singleton[T]{world: w}
}

// Init binds the accessor to w.
// This is called automatically by the Scheduler during system registration.
func (s *Singleton[T]) Init(w *World) {
	s.world = w
}

// Get returns a pointer to the value, or nil if it has not been added.
func (s *Singleton[T]) Get() *T {
	if s.world == nil {
		return nil
	}
	p, _ := GetSingleton[T](s.world)
	return p
}

// Exists returns true if the value has been added to the world.
func (s *Singleton[T]) Exists() bool {
	return s.Get() != nil
}
