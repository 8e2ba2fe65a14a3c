package ecs

import (
	"errors"
	"iter"
	"reflect"
	"unsafe"

	"github.com/rotisserie/eris"
)

// View is a typed window over the entities holding a combination of
// components. T must be a struct whose fields are pointers to component
// kinds. Embedded fields are always required; named fields can be marked
// optional with the `ecs:"optional"` struct tag.
//
// The pointers a View hands out refer to copies. Use Write to store changes.
type View[T any] struct {
	world       *World
	types       []reflect.Type
	optional    []bool
	fieldOffset []uintptr
	cond        Condition
}

// NewView creates a view for the struct type T over w.
func NewView[T any](w *World) *View[T] {
	structType := reflect.TypeFor[T]()

	if structType.Kind() != reflect.Struct {
		panic("View type parameter must be a struct")
	}

	v := &View[T]{world: w}
	var required []reflect.Type

	for i := 0; i < structType.NumField(); i++ {
		field := structType.Field(i)
		fieldType := field.Type

		if fieldType.Kind() != reflect.Ptr {
			panic("View struct fields must be pointer types")
		}

		isOptional := false
		if !field.Anonymous {
			tag := field.Tag.Get("ecs")
			if tag != "" {
				if tag == "optional" {
					isOptional = true
				} else {
					panic("invalid ecs tag value: \"" + tag + "\" (only \"optional\" is supported)")
				}
			}
		}

		componentType := fieldType.Elem()
		v.types = append(v.types, componentType)
		v.fieldOffset = append(v.fieldOffset, field.Offset)
		v.optional = append(v.optional, isOptional)
		if !isOptional {
			required = append(required, componentType)
		}
	}

	v.cond = Match().All(required...)
	return v
}

// Condition returns the condition selecting the view's entities.
func (v *View[T]) Condition() Condition {
	return v.cond
}

func (v *View[T]) field(ptr *T, i int) reflect.Value {
	addr := unsafe.Add(unsafe.Pointer(ptr), v.fieldOffset[i])
	return reflect.NewAt(reflect.PointerTo(v.types[i]), addr).Elem()
}

// Fill populates ptr with copies of id's components. Returns false if the
// entity is missing any required component. Missing optional components
// are set to nil.
func (v *View[T]) Fill(id EntityId, ptr *T) bool {
	if !v.world.Matches(v.cond, id) {
		return false
	}
	for i, componentType := range v.types {
		field := v.field(ptr, i)
		value, ok := v.world.Component(id, componentType)
		if !ok {
			if !v.optional[i] {
				return false
			}
			field.SetZero()
			continue
		}
		copied := reflect.New(componentType)
		copied.Elem().Set(reflect.ValueOf(value))
		field.Set(copied)
	}
	return true
}

// Get returns a populated view struct for id, or nil if the entity doesn't
// have all the required components.
func (v *View[T]) Get(id EntityId) *T {
	var result T
	if !v.Fill(id, &result) {
		return nil
	}
	return &result
}

// Iter yields every matching entity in ascending id order together with its
// populated view struct.
func (v *View[T]) Iter() iter.Seq2[EntityId, T] {
	return func(yield func(EntityId, T) bool) {
		for _, id := range v.world.Query(v.cond) {
			var result T
			if !v.Fill(id, &result) {
				continue
			}
			if !yield(id, result) {
				return
			}
		}
	}
}

// Values returns an iterator over just the view structs.
func (v *View[T]) Values() iter.Seq[T] {
	return func(yield func(T) bool) {
		for _, value := range v.Iter() {
			if !yield(value) {
				return
			}
		}
	}
}

// Write stores every non-nil field of data on id, attaching optional
// components that are not present yet.
func (v *View[T]) Write(id EntityId, data T) error {
	var errs []error
	for i, componentType := range v.types {
		field := v.field(&data, i)
		if field.IsNil() {
			if !v.optional[i] {
				errs = append(errs, eris.Errorf("required component %s is nil", componentType))
			}
			continue
		}
		value := field.Elem().Interface()
		if v.world.HasType(id, componentType) {
			errs = append(errs, v.world.Replace(id, value))
		} else {
			errs = append(errs, v.world.Attach(id, value))
		}
	}
	return errors.Join(errs...)
}

// Spawn creates a new entity holding the non-nil fields of data. On failure
// the half-built entity is destroyed.
func (v *View[T]) Spawn(data T) (EntityId, error) {
	for i := range v.types {
		if !v.optional[i] && v.field(&data, i).IsNil() {
			panic("required component is nil in View.Spawn")
		}
	}

	id := v.world.CreateEntity()
	if err := v.Write(id, data); err != nil {
		v.world.Destroy(id)
		return 0, err
	}
	return id, nil
}
