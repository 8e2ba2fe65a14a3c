package ecs

import (
	"reflect"
	"strings"

	"github.com/rotisserie/eris"
)

// ComponentID is the bit index assigned to a component kind.
type ComponentID uint16

// DefaultComponentCapacity is the registry width used when none is configured.
const DefaultComponentCapacity = 64

// MaxComponentCapacity is the number of distinct ComponentID values.
const MaxComponentCapacity = 1 << 16

type componentKind struct {
	id      ComponentID
	typ     reflect.Type
	layout  string
	factory func(storeOptions) iComponentStorage
}

// ComponentRegistry assigns every component kind a permanent bit index in a
// fixed-width membership vector. Each World owns its registry, so independent
// worlds never share bit assignments.
type ComponentRegistry struct {
	capacity int
	words    int
	byType   map[reflect.Type]*componentKind
	kinds    []*componentKind
}

// NewComponentRegistry creates a registry able to hold capacity kinds. The
// capacity is rounded up to a whole number of 64-bit words and capped at
// MaxComponentCapacity.
func NewComponentRegistry(capacity int) *ComponentRegistry {
	if capacity <= 0 {
		capacity = DefaultComponentCapacity
	}
	capacity = min(capacity, MaxComponentCapacity)
	words := wordsFor(capacity)
	return &ComponentRegistry{
		capacity: words * bitsPerWord,
		words:    words,
		byType:   make(map[reflect.Type]*componentKind),
	}
}

// RegisterComponent registers T with a whole-value layout. Registering a kind
// that is already known returns its existing id.
func RegisterComponent[T any](r *ComponentRegistry) (ComponentID, error) {
	t := reflect.TypeFor[T]()
	if kind, ok := r.byType[t]; ok {
		return kind.id, nil
	}
	return r.add(t, "", func(opts storeOptions) iComponentStorage {
		return newComponentStore[T](opts, nil)
	})
}

// RegisterColumnar registers T with a field-decomposed layout described by
// schema. The schema is validated here so that layout errors surface at
// registration instead of first use.
func RegisterColumnar[T any](r *ComponentRegistry, schema *FieldSchema[T]) (ComponentID, error) {
	t := reflect.TypeFor[T]()
	if err := schema.validate(); err != nil {
		return 0, eris.Wrapf(err, "register %s", t)
	}

	layout := "columnar:" + strings.Join(schema.Names(), ",")
	if kind, ok := r.byType[t]; ok {
		if kind.layout != layout {
			return 0, eris.Wrapf(ErrLayoutConflict, "register %s", t)
		}
		return kind.id, nil
	}
	return r.add(t, layout, func(opts storeOptions) iComponentStorage {
		return newComponentStore[T](opts, schema)
	})
}

// MustRegister panics when registration fails. Intended for package-level
// setup where a capacity error is a programming mistake.
func MustRegister(id ComponentID, err error) ComponentID {
	if err != nil {
		panic(err)
	}
	return id
}

func (r *ComponentRegistry) add(t reflect.Type, layout string, factory func(storeOptions) iComponentStorage) (ComponentID, error) {
	if len(r.kinds) >= r.capacity {
		return 0, eris.Wrapf(ErrRegistryFull, "register %s: capacity %d", t, r.capacity)
	}
	kind := &componentKind{
		id:      ComponentID(len(r.kinds)),
		typ:     t,
		layout:  layout,
		factory: factory,
	}
	r.byType[t] = kind
	r.kinds = append(r.kinds, kind)
	return kind.id, nil
}

// ID returns the bit index assigned to t.
func (r *ComponentRegistry) ID(t reflect.Type) (ComponentID, bool) {
	kind, ok := r.byType[t]
	if !ok {
		return 0, false
	}
	return kind.id, true
}

// IsRegistered reports whether t has a bit index.
func (r *ComponentRegistry) IsRegistered(t reflect.Type) bool {
	_, ok := r.byType[t]
	return ok
}

// TypeOf returns the kind assigned to id.
func (r *ComponentRegistry) TypeOf(id ComponentID) (reflect.Type, bool) {
	if int(id) >= len(r.kinds) {
		return nil, false
	}
	return r.kinds[id].typ, true
}

// MaskOf returns the mask with the bit of every given kind set. The second
// result is false if any kind is unregistered; the bits of the registered
// kinds are still set.
func (r *ComponentRegistry) MaskOf(types ...reflect.Type) (Mask, bool) {
	m := r.NewMask()
	all := true
	for _, t := range types {
		kind, ok := r.byType[t]
		if !ok {
			all = false
			continue
		}
		m.Set(kind.id)
	}
	return m, all
}

// NewMask returns an empty mask of the registry's width.
func (r *ComponentRegistry) NewMask() Mask {
	return newMask(r.words)
}

// Len returns the number of registered kinds.
func (r *ComponentRegistry) Len() int {
	return len(r.kinds)
}

// Capacity returns the fixed number of bits available.
func (r *ComponentRegistry) Capacity() int {
	return r.capacity
}

// Types returns the registered kinds in bit order.
func (r *ComponentRegistry) Types() []reflect.Type {
	types := make([]reflect.Type, len(r.kinds))
	for i, kind := range r.kinds {
		types[i] = kind.typ
	}
	return types
}

// TypesOf returns the kinds whose bits are set in m, in bit order.
func (r *ComponentRegistry) TypesOf(m Mask) []reflect.Type {
	types := make([]reflect.Type, 0, m.Count())
	m.ForEach(func(id ComponentID) {
		if int(id) < len(r.kinds) {
			types = append(types, r.kinds[id].typ)
		}
	})
	return types
}

func (r *ComponentRegistry) kind(id ComponentID) *componentKind {
	if int(id) >= len(r.kinds) {
		return nil
	}
	return r.kinds[id]
}
