package ecs

import (
	"errors"
	"iter"
	"reflect"

	"github.com/kamstrup/intmap"
	"github.com/rotisserie/eris"
)

const (
	// DefaultGrowthFactor is the multiplier applied to a full store's backing arrays.
	DefaultGrowthFactor = 1.5
	// DefaultInitialCapacity is the first allocation size of a store.
	DefaultInitialCapacity = 16
)

type storeOptions struct {
	initialCapacity int
	growthFactor    float64
}

func defaultStoreOptions() storeOptions {
	return storeOptions{
		initialCapacity: DefaultInitialCapacity,
		growthFactor:    DefaultGrowthFactor,
	}
}

type pendingAdd[T any] struct {
	id        EntityId
	value     T
	cancelled bool
}

// ComponentStore holds every value of one component kind in a densely packed
// array. Slots are contiguous in [0, Len()); removal moves the last live slot
// into the vacated one, so iteration order is not insertion order and is not
// stable across removals.
//
// A store registered with a FieldSchema keeps one []float64 column per field
// instead of whole values.
type ComponentStore[T any] struct {
	typ    reflect.Type
	schema *FieldSchema[T]

	values   []T
	columns  [][]float64
	entities []EntityId
	size     int
	slots    *intmap.Map[EntityId, int]
	opts     storeOptions

	batching    bool
	adds        []pendingAdd[T]
	addIndex    *intmap.Map[EntityId, int]
	removes     []EntityId
	removeIndex *intmap.Map[EntityId, struct{}]
}

// NewComponentStore creates a standalone whole-value store.
func NewComponentStore[T any]() *ComponentStore[T] {
	return newComponentStore[T](defaultStoreOptions(), nil)
}

// NewColumnarStore creates a standalone field-decomposed store. The schema is
// validated before the store is built.
func NewColumnarStore[T any](schema *FieldSchema[T]) (*ComponentStore[T], error) {
	if err := schema.validate(); err != nil {
		return nil, err
	}
	return newComponentStore[T](defaultStoreOptions(), schema), nil
}

func newComponentStore[T any](opts storeOptions, schema *FieldSchema[T]) *ComponentStore[T] {
	if opts.initialCapacity <= 0 {
		opts.initialCapacity = DefaultInitialCapacity
	}
	if opts.growthFactor <= 1 {
		opts.growthFactor = DefaultGrowthFactor
	}
	cs := &ComponentStore[T]{
		typ:    reflect.TypeFor[T](),
		schema: schema,
		slots:  intmap.New[EntityId, int](opts.initialCapacity),
		opts:   opts,
	}
	if schema != nil {
		cs.columns = make([][]float64, len(schema.fields))
	}
	return cs
}

// Add stores value for id. It fails if id already occupies a slot. While a
// batch is open the addition is buffered until CommitBatch.
func (cs *ComponentStore[T]) Add(id EntityId, value T) error {
	if cs.batching {
		return cs.queueAdd(id, value)
	}
	return cs.addNow(id, value)
}

func (cs *ComponentStore[T]) addNow(id EntityId, value T) error {
	if cs.slots.Has(id) {
		return eris.Wrapf(ErrDuplicateComponent, "entity %d, component %s", id, cs.typ)
	}
	cs.ensureCapacity(cs.size + 1)

	slot := cs.size
	cs.write(slot, value)
	cs.entities[slot] = id
	cs.slots.Put(id, slot)
	cs.size++
	return nil
}

// Get returns a copy of the value stored for id. Columnar stores rebuild the
// value from their field columns.
func (cs *ComponentStore[T]) Get(id EntityId) (T, bool) {
	slot, ok := cs.slots.Get(id)
	if !ok {
		var zero T
		return zero, false
	}
	return cs.read(slot), true
}

// Set overwrites the value stored for id. A value still pending in an open
// batch is replaced instead. Returns false when id has no value or its value
// is queued for removal.
func (cs *ComponentStore[T]) Set(id EntityId, value T) bool {
	if cs.batching {
		if idx, ok := cs.addIndex.Get(id); ok {
			cs.adds[idx].value = value
			return true
		}
		if cs.removeIndex.Has(id) {
			return false
		}
	}
	slot, ok := cs.slots.Get(id)
	if !ok {
		return false
	}
	cs.write(slot, value)
	return true
}

// Has reports whether id occupies a slot. Buffered batch operations are not
// visible until committed.
func (cs *ComponentStore[T]) Has(id EntityId) bool {
	return cs.slots.Has(id)
}

// Remove deletes the value stored for id and returns it. The last live slot
// is moved into the vacated one and its entity mapping updated; the backing
// arrays are never shrunk.
func (cs *ComponentStore[T]) Remove(id EntityId) (T, bool) {
	if cs.batching {
		return cs.queueRemove(id)
	}
	return cs.removeNow(id)
}

func (cs *ComponentStore[T]) removeNow(id EntityId) (T, bool) {
	var zero T
	slot, ok := cs.slots.Get(id)
	if !ok {
		return zero, false
	}
	removed := cs.read(slot)

	last := cs.size - 1
	if slot != last {
		cs.move(last, slot)
		moved := cs.entities[last]
		cs.entities[slot] = moved
		cs.slots.Put(moved, slot)
	}
	cs.clearSlot(last)
	cs.entities[last] = 0
	cs.slots.Del(id)
	cs.size--
	return removed, true
}

// ForEach calls fn with every live value, its entity and its slot in current
// slot order. Iteration stops when fn returns false. fn must not add or remove
// values of this store.
func (cs *ComponentStore[T]) ForEach(fn func(value T, id EntityId, slot int) bool) {
	for slot := 0; slot < cs.size; slot++ {
		if !fn(cs.read(slot), cs.entities[slot], slot) {
			return
		}
	}
}

// Iter returns an iterator over entity ids and value copies in slot order.
func (cs *ComponentStore[T]) Iter() iter.Seq2[EntityId, T] {
	return func(yield func(EntityId, T) bool) {
		for slot := 0; slot < cs.size; slot++ {
			if !yield(cs.entities[slot], cs.read(slot)) {
				return
			}
		}
	}
}

// Slot returns the slot occupied by id.
func (cs *ComponentStore[T]) Slot(id EntityId) (int, bool) {
	return cs.slots.Get(id)
}

// EntityAt returns the entity occupying slot.
func (cs *ComponentStore[T]) EntityAt(slot int) (EntityId, bool) {
	if slot < 0 || slot >= cs.size {
		return 0, false
	}
	return cs.entities[slot], true
}

// Entities returns a copy of the live entity ids in slot order.
func (cs *ComponentStore[T]) Entities() []EntityId {
	out := make([]EntityId, cs.size)
	copy(out, cs.entities[:cs.size])
	return out
}

// Len returns the number of live slots.
func (cs *ComponentStore[T]) Len() int {
	return cs.size
}

// Cap returns the number of slots allocated.
func (cs *ComponentStore[T]) Cap() int {
	return len(cs.entities)
}

// Reserve grows the backing arrays so that n values fit without reallocation.
func (cs *ComponentStore[T]) Reserve(n int) {
	if n > len(cs.entities) {
		cs.resize(n)
	}
}

// Type returns the component kind held by the store.
func (cs *ComponentStore[T]) Type() reflect.Type {
	return cs.typ
}

// Columnar reports whether the store uses a field-decomposed layout.
func (cs *ComponentStore[T]) Columnar() bool {
	return cs.schema != nil
}

// Fields returns the column names of a columnar store.
func (cs *ComponentStore[T]) Fields() []string {
	if cs.schema == nil {
		return nil
	}
	return cs.schema.Names()
}

// FieldArray returns the packed column for name, sized to the live count.
// The slice aliases store memory and is invalidated by the next structural
// change to the store.
func (cs *ComponentStore[T]) FieldArray(name string) ([]float64, bool) {
	if cs.schema == nil {
		return nil, false
	}
	idx := cs.schema.index(name)
	if idx < 0 {
		return nil, false
	}
	return cs.columns[idx][:cs.size], true
}

// BeginBatch starts buffering Add and Remove calls.
func (cs *ComponentStore[T]) BeginBatch() error {
	if cs.batching {
		return eris.Wrapf(ErrBatchOpen, "component %s", cs.typ)
	}
	cs.batching = true
	if cs.addIndex == nil {
		cs.addIndex = intmap.New[EntityId, int](16)
		cs.removeIndex = intmap.New[EntityId, struct{}](16)
	}
	return nil
}

// CommitBatch applies every buffered removal, then every buffered addition,
// and clears the buffer.
func (cs *ComponentStore[T]) CommitBatch() error {
	if !cs.batching {
		return eris.Wrapf(ErrNoBatch, "component %s", cs.typ)
	}
	cs.batching = false

	for _, id := range cs.removes {
		cs.removeNow(id)
	}

	var errs []error
	for _, add := range cs.adds {
		if add.cancelled {
			continue
		}
		if err := cs.addNow(add.id, add.value); err != nil {
			errs = append(errs, err)
		}
	}

	cs.adds = cs.adds[:0]
	cs.removes = cs.removes[:0]
	cs.addIndex.Clear()
	cs.removeIndex.Clear()
	return errors.Join(errs...)
}

// InBatch reports whether a batch is open.
func (cs *ComponentStore[T]) InBatch() bool {
	return cs.batching
}

// Pending returns the number of buffered operations.
func (cs *ComponentStore[T]) Pending() int {
	if !cs.batching {
		return 0
	}
	return cs.addIndex.Len() + len(cs.removes)
}

func (cs *ComponentStore[T]) pendingValue(id EntityId) (T, bool) {
	if cs.batching {
		if idx, ok := cs.addIndex.Get(id); ok {
			return cs.adds[idx].value, true
		}
	}
	var zero T
	return zero, false
}

// current is Get as it will read after the open batch commits: a pending
// addition wins, and a slot queued for removal is absent.
func (cs *ComponentStore[T]) current(id EntityId) (T, bool) {
	if cs.batching {
		if value, ok := cs.pendingValue(id); ok {
			return value, true
		}
		if cs.removeIndex.Has(id) {
			var zero T
			return zero, false
		}
	}
	return cs.Get(id)
}

func (cs *ComponentStore[T]) queueAdd(id EntityId, value T) error {
	if cs.addIndex.Has(id) || (cs.slots.Has(id) && !cs.removeIndex.Has(id)) {
		return eris.Wrapf(ErrDuplicateComponent, "entity %d, component %s", id, cs.typ)
	}
	cs.addIndex.Put(id, len(cs.adds))
	cs.adds = append(cs.adds, pendingAdd[T]{id: id, value: value})
	return nil
}

func (cs *ComponentStore[T]) queueRemove(id EntityId) (T, bool) {
	if idx, ok := cs.addIndex.Get(id); ok {
		cs.adds[idx].cancelled = true
		cs.addIndex.Del(id)
		return cs.adds[idx].value, true
	}

	var zero T
	slot, ok := cs.slots.Get(id)
	if !ok || cs.removeIndex.Has(id) {
		return zero, false
	}
	cs.removeIndex.Put(id, struct{}{})
	cs.removes = append(cs.removes, id)
	return cs.read(slot), true
}

func (cs *ComponentStore[T]) ensureCapacity(n int) {
	capacity := len(cs.entities)
	if n <= capacity {
		return
	}
	next := int(float64(capacity) * cs.opts.growthFactor)
	if capacity == 0 {
		next = cs.opts.initialCapacity
	}
	if next < n {
		next = n
	}
	cs.resize(next)
}

func (cs *ComponentStore[T]) resize(capacity int) {
	entities := make([]EntityId, capacity)
	copy(entities, cs.entities[:cs.size])
	cs.entities = entities

	if cs.schema == nil {
		values := make([]T, capacity)
		copy(values, cs.values[:cs.size])
		cs.values = values
		return
	}
	for i, col := range cs.columns {
		grown := make([]float64, capacity)
		copy(grown, col[:min(len(col), cs.size)])
		cs.columns[i] = grown
	}
}

func (cs *ComponentStore[T]) write(slot int, value T) {
	if cs.schema == nil {
		cs.values[slot] = value
		return
	}
	for i, f := range cs.schema.fields {
		cs.columns[i][slot] = f.get(&value)
	}
}

func (cs *ComponentStore[T]) read(slot int) T {
	if cs.schema == nil {
		return cs.values[slot]
	}
	var value T
	for i, f := range cs.schema.fields {
		f.set(&value, cs.columns[i][slot])
	}
	return value
}

func (cs *ComponentStore[T]) move(from, to int) {
	if cs.schema == nil {
		cs.values[to] = cs.values[from]
		return
	}
	for _, col := range cs.columns {
		col[to] = col[from]
	}
}

func (cs *ComponentStore[T]) clearSlot(slot int) {
	if cs.schema == nil {
		var zero T
		cs.values[slot] = zero
		return
	}
	for _, col := range cs.columns {
		col[slot] = 0
	}
}

// coerce accepts a T or a non-nil *T.
func (cs *ComponentStore[T]) coerce(item any) (T, error) {
	if value, ok := item.(T); ok {
		return value, nil
	}
	if ptr, ok := item.(*T); ok && ptr != nil {
		return *ptr, nil
	}
	var zero T
	return zero, eris.Errorf("component %s: cannot store %T", cs.typ, item)
}

func (cs *ComponentStore[T]) addAny(id EntityId, item any) error {
	value, err := cs.coerce(item)
	if err != nil {
		return err
	}
	return cs.Add(id, value)
}

func (cs *ComponentStore[T]) setAny(id EntityId, item any) (bool, error) {
	value, err := cs.coerce(item)
	if err != nil {
		return false, err
	}
	return cs.Set(id, value), nil
}

func (cs *ComponentStore[T]) currentAny(id EntityId) (any, bool) {
	v, ok := cs.current(id)
	if !ok {
		return nil, false
	}
	return v, true
}

func (cs *ComponentStore[T]) getAny(id EntityId) (any, bool) {
	v, ok := cs.Get(id)
	if !ok {
		return nil, false
	}
	return v, true
}

func (cs *ComponentStore[T]) removeAny(id EntityId) (any, bool) {
	v, ok := cs.Remove(id)
	if !ok {
		return nil, false
	}
	return v, true
}
