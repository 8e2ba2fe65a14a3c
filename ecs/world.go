package ecs

import (
	"log/slog"
	"reflect"
	"slices"

	"github.com/kamstrup/intmap"
	"github.com/rotisserie/eris"
)

// World is the scene container: it allocates entity ids, keeps each entity's
// membership cache in lockstep with the component stores, and owns the
// hierarchy graph layered on top of them.
type World struct {
	config     Config
	registry   *ComponentRegistry
	storage    *Storage
	entities   *intmap.Map[EntityId, *Entity]
	alive      []EntityId
	nextId     EntityId
	hierarchy  *Hierarchy
	nodeKind   ComponentID
	hasNode    bool
	singletons map[reflect.Type]any
	logger     *slog.Logger
}

// Option configures a World.
type Option func(*World)

// WithConfig applies cfg. Zero fields keep their defaults.
func WithConfig(cfg Config) Option {
	return func(w *World) {
		w.config = cfg.withDefaults()
	}
}

// WithRegistry makes the world assign bit indices through registry, which
// may be shared with other worlds on purpose.
func WithRegistry(registry *ComponentRegistry) Option {
	return func(w *World) {
		w.registry = registry
	}
}

// WithLogger sets the structured logger used for fail-soft paths.
func WithLogger(logger *slog.Logger) Option {
	return func(w *World) {
		w.logger = logger
	}
}

// NewWorld creates an empty world. Bit indices are handed out in
// registration order; HierarchyNode takes the next free bit the first time
// an entity joins the hierarchy.
func NewWorld(opts ...Option) *World {
	w := &World{
		config:     DefaultConfig(),
		entities:   intmap.New[EntityId, *Entity](256),
		singletons: make(map[reflect.Type]any),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = slog.Default()
	}
	if w.registry == nil {
		w.registry = NewComponentRegistry(w.config.ComponentCapacity)
	}
	w.storage = newStorage(w.registry, w.config.storeOptions())
	w.hierarchy = newHierarchy(w)
	return w
}

// hierarchyKind returns the bit of HierarchyNode, registering it on first use.
func (w *World) hierarchyKind() (ComponentID, error) {
	cid, err := RegisterComponent[HierarchyNode](w.registry)
	if err != nil {
		return 0, err
	}
	w.nodeKind, w.hasNode = cid, true
	return cid, nil
}

// isHierarchyKind reports whether cid is HierarchyNode's bit, which may have
// been registered directly on a shared registry.
func (w *World) isHierarchyKind(cid ComponentID) bool {
	if !w.hasNode {
		id, ok := w.registry.ID(reflect.TypeFor[HierarchyNode]())
		if !ok {
			return false
		}
		w.nodeKind, w.hasNode = id, true
	}
	return cid == w.nodeKind
}

// Registry returns the world's component registry.
func (w *World) Registry() *ComponentRegistry { return w.registry }

// Storage returns a read-only view of the world's stores. Components are
// changed through the World so that membership vectors stay in step.
func (w *World) Storage() StorageView { return w.storage.View() }

// Hierarchy returns the world's parent/child graph.
func (w *World) Hierarchy() *Hierarchy { return w.hierarchy }

// Logger returns the world's logger.
func (w *World) Logger() *slog.Logger { return w.logger }

// Config returns the effective configuration.
func (w *World) Config() Config { return w.config }

// CreateEntity allocates a fresh id with an empty membership vector.
func (w *World) CreateEntity() EntityId {
	w.nextId++
	for w.entities.Has(w.nextId) {
		w.nextId++
	}
	w.insert(w.nextId)
	return w.nextId
}

// CreateEntityWithId registers an entity under a caller-chosen id, for
// example when a scene is restored.
func (w *World) CreateEntityWithId(id EntityId) error {
	if id == 0 {
		return ErrInvalidEntity
	}
	if w.entities.Has(id) {
		return eris.Wrapf(ErrEntityExists, "entity %d", id)
	}
	w.insert(id)
	return nil
}

func (w *World) insert(id EntityId) {
	w.entities.Put(id, newEntity(id, w.registry.NewMask()))
	idx, _ := slices.BinarySearch(w.alive, id)
	w.alive = slices.Insert(w.alive, idx, id)
}

// Destroy removes id from the hierarchy (its children become roots), then
// removes every component, then forgets the id.
func (w *World) Destroy(id EntityId) bool {
	e, ok := w.entities.Get(id)
	if !ok {
		return false
	}
	w.hierarchy.Cleanup(id)

	e.mask.ForEach(func(cid ComponentID) {
		w.storage.RemoveByID(id, cid)
	})
	e.mask.reset()
	clear(e.slots)

	w.entities.Del(id)
	if idx, found := slices.BinarySearch(w.alive, id); found {
		w.alive = slices.Delete(w.alive, idx, idx+1)
	}
	return true
}

// DestroyRecursive destroys id and every descendant, deepest first, and
// returns how many entities were destroyed.
func (w *World) DestroyRecursive(id EntityId) int {
	if !w.Alive(id) {
		return 0
	}
	doomed := append([]EntityId{id}, w.hierarchy.Descendants(id)...)
	count := 0
	for i := len(doomed) - 1; i >= 0; i-- {
		if w.Destroy(doomed[i]) {
			count++
		}
	}
	return count
}

// Alive reports whether id names a live entity.
func (w *World) Alive(id EntityId) bool {
	return w.entities.Has(id)
}

// Len returns the number of live entities.
func (w *World) Len() int {
	return len(w.alive)
}

// Entities returns every live id in ascending order.
func (w *World) Entities() []EntityId {
	return slices.Clone(w.alive)
}

// FindEntityById resolves an id to its record.
func (w *World) FindEntityById(id EntityId) (*Entity, bool) {
	return w.entities.Get(id)
}

// SetName names the entity. Names are matched exactly by queries and
// hierarchy lookups.
func (w *World) SetName(id EntityId, name string) bool {
	e, ok := w.entities.Get(id)
	if !ok {
		return false
	}
	e.name = name
	return true
}

// Name returns the entity's name.
func (w *World) Name(id EntityId) string {
	if e, ok := w.entities.Get(id); ok {
		return e.name
	}
	return ""
}

// SetTag tags the entity.
func (w *World) SetTag(id EntityId, tag string) bool {
	e, ok := w.entities.Get(id)
	if !ok {
		return false
	}
	e.tag = tag
	return true
}

// Tag returns the entity's tag.
func (w *World) Tag(id EntityId) string {
	if e, ok := w.entities.Get(id); ok {
		return e.tag
	}
	return ""
}

// Mask returns a copy of the entity's cached membership vector.
func (w *World) Mask(id EntityId) Mask {
	if e, ok := w.entities.Get(id); ok {
		return e.mask.Clone()
	}
	return w.registry.NewMask()
}

// Types returns the component kinds attached to id, in bit order.
func (w *World) Types(id EntityId) []reflect.Type {
	e, ok := w.entities.Get(id)
	if !ok {
		return nil
	}
	return w.registry.TypesOf(e.mask)
}

// HasType reports whether a component of kind t is attached to id.
func (w *World) HasType(id EntityId, t reflect.Type) bool {
	e, ok := w.entities.Get(id)
	if !ok {
		return false
	}
	cid, ok := w.registry.ID(t)
	return ok && e.mask.Has(cid)
}

// BeginBatch defers store mutations until CommitBatch. Membership vectors
// change immediately; values added inside the batch become readable after
// the commit.
func (w *World) BeginBatch() error {
	return w.storage.BeginBatch()
}

// CommitBatch applies the deferred store mutations.
func (w *World) CommitBatch() error {
	return w.storage.CommitBatch()
}

// InBatch reports whether a batch is open.
func (w *World) InBatch() bool {
	return w.storage.InBatch()
}

// AddComponent attaches value to id. It fails without mutating anything when
// the entity is unknown, already holds the kind, or the kind cannot be
// registered. Hierarchy nodes are managed through Hierarchy.
func AddComponent[T any](w *World, id EntityId, value T) error {
	e, ok := w.entities.Get(id)
	if !ok {
		return eris.Wrapf(ErrNoSuchEntity, "entity %d", id)
	}
	cid, err := RegisterComponent[T](w.registry)
	if err != nil {
		return err
	}
	if w.isHierarchyKind(cid) {
		return eris.Errorf("entity %d: hierarchy nodes are attached through Hierarchy", id)
	}
	return w.attach(e, cid, value)
}

func (w *World) attach(e *Entity, cid ComponentID, value any) error {
	if e.mask.Has(cid) {
		t, _ := w.registry.TypeOf(cid)
		return eris.Wrapf(ErrDuplicateComponent, "entity %d, component %s", e.id, t)
	}
	if err := w.storage.AddByID(e.id, cid, value); err != nil {
		return err
	}
	e.mask.Set(cid)
	if slot, ok := w.storage.Slot(e.id, cid); ok {
		e.slots[cid] = slot
	} else {
		e.slots[cid] = -1
	}
	return nil
}

// Attach is the untyped form of AddComponent. The kind of value (or of the
// value it points to) must already be registered.
func (w *World) Attach(id EntityId, value any) error {
	e, ok := w.entities.Get(id)
	if !ok {
		return eris.Wrapf(ErrNoSuchEntity, "entity %d", id)
	}
	t := reflect.TypeOf(value)
	if t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	cid, ok := w.registry.ID(t)
	if !ok {
		return eris.Errorf("component type %v not registered", t)
	}
	if w.isHierarchyKind(cid) {
		return eris.Errorf("entity %d: hierarchy nodes are attached through Hierarchy", id)
	}
	return w.attach(e, cid, value)
}

// RemoveComponent detaches the T from id. It is a no-op returning false when
// the component is absent. Removing the HierarchyNode detaches id from the
// graph.
func RemoveComponent[T any](w *World, id EntityId) bool {
	cid, ok := w.registry.ID(reflect.TypeFor[T]())
	if !ok {
		return false
	}
	return w.detach(id, cid)
}

// Detach is the untyped form of RemoveComponent.
func (w *World) Detach(id EntityId, t reflect.Type) bool {
	cid, ok := w.registry.ID(t)
	if !ok {
		return false
	}
	return w.detach(id, cid)
}

func (w *World) detach(id EntityId, cid ComponentID) bool {
	e, ok := w.entities.Get(id)
	if !ok || !e.mask.Has(cid) {
		return false
	}
	if w.isHierarchyKind(cid) {
		return w.hierarchy.Cleanup(id)
	}
	w.detachRaw(e, cid)
	return true
}

func (w *World) detachRaw(e *Entity, cid ComponentID) {
	e.mask.Clear(cid)
	delete(e.slots, cid)
	w.storage.RemoveByID(e.id, cid)
}

// GetComponent returns a copy of the T attached to id.
func GetComponent[T any](w *World, id EntityId) (T, bool) {
	var zero T
	e, ok := w.entities.Get(id)
	if !ok {
		return zero, false
	}
	cid, ok := w.registry.ID(reflect.TypeFor[T]())
	if !ok || !e.mask.Has(cid) {
		return zero, false
	}
	st, _ := w.storage.existing(cid).(*ComponentStore[T])
	if st == nil {
		return zero, false
	}
	if st.InBatch() {
		return st.current(id)
	}
	slot, ok := w.resolveSlot(e, cid, st)
	if !ok {
		return zero, false
	}
	return st.read(slot), true
}

// resolveSlot returns the slot of e's component in st, trusting the cache
// only when the store confirms e still owns the cached slot.
func (w *World) resolveSlot(e *Entity, cid ComponentID, st iComponentStorage) (int, bool) {
	if slot, ok := e.cachedSlot(cid); ok && slot >= 0 {
		if owner, live := st.EntityAt(slot); live && owner == e.id {
			return slot, true
		}
	}
	slot, ok := st.Slot(e.id)
	if !ok {
		return 0, false
	}
	e.slots[cid] = slot
	return slot, true
}

// FieldArray returns the packed column name of the columnar kind T, in slot
// order. Values may be written in place. The slice is invalidated by the
// next structural change to the store, and values added in an open batch
// are not in it until the commit.
func FieldArray[T any](w *World, name string) ([]float64, error) {
	t := reflect.TypeFor[T]()
	cid, ok := w.registry.ID(t)
	if !ok {
		return nil, eris.Errorf("component type %v not registered", t)
	}
	st, _ := w.storage.store(cid).(*ComponentStore[T])
	if st == nil {
		return nil, eris.Errorf("component type %v has an unexpected store", t)
	}
	column, ok := st.FieldArray(name)
	if !ok {
		return nil, eris.Wrapf(ErrInvalidSchema, "%v has no column %q", t, name)
	}
	return column, nil
}

// HasComponent reports whether a T is attached to id.
func HasComponent[T any](w *World, id EntityId) bool {
	return w.HasType(id, reflect.TypeFor[T]())
}

// SetComponent overwrites the T attached to id. Returns false if absent.
func SetComponent[T any](w *World, id EntityId, value T) bool {
	e, ok := w.entities.Get(id)
	if !ok {
		return false
	}
	cid, ok := w.registry.ID(reflect.TypeFor[T]())
	if !ok || !e.mask.Has(cid) || w.isHierarchyKind(cid) {
		return false
	}
	st, _ := w.storage.existing(cid).(*ComponentStore[T])
	if st == nil {
		return false
	}
	return st.Set(id, value)
}

// Component is the untyped form of GetComponent.
func (w *World) Component(id EntityId, t reflect.Type) (any, bool) {
	e, ok := w.entities.Get(id)
	if !ok {
		return nil, false
	}
	cid, ok := w.registry.ID(t)
	if !ok || !e.mask.Has(cid) {
		return nil, false
	}
	st := w.storage.existing(cid)
	if st == nil {
		return nil, false
	}
	return st.currentAny(id)
}

// Replace is the untyped form of SetComponent.
func (w *World) Replace(id EntityId, value any) error {
	e, ok := w.entities.Get(id)
	if !ok {
		return eris.Wrapf(ErrNoSuchEntity, "entity %d", id)
	}
	t := reflect.TypeOf(value)
	if t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	cid, ok := w.registry.ID(t)
	if !ok || !e.mask.Has(cid) || w.isHierarchyKind(cid) {
		return eris.Errorf("entity %d has no replaceable %v", id, t)
	}
	if _, err := w.storage.SetByID(id, cid, value); err != nil {
		return err
	}
	return nil
}

// GetOrAddComponent returns the T attached to id, attaching def first if
// there is none.
func GetOrAddComponent[T any](w *World, id EntityId, def T) (T, error) {
	if value, ok := GetComponent[T](w, id); ok {
		return value, nil
	}
	if err := AddComponent(w, id, def); err != nil {
		var zero T
		return zero, err
	}
	return def, nil
}

// WorldStats summarizes a world for debugging tools.
type WorldStats struct {
	EntityCount    int
	RootCount      int
	MaxDepth       int
	SingletonCount int
	SingletonTypes []string
	Storage        StorageStats
}

// CollectStats gathers entity, hierarchy and storage statistics.
func (w *World) CollectStats() WorldStats {
	stats := WorldStats{
		EntityCount:    len(w.alive),
		SingletonCount: len(w.singletons),
		Storage:        w.storage.CollectStats(),
	}
	for _, id := range w.alive {
		if w.hierarchy.IsRoot(id) {
			stats.RootCount++
		}
		if d := w.hierarchy.Depth(id); d > stats.MaxDepth {
			stats.MaxDepth = d
		}
	}
	for t := range w.singletons {
		stats.SingletonTypes = append(stats.SingletonTypes, t.String())
	}
	slices.Sort(stats.SingletonTypes)
	return stats
}
