package ecs

import (
	"errors"
	"reflect"

	"github.com/rotisserie/eris"
)

// Storage owns one ComponentStore per registered kind and dispatches
// per-kind operations to it. Stores are created on first use.
type Storage struct {
	registry *ComponentRegistry
	stores   []iComponentStorage
	opts     storeOptions
	batching bool
}

// NewStorage creates an aggregator backed by registry.
func NewStorage(registry *ComponentRegistry) *Storage {
	return newStorage(registry, defaultStoreOptions())
}

func newStorage(registry *ComponentRegistry, opts storeOptions) *Storage {
	return &Storage{
		registry: registry,
		opts:     opts,
	}
}

// Registry returns the registry that assigns bit indices for this storage.
func (s *Storage) Registry() *ComponentRegistry {
	return s.registry
}

func (s *Storage) store(id ComponentID) iComponentStorage {
	if int(id) < len(s.stores) {
		if st := s.stores[id]; st != nil {
			return st
		}
	}
	kind := s.registry.kind(id)
	if kind == nil {
		panic(eris.Errorf("component id %d not registered", id))
	}
	for len(s.stores) <= int(id) {
		s.stores = append(s.stores, nil)
	}
	st := kind.factory(s.opts)
	if s.batching {
		// Stores created mid-batch join the open batch.
		_ = st.BeginBatch()
	}
	s.stores[id] = st
	return st
}

func (s *Storage) existing(id ComponentID) iComponentStorage {
	if int(id) >= len(s.stores) {
		return nil
	}
	return s.stores[id]
}

// Store returns the typed store for T, registering T if needed.
func Store[T any](s *Storage) (*ComponentStore[T], error) {
	id, err := RegisterComponent[T](s.registry)
	if err != nil {
		return nil, err
	}
	return s.store(id).(*ComponentStore[T]), nil
}

// Add stores value under id for the kind of T.
func Add[T any](s *Storage, id EntityId, value T) error {
	st, err := Store[T](s)
	if err != nil {
		return err
	}
	return st.Add(id, value)
}

// Get returns the T stored for id.
func Get[T any](s *Storage, id EntityId) (T, bool) {
	var zero T
	cid, ok := s.registry.ID(reflect.TypeFor[T]())
	if !ok {
		return zero, false
	}
	st := s.existing(cid)
	if st == nil {
		return zero, false
	}
	return st.(*ComponentStore[T]).Get(id)
}

// Remove deletes the T stored for id.
func Remove[T any](s *Storage, id EntityId) (T, bool) {
	var zero T
	cid, ok := s.registry.ID(reflect.TypeFor[T]())
	if !ok {
		return zero, false
	}
	st := s.existing(cid)
	if st == nil {
		return zero, false
	}
	return st.(*ComponentStore[T]).Remove(id)
}

// Has reports whether the store for cid holds a value for id.
func (s *Storage) Has(id EntityId, cid ComponentID) bool {
	st := s.existing(cid)
	return st != nil && st.Has(id)
}

// HasType is Has keyed by component kind.
func (s *Storage) HasType(id EntityId, t reflect.Type) bool {
	cid, ok := s.registry.ID(t)
	return ok && s.Has(id, cid)
}

// GetByID returns the value stored for id in the store for cid.
func (s *Storage) GetByID(id EntityId, cid ComponentID) (any, bool) {
	st := s.existing(cid)
	if st == nil {
		return nil, false
	}
	return st.getAny(id)
}

// AddByID stores an untyped value for id. value must be of the kind
// registered under cid, or a pointer to it.
func (s *Storage) AddByID(id EntityId, cid ComponentID, value any) error {
	return s.store(cid).addAny(id, value)
}

// SetByID overwrites the value stored for id in the store for cid.
func (s *Storage) SetByID(id EntityId, cid ComponentID, value any) (bool, error) {
	st := s.existing(cid)
	if st == nil {
		return false, nil
	}
	return st.setAny(id, value)
}

// RemoveByID deletes the value stored for id in the store for cid.
func (s *Storage) RemoveByID(id EntityId, cid ComponentID) (any, bool) {
	st := s.existing(cid)
	if st == nil {
		return nil, false
	}
	return st.removeAny(id)
}

// RemoveAll deletes every value stored for id, visiting each store once, and
// returns how many were removed.
func (s *Storage) RemoveAll(id EntityId) int {
	removed := 0
	for _, st := range s.stores {
		if st == nil {
			continue
		}
		if _, ok := st.removeAny(id); ok {
			removed++
		}
	}
	return removed
}

// MaskOf checks every store and returns the membership vector of id.
func (s *Storage) MaskOf(id EntityId) Mask {
	m := s.registry.NewMask()
	for cid, st := range s.stores {
		if st != nil && st.Has(id) {
			m.Set(ComponentID(cid))
		}
	}
	return m
}

// Slot returns the slot id occupies in the store for cid.
func (s *Storage) Slot(id EntityId, cid ComponentID) (int, bool) {
	st := s.existing(cid)
	if st == nil {
		return 0, false
	}
	return st.Slot(id)
}

// EntityAt returns the entity occupying slot in the store for cid.
func (s *Storage) EntityAt(cid ComponentID, slot int) (EntityId, bool) {
	st := s.existing(cid)
	if st == nil {
		return 0, false
	}
	return st.EntityAt(slot)
}

// EntitiesWith returns the entities holding cid in slot order.
func (s *Storage) EntitiesWith(cid ComponentID) []EntityId {
	st := s.existing(cid)
	if st == nil {
		return nil
	}
	return st.Entities()
}

// StoreLen returns the number of values stored for cid.
func (s *Storage) StoreLen(cid ComponentID) int {
	st := s.existing(cid)
	if st == nil {
		return 0
	}
	return st.Len()
}

// BeginBatch opens a batch on every store, including stores created before
// the batch commits.
func (s *Storage) BeginBatch() error {
	if s.batching {
		return eris.Wrap(ErrBatchOpen, "storage")
	}
	s.batching = true
	for _, st := range s.stores {
		if st != nil {
			if err := st.BeginBatch(); err != nil {
				return err
			}
		}
	}
	return nil
}

// CommitBatch commits every store's batch.
func (s *Storage) CommitBatch() error {
	if !s.batching {
		return eris.Wrap(ErrNoBatch, "storage")
	}
	s.batching = false
	var errs []error
	for _, st := range s.stores {
		if st != nil && st.InBatch() {
			if err := st.CommitBatch(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// InBatch reports whether a batch is open.
func (s *Storage) InBatch() bool {
	return s.batching
}

// StoreStats describes one component store.
type StoreStats struct {
	ID       ComponentID
	Type     string
	Len      int
	Cap      int
	Columnar bool
}

// StorageStats provides statistics about the aggregator.
type StorageStats struct {
	RegisteredKinds int
	Capacity        int
	TotalValues     int
	Stores          []StoreStats
}

// CollectStats gathers statistics about every store created so far.
func (s *Storage) CollectStats() StorageStats {
	stats := StorageStats{
		RegisteredKinds: s.registry.Len(),
		Capacity:        s.registry.Capacity(),
	}
	for cid, st := range s.stores {
		if st == nil {
			continue
		}
		stats.Stores = append(stats.Stores, StoreStats{
			ID:       ComponentID(cid),
			Type:     st.Type().String(),
			Len:      st.Len(),
			Cap:      st.Cap(),
			Columnar: st.Columnar(),
		})
		stats.TotalValues += st.Len()
	}
	return stats
}

// StorageView is a read-only window onto an aggregator. A World hands out
// views so that membership vectors and stores can only change together.
type StorageView struct {
	s *Storage
}

// View returns a read-only view of s.
func (s *Storage) View() StorageView {
	return StorageView{s: s}
}

func (v StorageView) Registry() *ComponentRegistry { return v.s.Registry() }

func (v StorageView) Has(id EntityId, cid ComponentID) bool { return v.s.Has(id, cid) }

func (v StorageView) HasType(id EntityId, t reflect.Type) bool { return v.s.HasType(id, t) }

// GetByID returns a copy of the value stored for id under cid.
func (v StorageView) GetByID(id EntityId, cid ComponentID) (any, bool) { return v.s.GetByID(id, cid) }

func (v StorageView) MaskOf(id EntityId) Mask { return v.s.MaskOf(id) }

func (v StorageView) Slot(id EntityId, cid ComponentID) (int, bool) { return v.s.Slot(id, cid) }

func (v StorageView) EntityAt(cid ComponentID, slot int) (EntityId, bool) {
	return v.s.EntityAt(cid, slot)
}

func (v StorageView) EntitiesWith(cid ComponentID) []EntityId { return v.s.EntitiesWith(cid) }

func (v StorageView) StoreLen(cid ComponentID) int { return v.s.StoreLen(cid) }

// Pending returns the number of mutations buffered for cid in the open batch.
func (v StorageView) Pending(cid ComponentID) int {
	st := v.s.existing(cid)
	if st == nil {
		return 0
	}
	return st.Pending()
}

// Fields returns the column names of a columnar kind's store, nil for
// whole-value kinds and for stores not created yet.
func (v StorageView) Fields(cid ComponentID) []string {
	st := v.s.existing(cid)
	if st == nil {
		return nil
	}
	return st.Fields()
}

func (v StorageView) InBatch() bool { return v.s.InBatch() }

func (v StorageView) CollectStats() StorageStats { return v.s.CollectStats() }
