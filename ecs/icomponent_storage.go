package ecs

import "reflect"

// iComponentStorage is the type-erased view of a ComponentStore used by the
// Storage aggregator.
type iComponentStorage interface {
	addAny(id EntityId, item any) error
	getAny(id EntityId) (any, bool)
	currentAny(id EntityId) (any, bool)
	setAny(id EntityId, item any) (bool, error)
	removeAny(id EntityId) (any, bool)
	Has(id EntityId) bool
	Slot(id EntityId) (int, bool)
	EntityAt(slot int) (EntityId, bool)
	Entities() []EntityId
	Len() int
	Cap() int
	BeginBatch() error
	CommitBatch() error
	InBatch() bool
	Pending() int
	Type() reflect.Type
	Columnar() bool
	Fields() []string
}
