package ecs

// EntityId identifies an entity for the lifetime of its World. Zero is never
// assigned.
type EntityId uint64

// Entity is the World's record for one entity. It caches the entity's
// membership vector and the slot each of its components occupies, so that
// "does this entity have X" never has to visit the component stores.
//
// Entity records are owned by the World; the accessors return copies.
type Entity struct {
	id    EntityId
	mask  Mask
	slots map[ComponentID]int
	name  string
	tag   string
}

func newEntity(id EntityId, mask Mask) *Entity {
	return &Entity{
		id:    id,
		mask:  mask,
		slots: make(map[ComponentID]int),
	}
}

// Id returns the entity's id.
func (e *Entity) Id() EntityId {
	return e.id
}

// Mask returns a copy of the membership vector.
func (e *Entity) Mask() Mask {
	return e.mask.Clone()
}

// Has reports whether the component kind cid is attached.
func (e *Entity) Has(cid ComponentID) bool {
	return e.mask.Has(cid)
}

// Name returns the entity's name.
func (e *Entity) Name() string {
	return e.name
}

// Tag returns the entity's tag.
func (e *Entity) Tag() string {
	return e.tag
}

// cachedSlot returns the cached slot for cid. A negative slot means the
// component was attached during a batch and has not been resolved yet.
func (e *Entity) cachedSlot(cid ComponentID) (int, bool) {
	slot, ok := e.slots[cid]
	return slot, ok
}
