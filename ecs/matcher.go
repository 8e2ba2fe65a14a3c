package ecs

import (
	"slices"
)

// Query returns the entities matching cond in ascending id order. Results
// are computed from current membership vectors on every call.
//
// A condition with a single clause is answered by a dedicated pass. With
// several clauses the result is built in the order tag, name, single, all,
// any, each clause narrowing the running set, and the none clause is
// subtracted last.
func (w *World) Query(cond Condition) []EntityId {
	cc := cond.compile(w.registry)

	var out []EntityId
	switch cc.clauses {
	case 0:
		return w.Entities()
	case 1:
		out = w.queryClause(&cc)
	default:
		out = w.queryClauses(&cc)
	}
	slices.Sort(out)
	return out
}

// Count returns the number of entities matching cond.
func (w *World) Count(cond Condition) int {
	return len(w.Query(cond))
}

// Matches reports whether id satisfies cond.
func (w *World) Matches(cond Condition, id EntityId) bool {
	e, ok := w.entities.Get(id)
	if !ok {
		return false
	}
	cc := cond.compile(w.registry)
	return cc.matches(e)
}

func (w *World) queryClause(cc *compiledCondition) []EntityId {
	switch {
	case cc.hasTag:
		return w.scan(func(e *Entity) bool { return e.tag == cc.cond.tag })
	case cc.hasName:
		return w.scan(func(e *Entity) bool { return e.name == cc.cond.name })
	case cc.hasSingle:
		return w.withSingle(cc)
	case cc.hasAll:
		return w.withAll(cc)
	case cc.hasAny:
		return w.withAny(cc)
	case cc.hasNone:
		return w.scan(func(e *Entity) bool { return !e.mask.Intersects(cc.none) })
	}
	return nil
}

func (w *World) queryClauses(cc *compiledCondition) []EntityId {
	var result []EntityId
	started := false

	narrow := func(present bool, seed func() []EntityId, keep func(*Entity) bool) {
		if !present {
			return
		}
		if !started {
			result = seed()
			started = true
			return
		}
		result = w.filter(result, keep)
	}

	narrow(cc.hasTag,
		func() []EntityId { return w.scan(func(e *Entity) bool { return e.tag == cc.cond.tag }) },
		func(e *Entity) bool { return e.tag == cc.cond.tag })
	narrow(cc.hasName,
		func() []EntityId { return w.scan(func(e *Entity) bool { return e.name == cc.cond.name }) },
		func(e *Entity) bool { return e.name == cc.cond.name })
	narrow(cc.hasSingle,
		func() []EntityId { return w.withSingle(cc) },
		func(e *Entity) bool { return cc.singleOK && e.mask.Has(cc.single) })
	narrow(cc.hasAll,
		func() []EntityId { return w.withAll(cc) },
		func(e *Entity) bool { return cc.allOK && e.mask.ContainsAll(cc.all) })
	narrow(cc.hasAny,
		func() []EntityId { return w.withAny(cc) },
		func(e *Entity) bool { return e.mask.Intersects(cc.any) })

	if cc.hasNone {
		if !started {
			return w.scan(func(e *Entity) bool { return !e.mask.Intersects(cc.none) })
		}
		excluded := w.withAnyOf(cc.noneIDs)
		result = slices.DeleteFunc(result, func(id EntityId) bool {
			_, found := slices.BinarySearch(excluded, id)
			return found
		})
	}
	return result
}

func (w *World) scan(keep func(*Entity) bool) []EntityId {
	return w.filter(w.alive, keep)
}

func (w *World) filter(ids []EntityId, keep func(*Entity) bool) []EntityId {
	out := make([]EntityId, 0, len(ids))
	for _, id := range ids {
		if e, ok := w.entities.Get(id); ok && keep(e) {
			out = append(out, id)
		}
	}
	return out
}

// storeScan reports whether per-kind store entity lists can stand in for the
// membership vectors. They lag behind while a batch is open.
func (w *World) storeScan() bool {
	return !w.storage.InBatch()
}

func (w *World) withSingle(cc *compiledCondition) []EntityId {
	if !cc.singleOK {
		return nil
	}
	keep := func(e *Entity) bool { return e.mask.Has(cc.single) }
	if !w.storeScan() {
		return w.scan(keep)
	}
	return w.filter(w.storage.EntitiesWith(cc.single), keep)
}

func (w *World) withAll(cc *compiledCondition) []EntityId {
	if !cc.allOK {
		return nil
	}
	keep := func(e *Entity) bool { return e.mask.ContainsAll(cc.all) }
	if !w.storeScan() {
		return w.scan(keep)
	}

	smallest := cc.allIDs[0]
	for _, cid := range cc.allIDs[1:] {
		if w.storage.StoreLen(cid) < w.storage.StoreLen(smallest) {
			smallest = cid
		}
	}
	return w.filter(w.storage.EntitiesWith(smallest), keep)
}

func (w *World) withAny(cc *compiledCondition) []EntityId {
	if !w.storeScan() {
		return w.scan(func(e *Entity) bool { return e.mask.Intersects(cc.any) })
	}
	return w.withAnyOf(cc.anyIDs)
}

// withAnyOf returns the sorted union of the entities holding any of ids.
// Store lists only nominate candidates; membership vectors decide.
func (w *World) withAnyOf(ids []ComponentID) []EntityId {
	m := w.registry.NewMask()
	for _, cid := range ids {
		m.Set(cid)
	}
	keep := func(e *Entity) bool { return e.mask.Intersects(m) }
	if !w.storeScan() {
		return w.scan(keep)
	}
	var union []EntityId
	for _, cid := range ids {
		union = append(union, w.storage.EntitiesWith(cid)...)
	}
	slices.Sort(union)
	return w.filter(slices.Compact(union), keep)
}
