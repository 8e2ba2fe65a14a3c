package ecs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cachedThing struct{ V int }

func TestWorldSlotCache(t *testing.T) {
	w := NewWorld()
	cid := MustRegister(RegisterComponent[cachedThing](w.Registry()))

	a := w.CreateEntity()
	b := w.CreateEntity()
	require.NoError(t, AddComponent(w, a, cachedThing{V: 1}))
	require.NoError(t, AddComponent(w, b, cachedThing{V: 2}))

	eb, _ := w.entities.Get(b)
	slot, ok := eb.cachedSlot(cid)
	require.True(t, ok)
	assert.Equal(t, 1, slot)

	RemoveComponent[cachedThing](w, a)

	stale, _ := eb.cachedSlot(cid)
	assert.Equal(t, 1, stale, "the cache is not eagerly rewritten")

	v, ok := GetComponent[cachedThing](w, b)
	assert.True(t, ok)
	assert.Equal(t, 2, v.V)

	fresh, _ := eb.cachedSlot(cid)
	assert.Equal(t, 0, fresh, "lookup repairs the stale slot")
}

func TestWorldBatchSlotResolution(t *testing.T) {
	w := NewWorld()
	cid := MustRegister(RegisterComponent[cachedThing](w.Registry()))
	id := w.CreateEntity()

	require.NoError(t, w.BeginBatch())
	require.NoError(t, AddComponent(w, id, cachedThing{V: 5}))
	e, _ := w.entities.Get(id)
	slot, _ := e.cachedSlot(cid)
	assert.Equal(t, -1, slot, "unresolved until commit")

	require.NoError(t, w.CommitBatch())
	v, ok := GetComponent[cachedThing](w, id)
	assert.True(t, ok)
	assert.Equal(t, 5, v.V)
	slot, _ = e.cachedSlot(cid)
	assert.Equal(t, 0, slot)
}

func TestQueryTrustsMembershipVectors(t *testing.T) {
	w := NewWorld()
	cid := MustRegister(RegisterComponent[cachedThing](w.Registry()))

	a := w.CreateEntity()
	require.NoError(t, AddComponent(w, a, cachedThing{V: 1}))
	b := w.CreateEntity()
	// Store entries no membership vector accounts for.
	require.NoError(t, w.storage.AddByID(b, cid, cachedThing{V: 2}))
	require.NoError(t, w.storage.AddByID(999, cid, cachedThing{V: 3}))

	kind := TypeOf[cachedThing]()
	single := w.Query(Match().Single(kind))
	assert.Equal(t, []EntityId{a}, single)
	assert.Equal(t, single, w.Query(Match().All(kind)))
	assert.Equal(t, single, w.Query(Match().Any(kind)))
	assert.Equal(t, []EntityId{b}, w.Query(Match().None(kind)))
	assert.False(t, w.Matches(Match().Single(kind), b))
}
