package ecs_test

import (
	"errors"
	"testing"

	"github.com/plus3/scenecore/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStorage(t *testing.T) {
	t.Run("typed helpers", func(t *testing.T) {
		storage := ecs.NewStorage(newTestRegistry())
		require.NoError(t, ecs.Add(storage, 1, Position{X: 3, Y: 4}))
		require.NoError(t, ecs.Add(storage, 1, Name{Value: "hero"}))

		pos, ok := ecs.Get[Position](storage, 1)
		assert.True(t, ok)
		assert.Equal(t, Position{X: 3, Y: 4}, pos)

		_, ok = ecs.Get[Velocity](storage, 1)
		assert.False(t, ok)

		name, ok := ecs.Remove[Name](storage, 1)
		assert.True(t, ok)
		assert.Equal(t, "hero", name.Value)
		assert.False(t, storage.HasType(1, ecs.TypeOf[Name]()))
	})

	t.Run("store registers unknown kinds", func(t *testing.T) {
		storage := ecs.NewStorage(ecs.NewComponentRegistry(0))
		store, err := ecs.Store[Health](storage)
		require.NoError(t, err)
		require.NoError(t, store.Add(9, Health{Current: 1}))
		assert.True(t, storage.Registry().IsRegistered(ecs.TypeOf[Health]()))

		again, err := ecs.Store[Health](storage)
		require.NoError(t, err)
		assert.Same(t, store, again)
	})

	t.Run("untyped access by id", func(t *testing.T) {
		registry := newTestRegistry()
		storage := ecs.NewStorage(registry)
		cid, _ := registry.ID(ecs.TypeOf[Health]())

		require.NoError(t, storage.AddByID(2, cid, &Health{Current: 7, Max: 10}))
		value, ok := storage.GetByID(2, cid)
		require.True(t, ok)
		assert.Equal(t, Health{Current: 7, Max: 10}, value)

		ok, err := storage.SetByID(2, cid, Health{Current: 8, Max: 10})
		require.NoError(t, err)
		assert.True(t, ok)

		_, err = storage.SetByID(2, cid, Position{})
		assert.Error(t, err, "wrong kind for the store")
		assert.Error(t, storage.AddByID(3, cid, "not a health"))

		removed, ok := storage.RemoveByID(2, cid)
		assert.True(t, ok)
		assert.Equal(t, Health{Current: 8, Max: 10}, removed)
	})

	t.Run("remove all and membership probing", func(t *testing.T) {
		registry := newTestRegistry()
		storage := ecs.NewStorage(registry)
		require.NoError(t, ecs.Add(storage, 5, Position{}))
		require.NoError(t, ecs.Add(storage, 5, Velocity{}))
		require.NoError(t, ecs.Add(storage, 6, Velocity{}))

		want, _ := registry.MaskOf(ecs.TypeOf[Position](), ecs.TypeOf[Velocity]())
		assert.True(t, want.Equal(storage.MaskOf(5)))

		assert.Equal(t, 2, storage.RemoveAll(5))
		assert.True(t, storage.MaskOf(5).IsZero())
		assert.Equal(t, 0, storage.RemoveAll(5))

		vel, _ := registry.ID(ecs.TypeOf[Velocity]())
		assert.Equal(t, []ecs.EntityId{6}, storage.EntitiesWith(vel))
		assert.Equal(t, 1, storage.StoreLen(vel))
	})

	t.Run("batch spans every store", func(t *testing.T) {
		storage := ecs.NewStorage(newTestRegistry())
		require.NoError(t, ecs.Add(storage, 1, Position{}))
		require.NoError(t, storage.BeginBatch())
		assert.True(t, errors.Is(storage.BeginBatch(), ecs.ErrBatchOpen))

		require.NoError(t, ecs.Add(storage, 1, Velocity{DX: 1}))
		_, ok := ecs.Get[Velocity](storage, 1)
		assert.False(t, ok, "store created inside the batch joins it")

		require.NoError(t, storage.CommitBatch())
		_, ok = ecs.Get[Velocity](storage, 1)
		assert.True(t, ok)
		assert.True(t, errors.Is(storage.CommitBatch(), ecs.ErrNoBatch))
	})

	t.Run("unregistered id panics", func(t *testing.T) {
		storage := ecs.NewStorage(ecs.NewComponentRegistry(0))
		assert.Panics(t, func() {
			_ = storage.AddByID(1, 40, Position{})
		})
	})
}
