package ecs_test

import (
	"testing"

	"github.com/plus3/scenecore/ecs"
	"github.com/stretchr/testify/require"
)

// Common test component types
type Position struct {
	X, Y float32
}

type Velocity struct {
	DX, DY float32
}

type Name struct {
	Value string
}

type Health struct {
	Current int
	Max     int
}

type PlayerController struct{}

type AI struct {
	State int
}

type Score int32

type Frozen struct{}

type Inventory struct {
	Items []string
}

func newTestRegistry() *ecs.ComponentRegistry {
	registry := ecs.NewComponentRegistry(ecs.DefaultComponentCapacity)
	ecs.MustRegister(ecs.RegisterComponent[Position](registry))
	ecs.MustRegister(ecs.RegisterComponent[Velocity](registry))
	ecs.MustRegister(ecs.RegisterComponent[Name](registry))
	ecs.MustRegister(ecs.RegisterComponent[Health](registry))
	ecs.MustRegister(ecs.RegisterComponent[PlayerController](registry))
	ecs.MustRegister(ecs.RegisterComponent[AI](registry))
	ecs.MustRegister(ecs.RegisterComponent[Score](registry))
	ecs.MustRegister(ecs.RegisterComponent[Frozen](registry))
	ecs.MustRegister(ecs.RegisterComponent[Inventory](registry))
	return registry
}

func newTestWorld(t testing.TB) *ecs.World {
	t.Helper()
	return ecs.NewWorld(ecs.WithRegistry(newTestRegistry()))
}

// spawn creates an entity holding components.
func spawn(t testing.TB, w *ecs.World, components ...any) ecs.EntityId {
	t.Helper()
	id := w.CreateEntity()
	for _, c := range components {
		require.NoError(t, w.Attach(id, c))
	}
	return id
}
