package ecs

import "github.com/rotisserie/eris"

var (
	// ErrRegistryFull is returned when a component kind is registered beyond
	// the registry's fixed bit width.
	ErrRegistryFull = eris.New("component registry is full")

	// ErrLayoutConflict is returned when a kind is registered twice with
	// different storage layouts.
	ErrLayoutConflict = eris.New("component kind already registered with a different layout")

	// ErrInvalidSchema is returned when a field schema fails validation.
	ErrInvalidSchema = eris.New("invalid field schema")

	// ErrDuplicateComponent is returned when attaching a kind the entity already holds.
	ErrDuplicateComponent = eris.New("entity already has component")

	// ErrNoSuchEntity is returned for operations on ids the world does not know.
	ErrNoSuchEntity = eris.New("no such entity")

	// ErrEntityExists is returned when creating an entity with an id already in use.
	ErrEntityExists = eris.New("entity already exists")

	// ErrInvalidEntity is returned for the reserved zero id.
	ErrInvalidEntity = eris.New("invalid entity id")

	// ErrBatchOpen is returned when a batch is begun while another is open.
	ErrBatchOpen = eris.New("batch already open")

	// ErrNoBatch is returned when committing without an open batch.
	ErrNoBatch = eris.New("no batch open")

	// ErrSelfParent is returned when an entity is asked to parent itself.
	ErrSelfParent = eris.New("entity cannot be its own parent")

	// ErrCycle is returned when a parent link would make an entity its own ancestor.
	ErrCycle = eris.New("hierarchy cycle")

	// ErrInvalidConfig is returned by config validation.
	ErrInvalidConfig = eris.New("invalid config")
)
