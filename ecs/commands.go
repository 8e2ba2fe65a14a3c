package ecs

import (
	"errors"
	"reflect"

	"github.com/rotisserie/eris"
)

// Commands provides a buffer for deferred world operations that are executed
// at the end of a tick. This keeps structural changes out of the entity
// lists systems are iterating.
type Commands struct {
	creates  []createCommand
	destroys []EntityId
	adds     []addComponentCommand
	removes  []removeComponentCommand
	parents  []parentCommand
	defers   []func()
}

func newCommands() *Commands {
	return &Commands{}
}

type createCommand struct {
	parent     EntityId
	components []any
	then       func(EntityId)
}

type addComponentCommand struct {
	entity    EntityId
	component any
}

type removeComponentCommand struct {
	entity   EntityId
	compType reflect.Type
}

type parentCommand struct {
	child  EntityId
	parent EntityId
}

// Defer queues a function to run after every other command.
func (c *Commands) Defer(fn func()) {
	c.defers = append(c.defers, fn)
}

// Create queues the creation of an entity holding components. Every
// component kind must already be registered.
func (c *Commands) Create(components ...any) {
	c.creates = append(c.creates, createCommand{components: components})
}

// CreateChild is Create followed by parenting the new entity under parent.
// then, if not nil, receives the new id once the entity exists.
func (c *Commands) CreateChild(parent EntityId, then func(EntityId), components ...any) {
	c.creates = append(c.creates, createCommand{parent: parent, components: components, then: then})
}

// Destroy queues an entity destruction.
func (c *Commands) Destroy(entity EntityId) {
	c.destroys = append(c.destroys, entity)
}

// AddComponent queues a component attach.
func (c *Commands) AddComponent(entity EntityId, component any) {
	c.adds = append(c.adds, addComponentCommand{entity: entity, component: component})
}

// RemoveComponent queues a component detach.
func (c *Commands) RemoveComponent(entity EntityId, compType reflect.Type) {
	c.removes = append(c.removes, removeComponentCommand{entity: entity, compType: compType})
}

// SetParent queues a reparent. A zero parent detaches child.
func (c *Commands) SetParent(child, parent EntityId) {
	c.parents = append(c.parents, parentCommand{child: child, parent: parent})
}

// Len returns the number of queued commands.
func (c *Commands) Len() int {
	return len(c.creates) + len(c.destroys) + len(c.adds) + len(c.removes) + len(c.parents) + len(c.defers)
}

// Flush applies all commands to w and resets the buffer. Destroys run first,
// then removes, adds, creates, parent links and deferred functions. Commands
// targeting an entity destroyed in the same flush are dropped. Store
// mutations are applied as one batch unless the caller already opened one.
// Individual failures do not stop the flush; they are joined into the
// returned error.
//
// Commands queued while flushing, from a CreateChild callback or a deferred
// function, stay in the buffer for the next Flush.
func (c *Commands) Flush(w *World) error {
	creates, destroys, adds := c.creates, c.destroys, c.adds
	removes, parents, defers := c.removes, c.parents, c.defers
	*c = Commands{}

	var errs []error

	owned := !w.InBatch()
	if owned {
		if err := w.BeginBatch(); err != nil {
			return err
		}
	}

	destroyed := make(map[EntityId]bool, len(destroys))
	for _, id := range destroys {
		if w.Destroy(id) {
			destroyed[id] = true
		}
	}

	for _, cmd := range removes {
		if !destroyed[cmd.entity] {
			w.Detach(cmd.entity, cmd.compType)
		}
	}

	for _, cmd := range adds {
		if destroyed[cmd.entity] {
			continue
		}
		if err := w.Attach(cmd.entity, cmd.component); err != nil {
			errs = append(errs, err)
		}
	}

	for _, cmd := range creates {
		id := w.CreateEntity()
		for _, comp := range cmd.components {
			if err := w.Attach(id, comp); err != nil {
				errs = append(errs, err)
			}
		}
		if cmd.parent != 0 {
			parents = append(parents, parentCommand{child: id, parent: cmd.parent})
		}
		if cmd.then != nil {
			cmd.then(id)
		}
	}

	for _, cmd := range parents {
		if destroyed[cmd.child] || destroyed[cmd.parent] {
			continue
		}
		if err := w.hierarchy.SetParent(cmd.child, cmd.parent); err != nil {
			errs = append(errs, eris.Wrapf(err, "reparent %d under %d", cmd.child, cmd.parent))
		}
	}

	if owned {
		if err := w.CommitBatch(); err != nil {
			errs = append(errs, err)
		}
	}

	for _, fn := range defers {
		fn()
	}

	return errors.Join(errs...)
}
