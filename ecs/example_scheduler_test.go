package ecs_test

import (
	"fmt"

	"github.com/plus3/scenecore/ecs"
)

type Transform struct {
	X, Y float32
}

type Speed struct {
	DX, DY float32
}

type Hitpoints struct {
	Current, Max int
}

type PhysicsSystem struct {
	ecs.BaseSystem
}

func (s *PhysicsSystem) Execute(frame *ecs.UpdateFrame) error {
	for _, id := range frame.Entities {
		t, _ := ecs.GetComponent[Transform](frame.World, id)
		v, _ := ecs.GetComponent[Speed](frame.World, id)
		t.X += v.DX * float32(frame.DeltaTime)
		t.Y += v.DY * float32(frame.DeltaTime)
		ecs.SetComponent(frame.World, id, t)
	}
	return nil
}

type HealingSystem struct {
	ecs.BaseSystem
	RegenRate float32
}

func (s *HealingSystem) Execute(frame *ecs.UpdateFrame) error {
	for _, id := range frame.Entities {
		hp, _ := ecs.GetComponent[Hitpoints](frame.World, id)
		if hp.Current < hp.Max {
			hp.Current = min(hp.Max, hp.Current+int(s.RegenRate*float32(frame.DeltaTime)))
			ecs.SetComponent(frame.World, id, hp)
		}
	}
	return nil
}

// LateExecute reports the healed entities once every primary phase is done.
func (s *HealingSystem) LateExecute(frame *ecs.UpdateFrame) error {
	for _, id := range frame.Entities {
		hp, _ := ecs.GetComponent[Hitpoints](frame.World, id)
		fmt.Printf("tick %d: entity %d at %d/%d\n", frame.Tick, id, hp.Current, hp.Max)
	}
	return nil
}

// ExampleScheduler demonstrates building a game loop with multiple systems.
// Each tick the Scheduler evaluates every system's condition, runs the
// primary phase of all systems, then the late phase, then flushes commands.
func ExampleScheduler() {
	w := ecs.NewWorld()

	a := w.CreateEntity()
	ecs.AddComponent(w, a, Transform{})
	ecs.AddComponent(w, a, Speed{DX: 10, DY: 5})
	ecs.AddComponent(w, a, Hitpoints{Current: 80, Max: 100})

	b := w.CreateEntity()
	ecs.AddComponent(w, b, Hitpoints{Current: 95, Max: 100})

	scheduler := ecs.NewScheduler(w)
	scheduler.Register(&PhysicsSystem{
		BaseSystem: ecs.NewBaseSystem(ecs.Match().All(ecs.TypeOf[Transform](), ecs.TypeOf[Speed]())),
	})
	scheduler.Register(&HealingSystem{
		BaseSystem: ecs.NewBaseSystem(ecs.Match().All(ecs.TypeOf[Hitpoints]())),
		RegenRate:  10,
	})

	scheduler.Once(1.0)
	scheduler.Once(1.0)

	t, _ := ecs.GetComponent[Transform](w, a)
	fmt.Printf("entity %d moved to (%.0f, %.0f)\n", a, t.X, t.Y)

	for _, sys := range scheduler.GetStats().Systems {
		fmt.Printf("%s ran %d times\n", sys.Name, sys.ExecutionCount)
	}

	// Output:
	// tick 1: entity 1 at 90/100
	// tick 1: entity 2 at 100/100
	// tick 2: entity 1 at 100/100
	// tick 2: entity 2 at 100/100
	// entity 1 moved to (20, 10)
	// PhysicsSystem ran 2 times
	// HealingSystem ran 2 times
}
