package ecs_test

import (
	"fmt"

	"github.com/plus3/scenecore/ecs"
)

type Lifetime struct {
	Remaining float64
}

type ExpirySystem struct {
	ecs.BaseSystem
}

func (s *ExpirySystem) Execute(frame *ecs.UpdateFrame) error {
	for _, id := range frame.Entities {
		life, _ := ecs.GetComponent[Lifetime](frame.World, id)
		life.Remaining -= frame.DeltaTime
		if life.Remaining <= 0 {
			frame.Commands.Destroy(id)
			continue
		}
		ecs.SetComponent(frame.World, id, life)
	}
	frame.Commands.Defer(func() {
		fmt.Println("alive after tick:", frame.World.Len())
	})
	return nil
}

// ExampleCommands shows structural changes queued during a tick and applied
// once every system has finished.
func ExampleCommands() {
	w := ecs.NewWorld()
	for _, seconds := range []float64{0.5, 1.5, 2.5} {
		id := w.CreateEntity()
		ecs.AddComponent(w, id, Lifetime{Remaining: seconds})
	}

	scheduler := ecs.NewScheduler(w)
	scheduler.Register(&ExpirySystem{
		BaseSystem: ecs.NewBaseSystem(ecs.Match().All(ecs.TypeOf[Lifetime]())),
	})

	scheduler.Once(1)
	scheduler.Once(1)

	// Output:
	// alive after tick: 2
	// alive after tick: 1
}
