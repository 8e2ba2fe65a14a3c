package ecs_test

import (
	"fmt"

	"github.com/plus3/scenecore/ecs"
)

type Enemy struct{}
type Stunned struct{}

// ExampleWorld_Query shows how conditions combine component, tag and name
// clauses. Results are always in ascending id order.
func ExampleWorld_Query() {
	w := ecs.NewWorld()

	for i := 0; i < 4; i++ {
		id := w.CreateEntity()
		ecs.AddComponent(w, id, Transform{X: float32(i)})
		if i%2 == 1 {
			ecs.AddComponent(w, id, Enemy{})
			w.SetTag(id, "wave-1")
		}
	}
	ecs.AddComponent(w, 4, Stunned{})

	active := ecs.Match().
		All(ecs.TypeOf[Transform](), ecs.TypeOf[Enemy]()).
		None(ecs.TypeOf[Stunned]())

	fmt.Println(active)
	fmt.Println("active enemies:", w.Query(active))
	fmt.Println("wave 1:", w.Query(ecs.Match().WithTag("wave-1")))
	fmt.Println("is 4 active:", w.Matches(active, 4))

	// Output:
	// match(all[ecs_test.Transform,ecs_test.Enemy] none[ecs_test.Stunned])
	// active enemies: [2]
	// wave 1: [2 4]
	// is 4 active: false
}
