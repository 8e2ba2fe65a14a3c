package ecs_test

import (
	"fmt"

	"github.com/plus3/scenecore/ecs"
)

type Body struct {
	X, VX float64
}

// ExampleRegisterColumnar stores a component as one float64 column per
// field, which lets integrators walk a packed array directly.
func ExampleRegisterColumnar() {
	w := ecs.NewWorld()
	schema := ecs.NewFieldSchema[Body]().
		Float64("x", func(b *Body) float64 { return b.X }, func(b *Body, v float64) { b.X = v }).
		Float64("vx", func(b *Body) float64 { return b.VX }, func(b *Body, v float64) { b.VX = v })
	ecs.MustRegister(ecs.RegisterColumnar(w.Registry(), schema))

	for i := 1; i <= 3; i++ {
		id := w.CreateEntity()
		ecs.AddComponent(w, id, Body{X: float64(i), VX: 0.5})
	}

	xs, _ := ecs.FieldArray[Body](w, "x")
	vxs, _ := ecs.FieldArray[Body](w, "vx")
	for i := range xs {
		xs[i] += vxs[i]
	}

	ecs.RemoveComponent[Body](w, 1)
	b, _ := ecs.GetComponent[Body](w, 3)
	kind, _ := w.Registry().ID(ecs.TypeOf[Body]())
	fmt.Println("columns:", w.Storage().Fields(kind))
	fmt.Println("entity 3:", b.X)
	fmt.Println("slots:", w.Storage().EntitiesWith(kind))

	// Output:
	// columns: [x vx]
	// entity 3: 3.5
	// slots: [3 2]
}

// ExampleWorld_BeginBatch buffers store mutations during a bulk spawn.
func ExampleWorld_BeginBatch() {
	w := ecs.NewWorld()
	w.BeginBatch()
	for i := 0; i < 3; i++ {
		id := w.CreateEntity()
		ecs.AddComponent(w, id, Hitpoints{Current: 10, Max: 10})
	}
	kind, _ := w.Registry().ID(ecs.TypeOf[Hitpoints]())
	fmt.Println("stored before commit:", w.Storage().StoreLen(kind), "pending:", w.Storage().Pending(kind))
	w.CommitBatch()
	fmt.Println("stored after commit:", w.Storage().StoreLen(kind))

	// Output:
	// stored before commit: 0 pending: 3
	// stored after commit: 3
}
