package main

import (
	"errors"
	"math/rand"

	"github.com/plus3/scenecore/ecs"
)

type Position struct{ X, Y float64 }

type Velocity struct{ X, Y float64 }

type Health struct{ Current, Max int }

type Lifetime struct{ Remaining float64 }

type Spinner struct{ Angle, Rate float64 }

// Particle is stored column-wise so ParticleSystem can integrate packed arrays.
type Particle struct{ X, VX float64 }

// Churn counts structural changes made while the simulation runs. It lives in
// the world as a singleton.
type Churn struct {
	Spawned    int64
	Destroyed  int64
	Reparented int64
	Rejected   int64
	Toggled    int64
}

const componentCount = 6

func particleSchema() *ecs.FieldSchema[Particle] {
	return ecs.NewFieldSchema[Particle]().
		Float64("x", func(p *Particle) float64 { return p.X }, func(p *Particle, v float64) { p.X = v }).
		Float64("vx", func(p *Particle) float64 { return p.VX }, func(p *Particle, v float64) { p.VX = v })
}

// RegisterComponents registers every kind the simulation spawns.
func RegisterComponents(registry *ecs.ComponentRegistry) error {
	var errs []error
	register := func(_ ecs.ComponentID, err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}
	register(ecs.RegisterComponent[Position](registry))
	register(ecs.RegisterComponent[Velocity](registry))
	register(ecs.RegisterComponent[Health](registry))
	register(ecs.RegisterComponent[Lifetime](registry))
	register(ecs.RegisterComponent[Spinner](registry))
	register(ecs.RegisterColumnar(registry, particleSchema()))
	return errors.Join(errs...)
}

const (
	kindPosition = iota
	kindVelocity
	kindHealth
	kindLifetime
	kindSpinner
	kindParticle
)

func newComponent(rng *rand.Rand, kind int) any {
	switch kind {
	case kindPosition:
		return Position{X: rng.Float64() * 100, Y: rng.Float64() * 100}
	case kindVelocity:
		return Velocity{X: rng.Float64() - 0.5, Y: rng.Float64() - 0.5}
	case kindHealth:
		max := rng.Intn(100) + 1
		return Health{Current: max, Max: max}
	case kindLifetime:
		return Lifetime{Remaining: rng.Float64() * 5}
	case kindSpinner:
		return Spinner{Rate: rng.Float64()}
	default:
		return Particle{X: rng.Float64(), VX: rng.Float64()}
	}
}

// randomComponents draws n kinds and returns one component per distinct
// kind drawn, skipping the kinds in exclude.
func randomComponents(rng *rand.Rand, n int, exclude ...int) []any {
	seen := make(map[int]bool, n)
	for _, kind := range exclude {
		seen[kind] = true
	}
	out := make([]any, 0, n)
	for range n {
		kind := rng.Intn(componentCount)
		if seen[kind] {
			continue
		}
		seen[kind] = true
		out = append(out, newComponent(rng, kind))
	}
	return out
}

// SpawnRandomEntity creates an entity with up to numComponents random
// components. Half of the time it is linked under a random existing entity
// whose depth leaves room below maxDepth.
func SpawnRandomEntity(w *ecs.World, rng *rand.Rand, numComponents, maxDepth int) (ecs.EntityId, error) {
	var parent ecs.EntityId
	if maxDepth > 0 && w.Len() > 0 && rng.Intn(2) == 0 {
		candidates := w.Entities()
		candidate := candidates[rng.Intn(len(candidates))]
		if w.Hierarchy().Depth(candidate) < maxDepth {
			parent = candidate
		}
	}

	id := w.CreateEntity()
	for _, c := range randomComponents(rng, numComponents) {
		if err := w.Attach(id, c); err != nil {
			w.Destroy(id)
			return 0, err
		}
	}
	if parent != 0 {
		if err := w.Hierarchy().AddChild(parent, id); err != nil {
			w.Destroy(id)
			return 0, err
		}
	}
	return id, nil
}

// Populate spawns count entities inside one world batch.
func Populate(w *ecs.World, rng *rand.Rand, count, maxDepth int) error {
	if err := w.BeginBatch(); err != nil {
		return err
	}
	var errs []error
	for range count {
		if _, err := SpawnRandomEntity(w, rng, rng.Intn(5)+1, maxDepth); err != nil {
			errs = append(errs, err)
		}
	}
	errs = append(errs, w.CommitBatch())
	return errors.Join(errs...)
}

// MovementSystem integrates Position by Velocity for active entities.
type MovementSystem struct {
	ecs.BaseSystem
}

func NewMovementSystem() *MovementSystem {
	return &MovementSystem{
		BaseSystem: ecs.NewBaseSystem(ecs.Match().All(ecs.TypeOf[Position](), ecs.TypeOf[Velocity]())),
	}
}

func (s *MovementSystem) Execute(frame *ecs.UpdateFrame) error {
	h := frame.World.Hierarchy()
	for _, id := range frame.Entities {
		if !h.IsActive(id) {
			continue
		}
		pos, _ := ecs.GetComponent[Position](frame.World, id)
		vel, _ := ecs.GetComponent[Velocity](frame.World, id)
		pos.X += vel.X * frame.DeltaTime
		pos.Y += vel.Y * frame.DeltaTime
		ecs.SetComponent(frame.World, id, pos)
	}
	return nil
}

// SpinSystem advances every Spinner. Inactive spinners are left alone.
type SpinSystem struct {
	ecs.BaseSystem
}

func NewSpinSystem() *SpinSystem {
	return &SpinSystem{
		BaseSystem: ecs.NewBaseSystem(ecs.Match().Single(ecs.TypeOf[Spinner]()).None(ecs.TypeOf[Lifetime]())),
	}
}

func (s *SpinSystem) Execute(frame *ecs.UpdateFrame) error {
	h := frame.World.Hierarchy()
	for _, id := range frame.Entities {
		if !h.IsActive(id) {
			continue
		}
		sp, _ := ecs.GetComponent[Spinner](frame.World, id)
		sp.Angle += sp.Rate * frame.DeltaTime
		ecs.SetComponent(frame.World, id, sp)
	}
	return nil
}

// ParticleSystem integrates the packed particle columns directly.
type ParticleSystem struct {
	ecs.BaseSystem
}

func NewParticleSystem() *ParticleSystem {
	return &ParticleSystem{
		BaseSystem: ecs.NewBaseSystem(ecs.Match().Single(ecs.TypeOf[Particle]())),
	}
}

func (s *ParticleSystem) Execute(frame *ecs.UpdateFrame) error {
	xs, err := ecs.FieldArray[Particle](frame.World, "x")
	if err != nil {
		return err
	}
	vxs, err := ecs.FieldArray[Particle](frame.World, "vx")
	if err != nil {
		return err
	}
	for i := range xs {
		xs[i] += vxs[i] * frame.DeltaTime
	}
	return nil
}

// HealthSystem drains health in the primary phase and tops up badly hurt
// entities in the late phase, after every other system has run.
type HealthSystem struct {
	ecs.BaseSystem
}

func NewHealthSystem() *HealthSystem {
	return &HealthSystem{
		BaseSystem: ecs.NewBaseSystem(ecs.Match().Single(ecs.TypeOf[Health]())),
	}
}

func (s *HealthSystem) Execute(frame *ecs.UpdateFrame) error {
	for _, id := range frame.Entities {
		hp, _ := ecs.GetComponent[Health](frame.World, id)
		if hp.Current > 0 {
			hp.Current--
			ecs.SetComponent(frame.World, id, hp)
		}
	}
	return nil
}

func (s *HealthSystem) LateExecute(frame *ecs.UpdateFrame) error {
	for _, id := range frame.Entities {
		hp, ok := ecs.GetComponent[Health](frame.World, id)
		if ok && hp.Current*2 < hp.Max {
			hp.Current = hp.Max
			ecs.SetComponent(frame.World, id, hp)
		}
	}
	return nil
}

// LifetimeSystem destroys expired entities and spawns a replacement under
// the same parent, both through the frame's command buffer.
type LifetimeSystem struct {
	ecs.BaseSystem
	Churn ecs.Singleton[Churn]
	rng   *rand.Rand
}

func NewLifetimeSystem(rng *rand.Rand) *LifetimeSystem {
	return &LifetimeSystem{
		BaseSystem: ecs.NewBaseSystem(ecs.Match().Single(ecs.TypeOf[Lifetime]())),
		rng:        rng,
	}
}

func (s *LifetimeSystem) Execute(frame *ecs.UpdateFrame) error {
	churn := s.Churn.Get()
	for _, id := range frame.Entities {
		life, _ := ecs.GetComponent[Lifetime](frame.World, id)
		life.Remaining -= frame.DeltaTime
		if life.Remaining > 0 {
			ecs.SetComponent(frame.World, id, life)
			continue
		}

		parent, _ := frame.World.Hierarchy().Parent(id)
		frame.Commands.Destroy(id)
		components := append(randomComponents(s.rng, 3, kindLifetime), newComponent(s.rng, kindLifetime))
		frame.Commands.CreateChild(parent, nil, components...)
		if churn != nil {
			churn.Destroyed++
			churn.Spawned++
		}
	}
	return nil
}

// ChurnSystem restructures the forest every Every ticks. It flips the
// activation of one entity and moves another under a random parent shallower
// than MaxDepth, or to the root set.
type ChurnSystem struct {
	ecs.BaseSystem
	Churn    ecs.Singleton[Churn]
	Every    uint64
	MaxDepth int
	rng      *rand.Rand
}

func NewChurnSystem(rng *rand.Rand, every uint64, maxDepth int) *ChurnSystem {
	return &ChurnSystem{
		BaseSystem: ecs.NewBaseSystem(ecs.Match()),
		Every:      max(every, 1),
		MaxDepth:   maxDepth,
		rng:        rng,
	}
}

func (s *ChurnSystem) ShouldRun(frame *ecs.UpdateFrame) bool {
	return frame.Tick%s.Every == 0
}

func (s *ChurnSystem) Execute(frame *ecs.UpdateFrame) error {
	if len(frame.Entities) < 2 {
		return nil
	}
	churn := s.Churn.Get()
	if churn == nil {
		return nil
	}
	h := frame.World.Hierarchy()
	pick := func() ecs.EntityId { return frame.Entities[s.rng.Intn(len(frame.Entities))] }

	toggled := pick()
	if h.SetActive(toggled, !h.IsActiveSelf(toggled)) {
		churn.Toggled++
	}

	child, parent := pick(), pick()
	if h.Depth(parent) >= s.MaxDepth {
		parent = 0
	}
	err := h.SetParent(child, parent)
	switch {
	case err == nil:
		churn.Reparented++
	case errors.Is(err, ecs.ErrCycle), errors.Is(err, ecs.ErrSelfParent):
		churn.Rejected++
	default:
		return err
	}
	return nil
}
