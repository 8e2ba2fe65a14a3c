package ecs

// System is a processing unit driven by the Scheduler. Each tick the
// scheduler evaluates Condition against the world and hands the matching
// entities to Execute through UpdateFrame.Entities.
//
// Systems may keep state in their own fields between frames. Fields of type
// Singleton[T] are bound to the world when the system is registered.
type System interface {
	Condition() Condition
	Enabled() bool
	// ShouldRun lets a system throttle itself without being disabled. It is
	// called before the condition is evaluated, so frame.Entities is empty.
	ShouldRun(frame *UpdateFrame) bool
	Execute(frame *UpdateFrame) error
}

// LateSystem is implemented by systems that also take part in the late
// phase, which runs after every system's primary phase in the same tick.
type LateSystem interface {
	System
	LateExecute(frame *UpdateFrame) error
}

// BaseSystem supplies the bookkeeping parts of System. Embed it and
// implement Execute.
//
//	type Gravity struct {
//		ecs.BaseSystem
//	}
//
//	g := &Gravity{BaseSystem: ecs.NewBaseSystem(ecs.Match().All(ecs.TypeOf[Velocity]()))}
type BaseSystem struct {
	Cond     Condition
	disabled bool
}

// NewBaseSystem returns an enabled BaseSystem working on cond.
func NewBaseSystem(cond Condition) BaseSystem {
	return BaseSystem{Cond: cond}
}

func (b *BaseSystem) Condition() Condition { return b.Cond }

func (b *BaseSystem) Enabled() bool { return !b.disabled }

// SetEnabled turns both phases on or off.
func (b *BaseSystem) SetEnabled(enabled bool) { b.disabled = !enabled }

func (b *BaseSystem) ShouldRun(*UpdateFrame) bool { return true }
