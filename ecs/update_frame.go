package ecs

// UpdateFrame is handed to every system invocation of one tick.
type UpdateFrame struct {
	DeltaTime float64
	Tick      uint64
	Commands  *Commands
	World     *World
	// Entities holds the ids matching the running system's condition,
	// evaluated just before the current phase.
	Entities []EntityId
}

func newUpdateFrame(dt float64, tick uint64, world *World, commands *Commands) *UpdateFrame {
	return &UpdateFrame{
		DeltaTime: dt,
		Tick:      tick,
		Commands:  commands,
		World:     world,
	}
}
