// Package debugui provides immediate-mode GUI integration for ECS applications using Dear ImGui.
// It manages ImGui rendering and input state through ECS components and systems.
package debugui

import (
	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/plus3/scenecore/ecs"
)

// ImguiItem is a component that holds a Dear ImGui render function.
// Attach this to entities that should render ImGui widgets each frame.
type ImguiItem struct {
	Render func()
}

// ImguiInputState tracks Dear ImGui's input capture state as a singleton.
// Use this to determine if ImGui is consuming mouse or keyboard input.
type ImguiInputState struct {
	WantCaptureMouse    bool
	WantCaptureKeyboard bool
}

// ImguiSystem defers the render function of every active ImguiItem and keeps
// the ImguiInputState singleton current.
type ImguiSystem struct {
	ecs.BaseSystem
	InputState ecs.Singleton[ImguiInputState]
}

func NewImguiSystem() *ImguiSystem {
	return &ImguiSystem{
		BaseSystem: ecs.NewBaseSystem(ecs.Match().All(ecs.TypeOf[ImguiItem]())),
	}
}

// Execute updates input state and queues all ImGui render functions for execution.
func (i *ImguiSystem) Execute(frame *ecs.UpdateFrame) error {
	if state := i.InputState.Get(); state != nil {
		state.WantCaptureMouse = imgui.CurrentIO().WantCaptureMouse()
		state.WantCaptureKeyboard = imgui.CurrentIO().WantCaptureKeyboard()
	}

	h := frame.World.Hierarchy()
	for _, id := range frame.Entities {
		if !h.IsActive(id) {
			continue
		}
		item, ok := ecs.GetComponent[ImguiItem](frame.World, id)
		if ok && item.Render != nil {
			frame.Commands.Defer(item.Render)
		}
	}
	return nil
}

// DebugUISystem renders the panels spawned by SpawnDebugUI. The entity
// selected in the browser is shown by the inspector.
type DebugUISystem struct {
	ecs.BaseSystem
	Scheduler *ecs.Scheduler
}

func NewDebugUISystem(scheduler *ecs.Scheduler) *DebugUISystem {
	return &DebugUISystem{
		BaseSystem: ecs.NewBaseSystem(ecs.Match().WithTag(Tag)),
		Scheduler:  scheduler,
	}
}

func (d *DebugUISystem) Execute(frame *ecs.UpdateFrame) error {
	w := frame.World
	h := w.Hierarchy()

	panels := make([]ecs.EntityId, 0, len(frame.Entities))
	for _, id := range frame.Entities {
		if h.IsActive(id) {
			panels = append(panels, id)
		}
	}

	var filter *ecs.ComponentID
	for _, id := range panels {
		if viewer, ok := ecs.GetComponent[StoreViewerComponent](w, id); ok {
			if clicked := viewer.Render(w); clicked != nil {
				filter = clicked
			}
			ecs.SetComponent(w, id, viewer)
		}
	}

	var selected ecs.EntityId
	for _, id := range panels {
		if browser, ok := ecs.GetComponent[EntityBrowserComponent](w, id); ok {
			if filter != nil {
				browser.SetKindFilter(filter)
			}
			browser.Render(w)
			selected = browser.GetSelectedEntity()
			ecs.SetComponent(w, id, browser)
		}
	}

	for _, id := range panels {
		if inspector, ok := ecs.GetComponent[ComponentInspectorComponent](w, id); ok {
			inspector.Render(w, selected)
			ecs.SetComponent(w, id, inspector)
		}
		if stats, ok := ecs.GetComponent[PerformanceStatsComponent](w, id); ok {
			stats.Render(w, d.Scheduler, float32(frame.DeltaTime))
			ecs.SetComponent(w, id, stats)
		}
		if debugger, ok := ecs.GetComponent[QueryDebuggerComponent](w, id); ok {
			debugger.Render(w)
			ecs.SetComponent(w, id, debugger)
		}
	}
	return nil
}
