package debugui

import (
	"errors"

	"github.com/plus3/scenecore/ecs"
)

// Tag is carried by every entity SpawnDebugUI creates.
const Tag = "debugui"

// SpawnDebugUI creates a root entity named "debugui" with one child per
// panel and returns the root.
func SpawnDebugUI(w *ecs.World) (ecs.EntityId, error) {
	root := w.CreateEntity()
	w.SetName(root, "debugui")
	w.SetTag(root, Tag)

	panels := []struct {
		name  string
		value any
	}{
		{"entity-browser", NewEntityBrowserComponent(100)},
		{"component-inspector", NewComponentInspectorComponent()},
		{"store-viewer", NewStoreViewerComponent()},
		{"performance-stats", NewPerformanceStatsComponent(120)},
		{"query-debugger", NewQueryDebuggerComponent()},
	}

	for _, p := range panels {
		id := w.CreateEntity()
		w.SetName(id, p.name)
		w.SetTag(id, Tag)
		if err := w.Attach(id, p.value); err != nil {
			w.DestroyRecursive(root)
			w.Destroy(id)
			return 0, err
		}
		if err := w.Hierarchy().AddChild(root, id); err != nil {
			w.DestroyRecursive(root)
			w.Destroy(id)
			return 0, err
		}
	}
	return root, nil
}

// RegisterDebugUIComponents registers every component kind this package
// attaches to entities.
func RegisterDebugUIComponents(registry *ecs.ComponentRegistry) error {
	var errs []error
	register := func(_ ecs.ComponentID, err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}
	register(ecs.RegisterComponent[EntityBrowserComponent](registry))
	register(ecs.RegisterComponent[ComponentInspectorComponent](registry))
	register(ecs.RegisterComponent[StoreViewerComponent](registry))
	register(ecs.RegisterComponent[PerformanceStatsComponent](registry))
	register(ecs.RegisterComponent[QueryDebuggerComponent](registry))
	register(ecs.RegisterComponent[ImguiItem](registry))
	register(ecs.RegisterComponent[ImguiInputState](registry))
	return errors.Join(errs...)
}
