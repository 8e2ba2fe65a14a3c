package debugui

import (
	"reflect"
	"testing"

	"github.com/plus3/scenecore/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Vec struct {
	X, Y float64
}

type Transform struct {
	Position Vec
	Layer    int8
	Visible  bool
	Label    string
	Parent   *Vec
	hidden   int
}

type Health struct {
	Current uint16
	Max     uint16
}

type Marker struct{}

func newDebugWorld(t *testing.T) *ecs.World {
	t.Helper()
	registry := ecs.NewComponentRegistry(ecs.DefaultComponentCapacity)
	require.NoError(t, RegisterDebugUIComponents(registry))
	ecs.MustRegister(ecs.RegisterComponent[Transform](registry))
	ecs.MustRegister(ecs.RegisterComponent[Health](registry))
	ecs.MustRegister(ecs.RegisterComponent[Marker](registry))
	return ecs.NewWorld(ecs.WithRegistry(registry))
}

func TestSpawnDebugUI(t *testing.T) {
	w := newDebugWorld(t)

	root, err := SpawnDebugUI(w)
	require.NoError(t, err)

	assert.Equal(t, "debugui", w.Name(root))
	children := w.Hierarchy().Children(root)
	assert.Len(t, children, 5)
	assert.Len(t, w.Query(ecs.Match().WithTag(Tag)), 6)

	for _, typ := range []reflect.Type{
		ecs.TypeOf[EntityBrowserComponent](),
		ecs.TypeOf[ComponentInspectorComponent](),
		ecs.TypeOf[StoreViewerComponent](),
		ecs.TypeOf[PerformanceStatsComponent](),
		ecs.TypeOf[QueryDebuggerComponent](),
	} {
		assert.Equal(t, 1, w.Count(ecs.Match().Single(typ)), typ.String())
	}

	id, ok := w.Hierarchy().FindChildByName(root, "query-debugger", false)
	require.True(t, ok)
	assert.True(t, ecs.HasComponent[QueryDebuggerComponent](w, id))
}

func TestSpawnDebugUIUnregistered(t *testing.T) {
	w := ecs.NewWorld()

	_, err := SpawnDebugUI(w)
	require.Error(t, err)
	assert.Equal(t, 0, w.Len())
}

func buildBrowserWorld(t *testing.T) (*ecs.World, ecs.EntityId, ecs.EntityId, ecs.EntityId) {
	w := newDebugWorld(t)

	ship := w.CreateEntity()
	w.SetName(ship, "ship")
	require.NoError(t, ecs.AddComponent(w, ship, Transform{Label: "hull"}))

	turret := w.CreateEntity()
	w.SetName(turret, "turret")
	w.SetTag(turret, "weapon")
	require.NoError(t, ecs.AddComponent(w, turret, Health{Current: 5, Max: 10}))
	require.NoError(t, w.Hierarchy().AddChild(ship, turret))

	rock := w.CreateEntity()
	w.SetName(rock, "rock")
	require.NoError(t, ecs.AddComponent(w, rock, Marker{}))

	return w, ship, turret, rock
}

func TestEntityBrowserCache(t *testing.T) {
	w, ship, turret, rock := buildBrowserWorld(t)

	eb := NewEntityBrowserComponent(10)
	eb.rebuildCacheIfNeeded(w)
	require.Len(t, eb.cache.entities, 3)

	info := eb.cache.entities[1]
	assert.Equal(t, turret, info.ID)
	assert.Equal(t, "turret", info.Name)
	assert.Equal(t, "weapon", info.Tag)
	assert.Equal(t, ship, info.Parent)
	assert.Equal(t, 1, info.Depth)
	assert.True(t, info.Active)
	assert.Equal(t, []string{"debugui.Health"}, info.ComponentTypes)

	eb.filterText = "WEAP"
	filtered := eb.getFilteredEntities()
	require.Len(t, filtered, 1)
	assert.Equal(t, turret, filtered[0].ID)

	eb.filterText = ""
	markerKind, ok := w.Registry().ID(ecs.TypeOf[Marker]())
	require.True(t, ok)
	eb.SetKindFilter(&markerKind)
	filtered = eb.getFilteredEntities()
	require.Len(t, filtered, 1)
	assert.Equal(t, rock, filtered[0].ID)

	eb.SetKindFilter(nil)
	assert.Len(t, eb.getFilteredEntities(), 3)
}

func TestEntityBrowserSort(t *testing.T) {
	w, ship, turret, rock := buildBrowserWorld(t)

	eb := NewEntityBrowserComponent(10)
	eb.rebuildCacheIfNeeded(w)

	eb.cache.sortColumn = 1
	eb.sortEntities()
	assert.Equal(t, []ecs.EntityId{rock, ship, turret}, browserIds(eb))

	eb.cache.sortColumn = 4
	eb.cache.sortAscending = false
	eb.sortEntities()
	assert.Equal(t, turret, browserIds(eb)[0])
}

func TestEntityBrowserRefreshesOnChange(t *testing.T) {
	w, _, _, _ := buildBrowserWorld(t)

	eb := NewEntityBrowserComponent(10)
	eb.rebuildCacheIfNeeded(w)
	require.Len(t, eb.cache.entities, 3)

	w.CreateEntity()
	eb.rebuildCacheIfNeeded(w)
	assert.Len(t, eb.cache.entities, 4)
}

func browserIds(eb EntityBrowserComponent) []ecs.EntityId {
	ids := make([]ecs.EntityId, len(eb.cache.entities))
	for i, e := range eb.cache.entities {
		ids[i] = e.ID
	}
	return ids
}

func TestSetField(t *testing.T) {
	w := newDebugWorld(t)
	id := w.CreateEntity()
	require.NoError(t, ecs.AddComponent(w, id, Transform{Layer: 1, Label: "a"}))
	require.NoError(t, ecs.AddComponent(w, id, Health{Current: 1, Max: 3}))

	transform := ecs.TypeOf[Transform]()
	require.NoError(t, setField(w, id, transform, []int{0, 1}, 2.5))
	require.NoError(t, setField(w, id, transform, []int{1}, int64(-3)))
	require.NoError(t, setField(w, id, transform, []int{2}, true))
	require.NoError(t, setField(w, id, transform, []int{3}, "b"))
	require.NoError(t, setField(w, id, ecs.TypeOf[Health](), []int{0}, uint64(2)))

	got, ok := ecs.GetComponent[Transform](w, id)
	require.True(t, ok)
	assert.Equal(t, Transform{Position: Vec{Y: 2.5}, Layer: -3, Visible: true, Label: "b"}, got)

	hp, _ := ecs.GetComponent[Health](w, id)
	assert.Equal(t, uint16(2), hp.Current)
}

func TestSetFieldRejects(t *testing.T) {
	w := newDebugWorld(t)
	id := w.CreateEntity()
	require.NoError(t, ecs.AddComponent(w, id, Transform{Layer: 1}))

	transform := ecs.TypeOf[Transform]()
	assert.Error(t, setField(w, id, transform, []int{1}, int64(300)), "overflow")
	assert.Error(t, setField(w, id, transform, []int{1}, "text"), "kind mismatch")
	assert.Error(t, setField(w, id, transform, []int{5}, int64(1)), "unexported")
	assert.Error(t, setField(w, id, transform, []int{9}, int64(1)), "out of range")
	assert.Error(t, setField(w, id, ecs.TypeOf[Health](), []int{0}, uint64(1)), "absent")

	got, _ := ecs.GetComponent[Transform](w, id)
	assert.Equal(t, int8(1), got.Layer)
}

func TestQueryDebuggerCondition(t *testing.T) {
	w, ship, turret, rock := buildBrowserWorld(t)

	qd := NewQueryDebuggerComponent()
	qd.rebuildCacheIfNeeded(w.Registry())
	assert.True(t, qd.condition().IsEmpty())

	qd.selection.modes[ecs.TypeOf[Transform]().String()] = clauseAny
	qd.selection.modes[ecs.TypeOf[Health]().String()] = clauseAny
	assert.Equal(t, []ecs.EntityId{ship, turret}, w.Query(qd.condition()))

	qd.selection.modes[ecs.TypeOf[Transform]().String()] = clauseNone
	assert.Equal(t, []ecs.EntityId{turret}, w.Query(qd.condition()))

	qd.selection = &querySelection{modes: map[string]clauseMode{}, name: "rock"}
	assert.Equal(t, []ecs.EntityId{rock}, w.Query(qd.condition()))
}

func TestQueryDebuggerCacheTracksRegistry(t *testing.T) {
	w := newDebugWorld(t)

	qd := NewQueryDebuggerComponent()
	qd.rebuildCacheIfNeeded(w.Registry())
	before := len(qd.cache.componentTypes)

	ecs.MustRegister(ecs.RegisterComponent[Vec](w.Registry()))
	qd.rebuildCacheIfNeeded(w.Registry())
	assert.Len(t, qd.cache.componentTypes, before+1)
}

func TestStoreViewerCache(t *testing.T) {
	w, _, _, _ := buildBrowserWorld(t)
	for range 2 {
		require.NoError(t, ecs.AddComponent(w, w.CreateEntity(), Health{}))
	}

	sv := NewStoreViewerComponent()
	sv.rebuildCache(w.Storage())
	require.NotEmpty(t, sv.cache.stores)
	assert.Equal(t, "debugui.Health", sv.cache.stores[0].Type)
	assert.Equal(t, 3, sv.cache.stores[0].Len)

	sv.cache.sortColumn = 1
	sv.cache.sortAscending = true
	sv.sortStores()
	for i := 1; i < len(sv.cache.stores); i++ {
		assert.LessOrEqual(t, sv.cache.stores[i-1].Type, sv.cache.stores[i].Type)
	}
}

func TestPerformanceStatsRecord(t *testing.T) {
	ps := NewPerformanceStatsComponent(4)

	assert.InDelta(t, 2.5, ps.record(0.010), 1e-4)
	assert.InDelta(t, 5.0, ps.record(0.010), 1e-4)
	ps.record(0.010)
	ps.record(0.010)
	assert.InDelta(t, 12.5, ps.record(0.020), 1e-4)
	assert.Equal(t, 1, ps.frameIndex)
}

func TestReflectionCache(t *testing.T) {
	rc := NewReflectionCache()

	fields := rc.GetFields(ecs.TypeOf[Transform]())
	require.Len(t, fields, 5)
	assert.Equal(t, "Position", fields[0].Name)
	assert.True(t, fields[0].IsStruct)
	assert.Equal(t, "Parent", fields[4].Name)
	assert.True(t, fields[4].IsPointer)
	assert.Equal(t, ecs.TypeOf[Vec](), fields[4].Type)
	assert.False(t, fields[4].Editable)
	assert.False(t, fields[0].Editable)
	assert.True(t, fields[1].Editable)
	assert.Equal(t, reflect.Int8, fields[1].Kind)

	assert.Empty(t, rc.GetFields(reflect.TypeFor[int]()))
	assert.Equal(t, fields, rc.GetFields(ecs.TypeOf[Transform]()))
}
