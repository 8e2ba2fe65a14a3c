package ecs_test

import (
	"testing"

	"github.com/plus3/scenecore/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryAllNone(t *testing.T) {
	w := newTestWorld(t)
	e1 := spawn(t, w, Position{}, Velocity{})
	e2 := spawn(t, w, Position{}, Velocity{}, Frozen{})
	e3 := spawn(t, w, Position{})
	e4 := spawn(t, w, Velocity{}, Health{})
	e5 := spawn(t, w, Health{}, Velocity{}, Position{})
	_, _, _ = e2, e3, e4

	cond := ecs.Match().
		All(ecs.TypeOf[Position](), ecs.TypeOf[Velocity]()).
		None(ecs.TypeOf[Frozen]())

	assert.Equal(t, []ecs.EntityId{e1, e5}, w.Query(cond))
	assert.Equal(t, 2, w.Count(cond))
	assert.True(t, w.Matches(cond, e1))
	assert.False(t, w.Matches(cond, e2))
	assert.False(t, w.Matches(cond, 999))
}

func TestQueryClauses(t *testing.T) {
	w := newTestWorld(t)
	player := spawn(t, w, Position{}, Velocity{}, PlayerController{})
	enemy := spawn(t, w, Position{}, AI{})
	rock := spawn(t, w, Position{})
	ghost := spawn(t, w, AI{}, Frozen{})
	empty := w.CreateEntity()
	w.SetName(player, "player")
	w.SetTag(enemy, "hostile")
	w.SetTag(ghost, "hostile")

	tests := []struct {
		name string
		cond ecs.Condition
		want []ecs.EntityId
	}{
		{"empty matches everything", ecs.Match(), []ecs.EntityId{player, enemy, rock, ghost, empty}},
		{"all", ecs.Match().All(ecs.TypeOf[Position]()), []ecs.EntityId{player, enemy, rock}},
		{"any", ecs.Match().Any(ecs.TypeOf[PlayerController](), ecs.TypeOf[AI]()), []ecs.EntityId{player, enemy, ghost}},
		{"none", ecs.Match().None(ecs.TypeOf[Position]()), []ecs.EntityId{ghost, empty}},
		{"single", ecs.Match().Single(ecs.TypeOf[AI]()), []ecs.EntityId{enemy, ghost}},
		{"tag", ecs.Match().WithTag("hostile"), []ecs.EntityId{enemy, ghost}},
		{"name", ecs.Match().WithName("player"), []ecs.EntityId{player}},
		{"tag and all", ecs.Match().WithTag("hostile").All(ecs.TypeOf[Position]()), []ecs.EntityId{enemy}},
		{"tag and none", ecs.Match().WithTag("hostile").None(ecs.TypeOf[Frozen]()), []ecs.EntityId{enemy}},
		{"single and any", ecs.Match().Single(ecs.TypeOf[Position]()).Any(ecs.TypeOf[AI](), ecs.TypeOf[Velocity]()), []ecs.EntityId{player, enemy}},
		{"any and none", ecs.Match().Any(ecs.TypeOf[AI]()).None(ecs.TypeOf[Frozen]()), []ecs.EntityId{enemy}},
		{"name and single mismatch", ecs.Match().WithName("player").Single(ecs.TypeOf[AI]()), []ecs.EntityId{}},
		{"unregistered in all", ecs.Match().All(ecs.TypeOf[Position](), ecs.TypeOf[struct{ nope int }]()), nil},
		{"unregistered in single", ecs.Match().Single(ecs.TypeOf[struct{ nope int }]()), nil},
		{"unregistered in any is ignored", ecs.Match().Any(ecs.TypeOf[AI](), ecs.TypeOf[struct{ nope int }]()), []ecs.EntityId{enemy, ghost}},
		{"unregistered in none is ignored", ecs.Match().All(ecs.TypeOf[AI]()).None(ecs.TypeOf[struct{ nope int }]()), []ecs.EntityId{enemy, ghost}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := w.Query(tt.cond)
			if len(tt.want) == 0 {
				assert.Empty(t, got)
			} else {
				assert.Equal(t, tt.want, got)
			}
			for _, id := range w.Entities() {
				assert.Equal(t, contains(tt.want, id), w.Matches(tt.cond, id), "entity %d", id)
			}
		})
	}
}

func contains(ids []ecs.EntityId, id ecs.EntityId) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}

func TestQueryIsFresh(t *testing.T) {
	w := newTestWorld(t)
	cond := ecs.Match().All(ecs.TypeOf[Velocity]())
	a := spawn(t, w, Velocity{})
	assert.Equal(t, []ecs.EntityId{a}, w.Query(cond))

	b := spawn(t, w, Velocity{})
	assert.Equal(t, []ecs.EntityId{a, b}, w.Query(cond))

	ecs.RemoveComponent[Velocity](w, a)
	assert.Equal(t, []ecs.EntityId{b}, w.Query(cond))
}

func TestQueryDuringBatch(t *testing.T) {
	w := newTestWorld(t)
	a := spawn(t, w, Position{})
	require.NoError(t, w.BeginBatch())

	b := w.CreateEntity()
	require.NoError(t, ecs.AddComponent(w, b, Position{}))
	ecs.RemoveComponent[Position](w, a)

	assert.Equal(t, []ecs.EntityId{b}, w.Query(ecs.Match().All(ecs.TypeOf[Position]())),
		"membership vectors lead the stores while batching")
	assert.Equal(t, []ecs.EntityId{b}, w.Query(ecs.Match().Single(ecs.TypeOf[Position]())))
	require.NoError(t, w.CommitBatch())
	assert.Equal(t, []ecs.EntityId{b}, w.Query(ecs.Match().Any(ecs.TypeOf[Position]())))
}

func TestConditionBuilders(t *testing.T) {
	base := ecs.Match().All(ecs.TypeOf[Position]())
	derived := base.All(ecs.TypeOf[Velocity]()).WithTag("x")

	assert.Equal(t, "match(all[ecs_test.Position])", base.String(), "builders return copies")
	assert.Equal(t, "match(tag=x all[ecs_test.Position,ecs_test.Velocity])", derived.String())
	assert.True(t, ecs.Match().IsEmpty())
	assert.False(t, derived.IsEmpty())
	assert.Equal(t, "match(*)", ecs.Match().String())
}
