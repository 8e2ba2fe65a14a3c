package main

import (
	"bytes"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/plus3/scenecore/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStressWorld(t *testing.T) *ecs.World {
	t.Helper()
	w := ecs.NewWorld()
	require.NoError(t, RegisterComponents(w.Registry()))
	ecs.AddSingleton(w, Churn{})
	return w
}

func TestPopulateBuildsBoundedForest(t *testing.T) {
	w := newStressWorld(t)
	rng := rand.New(rand.NewSource(1))

	require.NoError(t, Populate(w, rng, 500, 3))
	assert.Equal(t, 500, w.Len())
	assert.False(t, w.InBatch())

	stats := w.CollectStats()
	assert.LessOrEqual(t, stats.MaxDepth, 4)
	assert.Less(t, stats.RootCount, 500)

	for _, id := range w.Entities() {
		assert.NotEmpty(t, w.Types(id), "entity %d has no components", id)
	}
}

func TestRandomComponentsDistinctKinds(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	for range 50 {
		comps := randomComponents(rng, 5, kindLifetime)
		seen := map[string]bool{}
		for _, c := range comps {
			_, isLifetime := c.(Lifetime)
			assert.False(t, isLifetime)
			key := fmt.Sprintf("%T", c)
			assert.False(t, seen[key], key)
			seen[key] = true
		}
	}
}

func TestSimulationTicks(t *testing.T) {
	w := newStressWorld(t)
	rng := rand.New(rand.NewSource(3))
	require.NoError(t, Populate(w, rng, 200, 3))

	monitor := newSlowMonitor()
	scheduler := ecs.NewScheduler(w, ecs.WithMonitor(monitor))
	RegisterSystems(scheduler, rng, 2, 3)

	for range 40 {
		require.NoError(t, scheduler.Once(0.5))
	}

	stats := scheduler.GetStats()
	assert.Equal(t, uint64(40), stats.Ticks)
	require.Len(t, stats.Systems, systemCount)

	byName := map[string]ecs.SystemStats{}
	for _, s := range stats.Systems {
		byName[s.Name] = s
	}
	assert.Equal(t, int64(20), byName["ChurnSystem"].ExecutionCount)
	assert.Equal(t, int64(20), byName["ChurnSystem"].SkipCount)
	assert.Positive(t, byName["HealthSystem"].LateCount)

	churn, ok := ecs.GetSingleton[Churn](w)
	require.True(t, ok)
	assert.Equal(t, int64(20), churn.Toggled)
	assert.Equal(t, int64(20), churn.Reparented+churn.Rejected)
	assert.Positive(t, churn.Destroyed)
	assert.Equal(t, churn.Destroyed, churn.Spawned)
	assert.Equal(t, 200, w.Len())

	assert.Zero(t, monitor.Failures())
	assert.NotEmpty(t, monitor.Slowest())
}

func TestReportGenerate(t *testing.T) {
	w := newStressWorld(t)
	rng := rand.New(rand.NewSource(4))
	require.NoError(t, Populate(w, rng, 20, 2))

	monitor := newSlowMonitor()
	scheduler := ecs.NewScheduler(w, ecs.WithMonitor(monitor))
	RegisterSystems(scheduler, rng, 1, 2)
	require.NoError(t, scheduler.Once(0.1))

	report := NewReport()
	report.Entities = 20
	report.UpdateTime = Stats{Samples: []time.Duration{2 * time.Millisecond, 4 * time.Millisecond}}
	report.UpdateTime.Finalize()
	report.Collect(w, scheduler, monitor)

	var buf bytes.Buffer
	require.NoError(t, report.Generate(&buf))

	out := buf.String()
	assert.Len(t, report.RunID, 36)
	assert.Contains(t, out, report.RunID)
	assert.Contains(t, out, "**Avg:** 3ms")
	assert.Contains(t, out, "| MovementSystem |")
	assert.Contains(t, out, "main.Particle")
	assert.Contains(t, out, "(columnar)")
}
