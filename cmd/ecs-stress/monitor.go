package main

import (
	"cmp"
	"slices"
	"sync"
	"time"

	"github.com/plus3/scenecore/ecs"
)

// SlowestSample is the longest single invocation seen for one system phase.
type SlowestSample struct {
	System   string
	Phase    string
	Tick     uint64
	Duration time.Duration
	Entities int
}

// slowMonitor keeps the slowest sample per system and phase, and counts
// failed invocations.
type slowMonitor struct {
	mu       sync.Mutex
	slowest  map[string]SlowestSample
	failures int64
}

func newSlowMonitor() *slowMonitor {
	return &slowMonitor{slowest: make(map[string]SlowestSample)}
}

func (m *slowMonitor) RecordSystem(sample ecs.SystemSample) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if sample.Err != nil {
		m.failures++
	}
	key := sample.System + "/" + sample.Phase.String()
	if prev, ok := m.slowest[key]; ok && prev.Duration >= sample.Duration {
		return
	}
	m.slowest[key] = SlowestSample{
		System:   sample.System,
		Phase:    sample.Phase.String(),
		Tick:     sample.Tick,
		Duration: sample.Duration,
		Entities: sample.Entities,
	}
}

// Slowest returns the recorded samples, slowest first.
func (m *slowMonitor) Slowest() []SlowestSample {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]SlowestSample, 0, len(m.slowest))
	for _, s := range m.slowest {
		out = append(out, s)
	}
	slices.SortFunc(out, func(a, b SlowestSample) int {
		return cmp.Compare(b.Duration, a.Duration)
	})
	return out
}

func (m *slowMonitor) Failures() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.failures
}
