package main

import (
	"fmt"
	"io"
	"runtime"
	"text/template"
	"time"

	"github.com/google/uuid"
	"github.com/plus3/scenecore/ecs"
)

type Report struct {
	RunID string

	// Configuration
	Duration   time.Duration
	Entities   int
	MaxDepth   int
	Components int
	Systems    int
	Seed       int64

	// Results
	TotalUpdates   int64
	FailedUpdates  int64
	TotalTime      time.Duration
	UpdateTime     Stats
	GCPauseMetrics bool
	MemStatsStart  runtime.MemStats
	MemStatsEnd    runtime.MemStats

	World        ecs.WorldStats
	SystemStats  []ecs.SystemStats
	Slowest      []SlowestSample
	Churn        Churn
	SystemErrors int64
}

type Stats struct {
	Min     time.Duration
	Max     time.Duration
	Avg     time.Duration
	Samples []time.Duration
}

func (s *Stats) Finalize() {
	if len(s.Samples) == 0 {
		return
	}

	var total time.Duration
	s.Min = s.Samples[0]
	s.Max = s.Samples[0]

	for _, sample := range s.Samples {
		if sample < s.Min {
			s.Min = sample
		}
		if sample > s.Max {
			s.Max = sample
		}
		total += sample
	}
	s.Avg = total / time.Duration(len(s.Samples))
}

// NewReport returns an empty report tagged with a fresh run id.
func NewReport() *Report {
	return &Report{RunID: uuid.New().String()}
}

// Collect copies the end-of-run state of the world, scheduler and monitor
// into the report.
func (r *Report) Collect(w *ecs.World, scheduler *ecs.Scheduler, monitor *slowMonitor) {
	r.World = w.CollectStats()
	r.SystemStats = scheduler.GetStats().Systems
	r.Slowest = monitor.Slowest()
	r.SystemErrors = monitor.Failures()
	if churn, ok := ecs.GetSingleton[Churn](w); ok {
		r.Churn = *churn
	}
}

func (r *Report) Generate(w io.Writer) error {
	const reportTemplate = `
# ECS Stress Test Report

## Test Configuration
- **Run ID:** {{.RunID}}
- **Run Duration:** {{.Duration}}
- **Initial Entities:** {{.Entities}}
- **Max Hierarchy Depth:** {{.MaxDepth}}
- **Component Kinds:** {{.Components}}
- **Systems:** {{.Systems}}
- **Seed:** {{.Seed}}

## Performance Results
- **Total Updates:** {{.TotalUpdates}} ({{.FailedUpdates}} failed)
- **Total Test Time:** {{.TotalTime}}
- **Update Time (Frame):**
  - **Avg:** {{.UpdateTime.Avg}}
  - **Min:** {{.UpdateTime.Min}}
  - **Max:** {{.UpdateTime.Max}}

## World
- Entities:       {{.World.EntityCount}} ({{.World.RootCount}} roots, max depth {{.World.MaxDepth}})
- Stored Values:  {{.World.Storage.TotalValues}} across {{len .World.Storage.Stores}} stores
{{- range .World.Storage.Stores}}
  - {{.Type}}: {{.Len}} / {{.Cap}}{{if .Columnar}} (columnar){{end}}
{{- end}}

## Churn
- Spawned:    {{.Churn.Spawned}}
- Destroyed:  {{.Churn.Destroyed}}
- Reparented: {{.Churn.Reparented}} ({{.Churn.Rejected}} rejected)
- Toggled:    {{.Churn.Toggled}}

## Systems
| System | Priority | Runs | Skips | Avg | Min | Max | Late Runs | Late Total | Entities |
|---|---|---|---|---|---|---|---|---|---|
{{- range .SystemStats}}
| {{.Name}} | {{.Priority}} | {{.ExecutionCount}} | {{.SkipCount}} | {{.AvgDuration}} | {{.MinDuration}} | {{.MaxDuration}} | {{.LateCount}} | {{.LateTotal}} | {{.LastEntityCount}} |
{{- end}}

### Slowest Invocations{{if .SystemErrors}} ({{.SystemErrors}} failed){{end}}
{{- range .Slowest}}
- {{.System}} ({{.Phase}}) at tick {{.Tick}}: {{.Duration}} over {{.Entities}} entities
{{- end}}

## Memory Usage (Raw Bytes)
- Heap Alloc:     {{.MemStatsStart.HeapAlloc}} (start) -> {{.MemStatsEnd.HeapAlloc}} (end) -> delta: {{bsub .MemStatsEnd.HeapAlloc .MemStatsStart.HeapAlloc}}
- Total Alloc:    {{.MemStatsStart.TotalAlloc}} (start) -> {{.MemStatsEnd.TotalAlloc}} (end) -> delta: {{bsub .MemStatsEnd.TotalAlloc .MemStatsStart.TotalAlloc}}
- Sys Memory:     {{.MemStatsStart.Sys}} (start) -> {{.MemStatsEnd.Sys}} (end) -> delta: {{bsub .MemStatsEnd.Sys .MemStatsStart.Sys}}
- Heap In Use:    {{mb .MemStatsEnd.HeapInuse}} MB (end)
- Num GC:         {{.MemStatsStart.NumGC}} (start) -> {{.MemStatsEnd.NumGC}} (end) -> delta: {{usub .MemStatsEnd.NumGC .MemStatsStart.NumGC}}

{{if .GCPauseMetrics}}
## GC Pause Durations
- **Total GC Pause:** {{.MemStatsEnd.PauseTotalNs | ns}}
- **Num GC Cycles:** {{ usub .MemStatsEnd.NumGC .MemStatsStart.NumGC }}
{{end}}
`

	fm := template.FuncMap{
		"mb": func(v any) string {
			switch val := v.(type) {
			case uint64:
				return fmt.Sprintf("%.2f", float64(val)/1024/1024)
			case int64:
				return fmt.Sprintf("%.2f", float64(val)/1024/1024)
			default:
				return "N/A"
			}
		},
		"bsub": func(a, b uint64) int64 {
			return int64(a) - int64(b)
		},
		"usub": func(a, b uint32) uint32 {
			return a - b
		},
		"ns": func(ns uint64) string {
			return time.Duration(ns).String()
		},
	}

	tmpl, err := template.New("report").Funcs(fm).Parse(reportTemplate)
	if err != nil {
		return err
	}

	return tmpl.Execute(w, r)
}
