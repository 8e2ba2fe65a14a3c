package ecs

import (
	"context"
	"errors"
	"log/slog"
	"reflect"
	"slices"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// Phase identifies one of the two invocation passes of a tick.
type Phase int

const (
	PhasePrimary Phase = iota
	PhaseLate
)

func (p Phase) String() string {
	if p == PhaseLate {
		return "late"
	}
	return "primary"
}

// SystemSample is one timed system invocation.
type SystemSample struct {
	System   string
	Phase    Phase
	Tick     uint64
	Duration time.Duration
	Entities int
	Err      error
}

// Monitor observes system invocations. It is purely observational: a
// panicking monitor is logged and scheduling carries on.
type Monitor interface {
	RecordSystem(sample SystemSample)
}

// SchedulerStats provides statistics about scheduler execution.
type SchedulerStats struct {
	SystemCount     int
	Ticks           uint64
	TotalExecutions int64
	Systems         []SystemStats
}

// SystemStats provides execution statistics for a single system. Duration
// fields cover the primary phase; the Late fields cover the late phase.
type SystemStats struct {
	Name            string
	Priority        int
	Enabled         bool
	ExecutionCount  int64
	SkipCount       int64
	MinDuration     time.Duration
	MaxDuration     time.Duration
	AvgDuration     time.Duration
	LastDuration    time.Duration
	TotalDuration   time.Duration
	LateCount       int64
	LateLast        time.Duration
	LateTotal       time.Duration
	LastEntityCount int
}

type systemStatsInternal struct {
	executionCount  int64
	skipCount       int64
	minDuration     time.Duration
	maxDuration     time.Duration
	totalDuration   time.Duration
	lastDuration    time.Duration
	lateCount       int64
	lateLast        time.Duration
	lateTotal       time.Duration
	lastEntityCount int
}

func (st *systemStatsInternal) record(phase Phase, d time.Duration, entities int) {
	st.lastEntityCount = entities
	if phase == PhaseLate {
		st.lateCount++
		st.lateLast = d
		st.lateTotal += d
		return
	}
	st.executionCount++
	st.lastDuration = d
	st.totalDuration += d
	if st.executionCount == 1 || d < st.minDuration {
		st.minDuration = d
	}
	if d > st.maxDuration {
		st.maxDuration = d
	}
}

type scheduledSystem struct {
	system   System
	late     LateSystem
	name     string
	priority int
	stats    systemStatsInternal
}

// RegisterOption adjusts how a system is scheduled.
type RegisterOption func(*scheduledSystem)

// WithPriority orders systems: lower values run first. Systems with equal
// priority keep their registration order. The default is 0.
func WithPriority(priority int) RegisterOption {
	return func(s *scheduledSystem) {
		s.priority = priority
	}
}

// WithName overrides the name used in stats and logs, which defaults to the
// system's type name.
func WithName(name string) RegisterOption {
	return func(s *scheduledSystem) {
		s.name = name
	}
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithMonitor sets the collaborator receiving a sample per invocation.
func WithMonitor(m Monitor) SchedulerOption {
	return func(s *Scheduler) {
		s.monitor = m
	}
}

// WithSchedulerLogger overrides the world's logger for scheduler messages.
func WithSchedulerLogger(logger *slog.Logger) SchedulerOption {
	return func(s *Scheduler) {
		s.logger = logger
	}
}

// Scheduler manages and executes systems in order.
type Scheduler struct {
	world    *World
	systems  []*scheduledSystem
	monitor  Monitor
	logger   *slog.Logger
	tick     uint64
	commands *Commands
}

// NewScheduler creates a new scheduler for the given world.
func NewScheduler(world *World, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		world:    world,
		logger:   world.Logger(),
		commands: newCommands(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register adds a system to the scheduler and binds its Singleton fields.
func (s *Scheduler) Register(system System, opts ...RegisterOption) {
	if system == nil {
		panic("ecs: Register called with nil system")
	}
	s.initializeSingletons(system)

	entry := &scheduledSystem{
		system: system,
		name:   systemName(system),
	}
	entry.late, _ = system.(LateSystem)
	for _, opt := range opts {
		opt(entry)
	}

	s.systems = append(s.systems, entry)
	slices.SortStableFunc(s.systems, func(a, b *scheduledSystem) int {
		return a.priority - b.priority
	})
}

func systemName(system System) string {
	systemType := reflect.TypeOf(system)
	if systemType.Kind() == reflect.Ptr {
		systemType = systemType.Elem()
	}
	return systemType.Name()
}

func (s *Scheduler) initializeSingletons(system System) {
	systemValue := reflect.ValueOf(system)
	if systemValue.Kind() == reflect.Ptr {
		systemValue = systemValue.Elem()
	}

	if systemValue.Kind() != reflect.Struct {
		return
	}

	systemType := systemValue.Type()

	for i := 0; i < systemValue.NumField(); i++ {
		field := systemValue.Field(i)
		fieldType := systemType.Field(i)

		if !field.CanSet() || field.Kind() != reflect.Struct {
			continue
		}

		if strings.HasPrefix(field.Type().Name(), "Singleton[") {
			initMethod := field.Addr().MethodByName("Init")
			if !initMethod.IsValid() {
				panic("Init method not found on Singleton field: " + fieldType.Name)
			}

			initMethod.Call([]reflect.Value{
				reflect.ValueOf(s.world),
			})
		}
	}
}

// Systems returns the registered systems in execution order.
func (s *Scheduler) Systems() []System {
	out := make([]System, len(s.systems))
	for i, entry := range s.systems {
		out[i] = entry.system
	}
	return out
}

// Once runs one tick: the primary phase of every enabled system, then the
// late phase of those that ran and implement LateSystem, then the frame's
// commands. Each phase evaluates the system's condition afresh.
//
// A failing system does not stop the tick. Its late phase is skipped, the
// remaining systems and the command flush still run, and every failure is
// returned joined once the tick's bookkeeping is done. Commands queued while
// the buffer is being flushed are applied at the end of the next tick.
func (s *Scheduler) Once(dt float64) error {
	s.tick++
	frame := newUpdateFrame(dt, s.tick, s.world, s.commands)

	ran := make([]bool, len(s.systems))
	primaryErrs := s.phase(PhasePrimary, frame, func(i int, entry *scheduledSystem) bool {
		if !entry.system.Enabled() {
			return false
		}
		frame.Entities = nil
		if !entry.system.ShouldRun(frame) {
			entry.stats.skipCount++
			return false
		}
		ran[i] = true
		return true
	})
	for i := range primaryErrs {
		if primaryErrs[i] != nil {
			ran[i] = false
		}
	}
	lateErrs := s.phase(PhaseLate, frame, func(i int, entry *scheduledSystem) bool {
		return ran[i] && entry.late != nil && entry.system.Enabled()
	})
	err := errors.Join(append(primaryErrs, lateErrs...)...)

	if flushErr := frame.Commands.Flush(s.world); flushErr != nil {
		s.logger.Warn("command flush failed", "tick", s.tick, "err", flushErr)
		err = errors.Join(err, eris.Wrapf(flushErr, "tick %d: flush commands", s.tick))
	}
	return err
}

// phase runs every eligible system and returns their errors indexed like
// s.systems.
func (s *Scheduler) phase(phase Phase, frame *UpdateFrame, eligible func(int, *scheduledSystem) bool) []error {
	errs := make([]error, len(s.systems))
	for i, entry := range s.systems {
		if eligible(i, entry) {
			errs[i] = s.invoke(entry, phase, frame)
		}
	}
	return errs
}

func (s *Scheduler) invoke(entry *scheduledSystem, phase Phase, frame *UpdateFrame) error {
	frame.Entities = s.world.Query(entry.system.Condition())

	start := time.Now()
	var err error
	if phase == PhaseLate {
		err = entry.late.LateExecute(frame)
	} else {
		err = entry.system.Execute(frame)
	}
	duration := time.Since(start)

	entry.stats.record(phase, duration, len(frame.Entities))
	s.report(SystemSample{
		System:   entry.name,
		Phase:    phase,
		Tick:     s.tick,
		Duration: duration,
		Entities: len(frame.Entities),
		Err:      err,
	})

	if err != nil {
		s.logger.Error("system failed", "system", entry.name, "phase", phase.String(), "tick", s.tick, "err", err)
		return eris.Wrapf(err, "system %s (%s phase)", entry.name, phase)
	}
	return nil
}

func (s *Scheduler) report(sample SystemSample) {
	if s.monitor == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("monitor panicked", "system", sample.System, "phase", sample.Phase.String(), "panic", r)
		}
	}()
	s.monitor.RecordSystem(sample)
}

// Run executes ticks at the given interval until the context is cancelled
// or a tick fails. A non-positive interval uses the world's TickInterval.
// Cancellation is not an error.
func (s *Scheduler) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = s.world.Config().TickInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	lastTime := time.Now()

	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			dt := now.Sub(lastTime).Seconds()
			lastTime = now
			if err := s.Once(dt); err != nil {
				return err
			}
		}
	}
}

// GetStats returns statistics about system execution.
func (s *Scheduler) GetStats() *SchedulerStats {
	stats := &SchedulerStats{
		SystemCount: len(s.systems),
		Ticks:       s.tick,
		Systems:     make([]SystemStats, len(s.systems)),
	}

	var totalExecs int64
	for i, entry := range s.systems {
		internal := &entry.stats
		avgDuration := time.Duration(0)
		if internal.executionCount > 0 {
			avgDuration = internal.totalDuration / time.Duration(internal.executionCount)
		}

		stats.Systems[i] = SystemStats{
			Name:            entry.name,
			Priority:        entry.priority,
			Enabled:         entry.system.Enabled(),
			ExecutionCount:  internal.executionCount,
			SkipCount:       internal.skipCount,
			MinDuration:     internal.minDuration,
			MaxDuration:     internal.maxDuration,
			AvgDuration:     avgDuration,
			LastDuration:    internal.lastDuration,
			TotalDuration:   internal.totalDuration,
			LateCount:       internal.lateCount,
			LateLast:        internal.lateLast,
			LateTotal:       internal.lateTotal,
			LastEntityCount: internal.lastEntityCount,
		}
		totalExecs += internal.executionCount + internal.lateCount
	}

	stats.TotalExecutions = totalExecs
	return stats
}
