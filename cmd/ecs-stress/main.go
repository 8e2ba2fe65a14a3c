package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"math/rand"
	"os"
	"runtime"
	"time"

	"github.com/pkg/profile"
	"github.com/plus3/scenecore/ecs"
)

const systemCount = 6

func main() {
	duration := flag.Duration("duration", 10*time.Second, "The total duration the test should run for.")
	entityCount := flag.Int("entities", 10000, "The initial number of entities to create.")
	maxDepth := flag.Int("depth", 4, "The maximum hierarchy depth of spawned entities.")
	configPath := flag.String("config", "", "Optional YAML world config.")
	profileMode := flag.String("profile", "", "Profile the run: cpu, mem or empty for none.")
	churnEvery := flag.Uint64("churn-every", 10, "Ticks between hierarchy restructurings.")
	seed := flag.Int64("seed", time.Now().UnixNano(), "Random seed.")
	gcPauseMetrics := flag.Bool("gc-pause-metrics", false, "Enable detailed GC pause metrics in the report.")
	flag.Parse()

	switch *profileMode {
	case "cpu":
		defer profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	case "mem":
		defer profile.Start(profile.MemProfile, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	case "":
	default:
		log.Fatalf("Unknown profile mode %q", *profileMode)
	}

	log.Println("Starting ECS stress test...")

	cfg := ecs.DefaultConfig()
	if *configPath != "" {
		loaded, err := ecs.LoadConfig(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		cfg = loaded
	}

	// 1. Setup World and Scheduler
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	world := ecs.NewWorld(ecs.WithConfig(cfg), ecs.WithLogger(logger))
	if err := RegisterComponents(world.Registry()); err != nil {
		log.Fatalf("Failed to register components: %v", err)
	}
	ecs.AddSingleton(world, Churn{})

	rng := rand.New(rand.NewSource(*seed))
	monitor := newSlowMonitor()
	scheduler := ecs.NewScheduler(world, ecs.WithMonitor(monitor))
	RegisterSystems(scheduler, rng, *churnEvery, *maxDepth)

	// 2. Populate the world with an initial forest
	log.Printf("Populating world with %d entities (max depth %d, seed %d)...\n", *entityCount, *maxDepth, *seed)
	if err := Populate(world, rng, *entityCount, *maxDepth); err != nil {
		log.Fatalf("Failed to populate world: %v", err)
	}
	log.Println("Population complete.")

	// 3. Run the simulation loop
	report := NewReport()
	report.Duration = *duration
	report.Entities = *entityCount
	report.MaxDepth = *maxDepth
	report.Components = componentCount
	report.Systems = systemCount
	report.Seed = *seed
	report.GCPauseMetrics = *gcPauseMetrics
	report.UpdateTime = Stats{
		Samples: make([]time.Duration, 0),
	}

	runtime.ReadMemStats(&report.MemStatsStart)

	log.Printf("Running simulation %s for %s...\n", report.RunID, *duration)
	ctx, cancel := context.WithTimeout(context.Background(), *duration)
	defer cancel()

	startTime := time.Now()
	var totalUpdates int64
	lastFrameTime := time.Now()
	lastProgress := time.Now()

Loop:
	for {
		select {
		case <-ctx.Done():
			break Loop
		default:
			deltaTime := time.Since(lastFrameTime)
			lastFrameTime = time.Now()

			updateStart := time.Now()
			if err := scheduler.Once(float64(deltaTime) / float64(time.Second)); err != nil {
				report.FailedUpdates++
				if report.FailedUpdates == 1 {
					log.Printf("Update failed: %v", err)
				}
			}
			updateDuration := time.Since(updateStart)

			report.UpdateTime.Samples = append(report.UpdateTime.Samples, updateDuration)
			totalUpdates++

			if time.Since(lastProgress) >= time.Second {
				lastProgress = time.Now()
				log.Printf("tick %d: %d entities, last update %s", totalUpdates, world.Len(), updateDuration)
			}
		}
	}

	report.TotalTime = time.Since(startTime)
	report.TotalUpdates = totalUpdates
	report.UpdateTime.Finalize()
	runtime.ReadMemStats(&report.MemStatsEnd)
	report.Collect(world, scheduler, monitor)

	log.Println("Simulation finished.")

	// 4. Generate Report to Console
	fmt.Println("\n\n--- Stress Test Report ---")
	if err := report.Generate(os.Stdout); err != nil {
		log.Fatalf("Failed to generate report: %v", err)
	}
	fmt.Println("--- End of Report ---")

	log.Println("Stress test complete.")
}

// RegisterSystems registers the simulation's systems in execution order.
func RegisterSystems(scheduler *ecs.Scheduler, rng *rand.Rand, churnEvery uint64, maxDepth int) {
	scheduler.Register(NewLifetimeSystem(rng), ecs.WithPriority(0))
	scheduler.Register(NewMovementSystem(), ecs.WithPriority(10))
	scheduler.Register(NewSpinSystem(), ecs.WithPriority(10))
	scheduler.Register(NewParticleSystem(), ecs.WithPriority(10))
	scheduler.Register(NewHealthSystem(), ecs.WithPriority(20))
	scheduler.Register(NewChurnSystem(rng, churnEvery, maxDepth), ecs.WithPriority(30))
}
