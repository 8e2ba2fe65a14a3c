package ecs_test

import (
	"fmt"

	"github.com/plus3/scenecore/ecs"
)

type GameConfig struct {
	MaxPlayers int
	Difficulty string
}

type GameScore struct {
	Points int
	Level  int
}

// ExampleNewSingleton creates a value owned by the world rather than by any
// entity, such as configuration or application-wide state.
func ExampleNewSingleton() {
	w := ecs.NewWorld()

	config := ecs.NewSingleton(w, GameConfig{
		MaxPlayers: 4,
		Difficulty: "Normal",
	})
	fmt.Printf("Config: %d players, %s difficulty\n", config.Get().MaxPlayers, config.Get().Difficulty)

	config.Get().Difficulty = "Hard"

	// A second accessor sees the same value; the initializer is ignored.
	sameConfig := ecs.NewSingleton(w, GameConfig{Difficulty: "Easy"})
	fmt.Printf("Same config: %s difficulty\n", sameConfig.Get().Difficulty)

	// Output:
	// Config: 4 players, Normal difficulty
	// Same config: Hard difficulty
}

// ExampleGetSingleton reads a singleton outside of a system.
func ExampleGetSingleton() {
	w := ecs.NewWorld()
	ecs.AddSingleton(w, GameScore{Points: 100, Level: 2})

	if score, ok := ecs.GetSingleton[GameScore](w); ok {
		fmt.Printf("Score: %d points, level %d\n", score.Points, score.Level)
	}

	ecs.RemoveSingleton[GameScore](w)
	_, ok := ecs.GetSingleton[GameScore](w)
	fmt.Println("after remove:", ok)

	// Output:
	// Score: 100 points, level 2
	// after remove: false
}
