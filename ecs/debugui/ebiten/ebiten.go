// Package ebiten provides Dear ImGui backend integration for the Ebiten game engine.
package ebiten

import (
	ebitenbackend "github.com/AllenDang/cimgui-go/backend/ebiten-backend"
	engine "github.com/hajimehoshi/ebiten/v2"
	"github.com/plus3/scenecore/ecs"
	"github.com/plus3/scenecore/ecs/debugui"
)

// ImguiBackend wraps the Ebiten-specific Dear ImGui backend implementation.
// It is stored in the world as a singleton.
type ImguiBackend struct {
	*ebitenbackend.EbitenBackend
}

// Game implements ebiten.Game. Each Update runs one scheduler tick between
// the ImGui frame boundaries; Draw renders the scene and then the ImGui
// overlay.
type Game struct {
	World     *ecs.World
	Scheduler *ecs.Scheduler

	// DrawScene, when set, draws game content beneath the overlay.
	DrawScene func(screen *engine.Image)

	backend ecs.Singleton[ImguiBackend]
	timer   *debugui.FrameTimer
}

// NewGame stores backend as the world's ImguiBackend singleton and returns a
// Game driving scheduler.
func NewGame(w *ecs.World, scheduler *ecs.Scheduler, backend *ebitenbackend.EbitenBackend) *Game {
	ecs.AddSingleton(w, ImguiBackend{EbitenBackend: backend})
	g := &Game{
		World:     w,
		Scheduler: scheduler,
		timer:     debugui.NewFrameTimer(),
	}
	g.backend.Init(w)
	return g
}

func (g *Game) Update() error {
	backend := g.backend.Get()
	if backend == nil {
		return g.Scheduler.Once(float64(g.timer.GetDeltaTime()))
	}

	backend.BeginFrame()
	err := g.Scheduler.Once(float64(g.timer.GetDeltaTime()))
	backend.EndFrame()

	if err != nil {
		g.World.Logger().Error("frame failed", "error", err)
	}
	return nil
}

func (g *Game) Draw(screen *engine.Image) {
	if g.DrawScene != nil {
		g.DrawScene(screen)
	}
	if backend := g.backend.Get(); backend != nil {
		backend.Draw(screen)
	}
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	if backend := g.backend.Get(); backend != nil {
		backend.Layout(outsideWidth, outsideHeight)
	}
	return outsideWidth, outsideHeight
}
