package main

import (
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/citywalk/camera"
	"github.com/pthm-cable/citywalk/config"
	"github.com/pthm-cable/citywalk/game"
	"github.com/pthm-cable/citywalk/geom"
	"github.com/pthm-cable/citywalk/population"
	"github.com/pthm-cable/citywalk/renderer"
	"github.com/pthm-cable/citywalk/ui"
)

const (
	walkSpeed      = 1.6 // m/s
	runSpeed       = 8.0 // m/s with shift held
	observerRadius = 0.35
	controlsHelp   = "Arrows: move  Shift: run  Wheel: zoom  Space: pause  Tab: panels  R/T/W/O/V: debug  F/H/Q: panels"
)

// view owns everything drawn in window mode.
type view struct {
	g   *game.Game
	cam *camera.Camera

	city   *renderer.CityRenderer
	people *renderer.PeopleRenderer
	debug  *renderer.DebugRenderer

	hud      *ui.HUD
	overlays *ui.OverlayRegistry
	toggles  *ui.OverlayPanel
	perf     *ui.PerfPanel
	handoff  *ui.HandoffPanel
	quality  *ui.QualityPanel

	observer geom.Vec2
}

func newView(g *game.Game, cfg *config.Config) *view {
	w, h := float32(cfg.Screen.Width), float32(cfg.Screen.Height)
	cam := camera.New(w, h)

	// Start on the sidewalk beside the origin intersection.
	side := cfg.Streets.RoadHalfWidth + cfg.Streets.SidewalkWidth/2
	obs := geom.Vec2{X: side, Z: cfg.Derived.CrosswalkOffset + cfg.Streets.CrosswalkWidth}
	if t := g.Tour(); t != nil {
		obs = t.Position()
	}
	cam.X, cam.Z = float32(obs.X), float32(obs.Z)

	return &view{
		g:        g,
		cam:      cam,
		city:     renderer.NewCityRenderer(cam),
		people:   renderer.NewPeopleRenderer(cam),
		debug:    renderer.NewDebugRenderer(cam),
		hud:      ui.NewHUD(),
		overlays: ui.NewOverlayRegistry(),
		toggles:  ui.NewOverlayPanel(10, 125, 220),
		perf:     ui.NewPerfPanel(int32(w)-250, 10),
		handoff:  ui.NewHandoffPanel(int32(w)-270, 140, 260),
		quality:  ui.NewQualityPanel(10, 125, 260),
		observer: obs,
	}
}

func runWindow(g *game.Game, cfg *config.Config) {
	rl.SetConfigFlags(rl.FlagWindowResizable)
	rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), "Citywalk")
	defer rl.CloseWindow()
	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))

	v := newView(g, cfg)
	for !rl.WindowShouldClose() {
		dt := float64(rl.GetFrameTime())
		v.handleInput(dt)
		v.step(dt)
		v.draw()
		g.Perf().RecordPresent()
	}
}

func (v *view) handleInput(dt float64) {
	if rl.IsWindowResized() {
		v.cam.Resize(float32(rl.GetScreenWidth()), float32(rl.GetScreenHeight()))
		v.perf.SetPosition(int32(rl.GetScreenWidth())-250, 10)
		v.handoff.SetPosition(int32(rl.GetScreenWidth())-270, 140)
	}
	if wheel := rl.GetMouseWheelMove(); wheel != 0 {
		v.cam.ZoomBy(float32(math.Pow(1.1, float64(wheel))))
	}
	if rl.IsKeyPressed(rl.KeySpace) {
		v.g.SetPaused(!v.g.Paused())
	}
	if rl.IsKeyPressed(rl.KeyTab) {
		v.toggles.Toggle()
	}
	for key := rl.GetKeyPressed(); key != 0; key = rl.GetKeyPressed() {
		v.overlays.HandleKeyPress(key)
	}
	if v.overlays.IsEnabled(ui.OverlayQuality) {
		v.toggles.Hide()
	}

	if v.g.Tour() != nil || v.g.Paused() {
		return
	}
	var move geom.Vec2
	if rl.IsKeyDown(rl.KeyUp) {
		move.Z++
	}
	if rl.IsKeyDown(rl.KeyDown) {
		move.Z--
	}
	if rl.IsKeyDown(rl.KeyRight) {
		move.X++
	}
	if rl.IsKeyDown(rl.KeyLeft) {
		move.X--
	}
	if move.LenSq() == 0 {
		return
	}
	speed := walkSpeed
	if rl.IsKeyDown(rl.KeyLeftShift) || rl.IsKeyDown(rl.KeyRightShift) {
		speed = runSpeed
	}
	next := v.observer.Add(move.Normalize().Scale(speed * math.Min(dt, v.g.Config().World.MaxDT)))
	v.observer = v.g.Streamer().ResolveCircle(next, observerRadius)
}

func (v *view) step(dt float64) {
	if t := v.g.Tour(); t != nil {
		v.g.StepTour(dt)
		v.observer = t.Position()
	} else {
		v.g.Step(game.FrameInput{Observer: v.observer, DT: dt})
	}
	v.cam.Follow(float32(v.observer.X), float32(v.observer.Z), float32(dt))
}

func (v *view) draw() {
	g := v.g
	f := g.Frame()

	rl.BeginDrawing()
	rl.ClearBackground(rl.Color{R: 24, G: 26, B: 30, A: 255})

	v.city.Draw(f.Tiles, g.Signals())
	if v.overlays.IsEnabled(ui.OverlayWalkable) {
		v.debug.DrawWalkable(g.Layout(), f.Tiles)
	}
	if v.overlays.IsEnabled(ui.OverlayObstacles) {
		v.debug.DrawObstacles(f.Tiles)
	}
	v.people.Draw(f.Sim, f.Crowd, f.Fake)
	if v.overlays.IsEnabled(ui.OverlayRoutes) {
		v.debug.DrawRoutes(g.Population().Sims())
	}
	if v.overlays.IsEnabled(ui.OverlayTierRings) {
		v.debug.DrawTierRings(f.Observer, g.Population())
	}
	if v.overlays.IsEnabled(ui.OverlayObserver) || g.Tour() != nil {
		v.debug.DrawObserver(f.Observer)
	}

	v.hud.Draw(ui.HUDData{
		Title:      "Citywalk",
		Census:     f.Census,
		Tiles:      len(f.Tiles),
		Buildings:  g.Streamer().BuildingCount(),
		Phase:      f.Phase,
		SimTime:    f.SimTime,
		FPS:        rl.GetFPS(),
		Paused:     g.Paused(),
		Touring:    g.Tour() != nil,
		Governor:   g.Governor().Enabled(),
		LoadRadius: g.LoadRadius(),
	})
	v.toggles.Draw(v.overlays)
	if v.overlays.IsEnabled(ui.OverlayQuality) {
		g.Governor().SetEnabled(v.quality.Draw(g, g.Governor().Enabled()))
	}
	if v.overlays.IsEnabled(ui.OverlayPerf) {
		v.perf.Draw(g.Perf().Stats())
	}
	if v.overlays.IsEnabled(ui.OverlayHandoff) {
		pop := g.Population()
		v.handoff.Draw(ui.HandoffData{
			Last:          pop.LastHandoff(),
			Counters:      pop.Counters(),
			ObserverSpeed: pop.ObserverSpeed(),
			PairsInFlight: len(pop.PairOpacities()),
			SimCap:        g.ActiveCap(population.TierSim),
			SimCapacity:   g.Capacity(population.TierSim),
			CrowdCap:      g.ActiveCap(population.TierCrowd),
			CrowdCapacity: g.Capacity(population.TierCrowd),
			FakeCap:       g.ActiveCap(population.TierFake),
			FakeCapacity:  g.Capacity(population.TierFake),
		})
	}
	v.hud.DrawControls(int32(rl.GetScreenHeight()), controlsHelp)

	rl.EndDrawing()
}
