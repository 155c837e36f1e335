// Package game ties the tile streamer, signal scheduler and population
// engine into one frame loop and feeds telemetry from it.
package game

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/pthm-cable/citywalk/config"
	"github.com/pthm-cable/citywalk/geom"
	"github.com/pthm-cable/citywalk/population"
	"github.com/pthm-cable/citywalk/signals"
	"github.com/pthm-cable/citywalk/telemetry"
	"github.com/pthm-cable/citywalk/tiles"
	"github.com/pthm-cable/citywalk/walkable"
)

// FrameInput is what the host supplies each frame.
type FrameInput struct {
	Observer geom.Vec2
	DT       float64
	Vehicle  *population.Vehicle    // Optional moving obstacle
	Resolve  population.ResolveFunc // Optional, overrides building collision
}

// Frame is the render state produced by one Step. Slices are reused between
// frames and are valid until the next Step.
type Frame struct {
	Number   uint64
	SimTime  float64
	Observer geom.Vec2
	Phase    signals.Phase

	Sim    []population.SimInstance
	Crowd  []population.BatchInstance
	Fake   []population.BatchInstance
	Census population.Census

	Tiles    []*tiles.Tile
	Streamed tiles.UpdateResult
}

// Game holds the complete city state.
type Game struct {
	cfg      *config.Config
	layout   *walkable.Layout
	sched    *signals.Scheduler
	streamer *tiles.Streamer
	pop      *population.Engine
	tour     *Tour
	governor *Governor

	// Telemetry
	collector        *telemetry.Collector
	perfCollector    *telemetry.PerfCollector
	bookmarkDetector *telemetry.BookmarkDetector
	outputManager    *telemetry.OutputManager
	statsCallback    func(telemetry.WindowStats)
	logStats         bool
	prevCounters     population.Counters
	tilesLoaded      uint64
	lastAdjustment   *Adjustment

	frame    Frame
	frameNum uint64
	simTime  float64
	observer geom.Vec2
	paused   bool
	headless bool // Skip render instances nobody draws
}

// New creates a game from a loaded config. The config is copied.
func New(cfg *config.Config, opts Options) (*Game, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	c := *cfg
	if opts.Seed != 0 {
		c.World.Seed = opts.Seed
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	c.ComputeDerived()

	g := &Game{
		cfg:           &c,
		layout:        walkable.FromConfig(&c),
		sched:         signals.FromConfig(&c),
		governor:      NewGovernor(c.Quality, c.World.LoadRadius),
		statsCallback: opts.StatsCallback,
		logStats:      opts.LogStats,
		headless:      opts.Headless,
	}

	var err error
	g.streamer, err = tiles.NewStreamer(&c, tiles.GeneratorFromConfig(&c, g.layout), g.sched)
	if err != nil {
		return nil, fmt.Errorf("creating streamer: %w", err)
	}
	g.pop, err = population.New(&c, g.layout, g.sched, g.streamer)
	if err != nil {
		return nil, fmt.Errorf("creating population: %w", err)
	}
	if opts.Tour {
		g.tour = NewTour(c.Tour, c.World.TileSize, c.World.Seed)
		g.observer = g.tour.Position()
	}

	window := c.Telemetry.StatsWindow
	if opts.StatsWindowSec > 0 {
		window = opts.StatsWindowSec
	}
	g.collector = telemetry.NewCollector(window)
	g.perfCollector = telemetry.NewPerfCollector(c.Telemetry.PerfCollectorWindow)
	g.bookmarkDetector = telemetry.NewBookmarkDetector(10)
	g.pop.SetPhaseTimer(g.perfCollector)

	if opts.OutputDir != "" {
		dir, runID := telemetry.RunDir(opts.OutputDir)
		g.outputManager, err = telemetry.NewOutputManager(dir, runID)
		if err != nil {
			return nil, fmt.Errorf("creating output manager: %w", err)
		}
		if err := g.outputManager.WriteConfig(&c); err != nil {
			g.outputManager.Close()
			return nil, fmt.Errorf("writing config snapshot: %w", err)
		}
		slog.Info("telemetry output enabled", "dir", dir, "run_id", runID)
	}
	return g, nil
}

// Step runs one frame: streamer, signals, population, then render state.
// A non-finite or non-positive dt leaves the world untouched; a non-finite
// observer keeps the previous position.
func (g *Game) Step(in FrameInput) *Frame {
	dt := in.DT
	if !geom.IsFinite(dt) || dt <= 0 || g.paused {
		return &g.frame
	}
	dt = math.Min(dt, g.cfg.World.MaxDT)
	if in.Observer.IsFinite() {
		g.observer = in.Observer
	}

	g.perfCollector.StartFrame()

	g.perfCollector.StartPhase(telemetry.PhaseStreaming)
	streamed := g.streamer.Update(g.observer)

	g.perfCollector.StartPhase(telemetry.PhaseSignals)
	g.sched.Advance(dt)

	g.perfCollector.StartPhase(telemetry.PhasePopulation)
	g.pop.Update(population.Input{
		Observer: g.observer,
		DT:       dt,
		Vehicle:  in.Vehicle,
		Resolve:  in.Resolve,
	})

	g.perfCollector.StartPhase(telemetry.PhaseRenderState)
	g.simTime += dt
	g.frameNum++
	g.buildFrame(streamed)

	g.perfCollector.StartPhase(telemetry.PhaseTelemetry)
	g.recordEvents(streamed)

	g.collector.RecordFrame(g.perfCollector.EndFrame())
	g.flushTelemetry()
	g.adjustQuality()
	return &g.frame
}

// StepTour advances the scripted observer and runs one frame with it.
// Without a tour it behaves like Step at the current observer.
func (g *Game) StepTour(dt float64) *Frame {
	in := FrameInput{Observer: g.observer, DT: dt}
	if g.tour != nil && !g.paused {
		in.Observer = g.tour.Advance(math.Min(dt, g.cfg.World.MaxDT))
		in.Vehicle = g.tour.Vehicle()
	}
	return g.Step(in)
}

func (g *Game) buildFrame(streamed tiles.UpdateResult) {
	f := &g.frame
	f.Number = g.frameNum
	f.SimTime = g.simTime
	f.Observer = g.observer
	f.Phase = g.sched.Phase()
	if !g.headless {
		f.Sim = g.pop.SimInstances(f.Sim[:0])
		f.Crowd = g.pop.CrowdInstances(f.Crowd[:0])
		f.Fake = g.pop.FakeInstances(f.Fake[:0])
	}
	f.Census = g.pop.Census()
	f.Tiles = g.streamer.Tiles()
	f.Streamed = streamed
}

func (g *Game) adjustQuality() {
	if !g.governor.Enabled() || g.perfCollector.Samples() == 0 {
		return
	}
	adj, ok := g.governor.Update(g.simTime, g.perfCollector.AvgFrame(), g)
	if !ok {
		return
	}
	g.lastAdjustment = &adj
	// Old samples describe the previous quality level.
	g.perfCollector.Reset()
}

// Tour returns the scripted observer, or nil when the run is interactive.
func (g *Game) Tour() *Tour { return g.tour }

// Frame returns the last produced frame.
func (g *Game) Frame() *Frame { return &g.frame }

// Config returns the game's config copy.
func (g *Game) Config() *config.Config { return g.cfg }

// Layout returns the walkable layout.
func (g *Game) Layout() *walkable.Layout { return g.layout }

// Streamer returns the tile streamer, which is also the obstacle surface.
func (g *Game) Streamer() *tiles.Streamer { return g.streamer }

// Signals returns the signal scheduler.
func (g *Game) Signals() *signals.Scheduler { return g.sched }

// Population returns the population engine.
func (g *Game) Population() *population.Engine { return g.pop }

// Governor returns the quality governor.
func (g *Game) Governor() *Governor { return g.governor }

// LastAdjustment returns the most recent governor decision, if any.
func (g *Game) LastAdjustment() *Adjustment { return g.lastAdjustment }

// Perf returns the frame phase timer.
func (g *Game) Perf() *telemetry.PerfCollector { return g.perfCollector }

// Observer returns the current observer position.
func (g *Game) Observer() geom.Vec2 { return g.observer }

// SimTime returns simulated seconds since start.
func (g *Game) SimTime() float64 { return g.simTime }

// FrameNumber returns the number of frames stepped.
func (g *Game) FrameNumber() uint64 { return g.frameNum }

// Paused reports whether Step is suspended.
func (g *Game) Paused() bool { return g.paused }

// SetPaused suspends or resumes Step.
func (g *Game) SetPaused(p bool) { g.paused = p }

// LoadRadius returns the streaming radius in tiles.
func (g *Game) LoadRadius() int { return g.streamer.LoadRadius() }

// MaxLoadRadius returns the configured streaming radius bound.
func (g *Game) MaxLoadRadius() int { return g.streamer.MaxLoadRadius() }

// SetLoadRadius changes the streaming radius; it applies on the next Step.
func (g *Game) SetLoadRadius(r int) { g.streamer.SetLoadRadius(r) }

// ActiveCap returns the live slot limit of a tier.
func (g *Game) ActiveCap(t population.Tier) int { return g.pop.ActiveCap(t) }

// Capacity returns the pool size of a tier.
func (g *Game) Capacity(t population.Tier) int { return g.pop.Capacity(t) }

// SetActiveCap changes the live slot limit of a tier.
func (g *Game) SetActiveCap(t population.Tier, n int) { g.pop.SetActiveCap(t, n) }

// SetLODDistance changes the building detail switch distance.
func (g *Game) SetLODDistance(d float64) { g.streamer.SetLODDistance(d) }

// LODDistance returns the building detail switch distance.
func (g *Game) LODDistance() float64 { return g.streamer.LODDistance() }

// WindowDensity returns the window density used for new tiles.
func (g *Game) WindowDensity() float64 { return g.streamer.Generator().WindowDensity() }

// TileSize returns the current street grid spacing.
func (g *Game) TileSize() float64 { return g.cfg.World.TileSize }

// SetWindowDensity changes window density for tiles generated from now on.
func (g *Game) SetWindowDensity(d float64) { g.streamer.Generator().SetWindowDensity(d) }

// SetTileSize switches the street grid. Every tile is evicted and regenerated
// on the next Step and agents are projected onto the new layout.
func (g *Game) SetTileSize(size float64) error {
	c := *g.cfg
	c.World.TileSize = size
	if err := c.Validate(); err != nil {
		return fmt.Errorf("tile size %v: %w", size, err)
	}
	c.ComputeDerived()
	wd := g.streamer.Generator().WindowDensity()
	*g.cfg = c
	g.layout = walkable.FromConfig(g.cfg)
	gen := tiles.GeneratorFromConfig(g.cfg, g.layout)
	gen.SetWindowDensity(wd)
	g.streamer.Reload(gen)
	g.pop.SetLayout(g.layout)
	if g.tour != nil {
		g.tour = NewTour(g.cfg.Tour, size, g.cfg.World.Seed)
	}
	return nil
}

// Close flushes and closes telemetry output.
func (g *Game) Close() error {
	if g.outputManager == nil {
		return nil
	}
	return g.outputManager.Close()
}
