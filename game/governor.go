package game

import (
	"log/slog"
	"time"

	"github.com/pthm-cable/citywalk/config"
	"github.com/pthm-cable/citywalk/population"
)

// Knob names a quality setting the governor can move.
type Knob string

const (
	KnobLoadRadius Knob = "load_radius"
	KnobCrowdCap   Knob = "crowd_cap"
	KnobFakeCap    Knob = "fake_cap"
)

// Tunable is the runtime quality surface the governor adjusts.
type Tunable interface {
	LoadRadius() int
	MaxLoadRadius() int
	SetLoadRadius(r int)
	ActiveCap(t population.Tier) int
	Capacity(t population.Tier) int
	SetActiveCap(t population.Tier, n int)
}

// Adjustment records one governor decision.
type Adjustment struct {
	Knob     Knob
	From, To int
	FrameMS  float64
}

// Governor trades streaming radius and population caps for frame time.
// It degrades the far tiers first and restores in reverse order.
// Restoring never streams past the load radius it was created with.
type Governor struct {
	cfg       config.QualityConfig
	maxRadius int
	next      float64
}

// NewGovernor creates a governor from the quality config and the configured
// load radius.
func NewGovernor(cfg config.QualityConfig, loadRadius int) *Governor {
	return &Governor{cfg: cfg, maxRadius: loadRadius}
}

// Enabled reports whether the governor makes adjustments.
func (g *Governor) Enabled() bool { return g.cfg.Enabled }

// SetEnabled turns the governor on or off.
func (g *Governor) SetEnabled(on bool) { g.cfg.Enabled = on }

// Update considers one adjustment when the interval has elapsed.
// avg is the mean frame time over the caller's perf window.
func (g *Governor) Update(now float64, avg time.Duration, t Tunable) (Adjustment, bool) {
	if !g.cfg.Enabled || avg <= 0 || now < g.next {
		return Adjustment{}, false
	}
	g.next = now + g.cfg.AdjustInterval

	ms := float64(avg) / float64(time.Millisecond)
	var adj Adjustment
	var ok bool
	switch {
	case ms > g.cfg.TargetFrameMS:
		adj, ok = g.degrade(t)
	case ms < g.cfg.TargetFrameMS*g.cfg.Headroom:
		adj, ok = g.restore(t)
	}
	if ok {
		adj.FrameMS = ms
		slog.Info("quality adjusted", "knob", string(adj.Knob), "from", adj.From, "to", adj.To, "frame_ms", ms)
	}
	return adj, ok
}

func (g *Governor) degrade(t Tunable) (Adjustment, bool) {
	step := max(g.cfg.CapStep, 1)
	if n := t.ActiveCap(population.TierFake); n > g.cfg.MinFakeCap {
		to := max(n-step, g.cfg.MinFakeCap)
		t.SetActiveCap(population.TierFake, to)
		return Adjustment{Knob: KnobFakeCap, From: n, To: to}, true
	}
	if n := t.ActiveCap(population.TierCrowd); n > g.cfg.MinCrowdCap {
		to := max(n-step, g.cfg.MinCrowdCap)
		t.SetActiveCap(population.TierCrowd, to)
		return Adjustment{Knob: KnobCrowdCap, From: n, To: to}, true
	}
	if r := t.LoadRadius(); r > g.cfg.MinLoadRadius {
		t.SetLoadRadius(r - 1)
		return Adjustment{Knob: KnobLoadRadius, From: r, To: r - 1}, true
	}
	return Adjustment{}, false
}

func (g *Governor) restore(t Tunable) (Adjustment, bool) {
	step := max(g.cfg.CapStep, 1)
	if r := t.LoadRadius(); r < min(g.maxRadius, t.MaxLoadRadius()) {
		t.SetLoadRadius(r + 1)
		return Adjustment{Knob: KnobLoadRadius, From: r, To: r + 1}, true
	}
	if n, c := t.ActiveCap(population.TierCrowd), t.Capacity(population.TierCrowd); n < c {
		to := min(n+step, c)
		t.SetActiveCap(population.TierCrowd, to)
		return Adjustment{Knob: KnobCrowdCap, From: n, To: to}, true
	}
	if n, c := t.ActiveCap(population.TierFake), t.Capacity(population.TierFake); n < c {
		to := min(n+step, c)
		t.SetActiveCap(population.TierFake, to)
		return Adjustment{Knob: KnobFakeCap, From: n, To: to}, true
	}
	return Adjustment{}, false
}
