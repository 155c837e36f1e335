package main

import (
	"math"
	"testing"

	"github.com/pthm-cable/citywalk/config"
	"github.com/pthm-cable/citywalk/telemetry"
)

func TestComputeCost_TooFewWindows(t *testing.T) {
	r := computeCost(make([]telemetry.WindowStats, warmupWindows), 10)
	if r.Cost != worstCost {
		t.Errorf("cost = %v, want %v", r.Cost, worstCost)
	}
	r = computeCost(make([]telemetry.WindowStats, 10), 0)
	if r.Cost != worstCost {
		t.Errorf("zero capacity cost = %v, want %v", r.Cost, worstCost)
	}
}

func TestComputeCost_Terms(t *testing.T) {
	windows := []telemetry.WindowStats{
		{Sim: 0}, {Sim: 0}, // warmup, ignored
		{Sim: 10, SimFadingIn: 1, Promotions: 4, Forced: 1, Misses: 0, FrameMSP95: 4},
		{Sim: 5, SimFadingIn: 2, Promotions: 4, Forced: 1, Misses: 2, FrameMSP95: 16},
	}
	r := computeCost(windows, 10)

	if r.ForcedShare != 0.25 {
		t.Errorf("ForcedShare = %v, want 0.25", r.ForcedShare)
	}
	if r.MissShare != 0.2 {
		t.Errorf("MissShare = %v, want 0.2", r.MissShare)
	}
	if math.Abs(r.SimChurn-0.25) > 1e-12 {
		t.Errorf("SimChurn = %v, want 0.25", r.SimChurn)
	}
	if r.FramePenalty != 0.5 {
		t.Errorf("FramePenalty = %v, want 0.5", r.FramePenalty)
	}
	want := weightForced*0.25 + weightMiss*0.2 + weightChurn*0.25 + weightFrame*0.5
	if math.Abs(r.Cost-want) > 1e-12 {
		t.Errorf("Cost = %v, want %v", r.Cost, want)
	}
}

func TestParamVector_RoundTrip(t *testing.T) {
	pv := NewParamVector()
	cfg := config.Defaults()

	x := pv.ExtractFromConfig(cfg)
	if len(x) != pv.Dim() {
		t.Fatalf("extracted %d values, want %d", len(x), pv.Dim())
	}
	back := pv.Denormalize(pv.Normalize(x))
	for i := range x {
		if math.Abs(back[i]-x[i]) > 1e-9 {
			t.Errorf("%s: %v -> %v", pv.Specs[i].Name, x[i], back[i])
		}
	}

	c := *cfg
	pv.ApplyToConfig(&c, x)
	if math.Abs(c.Handoff.FadeOut-cfg.Handoff.FadeOut) > 1e-9 {
		t.Errorf("FadeOut = %v, want %v", c.Handoff.FadeOut, cfg.Handoff.FadeOut)
	}
	c.Handoff.FadeOut = cfg.Handoff.FadeOut
	if c.Handoff != cfg.Handoff {
		t.Errorf("applying extracted values changed handoff: %+v vs %+v", c.Handoff, cfg.Handoff)
	}
}

func TestParamVector_ApplyKeepsConfigValid(t *testing.T) {
	pv := NewParamVector()
	for _, corner := range []float64{-1, 0, 1, 2} {
		x := make([]float64, pv.Dim())
		for i := range x {
			x[i] = corner
		}
		c := *config.Defaults()
		pv.ApplyToConfig(&c, pv.Denormalize(x))
		if err := c.Validate(); err != nil {
			t.Errorf("corner %v: %v", corner, err)
		}
	}
}
