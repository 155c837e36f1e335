package game

import (
	"math"
	"testing"

	"github.com/pthm-cable/citywalk/config"
	"github.com/pthm-cable/citywalk/walkable"
)

func TestTourFollowsRoads(t *testing.T) {
	cfg := config.Defaults()
	l := walkable.FromConfig(cfg)
	tc := cfg.Tour
	tc.TurnChance = 0.5
	tour := NewTour(tc, cfg.World.TileSize, 7)

	for i := 0; i < 60*120; i++ {
		p := tour.Advance(testDT)
		lx, lz := l.Local(p.X, p.Z)
		if d := math.Min(math.Abs(lx), math.Abs(lz)); d > tc.Lane+1e-6 {
			t.Fatalf("step %d: tour at %v is %v from a road centre line", i, p, d)
		}
	}
}

func TestTourTurnsWithoutReversing(t *testing.T) {
	cfg := config.Defaults()
	tc := cfg.Tour
	tc.TurnChance = 1
	tour := NewTour(tc, cfg.World.TileSize, 3)

	prev := tour.Heading()
	turns := 0
	for i := 0; i < 60*60; i++ {
		tour.Advance(testDT)
		h := tour.Heading()
		if h != prev {
			if h.Dot(prev) != 0 {
				t.Fatalf("step %d: heading %v after %v is not a turn", i, h, prev)
			}
			turns++
			prev = h
		}
	}
	// 360 world units at 60 per block is six intersections.
	if turns < 5 {
		t.Errorf("only %d turns with turn chance 1", turns)
	}
}

func TestTourDeterministic(t *testing.T) {
	cfg := config.Defaults()
	a := NewTour(cfg.Tour, cfg.World.TileSize, 11)
	b := NewTour(cfg.Tour, cfg.World.TileSize, 11)
	for i := 0; i < 3000; i++ {
		if pa, pb := a.Advance(testDT), b.Advance(testDT); pa != pb {
			t.Fatalf("step %d: %v != %v", i, pa, pb)
		}
	}
}

func TestTourVehicleVelocity(t *testing.T) {
	cfg := config.Defaults()
	tc := cfg.Tour
	tc.TurnChance = 0
	tour := NewTour(tc, cfg.World.TileSize, 1)
	tour.Advance(testDT)
	v := tour.Vehicle()
	if math.Abs(v.Vel.Len()-tc.Speed) > 1e-6 {
		t.Errorf("vehicle speed %v, want %v", v.Vel.Len(), tc.Speed)
	}
	if v.Pos != tour.Position() || v.Radius <= 0 {
		t.Errorf("vehicle = %+v", v)
	}

	tour.Advance(math.NaN())
	if tour.Vehicle().Vel.Len() != 0 {
		t.Error("NaN dt should stop the vehicle")
	}
}
