package game

import (
	"github.com/pthm-cable/citywalk/config"
	"github.com/pthm-cable/citywalk/geom"
	"github.com/pthm-cable/citywalk/population"
	"github.com/pthm-cable/citywalk/prng"
)

// tourVehicleRadius is the collision radius of the touring observer.
const tourVehicleRadius = 1.2

var tourDirs = [4]geom.Vec2{{X: 0, Z: 1}, {X: 1, Z: 0}, {X: 0, Z: -1}, {X: -1, Z: 0}}

// Tour drives a scripted observer along road centre lines, turning at
// intersections. Headless runs use it to stream tiles and trigger handoffs
// without input handling.
type Tour struct {
	cfg      config.TourConfig
	tileSize float64
	rng      *prng.Rand

	nodeX, nodeZ int // Last intersection passed
	dir          int // Index into tourDirs
	progress     float64

	pos geom.Vec2
	vel geom.Vec2
}

// NewTour creates a tour starting at the origin intersection heading +z.
func NewTour(cfg config.TourConfig, tileSize float64, seed int64) *Tour {
	t := &Tour{
		cfg:      cfg,
		tileSize: tileSize,
		rng:      prng.New(uint64(seed) ^ 0x7041),
	}
	t.pos = t.position()
	return t
}

func (t *Tour) position() geom.Vec2 {
	d := tourDirs[t.dir]
	node := geom.Vec2{X: float64(t.nodeX) * t.tileSize, Z: float64(t.nodeZ) * t.tileSize}
	return node.Add(d.Scale(t.progress)).Add(d.Perp().Scale(t.cfg.Lane))
}

// Advance moves the observer by dt seconds and returns its new position.
func (t *Tour) Advance(dt float64) geom.Vec2 {
	if !(dt > 0) || !geom.IsFinite(dt) || t.tileSize <= 0 {
		t.vel = geom.Vec2{}
		return t.pos
	}
	prev := t.pos
	t.progress += t.cfg.Speed * dt
	for t.progress >= t.tileSize {
		t.progress -= t.tileSize
		d := tourDirs[t.dir]
		t.nodeX += int(d.X)
		t.nodeZ += int(d.Z)
		if t.rng.Chance(t.cfg.TurnChance) {
			// Left or right, never back.
			if t.rng.Chance(0.5) {
				t.dir = (t.dir + 1) % len(tourDirs)
			} else {
				t.dir = (t.dir + 3) % len(tourDirs)
			}
		}
	}
	t.pos = t.position()
	t.vel = t.pos.Sub(prev).Scale(1 / dt)
	return t.pos
}

// Position returns the current observer position.
func (t *Tour) Position() geom.Vec2 { return t.pos }

// Heading returns the unit travel direction.
func (t *Tour) Heading() geom.Vec2 { return tourDirs[t.dir] }

// Vehicle returns the observer as a moving obstacle for pedestrians.
func (t *Tour) Vehicle() *population.Vehicle {
	return &population.Vehicle{Pos: t.pos, Vel: t.vel, Radius: tourVehicleRadius}
}
