package renderer

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/citywalk/camera"
	"github.com/pthm-cable/citywalk/geom"
	"github.com/pthm-cable/citywalk/population"
	"github.com/pthm-cable/citywalk/tiles"
	"github.com/pthm-cable/citywalk/walkable"
)

// DebugRenderer draws optional overlays: tier rings, Sim routes and the
// walkable zone map.
type DebugRenderer struct {
	cam *camera.Camera
}

// NewDebugRenderer creates a debug renderer bound to a camera.
func NewDebugRenderer(cam *camera.Camera) *DebugRenderer {
	return &DebugRenderer{cam: cam}
}

var tierRingColors = [...]rl.Color{
	population.TierSim:   {R: 240, G: 120, B: 90, A: 160},
	population.TierCrowd: {R: 120, G: 190, B: 240, A: 120},
	population.TierFake:  {R: 150, G: 150, B: 170, A: 90},
}

// DrawObserver marks the observer position.
func (d *DebugRenderer) DrawObserver(p geom.Vec2) {
	sx, sy := d.cam.WorldToScreen(float32(p.X), float32(p.Z))
	rl.DrawCircleLines(int32(sx), int32(sy), 6, rl.White)
	rl.DrawLine(int32(sx)-9, int32(sy), int32(sx)+9, int32(sy), rl.White)
	rl.DrawLine(int32(sx), int32(sy)-9, int32(sx), int32(sy)+9, rl.White)
}

// DrawTierRings outlines each tier radius around the observer.
func (d *DebugRenderer) DrawTierRings(obs geom.Vec2, e *population.Engine) {
	sx, sy := d.cam.WorldToScreen(float32(obs.X), float32(obs.Z))
	for _, t := range []population.Tier{population.TierSim, population.TierCrowd, population.TierFake} {
		rl.DrawCircleLines(int32(sx), int32(sy), float32(e.Radius(t))*d.cam.Zoom, tierRingColors[t])
	}
}

// DrawRoutes draws the remaining waypoints of every Sim agent.
func (d *DebugRenderer) DrawRoutes(sims []*population.SimAgent) {
	col := rl.Color{R: 240, G: 200, B: 120, A: 140}
	for _, a := range sims {
		prev := a.Position()
		for _, wp := range a.Route() {
			x0, y0 := d.cam.WorldToScreen(float32(prev.X), float32(prev.Z))
			x1, y1 := d.cam.WorldToScreen(float32(wp.X), float32(wp.Z))
			rl.DrawLineV(rl.Vector2{X: x0, Y: y0}, rl.Vector2{X: x1, Y: y1}, col)
			prev = wp
		}
	}
}

// DrawWalkable tints the legal walking rectangles of every loaded tile.
func (d *DebugRenderer) DrawWalkable(l *walkable.Layout, ts []*tiles.Tile) {
	col := rl.Color{R: 80, G: 220, B: 120, A: 50}
	for _, t := range ts {
		for _, b := range l.LegalRects(t.Coord.X, t.Coord.Z) {
			if d.cam.IsRectVisible(float32(b.MinX), float32(b.MinZ), float32(b.MaxX), float32(b.MaxZ)) {
				drawRect(d.cam, b, col)
			}
		}
	}
}

// DrawObstacles outlines building footprints used for collision.
func (d *DebugRenderer) DrawObstacles(ts []*tiles.Tile) {
	col := rl.Color{R: 230, G: 80, B: 80, A: 180}
	for _, t := range ts {
		for _, b := range t.Buildings {
			f := b.Footprint
			x0, y0 := d.cam.WorldToScreen(float32(f.MinX), float32(f.MaxZ))
			x1, y1 := d.cam.WorldToScreen(float32(f.MaxX), float32(f.MinZ))
			rl.DrawRectangleLinesEx(rl.Rectangle{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}, 1, col)
		}
	}
}
