package renderer

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/citywalk/camera"
	"github.com/pthm-cable/citywalk/geom"
	"github.com/pthm-cable/citywalk/signals"
	"github.com/pthm-cable/citywalk/tiles"
)

// Zoom thresholds for optional detail.
const (
	windowMinZoom  = 10
	markingMinZoom = 3
	lampRadius     = 0.6
)

// CityRenderer draws loaded tiles.
type CityRenderer struct {
	Palette Palette
	cam     *camera.Camera
}

// NewCityRenderer creates a city renderer bound to a camera.
func NewCityRenderer(cam *camera.Camera) *CityRenderer {
	return &CityRenderer{Palette: DefaultPalette(), cam: cam}
}

// rect draws a world rectangle.
func (r *CityRenderer) rect(b geom.AABB, c rl.Color) {
	drawRect(r.cam, b, c)
}

func drawRect(cam *camera.Camera, b geom.AABB, c rl.Color) {
	x0, y0 := cam.WorldToScreen(float32(b.MinX), float32(b.MaxZ))
	x1, y1 := cam.WorldToScreen(float32(b.MaxX), float32(b.MinZ))
	rl.DrawRectangleRec(rl.Rectangle{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}, c)
}

func (r *CityRenderer) visible(b geom.AABB) bool {
	return r.cam.IsRectVisible(float32(b.MinX), float32(b.MinZ), float32(b.MaxX), float32(b.MaxZ))
}

// Draw renders every visible tile. The scheduler supplies signal lamps.
func (r *CityRenderer) Draw(ts []*tiles.Tile, sched *signals.Scheduler) {
	rl.ClearBackground(r.Palette.Ground)
	for _, t := range ts {
		if !r.visible(t.Bounds()) {
			continue
		}
		r.drawGround(t)
	}
	// Buildings after all ground so neighbouring tiles never overdraw them.
	for _, t := range ts {
		if !r.visible(t.Bounds()) {
			continue
		}
		r.drawBuildings(t)
		r.drawSignals(t, sched)
	}
}

func (r *CityRenderer) drawGround(t *tiles.Tile) {
	p := r.Palette
	for _, lot := range t.Lots {
		r.rect(lot, p.Lot)
	}
	for _, sw := range t.Sidewalks {
		r.rect(sw, p.Sidewalk)
	}
	for _, road := range t.Roads {
		r.rect(road, p.Road)
	}
	if r.cam.Zoom >= markingMinZoom {
		for _, m := range t.Markings {
			c := p.Marking
			if m.Kind == tiles.MarkingEdge {
				c = p.Edge
			}
			r.rect(m.Rect, c)
		}
	}
	for _, cw := range t.Crosswalks {
		r.rect(cw.Rect, p.Crosswalk)
		for _, s := range cw.Stripes {
			r.rect(s, p.Edge)
		}
	}
}

func (r *CityRenderer) drawBuildings(t *tiles.Tile) {
	p := r.Palette
	for _, b := range t.Buildings {
		if !r.visible(b.Footprint) {
			continue
		}
		// Taller buildings read brighter from above.
		lift := float32(0.8 + 0.4*geom.Clamp01(b.Height/40))
		if !t.HighDetail {
			r.rect(partRect(b.Low), shade(p.Building, lift))
			continue
		}
		for _, part := range b.Parts {
			switch part.Kind {
			case tiles.PartWall:
				r.rect(partRect(part), shade(p.Building, lift))
			case tiles.PartRoof:
				r.rect(partRect(part), shade(p.Roof, lift))
			case tiles.PartDoor:
				r.rect(partRect(part), p.Door)
			}
		}
		if r.cam.Zoom >= windowMinZoom {
			r.drawWindows(t.Windows[b.WindowStart : b.WindowStart+b.WindowCount])
		}
	}
}

func (r *CityRenderer) drawWindows(ws []geom.Mat4) {
	size := float32(0.4) * r.cam.Zoom
	for _, m := range ws {
		tr := m.Translation()
		sx, sy := r.cam.WorldToScreen(float32(tr.X), float32(tr.Z))
		rl.DrawRectangleV(rl.Vector2{X: sx - size/2, Y: sy - size/2}, rl.Vector2{X: size, Y: size}, r.Palette.Window)
	}
}

func (r *CityRenderer) drawSignals(t *tiles.Tile, sched *signals.Scheduler) {
	for _, post := range t.Signals {
		lamp, ok := sched.SignalLamp(post.ID)
		if !ok {
			continue
		}
		c := r.Palette.LampRed
		switch lamp {
		case signals.Green:
			c = r.Palette.LampGreen
		case signals.Yellow:
			c = r.Palette.LampYellow
		}
		sx, sy := r.cam.WorldToScreen(float32(post.Pos.X), float32(post.Pos.Z))
		rl.DrawCircleV(rl.Vector2{X: sx, Y: sy}, lampRadius*r.cam.Zoom, c)
	}
}

func partRect(p tiles.Part) geom.AABB {
	return geom.AABB{MinX: p.Min.X, MinZ: p.Min.Z, MaxX: p.Max.X, MaxZ: p.Max.Z}
}
