package renderer

import (
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/citywalk/camera"
	"github.com/pthm-cable/citywalk/population"
)

const (
	simRadius   = 0.35
	crowdRadius = 0.3
	fakeSize    = 2 // Pixels
)

// PeopleRenderer draws the three pedestrian tiers.
type PeopleRenderer struct {
	Palette Palette
	cam     *camera.Camera
}

// NewPeopleRenderer creates a pedestrian renderer bound to a camera.
func NewPeopleRenderer(cam *camera.Camera) *PeopleRenderer {
	return &PeopleRenderer{Palette: DefaultPalette(), cam: cam}
}

// Draw renders far tiers first so Sim agents stay on top.
func (r *PeopleRenderer) Draw(sim []population.SimInstance, crowd, fake []population.BatchInstance) {
	r.drawFake(fake)
	r.drawCrowd(crowd)
	r.drawSim(sim)
}

func (r *PeopleRenderer) drawFake(fake []population.BatchInstance) {
	for _, f := range fake {
		if f.Opacity <= 0 || !r.cam.IsVisible(float32(f.Pos.X), float32(f.Pos.Z), 1) {
			continue
		}
		sx, sy := r.cam.WorldToScreen(float32(f.Pos.X), float32(f.Pos.Z))
		rl.DrawRectangleV(rl.Vector2{X: sx - fakeSize/2, Y: sy - fakeSize/2}, rl.Vector2{X: fakeSize, Y: fakeSize}, fade(r.Palette.Fake, f.Opacity))
	}
}

func (r *PeopleRenderer) drawCrowd(crowd []population.BatchInstance) {
	rad := crowdRadius * r.cam.Zoom
	for _, c := range crowd {
		if c.Opacity <= 0 || !r.cam.IsVisible(float32(c.Pos.X), float32(c.Pos.Z), 1) {
			continue
		}
		sx, sy := r.cam.WorldToScreen(float32(c.Pos.X), float32(c.Pos.Z))
		// Bob with the walk cycle.
		bob := 1 + 0.1*float32(math.Sin(c.Phase))
		rl.DrawCircleV(rl.Vector2{X: sx, Y: sy}, rad*bob, fade(r.Palette.Crowd, c.Opacity))
	}
}

func (r *PeopleRenderer) drawSim(sim []population.SimInstance) {
	rad := simRadius * r.cam.Zoom
	for _, s := range sim {
		if s.Opacity <= 0 || !r.cam.IsVisible(float32(s.Pos.X), float32(s.Pos.Z), 1) {
			continue
		}
		col := r.Palette.Sim
		switch s.State {
		case population.Wait:
			col = r.Palette.LampRed
		case population.Idle:
			col = shade(col, 0.7)
		}
		col = fade(col, s.Opacity)
		sx, sy := r.cam.WorldToScreen(float32(s.Pos.X), float32(s.Pos.Z))
		centre := rl.Vector2{X: sx, Y: sy}
		rl.DrawCircleV(centre, rad, col)

		// Heading tick plus head yaw, +z is screen up.
		yaw := s.Yaw + s.Pose.HeadYaw
		tip := rl.Vector2{
			X: sx + float32(math.Sin(yaw))*rad*1.8,
			Y: sy - float32(math.Cos(yaw))*rad*1.8,
		}
		rl.DrawLineEx(centre, tip, 1.5, fade(rl.White, s.Opacity))

		// Legs as short strokes to show the walk pose at high zoom.
		if r.cam.Zoom >= windowMinZoom {
			r.drawLegs(centre, s, rad, col)
		}
	}
}

func (r *PeopleRenderer) drawLegs(centre rl.Vector2, s population.SimInstance, rad float32, col rl.Color) {
	for _, leg := range []struct{ side, swing float64 }{{-1, s.Pose.LegL}, {1, s.Pose.LegR}} {
		a := s.Yaw + leg.swing
		px := float32(math.Cos(s.Yaw)) * rad * 0.5 * float32(leg.side)
		py := float32(math.Sin(s.Yaw)) * rad * 0.5 * float32(leg.side)
		root := rl.Vector2{X: centre.X + px, Y: centre.Y + py}
		foot := rl.Vector2{
			X: root.X + float32(math.Sin(a))*rad,
			Y: root.Y - float32(math.Cos(a))*rad,
		}
		rl.DrawLineEx(root, foot, 1, col)
	}
}
