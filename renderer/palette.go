// Package renderer draws the streamed city and its pedestrians top-down
// with raylib.
package renderer

import rl "github.com/gen2brain/raylib-go/raylib"

// Palette holds the city colors.
type Palette struct {
	Ground    rl.Color
	Road      rl.Color
	Sidewalk  rl.Color
	Crosswalk rl.Color
	Marking   rl.Color
	Edge      rl.Color
	Lot       rl.Color
	Building  rl.Color
	Roof      rl.Color
	Door      rl.Color
	Window    rl.Color

	Sim   rl.Color
	Crowd rl.Color
	Fake  rl.Color

	LampRed    rl.Color
	LampYellow rl.Color
	LampGreen  rl.Color
}

// DefaultPalette returns the default night-time palette.
func DefaultPalette() Palette {
	return Palette{
		Ground:    rl.Color{R: 18, G: 20, B: 24, A: 255},
		Road:      rl.Color{R: 38, G: 40, B: 46, A: 255},
		Sidewalk:  rl.Color{R: 88, G: 90, B: 96, A: 255},
		Crosswalk: rl.Color{R: 60, G: 62, B: 68, A: 255},
		Marking:   rl.Color{R: 220, G: 200, B: 90, A: 255},
		Edge:      rl.Color{R: 200, G: 200, B: 200, A: 255},
		Lot:       rl.Color{R: 30, G: 44, B: 34, A: 255},
		Building:  rl.Color{R: 70, G: 78, B: 96, A: 255},
		Roof:      rl.Color{R: 96, G: 104, B: 124, A: 255},
		Door:      rl.Color{R: 150, G: 110, B: 70, A: 255},
		Window:    rl.Color{R: 250, G: 220, B: 140, A: 255},

		Sim:   rl.Color{R: 240, G: 120, B: 90, A: 255},
		Crowd: rl.Color{R: 120, G: 190, B: 240, A: 255},
		Fake:  rl.Color{R: 150, G: 150, B: 170, A: 255},

		LampRed:    rl.Color{R: 230, G: 50, B: 50, A: 255},
		LampYellow: rl.Color{R: 240, G: 200, B: 40, A: 255},
		LampGreen:  rl.Color{R: 60, G: 220, B: 90, A: 255},
	}
}

// fade scales a color's alpha by opacity in [0, 1].
func fade(c rl.Color, opacity float64) rl.Color {
	if opacity <= 0 {
		c.A = 0
		return c
	}
	if opacity < 1 {
		c.A = uint8(float64(c.A) * opacity)
	}
	return c
}

// shade darkens or lightens a color by f (1 = unchanged).
func shade(c rl.Color, f float32) rl.Color {
	scale := func(v uint8) uint8 {
		x := float32(v) * f
		if x > 255 {
			return 255
		}
		return uint8(x)
	}
	return rl.Color{R: scale(c.R), G: scale(c.G), B: scale(c.B), A: c.A}
}
