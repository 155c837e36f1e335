package ui

import (
	"fmt"
	"math"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/citywalk/population"
)

// QualityKnobs is the runtime-adjustable surface of a running city.
type QualityKnobs interface {
	LoadRadius() int
	MaxLoadRadius() int
	SetLoadRadius(r int)
	ActiveCap(t population.Tier) int
	Capacity(t population.Tier) int
	SetActiveCap(t population.Tier, n int)
	LODDistance() float64
	SetLODDistance(d float64)
	WindowDensity() float64
	SetWindowDensity(d float64)
	TileSize() float64
	SetTileSize(size float64) error
}

// Tile sizes offered by the quality panel.
var tileSizes = []float64{40, 60, 80, 120}

// QualityPanel draws raygui sliders for the quality knobs.
type QualityPanel struct {
	renderer *Renderer
	x, y     float32
	width    float32

	governorOn bool
	lastErr    string
}

// NewQualityPanel creates a new quality panel.
func NewQualityPanel(x, y, width int32) *QualityPanel {
	return &QualityPanel{renderer: NewRenderer(), x: float32(x), y: float32(y), width: float32(width)}
}

// SetPosition updates the panel position.
func (q *QualityPanel) SetPosition(x, y int32) {
	q.x = float32(x)
	q.y = float32(y)
}

// Draw renders the panel and applies any changed knob. governor is the
// current governor state; the returned value is the requested one.
func (q *QualityPanel) Draw(k QualityKnobs, governor bool) bool {
	r := q.renderer
	pad := float32(r.Theme.Padding)
	rowH := float32(34)
	sliderW := q.width - pad*2 - 50

	r.DrawPanel(int32(q.x), int32(q.y), int32(q.width), int32(rowH*8+pad*3))
	x := q.x + pad
	y := float32(r.DrawSectionHeader(int32(x), int32(q.y+pad), "Quality"))

	slider := func(label, value string, cur, lo, hi float32) float32 {
		rl.DrawText(label, int32(x), int32(y), r.Theme.FontSize, r.Theme.LabelColor)
		v := gui.SliderBar(rl.Rectangle{X: x, Y: y + 14, Width: sliderW, Height: 14}, "", "", cur, lo, hi)
		rl.DrawText(value, int32(x+sliderW+8), int32(y+14), r.Theme.FontSize, r.Theme.ValueColor)
		y += rowH
		return v
	}

	radius := k.LoadRadius()
	if v := int(math.Round(float64(slider("Load radius", fmt.Sprint(radius), float32(radius), 1, float32(k.MaxLoadRadius()))))); v != radius {
		k.SetLoadRadius(v)
	}

	for _, tier := range []population.Tier{population.TierSim, population.TierCrowd, population.TierFake} {
		cur, capacity := k.ActiveCap(tier), k.Capacity(tier)
		v := int(math.Round(float64(slider(tier.String()+" cap", fmt.Sprintf("%d/%d", cur, capacity), float32(cur), 0, float32(capacity)))))
		if v != cur {
			k.SetActiveCap(tier, v)
		}
	}

	lod := float32(k.LODDistance())
	if v := slider("LOD distance", fmt.Sprintf("%.0f m", lod), lod, 20, 400); v != lod {
		k.SetLODDistance(float64(v))
	}
	wd := float32(k.WindowDensity())
	if v := slider("Window density", fmt.Sprintf("%.2f", wd), wd, 0, 1); v != wd {
		k.SetWindowDensity(float64(v))
	}

	size := k.TileSize()
	idx := 0
	for i, s := range tileSizes {
		if s == size {
			idx = i
		}
	}
	if v := int(math.Round(float64(slider("Tile size", fmt.Sprintf("%.0f m", size), float32(idx), 0, float32(len(tileSizes)-1))))); v != idx {
		if err := k.SetTileSize(tileSizes[v]); err != nil {
			q.lastErr = err.Error()
		} else {
			q.lastErr = ""
		}
	}

	label := "Governor: off"
	if governor {
		label = "Governor: on"
	}
	if gui.Button(rl.Rectangle{X: x, Y: y, Width: 120, Height: 24}, label) {
		governor = !governor
	}
	if q.lastErr != "" {
		rl.DrawText(q.lastErr, int32(x), int32(y+28), r.Theme.FontSize, r.Theme.BarFillLow)
	}
	return governor
}
