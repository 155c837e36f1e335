package ui

import (
	"fmt"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/citywalk/population"
	"github.com/pthm-cable/citywalk/signals"
	"github.com/pthm-cable/citywalk/telemetry"
)

// HUDData holds all the data needed to render the main HUD.
type HUDData struct {
	Title      string
	Census     population.Census
	Tiles      int
	Buildings  int
	Phase      signals.Phase
	SimTime    float64
	FPS        int32
	Paused     bool
	Touring    bool
	Governor   bool
	LoadRadius int
}

// HUD renders the main heads-up display.
type HUD struct {
	renderer *Renderer
}

// NewHUD creates a new HUD renderer.
func NewHUD() *HUD {
	return &HUD{renderer: NewRenderer()}
}

// Draw renders the HUD.
func (h *HUD) Draw(data HUDData) {
	rl.DrawText(data.Title, 10, 10, 20, rl.White)

	c := data.Census
	rl.DrawText(
		fmt.Sprintf("Sim: %d | Crowd: %d (+%d fading) | Fake: %d", c.Sim, c.Crowd, c.CrowdFading, c.Fake),
		10, 35, 16, rl.LightGray,
	)
	rl.DrawText(
		fmt.Sprintf("Tiles: %d (r=%d) | Buildings: %d | Signals: %s", data.Tiles, data.LoadRadius, data.Buildings, data.Phase),
		10, 55, 16, rl.LightGray,
	)
	rl.DrawText(
		fmt.Sprintf("Time: %.1fs | FPS: %d", data.SimTime, data.FPS),
		10, 75, 16, rl.LightGray,
	)

	status := "Walking"
	if data.Touring {
		status = "Touring"
	}
	if data.Paused {
		status = "PAUSED"
	}
	if data.Governor {
		status += " | governor on"
	}
	rl.DrawText(status, 10, 95, 16, rl.Yellow)
}

// DrawControls renders the control legend at the bottom of the screen.
func (h *HUD) DrawControls(screenHeight int32, controls string) {
	rl.DrawText(controls, 10, screenHeight-25, 14, rl.Gray)
}

// PerfPanel renders per-phase frame timings.
type PerfPanel struct {
	renderer *Renderer
	x, y     int32
}

// NewPerfPanel creates a new performance panel.
func NewPerfPanel(x, y int32) *PerfPanel {
	return &PerfPanel{renderer: NewRenderer(), x: x, y: y}
}

// SetPosition updates the panel position.
func (p *PerfPanel) SetPosition(x, y int32) {
	p.x = x
	p.y = y
}

// Draw renders the performance panel.
func (p *PerfPanel) Draw(stats telemetry.PerfStats) {
	x, y := p.x, p.y

	rl.DrawText("Frame Phases", x, y, 16, rl.White)
	y += 20
	rl.DrawText(fmt.Sprintf("Avg: %s  Max: %s", stats.AvgFrame.Round(time.Microsecond), stats.MaxFrame.Round(time.Microsecond)), x, y, 14, rl.Yellow)
	y += 16

	for _, phase := range telemetry.Phases {
		pct := stats.PhasePct[phase]
		color := rl.LightGray
		if pct > 40 {
			color = rl.Red
		} else if pct > 20 {
			color = rl.Orange
		}
		rl.DrawText(
			fmt.Sprintf("%-13s %8s %5.1f%%", phase, stats.PhaseAvg[phase].Round(time.Microsecond), pct),
			x, y, 12, color,
		)
		y += 14
	}
}

// HandoffData holds data for the handoff panel.
type HandoffData struct {
	Last          population.HandoffResult
	Counters      population.Counters
	ObserverSpeed float64
	PairsInFlight int
	SimCap        int
	SimCapacity   int
	CrowdCap      int
	CrowdCapacity int
	FakeCap       int
	FakeCapacity  int
}

// HandoffPanel renders handoff and pool statistics.
type HandoffPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32
}

// NewHandoffPanel creates a new handoff panel.
func NewHandoffPanel(x, y, width int32) *HandoffPanel {
	return &HandoffPanel{renderer: NewRenderer(), x: x, y: y, width: width}
}

// SetPosition updates the panel position.
func (h *HandoffPanel) SetPosition(x, y int32) {
	h.x = x
	h.y = y
}

// Draw renders the handoff panel and returns the Y below it.
func (h *HandoffPanel) Draw(data HandoffData) int32 {
	r := h.renderer
	padding := r.Theme.Padding
	lineHeight := r.Theme.LineHeight
	inner := h.width - padding*2

	r.DrawPanel(h.x, h.y, h.width, lineHeight*12+padding*2)
	x, y := h.x+padding, h.y+padding

	y = r.DrawSectionHeader(x, y, "Handoff")
	l := data.Last
	y = r.DrawLabelValue(x, y, "Last tick", fmt.Sprintf("%d locked, %d/%d promoted", l.Locked, l.Promoted, l.Budget))
	y = r.DrawLabelValue(x, y, "Forced", fmt.Sprintf("%d (total %d)", l.Forced, data.Counters.Forced))
	y = r.DrawLabelValue(x, y, "Misses", fmt.Sprintf("%d (total %d)", l.Misses, data.Counters.Misses))
	y = r.DrawLabelValue(x, y, "Promotions", fmt.Sprintf("%d", data.Counters.Promotions))
	y = r.DrawLabelValue(x, y, "In flight", fmt.Sprintf("%d", data.PairsInFlight))
	y = r.DrawLabelValue(x, y, "Speed", fmt.Sprintf("%.1f m/s", data.ObserverSpeed))

	y = r.DrawSectionHeader(x, y+4, "Pools")
	y = r.DrawRatioBar(x, y, "Sim", data.SimCap, data.SimCapacity, inner)
	y = r.DrawRatioBar(x, y, "Crowd", data.CrowdCap, data.CrowdCapacity, inner)
	y = r.DrawRatioBar(x, y, "Fake", data.FakeCap, data.FakeCapacity, inner)
	return y
}
