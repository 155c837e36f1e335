package ui

import (
	"fmt"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
)

var sectionTitles = map[string]string{
	"debug":  "Debug views",
	"panels": "Panels",
}

// panelRow is one line of the overlay panel: a section header when id is
// empty, otherwise a toggle.
type panelRow struct {
	title string
	id    OverlayID
	key   string
}

// overlayRows lays out the registry by category in registration order.
func overlayRows(reg *OverlayRegistry) []panelRow {
	var rows []panelRow
	for _, cat := range reg.Categories() {
		title, ok := sectionTitles[cat]
		if !ok {
			title = cat
		}
		rows = append(rows, panelRow{title: title})
		for _, d := range reg.ByCategory(cat) {
			rows = append(rows, panelRow{title: d.Name, id: d.ID, key: d.KeyLabel})
		}
	}
	return rows
}

// OverlayPanel lists the overlays as clickable checkboxes. Hovering a row
// shows its description under the list.
type OverlayPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32
	visible  bool
}

// NewOverlayPanel creates a hidden overlay panel.
func NewOverlayPanel(x, y, width int32) *OverlayPanel {
	return &OverlayPanel{renderer: NewRenderer(), x: x, y: y, width: width}
}

// Toggle flips visibility and returns the new state.
func (p *OverlayPanel) Toggle() bool {
	p.visible = !p.visible
	return p.visible
}

// Hide closes the panel.
func (p *OverlayPanel) Hide() { p.visible = false }

// Draw renders the panel, applying clicked toggles to reg.
func (p *OverlayPanel) Draw(reg *OverlayRegistry) {
	if !p.visible {
		return
	}
	r := p.renderer
	pad := r.Theme.Padding
	lh := r.Theme.LineHeight
	rows := overlayRows(reg)
	r.DrawPanel(p.x, p.y, p.width, int32(len(rows)+1)*lh+pad*3)

	mouse := rl.GetMousePosition()
	hint := "Tab closes"
	x, y := p.x+pad, p.y+pad
	for _, row := range rows {
		if row.id == "" {
			y = r.DrawSectionHeader(x, y, row.title)
			continue
		}
		box := rl.Rectangle{X: float32(x), Y: float32(y + 1), Width: 10, Height: 10}
		on := reg.IsEnabled(row.id)
		if gui.CheckBox(box, row.title, on) != on {
			reg.Toggle(row.id)
		}
		if row.key != "" {
			key := fmt.Sprintf("[%s]", row.key)
			rl.DrawText(key, p.x+p.width-pad-rl.MeasureText(key, r.Theme.FontSize), y, r.Theme.FontSize, r.Theme.LabelColor)
		}
		line := rl.Rectangle{X: float32(p.x), Y: float32(y), Width: float32(p.width), Height: float32(lh)}
		if rl.CheckCollisionPointRec(mouse, line) {
			if d, ok := reg.Get(row.id); ok {
				hint = d.Description
			}
		}
		y += lh
	}
	rl.DrawText(hint, x, y+pad, r.Theme.FontSize, r.Theme.ValueColor)
}
