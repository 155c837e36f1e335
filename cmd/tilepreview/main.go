// Tile preview tool - interactive view of one generated tile and its
// neighbours with sliders for seed, coordinates and window density.
//
// Usage: go run ./cmd/tilepreview [-config path]
package main

import (
	"flag"
	"fmt"
	"log"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/citywalk/camera"
	"github.com/pthm-cable/citywalk/config"
	"github.com/pthm-cable/citywalk/renderer"
	"github.com/pthm-cable/citywalk/signals"
	"github.com/pthm-cable/citywalk/tiles"
	"github.com/pthm-cable/citywalk/walkable"
)

const (
	windowWidth  = 1100
	windowHeight = 760
	previewSize  = 700
	panelWidth   = windowWidth - previewSize - 30
)

// previewParams holds the slider state.
type previewParams struct {
	Seed          int64
	X, Z          int
	WindowDensity float32
	Neighbours    bool
	HighDetail    bool
	Walkable      bool
}

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	defaults := previewParams{
		Seed:          cfg.World.Seed,
		WindowDensity: float32(cfg.Buildings.WindowDensity),
		HighDetail:    true,
	}
	params := defaults

	rl.InitWindow(windowWidth, windowHeight, "Tile Preview")
	defer rl.CloseWindow()
	rl.SetTargetFPS(30)

	layout := walkable.FromConfig(cfg)
	sched := signals.FromConfig(cfg)
	cam := camera.New(previewSize, previewSize)
	city := renderer.NewCityRenderer(cam)
	debug := renderer.NewDebugRenderer(cam)

	var ts []*tiles.Tile
	needsRegen := true

	for !rl.WindowShouldClose() {
		sched.Advance(float64(rl.GetFrameTime()))

		if needsRegen {
			ts = generate(cfg, layout, params)
			centre := layout.TileCenter(params.X, params.Z)
			cam.X, cam.Z = float32(centre.X), float32(centre.Z)
			span := float32(cfg.World.TileSize)
			if params.Neighbours {
				span *= 3
			}
			cam.SetZoom(previewSize / span)
			needsRegen = false
		}

		rl.BeginDrawing()

		// Preview
		rl.BeginScissorMode(0, 0, previewSize, previewSize)
		city.Draw(ts, sched)
		if params.Walkable {
			debug.DrawWalkable(layout, ts)
		}
		rl.EndScissorMode()

		// The city renderer clears the whole screen.
		rl.DrawRectangle(previewSize, 0, windowWidth-previewSize, windowHeight, rl.RayWhite)
		rl.DrawRectangle(0, previewSize, previewSize, windowHeight-previewSize, rl.RayWhite)
		rl.DrawRectangleLines(0, 0, previewSize, previewSize, rl.DarkGray)

		// Control panel
		panelX := float32(previewSize + 20)
		panelY := float32(10)

		rl.DrawText("Tile Parameters", int32(panelX), int32(panelY), 20, rl.DarkGray)
		panelY += 35

		slider := func(label, value string, cur, lo, hi float32) float32 {
			rl.DrawText(label, int32(panelX), int32(panelY), 14, rl.Gray)
			panelY += 18
			v := gui.SliderBar(
				rl.Rectangle{X: panelX, Y: panelY, Width: float32(panelWidth - 80), Height: 20},
				"", "", cur, lo, hi,
			)
			rl.DrawText(value, int32(panelX+float32(panelWidth-70)), int32(panelY+2), 16, rl.DarkGray)
			panelY += 35
			return v
		}

		if v := int64(slider("Seed", fmt.Sprint(params.Seed), float32(params.Seed), 0, 99999)); v != params.Seed {
			params.Seed = v
			needsRegen = true
		}
		if v := int(slider("Tile X", fmt.Sprint(params.X), float32(params.X), -50, 50)); v != params.X {
			params.X = v
			needsRegen = true
		}
		if v := int(slider("Tile Z", fmt.Sprint(params.Z), float32(params.Z), -50, 50)); v != params.Z {
			params.Z = v
			needsRegen = true
		}
		if v := slider("Window density", fmt.Sprintf("%.2f", params.WindowDensity), params.WindowDensity, 0, 1); v != params.WindowDensity {
			params.WindowDensity = v
			needsRegen = true
		}

		if gui.Button(rl.Rectangle{X: panelX, Y: panelY, Width: 120, Height: 30}, toggleText(params.Neighbours, "Single", "Neighbours")) {
			params.Neighbours = !params.Neighbours
			needsRegen = true
		}
		if gui.Button(rl.Rectangle{X: panelX + 130, Y: panelY, Width: 120, Height: 30}, toggleText(params.HighDetail, "Low detail", "High detail")) {
			params.HighDetail = !params.HighDetail
			needsRegen = true
		}
		panelY += 40
		if gui.Button(rl.Rectangle{X: panelX, Y: panelY, Width: 120, Height: 30}, toggleText(params.Walkable, "Hide walkable", "Walkable")) {
			params.Walkable = !params.Walkable
		}
		if gui.Button(rl.Rectangle{X: panelX + 130, Y: panelY, Width: 120, Height: 30}, "Random Seed") {
			params.Seed = int64(rl.GetRandomValue(0, 99999))
			needsRegen = true
		}
		panelY += 40
		if gui.Button(rl.Rectangle{X: panelX, Y: panelY, Width: 120, Height: 30}, "Reset All") {
			params = defaults
			needsRegen = true
		}
		panelY += 50

		// Stats for the centre tile
		if len(ts) > 0 {
			t := ts[len(ts)/2]
			lines := []string{
				fmt.Sprintf("Tile %s", t.Coord),
				fmt.Sprintf("Buildings: %d", len(t.Buildings)),
				fmt.Sprintf("Windows: %d", len(t.Windows)),
				fmt.Sprintf("Markings: %d", len(t.Markings)),
				fmt.Sprintf("Crosswalk stripes: %d", t.StripeCount()),
				fmt.Sprintf("Signal phase: %s", sched.Phase()),
			}
			for _, line := range lines {
				rl.DrawText(line, int32(panelX), int32(panelY), 14, rl.Gray)
				panelY += 18
			}
		}

		rl.DrawText("Press C to copy the seed and coordinates", int32(panelX), int32(windowHeight-30), 12, rl.LightGray)
		if rl.IsKeyPressed(rl.KeyC) {
			rl.SetClipboardText(fmt.Sprintf("citywalk tile --seed %d --x %d --z %d", params.Seed, params.X, params.Z))
		}

		rl.EndDrawing()
	}
}

func toggleText(cond bool, ifTrue, ifFalse string) string {
	if cond {
		return ifTrue
	}
	return ifFalse
}

// generate builds the selected tile, or it and its eight neighbours.
func generate(cfg *config.Config, layout *walkable.Layout, p previewParams) []*tiles.Tile {
	c := *cfg
	c.World.Seed = p.Seed
	gen := tiles.GeneratorFromConfig(&c, layout)
	gen.SetWindowDensity(float64(p.WindowDensity))

	r := 0
	if p.Neighbours {
		r = 1
	}
	var ts []*tiles.Tile
	for dz := -r; dz <= r; dz++ {
		for dx := -r; dx <= r; dx++ {
			t := gen.Generate(tiles.Coord{X: p.X + dx, Z: p.Z + dz})
			t.HighDetail = p.HighDetail
			ts = append(ts, t)
		}
	}
	return ts
}
