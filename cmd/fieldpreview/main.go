// Resource field preview tool - interactive visualization of the initial
// field with sliders.
//
// Usage: go run ./cmd/fieldpreview [-config file.yaml]
package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/gridsoup/config"
	"github.com/pthm-cable/gridsoup/renderer"
	"github.com/pthm-cable/gridsoup/systems"
)

const (
	windowWidth  = 1000
	windowHeight = 720
	previewSize  = 600
	panelWidth   = windowWidth - previewSize - 30
)

// previewParams holds the slider state.
type previewParams struct {
	Width    int
	Height   int
	Resource config.ResourceConfig
	Seed     int64
}

func paramsFrom(cfg *config.Config) previewParams {
	return previewParams{
		Width:    cfg.World.Width,
		Height:   cfg.World.Height,
		Resource: cfg.Resource,
		Seed:     1,
	}
}

// build generates the field exactly as a new game with p would.
func build(p previewParams) systems.Snapshot {
	rng := rand.New(rand.NewSource(p.Seed))
	field := systems.NewResourceFieldFromConfig(p.Width, p.Height, p.Resource, p.Seed, rng)
	return systems.Snapshot{
		Width:    p.Width,
		Height:   p.Height,
		States:   make([]systems.CellState, p.Width*p.Height),
		Resource: field.Values(nil),
	}
}

// slider draws a labelled slider and returns its new value.
func slider(x float32, y *float32, label, format string, value, minV, maxV float32) float32 {
	rl.DrawText(label, int32(x), int32(*y), 14, rl.Gray)
	*y += 18
	v := gui.SliderBar(
		rl.Rectangle{X: x, Y: *y, Width: float32(panelWidth - 80), Height: 20},
		"", "",
		value, minV, maxV,
	)
	rl.DrawText(fmt.Sprintf(format, v), int32(x+float32(panelWidth-70)), int32(*y+2), 16, rl.DarkGray)
	*y += 35
	return v
}

func main() {
	configPath := flag.String("config", "", "Config YAML to start from (empty = use defaults)")
	flag.Parse()

	base, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	rl.InitWindow(windowWidth, windowHeight, "Resource Field Preview")
	defer rl.CloseWindow()
	rl.SetTargetFPS(30)

	params := paramsFrom(base)
	grid := renderer.NewGridRenderer(1)
	grid.SetOrigin(10, 10)
	grid.Dirt = params.Resource.DirtyFraction > 0

	snap := build(params)
	needsRegen := false

	for !rl.WindowShouldClose() {
		if needsRegen {
			snap = build(params)
			needsRegen = false
		}
		grid.SetCellPixels(float32(previewSize) / float32(max(params.Width, params.Height)))

		rl.BeginDrawing()
		rl.ClearBackground(rl.RayWhite)

		grid.Draw(&snap)
		rl.DrawRectangleLines(10, 10, previewSize, previewSize, rl.DarkGray)

		nonZero := 0
		var total float64
		for _, v := range snap.Resource {
			total += v
			if v > 0 {
				nonZero++
			}
		}
		cells := len(snap.Resource)
		statsY := int32(previewSize + 25)
		rl.DrawText(fmt.Sprintf("Cells: %d  Total: %.1f  Mean: %.2f", cells, total, total/float64(cells)), 15, statsY, 16, rl.DarkGray)
		rl.DrawText(fmt.Sprintf("Dirty: %.1f%%", 100*float64(nonZero)/float64(cells)), 15, statsY+20, 16, rl.DarkGray)

		panelX := float32(previewSize + 20)
		panelY := float32(10)
		rl.DrawText("Resource Field Parameters", int32(panelX), int32(panelY), 20, rl.DarkGray)
		panelY += 35

		prev := params
		params.Width = int(slider(panelX, &panelY, "Grid width", "%.0f", float32(params.Width), 2, 150))
		params.Height = int(slider(panelX, &panelY, "Grid height", "%.0f", float32(params.Height), 2, 150))
		r := &params.Resource
		r.InitialFill = float64(slider(panelX, &panelY, "Initial fill", "%.1f", float32(r.InitialFill), 0, 50))
		r.Patchiness = float64(slider(panelX, &panelY, "Patchiness (simplex blend)", "%.2f", float32(r.Patchiness), 0, 1))
		r.PatchScale = float64(slider(panelX, &panelY, "Patch scale (noise frequency)", "%.2f", float32(r.PatchScale), 0.01, 1))
		r.DirtyFraction = float64(slider(panelX, &panelY, "Dirty fraction", "%.2f", float32(r.DirtyFraction), 0, 1))
		if params != prev {
			needsRegen = true
		}

		if gui.Button(rl.Rectangle{X: panelX, Y: panelY, Width: 120, Height: 30}, toggleText(grid.Dirt, "Shade", "Dirt")) {
			grid.Dirt = !grid.Dirt
		}
		if gui.Button(rl.Rectangle{X: panelX + 130, Y: panelY, Width: 120, Height: 30}, "Random Seed") {
			params.Seed = int64(rl.GetRandomValue(1, 99999))
			needsRegen = true
		}
		panelY += 45

		if gui.Button(rl.Rectangle{X: panelX, Y: panelY, Width: 120, Height: 30}, "Reset All") {
			params = paramsFrom(base)
			needsRegen = true
		}
		panelY += 55

		out := fieldYAML(params)
		rl.DrawText("YAML Config:", int32(panelX), int32(panelY), 16, rl.DarkGray)
		panelY += 25
		rl.DrawText(out, int32(panelX), int32(panelY), 14, rl.Gray)

		rl.DrawText("Press C to copy YAML to clipboard", int32(panelX), int32(windowHeight-30), 12, rl.LightGray)
		if rl.IsKeyPressed(rl.KeyC) {
			rl.SetClipboardText(out)
		}

		rl.EndDrawing()
	}
}

// fieldYAML renders the world and resource blocks for a config file.
func fieldYAML(p previewParams) string {
	doc := struct {
		World    map[string]int        `yaml:"world"`
		Resource config.ResourceConfig `yaml:"resource"`
	}{
		World:    map[string]int{"width": p.Width, "height": p.Height},
		Resource: p.Resource,
	}
	out, err := yaml.Marshal(doc)
	if err != nil {
		return err.Error()
	}
	return string(out)
}

func toggleText(cond bool, ifTrue, ifFalse string) string {
	if cond {
		return ifTrue
	}
	return ifFalse
}
