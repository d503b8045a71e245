package ui

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/gridsoup/components"
	"github.com/pthm-cable/gridsoup/config"
	"github.com/pthm-cable/gridsoup/game"
	"github.com/pthm-cable/gridsoup/renderer"
	"github.com/pthm-cable/gridsoup/systems"
)

// PanelWidth is the width of the side panel right of the grid.
const PanelWidth = 300

const controlsLegend = "SPACE pause | N step | , . speed | R D G I T F overlays"

// WindowSize returns the window dimensions needed to show cfg's grid and the
// side panel.
func WindowSize(cfg *config.Config) (int32, int32) {
	return cfg.Derived.GridPixelsW + PanelWidth, max(cfg.Derived.GridPixelsH, 640)
}

// Viewer runs a Game inside a raylib window. The window must be open before
// NewViewer is called.
type Viewer struct {
	game *game.Game
	grid *renderer.GridRenderer

	hud       *HUD
	controls  *ControlsPanel
	inspector *Inspector
	perf      *PerfPanel
	stats     *StatsPanel
	overlays  *OverlayRegistry

	paused        bool
	ticksPerFrame int
	maxTicks      int // 0 = until the game finishes or the window closes
	snap          systems.Snapshot
	panelX        int32
}

// NewViewer creates a viewer for g.
func NewViewer(g *game.Game, maxTicks int) *Viewer {
	cfg := g.Config()
	panelX := cfg.Derived.GridPixelsW + 10
	panelW := int32(PanelWidth - 20)

	v := &Viewer{
		game:          g,
		grid:          renderer.NewGridRenderer(cfg.Derived.CellPixels),
		hud:           NewHUD(panelX, 10, panelW),
		controls:      NewControlsPanel(panelX, 0, panelW),
		inspector:     NewInspector(panelX, 0, panelW),
		perf:          NewPerfPanel(panelX, 0),
		stats:         NewStatsPanel(panelX, 0, panelW),
		overlays:      NewOverlayRegistry(),
		ticksPerFrame: clampTicks(cfg.Screen.TicksPerFrame),
		maxTicks:      maxTicks,
		panelX:        panelX,
	}
	v.grid.MaxResource = cfg.Resource.MaxLevel
	if cfg.Population.Cleaners > 0 {
		v.overlays.SetEnabled(OverlayDirt, true)
	} else {
		v.overlays.SetEnabled(OverlayResource, true)
	}
	v.snap = g.Snapshot()
	return v
}

// Run updates and draws until the window closes or maxTicks is reached.
func (v *Viewer) Run() {
	for !rl.WindowShouldClose() {
		v.Update()
		v.Draw()
		if v.maxTicks > 0 && v.game.Tick() >= v.maxTicks {
			return
		}
	}
}

// Update handles keyboard input and advances the game by up to
// ticksPerFrame ticks.
func (v *Viewer) Update() {
	step := v.handleInput()

	switch {
	case v.game.IsFinished():
	case step:
		v.game.Step()
	case !v.paused:
		for i := 0; i < v.ticksPerFrame && !v.game.IsFinished(); i++ {
			v.game.Step()
		}
	}
	v.game.Perf().RecordFrame()
	v.snap = v.game.Snapshot()
}

// handleInput processes keyboard input and reports whether a single step was
// requested.
func (v *Viewer) handleInput() bool {
	if rl.IsKeyPressed(rl.KeyF11) {
		rl.ToggleFullscreen()
	}
	if rl.IsKeyPressed(rl.KeySpace) {
		v.paused = !v.paused
	}
	if rl.IsKeyPressed(rl.KeyComma) {
		v.ticksPerFrame = clampTicks(v.ticksPerFrame - 1)
	}
	if rl.IsKeyPressed(rl.KeyPeriod) {
		v.ticksPerFrame = clampTicks(v.ticksPerFrame + 1)
	}
	if key := rl.GetKeyPressed(); key != 0 {
		v.overlays.HandleKeyPress(key)
	}
	return v.paused && rl.IsKeyPressed(rl.KeyN)
}

// Draw renders the grid and side panel.
func (v *Viewer) Draw() {
	rl.BeginDrawing()
	defer rl.EndDrawing()

	rl.ClearBackground(rl.Color{R: 12, G: 12, B: 16, A: 255})

	v.grid.ShowResource = v.overlays.IsEnabled(OverlayResource)
	v.grid.Dirt = v.overlays.IsEnabled(OverlayDirt)
	v.grid.ShowGridLines = v.overlays.IsEnabled(OverlayGridLines)
	v.grid.Draw(&v.snap)

	mouse := rl.GetMousePosition()
	cx, cy, hovered := v.grid.CellAt(&v.snap, mouse.X, mouse.Y)
	inspecting := hovered && v.overlays.IsEnabled(OverlayInspector)
	if inspecting {
		v.grid.HighlightCell(cx, cy, rl.White)
	}

	finished := v.game.IsFinished()
	y := v.hud.Draw(HUDData{
		Title:         "Grid Soup",
		Tick:          v.game.Tick(),
		Prey:          v.game.Population(components.SpeciesPrey),
		Predators:     v.game.Population(components.SpeciesPredator),
		Cleaners:      v.game.Population(components.SpeciesCleaner),
		DirtyPct:      v.game.DirtyPercentage(),
		ShowDirty:     v.game.Config().Population.Cleaners > 0,
		TicksPerFrame: v.ticksPerFrame,
		FPS:           rl.GetFPS(),
		Paused:        v.paused,
		Finished:      finished,
	})

	v.controls.SetPosition(v.panelX, y+8)
	action, y := v.controls.Draw(ControlsState{
		Paused:        v.paused,
		Finished:      finished,
		TicksPerFrame: v.ticksPerFrame,
	}, v.overlays)
	v.apply(action)

	if v.overlays.IsEnabled(OverlayStats) {
		v.stats.SetPosition(v.panelX, y+8)
		y = v.stats.Draw(v.game.Stats())
	}
	if v.overlays.IsEnabled(OverlayPerf) {
		v.perf.SetPosition(v.panelX+10, y+8)
		y = v.perf.Draw(v.game.Perf().Stats())
	}
	if inspecting {
		p := components.Position{X: cx, Y: cy}
		v.inspector.SetPosition(v.panelX, y+8)
		v.inspector.Draw(InspectorData{
			Cell:     p,
			Resource: v.snap.Resource[cy*v.snap.Width+cx],
			Agents:   v.game.AgentsAt(p),
		})
	}

	v.hud.DrawControls(int32(rl.GetScreenHeight()), controlsLegend)
}

func (v *Viewer) apply(a ControlsAction) {
	if a.TogglePause {
		v.paused = !v.paused
	}
	if a.Step {
		v.game.Step()
		v.snap = v.game.Snapshot()
	}
	v.ticksPerFrame = a.TicksPerFrame
}
