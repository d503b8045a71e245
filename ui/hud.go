package ui

import (
	"fmt"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/gridsoup/telemetry"
)

// HUDData holds all the data needed to render the main HUD.
type HUDData struct {
	Title         string
	Tick          int
	Prey          int
	Predators     int
	Cleaners      int
	DirtyPct      float64
	ShowDirty     bool
	TicksPerFrame int
	FPS           int32
	Paused        bool
	Finished      bool
}

// HUD renders the main heads-up display.
type HUD struct {
	renderer *Renderer
	x, y     int32
	width    int32
}

// NewHUD creates a HUD panel at (x, y).
func NewHUD(x, y, width int32) *HUD {
	return &HUD{renderer: NewRenderer(), x: x, y: y, width: width}
}

// Draw renders the HUD and returns the Y position below it.
func (h *HUD) Draw(data HUDData) int32 {
	r := h.renderer
	th := r.Theme
	x := h.x + th.Padding
	y := h.y + th.Padding

	lines := int32(5)
	if data.ShowDirty {
		lines += 2
	}
	r.DrawPanel(h.x, h.y, h.width, lines*th.LineHeight+th.Padding*2+24)

	rl.DrawText(data.Title, x, y, 20, rl.White)
	y += 26

	y = r.DrawLabelValue(x, y, "Tick", fmt.Sprintf("%d", data.Tick))
	y = r.DrawLabelValue(x, y, "Prey", fmt.Sprintf("%d", data.Prey))
	y = r.DrawLabelValue(x, y, "Predators", fmt.Sprintf("%d", data.Predators))
	if data.ShowDirty {
		y = r.DrawLabelValue(x, y, "Cleaners", fmt.Sprintf("%d", data.Cleaners))
		y = r.DrawBar(x, y, "Dirty", float32(data.DirtyPct/100), h.width-2*th.Padding)
	}
	y = r.DrawLabelValue(x, y, "Speed", fmt.Sprintf("%dx | FPS %d", data.TicksPerFrame, data.FPS))

	status, color := "Running", rl.Green
	switch {
	case data.Finished:
		status, color = "FINISHED", rl.Orange
	case data.Paused:
		status, color = "PAUSED", rl.Yellow
	}
	rl.DrawText(status, x, y, 16, color)
	return h.y + lines*th.LineHeight + th.Padding*2 + 24
}

// DrawControls renders the key legend at the bottom of the screen.
func (h *HUD) DrawControls(screenHeight int32, controls string) {
	rl.DrawText(controls, h.x+h.renderer.Theme.Padding, screenHeight-25, 14, rl.Gray)
}

// PerfPanel renders per-phase tick timings.
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
	p.x, p.y = x, y
}

// Draw renders the performance panel and returns the Y position below it.
func (p *PerfPanel) Draw(stats telemetry.PerfStats) int32 {
	x, y := p.x, p.y

	rl.DrawText("Tick Performance", x, y, 16, rl.White)
	y += 20
	rl.DrawText(fmt.Sprintf("Avg: %s | %.0f ticks/s",
		stats.AvgTickDuration.Round(time.Microsecond), stats.TicksPerSecond), x, y, 14, rl.Yellow)
	y += 16

	for _, phase := range telemetry.Phases {
		pct := stats.PhasePct[phase]
		color := rl.LightGray
		if pct > 50 {
			color = rl.Red
		} else if pct > 25 {
			color = rl.Orange
		}
		rl.DrawText(
			fmt.Sprintf("%-12s %8s %5.1f%%", phase, stats.PhaseAvg[phase].Round(time.Microsecond), pct),
			x, y, 12, color,
		)
		y += 14
	}
	return y
}

// StatsPanel renders the most recent telemetry window.
type StatsPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32
}

// NewStatsPanel creates a window stats panel.
func NewStatsPanel(x, y, width int32) *StatsPanel {
	return &StatsPanel{renderer: NewRenderer(), x: x, y: y, width: width}
}

// SetPosition updates the panel position.
func (s *StatsPanel) SetPosition(x, y int32) {
	s.x, s.y = x, y
}

// Draw renders the stats panel and returns the Y position below it.
func (s *StatsPanel) Draw(w telemetry.WindowStats) int32 {
	r := s.renderer
	pad := r.Theme.Padding
	lh := r.Theme.LineHeight

	r.DrawPanel(s.x, s.y, s.width, lh*8+pad*2)
	x := s.x + pad
	y := s.y + pad

	y = r.DrawSectionHeader(x, y, fmt.Sprintf("Window %d-%d", w.WindowStartTick, w.WindowEndTick))
	y = r.DrawLabelValue(x, y, "Births", fmt.Sprintf("prey %d | pred %d", w.PreyBirths, w.PredBirths))
	y = r.DrawLabelValue(x, y, "Deaths", fmt.Sprintf("prey %d | pred %d", w.PreyDeaths, w.PredDeaths))
	y = r.DrawLabelValue(x, y, "Causes", fmt.Sprintf("age %d | starved %d | eaten %d", w.DeathsAge, w.DeathsStarved, w.DeathsEaten))
	y = r.DrawLabelValue(x, y, "Kills", fmt.Sprintf("%d (%.3f/pred/tick)", w.Kills, w.KillRate))
	y = r.DrawLabelValue(x, y, "Foraged", fmt.Sprintf("%.1f", w.Foraged))
	y = r.DrawLabelValue(x, y, "Cleaned", fmt.Sprintf("%.1f", w.Cleaned))
	y = r.DrawLabelValue(x, y, "Prey E", fmt.Sprintf("mean %.1f | p50 %.1f", w.PreyEnergyMean, w.PreyEnergyP50))
	return y + pad
}
