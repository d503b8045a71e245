package ui

import (
	"fmt"
	"math"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
)

// MaxTicksPerFrame bounds the speed slider.
const MaxTicksPerFrame = 50

// ControlsState is what the controls panel displays.
type ControlsState struct {
	Paused        bool
	Finished      bool
	TicksPerFrame int
}

// ControlsAction is what the user asked for this frame.
type ControlsAction struct {
	TogglePause   bool
	Step          bool
	TicksPerFrame int
}

// ControlsPanel renders playback buttons, the speed slider and overlay
// toggles.
type ControlsPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32
}

// NewControlsPanel creates a new controls panel.
func NewControlsPanel(x, y, width int32) *ControlsPanel {
	return &ControlsPanel{renderer: NewRenderer(), x: x, y: y, width: width}
}

// SetPosition updates the panel position.
func (c *ControlsPanel) SetPosition(x, y int32) {
	c.x, c.y = x, y
}

// Draw renders the panel, applies overlay clicks to overlays and returns the
// playback action together with the Y position below the panel.
func (c *ControlsPanel) Draw(state ControlsState, overlays *OverlayRegistry) (ControlsAction, int32) {
	r := c.renderer
	pad := r.Theme.Padding
	lh := r.Theme.LineHeight

	categories := overlays.Categories()
	items := 0
	for _, cat := range categories {
		items += len(overlays.ByCategory(cat)) + 1
	}
	panelHeight := int32(items)*lh + int32(len(categories))*4 + 110 + pad*2
	r.DrawPanel(c.x, c.y, c.width, panelHeight)

	action := ControlsAction{TicksPerFrame: state.TicksPerFrame}
	x := float32(c.x + pad)
	y := float32(c.y + pad)
	inner := float32(c.width - pad*2)

	rl.DrawText("Playback", int32(x), int32(y), 16, rl.White)
	y += 22

	label := "Pause"
	if state.Paused {
		label = "Resume"
	}
	if gui.Button(rl.Rectangle{X: x, Y: y, Width: inner/2 - 4, Height: 26}, label) && !state.Finished {
		action.TogglePause = true
	}
	if gui.Button(rl.Rectangle{X: x + inner/2 + 4, Y: y, Width: inner/2 - 4, Height: 26}, "Step") && state.Paused && !state.Finished {
		action.Step = true
	}
	y += 36

	rl.DrawText("Ticks per frame", int32(x), int32(y), 12, r.Theme.LabelColor)
	y += 16
	speed := gui.SliderBar(
		rl.Rectangle{X: x, Y: y, Width: inner - 40, Height: 18},
		"", "",
		float32(state.TicksPerFrame), 1, MaxTicksPerFrame,
	)
	action.TicksPerFrame = clampTicks(int(math.Round(float64(speed))))
	rl.DrawText(fmt.Sprintf("%d", action.TicksPerFrame), int32(x+inner-32), int32(y+2), 14, r.Theme.ValueColor)
	y += 36

	iy := int32(y)
	for _, category := range categories {
		rl.DrawText(categoryLabel(category), c.x+pad, iy, r.Theme.HeaderFontSize, r.Theme.SectionHeader)
		iy += lh
		for _, desc := range overlays.ByCategory(category) {
			if c.drawToggle(c.x+pad, iy, desc, overlays.IsEnabled(desc.ID), c.width-pad*2) {
				overlays.Toggle(desc.ID)
			}
			iy += lh
		}
		iy += 4
	}
	return action, c.y + panelHeight
}

// drawToggle draws one overlay toggle line and reports whether it was clicked.
func (c *ControlsPanel) drawToggle(x, y int32, desc OverlayDescriptor, enabled bool, width int32) bool {
	r := c.renderer

	statusColor := rl.Color{R: 80, G: 80, B: 80, A: 255}
	nameColor := r.Theme.LabelColor
	if enabled {
		statusColor = rl.Color{R: 100, G: 200, B: 100, A: 255}
		nameColor = rl.White
	}
	rl.DrawRectangle(x, y+2, 8, 8, statusColor)
	rl.DrawText(desc.Name, x+14, y, r.Theme.FontSize, nameColor)

	if desc.KeyLabel != "" {
		keyText := fmt.Sprintf("[%s]", desc.KeyLabel)
		keyWidth := rl.MeasureText(keyText, r.Theme.FontSize)
		rl.DrawText(keyText, x+width-keyWidth, y, r.Theme.FontSize, rl.Color{R: 150, G: 150, B: 150, A: 255})
	}

	bounds := rl.Rectangle{X: float32(x), Y: float32(y), Width: float32(width), Height: float32(r.Theme.LineHeight)}
	return rl.IsMouseButtonPressed(rl.MouseButtonLeft) && rl.CheckCollisionPointRec(rl.GetMousePosition(), bounds)
}

func clampTicks(n int) int {
	return max(1, min(n, MaxTicksPerFrame))
}
