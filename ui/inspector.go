package ui

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/gridsoup/components"
	"github.com/pthm-cable/gridsoup/game"
	"github.com/pthm-cable/gridsoup/renderer"
)

// InspectorData describes the hovered cell.
type InspectorData struct {
	Cell     components.Position
	Resource float64
	Agents   []game.AgentInfo
}

// Inspector renders the cell inspection panel.
type Inspector struct {
	renderer *Renderer
	x, y     int32
	width    int32
}

// NewInspector creates a new inspector panel.
func NewInspector(x, y, width int32) *Inspector {
	return &Inspector{renderer: NewRenderer(), x: x, y: y, width: width}
}

// SetPosition updates the inspector position.
func (ins *Inspector) SetPosition(x, y int32) {
	ins.x, ins.y = x, y
}

// Draw renders the inspector panel and returns the Y position below it.
func (ins *Inspector) Draw(data InspectorData) int32 {
	r := ins.renderer
	pad := r.Theme.Padding
	lh := r.Theme.LineHeight
	contentWidth := ins.width - pad*2

	height := lh*2 + pad*2
	for range data.Agents {
		height += lh*7 + 6
	}
	r.DrawPanel(ins.x, ins.y, ins.width, height)

	x := ins.x + pad
	y := ins.y + pad
	y = r.DrawSectionHeader(x, y, fmt.Sprintf("Cell (%d, %d)", data.Cell.X, data.Cell.Y))
	y = r.DrawLabelValue(x, y, "Resource", fmt.Sprintf("%.2f", data.Resource))

	for _, a := range data.Agents {
		y += 6
		y = r.DrawColorSwatch(x, y, fmt.Sprintf("%s #%d", a.Species, a.ID), speciesColor(a.Species))
		y = r.DrawEnergyBar(x, y, "Energy", float32(a.Energy), float32(a.Capacity), contentWidth)

		age := fmt.Sprintf("%d", a.Age)
		if a.MaxAge > 0 {
			age = fmt.Sprintf("%d/%d", a.Age, a.MaxAge)
		}
		y = r.DrawLabelValue(x, y, "Age", age)
		y = r.DrawLabelValue(x, y, "Parent", parentLabel(a.ParentID))
		y = r.DrawLabelValue(x, y, "Moves", fmt.Sprintf("%d", a.Moves))
		y = r.DrawLabelValue(x, y, "Offspring", fmt.Sprintf("%d | kills %d", a.Children, a.Kills))
		y = r.DrawLabelValue(x, y, "State", agentState(a))
	}
	return y + pad
}

func parentLabel(id uint32) string {
	if id == 0 {
		return "initial"
	}
	return fmt.Sprintf("#%d", id)
}

func agentState(a game.AgentInfo) string {
	switch {
	case !a.Alive:
		return "dead"
	case !a.Active:
		return "newborn"
	}
	return "active"
}

func speciesColor(s components.Species) rl.Color {
	pal := renderer.DefaultPalette()
	switch s {
	case components.SpeciesPrey:
		return pal.Prey
	case components.SpeciesPredator:
		return pal.Predator
	case components.SpeciesCleaner:
		return pal.Cleaner
	}
	return rl.Gray
}
