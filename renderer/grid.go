// Package renderer draws grid snapshots with raylib.
package renderer

import (
	rl "github.com/gen2brain/raylib-go/raylib"
	"gonum.org/v1/gonum/floats"

	"github.com/pthm-cable/gridsoup/systems"
)

// Palette holds the colours used for each cell state.
type Palette struct {
	Background rl.Color
	Empty      rl.Color
	Resource   rl.Color // empty cell at full resource level
	Dirt       rl.Color
	Prey       rl.Color
	Predator   rl.Color
	Cleaner    rl.Color
	GridLine   rl.Color
}

// DefaultPalette returns the viewer colours.
func DefaultPalette() Palette {
	return Palette{
		Background: rl.Color{R: 18, G: 20, B: 24, A: 255},
		Empty:      rl.Color{R: 34, G: 30, B: 26, A: 255},
		Resource:   rl.Color{R: 46, G: 110, B: 52, A: 255},
		Dirt:       rl.Color{R: 120, G: 92, B: 60, A: 255},
		Prey:       rl.Color{R: 235, G: 220, B: 90, A: 255},
		Predator:   rl.Color{R: 220, G: 60, B: 60, A: 255},
		Cleaner:    rl.Color{R: 90, G: 170, B: 235, A: 255},
		GridLine:   rl.Color{R: 0, G: 0, B: 0, A: 60},
	}
}

// GridRenderer draws a Snapshot as a lattice of coloured squares.
type GridRenderer struct {
	Palette Palette

	// ShowResource shades empty cells by their resource level.
	ShowResource bool
	// Dirt draws empty cells with resource left as dirt instead of shading.
	Dirt bool
	// ShowGridLines outlines every cell.
	ShowGridLines bool
	// MaxResource is the level drawn at full colour; 0 scales to the
	// snapshot maximum.
	MaxResource float64

	originX, originY int32
	cellPixels       float32
}

// NewGridRenderer creates a renderer drawing cells of cellPixels size.
func NewGridRenderer(cellPixels float32) *GridRenderer {
	return &GridRenderer{
		Palette:      DefaultPalette(),
		ShowResource: true,
		cellPixels:   cellPixels,
	}
}

// SetOrigin moves the top-left corner of the grid on screen.
func (r *GridRenderer) SetOrigin(x, y int32) {
	r.originX, r.originY = x, y
}

// SetCellPixels changes the on-screen cell size.
func (r *GridRenderer) SetCellPixels(px float32) {
	r.cellPixels = px
}

// CellAt converts screen coordinates to a cell of s.
func (r *GridRenderer) CellAt(s *systems.Snapshot, sx, sy float32) (x, y int, ok bool) {
	if r.cellPixels <= 0 {
		return 0, 0, false
	}
	fx := (sx - float32(r.originX)) / r.cellPixels
	fy := (sy - float32(r.originY)) / r.cellPixels
	if fx < 0 || fy < 0 {
		return 0, 0, false
	}
	x, y = int(fx), int(fy)
	if x >= s.Width || y >= s.Height {
		return 0, 0, false
	}
	return x, y, true
}

// CellColor returns the fill colour of a cell in the given state with the
// given resource level.
func (r *GridRenderer) CellColor(state systems.CellState, resource, maxResource float64) rl.Color {
	p := r.Palette
	switch state {
	case systems.CellPrey:
		return p.Prey
	case systems.CellPredator:
		return p.Predator
	case systems.CellCleaner:
		return p.Cleaner
	}
	if r.Dirt {
		if resource > 0 {
			return p.Dirt
		}
		return p.Empty
	}
	if !r.ShowResource || maxResource <= 0 {
		return p.Empty
	}
	return lerpColor(p.Empty, p.Resource, resource/maxResource)
}

// Draw renders s. Must be called between rl.BeginDrawing and rl.EndDrawing.
func (r *GridRenderer) Draw(s *systems.Snapshot) {
	maxRes := r.MaxResource
	if maxRes <= 0 && len(s.Resource) > 0 {
		maxRes = floats.Max(s.Resource)
	}

	size := int32(r.cellPixels)
	if size < 1 {
		size = 1
	}
	rl.DrawRectangle(r.originX, r.originY, size*int32(s.Width), size*int32(s.Height), r.Palette.Background)

	for y := 0; y < s.Height; y++ {
		for x := 0; x < s.Width; x++ {
			i := y*s.Width + x
			var res float64
			if s.Resource != nil {
				res = s.Resource[i]
			}
			px := r.originX + int32(float32(x)*r.cellPixels)
			py := r.originY + int32(float32(y)*r.cellPixels)
			rl.DrawRectangle(px, py, size, size, r.CellColor(s.States[i], res, maxRes))
			if r.ShowGridLines && size > 3 {
				rl.DrawRectangleLines(px, py, size, size, r.Palette.GridLine)
			}
		}
	}
}

// HighlightCell outlines cell (x, y).
func (r *GridRenderer) HighlightCell(x, y int, c rl.Color) {
	size := int32(r.cellPixels)
	px := r.originX + int32(float32(x)*r.cellPixels)
	py := r.originY + int32(float32(y)*r.cellPixels)
	rl.DrawRectangleLines(px, py, size, size, c)
}

func lerpColor(a, b rl.Color, t float64) rl.Color {
	t = max(0, min(1, t))
	mix := func(x, y uint8) uint8 {
		return uint8(float64(x) + (float64(y)-float64(x))*t)
	}
	return rl.Color{R: mix(a.R, b.R), G: mix(a.G, b.G), B: mix(a.B, b.B), A: mix(a.A, b.A)}
}
