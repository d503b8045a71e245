package renderer

import (
	"testing"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/gridsoup/systems"
)

func TestCellColor(t *testing.T) {
	r := NewGridRenderer(10)
	p := r.Palette

	tests := []struct {
		name  string
		dirt  bool
		state systems.CellState
		res   float64
		want  rl.Color
	}{
		{"prey wins over resource", false, systems.CellPrey, 5, p.Prey},
		{"predator", false, systems.CellPredator, 0, p.Predator},
		{"cleaner", true, systems.CellCleaner, 1, p.Cleaner},
		{"bare cell", false, systems.CellEmpty, 0, p.Empty},
		{"full resource", false, systems.CellEmpty, 10, p.Resource},
		{"dirty cell", true, systems.CellEmpty, 1, p.Dirt},
		{"clean cell", true, systems.CellEmpty, 0, p.Empty},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r.Dirt = tt.dirt
			if got := r.CellColor(tt.state, tt.res, 10); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCellAt(t *testing.T) {
	r := NewGridRenderer(8)
	r.SetOrigin(20, 40)
	s := &systems.Snapshot{Width: 5, Height: 4}

	tests := []struct {
		sx, sy float32
		x, y   int
		ok     bool
	}{
		{20, 40, 0, 0, true},
		{27.9, 47.9, 0, 0, true},
		{28, 48, 1, 1, true},
		{59, 71, 4, 3, true},
		{60, 40, 0, 0, false},
		{19, 40, 0, 0, false},
	}
	for _, tt := range tests {
		x, y, ok := r.CellAt(s, tt.sx, tt.sy)
		if ok != tt.ok || (ok && (x != tt.x || y != tt.y)) {
			t.Errorf("CellAt(%v,%v) = %d,%d,%v want %d,%d,%v", tt.sx, tt.sy, x, y, ok, tt.x, tt.y, tt.ok)
		}
	}
}
