package systems

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/gridsoup/components"
)

// CellState is what an external consumer sees in a cell.
type CellState uint8

const (
	CellEmpty CellState = iota
	CellPrey
	CellPredator
	CellCleaner
)

func (c CellState) String() string {
	switch c {
	case CellPrey:
		return "prey"
	case CellPredator:
		return "predator"
	case CellCleaner:
		return "cleaner"
	}
	return "empty"
}

// Numeric codes used by Snapshot.Codes.
const (
	CodeEmpty    = 0
	CodeCleaner  = 1
	CodeDirt     = 2
	CodePrey     = 3
	CodePredator = 5
)

// Snapshot is an immutable copy of the grid at the start of a tick.
// States and Resource are row-major (index y*Width+x).
type Snapshot struct {
	Tick     int
	Width    int
	Height   int
	States   []CellState
	Resource []float64
}

// At returns the state of cell (x, y).
func (s Snapshot) At(x, y int) CellState {
	return s.States[y*s.Width+x]
}

// Count returns the number of cells in state c.
func (s Snapshot) Count(c CellState) int {
	var n int
	for _, st := range s.States {
		if st == c {
			n++
		}
	}
	return n
}

// Codes returns the numeric grid indexed [x][y]. Empty dirty cells are
// encoded as CodeDirt when dirt is true.
func (s Snapshot) Codes(dirt bool) [][]float64 {
	out := make([][]float64, s.Width)
	for x := range out {
		col := make([]float64, s.Height)
		for y := range col {
			i := y*s.Width + x
			switch s.States[i] {
			case CellPrey:
				col[y] = CodePrey
			case CellPredator:
				col[y] = CodePredator
			case CellCleaner:
				col[y] = CodeCleaner
			default:
				if dirt && s.Resource != nil && s.Resource[i] > 0 {
					col[y] = CodeDirt
				}
			}
		}
		out[x] = col
	}
	return out
}

// Equal reports whether two snapshots hold the same states and resource.
func (s Snapshot) Equal(o Snapshot) bool {
	if s.Tick != o.Tick || s.Width != o.Width || s.Height != o.Height {
		return false
	}
	if len(s.States) != len(o.States) || len(s.Resource) != len(o.Resource) {
		return false
	}
	for i := range s.States {
		if s.States[i] != o.States[i] {
			return false
		}
	}
	for i := range s.Resource {
		if s.Resource[i] != o.Resource[i] {
			return false
		}
	}
	return true
}

// TakeSnapshot captures grid and field state. Agents that are no longer
// alive read as empty. When several agents share a cell, a predator wins
// over prey, and prey over a cleaner.
func TakeSnapshot(tick int, grid *SpatialGrid, field *ResourceField,
	vitals *ecs.Map1[components.Vitals], orgs *ecs.Map1[components.Organism]) Snapshot {

	w, h := grid.Width(), grid.Height()
	s := Snapshot{
		Tick:   tick,
		Width:  w,
		Height: h,
		States: make([]CellState, w*h),
	}
	for i, cell := range grid.cells {
		state := CellEmpty
		for _, e := range cell {
			if !vitals.Get(e).Alive {
				continue
			}
			if st := stateOf(orgs.Get(e).Species); rank(st) > rank(state) {
				state = st
			}
		}
		s.States[i] = state
	}
	if field != nil {
		s.Resource = field.Values(nil)
	}
	return s
}

func stateOf(sp components.Species) CellState {
	switch sp {
	case components.SpeciesPredator:
		return CellPredator
	case components.SpeciesPrey:
		return CellPrey
	}
	return CellCleaner
}

func rank(c CellState) int {
	switch c {
	case CellPredator:
		return 3
	case CellPrey:
		return 2
	case CellCleaner:
		return 1
	}
	return 0
}
