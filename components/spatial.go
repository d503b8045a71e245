package components

// Position is an agent's lattice cell.
type Position struct {
	X, Y int
}

// Add returns p offset by d.
func (p Position) Add(d Position) Position {
	return Position{X: p.X + d.X, Y: p.Y + d.Y}
}

// Connectivity selects a neighbourhood shape.
type Connectivity uint8

const (
	Orthogonal Connectivity = 4 // von Neumann: N, S, E, W
	Moore      Connectivity = 8 // orthogonal plus diagonals
)

var (
	orthogonalOffsets = []Position{{0, -1}, {-1, 0}, {1, 0}, {0, 1}}
	mooreOffsets      = []Position{
		{-1, -1}, {0, -1}, {1, -1},
		{-1, 0}, {1, 0},
		{-1, 1}, {0, 1}, {1, 1},
	}
)

// Offsets returns the neighbour offsets in a fixed order. The slice is shared;
// callers must not modify it.
func (c Connectivity) Offsets() []Position {
	if c == Moore {
		return mooreOffsets
	}
	return orthogonalOffsets
}

// ConnectivityFrom maps a config value (4 or 8) to a Connectivity.
func ConnectivityFrom(n int) Connectivity {
	if n == 8 {
		return Moore
	}
	return Orthogonal
}
