// Package systems provides ECS systems for the simulation.
package systems

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/gridsoup/components"
)

// Grid and field errors. Returned errors wrap these with the offending cell.
var (
	ErrOutOfBounds   = errors.New("position out of bounds")
	ErrOccupiedCell  = errors.New("cell is occupied")
	ErrNoneAvailable = errors.New("no cell available")
	ErrAlreadyPlaced = errors.New("agent already placed")
	ErrNotPlaced     = errors.New("agent not placed")
)

// Unlimited is the cell capacity of a grid without an occupancy limit.
const Unlimited = 0

// GridOptions configures a SpatialGrid.
type GridOptions struct {
	Toroidal bool
	Capacity int // agents per cell, Unlimited for no limit
}

// SpatialGrid is the lattice index of agent positions. Every placed entity
// occupies exactly one cell, and its Position component is kept equal to
// that cell.
type SpatialGrid struct {
	width    int
	height   int
	toroidal bool
	capacity int
	cells    [][]ecs.Entity
	where    map[ecs.Entity]int
	occupied int // cells holding at least one agent
	posMap   *ecs.Map1[components.Position]
}

// NewSpatialGrid creates an empty grid. posMap receives position updates.
func NewSpatialGrid(width, height int, opts GridOptions, posMap *ecs.Map1[components.Position]) *SpatialGrid {
	cells := make([][]ecs.Entity, width*height)
	return &SpatialGrid{
		width:    width,
		height:   height,
		toroidal: opts.Toroidal,
		capacity: opts.Capacity,
		cells:    cells,
		where:    make(map[ecs.Entity]int),
		posMap:   posMap,
	}
}

func (g *SpatialGrid) Width() int     { return g.width }
func (g *SpatialGrid) Height() int    { return g.height }
func (g *SpatialGrid) Toroidal() bool { return g.toroidal }
func (g *SpatialGrid) Capacity() int  { return g.capacity }

// Len returns the number of placed agents.
func (g *SpatialGrid) Len() int { return len(g.where) }

// Normalize maps p onto the lattice: wrapped on a torus, rejected otherwise.
func (g *SpatialGrid) Normalize(p components.Position) (components.Position, bool) {
	if g.toroidal {
		p.X = ((p.X % g.width) + g.width) % g.width
		p.Y = ((p.Y % g.height) + g.height) % g.height
		return p, true
	}
	return p, g.InBounds(p)
}

// InBounds reports whether p lies inside the lattice without wrapping.
func (g *SpatialGrid) InBounds(p components.Position) bool {
	return p.X >= 0 && p.X < g.width && p.Y >= 0 && p.Y < g.height
}

func (g *SpatialGrid) index(p components.Position) int {
	return p.Y*g.width + p.X
}

func (g *SpatialGrid) position(idx int) components.Position {
	return components.Position{X: idx % g.width, Y: idx / g.width}
}

func (g *SpatialGrid) hasRoom(idx int) bool {
	return g.capacity == Unlimited || len(g.cells[idx]) < g.capacity
}

// Place records e at p.
func (g *SpatialGrid) Place(e ecs.Entity, p components.Position) error {
	if _, ok := g.where[e]; ok {
		return fmt.Errorf("place at %v: %w", p, ErrAlreadyPlaced)
	}
	np, ok := g.Normalize(p)
	if !ok {
		return fmt.Errorf("place at %v: %w", p, ErrOutOfBounds)
	}
	idx := g.index(np)
	if !g.hasRoom(idx) {
		return fmt.Errorf("place at %v: %w", np, ErrOccupiedCell)
	}
	g.insert(e, idx)
	*g.posMap.Get(e) = np
	return nil
}

// Move relocates e to p, vacating its old cell. On error nothing changes.
func (g *SpatialGrid) Move(e ecs.Entity, p components.Position) error {
	from, ok := g.where[e]
	if !ok {
		return fmt.Errorf("move to %v: %w", p, ErrNotPlaced)
	}
	np, ok := g.Normalize(p)
	if !ok {
		return fmt.Errorf("move to %v: %w", p, ErrOutOfBounds)
	}
	to := g.index(np)
	if to == from {
		return nil
	}
	if !g.hasRoom(to) {
		return fmt.Errorf("move to %v: %w", np, ErrOccupiedCell)
	}
	g.extract(e, from)
	g.insert(e, to)
	*g.posMap.Get(e) = np
	return nil
}

// Remove vacates e's cell. Removing an agent that is not placed is a no-op.
func (g *SpatialGrid) Remove(e ecs.Entity) {
	idx, ok := g.where[e]
	if !ok {
		return
	}
	g.extract(e, idx)
}

func (g *SpatialGrid) insert(e ecs.Entity, idx int) {
	if len(g.cells[idx]) == 0 {
		g.occupied++
	}
	g.cells[idx] = append(g.cells[idx], e)
	g.where[e] = idx
}

func (g *SpatialGrid) extract(e ecs.Entity, idx int) {
	cell := g.cells[idx]
	for i, other := range cell {
		if other == e {
			// Preserve order so neighbour queries stay deterministic.
			g.cells[idx] = append(cell[:i], cell[i+1:]...)
			break
		}
	}
	if len(g.cells[idx]) == 0 {
		g.occupied--
	}
	delete(g.where, e)
}

// Where returns the cell e occupies.
func (g *SpatialGrid) Where(e ecs.Entity) (components.Position, bool) {
	idx, ok := g.where[e]
	if !ok {
		return components.Position{}, false
	}
	return g.position(idx), true
}

// At returns the agents in cell p. The slice is owned by the grid and is only
// valid until the next mutation.
func (g *SpatialGrid) At(p components.Position) []ecs.Entity {
	np, ok := g.Normalize(p)
	if !ok {
		return nil
	}
	return g.cells[g.index(np)]
}

// Occupancy returns the number of agents in p, or 0 when p is off the lattice.
func (g *SpatialGrid) Occupancy(p components.Position) int {
	return len(g.At(p))
}

// IsEmpty reports whether p is on the lattice and holds no agent.
func (g *SpatialGrid) IsEmpty(p components.Position) bool {
	np, ok := g.Normalize(p)
	if !ok {
		return false
	}
	return len(g.cells[g.index(np)]) == 0
}

// HasRoom reports whether another agent may be placed at p.
func (g *SpatialGrid) HasRoom(p components.Position) bool {
	np, ok := g.Normalize(p)
	if !ok {
		return false
	}
	return g.hasRoom(g.index(np))
}

// EmptyCells returns the number of cells holding no agent.
func (g *SpatialGrid) EmptyCells() int {
	return len(g.cells) - g.occupied
}

// HasEmptyCells reports whether at least one cell is empty.
func (g *SpatialGrid) HasEmptyCells() bool {
	return g.occupied < len(g.cells)
}

// Neighborhood appends the distinct lattice cells around p to dst. Off-lattice
// cells are skipped on a bounded grid; on a small torus wrapped duplicates are
// collapsed.
func (g *SpatialGrid) Neighborhood(dst []components.Position, p components.Position, conn components.Connectivity, includeCenter bool) []components.Position {
	start := len(dst)
	if includeCenter {
		if np, ok := g.Normalize(p); ok {
			dst = append(dst, np)
		}
	}
	for _, d := range conn.Offsets() {
		np, ok := g.Normalize(p.Add(d))
		if !ok {
			continue
		}
		if g.toroidal && containsPosition(dst[start:], np) {
			continue
		}
		dst = append(dst, np)
	}
	return dst
}

func containsPosition(ps []components.Position, p components.Position) bool {
	for _, q := range ps {
		if q == p {
			return true
		}
	}
	return false
}

// Neighbors returns the agents in the neighbourhood of p, cell by cell in
// offset order.
func (g *SpatialGrid) Neighbors(p components.Position, conn components.Connectivity, includeCenter bool) []ecs.Entity {
	var cellsBuf [9]components.Position
	var out []ecs.Entity
	for _, c := range g.Neighborhood(cellsBuf[:0], p, conn, includeCenter) {
		out = append(out, g.cells[g.index(c)]...)
	}
	return out
}

// EmptyNeighbors appends the empty cells around p to dst.
func (g *SpatialGrid) EmptyNeighbors(dst []components.Position, p components.Position, conn components.Connectivity) []components.Position {
	var cellsBuf [8]components.Position
	for _, c := range g.Neighborhood(cellsBuf[:0], p, conn, false) {
		if len(g.cells[g.index(c)]) == 0 {
			dst = append(dst, c)
		}
	}
	return dst
}

// FindRandomEmpty returns a uniformly chosen empty neighbour of p, or
// ErrNoneAvailable when every neighbour is occupied or off the lattice.
func (g *SpatialGrid) FindRandomEmpty(p components.Position, conn components.Connectivity, rng *rand.Rand) (components.Position, error) {
	var buf [8]components.Position
	empty := g.EmptyNeighbors(buf[:0], p, conn)
	if len(empty) == 0 {
		return components.Position{}, fmt.Errorf("empty neighbour of %v: %w", p, ErrNoneAvailable)
	}
	return empty[rng.Intn(len(empty))], nil
}
