package systems

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/pthm-cable/gridsoup/components"
)

func TestPlaceRejectsOccupiedAndOutOfBounds(t *testing.T) {
	tw := newTestWorld(t, 4, 4, GridOptions{Capacity: 1}, 1)
	tw.add(t, components.SpeciesPrey, 1, 1, 5)

	_, err := tw.Spawn(SpawnRequest{Species: components.SpeciesPrey, Pos: components.Position{X: 1, Y: 1}, Energy: 5})
	if !errors.Is(err, ErrOccupiedCell) {
		t.Errorf("place into occupied cell: got %v, want ErrOccupiedCell", err)
	}
	_, err = tw.Spawn(SpawnRequest{Species: components.SpeciesPrey, Pos: components.Position{X: 4, Y: 0}, Energy: 5})
	if !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("place out of bounds: got %v, want ErrOutOfBounds", err)
	}
	if tw.grid.Len() != 1 {
		t.Errorf("grid holds %d agents, want 1", tw.grid.Len())
	}
	if n := tw.entityCount(); n != 1 {
		t.Errorf("failed spawns leaked entities: %d alive", n)
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		toroidal bool
		in       components.Position
		want     components.Position
		ok       bool
	}{
		{"inside", false, components.Position{X: 2, Y: 3}, components.Position{X: 2, Y: 3}, true},
		{"bounded left edge", false, components.Position{X: -1, Y: 0}, components.Position{X: -1, Y: 0}, false},
		{"bounded bottom edge", false, components.Position{X: 0, Y: 4}, components.Position{X: 0, Y: 4}, false},
		{"torus wraps negative", true, components.Position{X: -1, Y: 0}, components.Position{X: 3, Y: 0}, true},
		{"torus wraps past end", true, components.Position{X: 1, Y: 5}, components.Position{X: 1, Y: 1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tw := newTestWorld(t, 4, 4, GridOptions{Toroidal: tt.toroidal, Capacity: 1}, 1)
			got, ok := tw.grid.Normalize(tt.in)
			if got != tt.want || ok != tt.ok {
				t.Errorf("Normalize(%v) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.ok)
			}
			if tw.grid.InBounds(tt.in) != (tt.in == tt.want && tt.ok) {
				t.Errorf("InBounds(%v) = %v", tt.in, tw.grid.InBounds(tt.in))
			}
		})
	}
}

func TestPlaceTwiceFails(t *testing.T) {
	tw := newTestWorld(t, 4, 4, GridOptions{Capacity: 1}, 1)
	e := tw.add(t, components.SpeciesPrey, 0, 0, 5)
	if err := tw.grid.Place(e, components.Position{X: 2, Y: 2}); !errors.Is(err, ErrAlreadyPlaced) {
		t.Errorf("second place: got %v, want ErrAlreadyPlaced", err)
	}
}

func TestMove(t *testing.T) {
	tests := []struct {
		name     string
		toroidal bool
		to       components.Position
		want     components.Position
		err      error
	}{
		{"inside", false, components.Position{X: 2, Y: 1}, components.Position{X: 2, Y: 1}, nil},
		{"bounded edge", false, components.Position{X: -1, Y: 0}, components.Position{X: 0, Y: 0}, ErrOutOfBounds},
		{"toroidal wrap", true, components.Position{X: -1, Y: 0}, components.Position{X: 4, Y: 0}, nil},
		{"occupied", false, components.Position{X: 3, Y: 3}, components.Position{X: 0, Y: 0}, ErrOccupiedCell},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tw := newTestWorld(t, 5, 5, GridOptions{Toroidal: tt.toroidal, Capacity: 1}, 1)
			e := tw.add(t, components.SpeciesPrey, 0, 0, 5)
			tw.add(t, components.SpeciesPredator, 3, 3, 5)

			err := tw.grid.Move(e, tt.to)
			if tt.err == nil && err != nil {
				t.Fatalf("Move: %v", err)
			}
			if tt.err != nil && !errors.Is(err, tt.err) {
				t.Fatalf("Move: got %v, want %v", err, tt.err)
			}
			if got := tw.pos(e); got != tt.want {
				t.Errorf("position = %v, want %v", got, tt.want)
			}
			if where, _ := tw.grid.Where(e); where != tt.want {
				t.Errorf("grid cell = %v, want %v", where, tt.want)
			}
			tw.checkOccupancy(t)
		})
	}
}

func TestRemoveIsIdempotent(t *testing.T) {
	tw := newTestWorld(t, 3, 3, GridOptions{Capacity: 1}, 1)
	e := tw.add(t, components.SpeciesPrey, 1, 1, 5)
	tw.grid.Remove(e)
	tw.grid.Remove(e)
	if !tw.grid.IsEmpty(components.Position{X: 1, Y: 1}) {
		t.Error("cell should be empty after remove")
	}
	if tw.grid.EmptyCells() != 9 {
		t.Errorf("EmptyCells = %d, want 9", tw.grid.EmptyCells())
	}
}

func TestNeighborhood(t *testing.T) {
	tests := []struct {
		name     string
		w, h     int
		toroidal bool
		p        components.Position
		conn     components.Connectivity
		center   bool
		want     int
	}{
		{"corner orthogonal", 5, 5, false, components.Position{}, components.Orthogonal, false, 2},
		{"corner moore", 5, 5, false, components.Position{}, components.Moore, false, 3},
		{"interior moore with center", 5, 5, false, components.Position{X: 2, Y: 2}, components.Moore, true, 9},
		{"torus corner moore", 5, 5, true, components.Position{}, components.Moore, false, 8},
		{"tiny torus collapses duplicates", 2, 2, true, components.Position{}, components.Moore, false, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tw := newTestWorld(t, tt.w, tt.h, GridOptions{Toroidal: tt.toroidal, Capacity: 1}, 1)
			got := tw.grid.Neighborhood(nil, tt.p, tt.conn, tt.center)
			if len(got) != tt.want {
				t.Errorf("got %d cells %v, want %d", len(got), got, tt.want)
			}
		})
	}
}

func TestNeighborsReturnsOccupants(t *testing.T) {
	tw := newTestWorld(t, 5, 5, GridOptions{Capacity: 1}, 1)
	tw.add(t, components.SpeciesPredator, 2, 1, 5) // orthogonal
	tw.add(t, components.SpeciesPredator, 1, 1, 5) // diagonal
	tw.add(t, components.SpeciesPrey, 4, 4, 5)     // far

	center := components.Position{X: 2, Y: 2}
	if n := len(tw.grid.Neighbors(center, components.Orthogonal, false)); n != 1 {
		t.Errorf("orthogonal neighbours = %d, want 1", n)
	}
	if n := len(tw.grid.Neighbors(center, components.Moore, false)); n != 2 {
		t.Errorf("moore neighbours = %d, want 2", n)
	}
}

func TestFindRandomEmptySingleHole(t *testing.T) {
	tw := newTestWorld(t, 5, 5, GridOptions{Capacity: 1}, 1)
	hole := components.Position{X: 2, Y: 1}
	for y := 0; y < 5; y++ {
		for x := 0; x < 5; x++ {
			if (components.Position{X: x, Y: y}) == hole {
				continue
			}
			tw.add(t, components.SpeciesPredator, x, y, 5)
		}
	}

	rng := rand.New(rand.NewSource(7))
	center := components.Position{X: 2, Y: 2}
	for i := 0; i < 1000; i++ {
		got, err := tw.grid.FindRandomEmpty(center, components.Moore, rng)
		if err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
		if got != hole {
			t.Fatalf("call %d: got %v, want %v", i, got, hole)
		}
	}
}

func TestFindRandomEmptyNoneAvailable(t *testing.T) {
	tw := newTestWorld(t, 3, 3, GridOptions{Capacity: 1}, 1)
	for _, p := range []components.Position{{X: 1, Y: 0}, {X: 0, Y: 1}, {X: 2, Y: 1}, {X: 1, Y: 2}} {
		tw.add(t, components.SpeciesPrey, p.X, p.Y, 5)
	}
	_, err := tw.grid.FindRandomEmpty(components.Position{X: 1, Y: 1}, components.Orthogonal, rand.New(rand.NewSource(1)))
	if !errors.Is(err, ErrNoneAvailable) {
		t.Errorf("got %v, want ErrNoneAvailable", err)
	}
}

func TestMultiOccupancy(t *testing.T) {
	tw := newTestWorld(t, 3, 3, GridOptions{Capacity: 2}, 1)
	tw.add(t, components.SpeciesCleaner, 1, 1, 1)
	tw.add(t, components.SpeciesCleaner, 1, 1, 1)
	_, err := tw.Spawn(SpawnRequest{Species: components.SpeciesCleaner, Pos: components.Position{X: 1, Y: 1}, Energy: 1})
	if !errors.Is(err, ErrOccupiedCell) {
		t.Errorf("third agent in capacity-2 cell: got %v, want ErrOccupiedCell", err)
	}
	if n := tw.grid.Occupancy(components.Position{X: 1, Y: 1}); n != 2 {
		t.Errorf("occupancy = %d, want 2", n)
	}

	unlimited := newTestWorld(t, 1, 1, GridOptions{Toroidal: true, Capacity: Unlimited}, 1)
	for i := 0; i < 10; i++ {
		unlimited.add(t, components.SpeciesCleaner, 0, 0, 1)
	}
	if unlimited.grid.Len() != 10 {
		t.Errorf("unlimited grid holds %d agents, want 10", unlimited.grid.Len())
	}
}
