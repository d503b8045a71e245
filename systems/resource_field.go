package systems

import (
	"fmt"
	"math/rand"

	"github.com/ojrac/opensimplex-go"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/pthm-cable/gridsoup/components"
	"github.com/pthm-cable/gridsoup/config"
)

// ResourceField is the regenerating floor: one non-negative value per cell.
// Reads and writes are bounds-checked and fail with ErrOutOfBounds.
type ResourceField struct {
	width, height int
	maxLevel      float64 // 0 = unbounded growth
	grid          *mat.Dense
}

// NewResourceField creates a field with every cell set to fill.
func NewResourceField(width, height int, fill float64) *ResourceField {
	rf := &ResourceField{
		width:  width,
		height: height,
		grid:   mat.NewDense(height, width, nil),
	}
	if fill > 0 {
		rf.Fill(fill)
	}
	return rf
}

// NewResourceFieldFromConfig builds an initial field: uniform fill, optional
// simplex patchiness keyed by seed, then dirt placed with rng.
func NewResourceFieldFromConfig(width, height int, r config.ResourceConfig, seed int64, rng *rand.Rand) *ResourceField {
	rf := NewResourceField(width, height, r.InitialFill)
	rf.SetMaxLevel(r.MaxLevel)
	if r.Patchiness > 0 {
		rf.ApplyPatchiness(seed, r.Patchiness, r.PatchScale)
	}
	if r.DirtyFraction > 0 {
		rf.SeedDirt(r.DirtyFraction, r.DirtyLevel, rng)
	}
	return rf
}

// SetMaxLevel bounds GrowAll. 0 disables the bound.
func (rf *ResourceField) SetMaxLevel(level float64) {
	rf.maxLevel = max(level, 0)
}

func (rf *ResourceField) Width() int  { return rf.width }
func (rf *ResourceField) Height() int { return rf.height }

func (rf *ResourceField) data() []float64 {
	return rf.grid.RawMatrix().Data
}

func (rf *ResourceField) check(p components.Position) error {
	if p.X < 0 || p.X >= rf.width || p.Y < 0 || p.Y >= rf.height {
		return fmt.Errorf("field cell %v: %w", p, ErrOutOfBounds)
	}
	return nil
}

// At returns the value at p.
func (rf *ResourceField) At(p components.Position) (float64, error) {
	if err := rf.check(p); err != nil {
		return 0, err
	}
	return rf.grid.At(p.Y, p.X), nil
}

// Consume removes up to amount from p and returns what was actually taken.
// The cell never drops below zero.
func (rf *ResourceField) Consume(p components.Position, amount float64) (float64, error) {
	if err := rf.check(p); err != nil {
		return 0, err
	}
	if amount <= 0 {
		return 0, nil
	}
	avail := rf.grid.At(p.Y, p.X)
	taken := min(amount, avail)
	rf.grid.Set(p.Y, p.X, avail-taken)
	return taken, nil
}

// Deposit adds amount to p. Non-positive amounts are ignored.
func (rf *ResourceField) Deposit(p components.Position, amount float64) error {
	if err := rf.check(p); err != nil {
		return err
	}
	if amount <= 0 {
		return nil
	}
	rf.grid.Set(p.Y, p.X, rf.grid.At(p.Y, p.X)+amount)
	return nil
}

// GrowAll adds rate to every cell, clamped to the max level when one is set.
func (rf *ResourceField) GrowAll(rate float64) {
	if rate <= 0 {
		return
	}
	d := rf.data()
	floats.AddConst(rate, d)
	if rf.maxLevel > 0 {
		for i, v := range d {
			if v > rf.maxLevel {
				d[i] = rf.maxLevel
			}
		}
	}
}

// Fill sets every cell to level.
func (rf *ResourceField) Fill(level float64) {
	level = max(level, 0)
	d := rf.data()
	for i := range d {
		d[i] = level
	}
}

// ApplyPatchiness modulates the current values with simplex noise. amount in
// [0,1] blends between a uniform field (0) and values ranging over [0, 2v] (1).
func (rf *ResourceField) ApplyPatchiness(seed int64, amount, scale float64) {
	if amount <= 0 {
		return
	}
	amount = min(amount, 1)
	noise := opensimplex.NewNormalized(seed)
	for y := 0; y < rf.height; y++ {
		for x := 0; x < rf.width; x++ {
			n := noise.Eval2(float64(x)*scale, float64(y)*scale)
			factor := (1 - amount) + amount*2*n
			rf.grid.Set(y, x, max(rf.grid.At(y, x)*factor, 0))
		}
	}
}

// SeedDirt sets exactly floor(fraction*cells) distinct random cells to level.
func (rf *ResourceField) SeedDirt(fraction, level float64, rng *rand.Rand) int {
	if fraction <= 0 || level <= 0 {
		return 0
	}
	d := rf.data()
	n := int(float64(len(d)) * min(fraction, 1))
	for _, idx := range rng.Perm(len(d))[:n] {
		d[idx] = level
	}
	return n
}

// Total returns the sum over all cells.
func (rf *ResourceField) Total() float64 {
	return floats.Sum(rf.data())
}

// Mean returns the average cell value.
func (rf *ResourceField) Mean() float64 {
	d := rf.data()
	if len(d) == 0 {
		return 0
	}
	return floats.Sum(d) / float64(len(d))
}

// AllEmpty reports whether every cell is zero.
func (rf *ResourceField) AllEmpty() bool {
	d := rf.data()
	return len(d) == 0 || floats.Max(d) <= 0
}

// NonZeroFraction returns the share of cells with a positive value.
func (rf *ResourceField) NonZeroFraction() float64 {
	d := rf.data()
	if len(d) == 0 {
		return 0
	}
	var n int
	for _, v := range d {
		if v > 0 {
			n++
		}
	}
	return float64(n) / float64(len(d))
}

// Values copies the field into dst in row-major order (index y*width+x).
func (rf *ResourceField) Values(dst []float64) []float64 {
	return append(dst[:0], rf.data()...)
}
