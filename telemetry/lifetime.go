package telemetry

import (
	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/gridsoup/components"
)

// LifetimeStats tracks per-agent statistics over its lifetime.
type LifetimeStats struct {
	Species   components.Species
	ParentID  uint32
	BirthTick int

	Kills    int
	Children int

	PeakEnergy   float64
	TotalForaged float64 // prey: field resource eaten; cleaner: dirt removed
}

// LifetimeTracker manages per-agent lifetime statistics keyed by agent id.
type LifetimeTracker struct {
	stats map[uint32]*LifetimeStats
}

// NewLifetimeTracker creates a new lifetime tracker.
func NewLifetimeTracker() *LifetimeTracker {
	return &LifetimeTracker{
		stats: make(map[uint32]*LifetimeStats),
	}
}

// Register creates lifetime stats for a new agent.
func (lt *LifetimeTracker) Register(id uint32, birthTick int, species components.Species, parentID uint32) {
	lt.stats[id] = &LifetimeStats{
		Species:   species,
		ParentID:  parentID,
		BirthTick: birthTick,
	}
}

// Get returns the lifetime stats for an agent, or nil if not found.
func (lt *LifetimeTracker) Get(id uint32) *LifetimeStats {
	return lt.stats[id]
}

// Remove removes an agent's stats and returns them.
func (lt *LifetimeTracker) Remove(id uint32) *LifetimeStats {
	s := lt.stats[id]
	delete(lt.stats, id)
	return s
}

// RecordKill increments the kill count.
func (lt *LifetimeTracker) RecordKill(id uint32) {
	if s := lt.stats[id]; s != nil {
		s.Kills++
	}
}

// RecordChild increments the children count.
func (lt *LifetimeTracker) RecordChild(parentID uint32) {
	if s := lt.stats[parentID]; s != nil {
		s.Children++
	}
}

// RecordForage adds to the cumulative resource taken.
func (lt *LifetimeTracker) RecordForage(id uint32, amount float64) {
	if s := lt.stats[id]; s != nil {
		s.TotalForaged += amount
	}
}

// UpdateEnergy tracks peak energy.
func (lt *LifetimeTracker) UpdateEnergy(id uint32, energy float64) {
	if s := lt.stats[id]; s != nil && energy > s.PeakEnergy {
		s.PeakEnergy = energy
	}
}

// Count returns the number of tracked agents.
func (lt *LifetimeTracker) Count() int {
	return len(lt.stats)
}

// SpeciesSummary aggregates the lifetime stats of living agents of one species.
type SpeciesSummary struct {
	Species      components.Species
	Count        int
	MeanKills    float64
	MeanChildren float64
	MaxChildren  int
	MeanForaged  float64
}

// Summary aggregates the living agents of species s.
func (lt *LifetimeTracker) Summary(s components.Species) SpeciesSummary {
	sum := SpeciesSummary{Species: s}
	var kills, children, foraged []float64
	for _, ls := range lt.stats {
		if ls.Species != s {
			continue
		}
		sum.Count++
		kills = append(kills, float64(ls.Kills))
		children = append(children, float64(ls.Children))
		foraged = append(foraged, ls.TotalForaged)
		sum.MaxChildren = max(sum.MaxChildren, ls.Children)
	}
	if sum.Count > 0 {
		sum.MeanKills = stat.Mean(kills, nil)
		sum.MeanChildren = stat.Mean(children, nil)
		sum.MeanForaged = stat.Mean(foraged, nil)
	}
	return sum
}
