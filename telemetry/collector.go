package telemetry

import (
	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/gridsoup/components"
)

// Sample is the population state measured at the end of a window.
type Sample struct {
	Population   [components.NumSpecies]int
	PreyEnergies []float64
	PredEnergies []float64
	FieldTotal   float64
	FieldMean    float64
	DirtyPct     float64
	EmptyCells   int
}

// Collector accumulates events within tick windows and produces WindowStats.
type Collector struct {
	windowTicks     int
	windowStartTick int

	births    [components.NumSpecies]int
	deaths    [components.NumSpecies]int
	causes    [components.CauseEaten + 1]int
	kills     int
	gained    float64
	foraged   float64
	cleaned   float64
	lifespans [components.NumSpecies][]float64
}

// NewCollector creates a collector that flushes every windowTicks ticks.
func NewCollector(windowTicks int) *Collector {
	if windowTicks < 1 {
		windowTicks = 1
	}
	return &Collector{windowTicks: windowTicks}
}

// WindowTicks returns the window length.
func (c *Collector) WindowTicks() int { return c.windowTicks }

// Record folds an event into the current window.
func (c *Collector) Record(ev Event) {
	switch ev.Type {
	case EventBirth:
		c.births[ev.Species]++
	case EventDeath:
		c.deaths[ev.Species]++
		c.causes[ev.Cause]++
		c.lifespans[ev.Species] = append(c.lifespans[ev.Species], float64(ev.Age))
	case EventKill:
		c.kills++
		c.gained += ev.Amount
	case EventForage:
		c.foraged += ev.Amount
	case EventClean:
		c.cleaned += ev.Amount
	}
}

// ShouldFlush reports whether the window ending at tick is complete.
func (c *Collector) ShouldFlush(tick int) bool {
	return tick-c.windowStartTick >= c.windowTicks
}

// Flush closes the window at tick, returns its stats and starts a new window.
func (c *Collector) Flush(tick int, s Sample) WindowStats {
	pred := s.Population[components.SpeciesPredator]
	span := tick - c.windowStartTick

	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   tick,
		PreyCount:       s.Population[components.SpeciesPrey],
		PredCount:       pred,
		CleanerCount:    s.Population[components.SpeciesCleaner],
		PreyBirths:      c.births[components.SpeciesPrey],
		PredBirths:      c.births[components.SpeciesPredator],
		PreyDeaths:      c.deaths[components.SpeciesPrey],
		PredDeaths:      c.deaths[components.SpeciesPredator],
		DeathsAge:       c.causes[components.CauseAge],
		DeathsStarved:   c.causes[components.CauseStarvation],
		DeathsEaten:     c.causes[components.CauseEaten],
		Kills:           c.kills,
		EnergyFromKills: c.gained,
		Foraged:         c.foraged,
		Cleaned:         c.cleaned,
		FieldTotal:      s.FieldTotal,
		FieldMean:       s.FieldMean,
		DirtyPct:        s.DirtyPct,
		EmptyCells:      s.EmptyCells,
	}
	if pred > 0 && span > 0 {
		stats.KillRate = float64(c.kills) / float64(pred) / float64(span)
	}

	stats.PreyEnergyMean, stats.PreyEnergyP10, stats.PreyEnergyP50, stats.PreyEnergyP90 = ComputeEnergyStats(s.PreyEnergies)
	stats.PredEnergyMean, stats.PredEnergyP10, stats.PredEnergyP50, stats.PredEnergyP90 = ComputeEnergyStats(s.PredEnergies)
	if l := c.lifespans[components.SpeciesPrey]; len(l) > 0 {
		stats.PreyLifespan = stat.Mean(l, nil)
	}
	if l := c.lifespans[components.SpeciesPredator]; len(l) > 0 {
		stats.PredLifespan = stat.Mean(l, nil)
	}

	c.reset(tick)
	return stats
}

func (c *Collector) reset(tick int) {
	lifespans := c.lifespans
	*c = Collector{windowTicks: c.windowTicks, windowStartTick: tick}
	for i := range lifespans {
		c.lifespans[i] = lifespans[i][:0]
	}
}
