package game

import (
	"log/slog"

	"github.com/pthm-cable/gridsoup/components"
	"github.com/pthm-cable/gridsoup/telemetry"
)

// recordPopulation writes the per-tick census row.
func (g *Game) recordPopulation() {
	if g.output == nil {
		return
	}
	err := g.output.WritePopulation(telemetry.PopulationRecord{
		Tick:       g.tick,
		Prey:       g.population[components.SpeciesPrey],
		Predators:  g.population[components.SpeciesPredator],
		Cleaners:   g.population[components.SpeciesCleaner],
		FieldTotal: g.field.Total(),
	})
	if err != nil {
		slog.Error("failed to write population", "error", err)
	}
}

// flushTelemetry closes the stats window when it is due and handles bookmarks.
func (g *Game) flushTelemetry() {
	if !g.collector.ShouldFlush(g.tick) {
		return
	}

	stats := g.collector.Flush(g.tick, g.sample())
	g.latestStats = stats
	perfStats := g.perf.Stats()

	if g.statsCallback != nil {
		g.statsCallback(stats)
	}

	if g.logStats {
		stats.LogStats()
		perfStats.LogStats()
	}

	if g.output != nil {
		if err := g.output.WriteTelemetry(stats); err != nil {
			slog.Error("failed to write telemetry", "error", err)
		}
		if err := g.output.WritePerf(perfStats, stats.WindowEndTick); err != nil {
			slog.Error("failed to write perf", "error", err)
		}
	}

	for _, bm := range g.bookmarks.Check(stats) {
		if g.logStats {
			bm.LogBookmark()
		}
		if g.output != nil {
			if err := g.output.WriteBookmark(bm); err != nil {
				slog.Error("failed to write bookmark", "error", err)
			}
		}
	}
}

// sample measures the living population for the window that just closed.
func (g *Game) sample() telemetry.Sample {
	s := telemetry.Sample{
		Population: g.population,
		FieldTotal: g.field.Total(),
		FieldMean:  g.field.Mean(),
		DirtyPct:   g.DirtyPercentage(),
		EmptyCells: g.grid.EmptyCells(),
	}

	query := g.agentFilter.Query()
	for query.Next() {
		_, vitals, org := query.Get()
		if !vitals.Alive {
			continue
		}
		g.lifetime.UpdateEnergy(org.ID, vitals.Energy)
		switch org.Species {
		case components.SpeciesPrey:
			s.PreyEnergies = append(s.PreyEnergies, vitals.Energy)
		case components.SpeciesPredator:
			s.PredEnergies = append(s.PredEnergies, vitals.Energy)
		}
	}
	return s
}
