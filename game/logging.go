package game

import (
	"log/slog"

	"github.com/pthm-cable/gridsoup/components"
)

func (g *Game) logRunStart(seed int64) {
	w := g.cfg.World
	slog.Info("simulation initialised",
		"seed", seed,
		"width", w.Width,
		"height", w.Height,
		"toroidal", w.Toroidal,
		"cell_capacity", w.CellCapacity,
		"prey", g.population[components.SpeciesPrey],
		"predators", g.population[components.SpeciesPredator],
		"cleaners", g.population[components.SpeciesCleaner],
		"activation", g.cfg.Scheduler.Activation,
		"output_dir", g.output.Dir(),
	)
}

func (g *Game) logRunEnd() {
	attrs := []any{
		"tick", g.tick,
		"finished", g.IsFinished(),
		"prey", g.population[components.SpeciesPrey],
		"predators", g.population[components.SpeciesPredator],
		"cleaners", g.population[components.SpeciesCleaner],
		"field_total", g.field.Total(),
	}
	if g.population[components.SpeciesCleaner] > 0 {
		attrs = append(attrs, "dirty_pct", g.DirtyPercentage())
	}
	slog.Info("simulation ended", attrs...)

	for _, sp := range components.AllSpecies {
		sum := g.lifetime.Summary(sp)
		if sum.Count == 0 {
			continue
		}
		slog.Info("lifetime summary",
			"species", sp.String(),
			"alive", sum.Count,
			"mean_kills", sum.MeanKills,
			"mean_children", sum.MeanChildren,
			"max_children", sum.MaxChildren,
			"mean_foraged", sum.MeanForaged,
		)
	}
}
