package game

import (
	"github.com/pthm-cable/gridsoup/systems"
	"github.com/pthm-cable/gridsoup/telemetry"
)

// Step advances the simulation by one tick. The phase order is fixed:
// snapshot, cleanup of dead agents, activation of newborns, one action per
// scheduled agent, then field regrowth.
func (g *Game) Step() {
	g.perf.StartTick()

	g.perf.StartPhase(telemetry.PhaseSnapshot)
	g.recordSnapshot()

	g.perf.StartPhase(telemetry.PhaseCleanup)
	g.cleanupDead()

	g.perf.StartPhase(telemetry.PhaseActivation)
	g.activateNewborns()

	g.perf.StartPhase(telemetry.PhaseAgents)
	g.scheduler.Step(g.rng, g.stepAgent)

	g.perf.StartPhase(telemetry.PhaseGrowth)
	g.field.GrowAll(g.cfg.Resource.GrowthRate)

	g.tick++

	g.perf.StartPhase(telemetry.PhaseTelemetry)
	g.recordPopulation()
	g.flushTelemetry()

	g.perf.EndTick()
}

// Run steps until IsFinished or maxSteps ticks have run (0 = no limit) and
// returns the number of ticks executed.
func (g *Game) Run(maxSteps int) int {
	n := 0
	for !g.IsFinished() && (maxSteps <= 0 || n < maxSteps) {
		g.Step()
		n++
	}
	return n
}

// recordSnapshot captures the grid for history and observers.
func (g *Game) recordSnapshot() {
	if len(g.observers) == 0 && !g.cfg.Telemetry.KeepHistory {
		return
	}
	snap := systems.TakeSnapshot(g.tick, g.grid, g.field, g.vitalsMap, g.orgMap)

	if g.cfg.Telemetry.KeepHistory {
		g.history = append(g.history, snap)
		if limit := g.cfg.Telemetry.HistoryLimit; limit > 0 && len(g.history) > limit {
			drop := len(g.history) - limit
			g.history = append(g.history[:0], g.history[drop:]...)
		}
	}
	for _, fn := range g.observers {
		fn(snap)
	}
}
