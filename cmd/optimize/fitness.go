package main

import (
	"log/slog"
	"math"
	"sync"

	"github.com/pthm-cable/gridsoup/config"
	"github.com/pthm-cable/gridsoup/game"
	"github.com/pthm-cable/gridsoup/telemetry"
)

// FitnessEvaluator runs headless simulations and computes fitness.
type FitnessEvaluator struct {
	params     *ParamVector
	maxTicks   int
	seeds      []int64
	baseConfig *config.Config

	mu          sync.Mutex
	lastQuality float64 // quality from most recent Evaluate call
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, maxTicks int, seeds []int64, baseCfg *config.Config) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:     params,
		maxTicks:   maxTicks,
		seeds:      seeds,
		baseConfig: baseCfg,
	}
}

// LastQuality returns the quality score from the most recent evaluation.
func (fe *FitnessEvaluator) LastQuality() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastQuality
}

// runResult holds the results from a single simulation run.
type runResult struct {
	survivalTicks int // ticks both species coexisted (maxTicks if they always did)
	windowStats   []telemetry.WindowStats
}

// Evaluate computes fitness for a raw parameter vector (lower = better).
// Seeds run in parallel on independent games.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	cfg := fe.configFor(x)

	fitness := make([]float64, len(fe.seeds))
	quality := make([]float64, len(fe.seeds))
	var wg sync.WaitGroup
	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s int64) {
			defer wg.Done()
			result := fe.runSimulation(cfg.Clone(), s)
			quality[idx] = computeQuality(result.windowStats)
			fitness[idx] = computeFitness(result.survivalTicks, quality[idx])
		}(i, seed)
	}
	wg.Wait()

	var totalFitness, totalQuality float64
	for i := range fe.seeds {
		totalFitness += fitness[i]
		totalQuality += quality[i]
	}
	n := float64(len(fe.seeds))

	fe.mu.Lock()
	fe.lastQuality = totalQuality / n
	fe.mu.Unlock()

	return totalFitness / n
}

// configFor returns a copy of the base config with x applied.
func (fe *FitnessEvaluator) configFor(x []float64) *config.Config {
	cfg := fe.baseConfig.Clone()
	fe.params.ApplyToConfig(cfg, x)
	cfg.Termination = config.TerminationConfig{MaxTicks: fe.maxTicks, StopOnExtinction: true}
	cfg.Telemetry.KeepHistory = false
	cfg.Recompute()
	return cfg
}

// runSimulation executes a single headless run until a species dies out or
// maxTicks is reached.
func (fe *FitnessEvaluator) runSimulation(cfg *config.Config, seed int64) runResult {
	var result runResult
	g, err := game.NewGameWithOptions(game.Options{
		Config: cfg,
		Seed:   seed,
		StatsCallback: func(stats telemetry.WindowStats) {
			result.windowStats = append(result.windowStats, stats)
		},
	})
	if err != nil {
		slog.Warn("invalid candidate", "error", err)
		return result
	}
	defer g.Close()

	g.Run(0)
	result.survivalTicks = g.Tick()
	return result
}

// computeFitness calculates the scalar fitness (lower = better).
// Formula: -(survivalTicks × (1.0 + 0.2 × quality))
func computeFitness(survivalTicks int, quality float64) float64 {
	return -(float64(survivalTicks) * (1.0 + 0.2*quality))
}

// Quality component weights.
const (
	qualityWeightRatio     = 0.40
	qualityWeightStability = 0.35
	qualityWeightHunting   = 0.25

	qualityWarmupWindows = 2 // skip first N windows
	qualityMinPop        = 3 // exclude windows where either species < this
	targetPreyPerPred    = 4.0
)

// computeQuality scores coexistence in [0, 1] from window stats.
func computeQuality(windows []telemetry.WindowStats) float64 {
	if len(windows) <= qualityWarmupWindows {
		return 0
	}

	var ratioSum, huntSum float64
	var preyCounts, predCounts []float64
	for _, w := range windows[qualityWarmupWindows:] {
		if w.PreyCount < qualityMinPop || w.PredCount < qualityMinPop {
			continue
		}
		preyCounts = append(preyCounts, float64(w.PreyCount))
		predCounts = append(predCounts, float64(w.PredCount))

		logErr := math.Log(float64(w.PreyCount) / float64(w.PredCount) / targetPreyPerPred)
		ratioSum += math.Exp(-logErr * logErr)

		// Saturating reward for predators that actually hunt.
		huntSum += 1 - math.Exp(-w.KillRate/0.05)
	}
	n := len(preyCounts)
	if n == 0 {
		return 0
	}

	stability := 0.0
	if n >= 2 {
		cvPrey := telemetry.CoefficientOfVariation(preyCounts)
		cvPred := telemetry.CoefficientOfVariation(predCounts)
		stability = math.Exp(-(cvPrey*cvPrey + cvPred*cvPred))
	}

	quality := qualityWeightRatio*ratioSum/float64(n) +
		qualityWeightStability*stability +
		qualityWeightHunting*huntSum/float64(n)
	return math.Max(0, math.Min(1, quality))
}

