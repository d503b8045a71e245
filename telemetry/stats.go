package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for a tick window.
type WindowStats struct {
	WindowStartTick int `csv:"-"`
	WindowEndTick   int `csv:"window_end"`

	// Population counts at window end
	PreyCount    int `csv:"prey"`
	PredCount    int `csv:"pred"`
	CleanerCount int `csv:"cleaners"`

	// Events during window
	PreyBirths    int `csv:"prey_births"`
	PredBirths    int `csv:"pred_births"`
	PreyDeaths    int `csv:"prey_deaths"`
	PredDeaths    int `csv:"pred_deaths"`
	DeathsAge     int `csv:"deaths_age"`
	DeathsStarved int `csv:"deaths_starved"`
	DeathsEaten   int `csv:"deaths_eaten"`

	// Hunting
	Kills           int     `csv:"kills"`
	KillRate        float64 `csv:"kill_rate"` // kills per predator per tick
	EnergyFromKills float64 `csv:"energy_from_kills"`

	// Resource flow
	Foraged float64 `csv:"foraged"`
	Cleaned float64 `csv:"cleaned"`

	// Energy distribution (sampled at window end)
	PreyEnergyMean float64 `csv:"prey_energy_mean"`
	PreyEnergyP10  float64 `csv:"prey_energy_p10"`
	PreyEnergyP50  float64 `csv:"prey_energy_p50"`
	PreyEnergyP90  float64 `csv:"prey_energy_p90"`

	PredEnergyMean float64 `csv:"pred_energy_mean"`
	PredEnergyP10  float64 `csv:"pred_energy_p10"`
	PredEnergyP50  float64 `csv:"pred_energy_p50"`
	PredEnergyP90  float64 `csv:"pred_energy_p90"`

	// Mean age at death of agents that died in the window
	PreyLifespan float64 `csv:"prey_lifespan"`
	PredLifespan float64 `csv:"pred_lifespan"`

	// Field and grid
	FieldTotal float64 `csv:"field_total"`
	FieldMean  float64 `csv:"field_mean"`
	DirtyPct   float64 `csv:"dirty_pct"`
	EmptyCells int     `csv:"empty_cells"`
}

// Percentile calculates the p-th percentile of a sorted slice using linear
// interpolation between closest ranks. p should be in [0, 1].
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}
	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// ComputeEnergyStats calculates mean and percentiles from energy values.
func ComputeEnergyStats(values []float64) (mean, p10, p50, p90 float64) {
	if len(values) == 0 {
		return 0, 0, 0, 0
	}
	mean = stat.Mean(values, nil)

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	return mean, Percentile(sorted, 0.10), Percentile(sorted, 0.50), Percentile(sorted, 0.90)
}

// CoefficientOfVariation returns stddev/mean of values, or 0 when the mean is 0.
func CoefficientOfVariation(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	mean, std := stat.PopMeanStdDev(values, nil)
	if mean == 0 {
		return 0
	}
	return std / mean
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_start", s.WindowStartTick),
		slog.Int("window_end", s.WindowEndTick),
		slog.Int("prey", s.PreyCount),
		slog.Int("pred", s.PredCount),
		slog.Int("cleaners", s.CleanerCount),
		slog.Int("prey_births", s.PreyBirths),
		slog.Int("pred_births", s.PredBirths),
		slog.Int("prey_deaths", s.PreyDeaths),
		slog.Int("pred_deaths", s.PredDeaths),
		slog.Int("deaths_age", s.DeathsAge),
		slog.Int("deaths_starved", s.DeathsStarved),
		slog.Int("deaths_eaten", s.DeathsEaten),
		slog.Int("kills", s.Kills),
		slog.Float64("kill_rate", s.KillRate),
		slog.Float64("foraged", s.Foraged),
		slog.Float64("cleaned", s.Cleaned),
		slog.Float64("prey_energy_mean", s.PreyEnergyMean),
		slog.Float64("prey_energy_p50", s.PreyEnergyP50),
		slog.Float64("pred_energy_mean", s.PredEnergyMean),
		slog.Float64("pred_energy_p50", s.PredEnergyP50),
		slog.Float64("prey_lifespan", s.PreyLifespan),
		slog.Float64("pred_lifespan", s.PredLifespan),
		slog.Float64("field_total", s.FieldTotal),
		slog.Float64("dirty_pct", s.DirtyPct),
		slog.Int("empty_cells", s.EmptyCells),
	)
}

// LogStats logs the headline numbers of the window.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"window_end", s.WindowEndTick,
		"prey", s.PreyCount,
		"pred", s.PredCount,
		"cleaners", s.CleanerCount,
		"births", s.PreyBirths+s.PredBirths,
		"deaths", s.PreyDeaths+s.PredDeaths,
		"kills", s.Kills,
		"field_mean", s.FieldMean,
	)
}
