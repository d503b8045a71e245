// Package main provides CMA-ES optimization for grid soup species parameters.
package main

import (
	"math"

	"github.com/pthm-cable/gridsoup/config"
)

// ParamSpec defines a single optimizable parameter.
type ParamSpec struct {
	Name    string  // Human-readable name
	Path    string  // Config path for logging
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Default value
	Integer bool    // rounded before use
}

// ParamVector holds the set of all optimizable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of optimizable parameters.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			// Prey
			{Name: "prey_metabolic_rate", Path: "species.prey.metabolic_rate", Min: 0.5, Max: 6, Default: 3},
			{Name: "prey_repro_age", Path: "species.prey.min_reproduction_age", Min: 2, Max: 20, Default: 10, Integer: true},
			{Name: "prey_max_age", Path: "species.prey.max_age", Min: 10, Max: 60, Default: 25, Integer: true},
			{Name: "prey_repro_thresh", Path: "species.prey.reproduction_threshold", Min: 10, Max: 44, Default: 40},
			{Name: "prey_repro_prob", Path: "species.prey.reproduction_probability", Min: 0.05, Max: 1, Default: 0.5},
			{Name: "prey_energy_value", Path: "species.prey.energy_value", Min: 5, Max: 80, Default: 30},
			// Predator
			{Name: "pred_metabolic_rate", Path: "species.predator.metabolic_rate", Min: 0.5, Max: 10, Default: 3},
			{Name: "pred_repro_age", Path: "species.predator.min_reproduction_age", Min: 2, Max: 30, Default: 10, Integer: true},
			{Name: "pred_max_age", Path: "species.predator.max_age", Min: 20, Max: 120, Default: 50, Integer: true},
			{Name: "pred_repro_thresh", Path: "species.predator.reproduction_threshold", Min: 40, Max: 195, Default: 120},
			{Name: "pred_repro_prob", Path: "species.predator.reproduction_probability", Min: 0.05, Max: 1, Default: 0.5},
			// Resource
			{Name: "growth_rate", Path: "resource.growth_rate", Min: 0.1, Max: 5, Default: 1},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds and integer parameters are
// whole.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		val := math.Max(spec.Min, math.Min(spec.Max, v[i]))
		if spec.Integer {
			val = math.Round(val)
		}
		clamped[i] = val
	}
	return clamped
}

// ApplyToConfig applies parameter values to a Config struct.
// Order must match Specs order.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	c := pv.Clamp(values)
	prey := &cfg.Species.Prey
	pred := &cfg.Species.Predator

	prey.MetabolicRate = c[0]
	prey.MinReproductionAge = int(c[1])
	prey.MaxAge = int(c[2])
	prey.ReproductionThreshold = min(c[3], prey.Capacity)
	prey.ReproductionProbability = c[4]
	prey.EnergyValue = c[5]

	pred.MetabolicRate = c[6]
	pred.MinReproductionAge = int(c[7])
	pred.MaxAge = int(c[8])
	pred.ReproductionThreshold = min(c[9], pred.Capacity)
	pred.ReproductionProbability = c[10]

	cfg.Resource.GrowthRate = c[11]
}

// ExtractFromConfig extracts current parameter values from a Config struct.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) []float64 {
	prey, pred := cfg.Species.Prey, cfg.Species.Predator
	return []float64{
		prey.MetabolicRate,
		float64(prey.MinReproductionAge),
		float64(prey.MaxAge),
		prey.ReproductionThreshold,
		prey.ReproductionProbability,
		prey.EnergyValue,
		pred.MetabolicRate,
		float64(pred.MinReproductionAge),
		float64(pred.MaxAge),
		pred.ReproductionThreshold,
		pred.ReproductionProbability,
		cfg.Resource.GrowthRate,
	}
}
