// Package main provides CMA-ES tuning of ecology parameters.
package main

import (
	"github.com/pthm-cable/creatures/config"
)

// ParamSpec defines a single tunable parameter.
type ParamSpec struct {
	Name    string  // Column name in the log
	Path    string  // Config path for logging
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Default value
}

// ParamVector holds the set of all tunable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of tunable parameters.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			// Metabolism
			{Name: "cost_scale", Path: "metabolism.cost_scale", Min: 0.00001, Max: 0.0002, Default: 0.00005},
			// Food
			{Name: "food_value", Path: "food.value", Min: 10, Max: 80, Default: 30},
			{Name: "food_interval", Path: "food.spawn_interval", Min: 20, Max: 500, Default: 100},
			{Name: "corpse_factor", Path: "food.corpse_factor", Min: 0, Max: 5, Default: 2},
			// Reproduction
			{Name: "min_health", Path: "reproduction.min_health", Min: 20, Max: 300, Default: 100},
			{Name: "cooldown", Path: "reproduction.cooldown", Min: 500, Max: 10000, Default: 3000},
			{Name: "asexual_share", Path: "reproduction.asexual_share", Min: 0.1, Max: 0.9, Default: 0.5},
			{Name: "sexual_share", Path: "reproduction.sexual_share", Min: 0.1, Max: 0.9, Default: 0.3},
			// Mutation
			{Name: "mutation_rate", Path: "mutation.rate", Min: 0.01, Max: 0.5, Default: 0.1},
			{Name: "mutation_sigma", Path: "mutation.sigma", Min: 0.01, Max: 0.4, Default: 0.1},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize converts raw parameter values to the [0,1] range.
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

// Clamp returns v with every value restricted to its bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		clamped[i] = min(max(v[i], spec.Min), spec.Max)
	}
	return clamped
}

// ApplyToConfig writes clamped parameter values into cfg. Order matches Specs.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	c := pv.Clamp(values)
	cfg.Metabolism.CostScale = c[0]
	cfg.Food.Value = c[1]
	cfg.Food.SpawnInterval = c[2]
	cfg.Food.CorpseFactor = c[3]
	cfg.Reproduction.MinHealth = c[4]
	cfg.Reproduction.Cooldown = c[5]
	cfg.Reproduction.AsexualShare = c[6]
	cfg.Reproduction.SexualShare = c[7]
	cfg.Mutation.Rate = c[8]
	cfg.Mutation.Sigma = c[9]
}

// ExtractFromConfig reads the current parameter values from cfg.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) []float64 {
	return []float64{
		cfg.Metabolism.CostScale,
		cfg.Food.Value,
		cfg.Food.SpawnInterval,
		cfg.Food.CorpseFactor,
		cfg.Reproduction.MinHealth,
		cfg.Reproduction.Cooldown,
		cfg.Reproduction.AsexualShare,
		cfg.Reproduction.SexualShare,
		cfg.Mutation.Rate,
		cfg.Mutation.Sigma,
	}
}
