package main

import (
	"math"
	"time"

	"github.com/pthm-cable/genecars/config"
)

// ParamSpec is one tunable of the genetic algorithm and where it lives in
// the config.
type ParamSpec struct {
	Name    string
	Min     float64
	Max     float64
	Default float64

	get func(*config.Config) float64
	set func(*config.Config, float64)
}

// ParamVector is the search space CMA-ES explores. Search coordinates are
// normalized so every parameter spans [0,1].
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector returns the evolution tunables the optimizer searches.
func NewParamVector() *ParamVector {
	return &ParamVector{Specs: []ParamSpec{
		{
			Name: "mutation_rate", Min: 0.005, Max: 0.5, Default: 0.05,
			get: func(c *config.Config) float64 { return c.Evolution.MutationRate },
			set: func(c *config.Config, v float64) { c.Evolution.MutationRate = v },
		},
		{
			Name: "idle_timeout_ms", Min: 1000, Max: 10000, Default: 5000,
			get: func(c *config.Config) float64 { return float64(c.Evolution.IdleTimeoutMS) },
			set: func(c *config.Config, v float64) {
				c.Evolution.IdleTimeoutMS = int(math.Round(v))
				c.Derived.IdleTimeout = time.Duration(c.Evolution.IdleTimeoutMS) * time.Millisecond
			},
		},
		{
			Name: "progress_epsilon", Min: 0, Max: 0.05, Default: 0,
			get: func(c *config.Config) float64 { return c.Evolution.ProgressEpsilon },
			set: func(c *config.Config, v float64) { c.Evolution.ProgressEpsilon = v },
		},
	}}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default raw values.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize maps raw values into search coordinates.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	out := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		out[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return out
}

// Denormalize maps search coordinates back to raw values. The result may
// fall outside the bounds; use Clamp before applying it.
func (pv *ParamVector) Denormalize(x []float64) []float64 {
	out := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		out[i] = spec.Min + x[i]*(spec.Max-spec.Min)
	}
	return out
}

// Clamp limits every value to its parameter's bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	out := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		out[i] = math.Max(spec.Min, math.Min(spec.Max, v[i]))
	}
	return out
}

// ApplyToConfig writes clamped values into cfg.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	for i, v := range pv.Clamp(values) {
		pv.Specs[i].set(cfg, v)
	}
}

// ExtractFromConfig reads the current values from cfg.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) []float64 {
	out := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		out[i] = spec.get(cfg)
	}
	return out
}
