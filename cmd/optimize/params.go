package main

import (
	"math"

	"github.com/pthm-cable/citywalk/config"
)

// ParamSpec defines a single optimizable parameter.
type ParamSpec struct {
	Name    string  // Human-readable name
	Path    string  // Config path for logging
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Default value
}

// ParamVector holds the set of all optimizable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the handoff parameter set.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			{Name: "hz", Path: "handoff.hz", Min: 1, Max: 15, Default: 4},
			{Name: "distance", Path: "handoff.distance", Min: 2, Max: 30, Default: 10},
			{Name: "force_radius", Path: "handoff.force_radius", Min: 2, Max: 20, Default: 8},
			{Name: "min_spacing", Path: "handoff.min_spacing", Min: 0.5, Max: 6, Default: 2.5},
			{Name: "road_corridor", Path: "handoff.road_corridor", Min: 0.5, Max: 4, Default: 1.5},
			{Name: "min_per_tick", Path: "handoff.min_per_tick", Min: 0, Max: 4, Default: 1},
			{Name: "extra_per_tick", Path: "handoff.max_per_tick - min_per_tick", Min: 0, Max: 12, Default: 5},
			{Name: "speed_for_max", Path: "handoff.speed_for_max", Min: 3, Max: 30, Default: 15},
			{Name: "lock_time", Path: "handoff.lock_time", Min: 0.2, Max: 3, Default: 1},
			{Name: "fade_in", Path: "handoff.fade_in", Min: 0.2, Max: 2, Default: 0.8},
			{Name: "fade_out_ratio", Path: "handoff.fade_out / fade_in", Min: 0.2, Max: 1, Default: 0.75},
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

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		clamped[i] = math.Max(spec.Min, math.Min(spec.Max, v[i]))
	}
	return clamped
}

// ApplyToConfig applies parameter values to a Config struct.
// Order must match Specs order.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	c := pv.Clamp(values)
	h := &cfg.Handoff
	h.Hz = c[0]
	h.Distance = c[1]
	h.ForceRadius = c[2]
	h.MinSpacing = c[3]
	h.RoadCorridor = c[4]
	h.MinPerTick = int(math.Round(c[5]))
	h.MaxPerTick = h.MinPerTick + int(math.Round(c[6]))
	h.SpeedForMax = c[7]
	h.LockTime = c[8]
	h.FadeIn = c[9]
	h.FadeOut = c[9] * c[10]
	cfg.ComputeDerived()
}

// ExtractFromConfig extracts current parameter values from a Config struct.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) []float64 {
	h := cfg.Handoff
	ratio := 1.0
	if h.FadeIn > 0 {
		ratio = h.FadeOut / h.FadeIn
	}
	return []float64{
		h.Hz,
		h.Distance,
		h.ForceRadius,
		h.MinSpacing,
		h.RoadCorridor,
		float64(h.MinPerTick),
		float64(h.MaxPerTick - h.MinPerTick),
		h.SpeedForMax,
		h.LockTime,
		h.FadeIn,
		ratio,
	}
}
