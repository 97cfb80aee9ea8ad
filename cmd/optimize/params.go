package main

import (
	"math"

	"github.com/pthm-cable/boids/config"
)

// ParamSpec defines a single optimizable parameter.
type ParamSpec struct {
	Name    string  // Human-readable name
	Path    string  // Config path for logging
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Default value
	Integer bool    // Rounded before use
}

// ParamVector holds the set of all optimizable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the grid tuning parameters. Bounds for the cell
// size follow the base config's min and max cell size.
func NewParamVector(base *config.Config) *ParamVector {
	g := base.Grid
	return &ParamVector{
		Specs: []ParamSpec{
			{Name: "initial_cell_size", Path: "grid.initial_cell_size", Min: g.MinCellSize, Max: g.MaxCellSize, Default: g.InitialCellSize},
			{Name: "max_entities_per_cell", Path: "grid.max_entities_per_cell", Min: 4, Max: 40, Default: float64(g.MaxEntitiesPerCell), Integer: true},
			{Name: "min_entities_per_cell", Path: "grid.min_entities_per_cell", Min: 0, Max: 12, Default: float64(g.MinEntitiesPerCell), Integer: true},
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

// Clamp ensures all values are within bounds and integers are rounded.
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
// The min entity threshold is kept strictly below the max.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	clamped := pv.Clamp(values)

	cfg.Grid.InitialCellSize = clamped[0]
	cfg.Grid.MaxEntitiesPerCell = int(clamped[1])
	cfg.Grid.MinEntitiesPerCell = min(int(clamped[2]), cfg.Grid.MaxEntitiesPerCell-1)
}
