package main

import (
	"math"
	"testing"

	"github.com/pthm-cable/boids/config"
)

func TestNormalizeRoundTrip(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	pv := NewParamVector(cfg)

	raw := pv.DefaultVector()
	back := pv.Denormalize(pv.Normalize(raw))
	for i := range raw {
		if math.Abs(raw[i]-back[i]) > 1e-9 {
			t.Errorf("%s: got %v, want %v", pv.Specs[i].Name, back[i], raw[i])
		}
	}
}

func TestClamp(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	pv := NewParamVector(cfg)

	got := pv.Clamp([]float64{-100, 12.6, 99})
	if got[0] != pv.Specs[0].Min {
		t.Errorf("cell size = %v, want %v", got[0], pv.Specs[0].Min)
	}
	if got[1] != 13 {
		t.Errorf("max per cell = %v, want 13", got[1])
	}
	if got[2] != pv.Specs[2].Max {
		t.Errorf("min per cell = %v, want %v", got[2], pv.Specs[2].Max)
	}
}

func TestApplyToConfigKeepsThresholdsOrdered(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	pv := NewParamVector(cfg)

	pv.ApplyToConfig(cfg, []float64{cfg.Grid.InitialCellSize, 5, 12})
	if cfg.Grid.MaxEntitiesPerCell != 5 {
		t.Errorf("max = %d, want 5", cfg.Grid.MaxEntitiesPerCell)
	}
	if cfg.Grid.MinEntitiesPerCell != 4 {
		t.Errorf("min = %d, want 4", cfg.Grid.MinEntitiesPerCell)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}
