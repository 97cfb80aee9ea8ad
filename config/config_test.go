package config

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if cfg.Physics.DT != 0.1 {
		t.Errorf("dt = %v, want 0.1", cfg.Physics.DT)
	}
	if cfg.Boids.HungerStart != 75 || cfg.Boids.HungerPerSecond != 2 {
		t.Errorf("hunger = %v @ %v/s, want 75 @ 2/s", cfg.Boids.HungerStart, cfg.Boids.HungerPerSecond)
	}
	if cfg.Hunting.Threshold != 0.8 || cfg.Hunting.CloseEnough != 5 {
		t.Errorf("hunting = %+v", cfg.Hunting)
	}
	if cfg.Derived.HalfWidth != cfg.World.Width/2 {
		t.Errorf("HalfWidth = %v, want %v", cfg.Derived.HalfWidth, cfg.World.Width/2)
	}
	if cfg.Derived.TicksPerWindow != 100 {
		t.Errorf("TicksPerWindow = %d, want 100", cfg.Derived.TicksPerWindow)
	}
	if math.Abs(cfg.Derived.CloseEnoughRadius-math.Sqrt(5)) > 1e-12 {
		t.Errorf("CloseEnoughRadius = %v", cfg.Derived.CloseEnoughRadius)
	}
}

func TestDefaultsAreIndependent(t *testing.T) {
	a := Defaults()
	b := Defaults()
	a.Grid.InitialCellSize = 99
	if b.Grid.InitialCellSize == 99 {
		t.Error("Defaults must return a fresh copy")
	}
}

func TestLoadOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	overlay := []byte("grid:\n  initial_cell_size: 20.0\nhunting:\n  threshold: 0.5\n")
	if err := os.WriteFile(path, overlay, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Grid.InitialCellSize != 20 {
		t.Errorf("initial_cell_size = %v, want 20", cfg.Grid.InitialCellSize)
	}
	if cfg.Hunting.Threshold != 0.5 {
		t.Errorf("threshold = %v, want 0.5", cfg.Hunting.Threshold)
	}
	// Untouched fields keep their defaults.
	if cfg.Grid.MaxCellSize != 80 {
		t.Errorf("max_cell_size = %v, want default 80", cfg.Grid.MaxCellSize)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"min cell above max", func(c *Config) { c.Grid.MinCellSize = 100 }},
		{"min entities above max", func(c *Config) { c.Grid.MinEntitiesPerCell = 50 }},
		{"zero cell size", func(c *Config) { c.Grid.InitialCellSize = 0 }},
		{"non-finite cell size", func(c *Config) { c.Grid.MaxCellSize = math.Inf(1) }},
		{"zero dt", func(c *Config) { c.Physics.DT = 0 }},
		{"NaN dt", func(c *Config) { c.Physics.DT = math.NaN() }},
		{"infinite dt", func(c *Config) { c.Physics.DT = math.Inf(1) }},
		{"negative damage min", func(c *Config) { c.Boids.DamageMin = -1 }},
		{"damage min above damage max", func(c *Config) { c.Boids.DamageMin = c.Boids.DamageMax.Min + 1 }},
		{"negative attack cooldown", func(c *Config) { c.Boids.AttackCooldown.Min = -0.5 }},
		{"inverted cooldown range", func(c *Config) { c.Boids.AttackCooldown = Range{Min: 3, Max: 1.5} }},
		{"turn speed above one", func(c *Config) { c.Boids.TurnSpeed.Max = 1.5 }},
		{"zero turn speed", func(c *Config) { c.Boids.TurnSpeed.Min = 0 }},
		{"skill above 100", func(c *Config) { c.Boids.Skill.Max = 101 }},
		{"negative hunger rate", func(c *Config) { c.Boids.HungerPerSecond = -1 }},
		{"threshold above one", func(c *Config) { c.Hunting.Threshold = 1.2 }},
		{"inverted factor range", func(c *Config) { c.Boids.CohesionFactor = Range{Min: 1, Max: 0.5} }},
		{"inverted damage range", func(c *Config) { c.Boids.DamageMax = IntRange{Min: 20, Max: 10} }},
		{"max below initial", func(c *Config) { c.Population.Max = c.Population.Initial - 1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(cfg)
			err := cfg.Validate()
			if !errors.Is(err, ErrInvalid) {
				t.Errorf("Validate() = %v, want ErrInvalid", err)
			}
		})
	}

	if err := Defaults().Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	cfg := Defaults()
	cfg.Grid.MaxEntitiesPerCell = 17
	path := filepath.Join(t.TempDir(), "out.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatalf("WriteYAML: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Grid.MaxEntitiesPerCell != 17 {
		t.Errorf("max_entities_per_cell = %d, want 17", loaded.Grid.MaxEntitiesPerCell)
	}
}

func TestCfgBeforeInitPanics(t *testing.T) {
	saved := global
	global = nil
	defer func() {
		global = saved
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	Cfg()
}
