// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid config")

// Config holds all simulation configuration parameters.
type Config struct {
	World      WorldConfig      `yaml:"world"`
	Physics    PhysicsConfig    `yaml:"physics"`
	Grid       GridConfig       `yaml:"grid"`
	Boids      BoidsConfig      `yaml:"boids"`
	Hunting    HuntingConfig    `yaml:"hunting"`
	Population PopulationConfig `yaml:"population"`
	Player     PlayerConfig     `yaml:"player"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
	Bookmarks  BookmarksConfig  `yaml:"bookmarks"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// WorldConfig holds simulation world dimensions.
// The world is centered on the origin.
type WorldConfig struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

// PhysicsConfig holds the fixed tick and kinematic parameters of the host.
type PhysicsConfig struct {
	DT         float64 `yaml:"dt"`          // Fixed tick length in seconds
	ForceScale float64 `yaml:"force_scale"` // Velocity = heading * force_scale
}

// GridConfig holds adaptive spatial index parameters.
type GridConfig struct {
	InitialCellSize    float64 `yaml:"initial_cell_size"`
	MinCellSize        float64 `yaml:"min_cell_size"`
	MaxCellSize        float64 `yaml:"max_cell_size"`
	MaxEntitiesPerCell int     `yaml:"max_entities_per_cell"` // Shrink when the fullest cell exceeds this
	MinEntitiesPerCell int     `yaml:"min_entities_per_cell"` // Grow when the fullest cell is below this
}

// Range is an inclusive [min, max] interval sampled at spawn.
type Range struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// IntRange is an inclusive integer interval sampled at spawn.
type IntRange struct {
	Min int `yaml:"min"`
	Max int `yaml:"max"`
}

// BoidsConfig holds per-boid tunables. Ranges are sampled once per boid.
type BoidsConfig struct {
	CohesionDistance   float64  `yaml:"cohesion_distance"`
	SeparationDistance float64  `yaml:"separation_distance"`
	AlignmentDistance  float64  `yaml:"alignment_distance"`
	CohesionFactor     Range    `yaml:"cohesion_factor"`
	SeparationFactor   Range    `yaml:"separation_factor"`
	AlignmentFactor    Range    `yaml:"alignment_factor"`
	DesiredFactor      float64  `yaml:"desired_factor"`
	TurnSpeed          Range    `yaml:"turn_speed"`
	SpawnSpread        float64  `yaml:"spawn_spread"` // Half-width of the square spawn area
	DamageMin          int      `yaml:"damage_min"`
	DamageMax          IntRange `yaml:"damage_max"`
	AttackCooldown     Range    `yaml:"attack_cooldown"` // Seconds
	Skill              IntRange `yaml:"skill"`
	Health             int      `yaml:"health"`
	HungerStart        float64  `yaml:"hunger_start"`
	HungerPerSecond    float64  `yaml:"hunger_per_second"`
	WanderStrength     float64  `yaml:"wander_strength"` // 0 disables idle wander
	WanderFrequency    float64  `yaml:"wander_frequency"`
	ArePrey            bool     `yaml:"are_prey"` // Tag boids as prey so they hunt each other
}

// HuntingConfig holds pursuit decision parameters.
type HuntingConfig struct {
	Threshold           float64 `yaml:"threshold"`              // Utility needed to leave Idle
	CloseEnough         float64 `yaml:"close_enough"`           // Squared distance that switches pursuit to attack
	StopHunger          float64 `yaml:"stop_hunger"`            // Hunger below which an attack ends
	HungerPerDamage     float64 `yaml:"hunger_per_damage"`      // Hunger removed per damage point dealt
	CancelOnPlayerDeath bool    `yaml:"cancel_on_player_death"` // Cancel every hunt when the player dies
}

// PopulationConfig holds population management parameters.
type PopulationConfig struct {
	Initial         int     `yaml:"initial"`
	Max             int     `yaml:"max"`
	WaveCooldown    float64 `yaml:"wave_cooldown"` // Seconds between generation waves
	WaveSize        int     `yaml:"wave_size"`
	ParallelMinimum int     `yaml:"parallel_minimum"` // Boid count that enables the worker pool
}

// PlayerConfig holds parameters for the prey-tagged player body.
type PlayerConfig struct {
	Enabled      bool    `yaml:"enabled"`
	Health       int     `yaml:"health"`
	Speed        float64 `yaml:"speed"`
	WanderFreq   float64 `yaml:"wander_frequency"`
	RespawnDelay float64 `yaml:"respawn_delay"` // Seconds; negative disables respawn
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow         float64 `yaml:"stats_window"`
	BookmarkHistorySize int     `yaml:"bookmark_history_size"`
	PerfCollectorWindow int     `yaml:"perf_collector_window"`
	TopHunters          int     `yaml:"top_hunters"`
}

// BookmarksConfig holds bookmark detection thresholds.
type BookmarksConfig struct {
	KillSpike KillSpikeConfig `yaml:"kill_spike"`
	Famine    FamineConfig    `yaml:"famine"`
}

// KillSpikeConfig holds kill spike detection parameters.
type KillSpikeConfig struct {
	Multiplier float64 `yaml:"multiplier"`
	MinKills   int     `yaml:"min_kills"`
}

// FamineConfig holds famine detection parameters.
type FamineConfig struct {
	MeanHunger float64 `yaml:"mean_hunger"`
	Windows    int     `yaml:"windows"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	HalfWidth         float64
	HalfHeight        float64
	TicksPerWindow    int
	CloseEnoughRadius float64 // sqrt(Hunting.CloseEnough)
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Defaults returns a fresh copy of the embedded defaults.
func Defaults() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults are broken: %v", err))
	}
	return cfg
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.ComputeDerived()

	return cfg, nil
}

// Validate rejects configurations the simulation cannot run with.
func (c *Config) Validate() error {
	if err := c.Grid.Validate(); err != nil {
		return err
	}
	b := c.Boids
	switch {
	case !(c.Physics.DT > 0) || math.IsInf(c.Physics.DT, 0):
		return fmt.Errorf("%w: physics.dt must be positive and finite", ErrInvalid)
	case c.World.Width <= 0 || c.World.Height <= 0:
		return fmt.Errorf("%w: world dimensions must be positive", ErrInvalid)
	case b.CohesionDistance < 0 || b.SeparationDistance < 0 || b.AlignmentDistance < 0:
		return fmt.Errorf("%w: boid distances must not be negative", ErrInvalid)
	case b.TurnSpeed.Min <= 0 || b.TurnSpeed.Max > 1:
		return fmt.Errorf("%w: boids.turn_speed must lie in (0, 1]", ErrInvalid)
	case b.Skill.Min < 0 || b.Skill.Max > 100:
		return fmt.Errorf("%w: boids.skill must lie in [0, 100]", ErrInvalid)
	case b.DamageMin < 0:
		return fmt.Errorf("%w: boids.damage_min must not be negative", ErrInvalid)
	case b.DamageMin > b.DamageMax.Min:
		return fmt.Errorf("%w: boids.damage_min %d exceeds damage_max.min %d", ErrInvalid, b.DamageMin, b.DamageMax.Min)
	case b.AttackCooldown.Min < 0:
		return fmt.Errorf("%w: boids.attack_cooldown must not be negative", ErrInvalid)
	case b.HungerPerSecond < 0:
		return fmt.Errorf("%w: boids.hunger_per_second must not be negative", ErrInvalid)
	case c.Hunting.Threshold < 0 || c.Hunting.Threshold > 1:
		return fmt.Errorf("%w: hunting.threshold must lie in [0, 1]", ErrInvalid)
	case c.Hunting.CloseEnough <= 0:
		return fmt.Errorf("%w: hunting.close_enough must be positive", ErrInvalid)
	case c.Population.Initial < 0 || c.Population.Max < c.Population.Initial:
		return fmt.Errorf("%w: population.max must be at least population.initial", ErrInvalid)
	}
	for name, r := range map[string]Range{
		"cohesion_factor":   b.CohesionFactor,
		"separation_factor": b.SeparationFactor,
		"alignment_factor":  b.AlignmentFactor,
		"turn_speed":        b.TurnSpeed,
		"attack_cooldown":   b.AttackCooldown,
	} {
		if r.Min > r.Max {
			return fmt.Errorf("%w: boids.%s min %.3f exceeds max %.3f", ErrInvalid, name, r.Min, r.Max)
		}
	}
	for name, r := range map[string]IntRange{
		"damage_max": b.DamageMax,
		"skill":      b.Skill,
	} {
		if r.Min > r.Max {
			return fmt.Errorf("%w: boids.%s min %d exceeds max %d", ErrInvalid, name, r.Min, r.Max)
		}
	}
	return nil
}

// Validate checks the adaptive grid bounds.
func (g GridConfig) Validate() error {
	sizes := []float64{g.InitialCellSize, g.MinCellSize, g.MaxCellSize}
	for _, s := range sizes {
		if s <= 0 || math.IsNaN(s) || math.IsInf(s, 0) {
			return fmt.Errorf("%w: grid cell sizes must be positive and finite", ErrInvalid)
		}
	}
	if g.MinCellSize > g.MaxCellSize {
		return fmt.Errorf("%w: grid.min_cell_size %.2f exceeds grid.max_cell_size %.2f",
			ErrInvalid, g.MinCellSize, g.MaxCellSize)
	}
	if g.MinEntitiesPerCell < 0 || g.MinEntitiesPerCell > g.MaxEntitiesPerCell {
		return fmt.Errorf("%w: grid.min_entities_per_cell %d exceeds grid.max_entities_per_cell %d",
			ErrInvalid, g.MinEntitiesPerCell, g.MaxEntitiesPerCell)
	}
	return nil
}

// ComputeDerived recalculates values derived from the loaded config.
// Call it after changing a loaded config in code.
func (c *Config) ComputeDerived() {
	c.Derived.HalfWidth = c.World.Width / 2
	c.Derived.HalfHeight = c.World.Height / 2
	c.Derived.TicksPerWindow = int(math.Round(c.Telemetry.StatsWindow / c.Physics.DT))
	if c.Derived.TicksPerWindow < 1 {
		c.Derived.TicksPerWindow = 1
	}
	c.Derived.CloseEnoughRadius = math.Sqrt(c.Hunting.CloseEnough)
}

// YAML encodes the configuration, excluding derived values.
func (c *Config) YAML() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshaling config: %w", err)
	}
	return data, nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := c.YAML()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
