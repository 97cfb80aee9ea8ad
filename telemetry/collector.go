package telemetry

import (
	"math"

	"github.com/pthm-cable/boids/components"
)

// Collector accumulates events within time windows and produces WindowStats.
type Collector struct {
	windowDurationSec   float64
	windowDurationTicks int32
	dt                  float64

	// Current window tracking
	windowStartTick int32

	// Event counters for current window
	spawns         int
	despawns       int
	huntsStarted   int
	preyFound      int
	searchFailures int
	targetsLost    int
	engagements    int
	strikes        int
	hits           int
	kills          int
	feedings       int
	cancellations  int
	damageDealt    int
	resizes        int

	flockQueries  int
	neighborsSeen int
}

// NewCollector creates a new stats collector.
// windowDurationSec: how long each stats window lasts in simulation seconds
// dt: seconds per tick (used for tick-to-time conversion)
func NewCollector(windowDurationSec float64, dt float64) *Collector {
	ticksPerWindow := int32(math.Round(windowDurationSec / dt))
	if ticksPerWindow < 1 {
		ticksPerWindow = 1
	}

	return &Collector{
		windowDurationSec:   windowDurationSec,
		windowDurationTicks: ticksPerWindow,
		dt:                  dt,
	}
}

// RecordSpawn records a boid entering the simulation.
func (c *Collector) RecordSpawn() { c.spawns++ }

// RecordDespawn records an entity removed at zero health.
func (c *Collector) RecordDespawn() { c.despawns++ }

// RecordHuntStarted records an Idle -> Searching transition.
func (c *Collector) RecordHuntStarted() { c.huntsStarted++ }

// RecordPreyFound records a successful search.
func (c *Collector) RecordPreyFound() { c.preyFound++ }

// RecordSearchFailed records a search with no prey in range.
func (c *Collector) RecordSearchFailed() { c.searchFailures++ }

// RecordTargetLost records a target that despawned mid-hunt.
func (c *Collector) RecordTargetLost() { c.targetsLost++ }

// RecordEngaged records a Pursuing -> Attacking transition.
func (c *Collector) RecordEngaged() { c.engagements++ }

// RecordStrike records an expired attack cooldown. damage is 0 on a miss.
func (c *Collector) RecordStrike(hit bool, damage int) {
	c.strikes++
	if hit {
		c.hits++
		c.damageDealt += damage
	}
}

// RecordKill records a strike that took the target to zero health.
func (c *Collector) RecordKill() { c.kills++ }

// RecordFeeding records a hunter that stopped because it was satiated.
func (c *Collector) RecordFeeding() { c.feedings++ }

// RecordCancel records an externally cancelled hunt.
func (c *Collector) RecordCancel() { c.cancellations++ }

// RecordResize records a spatial index cell-size change.
func (c *Collector) RecordResize() { c.resizes++ }

// RecordFlockQuery records how many candidates one flocking query scanned.
func (c *Collector) RecordFlockQuery(candidates int) {
	c.flockQueries++
	c.neighborsSeen += candidates
}

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick int32) bool {
	return currentTick-c.windowStartTick >= c.windowDurationTicks
}

// Sample is the population state the caller gathers at window end.
type Sample struct {
	Boids       int
	Prey        int
	PlayerAlive bool
	Hungers     []float64
	PreyHealth  []float64
	States      [4]int // indexed by components.HuntState

	CellSize      float64
	OccupiedCells int
	LargestCell   int
}

// Flush produces a WindowStats and resets counters for the next window.
func (c *Collector) Flush(currentTick int32, s Sample) WindowStats {
	var hitRate, killRate, meanNeighbors float64
	if c.strikes > 0 {
		hitRate = float64(c.hits) / float64(c.strikes)
	}
	if c.hits > 0 {
		killRate = float64(c.kills) / float64(c.hits)
	}
	if c.flockQueries > 0 {
		meanNeighbors = float64(c.neighborsSeen) / float64(c.flockQueries)
	}

	hunger := ComputeDistribution(s.Hungers)
	health := ComputeDistribution(s.PreyHealth)

	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,
		SimTimeSec:      float64(currentTick) * c.dt,

		Boids:       s.Boids,
		Prey:        s.Prey,
		PlayerAlive: s.PlayerAlive,

		Spawns:   c.spawns,
		Despawns: c.despawns,

		HuntsStarted:   c.huntsStarted,
		PreyFound:      c.preyFound,
		SearchFailures: c.searchFailures,
		TargetsLost:    c.targetsLost,
		Engagements:    c.engagements,
		Strikes:        c.strikes,
		Hits:           c.hits,
		Kills:          c.kills,
		Feedings:       c.feedings,
		Cancellations:  c.cancellations,
		DamageDealt:    c.damageDealt,
		HitRate:        hitRate,
		KillRate:       killRate,

		HungerMean: hunger.Mean,
		HungerStd:  hunger.Std,
		HungerP10:  hunger.P10,
		HungerP50:  hunger.P50,
		HungerP90:  hunger.P90,

		PreyHealthMean: health.Mean,
		PreyHealthP10:  health.P10,
		PreyHealthP50:  health.P50,

		Idle:      s.States[components.HuntIdle],
		Searching: s.States[components.HuntSearching],
		Pursuing:  s.States[components.HuntPursuing],
		Attacking: s.States[components.HuntAttacking],

		CellSize:      s.CellSize,
		OccupiedCells: s.OccupiedCells,
		LargestCell:   s.LargestCell,
		Resizes:       c.resizes,
		MeanNeighbors: meanNeighbors,
	}

	// Reset for next window
	*c = Collector{
		windowDurationSec:   c.windowDurationSec,
		windowDurationTicks: c.windowDurationTicks,
		dt:                  c.dt,
		windowStartTick:     currentTick,
	}

	return stats
}

// WindowDurationTicks returns the number of ticks per window.
func (c *Collector) WindowDurationTicks() int32 {
	return c.windowDurationTicks
}
