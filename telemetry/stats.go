// Package telemetry provides windowed flock statistics, bookmarking, snapshots
// and run archiving.
package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for a time window.
type WindowStats struct {
	WindowStartTick int32   `csv:"-"`
	WindowEndTick   int32   `csv:"window_end"`
	SimTimeSec      float64 `csv:"sim_time"`

	// Population at window end
	Boids       int  `csv:"boids"`
	Prey        int  `csv:"prey"`
	PlayerAlive bool `csv:"player_alive"`

	// Lifecycle events during window
	Spawns   int `csv:"spawns"`
	Despawns int `csv:"despawns"`

	// Hunting
	HuntsStarted   int     `csv:"hunts_started"`
	PreyFound      int     `csv:"prey_found"`
	SearchFailures int     `csv:"search_failures"`
	TargetsLost    int     `csv:"targets_lost"`
	Engagements    int     `csv:"engagements"`
	Strikes        int     `csv:"strikes"`
	Hits           int     `csv:"hits"`
	Kills          int     `csv:"kills"`
	Feedings       int     `csv:"feedings"`
	Cancellations  int     `csv:"cancellations"`
	DamageDealt    int     `csv:"damage_dealt"`
	HitRate        float64 `csv:"hit_rate"`
	KillRate       float64 `csv:"kill_rate"`

	// Hunger distribution (sampled at window end)
	HungerMean float64 `csv:"hunger_mean"`
	HungerStd  float64 `csv:"hunger_std"`
	HungerP10  float64 `csv:"hunger_p10"`
	HungerP50  float64 `csv:"hunger_p50"`
	HungerP90  float64 `csv:"hunger_p90"`

	// Prey health distribution
	PreyHealthMean float64 `csv:"prey_health_mean"`
	PreyHealthP10  float64 `csv:"prey_health_p10"`
	PreyHealthP50  float64 `csv:"prey_health_p50"`

	// Hunt state occupancy at window end
	Idle      int `csv:"idle"`
	Searching int `csv:"searching"`
	Pursuing  int `csv:"pursuing"`
	Attacking int `csv:"attacking"`

	// Spatial index
	CellSize      float64 `csv:"cell_size"`
	OccupiedCells int     `csv:"occupied_cells"`
	LargestCell   int     `csv:"largest_cell"`
	Resizes       int     `csv:"resizes"`
	MeanNeighbors float64 `csv:"mean_neighbors"` // candidates scanned per flocking query
}

// Distribution summarizes a sample.
type Distribution struct {
	Mean float64
	Std  float64
	P10  float64
	P50  float64
	P90  float64
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
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

	// Linear interpolation
	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// ComputeDistribution calculates mean, population std and percentiles.
func ComputeDistribution(values []float64) Distribution {
	n := len(values)
	if n == 0 {
		return Distribution{}
	}

	mean, std := stat.PopMeanStdDev(values, nil)

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	return Distribution{
		Mean: mean,
		Std:  std,
		P10:  Percentile(sorted, 0.10),
		P50:  Percentile(sorted, 0.50),
		P90:  Percentile(sorted, 0.90),
	}
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_start", int(s.WindowStartTick)),
		slog.Int("window_end", int(s.WindowEndTick)),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Int("boids", s.Boids),
		slog.Int("prey", s.Prey),
		slog.Bool("player_alive", s.PlayerAlive),
		slog.Int("spawns", s.Spawns),
		slog.Int("despawns", s.Despawns),
		slog.Int("hunts_started", s.HuntsStarted),
		slog.Int("prey_found", s.PreyFound),
		slog.Int("search_failures", s.SearchFailures),
		slog.Int("targets_lost", s.TargetsLost),
		slog.Int("engagements", s.Engagements),
		slog.Int("strikes", s.Strikes),
		slog.Int("hits", s.Hits),
		slog.Int("kills", s.Kills),
		slog.Int("feedings", s.Feedings),
		slog.Int("cancellations", s.Cancellations),
		slog.Int("damage_dealt", s.DamageDealt),
		slog.Float64("hit_rate", s.HitRate),
		slog.Float64("kill_rate", s.KillRate),
		slog.Float64("hunger_mean", s.HungerMean),
		slog.Float64("hunger_std", s.HungerStd),
		slog.Float64("hunger_p10", s.HungerP10),
		slog.Float64("hunger_p50", s.HungerP50),
		slog.Float64("hunger_p90", s.HungerP90),
		slog.Float64("prey_health_mean", s.PreyHealthMean),
		slog.Float64("prey_health_p10", s.PreyHealthP10),
		slog.Float64("prey_health_p50", s.PreyHealthP50),
		slog.Int("idle", s.Idle),
		slog.Int("searching", s.Searching),
		slog.Int("pursuing", s.Pursuing),
		slog.Int("attacking", s.Attacking),
		slog.Float64("cell_size", s.CellSize),
		slog.Int("occupied_cells", s.OccupiedCells),
		slog.Int("largest_cell", s.LargestCell),
		slog.Int("resizes", s.Resizes),
		slog.Float64("mean_neighbors", s.MeanNeighbors),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"window_end", s.WindowEndTick,
		"sim_time", s.SimTimeSec,
		"boids", s.Boids,
		"prey", s.Prey,
		"player_alive", s.PlayerAlive,
		"hunts_started", s.HuntsStarted,
		"strikes", s.Strikes,
		"hits", s.Hits,
		"kills", s.Kills,
		"feedings", s.Feedings,
		"hit_rate", s.HitRate,
		"hunger_mean", s.HungerMean,
		"hunger_p90", s.HungerP90,
		"idle", s.Idle,
		"searching", s.Searching,
		"pursuing", s.Pursuing,
		"attacking", s.Attacking,
		"cell_size", s.CellSize,
		"occupied_cells", s.OccupiedCells,
		"largest_cell", s.LargestCell,
		"mean_neighbors", s.MeanNeighbors,
	)
}
