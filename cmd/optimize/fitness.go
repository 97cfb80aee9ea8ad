package main

import (
	"context"
	"log/slog"
	"math"
	"sync"

	"github.com/pthm-cable/boids/config"
	"github.com/pthm-cable/boids/game"
	"github.com/pthm-cable/boids/telemetry"
)

// invalidFitness is returned for parameter vectors that cannot run.
const invalidFitness = 1e9

// FitnessEvaluator runs headless simulations and scores grid settings.
type FitnessEvaluator struct {
	params        *ParamVector
	maxTicks      int
	seeds         []int64
	baseConfig    *config.Config
	statsWindow   float64
	resizePenalty float64 // fitness added per resize per simulated minute

	mu   sync.Mutex
	last Score // score from most recent Evaluate call
}

// Score breaks a fitness value into its parts.
type Score struct {
	Fitness          float64
	MeanNeighbors    float64 // candidates scanned per flocking query
	ResizesPerMinute float64
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, maxTicks int, seeds []int64, baseCfg *config.Config, resizePenalty float64) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:        params,
		maxTicks:      maxTicks,
		seeds:         seeds,
		baseConfig:    baseCfg,
		statsWindow:   10.0,
		resizePenalty: resizePenalty,
	}
}

// LastScore returns the score from the most recent evaluation.
func (fe *FitnessEvaluator) LastScore() Score {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.last
}

// runResult holds the results from a single simulation run.
type runResult struct {
	windowStats []telemetry.WindowStats
	simSeconds  float64
	err         error
}

// Evaluate computes fitness for a raw parameter vector (lower = better).
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	results := make([]runResult, len(fe.seeds))
	var wg sync.WaitGroup

	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s int64) {
			defer wg.Done()
			results[idx] = fe.runSimulation(x, s)
		}(i, seed)
	}
	wg.Wait()

	var total Score
	for _, r := range results {
		if r.err != nil {
			slog.Warn("evaluation failed", "error", r.err)
			total = Score{Fitness: invalidFitness}
			break
		}
		s := fe.score(r)
		total.Fitness += s.Fitness
		total.MeanNeighbors += s.MeanNeighbors
		total.ResizesPerMinute += s.ResizesPerMinute
	}
	if total.Fitness < invalidFitness {
		n := float64(len(fe.seeds))
		total.Fitness /= n
		total.MeanNeighbors /= n
		total.ResizesPerMinute /= n
	}

	fe.mu.Lock()
	fe.last = total
	fe.mu.Unlock()

	return total.Fitness
}

// runSimulation executes a single headless simulation run.
func (fe *FitnessEvaluator) runSimulation(x []float64, seed int64) runResult {
	cfg := fe.copyConfig()
	fe.params.ApplyToConfig(cfg, x)

	var result runResult
	g, err := game.NewGame(cfg, game.Options{
		Seed:           seed,
		StatsWindowSec: fe.statsWindow,
		StatsCallback: func(stats telemetry.WindowStats) {
			result.windowStats = append(result.windowStats, stats)
		},
	})
	if err != nil {
		return runResult{err: err}
	}
	defer g.Close()

	if err := g.Run(context.Background(), fe.maxTicks); err != nil {
		return runResult{err: err}
	}
	result.simSeconds = g.SimTime()
	return result
}

// score turns one run into a fitness value.
// Neighbor scans are weighted by window so long runs are not dominated by warmup.
func (fe *FitnessEvaluator) score(r runResult) Score {
	if len(r.windowStats) == 0 || r.simSeconds <= 0 {
		return Score{Fitness: invalidFitness}
	}

	var neighbors float64
	var resizes int
	for _, w := range r.windowStats {
		neighbors += w.MeanNeighbors
		resizes += w.Resizes
	}
	meanNeighbors := neighbors / float64(len(r.windowStats))
	perMinute := float64(resizes) / (r.simSeconds / 60)

	fitness := meanNeighbors + fe.resizePenalty*perMinute
	if math.IsNaN(fitness) || math.IsInf(fitness, 0) {
		fitness = invalidFitness
	}
	return Score{
		Fitness:          fitness,
		MeanNeighbors:    meanNeighbors,
		ResizesPerMinute: perMinute,
	}
}

// copyConfig returns an independent copy of the base config.
// Config holds only value fields, so a struct copy is deep.
func (fe *FitnessEvaluator) copyConfig() *config.Config {
	cfg := *fe.baseConfig
	return &cfg
}
