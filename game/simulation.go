package game

import (
	"log/slog"
	"math"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/boids/components"
	"github.com/pthm-cable/boids/systems"
	"github.com/pthm-cable/boids/telemetry"
)

// Step advances the simulation by one fixed tick.
func (g *Game) Step() {
	dt := g.cfg.Physics.DT
	perf := g.perfCollector
	perf.StartTick()

	// 1. Hunger
	perf.StartPhase(telemetry.PhaseHunger)
	g.updateHunger(dt)

	// 2. Spatial index
	perf.StartPhase(telemetry.PhaseSpatialIndex)
	g.updateSpatialIndex()

	// 3. Flocking (snapshot, compute, apply)
	perf.StartPhase(telemetry.PhaseFlocking)
	g.updateFlocking()

	// 4. Hunting
	perf.StartPhase(telemetry.PhaseHunting)
	g.updateHunting(dt)

	// 5. Steering
	perf.StartPhase(telemetry.PhaseSteering)
	g.updateSteering()

	// 6. Movement
	perf.StartPhase(telemetry.PhaseMovement)
	g.physics.Update(dt)

	// 7. Lifecycle
	perf.StartPhase(telemetry.PhaseLifecycle)
	g.cleanupDead()
	g.updateSpawner(dt)
	g.updatePlayerRespawn(dt)

	g.tick++
	g.simTime = float64(g.tick) * dt

	// 8. Telemetry
	perf.StartPhase(telemetry.PhaseTelemetry)
	g.flushTelemetry()

	perf.EndTick()
}

// updateHunger accumulates hunger for every hungry entity.
func (g *Game) updateHunger(dt float64) {
	query := g.hungerFilter.Query()
	for query.Next() {
		systems.AccumulateHunger(query.Get(), dt)
	}
}

// updateSpatialIndex reindexes every positioned entity and evaluates the
// rebuild policy. A resize decided last tick is carried out first.
func (g *Game) updateSpatialIndex() {
	if g.index.BeginPass() {
		g.collector.RecordResize()
	}

	query := g.posFilter.Query()
	for query.Next() {
		e := query.Entity()
		pos := query.Get()
		if _, err := g.index.Reindex(e, pos.Vec); err != nil {
			slog.Warn("entity skipped by spatial index", "entity", e.ID(), "error", err)
			g.index.Remove(e)
		}
	}

	g.index.TickRebuildPolicy()
}

// updateHunting runs one state of every boid's hunting state machine.
// Pending cancellations are applied before any step.
func (g *Game) updateHunting(dt float64) {
	cancelAll := g.cancelAll
	g.cancelAll = false

	var agent systems.HuntAgent
	query := g.boidFilter.Query()
	for query.Next() {
		e := query.Entity()
		pos, _, boid, _, hunger, attack, hunt := query.Get()

		cell, ok := g.index.Cell(e)
		if !ok {
			continue
		}
		agent = systems.HuntAgent{
			Entity: e,
			Pos:    pos.Vec,
			Cell:   cell,
			Hunt:   hunt,
			Hunger: hunger,
			Attack: attack,
			Boid:   boid,
		}

		if _, pending := g.pendingCancel[e]; cancelAll || pending {
			g.recordHunt(e, g.hunting.Cancel(&agent))
			continue
		}

		g.recordHunt(e, g.hunting.Step(&agent, g.prey, dt))

		if hunt.State == components.HuntIdle && g.wander.Enabled() {
			boid.Desired = g.wander.Direction(e.ID(), g.simTime)
		}
	}
	clear(g.pendingCancel)
}

// recordHunt forwards a hunting result to the collectors.
func (g *Game) recordHunt(e ecs.Entity, r systems.HuntResult) {
	id := e.ID()
	switch r.Outcome {
	case systems.OutcomeStarted:
		g.collector.RecordHuntStarted()
		g.hunters.RecordHunt(id)
	case systems.OutcomeFound:
		g.collector.RecordPreyFound()
	case systems.OutcomeNotFound:
		g.collector.RecordSearchFailed()
	case systems.OutcomeLost:
		g.collector.RecordTargetLost()
	case systems.OutcomeEngaged:
		g.collector.RecordEngaged()
	case systems.OutcomeCancelled:
		g.collector.RecordCancel()
	}

	if !r.Outcome.Struck() {
		return
	}
	hit := r.Outcome != systems.OutcomeMissed
	g.collector.RecordStrike(hit, r.Damage)
	g.hunters.RecordStrike(id, hit, r.Damage)
	switch r.Outcome {
	case systems.OutcomeKilled:
		g.collector.RecordKill()
		g.hunters.RecordKill(id)
	case systems.OutcomeFed:
		g.collector.RecordFeeding()
		g.hunters.RecordFeeding(id)
	}
}

// updateSteering turns each boid's heading toward its blended target and
// the player toward its wander or manual direction.
func (g *Game) updateSteering() {
	query := g.boidFilter.Query()
	for query.Next() {
		pos, rot, boid, heading, _, _, _ := query.Get()
		delta := systems.Steer(heading, boid, pos.Vec)
		rot.Angle = systems.NormalizeAngle(rot.Angle + delta)
	}

	if g.playerAlive {
		g.steerPlayer()
	}
}

// steerPlayer points the player along its manual direction or its wander.
func (g *Game) steerPlayer() {
	heading := g.headingMap.Get(g.player)
	rot := g.rotMap.Get(g.player)
	if heading == nil || rot == nil {
		return
	}

	dir := g.playerSteer
	if !g.playerSteered {
		dir = g.playerWander.Direction(g.player.ID(), g.simTime)
	}
	n := r2.Norm(dir)
	if n == 0 || math.IsNaN(n) || math.IsInf(n, 0) {
		heading.Direction = r2.Vec{}
		return
	}
	heading.Direction = r2.Scale(1/n, dir)
	heading.Up = r2.Vec{X: -heading.Direction.Y, Y: heading.Direction.X}
	rot.Angle = math.Atan2(heading.Direction.Y, heading.Direction.X)
}
