package systems

import (
	"log/slog"
	"math/rand"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/boids/components"
	"github.com/pthm-cable/boids/config"
)

// PreyWorld is the hunting system's view of the rest of the simulation:
// a tag query over the spatial index, a position provider, and a damage sink.
type PreyWorld interface {
	// PreyNear appends every prey-tagged entity in the 3x3 block around cell to dst.
	PreyNear(dst []ecs.Entity, cell components.GridCell) []ecs.Entity
	// Resolve returns the target's position and a writable health, or false
	// when the target no longer exists or is already dead.
	Resolve(e ecs.Entity) (r2.Vec, *components.Health, bool)
}

// HuntAgent bundles the components one hunting step reads and writes.
type HuntAgent struct {
	Entity ecs.Entity
	Pos    r2.Vec
	Cell   components.GridCell
	Hunt   *components.Hunt
	Hunger *components.Hunger
	Attack *components.Attack
	Boid   *components.Boid
}

// HuntOutcome describes what a single hunting step did.
type HuntOutcome uint8

const (
	OutcomeNone      HuntOutcome = iota
	OutcomeStarted               // Idle -> Searching
	OutcomeFound                 // Searching -> Pursuing
	OutcomeNotFound              // Searching -> Idle
	OutcomeLost                  // target became unresolvable
	OutcomeEngaged               // Pursuing -> Attacking
	OutcomeMissed                // strike rolled a miss
	OutcomeHit                   // strike landed, hunt continues
	OutcomeKilled                // strike landed and the target died
	OutcomeFed                   // strike landed and the hunter is satiated
	OutcomeCancelled             // cancelled externally
)

var outcomeNames = [...]string{
	"none", "started", "found", "not_found", "lost", "engaged",
	"missed", "hit", "killed", "fed", "cancelled",
}

func (o HuntOutcome) String() string {
	if int(o) < len(outcomeNames) {
		return outcomeNames[o]
	}
	return "unknown"
}

// Struck reports whether the outcome came from a cooldown expiring.
func (o HuntOutcome) Struck() bool {
	return o == OutcomeMissed || o == OutcomeHit || o == OutcomeKilled || o == OutcomeFed
}

// HuntResult is returned by every step for telemetry.
type HuntResult struct {
	Outcome HuntOutcome
	Target  ecs.Entity
	Damage  int
	Scanned int // prey candidates considered while searching
}

// HuntingBehavior drives the Idle -> Searching -> Pursuing -> Attacking
// state machine. Exactly one state is evaluated per Step.
type HuntingBehavior struct {
	threshold       float64
	closeEnough     float64
	stopHunger      float64
	hungerPerDamage float64
	rng             *rand.Rand

	candidates []ecs.Entity
}

// NewHuntingBehavior creates a hunting system. rng drives hit rolls and damage.
func NewHuntingBehavior(cfg config.HuntingConfig, rng *rand.Rand) *HuntingBehavior {
	return &HuntingBehavior{
		threshold:       cfg.Threshold,
		closeEnough:     cfg.CloseEnough,
		stopHunger:      cfg.StopHunger,
		hungerPerDamage: cfg.HungerPerDamage,
		rng:             rng,
		candidates:      make([]ecs.Entity, 0, 32),
	}
}

// Utility scores how much the agent wants to hunt, in [0,1].
func Utility(hunger float64) float64 {
	return clamp01(hunger / components.HungerMax)
}

// Step advances the agent's state machine by one state.
func (h *HuntingBehavior) Step(a *HuntAgent, w PreyWorld, dt float64) HuntResult {
	switch a.Hunt.State {
	case components.HuntIdle:
		if Utility(a.Hunger.Value) >= h.threshold {
			a.Hunt.State = components.HuntSearching
			slog.Debug("hunt started", "entity", a.Entity.ID(), "hunger", a.Hunger.Value)
			return HuntResult{Outcome: OutcomeStarted}
		}
		return HuntResult{}

	case components.HuntSearching:
		return h.search(a, w)

	case components.HuntPursuing:
		return h.pursue(a, w)

	case components.HuntAttacking:
		return h.attack(a, w, dt)
	}
	return HuntResult{}
}

// Cancel aborts any hunt in progress. Treated as a failure.
func (h *HuntingBehavior) Cancel(a *HuntAgent) HuntResult {
	if a.Hunt.State == components.HuntIdle && !a.Hunt.HasTarget {
		return HuntResult{}
	}
	target := a.Hunt.Target
	h.toIdle(a)
	slog.Debug("hunt cancelled", "entity", a.Entity.ID())
	return HuntResult{Outcome: OutcomeCancelled, Target: target}
}

func (h *HuntingBehavior) search(a *HuntAgent, w PreyWorld) HuntResult {
	h.candidates = w.PreyNear(h.candidates[:0], a.Cell)

	var (
		best     ecs.Entity
		bestDist float64
		found    bool
		scanned  int
	)
	for _, e := range h.candidates {
		if e == a.Entity {
			continue
		}
		pos, _, ok := w.Resolve(e)
		if !ok {
			continue
		}
		scanned++
		d := r2.Norm2(r2.Sub(pos, a.Pos))
		if !found || d < bestDist || (d == bestDist && e.ID() < best.ID()) {
			best, bestDist, found = e, d, true
		}
	}

	if !found {
		h.toIdle(a)
		slog.Debug("no prey nearby", "entity", a.Entity.ID())
		return HuntResult{Outcome: OutcomeNotFound, Scanned: scanned}
	}
	a.Hunt.SetTarget(best)
	a.Hunt.State = components.HuntPursuing
	slog.Debug("prey found", "entity", a.Entity.ID(), "target", best.ID(), "dist_sq", bestDist)
	return HuntResult{Outcome: OutcomeFound, Target: best, Scanned: scanned}
}

func (h *HuntingBehavior) pursue(a *HuntAgent, w PreyWorld) HuntResult {
	target := a.Hunt.Target
	pos, _, ok := h.resolveTarget(a, w)
	if !ok {
		h.toIdle(a)
		slog.Debug("pursuit target lost", "entity", a.Entity.ID())
		return HuntResult{Outcome: OutcomeLost, Target: target}
	}

	delta := r2.Sub(pos, a.Pos)
	if r2.Norm2(delta) < h.closeEnough {
		a.Hunt.State = components.HuntAttacking
		slog.Debug("engaging prey", "entity", a.Entity.ID(), "target", target.ID())
		return HuntResult{Outcome: OutcomeEngaged, Target: target}
	}
	a.Boid.Desired = normalizeOrZero(delta)
	return HuntResult{Target: target}
}

func (h *HuntingBehavior) attack(a *HuntAgent, w PreyWorld, dt float64) HuntResult {
	target := a.Hunt.Target
	pos, health, ok := h.resolveTarget(a, w)
	if !ok {
		h.toIdle(a)
		slog.Debug("attack target lost", "entity", a.Entity.ID())
		return HuntResult{Outcome: OutcomeLost, Target: target}
	}
	a.Boid.Desired = normalizeOrZero(r2.Sub(pos, a.Pos))

	atk := a.Attack
	atk.Cooldown -= dt
	if atk.Cooldown > 0 {
		return HuntResult{Target: target}
	}
	atk.Cooldown = atk.CooldownDefault

	if h.rng.Intn(100)+1 > atk.SkillLevel {
		return HuntResult{Outcome: OutcomeMissed, Target: target}
	}

	damage := h.rollDamage(atk)
	health.Current -= damage
	a.Hunger.Value -= h.hungerPerDamage * float64(damage)
	if a.Hunger.Value < 0 {
		a.Hunger.Value = 0
	}

	switch {
	case health.Current <= 0:
		h.toIdle(a)
		slog.Debug("prey killed", "entity", a.Entity.ID(), "target", target.ID(), "damage", damage)
		return HuntResult{Outcome: OutcomeKilled, Target: target, Damage: damage}
	case a.Hunger.Value < h.stopHunger:
		h.toIdle(a)
		slog.Debug("hunter fed", "entity", a.Entity.ID(), "target", target.ID(), "hunger", a.Hunger.Value)
		return HuntResult{Outcome: OutcomeFed, Target: target, Damage: damage}
	}
	return HuntResult{Outcome: OutcomeHit, Target: target, Damage: damage}
}

// rollDamage draws from [DamageMin, DamageMax); an empty range yields DamageMin.
func (h *HuntingBehavior) rollDamage(atk *components.Attack) int {
	if atk.DamageMax <= atk.DamageMin {
		return atk.DamageMin
	}
	return atk.DamageMin + h.rng.Intn(atk.DamageMax-atk.DamageMin)
}

func (h *HuntingBehavior) resolveTarget(a *HuntAgent, w PreyWorld) (r2.Vec, *components.Health, bool) {
	if !a.Hunt.HasTarget || a.Hunt.Target == a.Entity {
		return r2.Vec{}, nil, false
	}
	return w.Resolve(a.Hunt.Target)
}

func (h *HuntingBehavior) toIdle(a *HuntAgent) {
	a.Hunt.ClearTarget()
	a.Hunt.State = components.HuntIdle
	a.Boid.Desired = r2.Vec{}
}

// AccumulateHunger raises hunger by its per-second rate, clamped to [0,100].
func AccumulateHunger(h *components.Hunger, dt float64) {
	h.Value = clampFloat(h.Value+h.PerSecond*dt, 0, components.HungerMax)
}
