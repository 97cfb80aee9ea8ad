package components

import "github.com/mlange-42/ark/ecs"

// HungerMax is the upper clamp for Hunger.Value.
const HungerMax = 100.0

// Hunger increases every tick and drops when the boid feeds.
type Hunger struct {
	Value     float64
	PerSecond float64
}

// Attack holds the stats used by the attacking state.
// Damage is drawn from [DamageMin, DamageMax).
type Attack struct {
	DamageMin       int
	DamageMax       int
	Cooldown        float64 // seconds until the next strike
	CooldownDefault float64
	SkillLevel      int // hit chance percentage, 0..100
}

// Health has no implicit floor; it may go negative before despawn.
type Health struct {
	Current int
	Max     int
}

// Hunt is the per-boid hunting state machine.
// Target is a weak reference and is only meaningful when HasTarget is set.
type Hunt struct {
	State     HuntState
	Target    ecs.Entity
	HasTarget bool
}

// ClearTarget drops the weak reference.
func (h *Hunt) ClearTarget() {
	h.Target = ecs.Entity{}
	h.HasTarget = false
}

// SetTarget stores a new weak reference.
func (h *Hunt) SetTarget(e ecs.Entity) {
	h.Target = e
	h.HasTarget = true
}

// Prey tags an entity as huntable.
type Prey struct{}

// Player tags the externally steered body.
type Player struct{}
