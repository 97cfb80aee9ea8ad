package game

import (
	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/boids/components"
)

// preyView answers the hunting system's queries against the world and the
// spatial index. It holds no state of its own.
type preyView struct {
	g *Game
}

// PreyNear appends the prey-tagged entities of the 3x3 block around cell.
func (v *preyView) PreyNear(dst []ecs.Entity, cell components.GridCell) []ecs.Entity {
	g := v.g
	start := len(dst)
	dst = g.index.NeighborsInto(dst, cell)

	out := dst[:start]
	for _, e := range dst[start:] {
		if g.world.Alive(e) && g.preyMap.Has(e) {
			out = append(out, e)
		}
	}
	return out
}

// Resolve returns a live target's position and health.
func (v *preyView) Resolve(e ecs.Entity) (r2.Vec, *components.Health, bool) {
	g := v.g
	if !g.world.Alive(e) || !g.posMap.Has(e) || !g.healthMap.Has(e) {
		return r2.Vec{}, nil, false
	}
	health := g.healthMap.Get(e)
	if health.Current <= 0 {
		return r2.Vec{}, nil, false
	}
	return g.posMap.Get(e).Vec, health, true
}
