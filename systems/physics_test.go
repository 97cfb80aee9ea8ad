package systems

import (
	"testing"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/boids/components"
)

func TestPhysicsDrivesFromHeading(t *testing.T) {
	w := ecs.NewWorld()
	mapper := ecs.NewMap3[components.Position, components.Velocity, components.Heading](w)
	e := mapper.NewEntity(
		&components.Position{},
		&components.Velocity{},
		&components.Heading{Direction: r2.Vec{X: 1, Y: 0}, ForceScale: 5},
	)

	sys := NewPhysicsSystem(w, Bounds{HalfWidth: 100, HalfHeight: 100})
	sys.Update(0.1)

	pos, vel, _ := mapper.Get(e)
	if !vecNear(vel.Vec, r2.Vec{X: 5, Y: 0}, 1e-9) {
		t.Errorf("velocity = %v, want (5,0)", vel.Vec)
	}
	if !vecNear(pos.Vec, r2.Vec{X: 0.5, Y: 0}, 1e-9) {
		t.Errorf("position = %v, want (0.5,0)", pos.Vec)
	}
}

func TestPhysicsBouncesAtBounds(t *testing.T) {
	w := ecs.NewWorld()
	mapper := ecs.NewMap3[components.Position, components.Velocity, components.Heading](w)
	e := mapper.NewEntity(
		&components.Position{Vec: r2.Vec{X: 9.9, Y: 0}},
		&components.Velocity{},
		&components.Heading{Direction: r2.Vec{X: 1, Y: 0}, ForceScale: 5},
	)

	sys := NewPhysicsSystem(w, Bounds{HalfWidth: 10, HalfHeight: 10})
	sys.Update(0.1)

	pos, _, heading := mapper.Get(e)
	if pos.X != 10 {
		t.Errorf("x = %v, want clamped to 10", pos.X)
	}
	if heading.Direction.X != -1 {
		t.Errorf("heading = %v, want reflected", heading.Direction)
	}
}
