package systems

import (
	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/boids/components"
)

// PhysicsSystem is a kinematic stand-in for a rigid-body engine: it turns
// steering headings into velocity and integrates positions.
// There is no contact resolution.
type PhysicsSystem struct {
	driveFilter *ecs.Filter2[components.Velocity, components.Heading]
	moveFilter  *ecs.Filter2[components.Position, components.Velocity]
	headingMap  *ecs.Map[components.Heading]
	bounds      Bounds
}

// Bounds is the axis-aligned world rectangle centered on the origin.
type Bounds struct {
	HalfWidth, HalfHeight float64
}

// NewPhysicsSystem creates a new physics system.
func NewPhysicsSystem(w *ecs.World, bounds Bounds) *PhysicsSystem {
	return &PhysicsSystem{
		driveFilter: ecs.NewFilter2[components.Velocity, components.Heading](w),
		moveFilter:  ecs.NewFilter2[components.Position, components.Velocity](w),
		headingMap:  ecs.NewMap[components.Heading](w),
		bounds:      bounds,
	}
}

// Update sets velocity = heading * force scale for steered entities, then
// moves every entity and keeps it inside the bounds. Entities at a wall
// have the offending heading component reflected so they turn back in.
func (s *PhysicsSystem) Update(dt float64) {
	drive := s.driveFilter.Query()
	for drive.Next() {
		vel, heading := drive.Get()
		vel.Vec = r2.Scale(heading.ForceScale, heading.Direction)
	}

	move := s.moveFilter.Query()
	for move.Next() {
		pos, vel := move.Get()
		next := r2.Add(pos.Vec, r2.Scale(dt, vel.Vec))
		if !isFinite(next) {
			vel.Vec = r2.Vec{}
			continue
		}

		hitX, hitY := false, false
		if next.X < -s.bounds.HalfWidth || next.X > s.bounds.HalfWidth {
			next.X = clampFloat(next.X, -s.bounds.HalfWidth, s.bounds.HalfWidth)
			vel.X = -vel.X
			hitX = true
		}
		if next.Y < -s.bounds.HalfHeight || next.Y > s.bounds.HalfHeight {
			next.Y = clampFloat(next.Y, -s.bounds.HalfHeight, s.bounds.HalfHeight)
			vel.Y = -vel.Y
			hitY = true
		}
		pos.Vec = next

		if (hitX || hitY) && s.headingMap.Has(move.Entity()) {
			heading := s.headingMap.Get(move.Entity())
			if hitX {
				heading.Direction.X = -heading.Direction.X
			}
			if hitY {
				heading.Direction.Y = -heading.Direction.Y
			}
			heading.Up = perpendicular(heading.Direction)
		}
	}
}
