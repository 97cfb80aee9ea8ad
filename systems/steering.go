package systems

import (
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/boids/components"
)

// Steer blends cohesion, separation, alignment and the desired direction
// into the boid's heading, smoothed by its turn speed. Returns the signed
// rotation from the previous heading to the new one; callers add it to the
// current angle.
func Steer(h *components.Heading, b *components.Boid, selfPos r2.Vec) float64 {
	var cohesion, separation, alignment r2.Vec
	if b.CohesionCount > 0 {
		cohesion = r2.Scale(b.CohesionFactor, normalizeOrZero(r2.Sub(b.FlockCenter, selfPos)))
	}
	if b.SeparationCount > 0 {
		separation = r2.Scale(b.SeparationFactor, normalizeOrZero(b.Separation))
	}
	if b.AlignmentCount > 0 {
		alignment = r2.Scale(b.AlignmentFactor, b.Alignment)
	}
	desired := r2.Scale(b.DesiredFactor, b.Desired)

	sum := r2.Add(r2.Add(cohesion, separation), r2.Add(alignment, desired))
	blended := normalizeOrZero(r2.Scale(0.25, sum))

	prev := h.Direction
	next := lerp(prev, blended, b.TurnSpeed)
	if !isFinite(next) {
		return 0
	}
	h.Direction = next
	h.Up = perpendicular(next)
	return signedAngle(prev, next)
}
