package systems

import (
	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/boids/components"
)

// FlockSample is the start-of-tick state of one boid as seen by its neighbors.
type FlockSample struct {
	Entity  ecs.Entity
	Pos     r2.Vec
	Heading r2.Vec
}

// FlockAggregate holds the cohesion, separation and alignment inputs for one boid.
// A zero count means the matching vector is zero and contributes nothing.
type FlockAggregate struct {
	Center          r2.Vec
	Separation      r2.Vec
	Alignment       r2.Vec
	CohesionCount   int
	SeparationCount int
	AlignmentCount  int
}

// ComputeFlock aggregates the neighbors of self within the boid's radii.
// Neighbors must come from the start-of-tick snapshot; self is skipped.
// Separation is only counted for neighbors already inside cohesion range.
func ComputeFlock(self FlockSample, tun *components.Boid, neighbors []FlockSample) FlockAggregate {
	cohesionSq := tun.CohesionDistance * tun.CohesionDistance
	separationSq := tun.SeparationDistance * tun.SeparationDistance
	alignmentSq := tun.AlignmentDistance * tun.AlignmentDistance

	var (
		agg        FlockAggregate
		sumPos     r2.Vec
		sumSep     r2.Vec
		sumHeading r2.Vec
	)

	for i := range neighbors {
		n := &neighbors[i]
		if n.Entity == self.Entity {
			continue
		}
		delta := r2.Sub(n.Pos, self.Pos)
		distSq := r2.Norm2(delta)

		if distSq < cohesionSq {
			sumPos = r2.Add(sumPos, n.Pos)
			agg.CohesionCount++
			if distSq < separationSq {
				sumSep = r2.Sub(sumSep, delta)
				agg.SeparationCount++
			}
		}
		if distSq < alignmentSq {
			sumHeading = r2.Add(sumHeading, n.Heading)
			agg.AlignmentCount++
		}
	}

	if agg.CohesionCount > 0 {
		agg.Center = r2.Scale(1/float64(agg.CohesionCount), sumPos)
	}
	if agg.SeparationCount > 0 {
		agg.Separation = r2.Scale(1/float64(agg.SeparationCount), sumSep)
	}
	if agg.AlignmentCount > 0 {
		agg.Alignment = r2.Scale(1/float64(agg.AlignmentCount), sumHeading)
	}
	return agg
}

// Apply stores the aggregate on the boid for the steering pass.
func (a FlockAggregate) Apply(b *components.Boid) {
	b.FlockCenter = a.Center
	b.Separation = a.Separation
	b.Alignment = a.Alignment
	b.CohesionCount = a.CohesionCount
	b.SeparationCount = a.SeparationCount
	b.AlignmentCount = a.AlignmentCount
}
