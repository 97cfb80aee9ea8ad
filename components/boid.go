package components

import "gonum.org/v1/gonum/spatial/r2"

// Boid holds flocking tunables and the aggregates computed for the current tick.
// Distances are radii in world units; they are compared squared.
type Boid struct {
	CohesionDistance   float64
	SeparationDistance float64
	AlignmentDistance  float64
	CohesionFactor     float64
	SeparationFactor   float64
	AlignmentFactor    float64
	DesiredFactor      float64
	TurnSpeed          float64 // (0,1], lower = more inertia

	// Aggregates written by the flocking pass
	FlockCenter     r2.Vec
	Separation      r2.Vec
	Alignment       r2.Vec
	CohesionCount   int
	SeparationCount int
	AlignmentCount  int

	// Desired direction written by hunting or idle wander
	Desired r2.Vec
}

// Heading is the smoothed unit direction owned by steering.
type Heading struct {
	Direction  r2.Vec
	Up         r2.Vec // perpendicular to Direction, kept for callers that need a local frame
	ForceScale float64
}

// Name is a human-readable label used in logs.
type Name struct {
	Value string
}
