package systems

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/boids/components"
)

func TestSteerIsolatedFollowsDesired(t *testing.T) {
	h := &components.Heading{Direction: r2.Vec{X: 1, Y: 0}}
	b := &components.Boid{DesiredFactor: 1, TurnSpeed: 1, Desired: r2.Vec{X: 0, Y: 1}}

	delta := Steer(h, b, r2.Vec{})
	if !vecNear(h.Direction, r2.Vec{X: 0, Y: 1}, 1e-9) {
		t.Errorf("Direction = %v, want (0,1)", h.Direction)
	}
	if math.Abs(delta-math.Pi/2) > 1e-9 {
		t.Errorf("delta = %v, want pi/2", delta)
	}
	if !vecNear(h.Up, r2.Vec{X: -1, Y: 0}, 1e-9) {
		t.Errorf("Up = %v, want (-1,0)", h.Up)
	}
}

func TestSteerTurnSpeedSmoothing(t *testing.T) {
	tests := []struct {
		name      string
		turnSpeed float64
		want      r2.Vec
	}{
		{"full turn", 1, r2.Vec{X: 0, Y: 1}},
		{"half turn", 0.5, r2.Vec{X: 0.5, Y: 0.5}},
		{"slow turn", 0.1, r2.Vec{X: 0.9, Y: 0.1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &components.Heading{Direction: r2.Vec{X: 1, Y: 0}}
			b := &components.Boid{DesiredFactor: 1, TurnSpeed: tt.turnSpeed, Desired: r2.Vec{X: 0, Y: 1}}
			Steer(h, b, r2.Vec{})
			if !vecNear(h.Direction, tt.want, 1e-9) {
				t.Errorf("Direction = %v, want %v", h.Direction, tt.want)
			}
		})
	}
}

func TestSteerIgnoresAbsentForces(t *testing.T) {
	// Stale aggregates with zero counts must not leak into the blend.
	h := &components.Heading{Direction: r2.Vec{X: 1, Y: 0}}
	b := &components.Boid{
		CohesionFactor:   1,
		SeparationFactor: 1,
		AlignmentFactor:  1,
		DesiredFactor:    1,
		TurnSpeed:        1,
		FlockCenter:      r2.Vec{X: -50, Y: 0},
		Separation:       r2.Vec{X: 0, Y: -3},
		Alignment:        r2.Vec{X: -1, Y: 0},
		Desired:          r2.Vec{X: 0, Y: 1},
	}
	Steer(h, b, r2.Vec{})
	if !vecNear(h.Direction, r2.Vec{X: 0, Y: 1}, 1e-9) {
		t.Errorf("Direction = %v, want (0,1)", h.Direction)
	}
}

func TestSteerBlendsFlockForces(t *testing.T) {
	h := &components.Heading{Direction: r2.Vec{X: 1, Y: 0}}
	b := &components.Boid{
		CohesionFactor:   1,
		SeparationFactor: 1,
		AlignmentFactor:  1,
		TurnSpeed:        1,
		FlockCenter:      r2.Vec{X: 0, Y: 10},
		Separation:       r2.Vec{X: 0, Y: -0.5},
		Alignment:        r2.Vec{X: 2, Y: 0},
		CohesionCount:    3,
		SeparationCount:  1,
		AlignmentCount:   2,
	}
	Steer(h, b, r2.Vec{})

	// cohesion (0,1) + separation (0,-1) + alignment (2,0), normalized.
	if !vecNear(h.Direction, r2.Vec{X: 1, Y: 0}, 1e-9) {
		t.Errorf("Direction = %v, want (1,0)", h.Direction)
	}
}

func TestSteerNoInputKeepsDecaying(t *testing.T) {
	h := &components.Heading{Direction: r2.Vec{X: 1, Y: 0}}
	b := &components.Boid{TurnSpeed: 0.5}

	delta := Steer(h, b, r2.Vec{})
	if !vecNear(h.Direction, r2.Vec{X: 0.5, Y: 0}, 1e-9) {
		t.Errorf("Direction = %v, want (0.5,0)", h.Direction)
	}
	if delta != 0 {
		t.Errorf("delta = %v, want 0 for a pure slowdown", delta)
	}
}

func TestSignedAngle(t *testing.T) {
	tests := []struct {
		name     string
		from, to r2.Vec
		want     float64
	}{
		{"same", r2.Vec{X: 1}, r2.Vec{X: 2}, 0},
		{"quarter ccw", r2.Vec{X: 1}, r2.Vec{Y: 1}, math.Pi / 2},
		{"quarter cw", r2.Vec{X: 1}, r2.Vec{Y: -1}, -math.Pi / 2},
		{"zero from", r2.Vec{}, r2.Vec{Y: 1}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := signedAngle(tt.from, tt.to); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("signedAngle(%v, %v) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}
