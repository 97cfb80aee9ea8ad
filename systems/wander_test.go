package systems

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"
)

func TestWanderDisabled(t *testing.T) {
	var nilWander *Wander
	if nilWander.Enabled() {
		t.Error("nil wander reports enabled")
	}
	w := NewWander(1, 0.2, 0)
	if got := w.Direction(3, 12.5); got != (r2.Vec{}) {
		t.Errorf("Direction() = %v, want zero when strength is 0", got)
	}
}

func TestWanderMagnitudeAndContinuity(t *testing.T) {
	w := NewWander(42, 0.2, 0.5)
	prev := w.Direction(7, 0)
	for i := 1; i <= 100; i++ {
		d := w.Direction(7, float64(i)*0.1)
		if n := r2.Norm(d); math.Abs(n-0.5) > 1e-9 {
			t.Fatalf("|Direction| = %v, want 0.5", n)
		}
		// Small time steps give small direction changes.
		if math.Abs(signedAngle(prev, d)) > math.Pi/4 {
			t.Fatalf("step %d turned %v rad", i, signedAngle(prev, d))
		}
		prev = d
	}
}

func TestWanderDeterministic(t *testing.T) {
	a := NewWander(9, 0.3, 1)
	b := NewWander(9, 0.3, 1)
	for i := 0; i < 20; i++ {
		ts := float64(i) * 0.7
		if a.Direction(uint32(i), ts) != b.Direction(uint32(i), ts) {
			t.Fatalf("same seed diverged at %d", i)
		}
	}
}
