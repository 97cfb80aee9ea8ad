package systems

import (
	"math"

	opensimplex "github.com/ojrac/opensimplex-go"
	"gonum.org/v1/gonum/spatial/r2"
)

// Wander produces smooth, noise-driven directions for agents with nothing
// better to do. Each agent samples its own row of a 2D noise field, so
// neighbors drift independently.
type Wander struct {
	noise     opensimplex.Noise
	frequency float64
	strength  float64
}

// NewWander creates a wander source. A zero strength disables it.
func NewWander(seed int64, frequency, strength float64) *Wander {
	return &Wander{
		noise:     opensimplex.NewNormalized(seed),
		frequency: frequency,
		strength:  strength,
	}
}

// Enabled reports whether Direction can return a non-zero vector.
func (w *Wander) Enabled() bool {
	return w != nil && w.strength > 0
}

// Direction returns the wander vector for agent id at simulation time t.
func (w *Wander) Direction(id uint32, t float64) r2.Vec {
	if !w.Enabled() {
		return r2.Vec{}
	}
	// Normalized noise clusters around 0.5; two turns keeps the full circle reachable.
	n := w.noise.Eval2(t*w.frequency, float64(id)*7.31)
	angle := n * 4 * math.Pi
	return r2.Scale(w.strength, r2.Vec{X: math.Cos(angle), Y: math.Sin(angle)})
}
