package components

import "gonum.org/v1/gonum/spatial/r2"

// Position represents an entity's world position.
// Owned by the host kinematics; the core only reads it.
type Position struct {
	r2.Vec
}

// Velocity represents an entity's linear velocity in world units per second.
type Velocity struct {
	r2.Vec
}

// Rotation represents an entity's facing angle in radians.
// Steering applies incremental deltas, never absolute sets.
type Rotation struct {
	Angle float64
}

// GridCell is an integer cell coordinate in the adaptive spatial index.
type GridCell struct {
	X, Y int32
}

// UnassignedCell marks an entity that has not been indexed yet.
var UnassignedCell = GridCell{X: -15000, Y: -15000}

// Offset returns the cell displaced by (dx, dy).
func (c GridCell) Offset(dx, dy int32) GridCell {
	return GridCell{X: c.X + dx, Y: c.Y + dy}
}
