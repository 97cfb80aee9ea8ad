// Package systems provides ECS systems for the simulation.
package systems

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/boids/components"
	"github.com/pthm-cable/boids/config"
)

var (
	// ErrInvalidPosition is returned for NaN or infinite coordinates.
	ErrInvalidPosition = errors.New("spatial: invalid position")
	// ErrInvalidGridConfig is returned when grid bounds are inconsistent.
	ErrInvalidGridConfig = errors.New("spatial: invalid grid config")
)

// RebuildState is the pending cell-size adjustment of a SpatialIndex.
type RebuildState uint8

const (
	RebuildStable RebuildState = iota
	RebuildShrinking
	RebuildGrowing
)

func (s RebuildState) String() string {
	switch s {
	case RebuildStable:
		return "stable"
	case RebuildShrinking:
		return "shrinking"
	case RebuildGrowing:
		return "growing"
	}
	return "unknown"
}

// slot locates an entity inside its cell's member slice.
type slot struct {
	cell components.GridCell
	idx  int
}

// SpatialIndex buckets entities into square cells whose size adapts to
// the observed density. Cells exist only while they have members.
//
// Members keep insertion order and are removed by swap, so every operation
// is O(1) and iteration is deterministic for a given sequence of calls.
type SpatialIndex struct {
	cellSize    float64
	minCellSize float64
	maxCellSize float64
	maxEntities int
	minEntities int

	cells   map[components.GridCell][]ecs.Entity
	slots   map[ecs.Entity]slot
	largest int
	state   RebuildState
	resizes int
}

// NewSpatialIndex creates an index from grid configuration.
// Inconsistent bounds are rejected here rather than at tick time.
func NewSpatialIndex(cfg config.GridConfig) (*SpatialIndex, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidGridConfig, err)
	}
	return &SpatialIndex{
		cellSize:    clampFloat(cfg.InitialCellSize, cfg.MinCellSize, cfg.MaxCellSize),
		minCellSize: cfg.MinCellSize,
		maxCellSize: cfg.MaxCellSize,
		maxEntities: cfg.MaxEntitiesPerCell,
		minEntities: cfg.MinEntitiesPerCell,
		cells:       make(map[components.GridCell][]ecs.Entity),
		slots:       make(map[ecs.Entity]slot),
	}, nil
}

// CellOf returns the cell containing pos at the current cell size.
func (s *SpatialIndex) CellOf(pos r2.Vec) (components.GridCell, error) {
	if !isFinite(pos) {
		return components.UnassignedCell, ErrInvalidPosition
	}
	x := math.Floor(pos.X / s.cellSize)
	y := math.Floor(pos.Y / s.cellSize)
	if x < math.MinInt32 || x > math.MaxInt32 || y < math.MinInt32 || y > math.MaxInt32 {
		return components.UnassignedCell, ErrInvalidPosition
	}
	return components.GridCell{X: int32(x), Y: int32(y)}, nil
}

// Cell returns the stored cell of e, if it is indexed.
func (s *SpatialIndex) Cell(e ecs.Entity) (components.GridCell, bool) {
	sl, ok := s.slots[e]
	if !ok {
		return components.UnassignedCell, false
	}
	return sl.cell, true
}

// Reindex moves e to the cell containing pos. An entity with no stored
// cell is inserted. Returns the entity's cell after the call.
func (s *SpatialIndex) Reindex(e ecs.Entity, pos r2.Vec) (components.GridCell, error) {
	cell, err := s.CellOf(pos)
	if err != nil {
		return components.UnassignedCell, err
	}

	if sl, ok := s.slots[e]; ok {
		if sl.cell == cell {
			s.observe(len(s.cells[cell]))
			return cell, nil
		}
		s.detach(e, sl)
	}

	members := append(s.cells[cell], e)
	s.cells[cell] = members
	s.slots[e] = slot{cell: cell, idx: len(members) - 1}
	s.observe(len(members))
	return cell, nil
}

// Remove drops e from the index. Unknown entities are ignored.
func (s *SpatialIndex) Remove(e ecs.Entity) {
	if sl, ok := s.slots[e]; ok {
		s.detach(e, sl)
	}
}

func (s *SpatialIndex) detach(e ecs.Entity, sl slot) {
	members := s.cells[sl.cell]
	last := len(members) - 1
	if sl.idx != last {
		moved := members[last]
		members[sl.idx] = moved
		s.slots[moved] = slot{cell: sl.cell, idx: sl.idx}
	}
	members = members[:last]
	if len(members) == 0 {
		delete(s.cells, sl.cell)
	} else {
		s.cells[sl.cell] = members
	}
	delete(s.slots, e)
}

func (s *SpatialIndex) observe(n int) {
	if n > s.largest {
		s.largest = n
	}
}

// Neighbors returns the members of the 3x3 block centered on cell.
func (s *SpatialIndex) Neighbors(cell components.GridCell) []ecs.Entity {
	return s.NeighborsInto(nil, cell)
}

// NeighborsInto appends the members of the 3x3 block centered on cell to dst.
// Reuse dst across calls to avoid allocations. Safe for concurrent readers
// as long as no writer runs.
func (s *SpatialIndex) NeighborsInto(dst []ecs.Entity, cell components.GridCell) []ecs.Entity {
	for dy := int32(-1); dy <= 1; dy++ {
		for dx := int32(-1); dx <= 1; dx++ {
			dst = append(dst, s.cells[cell.Offset(dx, dy)]...)
		}
	}
	return dst
}

// BeginPass starts an indexing pass. A pending resize is carried out here:
// the mapping is cleared and the cell size halved or doubled, so every
// entity is a pure insert for the rest of the pass. Returns true when the
// cell size changed.
func (s *SpatialIndex) BeginPass() bool {
	state := s.state
	s.state = RebuildStable
	s.largest = 0

	var next float64
	switch state {
	case RebuildShrinking:
		if s.cellSize <= s.minCellSize {
			return false
		}
		next = clampFloat(s.cellSize/2, s.minCellSize, s.maxCellSize)
	case RebuildGrowing:
		if s.cellSize >= s.maxCellSize {
			return false
		}
		next = clampFloat(s.cellSize*2, s.minCellSize, s.maxCellSize)
	default:
		return false
	}

	slog.Info("spatial index resized",
		"from", s.cellSize,
		"to", next,
		"reason", state.String(),
	)
	clear(s.cells)
	clear(s.slots)
	s.cellSize = next
	s.resizes++
	return true
}

// TickRebuildPolicy compares the fullest cell observed this pass against
// the thresholds and records the adjustment for the next pass.
func (s *SpatialIndex) TickRebuildPolicy() RebuildState {
	switch {
	case s.largest > s.maxEntities:
		s.state = RebuildShrinking
	case s.largest < s.minEntities:
		s.state = RebuildGrowing
	default:
		s.state = RebuildStable
	}
	// Already at the bound: nothing to do next pass.
	if (s.state == RebuildShrinking && s.cellSize <= s.minCellSize) ||
		(s.state == RebuildGrowing && s.cellSize >= s.maxCellSize) {
		s.state = RebuildStable
	}
	return s.state
}

// CellSize returns the current cell edge length.
func (s *SpatialIndex) CellSize() float64 { return s.cellSize }

// State returns the pending rebuild state.
func (s *SpatialIndex) State() RebuildState { return s.state }

// Largest returns the fullest cell population observed this pass.
func (s *SpatialIndex) Largest() int { return s.largest }

// Len returns the number of indexed entities.
func (s *SpatialIndex) Len() int { return len(s.slots) }

// CellCount returns the number of occupied cells.
func (s *SpatialIndex) CellCount() int { return len(s.cells) }

// Resizes returns how many times the cell size has changed.
func (s *SpatialIndex) Resizes() int { return s.resizes }
