package telemetry

import (
	"log/slog"
	"time"
)

// Phase identifies one stage of the simulation step.
type Phase uint8

// Phases in the order Step runs them.
const (
	PhaseHunger Phase = iota
	PhaseSpatialIndex
	PhaseFlocking
	PhaseHunting
	PhaseSteering
	PhaseMovement
	PhaseLifecycle
	PhaseTelemetry
	phaseCount
)

var phaseNames = [phaseCount]string{
	"hunger", "spatial_index", "flocking", "hunting",
	"steering", "movement", "lifecycle", "telemetry",
}

func (p Phase) String() string {
	if p < phaseCount {
		return phaseNames[p]
	}
	return "unknown"
}

// phaseTimes is the time spent in each phase during one tick.
type phaseTimes [phaseCount]time.Duration

type tickSample struct {
	total  time.Duration
	phases phaseTimes
}

// PerfCollector keeps a ring of the last windowSize tick timings.
type PerfCollector struct {
	ring  []tickSample
	next  int
	count int

	current    phaseTimes
	tickStart  time.Time
	phaseStart time.Time
	phase      Phase
	inPhase    bool
}

// NewPerfCollector creates a collector averaging over windowSize ticks.
func NewPerfCollector(windowSize int) *PerfCollector {
	if windowSize < 1 {
		windowSize = 60
	}
	return &PerfCollector{ring: make([]tickSample, windowSize)}
}

// StartTick begins timing a new tick.
func (p *PerfCollector) StartTick() {
	p.tickStart = time.Now()
	p.current = phaseTimes{}
	p.inPhase = false
}

// StartPhase closes the running phase, if any, and opens phase.
func (p *PerfCollector) StartPhase(phase Phase) {
	now := time.Now()
	p.closePhase(now)
	p.phase = phase
	p.phaseStart = now
	p.inPhase = true
}

// EndTick closes the running phase and stores the tick.
func (p *PerfCollector) EndTick() {
	now := time.Now()
	p.closePhase(now)
	p.inPhase = false

	p.ring[p.next] = tickSample{total: now.Sub(p.tickStart), phases: p.current}
	p.next = (p.next + 1) % len(p.ring)
	p.count = min(p.count+1, len(p.ring))
}

func (p *PerfCollector) closePhase(now time.Time) {
	if p.inPhase && p.phase < phaseCount {
		p.current[p.phase] += now.Sub(p.phaseStart)
	}
}

// PerfStats summarizes the ticks currently in the ring.
type PerfStats struct {
	AvgTick        time.Duration
	MinTick        time.Duration
	MaxTick        time.Duration
	TicksPerSecond float64
	PhaseAvg       [phaseCount]time.Duration
	PhasePct       [phaseCount]float64 // share of the average tick, 0-100
}

// Pct returns the share of tick time spent in phase.
func (s PerfStats) Pct(phase Phase) float64 {
	if phase >= phaseCount {
		return 0
	}
	return s.PhasePct[phase]
}

// Stats aggregates the ring. An empty collector yields zero stats.
func (p *PerfCollector) Stats() PerfStats {
	var s PerfStats
	if p.count == 0 {
		return s
	}

	var total time.Duration
	var sums phaseTimes
	for i, t := range p.ring[:p.count] {
		total += t.total
		if i == 0 || t.total < s.MinTick {
			s.MinTick = t.total
		}
		s.MaxTick = max(s.MaxTick, t.total)
		for ph, d := range t.phases {
			sums[ph] += d
		}
	}

	n := time.Duration(p.count)
	s.AvgTick = total / n
	for ph := range sums {
		s.PhaseAvg[ph] = sums[ph] / n
		if s.AvgTick > 0 {
			s.PhasePct[ph] = 100 * float64(s.PhaseAvg[ph]) / float64(s.AvgTick)
		}
	}
	if s.AvgTick > 0 {
		s.TicksPerSecond = float64(time.Second) / float64(s.AvgTick)
	}
	return s
}

// LogStats writes the summary at info level.
func (s PerfStats) LogStats() {
	slog.Info("perf", "stats", s)
}

// LogValue implements slog.LogValuer. Phases under 0.1% are omitted.
func (s PerfStats) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, 4+int(phaseCount))
	attrs = append(attrs,
		slog.Int64("avg_tick_us", s.AvgTick.Microseconds()),
		slog.Int64("min_tick_us", s.MinTick.Microseconds()),
		slog.Int64("max_tick_us", s.MaxTick.Microseconds()),
		slog.Float64("ticks_per_sec", s.TicksPerSecond),
	)
	for ph := Phase(0); ph < phaseCount; ph++ {
		if pct := s.PhasePct[ph]; pct >= 0.1 {
			attrs = append(attrs, slog.Float64(ph.String()+"_pct", pct))
		}
	}
	return slog.GroupValue(attrs...)
}

// PerfRow is one perf.csv line.
type PerfRow struct {
	WindowEnd       int32   `csv:"window_end"`
	AvgTickUS       int64   `csv:"avg_tick_us"`
	MinTickUS       int64   `csv:"min_tick_us"`
	MaxTickUS       int64   `csv:"max_tick_us"`
	TicksPerSec     float64 `csv:"ticks_per_sec"`
	HungerPct       float64 `csv:"hunger_pct"`
	SpatialIndexPct float64 `csv:"spatial_index_pct"`
	FlockingPct     float64 `csv:"flocking_pct"`
	HuntingPct      float64 `csv:"hunting_pct"`
	SteeringPct     float64 `csv:"steering_pct"`
	MovementPct     float64 `csv:"movement_pct"`
	LifecyclePct    float64 `csv:"lifecycle_pct"`
	TelemetryPct    float64 `csv:"telemetry_pct"`
}

// Row flattens the stats for the window ending at windowEnd.
func (s PerfStats) Row(windowEnd int32) PerfRow {
	return PerfRow{
		WindowEnd:       windowEnd,
		AvgTickUS:       s.AvgTick.Microseconds(),
		MinTickUS:       s.MinTick.Microseconds(),
		MaxTickUS:       s.MaxTick.Microseconds(),
		TicksPerSec:     s.TicksPerSecond,
		HungerPct:       s.PhasePct[PhaseHunger],
		SpatialIndexPct: s.PhasePct[PhaseSpatialIndex],
		FlockingPct:     s.PhasePct[PhaseFlocking],
		HuntingPct:      s.PhasePct[PhaseHunting],
		SteeringPct:     s.PhasePct[PhaseSteering],
		MovementPct:     s.PhasePct[PhaseMovement],
		LifecyclePct:    s.PhasePct[PhaseLifecycle],
		TelemetryPct:    s.PhasePct[PhaseTelemetry],
	}
}
