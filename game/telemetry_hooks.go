package game

import (
	"log/slog"

	"github.com/pthm-cable/boids/telemetry"
)

// flushTelemetry checks if the stats window should be flushed and handles bookmarks.
func (g *Game) flushTelemetry() {
	if !g.collector.ShouldFlush(g.tick) {
		return
	}

	stats := g.collector.Flush(g.tick, g.sample())
	perfStats := g.perfCollector.Stats()

	if g.statsCallback != nil {
		g.statsCallback(stats)
	}

	if g.logStats {
		stats.LogStats()
		perfStats.LogStats()
	}

	if err := g.outputManager.WriteTelemetry(stats); err != nil {
		slog.Error("failed to write telemetry", "error", err)
	}
	if err := g.outputManager.WritePerf(perfStats, stats.WindowEndTick); err != nil {
		slog.Error("failed to write perf", "error", err)
	}
	if err := g.archive.InsertWindow(stats); err != nil {
		slog.Error("failed to archive window", "error", err)
	}

	for _, bm := range g.bookmarkDetector.Check(stats) {
		bm.LogBookmark()

		if err := g.outputManager.WriteBookmark(bm); err != nil {
			slog.Error("failed to write bookmark", "error", err)
		}
		if err := g.archive.InsertBookmark(bm); err != nil {
			slog.Error("failed to archive bookmark", "error", err)
		}
		if g.snapshotDir != "" {
			g.saveSnapshot(&bm)
		}
	}
}

// sample gathers the population state for a window flush.
func (g *Game) sample() telemetry.Sample {
	s := telemetry.Sample{
		Boids:         g.numBoids,
		PlayerAlive:   g.playerAlive,
		Hungers:       make([]float64, 0, g.numBoids),
		CellSize:      g.index.CellSize(),
		OccupiedCells: g.index.CellCount(),
		LargestCell:   g.index.Largest(),
	}

	query := g.boidFilter.Query()
	for query.Next() {
		_, _, _, _, hunger, _, hunt := query.Get()
		s.Hungers = append(s.Hungers, hunger.Value)
		if int(hunt.State) < len(s.States) {
			s.States[hunt.State]++
		}
	}

	health := g.healthFilter.Query()
	for health.Next() {
		if g.preyMap.Has(health.Entity()) {
			s.Prey++
			s.PreyHealth = append(s.PreyHealth, float64(health.Get().Current))
		}
	}
	return s
}

// saveSnapshot creates and saves a snapshot to disk.
func (g *Game) saveSnapshot(bookmark *telemetry.Bookmark) {
	path, err := telemetry.SaveSnapshot(g.createSnapshot(bookmark), g.snapshotDir)
	if err != nil {
		slog.Error("failed to save snapshot", "error", err)
		return
	}
	slog.Info("snapshot saved", "path", path, "tick", g.tick)
}

// createSnapshot builds a snapshot from the current state.
func (g *Game) createSnapshot(bookmark *telemetry.Bookmark) *telemetry.Snapshot {
	snapshot := &telemetry.Snapshot{
		Version:     telemetry.SnapshotVersion,
		RunID:       g.RunID(),
		Seed:        g.seed,
		WorldWidth:  g.cfg.World.Width,
		WorldHeight: g.cfg.World.Height,
		CellSize:    g.index.CellSize(),
		Tick:        g.tick,
		Bookmark:    bookmark,
	}

	query := g.posFilter.Query()
	for query.Next() {
		e := query.Entity()
		pos := query.Get()

		state := telemetry.EntityState{
			ID:     e.ID(),
			Player: g.playerMap.Has(e),
			Prey:   g.preyMap.Has(e),
			X:      pos.X,
			Y:      pos.Y,
		}
		if g.nameMap.Has(e) {
			state.Name = g.nameMap.Get(e).Value
		}
		if g.velMap.Has(e) {
			vel := g.velMap.Get(e)
			state.VelX, state.VelY = vel.X, vel.Y
		}
		if g.rotMap.Has(e) {
			state.Angle = g.rotMap.Get(e).Angle
		}
		if g.headingMap.Has(e) {
			dir := g.headingMap.Get(e).Direction
			state.HeadingX, state.HeadingY = dir.X, dir.Y
		}
		if g.healthMap.Has(e) {
			health := g.healthMap.Get(e)
			state.Health, state.MaxHealth = health.Current, health.Max
		}
		if g.hungerMap.Has(e) {
			state.Hunger = g.hungerMap.Get(e).Value
		}
		if g.huntMap.Has(e) {
			hunt := g.huntMap.Get(e)
			state.HuntState = hunt.State.String()
			if hunt.HasTarget {
				id := hunt.Target.ID()
				state.TargetID = &id
			}
		}
		if hs := g.hunters.Get(e.ID()); hs != nil {
			copied := *hs
			state.Hunter = &copied
		}

		snapshot.Entities = append(snapshot.Entities, state)
	}

	return snapshot
}
