package game

import (
	"context"
	"log/slog"
)

// Run steps the simulation until ctx is cancelled or maxTicks is reached
// (0 = unlimited). Cancellation is checked between ticks.
func (g *Game) Run(ctx context.Context, maxTicks int) error {
	slog.Info("starting headless simulation",
		"seed", g.seed,
		"max_ticks", maxTicks,
		"run_id", g.RunID(),
	)

	for {
		select {
		case <-ctx.Done():
			slog.Info("simulation interrupted", "tick", g.tick)
			return ctx.Err()
		default:
		}

		g.Step()

		if maxTicks > 0 && int(g.tick) >= maxTicks {
			slog.Info("max ticks reached", "tick", g.tick)
			return nil
		}
	}
}
