package game

import (
	"log/slog"

	"github.com/pthm-cable/mpm2d/telemetry"
)

// flushTelemetry checks if the stats window should be flushed.
func (g *Game) flushTelemetry() {
	if !g.collector.ShouldFlush(g.tick) {
		return
	}

	stats := g.collector.Flush(g.tick, g.state.Particles(), telemetry.SampleGrid(g.state.Grid()))
	perfStats := g.perfCollector.Stats()

	if g.statsCallback != nil {
		g.statsCallback(stats)
	}

	if g.logStats {
		stats.LogStats()
		perfStats.LogStats()
	}

	if g.outputManager != nil {
		if err := g.outputManager.WriteStats(stats); err != nil {
			slog.Error("failed to write stats", "error", err)
		}
		if err := g.outputManager.WritePerf(perfStats, stats.WindowEndTick); err != nil {
			slog.Error("failed to write perf", "error", err)
		}
	}
}

// SaveSnapshot writes the current particle state to the snapshot directory.
func (g *Game) SaveSnapshot() (string, error) {
	dir := g.snapshotDir
	if dir == "" {
		dir = g.outputManager.Dir()
	}
	if dir == "" {
		dir = "snapshots"
	}

	snap := telemetry.NewSnapshot(g.state, g.tick, g.seed)
	path, err := telemetry.SaveSnapshot(snap, dir)
	if err != nil {
		slog.Error("failed to save snapshot", "error", err)
		return "", err
	}
	slog.Info("snapshot saved", "path", path, "tick", g.tick, "particles", len(snap.Particles))
	return path, nil
}
