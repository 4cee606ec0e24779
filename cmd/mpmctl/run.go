package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/pthm-cable/mpm2d/game"
	"github.com/pthm-cable/mpm2d/telemetry"
)

func runHeadless(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	g, err := game.NewGameWithOptions(game.Options{
		Config:         cfg,
		Seed:           seed,
		LogStats:       logStats,
		SnapshotDir:    snapshotDir,
		OutputDir:      outputDir,
		RestorePath:    restorePath,
		Headless:       true,
		StepsPerUpdate: stepsPerUpdate,
	})
	if err != nil {
		return err
	}
	defer g.Unload()

	var last telemetry.WindowStats
	windows := 0
	g.SetStatsCallback(func(s telemetry.WindowStats) {
		last = s
		windows++
	})

	slog.Info("run started", "seed", g.Seed(), "particles", g.State().ParticleCount(), "ticks", maxTicks)
	for int(g.Tick()) < maxTicks {
		g.UpdateHeadless()
	}

	if snapshotDir != "" {
		path, err := g.SaveSnapshot()
		if err != nil {
			return err
		}
		slog.Info("snapshot written", "path", path)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, titleStyle.Render("Run complete"))
	rows := [][]string{
		{"ticks", fmt.Sprint(g.Tick())},
		{"particles", fmt.Sprint(g.State().ParticleCount())},
		{"windows", fmt.Sprint(windows)},
	}
	if windows > 0 {
		rows = append(rows,
			[]string{"density_mean", fmt.Sprintf("%.3f", last.DensityMean)},
			[]string{"max_speed", fmt.Sprintf("%.3f", last.MaxSpeed)},
			[]string{"removed", fmt.Sprint(last.Removed)},
		)
	}
	fmt.Fprintln(out, table([]string{"metric", "value"}, rows, []int{16, 14}))
	return nil
}
