package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pthm-cable/mpm2d/tune"
)

func tuneParams(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(tuneDir, 0755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}

	logFile, err := os.Create(filepath.Join(tuneDir, "tune_log.csv"))
	if err != nil {
		return err
	}
	defer logFile.Close()

	seeds := make([]int64, max(1, tuneSeeds))
	for i := range seeds {
		seeds[i] = cfg.Scene.Seed + int64(i)
	}

	params := tune.NewParamVector()
	ev := tune.NewEvaluator(params, cfg, tuneTicks, seeds)

	slog.Info("tune started", "evals", tuneEvals, "ticks", tuneTicks, "seeds", len(seeds), "dim", params.Dim())
	result, err := tune.Run(ev, tune.Options{
		MaxEvals: tuneEvals,
		Log:      logFile,
		Progress: func(eval int, fitness, best float64) {
			slog.Info("evaluation", "eval", eval, "fitness", fitness, "best", best)
		},
	})
	if err != nil {
		return err
	}

	best := cfg.Clone()
	if err := params.ApplyToConfig(best, result.Params); err != nil {
		return err
	}
	bestPath := filepath.Join(tuneDir, "best_config.yaml")
	if err := best.WriteYAML(bestPath); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, titleStyle.Render("Tune complete"))
	rows := [][]string{{"fitness", fmt.Sprintf("%.5f", result.Fitness)}}
	for i, spec := range params.Specs {
		rows = append(rows, []string{spec.Name, fmt.Sprintf("%.4f", result.Params[i])})
	}
	fmt.Fprintln(out, table([]string{"param", "value"}, rows, []int{20, 12}))
	fmt.Fprintln(out, dimStyle.Render(fmt.Sprintf("%d evaluations, best config in %s", result.Evaluations, bestPath)))
	return nil
}
