// Command mpmctl runs, benchmarks, tunes and inspects the fluid solver
// from the terminal.
package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/pthm-cable/mpm2d/config"
)

var (
	configFile     string
	outputDir      string
	snapshotDir    string
	restorePath    string
	maxTicks       int
	stepsPerUpdate int
	seed           int64
	logStats       bool
	debug          bool
	// Bench
	benchSizes []int
	benchSteps int
	// Plot
	column     string
	plotHeight int
	plotWidth  int
	// Tune
	tuneDir   string
	tuneEvals int
	tuneTicks int
	tuneSeeds int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "mpmctl",
		Short: "2D MLS-MPM fluid solver tools",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := slog.LevelInfo
			if debug {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (empty = embedded defaults)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run the configured scene headless",
		RunE:  runHeadless,
	}
	runCmd.Flags().IntVar(&maxTicks, "ticks", 1200, "steps to simulate")
	runCmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "directory for stats.csv, perf.csv and config.yaml")
	runCmd.Flags().StringVar(&snapshotDir, "snapshot-dir", "", "write a final snapshot to this directory")
	runCmd.Flags().StringVar(&restorePath, "restore", "", "start from a snapshot file")
	runCmd.Flags().IntVar(&stepsPerUpdate, "steps-per-update", 0, "steps per update (0 = config)")
	runCmd.Flags().Int64Var(&seed, "seed", 0, "scene seed (0 = config)")
	runCmd.Flags().BoolVar(&logStats, "log-stats", false, "log each stats window")

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "measure steps per second for several particle counts",
		RunE:  benchSolver,
	}
	benchCmd.Flags().IntSliceVar(&benchSizes, "sizes", []int{1000, 4000, 16000}, "particle counts")
	benchCmd.Flags().IntVar(&benchSteps, "steps", 120, "measured steps per size")

	plotCmd := &cobra.Command{
		Use:   "plot [csv]",
		Short: "plot a column of stats.csv or perf.csv",
		Args:  cobra.ExactArgs(1),
		RunE:  plotColumn,
	}
	plotCmd.Flags().StringVar(&column, "column", "density_mean", "column to plot")
	plotCmd.Flags().IntVar(&plotHeight, "height", 12, "graph height in rows")
	plotCmd.Flags().IntVar(&plotWidth, "width", 80, "graph width in columns")

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "print the effective configuration",
		RunE:  printConfig,
	}

	tuneCmd := &cobra.Command{
		Use:   "tune",
		Short: "search fluid parameters that hold rest density",
		RunE:  tuneParams,
	}
	tuneCmd.Flags().IntVar(&tuneEvals, "evals", 40, "maximum fitness evaluations")
	tuneCmd.Flags().IntVar(&tuneTicks, "ticks", 240, "steps per evaluation run")
	tuneCmd.Flags().IntVar(&tuneSeeds, "seeds", 2, "scene seeds per evaluation")
	tuneCmd.Flags().StringVarP(&tuneDir, "output-dir", "o", "tune_out", "directory for tune_log.csv and best_config.yaml")

	rootCmd.AddCommand(runCmd, benchCmd, plotCmd, configCmd, tuneCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig loads the --config file over the embedded defaults.
func loadConfig() (*config.Config, error) {
	return config.Load(configFile)
}

func printConfig(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	data, err := cfg.MarshalYAMLBytes()
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}
