package main

import (
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/spf13/cobra"

	"github.com/pthm-cable/mpm2d/mpm"
	"github.com/pthm-cable/mpm2d/particles"
	"github.com/pthm-cable/mpm2d/scene"
	"github.com/pthm-cable/mpm2d/telemetry"
	"github.com/pthm-cable/mpm2d/vmath"
)

// warmupSteps are run before timing so the grid reaches its working size.
const warmupSteps = 10

type benchResult struct {
	particles   int
	activeCells int
	stepsPerSec float64
	stats       telemetry.PerfStats
}

func benchSolver(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	spacing := scene.Spacing(cfg)
	rest := cfg.Derived.Material.RestDensity
	b := cfg.Derived.Bounds
	cw := cfg.Derived.CellWidth32

	// Largest square lattice that fits inside the wall margin.
	room := (float32(b.Max.X-b.Min.X) - 6) * cw
	maxSide := int(room / spacing)

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, titleStyle.Render("MPM solver benchmark"))

	var results []benchResult
	for _, n := range benchSizes {
		side := int(math.Ceil(math.Sqrt(float64(n))))
		if side > maxSide {
			slog.Warn("size exceeds domain, clamping", "requested", n, "max", maxSide*maxSide)
			side = maxSide
		}

		s := mpm.New(cfg.Simulation())
		origin := vmath.V2(float32(b.Min.X)*cw+3*cw, float32(b.Min.Y)*cw+3*cw)
		ps := make([]particles.Particle, 0, side*side)
		for i := 0; i < side && len(ps) < n; i++ {
			for j := 0; j < side && len(ps) < n; j++ {
				pos := origin.Add(vmath.V2((float32(i)+0.5)*spacing, (float32(j)+0.5)*spacing))
				ps = append(ps, scene.Fluid(pos, spacing, rest))
			}
		}
		s.AddParticles(ps)

		for i := 0; i < warmupSteps; i++ {
			s.Advance(cfg.Derived.DT32)
		}

		perf := telemetry.NewPerfCollector(benchSteps)
		s.SetTimer(perf)
		start := time.Now()
		for i := 0; i < benchSteps; i++ {
			s.Advance(cfg.Derived.DT32)
		}
		elapsed := time.Since(start)

		results = append(results, benchResult{
			particles:   s.ParticleCount(),
			activeCells: s.GridActiveCellCount(),
			stepsPerSec: float64(benchSteps) / elapsed.Seconds(),
			stats:       perf.Stats(),
		})
		s.Close()
	}

	header := []string{"particles", "cells", "steps/s", "avg_us"}
	widths := []int{11, 9, 10, 9}
	for _, phase := range mpm.Phases {
		header = append(header, phase)
		widths = append(widths, max(len(phase)+2, 8))
	}
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		row := []string{
			fmt.Sprint(r.particles),
			fmt.Sprint(r.activeCells),
			fmt.Sprintf("%.1f", r.stepsPerSec),
			fmt.Sprint(r.stats.AvgTickDuration.Microseconds()),
		}
		for _, phase := range mpm.Phases {
			row = append(row, fmt.Sprintf("%.1f%%", r.stats.PhasePct[phase]))
		}
		rows = append(rows, row)
	}
	fmt.Fprintln(out, table(header, rows, widths))

	if len(results) > 0 {
		fastest := results[0]
		for _, r := range results[1:] {
			if pps(r) > pps(fastest) {
				fastest = r
			}
		}
		fmt.Fprintln(out, goodStyle.Render(fmt.Sprintf("peak throughput: %.0f particle-steps/s at %d particles",
			pps(fastest), fastest.particles)))
	}
	return nil
}

func pps(r benchResult) float64 {
	return r.stepsPerSec * float64(r.particles)
}
