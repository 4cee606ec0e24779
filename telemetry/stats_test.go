package telemetry

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/mpm2d/grid"
	"github.com/pthm-cable/mpm2d/material"
	"github.com/pthm-cable/mpm2d/particles"
	"github.com/pthm-cable/mpm2d/vmath"
)

func TestPercentile(t *testing.T) {
	tests := []struct {
		name   string
		sorted []float64
		p      float64
		want   float64
	}{
		{"empty slice", []float64{}, 0.5, 0},
		{"single element", []float64{5.0}, 0.5, 5.0},
		{"p0", []float64{1, 2, 3, 4, 5}, 0.0, 1.0},
		{"p100", []float64{1, 2, 3, 4, 5}, 1.0, 5.0},
		{"p50 odd", []float64{1, 2, 3, 4, 5}, 0.5, 3.0},
		{"p50 even", []float64{1, 2, 3, 4}, 0.5, 2.5},
		{"p10", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 0.1, 1.9},
		{"p90", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 0.9, 9.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Percentile(tt.sorted, tt.p)
			if math.Abs(got-tt.want) > 0.001 {
				t.Errorf("Percentile(%v, %v) = %v, want %v", tt.sorted, tt.p, got, tt.want)
			}
		})
	}
}

func TestComputeDistribution(t *testing.T) {
	values := []float64{1.0, 0.9, 0.8, 0.7, 0.6, 0.5, 0.4, 0.3, 0.2, 0.1}
	mean, std, p10, p50, p90 := ComputeDistribution(values)

	assert.InDelta(t, 0.55, mean, 1e-9)
	assert.InDelta(t, math.Sqrt(0.0825), std, 1e-9)
	assert.InDelta(t, 0.19, p10, 1e-9)
	assert.InDelta(t, 0.55, p50, 1e-9)
	assert.InDelta(t, 0.91, p90, 1e-9)
	// Input order is preserved.
	assert.Equal(t, 1.0, values[0])
}

func TestComputeDistributionEmpty(t *testing.T) {
	mean, std, p10, p50, p90 := ComputeDistribution(nil)
	if mean != 0 || std != 0 || p10 != 0 || p50 != 0 || p90 != 0 {
		t.Error("empty slice should return all zeros")
	}
}

func fluid(x, y, vx, vy, mass, density float32) particles.Particle {
	p := particles.New(vmath.V2(x, y), material.Fluid).
		WithVelocity(vmath.V2(vx, vy)).
		WithMass(mass)
	p.Density = density
	return p
}

func TestCollectorFlush(t *testing.T) {
	c := NewCollector(0.5, 0.25)
	require.Equal(t, int32(2), c.WindowDurationTicks())

	ps := []particles.Particle{
		fluid(1, 1, 3, 4, 2, 1.5),
		fluid(2, 2, 0, 0, 1, 2.5),
	}
	failed := fluid(3, 3, 100, 0, 50, 9)
	failed.Failed = true
	ps = append(ps, failed)
	ps[1].CondNum = float32(math.Inf(1))
	ps[0].CondNum = 7

	c.RecordStep(nil)
	assert.False(t, c.ShouldFlush(1))
	c.RecordStep([]int{0, particles.Removed, 1, particles.Removed})
	require.True(t, c.ShouldFlush(2))
	assert.Equal(t, 2, c.Steps())

	ws := c.Flush(2, ps, GridSample{
		ActiveCells:   17,
		Mass:          4,
		PhaseMass:     2,
		PhaseMomentum: [2]float64{6, 8},
	})
	assert.Equal(t, int32(0), ws.WindowStartTick)
	assert.Equal(t, int32(2), ws.WindowEndTick)
	assert.InDelta(t, 0.5, ws.SimTimeSec, 1e-9)
	assert.Equal(t, 2, ws.Particles)
	assert.Equal(t, 2, ws.Removed)
	assert.Equal(t, 17, ws.ActiveCells)
	assert.InDelta(t, 3, ws.TotalMass, 1e-9)
	// 0.5 * 2 * 25
	assert.InDelta(t, 25, ws.KineticEnergy, 1e-6)
	assert.InDelta(t, 2.5, ws.MeanSpeed, 1e-6)
	assert.InDelta(t, 5, ws.MaxSpeed, 1e-6)
	assert.InDelta(t, 2, ws.DensityMean, 1e-6)
	assert.InDelta(t, 0.5, ws.DensityStd, 1e-6)
	assert.InDelta(t, 7, ws.MaxCondNum, 1e-6)
	assert.InDelta(t, 0.5, ws.PhaseFraction, 1e-9)
	assert.InDelta(t, 5, ws.PhaseDrift, 1e-9)

	// Counters restart with the next window.
	assert.Equal(t, 0, c.Steps())
	assert.False(t, c.ShouldFlush(3))
	next := c.Flush(4, nil, SampleGrid(nil))
	assert.Equal(t, 0, next.Removed)
	assert.Equal(t, 0, next.Particles)
	assert.Equal(t, int32(2), next.WindowStartTick)
	assert.Zero(t, next.PhaseFraction)
	assert.Zero(t, next.ActiveCells)
}

func TestSampleGrid(t *testing.T) {
	g := grid.New(grid.NewBounds(16))
	a := g.GetOrCreate(grid.Coord{X: 4, Y: 4})
	a.Mass, a.PhaseMass = 2, 2
	a.PhaseMomentum = vmath.V2(0, -4)
	b := g.GetOrCreate(grid.Coord{X: 5, Y: 4})
	b.Mass = 2

	gs := SampleGrid(g)
	assert.Equal(t, 2, gs.ActiveCells)
	assert.InDelta(t, 4, gs.Mass, 1e-9)

	var ws WindowStats
	gs.fill(&ws)
	assert.InDelta(t, 0.5, ws.PhaseFraction, 1e-9)
	assert.InDelta(t, 2, ws.PhaseDrift, 1e-9)
}
