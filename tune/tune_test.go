package tune

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/mpm2d/config"
	"github.com/pthm-cable/mpm2d/telemetry"
)

func smallConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.World.MaxCell = [2]int{32, 32}
	cfg.Scene.Origin = [2]float64{4, 4}
	cfg.Scene.Size = [2]float64{4, 4}
	cfg.Parallel.Workers = 1
	require.NoError(t, cfg.Refresh())
	return cfg
}

func TestNormalizeRoundTrip(t *testing.T) {
	pv := NewParamVector()
	raw := pv.DefaultVector()
	back := pv.Denormalize(pv.Normalize(raw))
	for i := range raw {
		assert.InDelta(t, raw[i], back[i], 1e-12)
	}
}

func TestClamp(t *testing.T) {
	pv := NewParamVector()
	got := pv.Clamp([]float64{-5, 100, 0.5})
	assert.Equal(t, []float64{2, 0.5, 0.5}, got)
}

func TestApplyToConfig(t *testing.T) {
	pv := NewParamVector()
	cfg := smallConfig(t)
	require.NoError(t, pv.ApplyToConfig(cfg, []float64{20, 0.25, 0.75}))

	assert.Equal(t, float32(20), cfg.Derived.Material.EOSStiffness)
	assert.Equal(t, float32(0.25), cfg.Derived.Material.DynamicViscosity)
	assert.Equal(t, 0.75, cfg.Constraints.Relaxation)
}

func TestScore(t *testing.T) {
	tests := []struct {
		name    string
		stats   telemetry.WindowStats
		initial int
		want    float64
	}{
		{"at rest", telemetry.WindowStats{Particles: 10, DensityMean: 2}, 10, 0},
		{"compressed", telemetry.WindowStats{Particles: 10, DensityMean: 3, DensityStd: 0.5}, 10, 0.75},
		{"losses", telemetry.WindowStats{Particles: 9, Removed: 1, DensityMean: 2}, 10, 1},
		{"empty", telemetry.WindowStats{}, 10, penalty},
		{"no start", telemetry.WindowStats{Particles: 1}, 0, penalty},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Score(tt.stats, tt.initial, 2), 1e-12)
		})
	}
}

func TestEvaluateDoesNotMutateBase(t *testing.T) {
	cfg := smallConfig(t)
	ev := NewEvaluator(NewParamVector(), cfg, 10, []int64{1})

	f := ev.Evaluate([]float64{30, 0.1, 0.5})
	assert.Less(t, f, float64(penalty))
	stats := ev.LastStats()
	assert.Greater(t, stats.Particles, 0)
	assert.Equal(t, 64, stats.Particles+stats.Removed)
	assert.Nil(t, cfg.Fluid.EOSStiffness)
}

func TestRunLogsEvaluations(t *testing.T) {
	cfg := smallConfig(t)
	pv := NewParamVector()
	ev := NewEvaluator(pv, cfg, 5, []int64{1})

	var buf bytes.Buffer
	evals := 0
	res, err := Run(ev, Options{
		MaxEvals: 3,
		Log:      &buf,
		Progress: func(int, float64, float64) { evals++ },
	})
	require.NoError(t, err)
	assert.Equal(t, evals, res.Evaluations)
	assert.GreaterOrEqual(t, res.Evaluations, 1)
	require.Len(t, res.Params, pv.Dim())
	for i, spec := range pv.Specs {
		assert.GreaterOrEqual(t, res.Params[i], spec.Min)
		assert.LessOrEqual(t, res.Params[i], spec.Max)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, []string{"eval", "fitness", "eos_stiffness", "dynamic_viscosity", "relaxation"}, rows[0])
	assert.Len(t, rows, res.Evaluations+1)
}
