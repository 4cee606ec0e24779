package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/mpm2d/grid"
	"github.com/pthm-cable/mpm2d/material"
)

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, float32(1), cfg.Derived.CellWidth32)
	assert.Equal(t, grid.NewBounds(128), cfg.Derived.Bounds)
	assert.Equal(t, grid.Slip, cfg.Derived.Boundary)
	assert.Equal(t, material.DefaultParams().RestDensity, cfg.Derived.Material.RestDensity)
	assert.Equal(t, 120, cfg.Derived.StatsTicks)
	assert.Equal(t, float32(128), cfg.Derived.WorldW32)

	sim := cfg.Simulation()
	assert.Equal(t, float32(-80), sim.Gravity.Y)
	assert.False(t, sim.Constraints.Enabled)
	assert.Equal(t, 4, sim.Constraints.Iterations)
	assert.Equal(t, float32(1e6), sim.Health.ConditionThreshold)
}

func TestLoadOverrides(t *testing.T) {
	path := writeTemp(t, `
physics:
  boundary: stick
fluid:
  preset: honey
  dynamic_viscosity: 0.25
constraints:
  enabled: true
world:
  max_cell: [64, 32]
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, grid.Stick, cfg.Derived.Boundary)
	assert.Equal(t, material.Presets["honey"].RestDensity, cfg.Derived.Material.RestDensity)
	assert.Equal(t, float32(0.25), cfg.Derived.Material.DynamicViscosity)
	assert.True(t, cfg.Simulation().Constraints.Enabled)
	assert.Equal(t, grid.Coord{X: 64, Y: 32}, cfg.Derived.Bounds.Max)
	// Untouched keys keep their defaults.
	assert.Equal(t, 2, cfg.Physics.StepsPerUpdate)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad boundary", "physics:\n  boundary: bouncy\n"},
		{"bad preset", "fluid:\n  preset: lava\n"},
		{"zero cell width", "world:\n  cell_width: 0\n"},
		{"empty range", "world:\n  min_cell: [10, 10]\n  max_cell: [10, 20]\n"},
		{"negative dt", "physics:\n  dt: -1\n"},
		{"bad density", "fluid:\n  rest_density: -2\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeTemp(t, tt.content))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidConfig), "got %v", err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	cfg.Physics.Boundary = "open"

	path := filepath.Join(t.TempDir(), "out.yaml")
	require.NoError(t, cfg.WriteYAML(path))

	again, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, grid.Open, again.Derived.Boundary)
	assert.Equal(t, cfg.Scene, again.Scene)
}

func TestInitAndCfg(t *testing.T) {
	require.NoError(t, Init(""))
	assert.NotNil(t, Cfg())
	assert.Equal(t, 60, Cfg().Screen.TargetFPS)
}

func TestCloneIsIndependent(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	mu := 0.1
	cfg.Fluid.DynamicViscosity = &mu

	clone := cfg.Clone()
	*clone.Fluid.DynamicViscosity = 0.9
	clone.Physics.Boundary = "stick"
	require.NoError(t, clone.Refresh())

	assert.Equal(t, 0.1, *cfg.Fluid.DynamicViscosity)
	assert.Equal(t, grid.Slip, cfg.Derived.Boundary)
	assert.Equal(t, grid.Stick, clone.Derived.Boundary)
	assert.Equal(t, float32(0.9), clone.Derived.Material.DynamicViscosity)
}
