// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/mpm2d/grid"
	"github.com/pthm-cable/mpm2d/material"
	"github.com/pthm-cable/mpm2d/mpm"
	"github.com/pthm-cable/mpm2d/particles"
	"github.com/pthm-cable/mpm2d/solver"
	"github.com/pthm-cable/mpm2d/vmath"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// ErrInvalidConfig is wrapped by every Validate failure.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// Config holds all simulation configuration parameters.
type Config struct {
	Screen      ScreenConfig      `yaml:"screen"`
	World       WorldConfig       `yaml:"world"`
	Physics     PhysicsConfig     `yaml:"physics"`
	Fluid       FluidConfig       `yaml:"fluid"`
	Constraints ConstraintsConfig `yaml:"constraints"`
	Health      HealthConfig      `yaml:"health"`
	Parallel    ParallelConfig    `yaml:"parallel"`
	Scene       SceneConfig       `yaml:"scene"`
	Telemetry   TelemetryConfig   `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
}

// WorldConfig holds the grid geometry.
type WorldConfig struct {
	CellWidth float64 `yaml:"cell_width"` // World units per grid cell
	MinCell   [2]int  `yaml:"min_cell"`   // Inclusive lower corner of the valid cell range
	MaxCell   [2]int  `yaml:"max_cell"`   // Exclusive upper corner
}

// PhysicsConfig holds time stepping and body forces.
type PhysicsConfig struct {
	DT             float64    `yaml:"dt"`
	Gravity        [2]float64 `yaml:"gravity"`
	Boundary       string     `yaml:"boundary"` // stick, slip or open
	StepsPerUpdate int        `yaml:"steps_per_update"`
}

// FluidConfig selects a preset and optional overrides.
type FluidConfig struct {
	Preset           string   `yaml:"preset"`
	RestDensity      *float64 `yaml:"rest_density,omitempty"`
	EOSStiffness     *float64 `yaml:"eos_stiffness,omitempty"`
	EOSPower         *int     `yaml:"eos_power,omitempty"`
	DynamicViscosity *float64 `yaml:"dynamic_viscosity,omitempty"`

	PreserveVolume           bool    `yaml:"preserve_volume"`
	VolumeCorrectionStrength float64 `yaml:"volume_correction_strength"`
}

// ConstraintsConfig holds the incompressibility pass settings.
type ConstraintsConfig struct {
	Enabled         bool    `yaml:"enabled"`
	Iterations      int     `yaml:"iterations"`
	Relaxation      float64 `yaml:"relaxation"`
	WarmStartWeight float64 `yaml:"warm_start_weight"`
	Tolerance       float64 `yaml:"tolerance"` // 0 = fixed iteration count
}

// HealthConfig holds the particle failure thresholds.
type HealthConfig struct {
	ConditionThreshold float64 `yaml:"condition_threshold"`
	ConditionFloor     float64 `yaml:"condition_floor"`
}

// ParallelConfig holds worker pool settings.
type ParallelConfig struct {
	Workers   int `yaml:"workers"`   // 0 = GOMAXPROCS
	Threshold int `yaml:"threshold"` // Minimum items before going parallel
}

// SceneConfig describes the initial block of fluid.
type SceneConfig struct {
	Origin  [2]float64 `yaml:"origin"`  // Lower-left corner in world units
	Size    [2]float64 `yaml:"size"`    // Block extent in world units
	Spacing float64    `yaml:"spacing"` // Distance between particles
	Jitter  float64    `yaml:"jitter"`  // Random offset as a fraction of spacing
	Seed    int64      `yaml:"seed"`
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow         float64 `yaml:"stats_window"` // Seconds of sim time per stats row
	PerfCollectorWindow int     `yaml:"perf_collector_window"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	DT32        float32           // Physics.DT as float32
	CellWidth32 float32           // World.CellWidth as float32
	Bounds      grid.Bounds       // World cell range
	Boundary    grid.BoundaryMode // Parsed Physics.Boundary
	Material    material.Params   // Preset plus overrides
	WorldW32    float32           // World width in world units
	WorldH32    float32           // World height in world units
	StatsTicks  int               // Telemetry.StatsWindow in steps
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	// Start with embedded defaults
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	// Load user config if provided
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Refresh(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Refresh recomputes derived values and validates; call it after editing
// fields in code.
func (c *Config) Refresh() error {
	if err := c.computeDerived(); err != nil {
		return err
	}
	return c.Validate()
}

// Clone returns a deep copy that can be edited independently.
func (c *Config) Clone() *Config {
	out := *c
	out.Fluid.RestDensity = clonePtr(c.Fluid.RestDensity)
	out.Fluid.EOSStiffness = clonePtr(c.Fluid.EOSStiffness)
	out.Fluid.EOSPower = clonePtr(c.Fluid.EOSPower)
	out.Fluid.DynamicViscosity = clonePtr(c.Fluid.DynamicViscosity)
	return &out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() error {
	c.Derived.DT32 = float32(c.Physics.DT)
	c.Derived.CellWidth32 = float32(c.World.CellWidth)
	c.Derived.Bounds = grid.Bounds{
		Min: grid.Coord{X: int32(c.World.MinCell[0]), Y: int32(c.World.MinCell[1])},
		Max: grid.Coord{X: int32(c.World.MaxCell[0]), Y: int32(c.World.MaxCell[1])},
	}
	c.Derived.WorldW32 = float32(c.World.MaxCell[0]-c.World.MinCell[0]) * c.Derived.CellWidth32
	c.Derived.WorldH32 = float32(c.World.MaxCell[1]-c.World.MinCell[1]) * c.Derived.CellWidth32

	mode, err := grid.ParseBoundaryMode(c.Physics.Boundary)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	c.Derived.Boundary = mode

	params := material.DefaultParams()
	if c.Fluid.Preset != "" {
		preset, ok := material.Presets[c.Fluid.Preset]
		if !ok {
			return fmt.Errorf("%w: unknown fluid preset %q (have %v)", ErrInvalidConfig, c.Fluid.Preset, material.PresetNames())
		}
		params = preset.Apply(params)
	}
	if c.Fluid.RestDensity != nil {
		params.RestDensity = float32(*c.Fluid.RestDensity)
	}
	if c.Fluid.EOSStiffness != nil {
		params.EOSStiffness = float32(*c.Fluid.EOSStiffness)
	}
	if c.Fluid.EOSPower != nil {
		params.EOSPower = *c.Fluid.EOSPower
	}
	if c.Fluid.DynamicViscosity != nil {
		params.DynamicViscosity = float32(*c.Fluid.DynamicViscosity)
	}
	params.PreserveVolume = c.Fluid.PreserveVolume
	params.VolumeCorrectionStrength = float32(c.Fluid.VolumeCorrectionStrength)
	c.Derived.Material = params

	c.Derived.StatsTicks = 1
	if c.Physics.DT > 0 && c.Telemetry.StatsWindow > 0 {
		c.Derived.StatsTicks = max(1, int(c.Telemetry.StatsWindow/c.Physics.DT+0.5))
	}
	return nil
}

// Validate reports caller-contract violations before a simulation is built.
func (c *Config) Validate() error {
	switch {
	case !(c.World.CellWidth > 0):
		return fmt.Errorf("%w: world.cell_width must be positive, got %v", ErrInvalidConfig, c.World.CellWidth)
	case c.Derived.Bounds.Empty():
		return fmt.Errorf("%w: world cell range %v..%v is empty", ErrInvalidConfig, c.World.MinCell, c.World.MaxCell)
	case c.World.MaxCell[0]-c.World.MinCell[0] < 6 || c.World.MaxCell[1]-c.World.MinCell[1] < 6:
		return fmt.Errorf("%w: world needs at least 6 cells per axis", ErrInvalidConfig)
	case !(c.Physics.DT > 0):
		return fmt.Errorf("%w: physics.dt must be positive, got %v", ErrInvalidConfig, c.Physics.DT)
	case c.Constraints.Iterations < 0:
		return fmt.Errorf("%w: constraints.iterations must not be negative", ErrInvalidConfig)
	case c.Scene.Spacing < 0:
		return fmt.Errorf("%w: scene.spacing must not be negative", ErrInvalidConfig)
	}
	if err := c.Derived.Material.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// Simulation converts the configuration into the solver's value types.
func (c *Config) Simulation() mpm.Config {
	return mpm.Config{
		CellWidth: c.Derived.CellWidth32,
		Bounds:    c.Derived.Bounds,
		Gravity:   vmath.V2(float32(c.Physics.Gravity[0]), float32(c.Physics.Gravity[1])),
		Boundary:  c.Derived.Boundary,
		Material:  c.Derived.Material,
		Constraints: solver.ConstraintParams{
			Enabled:         c.Constraints.Enabled,
			Iterations:      c.Constraints.Iterations,
			Relaxation:      float32(c.Constraints.Relaxation),
			WarmStartWeight: float32(c.Constraints.WarmStartWeight),
			Tolerance:       float32(c.Constraints.Tolerance),
		},
		Health: particles.HealthParams{
			ConditionThreshold: float32(c.Health.ConditionThreshold),
			ConditionFloor:     float32(c.Health.ConditionFloor),
		},
		Workers:           c.Parallel.Workers,
		ParallelThreshold: c.Parallel.Threshold,
	}
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := c.MarshalYAMLBytes()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// MarshalYAMLBytes renders the configuration as YAML.
func (c *Config) MarshalYAMLBytes() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshaling config: %w", err)
	}
	return data, nil
}
