// Package game hosts the fluid simulation: it owns the solver state, mirrors
// particles into render proxies, collects telemetry and drives the viewer.
package game

import (
	"log/slog"
	"math/rand"
	"time"

	"github.com/pthm-cable/mpm2d/camera"
	"github.com/pthm-cable/mpm2d/config"
	"github.com/pthm-cable/mpm2d/mpm"
	"github.com/pthm-cable/mpm2d/proxy"
	"github.com/pthm-cable/mpm2d/telemetry"
)

// maxStepsPerUpdate bounds the speed control.
const maxStepsPerUpdate = 16

// Options configures a Game beyond the loaded config.
type Options struct {
	Config         *config.Config // nil uses config.Cfg()
	Seed           int64          // 0 uses Scene.Seed
	LogStats       bool
	StatsWindowSec float64 // 0 uses Telemetry.StatsWindow
	SnapshotDir    string
	OutputDir      string
	RestorePath    string // snapshot to load instead of spawning the scene
	Headless       bool
	StepsPerUpdate int // 0 uses Physics.StepsPerUpdate
}

// Game holds the complete host state.
type Game struct {
	cfg     *config.Config
	state   *mpm.State
	proxies *proxy.Registry
	rng     *rand.Rand
	seed    int64

	// Telemetry
	perfCollector *telemetry.PerfCollector
	collector     *telemetry.Collector
	outputManager *telemetry.OutputManager
	statsCallback func(telemetry.WindowStats)
	logStats      bool
	snapshotDir   string

	// State
	tick           int32
	paused         bool
	stepsPerUpdate int
	headless       bool

	// Viewer
	camera                    *camera.Camera
	screenWidth, screenHeight float32
	showPanel                 bool
	brushRadius               float32
}

// NewGameWithOptions creates a game, spawning the configured scene or
// restoring a snapshot.
func NewGameWithOptions(opts Options) (*Game, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Cfg()
	}

	seed := opts.Seed
	if seed == 0 {
		seed = cfg.Scene.Seed
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	statsWindow := cfg.Telemetry.StatsWindow
	if opts.StatsWindowSec > 0 {
		statsWindow = opts.StatsWindowSec
	}

	steps := opts.StepsPerUpdate
	if steps <= 0 {
		steps = max(1, cfg.Physics.StepsPerUpdate)
	}

	om, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		return nil, err
	}
	if err := om.WriteConfig(cfg); err != nil {
		om.Close()
		return nil, err
	}

	g := &Game{
		cfg:            cfg,
		state:          mpm.New(cfg.Simulation()),
		proxies:        proxy.NewRegistry(),
		rng:            rand.New(rand.NewSource(seed)),
		seed:           seed,
		perfCollector:  telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow),
		collector:      telemetry.NewCollector(statsWindow, cfg.Derived.DT32),
		outputManager:  om,
		logStats:       opts.LogStats,
		snapshotDir:    opts.SnapshotDir,
		stepsPerUpdate: steps,
		headless:       opts.Headless,
		showPanel:      true,
		brushRadius:    3,
	}
	g.state.SetTimer(&stepTimer{perf: g.perfCollector})

	if opts.RestorePath != "" {
		snap, err := telemetry.LoadSnapshot(opts.RestorePath)
		if err != nil {
			g.Unload()
			return nil, err
		}
		snap.Restore(g.state)
		g.tick = snap.Tick
		g.collector.Reset(g.tick)
		slog.Info("snapshot restored", "path", opts.RestorePath, "tick", snap.Tick, "particles", len(snap.Particles))
	} else {
		g.SpawnScene()
	}
	g.proxies.Sync(g.state.Particles())

	if !opts.Headless {
		g.screenWidth = float32(cfg.Screen.Width)
		g.screenHeight = float32(cfg.Screen.Height)
		b := cfg.Derived.Bounds
		cw := cfg.Derived.CellWidth32
		g.camera = camera.New(g.screenWidth, g.screenHeight,
			float32(b.Min.X)*cw, float32(b.Min.Y)*cw,
			cfg.Derived.WorldW32, cfg.Derived.WorldH32)
	}

	return g, nil
}

// stepTimer forwards solver phases to the perf collector but leaves the tick
// open so host work after Advance is timed with it.
type stepTimer struct {
	perf *telemetry.PerfCollector
}

func (t *stepTimer) StartTick()              { t.perf.StartTick() }
func (t *stepTimer) StartPhase(phase string) { t.perf.StartPhase(phase) }
func (t *stepTimer) EndTick()                {}

// step advances the simulation one tick and runs the host bookkeeping.
func (g *Game) step() {
	g.state.Advance(g.cfg.Derived.DT32)

	g.perfCollector.StartPhase(telemetry.PhaseTelemetry)
	remap := g.state.Remap()
	if remap != nil {
		removed := g.proxies.ApplyRemap(remap)
		slog.Debug("proxies remapped", "removed", removed, "tick", g.tick)
	}
	g.collector.RecordStep(remap)
	g.state.ClearRemap()
	g.proxies.Sync(g.state.Particles())

	g.tick++
	g.flushTelemetry()
	g.perfCollector.EndTick()
}

// UpdateHeadless runs one update without graphics.
func (g *Game) UpdateHeadless() {
	for i := 0; i < g.stepsPerUpdate; i++ {
		g.step()
	}
}

// Update processes input and advances the simulation unless paused.
func (g *Game) Update() {
	g.handleInput()
	if !g.paused {
		for i := 0; i < g.stepsPerUpdate; i++ {
			g.step()
		}
	}
	g.perfCollector.RecordFrame()
}

// Reset clears the simulation and respawns the scene.
func (g *Game) Reset() {
	g.state.Clear()
	g.proxies.Clear()
	g.SpawnScene()
	g.proxies.Sync(g.state.Particles())
	slog.Info("scene reset", "tick", g.tick, "particles", g.state.ParticleCount())
}

// SetStatsCallback installs a function called with every flushed window.
func (g *Game) SetStatsCallback(fn func(telemetry.WindowStats)) {
	g.statsCallback = fn
}

// Unload releases solver workers and closes output files.
func (g *Game) Unload() {
	if err := g.outputManager.Close(); err != nil {
		slog.Error("failed to close output", "error", err)
	}
	g.state.Close()
}

// Tick returns the number of completed steps.
func (g *Game) Tick() int32 {
	return g.tick
}

// State exposes the solver state.
func (g *Game) State() *mpm.State {
	return g.state
}

// Proxies exposes the render proxies.
func (g *Game) Proxies() *proxy.Registry {
	return g.proxies
}

// Seed returns the RNG seed used for the scene.
func (g *Game) Seed() int64 {
	return g.seed
}
