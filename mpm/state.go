// Package mpm ties the grid, the particle set and the transfer stages into a
// single simulation state advanced one step at a time.
package mpm

import (
	"log/slog"

	"github.com/pthm-cable/mpm2d/grid"
	"github.com/pthm-cable/mpm2d/material"
	"github.com/pthm-cable/mpm2d/particles"
	"github.com/pthm-cable/mpm2d/solver"
	"github.com/pthm-cable/mpm2d/vmath"
)

// Phase names reported to a PhaseTimer.
const (
	PhaseRebuild     = "rebuild"
	PhaseZeroGrid    = "zero_grid"
	PhaseP2G         = "p2g"
	PhaseGridUpdate  = "grid_update"
	PhaseCompact     = "compact"
	PhaseG2P         = "g2p"
	PhaseConstraints = "constraints"
	PhaseHealth      = "health"
	PhaseRemoval     = "removal"
)

// Phases lists the phase names in execution order.
var Phases = []string{
	PhaseRebuild, PhaseZeroGrid, PhaseP2G, PhaseGridUpdate, PhaseCompact,
	PhaseG2P, PhaseConstraints, PhaseHealth, PhaseRemoval,
}

// PhaseTimer receives phase boundaries during Advance.
// telemetry.PerfCollector implements it.
type PhaseTimer interface {
	StartTick()
	StartPhase(phase string)
	EndTick()
}

// Config holds everything needed to construct a State.
type Config struct {
	CellWidth   float32
	Bounds      grid.Bounds
	Gravity     vmath.Vec2
	Boundary    grid.BoundaryMode
	Material    material.Params
	Constraints solver.ConstraintParams
	Health      particles.HealthParams

	Workers           int // 0 uses GOMAXPROCS
	ParallelThreshold int // 0 uses the solver default
}

// DefaultConfig returns a 128x128 unit-cell domain with water and slip walls.
func DefaultConfig() Config {
	return Config{
		CellWidth:   1,
		Bounds:      grid.NewBounds(128),
		Gravity:     vmath.V2(0, -80),
		Boundary:    grid.Slip,
		Material:    material.DefaultParams(),
		Constraints: solver.DefaultConstraints(),
		Health:      particles.DefaultHealth(),
	}
}

// State is the aggregate simulation state.
type State struct {
	cfg   Config
	set   *particles.Set
	grid  *grid.Grid
	pool  *solver.Pool
	remap []int

	timer PhaseTimer
	steps uint64
}

// New creates an empty simulation.
func New(cfg Config) *State {
	return &State{
		cfg:  cfg,
		set:  particles.NewSet(),
		grid: grid.New(cfg.Bounds),
		pool: solver.NewPool(cfg.Workers, cfg.ParallelThreshold),
	}
}

// Close stops the worker goroutines.
func (s *State) Close() {
	s.pool.Stop()
}

// SetTimer installs a phase timer; nil disables timing.
func (s *State) SetTimer(t PhaseTimer) {
	s.timer = t
}

func (s *State) phase(name string) {
	if s.timer != nil {
		s.timer.StartPhase(name)
	}
}

// Advance runs one full step: rebuild, zero grid, P2G, grid update, compact,
// G2P, constraints, health, removal. The remap table of this step is
// available from Remap until the next Advance or ClearRemap.
func (s *State) Advance(dt float32) {
	s.remap = nil
	if s.timer != nil {
		s.timer.StartTick()
		defer s.timer.EndTick()
	}

	f := &solver.Frame{
		Grid:      s.grid,
		Set:       s.set,
		Pool:      s.pool,
		CellWidth: s.cfg.CellWidth,
		DT:        dt,
		Gravity:   s.cfg.Gravity,
		Boundary:  s.cfg.Boundary,
		Material:  s.cfg.Material,
	}

	s.phase(PhaseRebuild)
	s.set.Rebuild(s.cfg.CellWidth, s.cfg.Bounds)

	s.phase(PhaseZeroGrid)
	s.grid.ZeroActive()

	s.phase(PhaseP2G)
	solver.Touch(f)
	solver.P2G(f)

	s.phase(PhaseGridUpdate)
	solver.UpdateGrid(f)

	s.phase(PhaseCompact)
	s.grid.Compact()

	s.phase(PhaseG2P)
	solver.G2P(f)

	s.phase(PhaseConstraints)
	solver.SolveConstraints(f, s.cfg.Constraints)

	s.phase(PhaseHealth)
	s.updateHealth()

	s.phase(PhaseRemoval)
	s.RemoveFailed()

	s.steps++
}

func (s *State) updateHealth() {
	ps := s.set.Particles()
	s.pool.Run(len(ps), func(start, end int) {
		for i := start; i < end; i++ {
			particles.UpdateHealth(&ps[i], s.cfg.Health)
		}
	})
}

// RemoveFailed drops failed particles, records the remap table and rebuilds
// the spatial index. It returns the table, or nil when nothing was removed.
func (s *State) RemoveFailed() []int {
	remap := s.set.RemoveFailed()
	if remap == nil {
		return nil
	}
	s.remap = remap
	s.set.Rebuild(s.cfg.CellWidth, s.cfg.Bounds)
	slog.Debug("particles removed",
		"removed", len(remap)-s.set.Len(),
		"remaining", s.set.Len(),
		"step", s.steps,
	)
	return remap
}

// RebuildIndex recomputes the spatial index without stepping.
func (s *State) RebuildIndex() {
	s.set.Rebuild(s.cfg.CellWidth, s.cfg.Bounds)
}

// AddParticle appends p and returns its index.
func (s *State) AddParticle(p particles.Particle) int {
	return s.set.Add(p)
}

// AddParticles appends a batch of particles.
func (s *State) AddParticles(ps []particles.Particle) {
	s.set.AddBatch(ps)
}

// Clear removes every particle and grid node.
func (s *State) Clear() {
	s.set.Clear()
	s.grid = grid.New(s.cfg.Bounds)
	s.remap = nil
}

// Particles returns the particle array. Indices are stable between removals.
func (s *State) Particles() []particles.Particle {
	return s.set.Particles()
}

func (s *State) ParticleCount() int {
	return s.set.Len()
}

func (s *State) GridActiveCellCount() int {
	return s.grid.ActiveCount()
}

// Grid exposes the sparse grid for read access.
func (s *State) Grid() *grid.Grid {
	return s.grid
}

// Set exposes the particle set for read access.
func (s *State) Set() *particles.Set {
	return s.set
}

// Steps returns the number of completed Advance calls.
func (s *State) Steps() uint64 {
	return s.steps
}

// Remap returns the old-to-new index table of the most recent removal, with
// particles.Removed for dropped particles. Empty when nothing was removed.
func (s *State) Remap() []int {
	return s.remap
}

// ClearRemap discards the remap table once the host has applied it.
func (s *State) ClearRemap() {
	s.remap = nil
}

func (s *State) Config() Config { return s.cfg }

func (s *State) Params() material.Params { return s.cfg.Material }

// SetParams replaces the material parameters used from the next step on.
func (s *State) SetParams(p material.Params) { s.cfg.Material = p }

func (s *State) Gravity() vmath.Vec2 { return s.cfg.Gravity }

func (s *State) SetGravity(g vmath.Vec2) { s.cfg.Gravity = g }

func (s *State) BoundaryMode() grid.BoundaryMode { return s.cfg.Boundary }

func (s *State) SetBoundaryMode(m grid.BoundaryMode) { s.cfg.Boundary = m }

func (s *State) Constraints() solver.ConstraintParams { return s.cfg.Constraints }

func (s *State) SetConstraints(c solver.ConstraintParams) { s.cfg.Constraints = c }
