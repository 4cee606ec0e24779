package mpm

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

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Bounds = grid.NewBounds(64)
	cfg.Workers = 4
	cfg.ParallelThreshold = 8
	return cfg
}

func TestStationaryParticle(t *testing.T) {
	cfg := testConfig()
	cfg.Gravity = vmath.Vec2{}
	s := New(cfg)
	defer s.Close()

	start := vmath.V2(32.5, 32.5)
	s.AddParticle(particles.WithDensity(0.5, cfg.Material.RestDensity).WithPosition(start))

	s.Advance(1.0 / 60)

	require.Equal(t, 1, s.ParticleCount())
	p := s.Particles()[0]
	assert.InDelta(t, 0, p.Velocity.X, 1e-5)
	assert.InDelta(t, 0, p.Velocity.Y, 1e-5)
	assert.InDelta(t, start.X, p.Position.X, 1e-5)
	assert.InDelta(t, start.Y, p.Position.Y, 1e-5)
	assert.False(t, p.Failed)
	assert.Nil(t, s.Remap())
	assert.Equal(t, 9, s.GridActiveCellCount())
}

func TestStationaryUnitMassParticle(t *testing.T) {
	cfg := testConfig()
	cfg.Gravity = vmath.Vec2{}
	s := New(cfg)
	defer s.Close()

	start := vmath.V2(32.5, 32.5)
	p := particles.New(start, material.Fluid).WithMass(1)
	// Reference volume at rest density.
	p.Volume0 = 1 / cfg.Material.RestDensity
	s.AddParticle(p)

	for i := 0; i < 50; i++ {
		s.Advance(1.0 / 120)
	}

	require.Equal(t, 1, s.ParticleCount())
	got := s.Particles()[0]
	assert.Equal(t, float32(1), got.Mass)
	assert.InDelta(t, 0, got.Velocity.Length(), 1e-5)
	assert.InDelta(t, start.X, got.Position.X, 1e-4)
	assert.InDelta(t, start.Y, got.Position.Y, 1e-4)
	assert.False(t, got.Failed)
}

func damBreak(s *State, w, h int) {
	for i := 0; i < w; i++ {
		for j := 0; j < h; j++ {
			pos := vmath.V2(4+float32(i)*0.5, 4+float32(j)*0.5)
			// Four particles per unit cell at rest density.
			p := particles.New(pos, material.Fluid).WithMass(0.5)
			p.Volume0 = 0.25
			s.AddParticle(p)
		}
	}
}

func TestDamBreakStaysBounded(t *testing.T) {
	cfg := testConfig()
	s := New(cfg)
	defer s.Close()
	damBreak(s, 20, 20)

	for i := 0; i < 60; i++ {
		s.Advance(1.0 / 120)
	}

	assert.Equal(t, uint64(60), s.Steps())
	lo := float32(cfg.Bounds.Min.X + 1)
	hi := float32(cfg.Bounds.Max.X - 2)
	for i, p := range s.Particles() {
		require.True(t, p.Position.IsFinite(), "particle %d", i)
		assert.GreaterOrEqual(t, p.Position.X, lo)
		assert.LessOrEqual(t, p.Position.X, hi)
		assert.GreaterOrEqual(t, p.Position.Y, lo)
		assert.LessOrEqual(t, p.Position.Y, hi)
	}
	assert.Greater(t, s.GridActiveCellCount(), 0)
}

func TestGravityPullsDown(t *testing.T) {
	cfg := testConfig()
	s := New(cfg)
	defer s.Close()
	damBreak(s, 8, 8)

	before := meanY(s.Particles())
	for i := 0; i < 10; i++ {
		s.Advance(1.0 / 120)
	}
	assert.Less(t, meanY(s.Particles()), before)
}

func meanY(ps []particles.Particle) float32 {
	var sum float32
	for _, p := range ps {
		sum += p.Position.Y
	}
	return sum / float32(len(ps))
}

func TestRemovalRemap(t *testing.T) {
	cfg := testConfig()
	cfg.Gravity = vmath.Vec2{}
	s := New(cfg)
	defer s.Close()

	masses := []float32{1, 2, 3, 4, 5}
	for i, m := range masses {
		p := particles.New(vmath.V2(10+float32(i)*4, 20), material.Fluid).WithMass(m)
		s.AddParticle(p)
	}
	// B and D blow up.
	s.Set().At(1).Mass = float32(math.NaN())
	s.Set().At(3).Position = vmath.V2(-100, -100)

	s.Advance(1.0 / 60)

	assert.Equal(t, []int{0, particles.Removed, 1, particles.Removed, 2}, s.Remap())
	require.Equal(t, 3, s.ParticleCount())
	assert.Equal(t, float32(1), s.Particles()[0].Mass)
	assert.Equal(t, float32(3), s.Particles()[1].Mass)
	assert.Equal(t, float32(5), s.Particles()[2].Mass)
	assert.True(t, s.Set().Valid())

	s.ClearRemap()
	assert.Nil(t, s.Remap())

	s.Advance(1.0 / 60)
	assert.Nil(t, s.Remap())
	assert.Equal(t, 3, s.ParticleCount())
}

type recordingTimer struct {
	ticks  int
	phases []string
}

func (r *recordingTimer) StartTick()              { r.ticks++; r.phases = r.phases[:0] }
func (r *recordingTimer) StartPhase(phase string) { r.phases = append(r.phases, phase) }
func (r *recordingTimer) EndTick()                {}

func TestPhaseTimer(t *testing.T) {
	s := New(testConfig())
	defer s.Close()
	damBreak(s, 4, 4)

	timer := &recordingTimer{}
	s.SetTimer(timer)
	s.Advance(1.0 / 60)
	s.Advance(1.0 / 60)

	assert.Equal(t, 2, timer.ticks)
	assert.Equal(t, Phases, timer.phases)
}

func TestSetters(t *testing.T) {
	s := New(testConfig())
	defer s.Close()

	s.SetGravity(vmath.V2(0, -9.8))
	s.SetBoundaryMode(grid.Open)
	params := material.Presets["honey"].Apply(s.Params())
	s.SetParams(params)
	cp := s.Constraints()
	cp.Enabled = true
	s.SetConstraints(cp)

	assert.Equal(t, vmath.V2(0, -9.8), s.Gravity())
	assert.Equal(t, grid.Open, s.BoundaryMode())
	assert.Equal(t, params, s.Params())
	assert.True(t, s.Constraints().Enabled)
}

func TestConstraintsKeepFluidBounded(t *testing.T) {
	cfg := testConfig()
	cfg.Constraints.Enabled = true
	s := New(cfg)
	defer s.Close()
	damBreak(s, 10, 10)

	for i := 0; i < 30; i++ {
		s.Advance(1.0 / 120)
	}
	for _, p := range s.Particles() {
		assert.GreaterOrEqual(t, p.LiquidDensity, float32(0.05))
		assert.True(t, p.Affine.IsFinite())
	}
}

func TestStaticObstacleHolds(t *testing.T) {
	cfg := testConfig()
	s := New(cfg)
	defer s.Close()

	var pinned []vmath.Vec2
	for i := 0; i < 8; i++ {
		pos := vmath.V2(20+float32(i)*0.5, 10.25)
		p := particles.New(pos, material.Fluid).WithMass(0.5).WithStatic()
		p.Volume0 = 0.25
		s.AddParticle(p)
		pinned = append(pinned, pos)
	}
	for i := 0; i < 4; i++ {
		p := particles.New(vmath.V2(21+float32(i)*0.5, 14), material.Fluid).WithMass(0.5)
		p.Volume0 = 0.25
		s.AddParticle(p)
	}

	for i := 0; i < 20; i++ {
		s.Advance(1.0 / 120)
	}

	require.Equal(t, 12, s.ParticleCount())
	for i, pos := range pinned {
		p := s.Particles()[i]
		assert.True(t, p.Static)
		assert.Equal(t, pos, p.Position)
		assert.Equal(t, vmath.Vec2{}, p.Velocity)
	}
	for _, p := range s.Particles()[8:] {
		assert.Less(t, p.Position.Y, float32(14))
	}
}

func TestClear(t *testing.T) {
	s := New(testConfig())
	defer s.Close()
	damBreak(s, 4, 4)
	s.Advance(1.0 / 60)

	s.Clear()
	assert.Equal(t, 0, s.ParticleCount())
	assert.Equal(t, 0, s.GridActiveCellCount())
	s.Advance(1.0 / 60)
	assert.Equal(t, 0, s.ParticleCount())
}
