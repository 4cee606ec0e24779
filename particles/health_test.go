package particles

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pthm-cable/mpm2d/material"
	"github.com/pthm-cable/mpm2d/vmath"
)

func TestUpdateHealth(t *testing.T) {
	nan := float32(math.NaN())
	hp := DefaultHealth()

	tests := []struct {
		name   string
		modify func(p *Particle)
		failed bool
	}{
		{"fresh particle", func(p *Particle) {}, false},
		{"isotropic affine", func(p *Particle) { p.Affine = vmath.Diag(0.5) }, false},
		{"nan affine", func(p *Particle) { p.Affine.XY = nan }, true},
		{"singular shear", func(p *Particle) { p.Affine = vmath.Mat2{XX: 1, XY: 1, YX: 1, YY: 1} }, true},
		{"nearly singular", func(p *Particle) { p.Affine = vmath.Mat2{XX: 1, YY: 1e-7} }, true},
		{"tiny isotropic", func(p *Particle) { p.Affine = vmath.Diag(1e-5) }, false},
		{"nan position", func(p *Particle) { p.Position.X = nan }, true},
		{"inf velocity", func(p *Particle) { p.Velocity.Y = float32(math.Inf(-1)) }, true},
		{"zero mass", func(p *Particle) { p.Mass = 0 }, true},
		{"negative volume", func(p *Particle) { p.Volume0 = -1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(vmath.V2(4, 4), material.Fluid)
			tt.modify(&p)
			UpdateHealth(&p, hp)
			assert.Equal(t, tt.failed, p.Failed)
		})
	}
}

func TestConditionNumberRecorded(t *testing.T) {
	p := New(vmath.V2(4, 4), material.Fluid)
	p.Affine = vmath.Diag(2)
	UpdateHealth(&p, DefaultHealth())
	assert.InDelta(t, 1, p.CondNum, 1e-6)

	p.Affine = vmath.Mat2{}
	UpdateHealth(&p, DefaultHealth())
	assert.True(t, math.IsInf(float64(p.CondNum), 1))
	assert.False(t, p.Failed)
}

func TestWithStatic(t *testing.T) {
	p := New(vmath.V2(1, 2), material.Fluid).WithMass(3)
	assert.False(t, p.Static)

	pinned := p.WithStatic()
	assert.True(t, pinned.Static)
	assert.Equal(t, p.Position, pinned.Position)
	assert.Equal(t, p.Mass, pinned.Mass)
	assert.False(t, p.Static)
}

func TestWithDensity(t *testing.T) {
	p := WithDensity(0.5, 2)
	vol := float32(math.Pi) * 0.25

	assert.InDelta(t, vol, p.Volume0, 1e-6)
	assert.InDelta(t, 2*vol, p.Mass, 1e-6)
	assert.InDelta(t, 2, p.RestDensity(), 1e-6)
	assert.Equal(t, float32(1), p.Jacobian())
	assert.InDelta(t, vol, p.VolumeFromDeformation(), 1e-6)
	assert.InDelta(t, p.Mass/4, p.CurrentVolume(4), 1e-6)
	assert.Equal(t, p.Volume0, p.CurrentVolume(0))
}
