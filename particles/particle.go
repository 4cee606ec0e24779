// Package particles holds the material points and the spatial index that
// orders them for the grid transfers.
package particles

import (
	"math"

	"github.com/pthm-cable/mpm2d/grid"
	"github.com/pthm-cable/mpm2d/material"
	"github.com/pthm-cable/mpm2d/vmath"
)

// Particle is one material point.
type Particle struct {
	Position vmath.Vec2
	Velocity vmath.Vec2
	Mass     float32
	Volume0  float32 // reference volume
	Radius0  float32 // reference radius

	Affine      vmath.Mat2 // APIC affine velocity field C
	VelGradient vmath.Mat2
	Deformation vmath.Mat2 // F, identity at creation

	Kind   material.Kind
	Phase  float32
	Static bool // scatters to the grid but is never advected

	Cell    grid.PackedCell // cell id from the last rebuild
	Density float32         // local density gathered during the last P2G
	Failed  bool
	CondNum float32

	// Incompressibility constraint state.
	LiquidDensity float32
	Displacement  vmath.Mat2
	WarmStart     vmath.Mat2
}

// New creates a particle of the given kind at pos with unit mass, volume
// and radius.
func New(pos vmath.Vec2, kind material.Kind) Particle {
	return Particle{
		Position:      pos,
		Mass:          1,
		Volume0:       1,
		Radius0:       1,
		Deformation:   vmath.Identity(),
		Kind:          kind,
		Phase:         1,
		CondNum:       1,
		LiquidDensity: 1,
	}
}

// WithDensity creates a fluid particle at the origin whose mass matches
// density over a disc of the given radius.
func WithDensity(radius, density float32) Particle {
	p := New(vmath.Vec2{}, material.Fluid)
	volume := float32(math.Pi) * radius * radius
	p.Mass = volume * density
	p.Volume0 = volume
	p.Radius0 = radius
	return p
}

func (p Particle) WithPosition(pos vmath.Vec2) Particle {
	p.Position = pos
	return p
}

func (p Particle) WithVelocity(v vmath.Vec2) Particle {
	p.Velocity = v
	return p
}

func (p Particle) WithMass(m float32) Particle {
	p.Mass = m
	return p
}

func (p Particle) WithRadius(r float32) Particle {
	p.Radius0 = r
	return p
}

// WithStatic pins the particle in place. It still adds its mass to the grid,
// so moving particles treat it as an obstacle.
func (p Particle) WithStatic() Particle {
	p.Static = true
	return p
}

// Jacobian returns det F.
func (p *Particle) Jacobian() float32 {
	return p.Deformation.Det()
}

// RestDensity returns mass over reference volume, or 0 without a volume.
func (p *Particle) RestDensity() float32 {
	if p.Volume0 > 0 {
		return p.Mass / p.Volume0
	}
	return 0
}

// CurrentVolume returns the volume implied by a gathered density, falling
// back to the reference volume.
func (p *Particle) CurrentVolume(density float32) float32 {
	if density > 0 {
		return p.Mass / density
	}
	return p.Volume0
}

// VolumeFromDeformation returns V0·|J|.
func (p *Particle) VolumeFromDeformation() float32 {
	j := p.Jacobian()
	if j < 0 {
		j = -j
	}
	return p.Volume0 * j
}
