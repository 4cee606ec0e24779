// Package material evaluates per-particle constitutive models.
package material

import (
	"fmt"

	"github.com/pthm-cable/mpm2d/vmath"
)

// Kind is the closed set of material models.
type Kind uint8

const (
	// Fluid is a weakly compressible Newtonian liquid.
	Fluid Kind = iota

	numKinds
)

func (k Kind) String() string {
	switch k {
	case Fluid:
		return "fluid"
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Params holds the solver-wide material parameters.
type Params struct {
	RestDensity      float32
	EOSStiffness     float32
	EOSPower         int
	DynamicViscosity float32

	PreserveVolume           bool
	VolumeCorrectionStrength float32
}

// DefaultParams returns the water-like defaults.
func DefaultParams() Params {
	return Params{
		RestDensity:              2,
		EOSStiffness:             10,
		EOSPower:                 4,
		DynamicViscosity:         0.001,
		VolumeCorrectionStrength: 0.5,
	}
}

// State is the particle data a constitutive model reads.
type State struct {
	Mass        float32
	Volume0     float32
	Deformation vmath.Mat2
	VelGradient vmath.Mat2
}

// ComputeStress returns the stress of a particle with local density rho.
// Kinds without a model produce zero stress.
func ComputeStress(k Kind, s State, rho float32, p Params) vmath.Mat2 {
	switch k {
	case Fluid:
		return fluidStress(s, rho, p)
	}
	return vmath.Mat2{}
}

// ProjectDeformation returns the deformation gradient after the model's
// plasticity projection.
func ProjectDeformation(k Kind, f vmath.Mat2) vmath.Mat2 {
	switch k {
	case Fluid:
		return fluidProjection(f)
	}
	return f
}

// Valid reports whether k names a known model.
func (k Kind) Valid() bool {
	return k < numKinds
}
