package material

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/pthm-cable/mpm2d/vmath"
)

// minPressure caps tension so an isolated particle does not collapse.
const minPressure = -0.1

// Pressure evaluates the Tait-style equation of state max(-0.1, k((ρ/ρ0)^n - 1)).
func Pressure(rho float32, p Params) float32 {
	ratio := rho * vmath.SafeInverse(p.RestDensity)
	return max(minPressure, p.EOSStiffness*(powi(ratio, p.EOSPower)-1))
}

func fluidStress(s State, rho float32, p Params) vmath.Mat2 {
	pressure := Pressure(rho, p)

	if p.PreserveVolume && s.Volume0 > 0 {
		volume := s.Mass * vmath.SafeInverse(rho)
		pressure += p.VolumeCorrectionStrength * (volume - s.Volume0) / s.Volume0 * p.RestDensity
	}

	j := s.Deformation.Det()
	viscous := s.VelGradient.Symmetric().Deviatoric().Scale(2 * p.DynamicViscosity * j)
	return vmath.Diag(-pressure * j).Add(viscous)
}

// fluidProjection discards shear from F and keeps a softened volume ratio:
// F = I·|J|^(1/4).
func fluidProjection(f vmath.Mat2) vmath.Mat2 {
	j := f.Det()
	if j < 0 {
		j = -j
	}
	return vmath.Diag(float32(math.Pow(float64(j), 0.25)))
}

func powi(x float32, n int) float32 {
	if n < 0 {
		return vmath.SafeInverse(powi(x, -n))
	}
	r := float32(1)
	for ; n > 0; n-- {
		r *= x
	}
	return r
}

// FluidPreset is a named set of fluid properties.
type FluidPreset struct {
	Name             string
	RestDensity      float32
	DynamicViscosity float32
	EOSStiffness     float32
	EOSPower         int
}

// Presets lists the built-in fluids by name.
var Presets = map[string]FluidPreset{
	"water": {Name: "water", RestDensity: 2, DynamicViscosity: 0.001, EOSStiffness: 10, EOSPower: 4},
	"honey": {Name: "honey", RestDensity: 2.8, DynamicViscosity: 0.8, EOSStiffness: 10, EOSPower: 4},
	"oil":   {Name: "oil", RestDensity: 1.8, DynamicViscosity: 0.05, EOSStiffness: 8, EOSPower: 4},
}

// PresetNames returns the preset names in sorted order.
func PresetNames() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Apply copies the preset's fluid properties onto p.
func (fp FluidPreset) Apply(p Params) Params {
	p.RestDensity = fp.RestDensity
	p.DynamicViscosity = fp.DynamicViscosity
	p.EOSStiffness = fp.EOSStiffness
	p.EOSPower = fp.EOSPower
	return p
}

// ErrInvalidParams is returned by Validate.
var ErrInvalidParams = errors.New("material: invalid parameters")

// Validate checks the parameters are physically meaningful.
func (p Params) Validate() error {
	switch {
	case !(p.RestDensity > 0):
		return fmt.Errorf("%w: rest density %v must be positive", ErrInvalidParams, p.RestDensity)
	case p.EOSStiffness < 0:
		return fmt.Errorf("%w: eos stiffness %v must not be negative", ErrInvalidParams, p.EOSStiffness)
	case p.EOSPower < 1 || p.EOSPower > 16:
		return fmt.Errorf("%w: eos power %d outside [1, 16]", ErrInvalidParams, p.EOSPower)
	case p.DynamicViscosity < 0:
		return fmt.Errorf("%w: viscosity %v must not be negative", ErrInvalidParams, p.DynamicViscosity)
	case p.VolumeCorrectionStrength < 0:
		return fmt.Errorf("%w: volume correction %v must not be negative", ErrInvalidParams, p.VolumeCorrectionStrength)
	}
	return nil
}
