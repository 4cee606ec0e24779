package material

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pthm-cable/mpm2d/vmath"
)

func TestPressure(t *testing.T) {
	p := DefaultParams()

	tests := []struct {
		name string
		rho  float32
		want float32
	}{
		{"rest", 2, 0},
		{"compressed", 4, 10 * (16 - 1)},
		{"slightly compressed", 2.2, 10 * (1.4641 - 1)},
		{"tension is capped", 1, -0.1},
		{"vacuum", 0, -0.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Pressure(tt.rho, p), 1e-4)
		})
	}
}

func TestFluidStressIsotropicAtRest(t *testing.T) {
	p := DefaultParams()
	s := State{Mass: 1, Volume0: 1, Deformation: vmath.Identity()}

	stress := ComputeStress(Fluid, s, 4, p)
	assert.InDelta(t, -150, stress.XX, 1e-3)
	assert.InDelta(t, -150, stress.YY, 1e-3)
	assert.Equal(t, float32(0), stress.XY)
	assert.Equal(t, float32(0), stress.YX)
}

func TestFluidViscousStress(t *testing.T) {
	p := DefaultParams()
	p.DynamicViscosity = 0.5
	s := State{
		Mass:        1,
		Volume0:     1,
		Deformation: vmath.Identity(),
		VelGradient: vmath.Mat2{XX: 1, XY: 2, YX: 0, YY: -1},
	}

	// At rest density only the viscous term remains: 2μ·dev(sym L).
	stress := ComputeStress(Fluid, s, p.RestDensity, p)
	assert.InDelta(t, 1, stress.XX, 1e-6)
	assert.InDelta(t, -1, stress.YY, 1e-6)
	assert.InDelta(t, 1, stress.XY, 1e-6)
	assert.InDelta(t, 1, stress.YX, 1e-6)

	// Scaled by J.
	s.Deformation = vmath.Diag(2)
	stress = ComputeStress(Fluid, s, p.RestDensity, p)
	assert.InDelta(t, 4, stress.XY, 1e-6)
}

func TestVolumeCorrection(t *testing.T) {
	p := DefaultParams()
	p.PreserveVolume = true
	s := State{Mass: 1, Volume0: 0.25, Deformation: vmath.Identity()}

	// rho = 2 is rest density, so the EOS term vanishes; volume = 0.5 is
	// twice the reference volume.
	stress := ComputeStress(Fluid, s, 2, p)
	want := -(0.5 * (0.5 - 0.25) / 0.25 * 2)
	assert.InDelta(t, want, stress.XX, 1e-6)

	p.PreserveVolume = false
	stress = ComputeStress(Fluid, s, 2, p)
	assert.InDelta(t, 0, stress.XX, 1e-6)
}

func TestProjectDeformation(t *testing.T) {
	f := vmath.Mat2{XX: 2, XY: 0.5, YX: 0, YY: 8}
	got := ProjectDeformation(Fluid, f)

	// |det F| = 16, 16^(1/4) = 2.
	assert.InDelta(t, 2, got.XX, 1e-6)
	assert.InDelta(t, 2, got.YY, 1e-6)
	assert.Equal(t, float32(0), got.XY)
	assert.Equal(t, float32(0), got.YX)

	flipped := ProjectDeformation(Fluid, vmath.Mat2{XX: -1, YY: 16})
	assert.InDelta(t, 2, flipped.XX, 1e-6)
}

func TestUnknownKind(t *testing.T) {
	k := Kind(9)
	f := vmath.Mat2{XX: 3, XY: 1, YX: 2, YY: 1}
	s := State{Mass: 1, Volume0: 1, Deformation: f}

	assert.False(t, k.Valid())
	assert.True(t, Fluid.Valid())
	assert.Equal(t, vmath.Mat2{}, ComputeStress(k, s, 100, DefaultParams()))
	assert.Equal(t, f, ProjectDeformation(k, f))
	assert.Equal(t, "Kind(9)", k.String())
}

func TestValidate(t *testing.T) {
	assert.NoError(t, DefaultParams().Validate())

	bad := DefaultParams()
	bad.RestDensity = 0
	assert.True(t, errors.Is(bad.Validate(), ErrInvalidParams))

	bad = DefaultParams()
	bad.EOSPower = 0
	assert.Error(t, bad.Validate())

	for _, name := range PresetNames() {
		p := Presets[name].Apply(DefaultParams())
		assert.NoError(t, p.Validate(), name)
	}
}
