package solver

import (
	"github.com/pthm-cable/mpm2d/material"
	"github.com/pthm-cable/mpm2d/vmath"
)

// ConstraintParams configures the position-based incompressibility pass.
type ConstraintParams struct {
	Enabled         bool
	Iterations      int
	Relaxation      float32
	WarmStartWeight float32
	// Tolerance stops a particle's iterations early once the absolute
	// volume residual drops below it. Zero always runs every iteration.
	Tolerance float32
}

// DefaultConstraints returns the constraint pass settings, disabled.
func DefaultConstraints() ConstraintParams {
	return ConstraintParams{
		Iterations:      4,
		Relaxation:      0.5,
		WarmStartWeight: 0.5,
	}
}

// minLiquidDensity keeps the density ratio away from zero.
const minLiquidDensity = 0.05

// SolveConstraints relaxes each fluid particle's deformation displacement
// toward constant volume. The displacement is seeded from dt·C; the
// converged value is written back as C and kept for warm-starting the next
// step.
func SolveConstraints(f *Frame, cp ConstraintParams) {
	if !cp.Enabled || cp.Iterations <= 0 || f.DT <= 0 {
		return
	}
	order := f.Set.Order()
	invDT := 1 / f.DT

	f.Pool.Run(len(order), func(start, end int) {
		for _, idx := range order[start:end] {
			p := f.Set.At(int(idx))
			if p.Kind != material.Fluid || p.Static {
				continue
			}

			d := p.Affine.Scale(f.DT)
			density := p.LiquidDensity
			d, density = relax(d, p.WarmStart, density, cp)

			p.LiquidDensity = density
			p.Displacement = d
			p.WarmStart = d
			p.Affine = d.Scale(invDT)
			p.VelGradient = p.Affine
		}
	})
}

// relax runs the constraint iterations on one displacement and returns it
// with the updated liquid density.
func relax(d, seed vmath.Mat2, density float32, cp ConstraintParams) (vmath.Mat2, float32) {
	for k := 0; k < cp.Iterations; k++ {
		if k == 0 && cp.WarmStartWeight > 0 {
			d = d.Add(seed.Sub(d).Scale(cp.WarmStartWeight))
		}

		strain := d.Trace()
		residual := vmath.SafeInverse(density) - 1 - strain
		density = max(minLiquidDensity, density*(1+strain))

		d.XX += residual * cp.Relaxation
		d.YY += residual * cp.Relaxation

		if cp.Tolerance > 0 && residual < cp.Tolerance && residual > -cp.Tolerance {
			break
		}
	}
	return d, density
}
