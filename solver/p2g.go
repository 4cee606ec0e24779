// Package solver implements the MLS-MPM transfer stages. Each exported stage
// is a barrier; stages must run in the order Touch, P2G, UpdateGrid, then
// (after grid compaction) G2P.
package solver

import (
	"github.com/pthm-cable/mpm2d/grid"
	"github.com/pthm-cable/mpm2d/kernel"
	"github.com/pthm-cable/mpm2d/material"
	"github.com/pthm-cable/mpm2d/particles"
	"github.com/pthm-cable/mpm2d/vmath"
)

// Frame bundles the inputs shared by the stages of one step.
type Frame struct {
	Grid *grid.Grid
	Set  *particles.Set
	Pool *Pool

	CellWidth float32
	DT        float32
	Gravity   vmath.Vec2
	Boundary  grid.BoundaryMode
	Material  material.Params
}

// Touch creates every node in the stencils of live particles and records the
// arena slots in the transfer caches. It runs single-threaded; afterwards the
// grid's slot layout is fixed until the next Compact.
func Touch(f *Frame) {
	cache := f.Set.Cache()
	for _, idx := range f.Set.Order() {
		c := &cache[idx]
		for k := range c {
			c[k].Slot = f.Grid.SlotOrCreate(c[k].Coord)
		}
	}
}

// P2G scatters particle mass and momentum onto the grid and computes node
// velocities. Requires Touch.
func P2G(f *Frame) {
	forEachColour(f, scatterMass)
	forEachColour(f, scatterMomentum)
	computeVelocities(f)
}

// forEachColour runs fn over every particle, one colour class at a time.
// Regions of a colour run concurrently; bins of a region run in order.
func forEachColour(f *Frame, fn func(f *Frame, idx int32)) {
	regions := f.Set.Regions()
	bins := f.Set.Bins()
	for c := 0; c < particles.NumColours; c++ {
		class := f.Set.Colour(c)
		f.Pool.Run(len(class), func(start, end int) {
			for _, ri := range class[start:end] {
				for _, bi := range regions[ri].Bins {
					for _, idx := range bins[bi].Particles() {
						fn(f, idx)
					}
				}
			}
		})
	}
}

func scatterMass(f *Frame, idx int32) {
	p := f.Set.At(int(idx))
	c := &f.Set.Cache()[idx]
	for k := range c {
		e := &c[k]
		if e.Slot < 0 {
			continue
		}
		n := f.Grid.At(e.Slot)
		wm := e.Weight * p.Mass
		n.Mass += wm
		n.PhaseMass += wm * p.Phase
	}
}

func scatterMomentum(f *Frame, idx int32) {
	p := f.Set.At(int(idx))
	c := &f.Set.Cache()[idx]

	var density float32
	for k := range c {
		if c[k].Slot >= 0 {
			density += c[k].Weight * f.Grid.At(c[k].Slot).Mass
		}
	}
	p.Density = density

	stress := material.ComputeStress(p.Kind, material.State{
		Mass:        p.Mass,
		Volume0:     p.Volume0,
		Deformation: p.Deformation,
		VelGradient: p.VelGradient,
	}, density, f.Material)

	invD := kernel.InvD(f.CellWidth)
	affine := p.VelGradient.Scale(p.Mass).Sub(stress.Scale(p.Volume0 * invD * f.DT))
	mv := p.Velocity.Scale(p.Mass)

	for k := range c {
		e := &c[k]
		if e.Slot < 0 {
			continue
		}
		n := f.Grid.At(e.Slot)
		n.Momentum = n.Momentum.Add(affine.MulVec(e.Distance).Add(mv).Scale(e.Weight))
		n.PhaseMomentum = n.PhaseMomentum.Add(mv.Scale(e.Weight * p.Phase))
	}
}

func computeVelocities(f *Frame) {
	f.Pool.Run(f.Grid.Len(), func(start, end int) {
		for i := start; i < end; i++ {
			n := f.Grid.At(int32(i))
			if !n.Active || n.Mass <= 0 {
				continue
			}
			n.Velocity = n.Momentum.Scale(vmath.SafeInverse(n.Mass))
		}
	})
}
