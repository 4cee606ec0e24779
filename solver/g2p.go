package solver

import (
	"github.com/pthm-cable/mpm2d/kernel"
	"github.com/pthm-cable/mpm2d/material"
	"github.com/pthm-cable/mpm2d/vmath"
)

// G2P gathers node velocities back to the particles, updates the affine
// field and deformation gradient, and advects positions. Nodes are looked up
// by coordinate because Compact may have moved their slots. The grid is
// read-only here, so particles are split freely across workers.
func G2P(f *Frame) {
	order := f.Set.Order()
	invD := kernel.InvD(f.CellWidth)

	b := f.Grid.Bounds()
	lo := vmath.V2(float32(b.Min.X+1)*f.CellWidth, float32(b.Min.Y+1)*f.CellWidth)
	hi := vmath.V2(float32(b.Max.X-2)*f.CellWidth, float32(b.Max.Y-2)*f.CellWidth)

	f.Pool.Run(len(order), func(start, end int) {
		for _, idx := range order[start:end] {
			gather(f, idx, invD, lo, hi)
		}
	})
}

func gather(f *Frame, idx int32, invD float32, lo, hi vmath.Vec2) {
	p := f.Set.At(int(idx))
	if p.Static {
		p.Velocity = vmath.Vec2{}
		p.Affine = vmath.Mat2{}
		p.VelGradient = vmath.Mat2{}
		return
	}
	c := &f.Set.Cache()[idx]

	var v vmath.Vec2
	var bm vmath.Mat2
	for k := range c {
		e := &c[k]
		n, ok := f.Grid.Get(e.Coord)
		if !ok {
			continue
		}
		wv := n.Velocity.Scale(e.Weight)
		v = v.Add(wv)
		bm = bm.Add(wv.Outer(e.Distance))
	}
	bm = bm.Scale(invD)

	p.Velocity = v
	p.Affine = bm
	p.VelGradient = bm

	def := vmath.Identity().Add(bm.Scale(f.DT)).Mul(p.Deformation)
	p.Deformation = material.ProjectDeformation(p.Kind, def)

	p.Position = p.Position.Add(v.Scale(f.DT)).Clamp(lo, hi)
}
