package solver

import "github.com/pthm-cable/mpm2d/grid"

// UpdateGrid applies gravity to every node with mass and then the boundary
// policy. Nodes are independent, so the pool splits them by slot.
func UpdateGrid(f *Frame) {
	dv := f.Gravity.Scale(f.DT)
	bounds := f.Grid.Bounds()

	f.Pool.Run(f.Grid.Len(), func(start, end int) {
		for i := start; i < end; i++ {
			slot := int32(i)
			n := f.Grid.At(slot)
			if !n.Active || n.Mass <= 0 {
				continue
			}
			n.Velocity = n.Velocity.Add(dv)
			grid.ApplyBoundary(n, f.Grid.CoordAt(slot), bounds, f.Boundary)
		}
	})
}
