// Package kernel implements the quadratic B-spline stencil shared by the
// particle-to-grid and grid-to-particle transfers.
//
// Grid node i sits at the centre of cell i, (i+0.5)·cellWidth in world units.
// A particle touches the 3x3 block of nodes around its nearest node.
package kernel

import (
	"math"

	"github.com/pthm-cable/mpm2d/grid"
	"github.com/pthm-cable/mpm2d/vmath"
)

// StencilSize is the number of nodes a particle touches.
const StencilSize = 9

// Stencil is the interpolation footprint of one particle.
// Entry i covers node Base + (i/3, i%3).
type Stencil struct {
	Base      grid.Coord
	Weights   [StencilSize]float32
	Coords    [StencilSize]grid.Coord
	Distances [StencilSize]vmath.Vec2 // node minus particle, world units
}

// InvD is the MLS normalisation constant 4/cellWidth².
func InvD(cellWidth float32) float32 {
	return 4 / (cellWidth * cellWidth)
}

// NearestCell returns the cell whose node is nearest to pos.
func NearestCell(pos vmath.Vec2, cellWidth float32) grid.Coord {
	return grid.Coord{
		X: int32(math.Floor(float64(pos.X / cellWidth))),
		Y: int32(math.Floor(float64(pos.Y / cellWidth))),
	}
}

// AxisWeights returns the three per-axis weights for offset d = p - floor(p) - 0.5.
func AxisWeights(d float32) [3]float32 {
	return [3]float32{
		0.5 * (0.5 - d) * (0.5 - d),
		0.75 - d*d,
		0.5 * (0.5 + d) * (0.5 + d),
	}
}

// Compute evaluates the stencil for a particle at pos.
func Compute(pos vmath.Vec2, cellWidth float32) Stencil {
	px := pos.X / cellWidth
	py := pos.Y / cellWidth
	fx := float32(math.Floor(float64(px)))
	fy := float32(math.Floor(float64(py)))

	wx := AxisWeights(px - fx - 0.5)
	wy := AxisWeights(py - fy - 0.5)

	var s Stencil
	s.Base = grid.Coord{X: int32(fx) - 1, Y: int32(fy) - 1}

	i := 0
	for gx := int32(0); gx < 3; gx++ {
		for gy := int32(0); gy < 3; gy++ {
			c := s.Base.Add(gx, gy)
			s.Coords[i] = c
			s.Weights[i] = wx[gx] * wy[gy]
			s.Distances[i] = vmath.Vec2{
				X: (float32(c.X) - px + 0.5) * cellWidth,
				Y: (float32(c.Y) - py + 0.5) * cellWidth,
			}
			i++
		}
	}
	return s
}
