package grid

import "fmt"

// BoundaryMode selects how node velocities near the edge of the valid range
// are constrained.
type BoundaryMode uint8

const (
	// Stick zeroes the whole velocity near any boundary.
	Stick BoundaryMode = iota
	// Slip zeroes only the component normal to the boundary.
	Slip
	// Open leaves velocities untouched.
	Open
)

// BoundaryMargin is the width, in cells, of the constrained band.
const BoundaryMargin = 2

var boundaryNames = [...]string{"stick", "slip", "open"}

func (m BoundaryMode) String() string {
	if int(m) < len(boundaryNames) {
		return boundaryNames[m]
	}
	return fmt.Sprintf("BoundaryMode(%d)", m)
}

// ParseBoundaryMode converts a name produced by String back to a mode.
func ParseBoundaryMode(s string) (BoundaryMode, error) {
	for i, name := range boundaryNames {
		if s == name {
			return BoundaryMode(i), nil
		}
	}
	return Stick, fmt.Errorf("unknown boundary mode %q", s)
}

// NearBoundary reports which axes of c fall inside the boundary band.
func (b Bounds) NearBoundary(c Coord) (nearX, nearY bool) {
	nearX = c.X < b.Min.X+BoundaryMargin || c.X > b.Max.X-1-BoundaryMargin
	nearY = c.Y < b.Min.Y+BoundaryMargin || c.Y > b.Max.Y-1-BoundaryMargin
	return nearX, nearY
}

// ApplyBoundary constrains n's velocity according to mode and sets its
// boundary flag.
func ApplyBoundary(n *Node, c Coord, b Bounds, mode BoundaryMode) {
	nearX, nearY := b.NearBoundary(c)
	n.Boundary = nearX || nearY
	if !n.Boundary {
		return
	}

	switch mode {
	case Stick:
		n.Velocity.X = 0
		n.Velocity.Y = 0
	case Slip:
		if nearX {
			n.Velocity.X = 0
		}
		if nearY {
			n.Velocity.Y = 0
		}
	case Open:
	}
}
