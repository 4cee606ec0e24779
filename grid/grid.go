// Package grid provides the sparse background grid used by the transfer
// passes. Nodes live in a dense arena indexed through a packed-coordinate map,
// so hot loops can address nodes by slot without touching the map.
package grid

import "github.com/pthm-cable/mpm2d/vmath"

// Node holds the per-step accumulators of one grid node.
type Node struct {
	Mass     float32
	Momentum vmath.Vec2
	Velocity vmath.Vec2 // valid after grid velocity integration

	// Phase-weighted mass and momentum, reported as the phase fraction and
	// drift columns of the window stats.
	PhaseMass     float32
	PhaseMomentum vmath.Vec2

	Active   bool
	Boundary bool
}

// reset clears the accumulators and flags.
func (n *Node) reset() {
	*n = Node{}
}

// Grid is a sparse map from cell coordinate to Node.
type Grid struct {
	bounds Bounds
	nodes  []Node
	coords []Coord
	index  map[PackedCell]int32
}

// New creates an empty grid covering bounds.
func New(bounds Bounds) *Grid {
	return &Grid{
		bounds: bounds,
		nodes:  make([]Node, 0, 1024),
		coords: make([]Coord, 0, 1024),
		index:  make(map[PackedCell]int32, 1024),
	}
}

// Bounds returns the valid cell range.
func (g *Grid) Bounds() Bounds {
	return g.bounds
}

// Len returns the number of allocated nodes.
func (g *Grid) Len() int {
	return len(g.nodes)
}

// ActiveCount returns the number of active nodes.
func (g *Grid) ActiveCount() int {
	n := 0
	for i := range g.nodes {
		if g.nodes[i].Active {
			n++
		}
	}
	return n
}

// Get returns the node at c without creating it.
func (g *Grid) Get(c Coord) (*Node, bool) {
	slot, ok := g.Slot(c)
	if !ok {
		return nil, false
	}
	return &g.nodes[slot], true
}

// Slot returns the arena index of the node at c.
func (g *Grid) Slot(c Coord) (int32, bool) {
	if !g.bounds.Contains(c) {
		return -1, false
	}
	slot, ok := g.index[Pack(c)]
	return slot, ok
}

// GetOrCreate returns the node at c, allocating it if needed, and marks it
// active. Returns nil for coordinates outside the valid range.
func (g *Grid) GetOrCreate(c Coord) *Node {
	slot := g.SlotOrCreate(c)
	if slot < 0 {
		return nil
	}
	return &g.nodes[slot]
}

// SlotOrCreate is GetOrCreate returning the arena index, or -1 out of range.
func (g *Grid) SlotOrCreate(c Coord) int32 {
	if !g.bounds.Contains(c) {
		return -1
	}
	key := Pack(c)
	slot, ok := g.index[key]
	if !ok {
		slot = int32(len(g.nodes))
		g.nodes = append(g.nodes, Node{})
		g.coords = append(g.coords, c)
		g.index[key] = slot
	}
	g.nodes[slot].Active = true
	return slot
}

// At returns the node in arena slot i. Slots are stable until Compact.
func (g *Grid) At(i int32) *Node {
	return &g.nodes[i]
}

// CoordAt returns the coordinate of arena slot i.
func (g *Grid) CoordAt(i int32) Coord {
	return g.coords[i]
}

// ForEachActive calls fn for every active node in slot order.
func (g *Grid) ForEachActive(fn func(c Coord, n *Node)) {
	for i := range g.nodes {
		if g.nodes[i].Active {
			fn(g.coords[i], &g.nodes[i])
		}
	}
}

// ZeroActive resets every node's accumulators and flags. Storage is kept so
// the next step reuses the same slots.
func (g *Grid) ZeroActive() {
	for i := range g.nodes {
		g.nodes[i].reset()
	}
}

// Compact demotes and removes every node whose mass is exactly zero.
// Surviving nodes keep their relative slot order.
func (g *Grid) Compact() int {
	w := 0
	for r := range g.nodes {
		if g.nodes[r].Mass == 0 {
			g.nodes[r].Active = false
			delete(g.index, Pack(g.coords[r]))
			continue
		}
		if w != r {
			g.nodes[w] = g.nodes[r]
			g.coords[w] = g.coords[r]
			g.index[Pack(g.coords[w])] = int32(w)
		}
		w++
	}
	removed := len(g.nodes) - w
	g.nodes = g.nodes[:w]
	g.coords = g.coords[:w]
	return removed
}

// TotalMass sums the mass of all active nodes.
func (g *Grid) TotalMass() float64 {
	var m float64
	for i := range g.nodes {
		if g.nodes[i].Active {
			m += float64(g.nodes[i].Mass)
		}
	}
	return m
}

// PhaseTotals sums the phase-weighted mass and momentum of all active nodes.
func (g *Grid) PhaseTotals() (mass, momX, momY float64) {
	for i := range g.nodes {
		n := &g.nodes[i]
		if !n.Active {
			continue
		}
		mass += float64(n.PhaseMass)
		momX += float64(n.PhaseMomentum.X)
		momY += float64(n.PhaseMomentum.Y)
	}
	return mass, momX, momY
}
