package particles

import (
	"cmp"
	"math"
	"slices"

	"github.com/pthm-cable/mpm2d/grid"
	"github.com/pthm-cable/mpm2d/kernel"
	"github.com/pthm-cable/mpm2d/vmath"
)

const (
	// BinWidth is the number of particle slots in a bin. A fifth slot of
	// scheduling metadata (colour, region) travels with it.
	BinWidth = 4
	// RegionSize is the edge length, in cells, of a scheduling region.
	// Any size of at least 2 keeps same-colour regions node-disjoint.
	RegionSize = 2
	// NumColours is the number of colour classes.
	NumColours = 4
)

// Removed marks a dropped particle in a remap table.
const Removed = -1

// CacheEntry is one stencil node of a particle's transfer cache.
type CacheEntry struct {
	Coord    grid.Coord
	Weight   float32
	Distance vmath.Vec2
	Slot     int32 // grid arena slot, resolved after the touch pass
}

// TransferCache is the full stencil of one particle.
type TransferCache [kernel.StencilSize]CacheEntry

// CellRun is a contiguous run of Order sharing one cell id.
type CellRun struct {
	Cell       grid.PackedCell
	Start, End int
}

// Bin is a fixed-width group of particles from a single region.
type Bin struct {
	Slots  [BinWidth]int32
	Len    uint8
	Colour uint8
	Region int32
}

// Particles returns the occupied slots.
func (b *Bin) Particles() []int32 {
	return b.Slots[:b.Len]
}

// Region is a RegionSize x RegionSize block of cells. Its bins run
// sequentially on one worker.
type Region struct {
	ID     grid.PackedCell
	Colour uint8
	Bins   []int32
}

// Set owns the particle array and its derived spatial index.
type Set struct {
	particles []Particle
	cache     []TransferCache

	order    []int32
	cells    []CellRun
	occupied map[grid.PackedCell]struct{}
	regions  []Region
	bins     []Bin
	colours  [NumColours][]int32

	regionIndex map[grid.PackedCell]int32
	valid       bool
}

// NewSet creates an empty particle set.
func NewSet() *Set {
	return &Set{
		particles:   make([]Particle, 0, 1024),
		occupied:    make(map[grid.PackedCell]struct{}),
		regionIndex: make(map[grid.PackedCell]int32),
	}
}

// Len returns the number of particles, failed ones included.
func (s *Set) Len() int {
	return len(s.particles)
}

// Add appends p and returns its index.
func (s *Set) Add(p Particle) int {
	s.particles = append(s.particles, p)
	s.valid = false
	return len(s.particles) - 1
}

// AddBatch appends every particle in batch.
func (s *Set) AddBatch(batch []Particle) {
	s.particles = append(s.particles, batch...)
	s.valid = false
}

// Particles exposes the particle array. Mutating positions invalidates the
// spatial index until the next Rebuild.
func (s *Set) Particles() []Particle {
	return s.particles
}

// At returns a pointer to particle i.
func (s *Set) At(i int) *Particle {
	return &s.particles[i]
}

// Clear removes every particle.
func (s *Set) Clear() {
	s.particles = s.particles[:0]
	s.cache = s.cache[:0]
	s.invalidate()
}

// Valid reports whether the spatial index matches the particle array.
func (s *Set) Valid() bool {
	return s.valid
}

// Order returns live particle indices sorted by cell id.
func (s *Set) Order() []int32 { return s.order }

// Cells returns the contiguous cell runs of Order.
func (s *Set) Cells() []CellRun { return s.cells }

func (s *Set) Regions() []Region { return s.regions }
func (s *Set) Bins() []Bin       { return s.bins }

// Colour returns the region indices of colour class c.
func (s *Set) Colour(c int) []int32 { return s.colours[c] }

// Cache returns the per-particle transfer caches, indexed like Particles.
func (s *Set) Cache() []TransferCache { return s.cache }

// Occupied returns the set of cell ids holding at least one live particle.
func (s *Set) Occupied() map[grid.PackedCell]struct{} { return s.occupied }

// ColourOf returns the colour class of a region coordinate.
func ColourOf(region grid.Coord) uint8 {
	return uint8(mod2(region.X)*2 + mod2(region.Y))
}

// RegionOf returns the region coordinate containing a cell.
func RegionOf(cell grid.Coord) grid.Coord {
	return grid.Coord{X: floorDiv(cell.X, RegionSize), Y: floorDiv(cell.Y, RegionSize)}
}

func (s *Set) invalidate() {
	s.order = s.order[:0]
	s.cells = s.cells[:0]
	s.regions = s.regions[:0]
	s.bins = s.bins[:0]
	for c := range s.colours {
		s.colours[c] = s.colours[c][:0]
	}
	clear(s.occupied)
	clear(s.regionIndex)
	s.valid = false
}

// Rebuild recomputes cell ids, transfer caches and the scheduling structures.
// Particles whose stencil would leave bounds are marked failed and excluded.
func (s *Set) Rebuild(cellWidth float32, bounds grid.Bounds) {
	s.invalidate()
	n := len(s.particles)
	if cap(s.cache) < n {
		s.cache = make([]TransferCache, n)
	}
	s.cache = s.cache[:n]

	for i := range s.particles {
		p := &s.particles[i]
		if p.Failed || !p.Position.IsFinite() {
			s.reject(i)
			continue
		}
		// Positions far outside the int32 range would wrap on conversion.
		if math.Abs(float64(p.Position.X/cellWidth)) > 1<<30 || math.Abs(float64(p.Position.Y/cellWidth)) > 1<<30 {
			s.reject(i)
			continue
		}

		cell := kernel.NearestCell(p.Position, cellWidth)
		if !bounds.NeighborhoodSafe(cell) {
			s.reject(i)
			continue
		}

		p.Cell = grid.Pack(cell)
		st := kernel.Compute(p.Position, cellWidth)
		c := &s.cache[i]
		for k := range st.Weights {
			c[k] = CacheEntry{
				Coord:    st.Coords[k],
				Weight:   st.Weights[k],
				Distance: st.Distances[k],
				Slot:     -1,
			}
		}
		s.order = append(s.order, int32(i))
	}

	slices.SortStableFunc(s.order, func(a, b int32) int {
		return cmp.Compare(s.particles[a].Cell, s.particles[b].Cell)
	})

	s.buildRuns()
	s.buildBins()
	s.valid = true
}

func (s *Set) reject(i int) {
	p := &s.particles[i]
	p.Failed = true
	p.Cell = grid.InvalidCell
	s.cache[i] = TransferCache{}
	for k := range s.cache[i] {
		s.cache[i][k].Slot = -1
	}
}

func (s *Set) buildRuns() {
	for start := 0; start < len(s.order); {
		cell := s.particles[s.order[start]].Cell
		end := start + 1
		for end < len(s.order) && s.particles[s.order[end]].Cell == cell {
			end++
		}
		s.cells = append(s.cells, CellRun{Cell: cell, Start: start, End: end})
		s.occupied[cell] = struct{}{}
		start = end
	}
}

// buildBins groups cell runs into regions and fills each region's bins in
// sorted order. Regions appear in order of first occurrence.
func (s *Set) buildBins() {
	open := make(map[int32]int32) // region -> index of its partially filled bin

	for _, run := range s.cells {
		rc := RegionOf(grid.Unpack(run.Cell))
		rid := grid.Pack(rc)
		ri, ok := s.regionIndex[rid]
		if !ok {
			ri = int32(len(s.regions))
			colour := ColourOf(rc)
			s.regions = append(s.regions, Region{ID: rid, Colour: colour})
			s.regionIndex[rid] = ri
			s.colours[colour] = append(s.colours[colour], ri)
		}
		region := &s.regions[ri]

		for _, idx := range s.order[run.Start:run.End] {
			bi, ok := open[ri]
			if !ok || s.bins[bi].Len == BinWidth {
				bi = int32(len(s.bins))
				s.bins = append(s.bins, Bin{Colour: region.Colour, Region: ri})
				region.Bins = append(region.Bins, bi)
				open[ri] = bi
			}
			b := &s.bins[bi]
			b.Slots[b.Len] = idx
			b.Len++
		}
	}
}

// RemoveFailed drops every failed particle, keeping survivors in order, and
// returns the old-to-new index table. Dropped entries hold Removed. When
// nothing failed the returned table is nil and the index is left intact.
func (s *Set) RemoveFailed() []int {
	failed := false
	for i := range s.particles {
		if s.particles[i].Failed {
			failed = true
			break
		}
	}
	if !failed {
		return nil
	}

	remap := make([]int, len(s.particles))
	w := 0
	for r := range s.particles {
		if s.particles[r].Failed {
			remap[r] = Removed
			continue
		}
		remap[r] = w
		s.particles[w] = s.particles[r]
		if r < len(s.cache) {
			s.cache[w] = s.cache[r]
		}
		w++
	}
	s.particles = s.particles[:w]
	if len(s.cache) > w {
		s.cache = s.cache[:w]
	}
	s.invalidate()
	return remap
}

func mod2(v int32) int32 {
	return v & 1
}

func floorDiv(a, b int32) int32 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
