package grid

// Coord is an integer cell coordinate.
type Coord struct {
	X, Y int32
}

// PackedCell is a cell coordinate packed into a single sortable key.
type PackedCell uint64

// InvalidCell marks particles that have no valid cell this step.
const InvalidCell = PackedCell(^uint64(0))

// Pack packs c as x in the high 32 bits and y in the low 32 bits.
// Negative coordinates round-trip through their two's-complement bits.
func Pack(c Coord) PackedCell {
	return PackedCell(uint64(uint32(c.X))<<32 | uint64(uint32(c.Y)))
}

// Unpack reverses Pack.
func Unpack(p PackedCell) Coord {
	return Coord{X: int32(uint32(p >> 32)), Y: int32(uint32(p))}
}

// Add offsets c by (dx, dy).
func (c Coord) Add(dx, dy int32) Coord {
	return Coord{X: c.X + dx, Y: c.Y + dy}
}

// Bounds is the valid cell range [Min, Max) on each axis.
type Bounds struct {
	Min Coord
	Max Coord
}

// NewBounds returns the square range [0, resolution).
func NewBounds(resolution int32) Bounds {
	return Bounds{Max: Coord{X: resolution, Y: resolution}}
}

// Contains reports whether c lies inside the range.
func (b Bounds) Contains(c Coord) bool {
	return c.X >= b.Min.X && c.X < b.Max.X && c.Y >= b.Min.Y && c.Y < b.Max.Y
}

// NeighborhoodSafe reports whether the whole 3x3 block centred on c is in range.
func (b Bounds) NeighborhoodSafe(c Coord) bool {
	return c.X-1 >= b.Min.X && c.X+1 < b.Max.X && c.Y-1 >= b.Min.Y && c.Y+1 < b.Max.Y
}

// Empty reports whether the range holds no cells.
func (b Bounds) Empty() bool {
	return b.Max.X <= b.Min.X || b.Max.Y <= b.Min.Y
}
