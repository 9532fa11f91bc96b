package cube

// Cube geometry. Six 64x64 panels stacked along Z.
const (
	Size       = 64
	Depth      = 6
	LayerCells = Size * Size
	Total      = LayerCells * Depth
)

// Coord addresses one cell of the cube.
type Coord struct{ X, Y, Z int }

// Valid reports whether c lies inside the cube.
func (c Coord) Valid() bool {
	return c.X >= 0 && c.X < Size &&
		c.Y >= 0 && c.Y < Size &&
		c.Z >= 0 && c.Z < Depth
}

// Index maps c to its position in the flat buffer (z-major, then y, then x).
// The result is only meaningful for valid coordinates.
func Index(c Coord) int {
	return c.Z*LayerCells + c.Y*Size + c.X
}

// CoordOf is the inverse of Index. Out-of-range indices yield the zero Coord.
func CoordOf(i int) Coord {
	if i < 0 || i >= Total {
		return Coord{}
	}
	z := i / LayerCells
	rem := i % LayerCells
	return Coord{X: rem % Size, Y: rem / Size, Z: z}
}

// Vec3 is a continuous position inside (or near) the cube.
type Vec3 struct{ X, Y, Z float64 }

// Coord truncates v toward zero.
func (v Vec3) Coord() Coord {
	return Coord{X: int(v.X), Y: int(v.Y), Z: int(v.Z)}
}

// Inside reports whether v is within [0,Size) x [0,Size) x [0,Depth).
func (v Vec3) Inside() bool {
	return v.X >= 0 && v.X < Size &&
		v.Y >= 0 && v.Y < Size &&
		v.Z >= 0 && v.Z < Depth
}
