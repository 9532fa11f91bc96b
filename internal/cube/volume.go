package cube

import (
	"errors"
	"fmt"
)

// ErrSizeMismatch is returned when a bulk replacement does not have exactly
// Total cells.
var ErrSizeMismatch = errors.New("cube: buffer size mismatch")

// Volume is the canonical pixel buffer shared by animations, the display
// driver and any preview. Its length never changes after construction.
type Volume struct {
	cells []Color
}

// NewVolume returns an all-black volume.
func NewVolume() *Volume {
	return &Volume{cells: make([]Color, Total)}
}

// Get returns the color at c, or Black when c is out of range.
func (v *Volume) Get(c Coord) Color {
	if !c.Valid() {
		return Black
	}
	return v.cells[Index(c)]
}

// Set writes col at c. Invalid coordinates are ignored.
func (v *Volume) Set(c Coord, col Color) {
	if !c.Valid() {
		return
	}
	v.cells[Index(c)] = col
}

func (v *Volume) Clear() { v.Fill(Black) }

func (v *Volume) Fill(col Color) {
	for i := range v.cells {
		v.cells[i] = col
	}
}

// Replace copies cells into the volume. The volume is left untouched unless
// len(cells) == Total.
func (v *Volume) Replace(cells []Color) error {
	if len(cells) != Total {
		return fmt.Errorf("%w: got %d cells, want %d", ErrSizeMismatch, len(cells), Total)
	}
	copy(v.cells, cells)
	return nil
}

// Cells exposes the backing slice for read-only consumers such as the
// preview. Callers must not retain it across frames.
func (v *Volume) Cells() []Color { return v.cells }

// Layer returns the cells of panel z, or nil when z is out of range.
func (v *Volume) Layer(z int) []Color {
	if z < 0 || z >= Depth {
		return nil
	}
	return v.cells[z*LayerCells : (z+1)*LayerCells]
}

func (v *Volume) CopyFrom(o *Volume) { copy(v.cells, o.cells) }

func (v *Volume) Clone() *Volume {
	c := NewVolume()
	c.CopyFrom(v)
	return c
}

// Packed24 returns 3 bytes (r,g,b) per cell in buffer order.
func (v *Volume) Packed24() []byte {
	out := make([]byte, 0, Total*3)
	for _, c := range v.cells {
		out = append(out, c.R, c.G, c.B)
	}
	return out
}

// Packed565 returns 2 bytes per cell, high byte first.
func (v *Volume) Packed565() []byte {
	out := make([]byte, 0, Total*2)
	for _, c := range v.cells {
		p := Pack565(c)
		out = append(out, byte(p>>8), byte(p))
	}
	return out
}

// RawBytes is the wire form used by byte-oriented sinks; same as Packed24.
func (v *Volume) RawBytes() []byte { return v.Packed24() }
