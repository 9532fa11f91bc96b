package anim

import (
	"math"

	"github.com/coreman2200/layercube/internal/cube"
)

// Rotation spins the cube's own lattice about three axes and colors each
// landing cell by its transformed position. Cells that rotate out of bounds
// are dropped, so coverage is partial.
type Rotation struct {
	Base
	rx, ry, rz float64
}

func NewRotation() *Rotation { return &Rotation{Base: newBase(0)} }

func (r *Rotation) Name() string { return "Cube Rotation" }

func (r *Rotation) Init() { r.rx, r.ry, r.rz = 0, 0, 0 }

func (r *Rotation) Reset() {
	r.Init()
	r.rewind()
}

// Angles returns the current rotation about X, Y and Z in radians.
func (r *Rotation) Angles() (x, y, z float64) { return r.rx, r.ry, r.rz }

func (r *Rotation) Update(dt float64) {
	sdt := r.advance(dt)
	r.rx += sdt * 0.5
	r.ry += sdt * 0.3
	r.rz += sdt * 0.2
}

func (r *Rotation) Render(v *cube.Volume) {
	v.Clear()

	cx, sx := math.Cos(r.rx), math.Sin(r.rx)
	cy, sy := math.Cos(r.ry), math.Sin(r.ry)
	cz, sz := math.Cos(r.rz), math.Sin(r.rz)

	const (
		halfS = cube.Size / 2
		halfD = cube.Depth / 2
	)
	for x := 0; x < cube.Size; x++ {
		for y := 0; y < cube.Size; y++ {
			for z := 0; z < cube.Depth; z++ {
				fx, fy, fz := float64(x), float64(y), float64(z)
				tx := fx*cy - fz*sy
				ty := fy*cx - fz*sx
				tz := fz*cz + fx*sz

				p := cube.Coord{
					X: int((tx + halfS) * cube.Size / (cube.Size * 1.5)),
					Y: int((ty + halfS) * cube.Size / (cube.Size * 1.5)),
					Z: int((tz + halfD) * cube.Depth / (cube.Depth * 1.5)),
				}
				if !p.Valid() {
					continue
				}
				v.Set(p, cube.Color{
					R: uint8(p.X * 255 / cube.Size),
					G: uint8(p.Y * 255 / cube.Size),
					B: uint8(p.Z * 255 / cube.Depth),
				})
			}
		}
	}
}
