package anim

import (
	"math"

	"github.com/coreman2200/layercube/internal/cube"
)

// Wave paints a traveling sine field over the whole cube.
type Wave struct {
	Base
	Color cube.Color
}

func NewWave() *Wave {
	return &Wave{Base: newBase(0), Color: cube.Cyan}
}

func (w *Wave) Name() string { return "Wave" }

func (w *Wave) Init() {}

func (w *Wave) Reset() { w.rewind() }

func (w *Wave) Update(dt float64) { w.advance(dt) }

func (w *Wave) Render(v *cube.Volume) {
	t := w.Elapsed()
	for z := 0; z < cube.Depth; z++ {
		for y := 0; y < cube.Size; y++ {
			for x := 0; x < cube.Size; x++ {
				phase := t + float64(x)*0.2 + float64(y)*0.1 + float64(z)*0.3
				v.Set(cube.Coord{X: x, Y: y, Z: z}, w.Color.Scale((math.Sin(phase)+1)/2))
			}
		}
	}
}
