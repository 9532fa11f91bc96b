package anim

import "github.com/coreman2200/layercube/internal/cube"

// PaintFunc draws a frame for local time t (seconds).
type PaintFunc func(v *cube.Volume, t float64)

// Func adapts a PaintFunc into an Animation. With a positive duration it
// wraps to zero when looping and finishes otherwise.
type Func struct {
	Base
	name  string
	paint PaintFunc
}

func NewFunc(name string, paint PaintFunc, duration float64) *Func {
	return &Func{Base: newBase(duration), name: name, paint: paint}
}

func (f *Func) Name() string { return f.name }

func (f *Func) Init() {}

func (f *Func) Reset() { f.rewind() }

func (f *Func) Update(dt float64) { f.advance(dt) }

func (f *Func) Render(v *cube.Volume) {
	if f.paint != nil {
		f.paint(v, f.Elapsed())
	}
}

// TestPattern sweeps a red/green cross through the cube with a trail of blue
// dots.
func TestPattern() *Func {
	return NewFunc("Test Pattern", paintTestPattern, 0)
}

func paintTestPattern(v *cube.Volume, t float64) {
	v.Clear()

	px := int(t*10) % cube.Size
	py := int(t*8) % cube.Size
	pz := int(t*6) % cube.Depth

	for i := 0; i < cube.Size; i++ {
		v.Set(cube.Coord{X: px, Y: i, Z: pz}, cube.Red)
		v.Set(cube.Coord{X: i, Y: py, Z: pz}, cube.Green)
	}
	for i := 0; i < 10; i++ {
		v.Set(cube.Coord{
			X: (px + i*7) % cube.Size,
			Y: (py + i*5) % cube.Size,
			Z: (pz + i*3) % cube.Depth,
		}, cube.Blue)
	}
}
