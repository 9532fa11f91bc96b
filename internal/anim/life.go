package anim

import (
	"math/rand"

	"github.com/coreman2200/layercube/internal/cube"
)

// Life grid: the six faces unfolded into one 64 x 384 torus.
const (
	LifeWidth  = cube.Size
	LifeHeight = cube.Size * cube.Depth

	lifeInterval = 0.5
	lifeDensity  = 0.3
)

// Life runs Conway's Game of Life (B3/S23) on the unfolded cube.
type Life struct {
	Base

	rng   *rand.Rand
	cur   []bool
	next  []bool
	timer float64
}

func NewLife(opts ...Option) *Life {
	o := buildOptions(opts)
	return &Life{
		Base: newBase(0),
		rng:  o.rng,
		cur:  make([]bool, LifeWidth*LifeHeight),
		next: make([]bool, LifeWidth*LifeHeight),
	}
}

func (l *Life) Name() string { return "Game of Life" }

func (l *Life) Init() {
	l.seed()
	l.timer = 0
}

func (l *Life) Reset() {
	l.Init()
	l.rewind()
}

func (l *Life) seed() {
	for i := range l.cur {
		l.cur[i] = l.rng.Float64() < lifeDensity
	}
}

func (l *Life) Update(dt float64) {
	l.timer += l.advance(dt)
	if l.timer >= lifeInterval {
		l.timer = 0
		l.Step()
	}
}

// Step applies one generation of the rules.
func (l *Life) Step() {
	for y := 0; y < LifeHeight; y++ {
		for x := 0; x < LifeWidth; x++ {
			n := l.neighbors(x, y)
			alive := l.cur[y*LifeWidth+x]
			l.next[y*LifeWidth+x] = n == 3 || (alive && n == 2)
		}
	}
	l.cur, l.next = l.next, l.cur
}

func (l *Life) neighbors(x, y int) int {
	n := 0
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			nx := (x + dx + LifeWidth) % LifeWidth
			ny := (y + dy + LifeHeight) % LifeHeight
			if l.cur[ny*LifeWidth+nx] {
				n++
			}
		}
	}
	return n
}

// Cell reports whether (x,y) is alive. Out-of-range cells are dead.
func (l *Life) Cell(x, y int) bool {
	if x < 0 || x >= LifeWidth || y < 0 || y >= LifeHeight {
		return false
	}
	return l.cur[y*LifeWidth+x]
}

func (l *Life) SetCell(x, y int, alive bool) {
	if x < 0 || x >= LifeWidth || y < 0 || y >= LifeHeight {
		return
	}
	l.cur[y*LifeWidth+x] = alive
}

// ClearGrid kills every cell.
func (l *Life) ClearGrid() {
	for i := range l.cur {
		l.cur[i] = false
	}
}

// Population counts live cells.
func (l *Life) Population() int {
	n := 0
	for _, c := range l.cur {
		if c {
			n++
		}
	}
	return n
}

// Render maps grid row y to face y/64, face row y%64.
func (l *Life) Render(v *cube.Volume) {
	v.Clear()
	for y := 0; y < LifeHeight; y++ {
		for x := 0; x < LifeWidth; x++ {
			if l.cur[y*LifeWidth+x] {
				v.Set(cube.Coord{X: x, Y: y % cube.Size, Z: y / cube.Size}, cube.Green)
			}
		}
	}
}
