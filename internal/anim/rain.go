package anim

import (
	"math"
	"math/rand"

	"github.com/coreman2200/layercube/internal/cube"
)

const rainSpawnInterval = 0.1 // seconds of scaled time between drops

type drop struct {
	pos   cube.Vec3
	speed float64
	color cube.Color
}

// Rain drops colored points along a gravity vector. New drops enter on the
// face opposite the dominant gravity axis.
type Rain struct {
	Base

	rng     *rand.Rand
	drops   []drop
	spawnT  float64
	spawned int

	gravity cube.Vec3 // normalized
}

func NewRain(opts ...Option) *Rain {
	o := buildOptions(opts)
	return &Rain{
		Base:    newBase(0),
		rng:     o.rng,
		drops:   make([]drop, 0, 50),
		gravity: cube.Vec3{Y: -1},
	}
}

func (r *Rain) Name() string { return "Rain" }

func (r *Rain) Init() {
	r.drops = r.drops[:0]
	r.spawnT = 0
}

func (r *Rain) Reset() {
	r.Init()
	r.spawned = 0
	r.rewind()
}

// Drops is the number of drops currently inside the cube.
func (r *Rain) Drops() int { return len(r.drops) }

// Spawned counts drops created since the last Reset.
func (r *Rain) Spawned() int { return r.spawned }

// Gravity returns the current normalized fall direction.
func (r *Rain) Gravity() cube.Vec3 { return r.gravity }

// SetOrientation points gravity according to the cube's pitch and yaw in
// degrees. Pitch tilts Y/Z, yaw tilts X/Z.
func (r *Rain) SetOrientation(pitch, yaw float64) {
	p := pitch * math.Pi / 180
	y := yaw * math.Pi / 180
	g := cube.Vec3{
		X: -math.Sin(y) * math.Cos(p),
		Y: -math.Sin(p),
		Z: -math.Cos(y) * math.Cos(p),
	}
	l := math.Sqrt(g.X*g.X + g.Y*g.Y + g.Z*g.Z)
	if l > 0.001 {
		g.X /= l
		g.Y /= l
		g.Z /= l
	}
	r.gravity = g
}

func (r *Rain) Update(dt float64) {
	sdt := r.advance(dt)
	r.spawnT += sdt
	if r.spawnT > rainSpawnInterval {
		r.spawnT = 0
		r.spawn()
	}

	kept := r.drops[:0]
	for _, d := range r.drops {
		d.pos.X += r.gravity.X * d.speed * sdt
		d.pos.Y += r.gravity.Y * d.speed * sdt
		d.pos.Z += r.gravity.Z * d.speed * sdt
		if d.pos.Inside() {
			kept = append(kept, d)
		}
	}
	r.drops = kept
}

func (r *Rain) spawn() {
	ax, ay, az := math.Abs(r.gravity.X), math.Abs(r.gravity.Y), math.Abs(r.gravity.Z)
	d := drop{
		pos: cube.Vec3{
			X: r.uniform(cube.Size),
			Y: r.uniform(cube.Size),
			Z: r.uniform(cube.Depth),
		},
		speed: 20 + r.rng.Float64()*30,
		color: cube.Color{
			R: uint8(r.rng.Float64() * 255),
			G: uint8(r.rng.Float64() * 255),
			B: uint8(r.rng.Float64() * 255),
		},
	}

	switch {
	case ay > ax && ay > az:
		d.pos.Y = entry(r.gravity.Y, cube.Size)
	case ax > az:
		d.pos.X = entry(r.gravity.X, cube.Size)
	default:
		d.pos.Z = entry(r.gravity.Z, cube.Depth)
	}

	r.drops = append(r.drops, d)
	r.spawned++
}

// entry is the coordinate of the face a drop enters from when falling along
// an axis with component g.
func entry(g float64, n int) float64 {
	if g > 0 {
		return 0
	}
	return float64(n - 1)
}

func (r *Rain) uniform(n int) float64 {
	return float64(r.rng.Intn(n))
}

func (r *Rain) Render(v *cube.Volume) {
	v.Clear()
	for _, d := range r.drops {
		v.Set(d.pos.Coord(), d.color)
	}
}
