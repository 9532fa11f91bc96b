package anim

import (
	"math/rand"
	"time"

	"github.com/coreman2200/layercube/internal/cube"
)

// Animation is one unit of visual behavior. Update advances internal state by
// dt seconds (scaled by Speed); Render paints the whole volume from the current
// state without advancing time.
type Animation interface {
	Name() string
	Init()
	Update(dt float64)
	Render(v *cube.Volume)
	Reset()

	Finished() bool
	Duration() float64
	Elapsed() float64

	Speed() float64
	SetSpeed(s float64)
	Looping() bool
	SetLooping(l bool)
}

// Orienter is implemented by animations that react to the cube's physical
// orientation. Pitch and yaw are in degrees.
type Orienter interface {
	SetOrientation(pitch, yaw float64)
}

// Base carries the state every animation shares. Embed it and call advance
// from Update.
type Base struct {
	speed    float64
	looping  bool
	elapsed  float64
	duration float64
	finished bool
}

func newBase(duration float64) Base {
	return Base{speed: 1.0, looping: true, duration: duration}
}

func (b *Base) Speed() float64 { return b.speed }
func (b *Base) SetSpeed(s float64) { b.speed = s }
func (b *Base) Looping() bool { return b.looping }
func (b *Base) SetLooping(l bool) { b.looping = l }
func (b *Base) Elapsed() float64 { return b.elapsed }
func (b *Base) Duration() float64 { return b.duration }
func (b *Base) Finished() bool { return b.finished }
func (b *Base) rewind() { b.elapsed, b.finished = 0, false }
func (b *Base) scaled(dt float64) float64 {
	if dt < 0 {
		return 0
	}
	return dt * b.speed
}

// advance moves local time forward and returns the scaled delta. With a
// positive duration, time wraps to zero when looping, otherwise the animation
// finishes.
func (b *Base) advance(dt float64) float64 {
	if b.finished {
		return 0
	}
	sdt := b.scaled(dt)
	b.elapsed += sdt
	if b.duration > 0 && b.elapsed >= b.duration {
		if b.looping {
			b.elapsed = 0
		} else {
			b.finished = true
		}
	}
	return sdt
}

// Option configures a built-in animation.
type Option func(*options)

type options struct {
	rng *rand.Rand
}

// WithRand makes randomized animations deterministic.
func WithRand(r *rand.Rand) Option {
	return func(o *options) { o.rng = r }
}

// WithSeed is WithRand over a fresh source.
func WithSeed(seed int64) Option {
	return WithRand(rand.New(rand.NewSource(seed)))
}

func buildOptions(opts []Option) options {
	o := options{}
	for _, fn := range opts {
		fn(&o)
	}
	if o.rng == nil {
		o.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return o
}

// Builtins returns the stock animations in registration order.
func Builtins(opts ...Option) []Animation {
	return []Animation{
		NewRain(opts...),
		NewWave(),
		NewRotation(),
		TestPattern(),
		NewLife(opts...),
	}
}
