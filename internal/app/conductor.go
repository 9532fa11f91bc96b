// Package app runs the producer side of the cube: it advances the scheduler,
// renders into a working volume and hands each frame to the matrix.
package app

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/coreman2200/layercube/internal/cube"
	"github.com/coreman2200/layercube/internal/diagnostics"
	"github.com/coreman2200/layercube/internal/led"
	"github.com/coreman2200/layercube/internal/sequence"
	"github.com/coreman2200/layercube/internal/tests"
)

// MaxDelta caps the time step handed to animations after a stall.
const MaxDelta = 0.1

// ClampDelta bounds dt to [0, max].
func ClampDelta(dt, max float64) float64 {
	if dt < 0 {
		return 0
	}
	if max > 0 && dt > max {
		return max
	}
	return dt
}

// Mirror receives every produced frame after the matrix does.
type Mirror interface {
	Show(v *cube.Volume) error
}

type Options struct {
	MaxDelta float64
	Mirror   Mirror
}

type Conductor struct {
	Sched  *sequence.Scheduler
	List   *sequence.Playlist
	Matrix *led.Matrix

	mirror   Mirror
	maxDelta float64
	work     *cube.Volume
	produced atomic.Uint64

	mu     sync.Mutex
	runner *tests.Runner

	log zerolog.Logger
}

func NewConductor(s *sequence.Scheduler, m *led.Matrix, o Options) *Conductor {
	if o.MaxDelta <= 0 {
		o.MaxDelta = MaxDelta
	}
	c := &Conductor{
		Sched:    s,
		Matrix:   m,
		mirror:   o.Mirror,
		maxDelta: o.MaxDelta,
		work:     cube.NewVolume(),
		log:      log.With().Str("component", "conductor").Logger(),
	}
	c.List = sequence.NewPlaylist(sequence.Hooks{
		Play:          s.Play,
		SetSpeed:      s.SetSpeed,
		SetBrightness: m.SetBrightness,
	})
	return c
}

// Run ticks at fps until ctx is done, feeding measured and clamped wall
// time to Step.
func (c *Conductor) Run(ctx context.Context, fps int) error {
	if fps <= 0 {
		fps = 60
	}
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()
	c.log.Info().Int("fps", fps).Float64("max_delta", c.maxDelta).Msg("producer running")

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			c.log.Info().Uint64("frames", c.produced.Load()).Msg("producer stopped")
			return nil
		case now := <-ticker.C:
			c.Step(now.Sub(last).Seconds())
			last = now
		}
	}
}

// Step produces one frame for a dt second tick. Only one goroutine may call
// it at a time.
func (c *Conductor) Step(dt float64) {
	dt = ClampDelta(dt, c.maxDelta)
	c.List.Tick(dt)
	c.Sched.Update(dt)
	c.Sched.Render(c.work)

	c.mu.Lock()
	if r := c.runner; r != nil && !r.Step(c.work) {
		c.log.Info().Str("test", string(r.Kind())).Int("steps", r.Steps()).Msg("test finished")
		c.runner = nil
	}
	c.mu.Unlock()

	c.Matrix.SetFrame(c.work)
	if c.mirror != nil {
		if err := c.mirror.Show(c.work); err != nil {
			c.log.Warn().Err(err).Msg("mirror")
		}
	}
	c.produced.Add(1)
}

func (c *Conductor) Play(name string) error {
	return c.Sched.Play(name)
}

func (c *Conductor) Pause()  { c.Sched.Pause() }
func (c *Conductor) Resume() { c.Sched.Resume() }

// Stop halts the animation and the playlist.
func (c *Conductor) Stop() {
	c.List.Stop()
	c.Sched.Stop()
}

// LoadPlaylist replaces the program without starting it.
func (c *Conductor) LoadPlaylist(p sequence.Program) error {
	return c.List.Load(p)
}

var errNoProgram = errors.New("app: no playlist loaded")

func (c *Conductor) StartPlaylist() error {
	if len(c.List.Program().Clips) == 0 {
		return errNoProgram
	}
	c.List.Start()
	return nil
}

func (c *Conductor) StopPlaylist() { c.List.Stop() }

func (c *Conductor) SetBrightness(b float64) { c.Matrix.SetBrightness(b) }
func (c *Conductor) SetRefreshRate(hz int)   { c.Matrix.SetRefreshRate(hz) }

func (c *Conductor) SetSpeed(speed float64) { c.Sched.SetSpeed(speed) }

// Orient tilts gravity-aware animations; false when the current one ignores
// orientation.
func (c *Conductor) Orient(pitch, yaw float64) bool {
	return c.Sched.Orient(pitch, yaw)
}

// RunTest overrides produced frames with a hardware test plan until it
// completes.
func (c *Conductor) RunTest(kind string) error {
	k, err := tests.ParseKind(kind)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.runner = tests.NewRunner(tests.Plan{Kind: k})
	c.mu.Unlock()
	c.log.Info().Str("test", kind).Msg("test started")
	return nil
}

func (c *Conductor) CancelTest() {
	c.mu.Lock()
	c.runner = nil
	c.mu.Unlock()
}

// Status is the control surface's view of the pipeline.
type Status struct {
	Animation  string    `json:"animation"`
	Paused     bool      `json:"paused"`
	Playlist   string    `json:"playlist"`
	Clip       int       `json:"clip"`
	Test       string    `json:"test,omitempty"`
	Brightness float64   `json:"brightness"`
	RefreshHz  int       `json:"refreshHz"`
	Running    bool      `json:"running"`
	Produced   uint64    `json:"produced"`
	Scan       led.Stats `json:"scan"`
}

func (c *Conductor) Status() Status {
	idx, _ := c.List.Position()
	st := Status{
		Animation:  c.Sched.CurrentName(),
		Paused:     c.Sched.Paused(),
		Playlist:   string(c.List.State()),
		Clip:       idx,
		Brightness: c.Matrix.Brightness(),
		RefreshHz:  c.Matrix.RefreshRate(),
		Running:    c.Matrix.Running(),
		Produced:   c.produced.Load(),
		Scan:       c.Matrix.Stats(),
	}
	c.mu.Lock()
	if c.runner != nil {
		st.Test = string(c.runner.Kind())
	}
	c.mu.Unlock()
	return st
}

// Sample reads the matrix for the diagnostics stream.
func (c *Conductor) Sample() diagnostics.Sample {
	st := c.Matrix.Stats()
	return diagnostics.Sample{
		Initialized: c.Matrix.Initialized(),
		Running:     c.Matrix.Running(),
		Frames:      st.Frames,
		Overruns:    st.Overruns,
		LastScan:    st.LastScan,
		RefreshHz:   c.Matrix.RefreshRate(),
		Brightness:  c.Matrix.Brightness(),
	}
}
