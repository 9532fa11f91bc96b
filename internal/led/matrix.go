// Package led multiplexes frames onto the cube's six panels.
package led

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/coreman2200/layercube/internal/cube"
	"github.com/coreman2200/layercube/internal/hwlink"
)

// ErrInitialization wraps a failure to acquire the hardware link.
var ErrInitialization = errors.New("led: initialization failed")

const (
	DefaultRefreshHz = 60
	DefaultHold      = 100 * time.Microsecond

	layerBytes = cube.LayerCells * 2
)

// Stats summarizes the scan loop.
type Stats struct {
	Frames   uint64        `json:"frames"`
	Overruns uint64        `json:"overruns"`
	LastScan time.Duration `json:"lastScanNs"`
}

// Matrix owns a hardware link and scans the latest frame out through it on
// its own goroutine. SetFrame and the setters are safe from any goroutine;
// the link is only touched by the scan loop once it is running.
type Matrix struct {
	link hwlink.Link
	log  zerolog.Logger
	slow zerolog.Logger // sampled, for per-frame noise

	mu          sync.Mutex
	back        *cube.Volume
	dirty       bool
	front       *cube.Volume // written by the scan goroutine only, under mu
	initialized bool
	cancel      context.CancelFunc
	done        chan struct{}

	refresh    atomic.Int64
	brightness atomic.Uint64 // float64 bits
	hold       atomic.Int64
	layer      atomic.Int32

	frames   atomic.Uint64
	overruns atomic.Uint64
	lastScan atomic.Int64

	buf []byte
}

func NewMatrix(link hwlink.Link) *Matrix {
	l := log.With().Str("component", "matrix").Logger()
	m := &Matrix{
		link:  link,
		log:   l,
		slow:  l.Sample(&zerolog.BasicSampler{N: 120}),
		back:  cube.NewVolume(),
		front: cube.NewVolume(),
		buf:   make([]byte, layerBytes),
	}
	m.refresh.Store(DefaultRefreshHz)
	m.brightness.Store(math.Float64bits(1))
	m.hold.Store(int64(DefaultHold))
	return m
}

// Initialize acquires the link and resets the panels. A second call is a
// no-op.
func (m *Matrix) Initialize() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.initialized {
		return nil
	}
	if err := m.link.Acquire(); err != nil {
		m.log.Error().Err(err).Msg("link acquire failed")
		return fmt.Errorf("%w: %w", ErrInitialization, err)
	}
	m.link.ResetLine()
	m.link.EnableOutput(false)
	m.initialized = true
	m.log.Info().Int64("refresh_hz", m.refresh.Load()).Msg("initialized")
	return nil
}

func (m *Matrix) Initialized() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.initialized
}

// Shutdown stops the scan loop and releases the link. A second call is a
// no-op.
func (m *Matrix) Shutdown() {
	m.Stop()
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.initialized {
		return
	}
	m.link.EnableOutput(false)
	if err := m.link.Release(); err != nil {
		m.log.Warn().Err(err).Msg("link release")
	}
	m.initialized = false
	m.log.Info().Msg("shut down")
}

// SetFrame copies v as the next frame to display.
func (m *Matrix) SetFrame(v *cube.Volume) {
	if v == nil {
		return
	}
	m.mu.Lock()
	m.back.CopyFrom(v)
	m.dirty = true
	m.mu.Unlock()
}

// Snapshot returns a copy of the most recently submitted frame.
func (m *Matrix) Snapshot() *cube.Volume {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.dirty {
		return m.back.Clone()
	}
	return m.front.Clone()
}

// Start launches the scan loop. It does nothing before Initialize or while
// the loop is already running.
func (m *Matrix) Start(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.initialized {
		m.log.Warn().Msg("start before initialize ignored")
		return
	}
	if m.done != nil {
		select {
		case <-m.done:
			// loop ended with its parent context
		default:
			return
		}
	}
	ctx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.done = make(chan struct{})
	go m.scan(ctx, m.done)
	m.log.Info().Msg("scan loop started")
}

// Stop cancels the scan loop and waits for it to exit.
func (m *Matrix) Stop() {
	m.mu.Lock()
	cancel, done := m.cancel, m.done
	m.cancel, m.done = nil, nil
	m.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
	m.log.Info().Uint64("frames", m.frames.Load()).Uint64("overruns", m.overruns.Load()).Msg("scan loop stopped")
}

func (m *Matrix) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.done == nil {
		return false
	}
	select {
	case <-m.done:
		return false
	default:
		return true
	}
}

func (m *Matrix) scan(ctx context.Context, done chan struct{}) {
	defer close(done)
	for {
		start := time.Now()
		m.swap()
		for z := 0; z < cube.Depth; z++ {
			if ctx.Err() != nil {
				return
			}
			m.layer.Store(int32(z))
			m.scanLayer(z)
		}
		elapsed := time.Since(start)
		m.frames.Add(1)
		m.lastScan.Store(int64(elapsed))

		budget := time.Second / time.Duration(m.refresh.Load())
		if elapsed >= budget {
			m.overruns.Add(1)
			m.slow.Debug().Dur("scan", elapsed).Dur("budget", budget).Msg("frame overrun")
			continue
		}
		t := time.NewTimer(budget - elapsed)
		select {
		case <-ctx.Done():
			t.Stop()
			return
		case <-t.C:
		}
	}
}

func (m *Matrix) swap() {
	m.mu.Lock()
	if m.dirty {
		m.front, m.back = m.back, m.front
		m.dirty = false
	}
	m.mu.Unlock()
}

func (m *Matrix) scanLayer(z int) {
	m.link.SelectLayer(z)
	b := m.Brightness()
	for i, c := range m.front.Layer(z) {
		v := HardwareColor(c, b)
		m.buf[2*i] = byte(v >> 8)
		m.buf[2*i+1] = byte(v)
	}
	if err := m.link.Transfer(m.buf); err != nil {
		m.slow.Warn().Err(err).Int("layer", z).Msg("transfer")
	}
	m.link.Latch()
	m.link.EnableOutput(true)
	m.link.Delay(time.Duration(m.hold.Load()))
	m.link.EnableOutput(false)
}

// HardwareColor scales c by brightness and packs it to 5-6-5.
func HardwareColor(c cube.Color, brightness float64) uint16 {
	if brightness < 1 {
		c = c.Scale(brightness)
	}
	return cube.Pack565(c)
}

// ColorFromHardware expands a 5-6-5 word back to 8 bits per channel.
func ColorFromHardware(v uint16) cube.Color {
	return cube.Unpack565(v)
}

// SetRefreshRate sets the target full-cube passes per second, minimum 1.
func (m *Matrix) SetRefreshRate(fps int) {
	if fps < 1 {
		fps = 1
	}
	m.refresh.Store(int64(fps))
}

func (m *Matrix) RefreshRate() int { return int(m.refresh.Load()) }

// SetBrightness clamps level to [0,1].
func (m *Matrix) SetBrightness(level float64) {
	switch {
	case math.IsNaN(level) || level < 0:
		level = 0
	case level > 1:
		level = 1
	}
	m.brightness.Store(math.Float64bits(level))
}

func (m *Matrix) Brightness() float64 { return math.Float64frombits(m.brightness.Load()) }

// SetHold sets how long each layer stays lit.
func (m *Matrix) SetHold(d time.Duration) {
	if d < 0 {
		d = 0
	}
	m.hold.Store(int64(d))
}

func (m *Matrix) Hold() time.Duration { return time.Duration(m.hold.Load()) }

// SetCurrentLayer moves the scan cursor, clamped to [0,Depth).
func (m *Matrix) SetCurrentLayer(layer int) {
	if layer < 0 {
		layer = 0
	}
	if layer >= cube.Depth {
		layer = cube.Depth - 1
	}
	m.layer.Store(int32(layer))
}

func (m *Matrix) CurrentLayer() int { return int(m.layer.Load()) }

func (m *Matrix) Stats() Stats {
	return Stats{
		Frames:   m.frames.Load(),
		Overruns: m.overruns.Load(),
		LastScan: time.Duration(m.lastScan.Load()),
	}
}

// Clear submits an all-black frame.
func (m *Matrix) Clear() {
	m.SetFrame(cube.NewVolume())
}

// FillAll submits a frame of one color.
func (m *Matrix) FillAll(c cube.Color) {
	v := cube.NewVolume()
	v.Fill(c)
	m.SetFrame(v)
}

// TestPattern submits red diagonals on every layer, green where x or y
// equals the layer index and blue elsewhere.
func (m *Matrix) TestPattern() {
	m.log.Info().Msg("test pattern")
	v := cube.NewVolume()
	for z := 0; z < cube.Depth; z++ {
		for y := 0; y < cube.Size; y++ {
			for x := 0; x < cube.Size; x++ {
				c := cube.Blue
				switch {
				case x == y || x == cube.Size-1-y:
					c = cube.Red
				case x == z || y == z:
					c = cube.Green
				}
				v.Set(cube.Coord{X: x, Y: y, Z: z}, c)
			}
		}
	}
	m.SetFrame(v)
}
