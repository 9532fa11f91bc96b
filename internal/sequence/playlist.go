package sequence

import (
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DefaultClipSeconds is how long each animation runs in DefaultProgram.
const DefaultClipSeconds = 10.0

// DefaultProgram cycles names forever, per seconds each.
func DefaultProgram(names []string, per float64) Program {
	if per <= 0 {
		per = DefaultClipSeconds
	}
	p := Program{Loop: true}
	for _, n := range names {
		p.Clips = append(p.Clips, Clip{Animation: n, DurationS: per})
	}
	return p
}

// Playlist walks a Program on the producer's clock and switches animations
// through Hooks when a clip runs out.
type Playlist struct {
	mu sync.Mutex

	state  State
	prog   Program
	idx    int
	localT float64

	hooks Hooks
	log   zerolog.Logger
}

func NewPlaylist(h Hooks) *Playlist {
	return &Playlist{
		state: Idle,
		hooks: h,
		log:   log.With().Str("component", "playlist").Logger(),
	}
}

// Load replaces the program and rewinds to Idle.
func (p *Playlist) Load(prog Program) error {
	if len(prog.Clips) == 0 {
		return errors.New("playlist: program has no clips")
	}
	clips := make([]Clip, len(prog.Clips))
	for i, c := range prog.Clips {
		if c.DurationS <= 0 {
			return fmt.Errorf("playlist: clip %d (%s) has non-positive duration", i, c.Animation)
		}
		c.Brightness = c.Brightness.Sorted()
		clips[i] = c
	}
	prog.Clips = clips
	p.mu.Lock()
	defer p.mu.Unlock()
	p.prog = prog
	p.idx = 0
	p.localT = 0
	p.state = Idle
	return nil
}

// Start begins playback from the current clip. Starting without a program
// is a no-op.
func (p *Playlist) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == Running || len(p.prog.Clips) == 0 {
		return
	}
	resume := p.state == Paused
	p.state = Running
	if !resume {
		p.enterLocked()
	}
}

func (p *Playlist) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == Running {
		p.state = Paused
	}
}

func (p *Playlist) Resume() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == Paused {
		p.state = Running
	}
}

// Stop rewinds to the first clip. The animation that was playing keeps
// playing; the playlist only stops switching.
func (p *Playlist) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state = Idle
	p.idx = 0
	p.localT = 0
}

func (p *Playlist) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Position reports the current clip index and the time spent in it.
func (p *Playlist) Position() (int, float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.idx, p.localT
}

func (p *Playlist) Program() Program {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.prog
}

// Tick advances the timeline by dt seconds.
func (p *Playlist) Tick(dt float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != Running || dt <= 0 {
		return
	}
	p.localT += dt
	clip := p.prog.Clips[p.idx]
	if len(clip.Brightness) > 0 && p.hooks.SetBrightness != nil {
		p.hooks.SetBrightness(clip.Brightness.Eval(p.localT))
	}
	if p.localT < clip.DurationS {
		return
	}

	next := p.idx + 1
	if next >= len(p.prog.Clips) {
		if !p.prog.Loop {
			p.log.Info().Msg("program finished")
			p.state = Idle
			p.idx = 0
			p.localT = 0
			return
		}
		next = 0
	}
	p.localT -= clip.DurationS
	p.idx = next
	if p.localT >= p.prog.Clips[next].DurationS {
		p.localT = 0
	}
	p.enterLocked()
}

func (p *Playlist) enterLocked() {
	clip := p.prog.Clips[p.idx]
	if p.hooks.Play != nil {
		if err := p.hooks.Play(clip.Animation); err != nil {
			p.log.Warn().Err(err).Int("clip", p.idx).Msg("clip skipped")
		}
	}
	if clip.Speed > 0 && p.hooks.SetSpeed != nil {
		p.hooks.SetSpeed(clip.Speed)
	}
	if len(clip.Brightness) > 0 && p.hooks.SetBrightness != nil {
		p.hooks.SetBrightness(clip.Brightness.Eval(p.localT))
	}
}
