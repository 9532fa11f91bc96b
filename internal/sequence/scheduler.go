package sequence

import (
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/coreman2200/layercube/internal/anim"
	"github.com/coreman2200/layercube/internal/cube"
)

// ErrNotFound is returned by Play for an unregistered animation name.
var ErrNotFound = errors.New("sequence: animation not found")

// Scheduler owns a registry of named animations and drives at most one of
// them at a time. Control methods may be called from any goroutine; Update and
// Render are serialized with them.
type Scheduler struct {
	mu      sync.Mutex
	reg     map[string]anim.Animation
	current anim.Animation
	paused  bool
	opts    []anim.Option
	log     zerolog.Logger
}

// NewScheduler returns an empty scheduler. opts are forwarded to the
// built-ins when AddBuiltins is called.
func NewScheduler(opts ...anim.Option) *Scheduler {
	return &Scheduler{
		reg:  map[string]anim.Animation{},
		opts: opts,
		log:  log.With().Str("component", "scheduler").Logger(),
	}
}

// AddBuiltins registers Rain, Wave, Cube Rotation, Test Pattern and Game of
// Life, and returns their names in that order.
func (s *Scheduler) AddBuiltins() []string {
	var names []string
	for _, a := range anim.Builtins(s.opts...) {
		s.Add(a)
		names = append(names, a.Name())
	}
	return names
}

// Add registers a, replacing any animation with the same name.
func (s *Scheduler) Add(a anim.Animation) {
	if a == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reg[a.Name()] = a
}

// Remove unregisters name, stopping it first if it is playing.
func (s *Scheduler) Remove(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.reg, name)
	if s.current != nil && s.current.Name() == name {
		s.stopLocked()
	}
}

func (s *Scheduler) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reg = map[string]anim.Animation{}
	s.stopLocked()
}

// Play makes name the current animation, resetting and re-initializing it.
// On error the current selection is left alone.
func (s *Scheduler) Play(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.reg[name]
	if !ok {
		s.log.Warn().Str("animation", name).Msg("play: not registered")
		return fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	s.current = a
	a.Reset()
	a.Init()
	s.paused = false
	s.log.Info().Str("animation", name).Msg("playing")
	return nil
}

func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

func (s *Scheduler) stopLocked() {
	s.current = nil
	s.paused = false
}

func (s *Scheduler) Pause() {
	s.mu.Lock()
	s.paused = true
	s.mu.Unlock()
}

func (s *Scheduler) Resume() {
	s.mu.Lock()
	s.paused = false
	s.mu.Unlock()
}

// Update advances the current animation. A finished, non-looping animation
// is stopped afterwards.
func (s *Scheduler) Update(dt float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil || s.paused {
		return
	}
	s.current.Update(dt)
	if s.current.Finished() && !s.current.Looping() {
		s.log.Debug().Str("animation", s.current.Name()).Msg("finished")
		s.stopLocked()
	}
}

// Render paints the current animation into v. Nothing is drawn when idle or
// paused, so v keeps its previous contents.
func (s *Scheduler) Render(v *cube.Volume) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil || s.paused {
		return
	}
	s.current.Render(v)
}

// Names lists registered animations in no particular order.
func (s *Scheduler) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.reg))
	for k := range s.reg {
		out = append(out, k)
	}
	return out
}

func (s *Scheduler) Get(name string) (anim.Animation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.reg[name]
	return a, ok
}

func (s *Scheduler) Current() anim.Animation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// CurrentName is "" when nothing is playing.
func (s *Scheduler) CurrentName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return ""
	}
	return s.current.Name()
}

func (s *Scheduler) Playing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current != nil
}

func (s *Scheduler) Paused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}

// ResetCurrent restarts the current animation from its initial state.
func (s *Scheduler) ResetCurrent() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != nil {
		s.current.Reset()
		s.current.Init()
	}
}

// SetSpeed changes the current animation's time multiplier.
func (s *Scheduler) SetSpeed(speed float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != nil && speed > 0 {
		s.current.SetSpeed(speed)
	}
}

// Orient forwards the cube orientation to the current animation if it
// supports it, and reports whether it did.
func (s *Scheduler) Orient(pitch, yaw float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.current.(anim.Orienter)
	if !ok {
		return false
	}
	o.SetOrientation(pitch, yaw)
	return true
}
