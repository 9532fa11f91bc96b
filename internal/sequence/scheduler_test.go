package sequence

import (
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/layercube/internal/anim"
	"github.com/coreman2200/layercube/internal/cube"
)

func newTestScheduler() *Scheduler {
	s := NewScheduler(anim.WithRand(rand.New(rand.NewSource(7))))
	s.AddBuiltins()
	return s
}

func rainOf(t *testing.T, s *Scheduler) *anim.Rain {
	a, ok := s.Get("Rain")
	require.True(t, ok)
	return a.(*anim.Rain)
}

func TestSchedulerBuiltinsRegistered(t *testing.T) {
	s := newTestScheduler()
	assert.ElementsMatch(t,
		[]string{"Rain", "Wave", "Cube Rotation", "Test Pattern", "Game of Life"},
		s.Names())
	assert.False(t, s.Playing())
	assert.Equal(t, "", s.CurrentName())
}

func TestSchedulerAddReplacesSameName(t *testing.T) {
	s := NewScheduler()
	var first, second int
	s.Add(anim.NewFunc("X", func(v *cube.Volume, t float64) { first++ }, 0))
	replacement := anim.NewFunc("X", func(v *cube.Volume, t float64) { second++ }, 0)
	s.Add(replacement)

	assert.Equal(t, []string{"X"}, s.Names())
	got, ok := s.Get("X")
	require.True(t, ok)
	assert.Same(t, replacement, got)

	require.NoError(t, s.Play("X"))
	s.Update(0.1)
	s.Render(cube.NewVolume())
	assert.Zero(t, first)
	assert.Equal(t, 1, second)
}

func TestSchedulerPlayUnknownKeepsCurrent(t *testing.T) {
	s := newTestScheduler()
	require.NoError(t, s.Play("Wave"))

	err := s.Play("Fireworks")
	require.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "Wave", s.CurrentName())
}

func TestSchedulerPauseFreezesState(t *testing.T) {
	s := newTestScheduler()
	require.NoError(t, s.Play("Rain"))
	for i := 0; i < 10; i++ {
		s.Update(0.05)
	}
	r := rainOf(t, s)
	before := r.Drops()
	require.NotZero(t, before)
	elapsed := r.Elapsed()

	s.Pause()
	assert.True(t, s.Paused())
	s.Update(1.0)
	assert.Equal(t, before, r.Drops())
	assert.Equal(t, elapsed, r.Elapsed())

	v := cube.NewVolume()
	v.Fill(cube.Magenta)
	s.Render(v)
	assert.Equal(t, cube.Magenta, v.Get(cube.Coord{}), "paused render leaves the frame alone")

	s.Resume()
	s.Update(0.05)
	assert.Greater(t, r.Elapsed(), elapsed)
}

func TestSchedulerStopThenPlayResets(t *testing.T) {
	s := newTestScheduler()
	require.NoError(t, s.Play("Rain"))
	for i := 0; i < 10; i++ {
		s.Update(0.05)
	}
	r := rainOf(t, s)
	require.NotZero(t, r.Drops())

	s.Stop()
	assert.False(t, s.Playing())
	s.Update(1.0) // no-op with nothing current

	require.NoError(t, s.Play("Rain"))
	assert.Zero(t, r.Drops())
	assert.Zero(t, r.Elapsed())
}

func TestSchedulerStopsFinishedAnimation(t *testing.T) {
	s := NewScheduler()
	f := anim.NewFunc("once", nil, 1.0)
	f.SetLooping(false)
	s.Add(f)
	require.NoError(t, s.Play("once"))

	s.Update(0.5)
	assert.True(t, s.Playing())
	s.Update(0.6)
	assert.False(t, s.Playing())
}

func TestSchedulerRemoveAndClear(t *testing.T) {
	s := newTestScheduler()
	require.NoError(t, s.Play("Wave"))
	s.Remove("Wave")
	assert.False(t, s.Playing())
	_, ok := s.Get("Wave")
	assert.False(t, ok)

	require.NoError(t, s.Play("Rain"))
	s.Clear()
	assert.Empty(t, s.Names())
	assert.Nil(t, s.Current())
}

func TestSchedulerOrientUsesCapability(t *testing.T) {
	s := newTestScheduler()
	assert.False(t, s.Orient(90, 0), "nothing playing")

	require.NoError(t, s.Play("Wave"))
	assert.False(t, s.Orient(90, 0))

	require.NoError(t, s.Play("Rain"))
	assert.True(t, s.Orient(0, 90))
	assert.InDelta(t, -1, rainOf(t, s).Gravity().X, 1e-9)
}

func TestSchedulerConcurrentControl(t *testing.T) {
	s := newTestScheduler()
	require.NoError(t, s.Play("Wave"))
	v := cube.NewVolume()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			s.Update(0.016)
			s.Render(v)
		}
	}()
	go func() {
		defer wg.Done()
		names := []string{"Rain", "Wave", "Test Pattern"}
		for i := 0; i < 50; i++ {
			_ = s.Play(names[i%len(names)])
			s.SetSpeed(1.5)
			if i%7 == 0 {
				s.Pause()
				s.Resume()
			}
		}
	}()
	wg.Wait()
	assert.True(t, s.Playing())
}
