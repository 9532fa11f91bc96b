package app

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/layercube/internal/anim"
	"github.com/coreman2200/layercube/internal/cube"
	"github.com/coreman2200/layercube/internal/hwlink"
	"github.com/coreman2200/layercube/internal/led"
	"github.com/coreman2200/layercube/internal/sequence"
)

type countingMirror struct {
	shown int
	err   error
}

func (m *countingMirror) Show(*cube.Volume) error {
	m.shown++
	return m.err
}

func newConductor(t *testing.T, o Options) *Conductor {
	t.Helper()
	s := sequence.NewScheduler(anim.WithRand(rand.New(rand.NewSource(1))))
	s.AddBuiltins()
	link, _ := hwlink.Simulated(hwlink.SimOpts{})
	m := led.NewMatrix(link)
	t.Cleanup(m.Shutdown)
	return NewConductor(s, m, o)
}

func litCells(v *cube.Volume) int {
	n := 0
	for _, c := range v.Cells() {
		if c != cube.Black {
			n++
		}
	}
	return n
}

func TestClampDelta(t *testing.T) {
	assert.Equal(t, 0.0, ClampDelta(-1, MaxDelta))
	assert.Equal(t, 0.05, ClampDelta(0.05, MaxDelta))
	assert.Equal(t, MaxDelta, ClampDelta(3, MaxDelta))
	assert.Equal(t, 3.0, ClampDelta(3, 0))
}

func TestRotationEndToEnd(t *testing.T) {
	c := newConductor(t, Options{})
	require.NoError(t, c.Play("Cube Rotation"))
	for i := 0; i < 20; i++ {
		c.Step(0.05)
	}
	a := c.Sched.Current()
	require.NotNil(t, a)
	assert.InDelta(t, 1.0, a.Elapsed(), 1e-9)
	assert.Greater(t, litCells(c.Matrix.Snapshot()), 0)
}

func TestStepClampsStalls(t *testing.T) {
	c := newConductor(t, Options{})
	require.NoError(t, c.Play("Wave"))
	c.Step(5)
	assert.InDelta(t, MaxDelta, c.Sched.Current().Elapsed(), 1e-12)
}

func TestMirrorSeesEveryFrame(t *testing.T) {
	mirror := &countingMirror{err: errors.New("strip unplugged")}
	c := newConductor(t, Options{Mirror: mirror})
	for i := 0; i < 3; i++ {
		c.Step(0.016)
	}
	assert.Equal(t, 3, mirror.shown)
	assert.Equal(t, uint64(3), c.Status().Produced)
}

func TestTestRunnerOverridesFrames(t *testing.T) {
	c := newConductor(t, Options{})
	require.NoError(t, c.Play("Wave"))
	require.Error(t, c.RunTest("strobe"))
	require.NoError(t, c.RunTest("plane_z"))
	assert.Equal(t, "plane_z", c.Status().Test)

	for z := 0; z < cube.Depth; z++ {
		c.Step(0.016)
		assert.Equal(t, cube.LayerCells, litCells(c.Matrix.Snapshot()), "step %d", z)
	}
	c.Step(0.016) // plan exhausted: frame handed back to the animation on the next tick
	assert.Empty(t, c.Status().Test)
	c.Step(0.016)
	assert.Greater(t, litCells(c.Matrix.Snapshot()), cube.LayerCells)
}

func TestPlaylistDrivesScheduler(t *testing.T) {
	c := newConductor(t, Options{})
	assert.Error(t, c.StartPlaylist())

	require.NoError(t, c.LoadPlaylist(sequence.Program{Loop: true, Clips: []sequence.Clip{
		{Animation: "Wave", DurationS: 0.2},
		{Animation: "Rain", DurationS: 0.2, Brightness: sequence.Envelope{{T: 0, V: 0.5}}},
	}}))
	require.NoError(t, c.StartPlaylist())
	assert.Equal(t, "Wave", c.Status().Animation)

	c.Step(0.1)
	c.Step(0.1)
	st := c.Status()
	assert.Equal(t, "Rain", st.Animation)
	assert.Equal(t, 1, st.Clip)
	assert.Equal(t, 0.5, st.Brightness)

	c.Stop()
	st = c.Status()
	assert.Empty(t, st.Animation)
	assert.Equal(t, string(sequence.Idle), st.Playlist)
}

func TestControlSurface(t *testing.T) {
	c := newConductor(t, Options{})
	require.ErrorIs(t, c.Play("nope"), sequence.ErrNotFound)
	require.NoError(t, c.Play("Rain"))
	assert.True(t, c.Orient(0, 90))
	c.Pause()
	assert.True(t, c.Status().Paused)
	c.Resume()
	c.SetBrightness(3)
	c.SetRefreshRate(120)
	c.SetSpeed(2)
	st := c.Status()
	assert.Equal(t, 1.0, st.Brightness)
	assert.Equal(t, 120, st.RefreshHz)
	assert.Equal(t, 2.0, c.Sched.Current().Speed())
	require.NoError(t, c.Play("Wave"))
	assert.False(t, c.Orient(0, 90))
}

func TestRunReturnsOnCancel(t *testing.T) {
	c := newConductor(t, Options{})
	require.NoError(t, c.Play("Test Pattern"))
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()
	require.NoError(t, c.Run(ctx, 200))
	assert.Greater(t, c.Status().Produced, uint64(0))
}

func TestSampleReflectsMatrix(t *testing.T) {
	c := newConductor(t, Options{})
	s := c.Sample()
	assert.False(t, s.Initialized)
	require.NoError(t, c.Matrix.Initialize())
	s = c.Sample()
	assert.True(t, s.Initialized)
	assert.Equal(t, led.DefaultRefreshHz, s.RefreshHz)
}
