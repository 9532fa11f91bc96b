package sequence

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	played     []string
	speeds     []float64
	brightness []float64
}

func (r *recorder) hooks() Hooks {
	return Hooks{
		Play: func(name string) error {
			r.played = append(r.played, name)
			if name == "missing" {
				return errors.New("nope")
			}
			return nil
		},
		SetSpeed:      func(v float64) { r.speeds = append(r.speeds, v) },
		SetBrightness: func(v float64) { r.brightness = append(r.brightness, v) },
	}
}

func TestEnvelopeEval(t *testing.T) {
	env := Envelope{{T: 0, V: 0}, {T: 10, V: 10}}
	assert.Equal(t, 0.0, env.Eval(-1))
	assert.Equal(t, 0.0, env.Eval(0))
	assert.Equal(t, 5.0, env.Eval(5))
	assert.Equal(t, 10.0, env.Eval(10))
	assert.Equal(t, 10.0, env.Eval(11))

	assert.Equal(t, 0.0, Envelope(nil).Eval(3))
	assert.Equal(t, 0.4, Envelope{{T: 2, V: 0.4}}.Eval(9))
}

func TestEnvelopeEasing(t *testing.T) {
	smooth := Envelope{{T: 0, V: 0, Ease: "smooth"}, {T: 1, V: 1}}
	cubic := Envelope{{T: 0, V: 0, Ease: "cubic"}, {T: 1, V: 1}}
	assert.InDelta(t, 0.5, smooth.Eval(0.5), 1e-12)
	assert.InDelta(t, 0.5, cubic.Eval(0.5), 1e-12)
	assert.Less(t, smooth.Eval(0.1), 0.1)
	assert.Less(t, cubic.Eval(0.1), smooth.Eval(0.1))
}

func TestEnvelopeSorted(t *testing.T) {
	env := Envelope{{T: 4, V: 1}, {T: 0, V: 0}}.Sorted()
	assert.InDelta(t, 0.5, env.Eval(2), 1e-12)
}

func TestPlaylistLoadValidates(t *testing.T) {
	p := NewPlaylist(Hooks{})
	assert.Error(t, p.Load(Program{}))
	assert.Error(t, p.Load(Program{Clips: []Clip{{Animation: "Wave"}}}))
	assert.NoError(t, p.Load(DefaultProgram([]string{"Wave"}, 0)))
	assert.Equal(t, DefaultClipSeconds, p.Program().Clips[0].DurationS)
}

func TestPlaylistCyclesDefaultProgram(t *testing.T) {
	rec := &recorder{}
	p := NewPlaylist(rec.hooks())
	require.NoError(t, p.Load(DefaultProgram([]string{"Rain", "Wave"}, 10)))

	p.Tick(1) // idle: ignored
	assert.Empty(t, rec.played)

	p.Start()
	assert.Equal(t, Running, p.State())
	assert.Equal(t, []string{"Rain"}, rec.played)

	for i := 0; i < 20; i++ {
		p.Tick(0.5)
	}
	idx, _ := p.Position()
	assert.Equal(t, 1, idx)
	assert.Equal(t, []string{"Rain", "Wave"}, rec.played)

	for i := 0; i < 20; i++ {
		p.Tick(0.5)
	}
	assert.Equal(t, []string{"Rain", "Wave", "Rain"}, rec.played)
}

func TestPlaylistFinishesWithoutLoop(t *testing.T) {
	rec := &recorder{}
	p := NewPlaylist(rec.hooks())
	require.NoError(t, p.Load(Program{Clips: []Clip{
		{Animation: "missing", DurationS: 1},
		{Animation: "Wave", DurationS: 1, Speed: 2},
	}}))
	p.Start()
	p.Tick(1.0)
	assert.Equal(t, []string{"missing", "Wave"}, rec.played, "a failing clip does not stall the program")
	assert.Equal(t, []float64{2}, rec.speeds)

	p.Tick(1.0)
	assert.Equal(t, Idle, p.State())
	assert.Len(t, rec.played, 2)
}

func TestPlaylistPauseAndBrightness(t *testing.T) {
	rec := &recorder{}
	p := NewPlaylist(rec.hooks())
	require.NoError(t, p.Load(Program{Loop: true, Clips: []Clip{{
		Animation:  "Wave",
		DurationS:  4,
		Brightness: Envelope{{T: 0, V: 0}, {T: 2, V: 1}},
	}}}))
	p.Start()
	require.Equal(t, []float64{0}, rec.brightness)

	p.Tick(1)
	assert.InDelta(t, 0.5, rec.brightness[len(rec.brightness)-1], 1e-12)

	p.Pause()
	p.Tick(1)
	_, local := p.Position()
	assert.Equal(t, 1.0, local)

	p.Start() // resumes without re-entering the clip
	assert.Equal(t, []string{"Wave"}, rec.played)
	p.Tick(2)
	assert.InDelta(t, 1.0, rec.brightness[len(rec.brightness)-1], 1e-12)

	p.Stop()
	idx, local := p.Position()
	assert.Zero(t, idx)
	assert.Zero(t, local)
}
