package strip

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/spi/spitest"

	"github.com/coreman2200/layercube/internal/cube"
)

func TestShowWritesToSPI(t *testing.T) {
	buf := bytes.Buffer{}
	s, err := New(Opts{Port: spitest.NewRecordRaw(&buf), Layer: 2, Row: 10})
	require.NoError(t, err)
	assert.Equal(t, "nrzled{recordraw}", s.String())

	v := cube.NewVolume()
	v.Set(cube.Coord{X: 3, Y: 10, Z: 2}, cube.Magenta)
	v.Set(cube.Coord{X: 3, Y: 11, Z: 2}, cube.Green)

	before := buf.Len()
	require.NoError(t, s.Show(v))
	assert.Greater(t, buf.Len(), before)

	px := s.Pixels()
	assert.Equal(t, cube.Magenta, px[3])
	assert.Equal(t, cube.Black, px[4])
	require.NoError(t, s.Close())
}

func TestOptionsClamp(t *testing.T) {
	buf := bytes.Buffer{}
	s, err := New(Opts{Port: spitest.NewRecordRaw(&buf), Layer: 99, Row: -5})
	require.NoError(t, err)
	assert.Equal(t, cube.Depth-1, s.layer)
	assert.Equal(t, 0, s.row)
}
