// Package strip mirrors one row of the cube onto a 64-pixel addressable LED
// strip, or onto the terminal when no strip is attached.
package strip

import (
	"fmt"
	"image"
	"image/color"

	"github.com/rs/zerolog/log"
	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/nrzled"
	"periph.io/x/devices/v3/screen1d"

	"github.com/coreman2200/layercube/internal/cube"
)

// DefaultFreq is the nrz bit rate for WS2812-class strips.
const DefaultFreq = 2500 * physic.KiloHertz

type Opts struct {
	// Port, when set, is used instead of opening Dev.
	Port spi.PortCloser
	// Dev is the spireg port name. Empty with no Port selects the terminal.
	Dev  string
	Freq physic.Frequency

	Layer int
	Row   int
}

type Strip struct {
	d     display.Drawer
	port  spi.PortCloser
	img   *image.NRGBA
	layer int
	row   int
}

func New(o Opts) (*Strip, error) {
	s := &Strip{
		img:   image.NewNRGBA(image.Rect(0, 0, cube.Size, 1)),
		layer: clamp(o.Layer, cube.Depth),
		row:   clamp(o.Row, cube.Size),
	}
	port := o.Port
	if port == nil && o.Dev != "" {
		p, err := spireg.Open(o.Dev)
		if err != nil {
			return nil, fmt.Errorf("strip: open %q: %w", o.Dev, err)
		}
		port = p
	}
	if port == nil {
		log.Info().Str("component", "strip").Msg("no strip port, mirroring to terminal")
		s.d = screen1d.New(&screen1d.Opts{X: cube.Size})
		return s, nil
	}

	freq := o.Freq
	if freq <= 0 {
		freq = DefaultFreq
	}
	d, err := nrzled.NewSPI(port, &nrzled.Opts{NumPixels: cube.Size, Channels: 3, Freq: freq})
	if err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("strip: nrzled: %w", err)
	}
	s.d = d
	s.port = port
	return s, nil
}

// NewWithDrawer mirrors onto an already opened drawer.
func NewWithDrawer(d display.Drawer, layer, row int) *Strip {
	return &Strip{
		d:     d,
		img:   image.NewNRGBA(image.Rect(0, 0, cube.Size, 1)),
		layer: clamp(layer, cube.Depth),
		row:   clamp(row, cube.Size),
	}
}

func clamp(v, n int) int {
	if v < 0 {
		return 0
	}
	if v >= n {
		return n - 1
	}
	return v
}

// Show draws the configured row of v.
func (s *Strip) Show(v *cube.Volume) error {
	for x := 0; x < cube.Size; x++ {
		c := v.Get(cube.Coord{X: x, Y: s.row, Z: s.layer})
		s.img.SetNRGBA(x, 0, color.NRGBA{R: c.R, G: c.G, B: c.B, A: 255})
	}
	return s.d.Draw(s.d.Bounds(), s.img, image.Point{})
}

// Pixels is the last row handed to the drawer.
func (s *Strip) Pixels() []cube.Color {
	out := make([]cube.Color, cube.Size)
	for x := range out {
		c := s.img.NRGBAAt(x, 0)
		out[x] = cube.Color{R: c.R, G: c.G, B: c.B}
	}
	return out
}

func (s *Strip) String() string { return s.d.String() }

// Close blanks the drawer and releases the port.
func (s *Strip) Close() error {
	err := s.d.Halt()
	if s.port != nil {
		if cerr := s.port.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
