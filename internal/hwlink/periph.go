package hwlink

import (
	"fmt"

	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

type PeriphOpts struct {
	// SPIDev names the port for spireg; empty picks the first one.
	SPIDev string
	SPIHz  physic.Frequency
	// Pins overrides ControlPins.
	Pins []int
}

// Periph opens real GPIO lines and an SPI port through the host drivers.
func Periph(o PeriphOpts) Opener {
	if o.SPIHz <= 0 {
		o.SPIHz = DefaultSPIHz
	}
	if len(o.Pins) == 0 {
		o.Pins = ControlPins
	}
	return func() (*Bus, error) {
		if _, err := host.Init(); err != nil {
			return nil, fmt.Errorf("host init: %w", err)
		}
		b := &Bus{}
		for _, n := range o.Pins {
			if n < 0 || n >= NumPins {
				return nil, fmt.Errorf("pin %d out of range", n)
			}
			p := gpioreg.ByName(fmt.Sprintf("GPIO%d", n))
			if p == nil {
				return nil, fmt.Errorf("GPIO%d not found", n)
			}
			b.Pins[n] = p
		}
		port, err := spireg.Open(o.SPIDev)
		if err != nil {
			return nil, fmt.Errorf("open spi %q: %w", o.SPIDev, err)
		}
		conn, err := port.Connect(o.SPIHz, spi.Mode0, 8)
		if err != nil {
			_ = port.Close()
			return nil, fmt.Errorf("connect spi: %w", err)
		}
		b.SPI = conn
		b.Close = port.Close
		return b, nil
	}
}
