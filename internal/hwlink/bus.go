package hwlink

import (
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/spi"
)

// Bus is the set of opened resources a Controller drives. Unwired pins are
// nil.
type Bus struct {
	Pins  [NumPins]gpio.PinIO
	SPI   spi.Conn
	Close func() error
	// Sleep implements Link.Delay. Nil means time.Sleep.
	Sleep func(d time.Duration)
}

// Opener produces a Bus. It runs on every Acquire after a Release.
type Opener func() (*Bus, error)
