package hwlink

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"periph.io/x/conn/v3/gpio"
)

// Controller implements Link over a Bus produced by an Opener.
type Controller struct {
	open Opener

	mu    sync.Mutex
	bus   *Bus
	modes [NumPins]Mode

	log zerolog.Logger
}

var _ Link = (*Controller)(nil)

func NewController(open Opener) *Controller {
	return &Controller{
		open: open,
		log:  log.With().Str("component", "hwlink").Logger(),
	}
}

// Acquire opens the bus and parks every control line as a low output.
// Calling it again while acquired does nothing.
func (c *Controller) Acquire() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.bus != nil {
		return nil
	}
	b, err := c.open()
	if err != nil {
		return fmt.Errorf("hwlink: open bus: %w", err)
	}
	c.bus = b
	for i := range c.modes {
		c.modes[i] = Input
	}
	for _, p := range ControlPins {
		c.setModeLocked(p, Output)
	}
	c.log.Info().Int("pins", len(ControlPins)).Msg("acquired")
	return nil
}

// Release drives every wired pin low and closes the bus.
func (c *Controller) Release() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.bus == nil {
		return nil
	}
	for _, p := range c.bus.Pins {
		if p != nil {
			_ = p.Out(gpio.Low)
		}
	}
	var err error
	if c.bus.Close != nil {
		err = c.bus.Close()
	}
	c.bus = nil
	c.log.Info().Msg("released")
	if err != nil {
		return fmt.Errorf("hwlink: close bus: %w", err)
	}
	return nil
}

func (c *Controller) Acquired() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bus != nil
}

// pinLocked returns the wired pin for id, or nil.
func (c *Controller) pinLocked(id int) gpio.PinIO {
	if c.bus == nil || id < 0 || id >= NumPins {
		return nil
	}
	return c.bus.Pins[id]
}

func (c *Controller) SetPin(pin int, high bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if p := c.pinLocked(pin); p != nil {
		if err := p.Out(gpio.Level(high)); err != nil {
			c.log.Warn().Err(err).Int("pin", pin).Msg("set pin")
		}
	}
}

func (c *Controller) Pin(pin int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if p := c.pinLocked(pin); p != nil {
		return p.Read() == gpio.High
	}
	return false
}

func (c *Controller) SetPinMode(pin int, m Mode) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setModeLocked(pin, m)
}

func (c *Controller) setModeLocked(pin int, m Mode) {
	p := c.pinLocked(pin)
	if p == nil {
		return
	}
	var err error
	if m == Output {
		err = p.Out(gpio.Low)
	} else {
		err = p.In(gpio.PullNoChange, gpio.NoEdge)
	}
	if err != nil {
		c.log.Warn().Err(err).Int("pin", pin).Stringer("mode", m).Msg("set mode")
		return
	}
	c.modes[pin] = m
}

func (c *Controller) PinMode(pin int) Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	if pin < 0 || pin >= NumPins {
		return Input
	}
	return c.modes[pin]
}

func (c *Controller) SelectLayer(layer int) {
	for bit, p := range addrPins {
		c.SetPin(p, layer&(1<<bit) != 0)
	}
}

func (c *Controller) EnableOutput(on bool) {
	c.SetPin(PinOE, !on)
}

func (c *Controller) Latch() {
	c.SetPin(PinLatch, true)
	c.Delay(LatchHold)
	c.SetPin(PinLatch, false)
}

func (c *Controller) ResetLine() {
	c.SetPin(PinReset, true)
	c.Delay(ResetHold)
	c.SetPin(PinReset, false)
}

// Transfer shifts data out on the serial bus.
func (c *Controller) Transfer(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.bus == nil {
		return ErrNotAcquired
	}
	if c.bus.SPI == nil || len(data) == 0 {
		return nil
	}
	if err := c.bus.SPI.Tx(data, nil); err != nil {
		return fmt.Errorf("hwlink: transfer %d bytes: %w", len(data), err)
	}
	return nil
}

func (c *Controller) Delay(d time.Duration) {
	if d <= 0 {
		return
	}
	c.mu.Lock()
	var sleep func(time.Duration)
	if c.bus != nil {
		sleep = c.bus.Sleep
	}
	c.mu.Unlock()
	if sleep == nil {
		sleep = time.Sleep
	}
	sleep(d)
}
