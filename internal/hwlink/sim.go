package hwlink

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spitest"
)

// DefaultSPIHz is the shift clock used when none is configured.
const DefaultSPIHz = 8 * physic.MegaHertz

type SimOpts struct {
	SPIHz physic.Frequency
	// Realtime makes transfers and delays take as long as they would on the
	// wire. Off, everything returns immediately.
	Realtime bool
	// FailOpen, when set, is returned by every open.
	FailOpen error
}

// Sim is an in-memory bus: gpiotest pins that remember their level and an
// spitest recorder that counts what was shifted out.
type Sim struct {
	opts SimOpts
	Pins [NumPins]*gpiotest.Pin

	opens     atomic.Int32
	closes    atomic.Int32
	bytes     atomic.Int64
	transfers atomic.Int64

	mu   sync.Mutex
	last []byte
}

func NewSim(o SimOpts) *Sim {
	if o.SPIHz <= 0 {
		o.SPIHz = DefaultSPIHz
	}
	s := &Sim{opts: o}
	for i := range s.Pins {
		s.Pins[i] = &gpiotest.Pin{N: fmt.Sprintf("GPIO%d", i), Num: i}
	}
	return s
}

// Simulated returns a Controller wired to a fresh Sim.
func Simulated(o SimOpts) (*Controller, *Sim) {
	s := NewSim(o)
	return NewController(s.Open), s
}

// Open implements Opener.
func (s *Sim) Open() (*Bus, error) {
	if s.opts.FailOpen != nil {
		return nil, s.opts.FailOpen
	}
	port := spitest.NewRecordRaw(simWriter{s})
	conn, err := port.Connect(s.opts.SPIHz, spi.Mode0, 8)
	if err != nil {
		return nil, err
	}
	b := &Bus{
		SPI: conn,
		Close: func() error {
			s.closes.Add(1)
			return port.Close()
		},
		Sleep: s.sleep,
	}
	for i, p := range s.Pins {
		b.Pins[i] = p
	}
	s.opens.Add(1)
	return b, nil
}

func (s *Sim) sleep(d time.Duration) {
	if s.opts.Realtime {
		time.Sleep(d)
	}
}

type simWriter struct{ s *Sim }

func (w simWriter) Write(p []byte) (int, error) {
	s := w.s
	s.bytes.Add(int64(len(p)))
	s.transfers.Add(1)
	s.mu.Lock()
	s.last = append(s.last[:0], p...)
	s.mu.Unlock()
	// bits on the wire at the configured clock
	s.sleep(s.opts.SPIHz.Period() * time.Duration(len(p)*8))
	return len(p), nil
}

// Level reports the simulated line level of pin.
func (s *Sim) Level(pin int) bool {
	if pin < 0 || pin >= NumPins {
		return false
	}
	return s.Pins[pin].Read() == gpio.High
}

// Opens and Closes count bus lifecycles.
func (s *Sim) Opens() int  { return int(s.opens.Load()) }
func (s *Sim) Closes() int { return int(s.closes.Load()) }

func (s *Sim) Bytes() int64     { return s.bytes.Load() }
func (s *Sim) Transfers() int64 { return s.transfers.Load() }

// LastTransfer copies the most recent transfer.
func (s *Sim) LastTransfer() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]byte(nil), s.last...)
}
