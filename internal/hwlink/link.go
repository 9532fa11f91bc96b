// Package hwlink drives the cube's shift-register panels: GPIO control lines
// for addressing, latching and blanking plus a serial bus for pixel rows.
package hwlink

import (
	"errors"
	"time"
)

// Control line numbers on the host header.
const (
	PinLatch  = 8
	PinOE     = 9 // output enable, active low
	PinData   = 10
	PinClock  = 11
	PinAddrA  = 12
	PinAddrB  = 13
	PinAddrC  = 14
	PinAddrD  = 15
	PinReset  = 16
	PinBlank  = 17
	NumPins   = 64
	AddrLines = 4
)

// ControlPins are driven as outputs on Acquire.
var ControlPins = []int{PinData, PinClock, PinLatch, PinOE, PinAddrA, PinAddrB, PinAddrC, PinAddrD, PinReset, PinBlank}

var addrPins = [AddrLines]int{PinAddrA, PinAddrB, PinAddrC, PinAddrD}

// Pulse widths.
const (
	LatchHold = time.Microsecond
	ResetHold = 100 * time.Microsecond
)

type Mode uint8

const (
	Input  Mode = 0
	Output Mode = 1
)

func (m Mode) String() string {
	if m == Output {
		return "output"
	}
	return "input"
}

// ErrNotAcquired is returned by Transfer before Acquire or after Release.
var ErrNotAcquired = errors.New("hwlink: link not acquired")

// Link is the pin-level protocol the display driver scans through. Pin
// operations on an unacquired link or an out-of-range pin do nothing.
type Link interface {
	Acquire() error
	Release() error
	Acquired() bool

	SetPin(pin int, high bool)
	Pin(pin int) bool
	SetPinMode(pin int, m Mode)
	PinMode(pin int) Mode

	// SelectLayer puts layer on the four address lines, A as bit 0.
	SelectLayer(layer int)
	// EnableOutput drives OE low when on.
	EnableOutput(on bool)
	Latch()
	ResetLine()
	Transfer(data []byte) error
	Delay(d time.Duration)
}
