// Package shiftreg drives an 8-LED bar through a serial-in, parallel-out
// shift register (74HC595 style) by bit-banging three output lines.
package shiftreg

import (
	"fmt"

	"github.com/pkg/errors"
	"periph.io/x/conn/v3/gpio"
)

// Pattern is one frame of the LED bar. Bit i lights LED i.
type Pattern uint8

// Common patterns.
const (
	Blank Pattern = 0x00
	Full  Pattern = 0xFF
)

// Lit reports whether LED i is on.
func (p Pattern) Lit(i int) bool {
	return p&(1<<uint(i)) != 0
}

// Count returns the number of lit LEDs.
func (p Pattern) Count() int {
	var n int
	for i := 0; i < 8; i++ {
		if p.Lit(i) {
			n++
		}
	}
	return n
}

// String returns the pattern as eight binary digits, LED 7 first.
func (p Pattern) String() string {
	return fmt.Sprintf("%08b", uint8(p))
}

// Line is a single digital output. gpio.PinOut implementations satisfy it.
type Line interface {
	Out(l gpio.Level) error
}

// Driver serializes patterns onto the shift register. The lines must already
// be configured as outputs; the driver never configures them.
type Driver struct {
	data  Line
	clock Line
	latch Line
}

// NewDriver creates a new driver over the given data, clock and latch lines.
func NewDriver(data, clock, latch Line) *Driver {
	return &Driver{
		data:  data,
		clock: clock,
		latch: latch,
	}
}

// Render shifts p out most-significant bit first and latches it onto the
// register outputs. The first line error aborts the frame.
func (d *Driver) Render(p Pattern) error {
	if err := d.latch.Out(gpio.Low); err != nil {
		return errors.Wrap(err, "failed to drop latch")
	}

	for i := 7; i >= 0; i-- {
		if err := d.clock.Out(gpio.Low); err != nil {
			return errors.Wrap(err, "failed to drop clock")
		}
		if err := d.data.Out(gpio.Level(p.Lit(i))); err != nil {
			return errors.Wrapf(err, "failed to set data for bit %d", i)
		}
		if err := d.clock.Out(gpio.High); err != nil {
			return errors.Wrap(err, "failed to raise clock")
		}
	}

	if err := d.latch.Out(gpio.High); err != nil {
		return errors.Wrap(err, "failed to raise latch")
	}

	return nil
}
