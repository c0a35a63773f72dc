// Package mode holds the selected effect of the LED bar.
package mode

import (
	"fmt"
	"sync/atomic"
)

// Mode identifies an effect.
type Mode uint8

const (
	Off Mode = iota
	VU
	KnightRider
	Inverse
	CenterOut
	PingPong
	Raindrop
	Spectrum
	Waveform
	Heartbeat
	Fireworks
	Strobe
	Sparkle
	// Flash has a renderer but lies outside the button cycle (see Total).
	Flash
)

// Total is the length of the button cycle. Cycling covers Off through
// Sparkle; Flash is never reached by pressing the button.
const Total = 13

var names = [...]string{
	Off:         "off",
	VU:          "vu",
	KnightRider: "knight-rider",
	Inverse:     "inverse",
	CenterOut:   "center-out",
	PingPong:    "ping-pong",
	Raindrop:    "raindrop",
	Spectrum:    "spectrum",
	Waveform:    "waveform",
	Heartbeat:   "heartbeat",
	Fireworks:   "fireworks",
	Strobe:      "strobe",
	Sparkle:     "sparkle",
	Flash:       "flash",
}

// String returns the effect name.
func (m Mode) String() string {
	if int(m) < len(names) {
		return names[m]
	}
	return fmt.Sprintf("Mode(%d)", uint8(m))
}

// Next returns the mode after m in the button cycle.
func (m Mode) Next() Mode {
	return Mode((int(m) + 1) % Total)
}

// Cycle is the shared mode index. It has exactly one writer (the button
// handler) and one reader (the render loop); the reader may observe a change
// one frame late.
type Cycle struct {
	v atomic.Uint32
}

// Load returns the current mode.
func (c *Cycle) Load() Mode {
	return Mode(c.v.Load())
}

// Advance moves to the next mode in the cycle and returns it. It must only
// be called from the single writer.
func (c *Cycle) Advance() Mode {
	next := c.Load().Next()
	c.v.Store(uint32(next))
	return next
}
