// Package volume turns raw analog readings into the 8-bit intensity that the
// audio-reactive effects consume, and smooths it with a fixed moving average.
package volume

import "github.com/pkg/errors"

// ADC performs one analog conversion. Convert blocks until the reading is
// available; implementations bound the wait themselves.
type ADC interface {
	Convert() (uint16, error)
}

// Sampler normalizes readings of a fixed native resolution to 8 bits.
type Sampler struct {
	adc  ADC
	bits uint
}

// NewSampler creates a sampler for an ADC producing bits-wide readings.
// A 10-bit ADC is the usual case.
func NewSampler(adc ADC, bits uint) *Sampler {
	return &Sampler{adc: adc, bits: bits}
}

// Sample triggers one conversion and returns its top 8 bits.
func (s *Sampler) Sample() (uint8, error) {
	raw, err := s.adc.Convert()
	if err != nil {
		return 0, errors.Wrap(err, "failed to sample volume")
	}
	return Normalize(raw, s.bits), nil
}

// Normalize scales a bits-wide reading to 8 bits by dropping (or padding)
// least-significant bits.
func Normalize(raw uint16, bits uint) uint8 {
	switch {
	case bits > 8:
		return uint8(raw >> (bits - 8))
	case bits < 8:
		return uint8(raw << (8 - bits))
	default:
		return uint8(raw)
	}
}
