package effect

import (
	"context"
	"time"

	"libdb.so/blinkyvu/shiftreg"
)

// MeterStyle selects how a smoothed volume is drawn.
type MeterStyle uint8

const (
	// MeterPlain fills LEDs from LED 0 up to the volume level.
	MeterPlain MeterStyle = iota
	// MeterVU clears LEDs from LED 0 up to the volume level.
	MeterVU
	// MeterInverse is the complement of MeterPlain.
	MeterInverse
	// MeterCenterOut grows a symmetric band outward from LEDs 3 and 4.
	MeterCenterOut
)

// Meter draws the smoothed volume. Each step takes one sample and pushes it
// through the stage filter.
type Meter struct {
	Style MeterStyle
}

// Play implements Effect.
func (m Meter) Play(ctx context.Context, s *Stage) error {
	v, err := s.Volume.Sample()
	if err != nil {
		return err
	}
	return s.Bar.Render(MeterPattern(m.Style, s.Filter.Update(v)))
}

// MeterPattern returns the pattern for a smoothed average.
func MeterPattern(style MeterStyle, avg uint8) shiftreg.Pattern {
	level := uint(avg >> 3)

	switch style {
	case MeterVU:
		// Shifts of 8 or more clear the byte.
		return shiftreg.Pattern(uint8(0xFF) << level)
	case MeterInverse:
		return ^plainMeter(level)
	case MeterCenterOut:
		return centerOut(uint(avg>>4) + 1)
	default:
		return plainMeter(level)
	}
}

func plainMeter(level uint) shiftreg.Pattern {
	if level >= 8 {
		return shiftreg.Full
	}
	return shiftreg.Pattern(uint8(0xFF) >> (8 - level))
}

// centerOut lights pairs of LEDs around the 3/4 boundary. The first two
// pairs both land on LEDs 3 and 4, so five pairs cover the whole bar and
// larger counts stay full.
func centerOut(pairs uint) shiftreg.Pattern {
	if pairs > 5 {
		pairs = 5
	}

	var p shiftreg.Pattern
	for i := uint(0); i < pairs; i++ {
		p |= 1<<(4-i) | 1<<(3+i)
	}
	return p
}

// Spectrum quantizes the instantaneous volume into eight bands.
type Spectrum struct{}

// Play implements Effect.
func (Spectrum) Play(ctx context.Context, s *Stage) error {
	v, err := s.Volume.Sample()
	if err != nil {
		return err
	}
	return s.Bar.Render(SpectrumPattern(v))
}

// SpectrumPattern fills one LED per 32 steps of volume, always at least one.
func SpectrumPattern(v uint8) shiftreg.Pattern {
	n := uint(v)/32 + 1
	return shiftreg.Pattern(uint16(1)<<n - 1)
}

// Waveform lights LEDs by how much the volume moved since the previous step.
type Waveform struct {
	last uint8
}

// Play implements Effect.
func (w *Waveform) Play(ctx context.Context, s *Stage) error {
	v, err := s.Volume.Sample()
	if err != nil {
		return err
	}

	p := WaveformPattern(v, w.last)
	w.last = v

	return s.show(ctx, p, 50*time.Millisecond)
}

// WaveformPattern lights one LED per 32 steps of change between two
// readings, capped at eight.
func WaveformPattern(v, last uint8) shiftreg.Pattern {
	diff := int(v) - int(last)
	if diff < 0 {
		diff = -diff
	}

	n := uint(diff / 32)
	if n > 8 {
		n = 8
	}
	return shiftreg.Pattern(uint16(1)<<n - 1)
}
