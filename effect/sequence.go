package effect

import (
	"context"
	"time"

	"libdb.so/blinkyvu/shiftreg"
)

// heartbeatFrames is a double pulse followed by a rest.
var heartbeatFrames = [...]shiftreg.Pattern{
	0x18, 0x3C, 0x7E, 0xFF, 0x7E, 0x3C, 0x18, 0x00,
	0x00,
	0x18, 0x3C, 0x7E, 0xFF, 0x7E, 0x3C, 0x18, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
}

// Heartbeat plays one full double pulse per step.
type Heartbeat struct{}

// Play implements Effect.
func (Heartbeat) Play(ctx context.Context, s *Stage) error {
	for _, p := range heartbeatFrames {
		if err := s.show(ctx, p, 75*time.Millisecond); err != nil {
			return err
		}
	}
	return nil
}

// Fireworks plays one launch, burst and fade per step.
type Fireworks struct{}

// Play implements Effect.
func (Fireworks) Play(ctx context.Context, s *Stage) error {
	for i := uint(0); i < 4; i++ {
		if err := s.show(ctx, shiftreg.Pattern(1)<<i, 150*time.Millisecond); err != nil {
			return err
		}
	}

	if err := s.show(ctx, shiftreg.Full, 300*time.Millisecond); err != nil {
		return err
	}

	for i := uint(0); i < 8; i++ {
		if err := s.show(ctx, shiftreg.Full>>i, 150*time.Millisecond); err != nil {
			return err
		}
	}

	return s.show(ctx, shiftreg.Blank, 500*time.Millisecond)
}

// Strobe flashes the whole bar once per step.
type Strobe struct{}

// Play implements Effect.
func (Strobe) Play(ctx context.Context, s *Stage) error {
	if err := s.show(ctx, shiftreg.Full, 50*time.Millisecond); err != nil {
		return err
	}
	return s.show(ctx, shiftreg.Blank, 50*time.Millisecond)
}
