package effect

import (
	"context"
	"time"

	"libdb.so/blinkyvu/shiftreg"
)

// Raindrop blanks the bar, waits, then drops a single LED at random.
type Raindrop struct{}

// Play implements Effect.
func (Raindrop) Play(ctx context.Context, s *Stage) error {
	if err := s.show(ctx, shiftreg.Blank, 100*time.Millisecond); err != nil {
		return err
	}
	return s.Bar.Render(shiftreg.Pattern(1) << uint(s.Rand.Intn(8)))
}

// Sparkle shows a random scatter of LEDs and holds it. Picks may land on the
// same LED, so a frame has at most eight LEDs lit and usually far fewer.
type Sparkle struct {
	Hold time.Duration
}

// Play implements Effect.
func (sp Sparkle) Play(ctx context.Context, s *Stage) error {
	return s.show(ctx, sparklePattern(s.Rand), sp.Hold)
}

func sparklePattern(r Rand) shiftreg.Pattern {
	var p shiftreg.Pattern
	for i := 0; i < 8; i++ {
		if r.Intn(2) == 1 {
			p |= 1 << uint(r.Intn(8))
		}
	}
	return p
}
