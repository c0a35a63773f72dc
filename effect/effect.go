// Package effect implements the LED bar effects. Every effect renders one
// step per call to Play, with its own frame delays, and keeps whatever phase
// it needs between calls.
package effect

import (
	"context"
	"math/rand"
	"time"

	"libdb.so/blinkyvu/clock"
	"libdb.so/blinkyvu/mode"
	"libdb.so/blinkyvu/shiftreg"
	"libdb.so/blinkyvu/volume"
)

// Bar is where effects draw. *shiftreg.Driver implements it.
type Bar interface {
	Render(p shiftreg.Pattern) error
}

// Sampler reads the instantaneous volume. *volume.Sampler implements it.
type Sampler interface {
	Sample() (uint8, error)
}

// Rand is the pseudo-random source shared by the random effects.
// *rand.Rand implements it.
type Rand interface {
	// Intn returns a uniform value in [0, n).
	Intn(n int) int
}

// DefaultSeed seeds the random source when none is given. The sequence is
// the same on every start.
const DefaultSeed = 1

// Stage is everything an effect may touch.
type Stage struct {
	Bar    Bar
	Volume Sampler
	Filter *volume.Filter
	Rand   Rand
	Clock  clock.Clock
}

// NewStage creates a stage drawing on bar and sampling from sampler, with a
// fresh filter, the default random sequence and the real clock.
func NewStage(bar Bar, sampler Sampler) *Stage {
	return &Stage{
		Bar:    bar,
		Volume: sampler,
		Filter: new(volume.Filter),
		Rand:   rand.New(rand.NewSource(DefaultSeed)),
		Clock:  clock.Real{},
	}
}

// show renders p and then holds it for d.
func (s *Stage) show(ctx context.Context, p shiftreg.Pattern, d time.Duration) error {
	if err := s.Bar.Render(p); err != nil {
		return err
	}
	return s.Clock.Sleep(ctx, d)
}

// Effect is one selectable LED bar effect.
type Effect interface {
	// Play renders one step of the effect. Multi-frame effects block until
	// their whole sequence is shown; only ctx cancellation stops them early.
	Play(ctx context.Context, s *Stage) error
}

// Off blanks the bar.
type Off struct{}

// Play implements Effect.
func (Off) Play(ctx context.Context, s *Stage) error {
	return s.Bar.Render(shiftreg.Blank)
}

// Table maps modes to effect instances. Effects keep their phase for the
// lifetime of the table, so switching away and back resumes where they were.
type Table struct {
	effects  map[mode.Mode]Effect
	fallback Effect
}

// NewTable creates a table with fresh effect instances for every mode.
func NewTable() *Table {
	return &Table{
		effects: map[mode.Mode]Effect{
			mode.Off:         Off{},
			mode.VU:          Meter{Style: MeterVU},
			mode.KnightRider: NewKnightRider(),
			mode.Inverse:     Meter{Style: MeterInverse},
			mode.CenterOut:   Meter{Style: MeterCenterOut},
			mode.PingPong:    NewPingPong(),
			mode.Raindrop:    Raindrop{},
			mode.Spectrum:    Spectrum{},
			mode.Waveform:    new(Waveform),
			mode.Heartbeat:   Heartbeat{},
			mode.Fireworks:   Fireworks{},
			mode.Strobe:      Strobe{},
			mode.Sparkle:     Sparkle{Hold: 100 * time.Millisecond},
			mode.Flash:       Sparkle{Hold: 5 * time.Millisecond},
		},
		fallback: Meter{Style: MeterPlain},
	}
}

// Lookup returns the effect for m. Modes without an entry get the plain
// volume meter.
func (t *Table) Lookup(m mode.Mode) Effect {
	if e, ok := t.effects[m]; ok {
		return e
	}
	return t.fallback
}
