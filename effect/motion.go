package effect

import (
	"context"
	"time"

	"libdb.so/blinkyvu/shiftreg"
)

const motionStep = 100 * time.Millisecond

// KnightRider sweeps a single LED from LED 0 to LED 7 and back.
type KnightRider struct {
	pos uint8
	dir int8
}

// NewKnightRider returns a sweep starting at LED 0 moving up.
func NewKnightRider() *KnightRider {
	return &KnightRider{pos: 0, dir: 1}
}

// Play implements Effect.
func (k *KnightRider) Play(ctx context.Context, s *Stage) error {
	return s.show(ctx, k.next(), motionStep)
}

// next returns the current frame and advances the sweep. The direction flips
// whenever the new position lands on either end.
func (k *KnightRider) next() shiftreg.Pattern {
	p := shiftreg.Pattern(1) << k.pos
	k.pos = uint8(int8(k.pos) + k.dir)
	if k.pos == 0 || k.pos == 7 {
		k.dir = -k.dir
	}
	return p
}

// PingPong grows a band in from both ends of the bar and shrinks it back,
// between one and four LEDs per side.
type PingPong struct {
	width uint8
	dir   int8
}

// NewPingPong returns a ping-pong at width one. The direction flips at both
// extremes before stepping, so it starts as shrinking to grow first.
func NewPingPong() *PingPong {
	return &PingPong{width: 1, dir: -1}
}

// Play implements Effect.
func (p *PingPong) Play(ctx context.Context, s *Stage) error {
	return s.show(ctx, p.next(), motionStep)
}

func (p *PingPong) next() shiftreg.Pattern {
	var pat shiftreg.Pattern
	for i := uint8(0); i < p.width; i++ {
		pat |= 1<<i | 1<<(7-i)
	}

	if p.width == 4 || p.width == 1 {
		p.dir = -p.dir
	}
	p.width = uint8(int8(p.width) + p.dir)

	return pat
}
