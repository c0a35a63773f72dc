// Package clock provides the sleeping primitive used by every timed part of
// the LED bar: effect frame delays, the main loop delay and the button
// debounce window.
package clock

import (
	"context"
	"sync"
	"time"
)

// Clock sleeps. Sleep returns early with the context error if ctx is done
// before d elapses.
type Clock interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// Real is a Clock backed by the runtime timer.
type Real struct{}

var _ Clock = Real{}

// Sleep implements Clock.
func (Real) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Fake is a Clock that never blocks. It records every requested duration and
// optionally calls OnSleep before returning, which lets tests inject events
// "during" a delay.
type Fake struct {
	// OnSleep, if not nil, is called with each requested duration.
	OnSleep func(d time.Duration)

	mu    sync.Mutex
	slept []time.Duration
}

var _ Clock = (*Fake)(nil)

// Sleep implements Clock.
func (f *Fake) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	f.mu.Lock()
	f.slept = append(f.slept, d)
	f.mu.Unlock()

	if f.OnSleep != nil {
		f.OnSleep(d)
	}
	return nil
}

// Slept returns a copy of the durations slept so far.
func (f *Fake) Slept() []time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]time.Duration(nil), f.slept...)
}

// Total returns the sum of all durations slept so far.
func (f *Fake) Total() time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()

	var total time.Duration
	for _, d := range f.slept {
		total += d
	}
	return total
}

// Reset forgets the recorded durations.
func (f *Fake) Reset() {
	f.mu.Lock()
	f.slept = nil
	f.mu.Unlock()
}
