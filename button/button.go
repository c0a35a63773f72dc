// Package button advances the LED bar mode on debounced presses of an
// active-low push-button.
package button

import (
	"context"
	"log/slog"
	"time"

	"libdb.so/blinkyvu/clock"
	"libdb.so/blinkyvu/mode"
	"periph.io/x/conn/v3/gpio"
)

// DebounceWindow is how long the line must stay asserted for a press to
// count.
const DebounceWindow = 50 * time.Millisecond

// Pin reads the raw button level. gpio.PinIn implementations satisfy it.
// The button pulls the line low when pressed.
type Pin interface {
	Read() gpio.Level
}

// Edges is a latched edge notification source. Producers send with
// Notify so that at most one notification is ever pending, the same way a
// pin-change interrupt flag behaves.
type Edges chan struct{}

// NewEdges creates an edge source.
func NewEdges() Edges {
	return make(Edges, 1)
}

// Notify marks an edge as pending. It never blocks, so it is safe to call
// from an interrupt or event callback.
func (e Edges) Notify() {
	select {
	case e <- struct{}{}:
	default:
	}
}

// drain clears a pending notification.
func (e Edges) drain() {
	select {
	case <-e:
	default:
	}
}

// Handler is the only writer of the mode cycle.
type Handler struct {
	pin    Pin
	modes  *mode.Cycle
	clock  clock.Clock
	logger *slog.Logger
}

// NewHandler creates a handler advancing modes on presses read from pin.
func NewHandler(pin Pin, modes *mode.Cycle, clk clock.Clock, logger *slog.Logger) *Handler {
	return &Handler{
		pin:    pin,
		modes:  modes,
		clock:  clk,
		logger: logger,
	}
}

// Run handles edge notifications one at a time until ctx is done.
func (h *Handler) Run(ctx context.Context, edges Edges) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-edges:
			pressed, err := h.notify(ctx, edges)
			if err != nil {
				return err
			}
			if pressed {
				h.logger.Debug("button press confirmed", "mode", h.modes.Load())
			}
		}
	}
}

// Notify handles a single edge notification with no notification source to
// drain. It reports whether the press was confirmed.
func (h *Handler) Notify(ctx context.Context) (bool, error) {
	return h.notify(ctx, nil)
}

// notify checks for an asserted line, waits out the debounce window and
// checks again. Bounce edges that latched during the wait belong to this
// press and are dropped.
func (h *Handler) notify(ctx context.Context, edges Edges) (bool, error) {
	if h.pin.Read() != gpio.Low {
		return false, nil
	}

	if err := h.clock.Sleep(ctx, DebounceWindow); err != nil {
		return false, err
	}

	if edges != nil {
		edges.drain()
	}

	if h.pin.Read() != gpio.Low {
		return false, nil
	}

	h.modes.Advance()
	return true, nil
}
