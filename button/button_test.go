package button

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"libdb.so/blinkyvu/clock"
	"libdb.so/blinkyvu/mode"
	"periph.io/x/conn/v3/gpio"
)

// fakePin is a button line whose level tests move by hand.
type fakePin struct {
	mu    sync.Mutex
	level gpio.Level
}

func (p *fakePin) Read() gpio.Level {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.level
}

func (p *fakePin) set(l gpio.Level) {
	p.mu.Lock()
	p.level = l
	p.mu.Unlock()
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNotifyConfirmedPress(t *testing.T) {
	pin := &fakePin{level: gpio.Low}
	clk := &clock.Fake{}
	var modes mode.Cycle
	h := NewHandler(pin, &modes, clk, discardLogger())

	pressed, err := h.Notify(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !pressed || modes.Load() != mode.VU {
		t.Fatalf("pressed=%v mode=%s", pressed, modes.Load())
	}
	if got := clk.Slept(); len(got) != 1 || got[0] != DebounceWindow {
		t.Fatalf("debounce sleeps = %v", got)
	}
}

func TestNotifyIgnoresReleasedLine(t *testing.T) {
	pin := &fakePin{level: gpio.High}
	clk := &clock.Fake{}
	var modes mode.Cycle
	h := NewHandler(pin, &modes, clk, discardLogger())

	pressed, _ := h.Notify(context.Background())
	if pressed || modes.Load() != mode.Off {
		t.Fatal("an edge on a released line must not advance the mode")
	}
	if len(clk.Slept()) != 0 {
		t.Fatal("no debounce wait expected for a released line")
	}
}

func TestNotifyRejectsShortGlitch(t *testing.T) {
	pin := &fakePin{level: gpio.Low}
	clk := &clock.Fake{OnSleep: func(time.Duration) { pin.set(gpio.High) }}
	var modes mode.Cycle
	h := NewHandler(pin, &modes, clk, discardLogger())

	pressed, _ := h.Notify(context.Background())
	if pressed || modes.Load() != mode.Off {
		t.Fatal("a line released within the debounce window must not count")
	}
}

func TestEdgesNeverBlock(t *testing.T) {
	edges := NewEdges()
	for i := 0; i < 10; i++ {
		edges.Notify()
	}
	if len(edges) != 1 {
		t.Fatalf("expected one pending notification, got %d", len(edges))
	}
}

func TestRunCountsOnePerPressDespiteBounce(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pin := &fakePin{level: gpio.High}
	edges := NewEdges()

	clk := &clock.Fake{OnSleep: func(time.Duration) {
		// Contact bounce during the debounce window.
		for i := 0; i < 5; i++ {
			edges.Notify()
		}
	}}

	var modes mode.Cycle
	h := NewHandler(pin, &modes, clk, discardLogger())

	done := make(chan error, 1)
	go func() { done <- h.Run(ctx, edges) }()

	const presses = 2*mode.Total + 3
	for k := 1; k <= presses; k++ {
		want := mode.Mode(k % mode.Total)

		pin.set(gpio.Low)
		edges.Notify()
		eventually(t, func() bool { return modes.Load() == want && len(edges) == 0 })

		pin.set(gpio.High)
		edges.Notify() // release edge
		eventually(t, func() bool { return len(edges) == 0 })
		time.Sleep(2 * time.Millisecond)

		if got := modes.Load(); got != want {
			t.Fatalf("after %d presses: mode = %s, want %s", k, got, want)
		}
	}

	if n := len(clk.Slept()); n != presses {
		t.Fatalf("debounced %d times for %d presses", n, presses)
	}

	cancel()
	if err := <-done; err != context.Canceled {
		t.Fatalf("Run returned %v", err)
	}
}

func eventually(t *testing.T, cond func() bool) {
	t.Helper()

	deadline := time.After(time.Second)
	for !cond() {
		select {
		case <-deadline:
			t.Fatal("condition not met within 1s")
		default:
			time.Sleep(time.Millisecond)
		}
	}
}
