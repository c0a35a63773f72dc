package blinkyvu

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"libdb.so/blinkyvu/button"
	"libdb.so/blinkyvu/clock"
	"libdb.so/blinkyvu/effect"
	"libdb.so/blinkyvu/internal/board"
	"libdb.so/blinkyvu/mode"
	"libdb.so/blinkyvu/shiftreg"
	"libdb.so/blinkyvu/volume"
	"periph.io/x/conn/v3/gpio"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type constADC uint16

func (a constADC) Convert() (uint16, error) { return uint16(a), nil }

type atomicPin struct{ released atomic.Bool }

func (p *atomicPin) Read() gpio.Level { return gpio.Level(p.released.Load()) }

// newTestController builds a controller drawing into a simulated register.
func newTestController(raw uint16) (*Controller, *shiftreg.Register, *clock.Fake) {
	reg := &shiftreg.Register{}
	bar := shiftreg.NewDriver(reg.DataLine(), reg.ClockLine(), reg.LatchLine())

	clk := &clock.Fake{}
	stage := effect.NewStage(bar, volume.NewSampler(constADC(raw), 8))
	stage.Clock = clk

	return NewController(stage, effect.NewTable(), discardLogger()), reg, clk
}

func eventually(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestControllerCyclesThroughModes(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ctrl, reg, _ := newTestController(128)

	pin := &atomicPin{}
	pin.released.Store(true)
	edges := button.NewEdges()

	// Every debounce wait sees a burst of bounce edges.
	btnClock := &clock.Fake{}
	btnClock.OnSleep = func(time.Duration) {
		for i := 0; i < 5; i++ {
			edges.Notify()
		}
	}

	handler := button.NewHandler(pin, ctrl.Modes(), btnClock, discardLogger())
	go handler.Run(ctx, edges)

	m, err := ctrl.Step(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if m != mode.Off || reg.Output() != shiftreg.Blank {
		t.Fatalf("initial step played %s with %s", m, reg.Output())
	}

	for press := 1; press <= int(mode.Total); press++ {
		want := mode.Mode(press % int(mode.Total))

		pin.released.Store(false)
		edges.Notify()
		eventually(t, func() bool { return ctrl.Modes().Load() == want })
		pin.released.Store(true)

		m, err := ctrl.Step(ctx)
		if err != nil {
			t.Fatalf("press %d: %v", press, err)
		}
		if m != want {
			t.Fatalf("press %d played %s, want %s", press, m, want)
		}
		if m == mode.Flash {
			t.Fatal("flash must not be reachable by pressing the button")
		}
	}

	if m := ctrl.Modes().Load(); m != mode.Off {
		t.Fatalf("mode after a full cycle = %s, want off", m)
	}
}

func TestControllerStepWaitsLoopDelay(t *testing.T) {
	ctrl, _, clk := newTestController(0)

	if _, err := ctrl.Step(context.Background()); err != nil {
		t.Fatal(err)
	}

	slept := clk.Slept()
	if len(slept) != 1 || slept[0] != LoopDelay {
		t.Fatalf("Off step slept %v, want only the loop delay", slept)
	}
}

func TestControllerUnmatchedModeFallsBackToMeter(t *testing.T) {
	ctrl, reg, _ := newTestController(255)
	ctx := context.Background()

	// 255/16 smooths to 15, which is level 1.
	if err := ctrl.Play(ctx, mode.Mode(200)); err != nil {
		t.Fatal(err)
	}
	if got := reg.Output(); got != 0x01 {
		t.Fatalf("fallback rendered %s, want 00000001", got)
	}

	// (255+255)/16 smooths to 31, which is level 3.
	if err := ctrl.Play(ctx, mode.Mode(14)); err != nil {
		t.Fatal(err)
	}
	if got := reg.Output(); got != 0x07 {
		t.Fatalf("fallback rendered %s, want 00000111", got)
	}
}

func TestControllerRunBlanksOnExit(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	ctrl, reg, clk := newTestController(0)
	clk.OnSleep = func(time.Duration) {
		if len(clk.Slept()) == 2 {
			cancel()
		}
	}

	// VU at zero volume lights the whole bar.
	ctrl.Modes().Advance()

	if err := ctrl.Run(ctx); err != context.Canceled {
		t.Fatalf("Run returned %v, want context.Canceled", err)
	}
	if reg.Output() != shiftreg.Blank {
		t.Fatalf("bar left at %s after Run", reg.Output())
	}
}

func TestRunOnBoard(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	reg := &shiftreg.Register{}
	pin := &atomicPin{}
	pin.released.Store(true)

	b := &board.Board{
		Data:    reg.DataLine(),
		Clock:   reg.ClockLine(),
		Latch:   reg.LatchLine(),
		Button:  pin,
		Edges:   button.NewEdges(),
		ADC:     constADC(0),
		ADCBits: 8,
	}

	if err := run(ctx, b, discardLogger()); err != context.DeadlineExceeded {
		t.Fatalf("run returned %v", err)
	}
	if reg.Latches() == 0 {
		t.Fatal("nothing was rendered")
	}
}

func TestParseConfig(t *testing.T) {
	const text = `
[hardware]
backend = "bridge"

[hardware.bridge]
device = "/dev/ttyUSB1"
timeout = "250ms"

[hardware.volume]
source = "bridge"
`

	cfg, err := ParseConfig(strings.NewReader(text))
	if err != nil {
		t.Fatal(err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}

	hw := cfg.Hardware
	if hw.Backend != board.BridgeBackend || hw.Volume.Source != board.BridgeSource {
		t.Fatalf("unexpected backend or source: %+v", hw)
	}
	if hw.Bridge.Device != "/dev/ttyUSB1" {
		t.Fatalf("device = %q", hw.Bridge.Device)
	}
	if time.Duration(hw.Bridge.Timeout) != 250*time.Millisecond {
		t.Fatalf("timeout = %v", time.Duration(hw.Bridge.Timeout))
	}
	if hw.Bridge.Baud != 115200 {
		t.Fatalf("baud = %d, want the default", hw.Bridge.Baud)
	}
}

func TestParseConfigEmpty(t *testing.T) {
	cfg, err := ParseConfig(strings.NewReader(""))
	if err != nil {
		t.Fatal(err)
	}
	if *cfg != *DefaultConfig() {
		t.Fatalf("empty config = %+v, want defaults", cfg)
	}
}

func TestNewDaemonRejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Hardware.Backend = "usb"

	if _, err := NewDaemon(cfg, discardLogger()); err == nil {
		t.Fatal("expected an error")
	}
}
