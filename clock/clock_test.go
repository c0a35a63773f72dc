package clock

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRealSleepCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := Real{}.Sleep(ctx, time.Hour)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if time.Since(start) > time.Second {
		t.Fatal("Sleep did not return promptly after cancel")
	}
}

func TestRealSleepElapses(t *testing.T) {
	if err := (Real{}).Sleep(context.Background(), time.Millisecond); err != nil {
		t.Fatalf("Sleep: %v", err)
	}
}

func TestFakeRecords(t *testing.T) {
	var seen []time.Duration
	f := &Fake{OnSleep: func(d time.Duration) { seen = append(seen, d) }}

	ctx := context.Background()
	f.Sleep(ctx, 50*time.Millisecond)
	f.Sleep(ctx, 100*time.Millisecond)

	if got := f.Total(); got != 150*time.Millisecond {
		t.Fatalf("Total = %v, want 150ms", got)
	}
	if len(seen) != 2 || seen[1] != 100*time.Millisecond {
		t.Fatalf("OnSleep saw %v", seen)
	}

	f.Reset()
	if len(f.Slept()) != 0 {
		t.Fatal("Reset did not clear recorded sleeps")
	}
}
