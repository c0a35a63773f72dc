// Package audioadc captures audio with catnip and exposes its peak amplitude
// as if it were a 10-bit analog volume input.
package audioadc

import (
	"context"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"

	"github.com/noriah/catnip/input"
	_ "github.com/noriah/catnip/input/all"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// Bits is the width of the readings returned by Convert.
const Bits = 10

// Config is the capture configuration.
type Config struct {
	Backend    string
	Device     string
	SampleRate float64
	SampleSize int
}

// ADC holds the peak of the most recently captured buffer.
type ADC struct {
	logger  *slog.Logger
	backend input.Backend
	session input.Session

	mu      sync.Mutex
	buffers [][]float64
	reading atomic.Uint32
}

// Open initializes the capture backend and device. Capture starts with Run.
func Open(cfg Config, logger *slog.Logger) (*ADC, error) {
	backend, err := input.InitBackend(cfg.Backend)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to initialize audio backend %q", cfg.Backend)
	}

	device, err := input.GetDevice(backend, cfg.Device)
	if err != nil {
		backend.Close()
		return nil, errors.Wrap(err, "failed to find audio device")
	}

	session, err := backend.Start(input.SessionConfig{
		Device:     device,
		FrameSize:  1,
		SampleSize: cfg.SampleSize,
		SampleRate: cfg.SampleRate,
	})
	if err != nil {
		backend.Close()
		return nil, errors.Wrap(err, "failed to start audio session")
	}

	logger.Info(
		"capturing audio for volume",
		"backend", cfg.Backend,
		"device", device.String())

	return &ADC{
		logger:  logger,
		backend: backend,
		session: session,
		buffers: [][]float64{make([]float64, cfg.SampleSize)},
	}, nil
}

// Run captures audio until ctx is done.
func (a *ADC) Run(ctx context.Context) error {
	kick := make(chan bool, 1)

	errg, ctx := errgroup.WithContext(ctx)
	errg.Go(func() error {
		if err := a.session.Start(ctx, a.buffers, kick, &a.mu); err != nil && ctx.Err() == nil {
			return errors.Wrap(err, "audio capture failed")
		}
		return ctx.Err()
	})
	errg.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-kick:
				a.mu.Lock()
				peak := Peak(a.buffers)
				a.mu.Unlock()
				a.reading.Store(uint32(Scale(peak)))
			}
		}
	})

	return errg.Wait()
}

// Convert implements volume.ADC. It returns the peak of the last captured
// buffer without waiting for a new one.
func (a *ADC) Convert() (uint16, error) {
	return uint16(a.reading.Load()), nil
}

// Close releases the capture backend.
func (a *ADC) Close() error {
	return a.backend.Close()
}

// Peak returns the largest absolute sample across all channels.
func Peak(buffers [][]float64) float64 {
	var peak float64
	for _, buf := range buffers {
		for _, v := range buf {
			if v = math.Abs(v); v > peak {
				peak = v
			}
		}
	}
	return peak
}

// Scale maps a peak in [0, 1] to a Bits-wide reading, clipping louder peaks.
func Scale(peak float64) uint16 {
	const full = 1<<Bits - 1

	switch {
	case math.IsNaN(peak) || peak <= 0:
		return 0
	case peak >= 1:
		return full
	default:
		return uint16(peak * full)
	}
}
