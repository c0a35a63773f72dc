// Package board opens the hardware the LED bar runs on: three shift register
// output lines, the mode button with its edge notifications, and a volume
// ADC.
package board

import (
	"context"
	"log/slog"
	"os"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"libdb.so/blinkyvu/button"
	"libdb.so/blinkyvu/internal/audioadc"
	"libdb.so/blinkyvu/shiftreg"
	"libdb.so/blinkyvu/volume"
)

// Board is an opened set of hardware. Data, Clock and Latch are configured as
// outputs; Button is configured as a pulled-up input.
type Board struct {
	Data  shiftreg.Line
	Clock shiftreg.Line
	Latch shiftreg.Line

	Button button.Pin
	Edges  button.Edges

	ADC     volume.ADC
	ADCBits uint

	logger  *slog.Logger
	workers []func(context.Context) error
	closers []func() error
}

// Open opens the configured hardware. The caller must Close the board.
func Open(cfg Config, logger *slog.Logger) (*Board, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid hardware configuration")
	}

	b := &Board{
		Edges:  button.NewEdges(),
		logger: logger,
	}

	var err error
	switch cfg.Backend {
	case GPIOCDevBackend:
		err = b.openGPIOCDev(cfg.GPIOCDev)
	case PeriphBackend:
		err = b.openPeriph(cfg.Periph)
	case BridgeBackend:
		err = b.openBridge(cfg.Bridge)
	case SimBackend:
		b.openSim(os.Stdout, os.Stdin)
	}
	if err != nil {
		b.Close()
		return nil, errors.Wrapf(err, "failed to open %s backend", cfg.Backend)
	}

	switch cfg.Volume.Source {
	case AudioSource:
		err = b.openAudio(cfg.Volume)
	case SyntheticSource:
		b.ADC = newSynthetic(cfg.Volume.Period)
		b.ADCBits = syntheticBits
	case BridgeSource:
		// The bridge backend already installed its ADC.
	}
	if err != nil {
		b.Close()
		return nil, errors.Wrapf(err, "failed to open %s volume source", cfg.Volume.Source)
	}

	logger.Debug(
		"opened board",
		"backend", cfg.Backend,
		"volume", cfg.Volume.Source)

	return b, nil
}

func (b *Board) openAudio(cfg VolumeConfig) error {
	adc, err := audioadc.Open(audioadc.Config{
		Backend:    cfg.Backend,
		Device:     cfg.Device,
		SampleRate: cfg.SampleRate,
		SampleSize: cfg.SampleSize,
	}, b.logger)
	if err != nil {
		return err
	}

	b.ADC = adc
	b.ADCBits = audioadc.Bits
	b.workers = append(b.workers, adc.Run)
	b.closers = append(b.closers, adc.Close)
	return nil
}

// Run runs the background work of the board, such as edge watchers, serial
// readers and audio capture. It blocks until ctx is done or a worker fails.
func (b *Board) Run(ctx context.Context) error {
	errg, ctx := errgroup.WithContext(ctx)
	for _, worker := range b.workers {
		worker := worker
		errg.Go(func() error { return worker(ctx) })
	}
	errg.Go(func() error {
		<-ctx.Done()
		return ctx.Err()
	})
	return errg.Wait()
}

// Close releases all hardware in reverse order of opening.
func (b *Board) Close() error {
	var first error
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	b.closers = nil
	return first
}
