package blinkyvu

import (
	"context"
	"log/slog"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"libdb.so/blinkyvu/button"
	"libdb.so/blinkyvu/effect"
	"libdb.so/blinkyvu/internal/board"
	"libdb.so/blinkyvu/shiftreg"
	"libdb.so/blinkyvu/volume"
)

// Daemon is the main blinkyvu daemon.
type Daemon struct {
	cfg    *Config
	logger *slog.Logger
}

// NewDaemon creates a new blinkyvu daemon.
func NewDaemon(cfg *Config, logger *slog.Logger) (*Daemon, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}

	return &Daemon{
		cfg:    cfg,
		logger: logger,
	}, nil
}

// Run opens the board and runs the LED bar. It blocks until the given context
// is canceled or the hardware fails.
func (d *Daemon) Run(ctx context.Context) error {
	b, err := board.Open(d.cfg.Hardware, d.logger.With("component", "board"))
	if err != nil {
		return err
	}
	defer b.Close()

	return run(ctx, b, d.logger)
}

// run drives the LED bar on an opened board.
func run(ctx context.Context, b *board.Board, logger *slog.Logger) error {
	bar := shiftreg.NewDriver(b.Data, b.Clock, b.Latch)
	stage := effect.NewStage(bar, volume.NewSampler(b.ADC, b.ADCBits))

	ctrl := NewController(stage, effect.NewTable(), logger.With("component", "controller"))
	handler := button.NewHandler(b.Button, ctrl.Modes(), stage.Clock, logger.With("component", "button"))

	errg, ctx := errgroup.WithContext(ctx)
	errg.Go(func() error {
		return b.Run(ctx)
	})
	errg.Go(func() error {
		return handler.Run(ctx, b.Edges)
	})
	errg.Go(func() error {
		return ctrl.Run(ctx)
	})

	return errg.Wait()
}
