package blinkyvu

import (
	"context"
	"log/slog"
	"time"

	"github.com/pkg/errors"
	"libdb.so/blinkyvu/effect"
	"libdb.so/blinkyvu/mode"
	"libdb.so/blinkyvu/shiftreg"
)

// LoopDelay is the pause after every dispatched effect step.
const LoopDelay = 50 * time.Millisecond

// Controller is the main loop. It reads the current mode, plays one step of
// its effect and waits LoopDelay, forever.
type Controller struct {
	modes  *mode.Cycle
	table  *effect.Table
	stage  *effect.Stage
	logger *slog.Logger

	last mode.Mode
}

// NewController creates a controller playing effects from table on stage.
// The mode starts at Off.
func NewController(stage *effect.Stage, table *effect.Table, logger *slog.Logger) *Controller {
	return &Controller{
		modes:  new(mode.Cycle),
		table:  table,
		stage:  stage,
		logger: logger,
	}
}

// Modes returns the mode cycle the controller reads. The button handler
// advances it.
func (c *Controller) Modes() *mode.Cycle {
	return c.modes
}

// Play plays one step of the effect for m without the loop delay.
func (c *Controller) Play(ctx context.Context, m mode.Mode) error {
	if err := c.table.Lookup(m).Play(ctx, c.stage); err != nil {
		return errors.Wrapf(err, "mode %s", m)
	}
	return nil
}

// Step reads the mode once, plays its effect and waits LoopDelay. It returns
// the mode that was played.
func (c *Controller) Step(ctx context.Context) (mode.Mode, error) {
	m := c.modes.Load()
	if m != c.last {
		c.logger.Info(
			"mode changed",
			"from", c.last,
			"to", m)
		c.last = m
	}

	if err := c.Play(ctx, m); err != nil {
		return m, err
	}

	return m, c.stage.Clock.Sleep(ctx, LoopDelay)
}

// Run steps until ctx is done or rendering fails. The bar is blanked before
// returning.
func (c *Controller) Run(ctx context.Context) error {
	defer func() {
		if err := c.stage.Bar.Render(shiftreg.Blank); err != nil {
			c.logger.Warn(
				"failed to blank LED bar",
				"error", err)
		}
	}()

	for {
		if _, err := c.Step(ctx); err != nil {
			return err
		}
	}
}

