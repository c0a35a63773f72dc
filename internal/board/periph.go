package board

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// edgePoll bounds each WaitForEdge so the watcher notices cancellation.
const edgePoll = 100 * time.Millisecond

func (b *Board) openPeriph(cfg PeriphConfig) error {
	if _, err := host.Init(); err != nil {
		return errors.Wrap(err, "failed to initialize periph host")
	}

	pin := func(name string) (gpio.PinIO, error) {
		p := gpioreg.ByName(name)
		if p == nil {
			return nil, errors.Errorf("no such pin %q", name)
		}
		return p, nil
	}

	var outs [3]gpio.PinIO
	for i, name := range []string{cfg.Data, cfg.Clock, cfg.Latch} {
		p, err := pin(name)
		if err != nil {
			return err
		}
		if err := p.Out(gpio.Low); err != nil {
			return errors.Wrapf(err, "failed to configure %s as output", name)
		}
		b.closers = append(b.closers, p.Halt)
		outs[i] = p
	}

	btn, err := pin(cfg.Button)
	if err != nil {
		return err
	}
	if err := btn.In(gpio.PullUp, gpio.BothEdges); err != nil {
		return errors.Wrapf(err, "failed to configure %s as input", cfg.Button)
	}
	b.closers = append(b.closers, btn.Halt)

	b.Data, b.Clock, b.Latch = outs[0], outs[1], outs[2]
	b.Button = btn
	b.workers = append(b.workers, func(ctx context.Context) error {
		for ctx.Err() == nil {
			if btn.WaitForEdge(edgePoll) {
				b.Edges.Notify()
			}
		}
		return ctx.Err()
	})

	b.logger.Info(
		"opened periph pins",
		"data", cfg.Data,
		"clock", cfg.Clock,
		"latch", cfg.Latch,
		"button", cfg.Button)

	return nil
}
