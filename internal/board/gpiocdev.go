package board

import (
	"github.com/pkg/errors"
	"github.com/warthog618/go-gpiocdev"
	"periph.io/x/conn/v3/gpio"
)

const consumer = "blinkyvu"

func (b *Board) openGPIOCDev(cfg GPIOCDevConfig) error {
	output := func(name string, offset int) (*gpiocdev.Line, error) {
		line, err := gpiocdev.RequestLine(cfg.Chip, offset,
			gpiocdev.WithConsumer(consumer),
			gpiocdev.AsOutput(0))
		if err != nil {
			return nil, errors.Wrapf(err, "failed to request %s line %d", name, offset)
		}
		b.closers = append(b.closers, line.Close)
		return line, nil
	}

	data, err := output("data", cfg.Data)
	if err != nil {
		return err
	}
	clock, err := output("clock", cfg.Clock)
	if err != nil {
		return err
	}
	latch, err := output("latch", cfg.Latch)
	if err != nil {
		return err
	}

	btn, err := gpiocdev.RequestLine(cfg.Chip, cfg.Button,
		gpiocdev.WithConsumer(consumer),
		gpiocdev.AsInput,
		gpiocdev.WithPullUp,
		gpiocdev.WithBothEdges,
		gpiocdev.WithEventHandler(func(gpiocdev.LineEvent) {
			b.Edges.Notify()
		}))
	if err != nil {
		return errors.Wrapf(err, "failed to request button line %d", cfg.Button)
	}
	b.closers = append(b.closers, btn.Close)

	b.Data = cdevLine{data}
	b.Clock = cdevLine{clock}
	b.Latch = cdevLine{latch}
	b.Button = cdevButton{btn}

	b.logger.Info(
		"requested gpio lines",
		"chip", cfg.Chip,
		"data", cfg.Data,
		"clock", cfg.Clock,
		"latch", cfg.Latch,
		"button", cfg.Button)

	return nil
}

type cdevLine struct {
	line *gpiocdev.Line
}

func (l cdevLine) Out(level gpio.Level) error {
	var v int
	if level {
		v = 1
	}
	return l.line.SetValue(v)
}

type cdevButton struct {
	line *gpiocdev.Line
}

// Read returns the line level. A failed read counts as released.
func (b cdevButton) Read() gpio.Level {
	v, err := b.line.Value()
	if err != nil {
		return gpio.High
	}
	return v != 0
}
