package board

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"go.bug.st/serial"
	"libdb.so/blinkyvu/button"
	"libdb.so/blinkyvu/pinserial"
	"periph.io/x/conn/v3/gpio"
)

// bridgeBits is the width of readings returned by the bridge ADC. The
// firmware scales its native readings to it.
const bridgeBits = 16

func (b *Board) openBridge(cfg BridgeConfig) error {
	port, err := serial.Open(cfg.Device, &serial.Mode{
		BaudRate: cfg.Baud,
	})
	if err != nil {
		return errors.Wrap(err, "failed to open serial port")
	}
	b.closers = append(b.closers, port.Close)

	br := newBridge(port, b.Edges, time.Duration(cfg.Timeout), b.logger)

	b.Data = br.line(pinserial.LineData)
	b.Clock = br.line(pinserial.LineClock)
	b.Latch = br.line(pinserial.LineLatch)
	b.Button = br
	b.ADC = br
	b.ADCBits = bridgeBits
	b.workers = append(b.workers, func(ctx context.Context) error {
		go func() {
			<-ctx.Done()
			b.logger.Debug("closing serial port")
			port.Close()
		}()
		return br.readPackets(ctx)
	})

	return nil
}

// bridge is the host side of a pin bridge connection.
type bridge struct {
	port     io.ReadWriter
	edges    button.Edges
	timeout  time.Duration
	logger   *slog.Logger
	readings chan pinserial.ReadingPacket

	wmu      sync.Mutex
	released atomic.Bool
}

func newBridge(port io.ReadWriter, edges button.Edges, timeout time.Duration, logger *slog.Logger) *bridge {
	br := &bridge{
		port:     port,
		edges:    edges,
		timeout:  timeout,
		logger:   logger,
		readings: make(chan pinserial.ReadingPacket, 1),
	}
	// The button is pulled up until the bridge reports otherwise.
	br.released.Store(true)
	return br
}

func (br *bridge) line(l pinserial.Line) bridgeLine {
	return bridgeLine{br, l}
}

func (br *bridge) writePacket(p pinserial.IncomingPacket) error {
	br.wmu.Lock()
	defer br.wmu.Unlock()

	if err := pinserial.WriteIncomingPacket(br.port, p); err != nil {
		return errors.Wrapf(err, "failed to write %s packet", p.Type())
	}
	return nil
}

// Read implements button.Pin with the last level the bridge reported.
func (br *bridge) Read() gpio.Level {
	return gpio.Level(br.released.Load())
}

// Convert implements volume.ADC. It waits at most the configured timeout for
// the bridge to answer.
func (br *bridge) Convert() (uint16, error) {
	// Drop a late answer to an earlier request.
	select {
	case <-br.readings:
	default:
	}

	if err := br.writePacket(pinserial.SamplePacket{}); err != nil {
		return 0, err
	}

	timer := time.NewTimer(br.timeout)
	defer timer.Stop()

	select {
	case r := <-br.readings:
		return scaleReading(r), nil
	case <-timer.C:
		return 0, errors.Errorf("no reading from bridge within %s", br.timeout)
	}
}

func scaleReading(r pinserial.ReadingPacket) uint16 {
	if r.Bits < bridgeBits {
		return r.Raw << (bridgeBits - r.Bits)
	}
	return r.Raw
}

func (br *bridge) readPackets(ctx context.Context) error {
	for ctx.Err() == nil {
		p, err := pinserial.ReadOutgoingPacket(br.port)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return errors.Wrap(err, "failed to read packet")
		}

		br.logger.Debug(
			"received packet from bridge",
			"type", p.Type())

		switch p := p.(type) {
		case pinserial.ReadingPacket:
			select {
			case br.readings <- p:
			default:
			}

		case pinserial.EdgePacket:
			br.released.Store(p.Level != 0)
			br.edges.Notify()

		case pinserial.LogPacket:
			br.logger.Info(
				"received log packet from bridge",
				"message", p.Message)

		case pinserial.ErrorPacket:
			br.logger.Warn(
				"received error packet from bridge",
				"message", p.Message)

		case pinserial.PanicPacket:
			br.logger.Error("bridge unrecoverably panicked")
			return errors.New("bridge panicked")
		}
	}

	return ctx.Err()
}

type bridgeLine struct {
	br   *bridge
	line pinserial.Line
}

func (l bridgeLine) Out(level gpio.Level) error {
	var v uint8
	if level {
		v = 1
	}
	return l.br.writePacket(pinserial.SetLinePacket{Line: l.line, Level: v})
}
