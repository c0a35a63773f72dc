package board

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/lipgloss"
	"libdb.so/blinkyvu/button"
	"libdb.so/blinkyvu/shiftreg"
	"periph.io/x/conn/v3/gpio"
)

// simHold is how long a simulated press keeps the line low. It must outlast
// the debounce window for the press to count.
const simHold = 2 * button.DebounceWindow

var (
	litStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	darkStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
)

// sim is a terminal stand-in for the LED bar and its button.
type sim struct {
	reg      shiftreg.Register
	out      io.Writer
	released atomic.Bool
}

func (b *Board) openSim(out io.Writer, in io.Reader) *sim {
	s := &sim{out: out}
	s.released.Store(true)
	s.reg.OnLatch = s.draw

	b.Data = s.reg.DataLine()
	b.Clock = s.reg.ClockLine()
	b.Latch = s.reg.LatchLine()
	b.Button = s
	b.workers = append(b.workers, func(ctx context.Context) error {
		return s.watchInput(ctx, in, b.Edges)
	})

	b.logger.Info("running simulated LED bar, press Enter to change mode")
	return s
}

// Read implements button.Pin.
func (s *sim) Read() gpio.Level {
	return gpio.Level(s.released.Load())
}

func (s *sim) draw(p shiftreg.Pattern) {
	fmt.Fprintf(s.out, "\r%s", drawBar(p))
}

// drawBar draws LED 0 on the left.
func drawBar(p shiftreg.Pattern) string {
	var sb strings.Builder
	sb.WriteString("[")
	for i := 0; i < 8; i++ {
		if p.Lit(i) {
			sb.WriteString(litStyle.Render("●"))
		} else {
			sb.WriteString(darkStyle.Render("○"))
		}
	}
	sb.WriteString("]")
	return sb.String()
}

// watchInput turns every line read from in into a button press.
func (s *sim) watchInput(ctx context.Context, in io.Reader, edges button.Edges) error {
	lines := make(chan struct{})
	go func() {
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- struct{}{}:
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-lines:
			if err := s.press(ctx, edges); err != nil {
				return err
			}
		}
	}
}

func (s *sim) press(ctx context.Context, edges button.Edges) error {
	s.released.Store(false)
	edges.Notify()

	t := time.NewTimer(simHold)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
	}

	s.released.Store(true)
	edges.Notify()
	return nil
}
