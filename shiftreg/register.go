package shiftreg

import (
	"sync"

	"periph.io/x/conn/v3/gpio"
)

// Register is a software model of a 74HC595 with its output enable tied
// active. A rising clock edge shifts the data level into bit 0 and moves the
// older bits toward bit 7. A rising latch edge copies the shift stage to the
// outputs.
type Register struct {
	// OnLatch, if not nil, is called with the new outputs after every
	// rising latch edge. It is called with the register lock released.
	OnLatch func(Pattern)

	mu      sync.Mutex
	data    gpio.Level
	clock   gpio.Level
	latch   gpio.Level
	stage   Pattern
	output  Pattern
	latches int
}

// DataLine returns the serial data input.
func (r *Register) DataLine() Line { return registerLine{r, (*Register).setData} }

// ClockLine returns the shift clock input.
func (r *Register) ClockLine() Line { return registerLine{r, (*Register).setClock} }

// LatchLine returns the storage (latch) clock input.
func (r *Register) LatchLine() Line { return registerLine{r, (*Register).setLatch} }

// Output returns the currently latched outputs.
func (r *Register) Output() Pattern {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.output
}

// Latches returns the number of rising latch edges seen.
func (r *Register) Latches() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.latches
}

func (r *Register) setData(l gpio.Level) {
	r.mu.Lock()
	r.data = l
	r.mu.Unlock()
}

func (r *Register) setClock(l gpio.Level) {
	r.mu.Lock()
	if !r.clock && l {
		r.stage <<= 1
		if r.data {
			r.stage |= 1
		}
	}
	r.clock = l
	r.mu.Unlock()
}

func (r *Register) setLatch(l gpio.Level) {
	r.mu.Lock()
	rising := !r.latch && l
	r.latch = l
	if rising {
		r.output = r.stage
		r.latches++
	}
	out := r.output
	hook := r.OnLatch
	r.mu.Unlock()

	if rising && hook != nil {
		hook(out)
	}
}

type registerLine struct {
	r   *Register
	set func(*Register, gpio.Level)
}

func (l registerLine) Out(level gpio.Level) error {
	l.set(l.r, level)
	return nil
}
