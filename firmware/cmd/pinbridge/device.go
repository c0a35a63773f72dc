package main

import (
	"fmt"
	"machine"
	"runtime/volatile"
	"sync"
	"time"

	"libdb.so/blinkyvu/pinserial"
	"tinygo.org/x/drivers/ws2812"
)

// adcBits is the width of machine.ADC readings. TinyGo scales every ADC to
// 16 bits regardless of its native resolution.
const adcBits = 16

// edgePoll is how often pending button edges are forwarded to the host.
const edgePoll = time.Millisecond

// Pins is the wiring of the bridge.
type Pins struct {
	Data   machine.Pin
	Clock  machine.Pin
	Latch  machine.Pin
	Button machine.Pin
	Volume machine.Pin

	// Status drives the onboard WS2812, which is only lit while StatusPower
	// is high.
	Status      machine.Pin
	StatusPower machine.Pin
}

// Device stores the current state of the device.
type Device struct {
	serial SerialReadWriter
	lines  [3]machine.Pin
	button machine.Pin
	adc    machine.ADC

	status      ws2812.Device
	statusPower machine.Pin

	wmu  sync.Mutex
	edge volatile.Register8
}

// NewDevice configures the pins and creates a new device.
func NewDevice(serial machine.Serialer, pins Pins) *Device {
	d := &Device{
		serial: WrapSerial(serial),
		button: pins.Button,
		adc:    machine.ADC{Pin: pins.Volume},

		statusPower: pins.StatusPower,
	}

	pins.Status.Configure(machine.PinConfig{Mode: machine.PinOutput})
	d.status = ws2812.New(pins.Status)
	d.statusPower.Configure(machine.PinConfig{Mode: machine.PinOutput})
	d.statusPower.Low()

	d.lines[pinserial.LineData] = pins.Data
	d.lines[pinserial.LineClock] = pins.Clock
	d.lines[pinserial.LineLatch] = pins.Latch
	for _, pin := range d.lines {
		pin.Configure(machine.PinConfig{Mode: machine.PinOutput})
		pin.Low()
	}

	machine.InitADC()
	d.adc.Configure(machine.ADCConfig{})

	d.button.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	d.button.SetInterrupt(machine.PinToggle, func(machine.Pin) {
		d.edge.Set(1)
	})

	return d
}

// Run runs the device loop forever.
func (d *Device) Run() {
	go d.forwardEdges()

	d.setStatus(0, 0, 32)
	d.log("pin bridge ready")

	for {
		p, err := pinserial.ReadIncomingPacket(d.serial)
		if err != nil {
			d.logError(err)
			continue
		}

		if err := d.handlePacket(p); err != nil {
			d.logError(err)
		}
	}
}

// forwardEdges reports latched button edges with the level the button has
// when the report is sent.
func (d *Device) forwardEdges() {
	for {
		if d.edge.Get() != 0 {
			d.edge.Set(0)

			var level uint8
			if d.button.Get() {
				level = 1
			}
			d.sendPacket(pinserial.EdgePacket{Level: level})
		}
		time.Sleep(edgePoll)
	}
}

// setStatus lights the status LED, or powers it off when r, g and b are all
// zero. The WS2812 takes green first.
func (d *Device) setStatus(r, g, b uint8) {
	if r == 0 && g == 0 && b == 0 {
		d.statusPower.Low()
		return
	}
	d.statusPower.High()
	d.status.WriteByte(g)
	d.status.WriteByte(r)
	d.status.WriteByte(b)
}

func (d *Device) log(msg string) {
	d.sendPacket(pinserial.LogPacket{Message: msg})
}

func (d *Device) logError(err error) {
	d.setStatus(32, 0, 0)
	d.sendPacket(pinserial.ErrorPacket{Message: err.Error()})
}

func (d *Device) sendPacket(p pinserial.OutgoingPacket) {
	d.wmu.Lock()
	defer d.wmu.Unlock()
	pinserial.WriteOutgoingPacket(d.serial, p)
}

func (d *Device) handlePacket(p pinserial.IncomingPacket) error {
	switch p := p.(type) {
	case pinserial.SetLinePacket:
		if int(p.Line) >= len(d.lines) {
			return fmt.Errorf("unknown line: %s", p.Line)
		}
		d.lines[p.Line].Set(p.Level != 0)

	case pinserial.SamplePacket:
		d.sendPacket(pinserial.ReadingPacket{
			Raw:  d.adc.Get(),
			Bits: adcBits,
		})

	default:
		return fmt.Errorf("unknown packet type: %T", p)
	}

	return nil
}
