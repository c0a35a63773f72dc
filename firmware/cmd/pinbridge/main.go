// Command pinbridge is the firmware for a Seeed XIAO RP2040 that drives the
// shift register lines on behalf of the host, samples the volume input and
// reports button edges.
package main

import "machine"

func main() {
	d := NewDevice(machine.Serial, Pins{
		Data:   machine.D0,
		Clock:  machine.D1,
		Latch:  machine.D2,
		Button: machine.D3,
		Volume: machine.A0,

		// https://wiki.seeedstudio.com/XIAO-RP2040-with-Arduino/
		Status:      machine.GPIO12,
		StatusPower: machine.GPIO11,
	})
	d.Run()
}
