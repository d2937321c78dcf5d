//go:build tinygo

package controller

import (
	"machine"
	"time"

	"github.com/calvinmclean/pivend/firmware/vend"

	"tinygo.org/x/drivers/delay"
)

// PinsConfig has the GPIO wiring between the Pico and the machine's control board
type PinsConfig struct {
	// Data are the 8 shared data lines, bit 0 first
	Data    [8]machine.Pin
	Buffer  machine.Pin
	Clear   machine.Pin
	ClockU2 machine.Pin
	ClockU3 machine.Pin
	ClockU4 machine.Pin
}

// DefaultPins is the wiring of the control board adapter: data on GP0-GP7, then the control
// lines on GP8-GP12
var DefaultPins = PinsConfig{
	Data: [8]machine.Pin{
		machine.GP0, machine.GP1, machine.GP2, machine.GP3,
		machine.GP4, machine.GP5, machine.GP6, machine.GP7,
	},
	Buffer:  machine.GP8,
	Clear:   machine.GP9,
	ClockU2: machine.GP10,
	ClockU3: machine.GP11,
	ClockU4: machine.GP12,
}

// Pins drives the bus lines with GPIO
type Pins struct {
	data    [8]machine.Pin
	control [5]machine.Pin
}

var _ vend.Pins = &Pins{}

func NewPins(cfg PinsConfig) *Pins {
	return &Pins{
		data: cfg.Data,
		control: [5]machine.Pin{
			vend.LineBuffer:  cfg.Buffer,
			vend.LineClear:   cfg.Clear,
			vend.LineClockU2: cfg.ClockU2,
			vend.LineClockU3: cfg.ClockU3,
			vend.LineClockU4: cfg.ClockU4,
		},
	}
}

func (p *Pins) ConfigureControl() {
	for _, pin := range p.control {
		pin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	}
}

func (p *Pins) DataOutput() {
	for _, pin := range p.data {
		pin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	}
}

func (p *Pins) DataInput() {
	for _, pin := range p.data {
		pin.Configure(machine.PinConfig{Mode: machine.PinInput})
	}
}

func (p *Pins) PutData(b byte) {
	for i, pin := range p.data {
		pin.Set(b&(1<<i) != 0)
	}
}

func (p *Pins) GetData() byte {
	var b byte
	for i, pin := range p.data {
		if pin.Get() {
			b |= 1 << i
		}
	}
	return b
}

func (p *Pins) Set(l vend.Line, high bool) {
	p.control[l].Set(high)
}

// Clock busy-waits for the microsecond pulses of the bus and sleeps for anything longer
type Clock struct{}

var _ vend.Clock = Clock{}

func (Clock) Now() time.Time {
	return time.Now()
}

func (Clock) Sleep(d time.Duration) {
	delay.Sleep(d)
}
