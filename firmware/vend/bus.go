package vend

import (
	"context"
	"log/slog"
	"time"
)

// Line is a single control line of the bus
type Line int

const (
	// LineBuffer is the sense buffer's output enable. It is active low: high keeps the buffer off
	// the data lines so the shift register inputs can be driven without contention
	LineBuffer Line = iota
	// LineClear resets all three shift registers while low
	LineClear
	LineClockU2
	LineClockU3
	LineClockU4
)

func (l Line) String() string {
	switch l {
	case LineBuffer:
		return "BUF"
	case LineClear:
		return "CLR"
	case LineClockU2:
		return "U2_CLK"
	case LineClockU3:
		return "U3_CLK"
	case LineClockU4:
		return "U4_CLK"
	default:
		return "unknown"
	}
}

// clockLines maps each register to the line that latches it
var clockLines = [3]Line{
	RegisterU2: LineClockU2,
	RegisterU3: LineClockU3,
	RegisterU4: LineClockU4,
}

// Pins is the raw GPIO bank the bus is wired to
type Pins interface {
	// ConfigureControl makes the control lines outputs
	ConfigureControl()
	// DataOutput configures the 8 data lines as outputs
	DataOutput()
	// DataInput configures the 8 data lines as inputs
	DataInput()
	// PutData sets the 8 data lines to b, bit 0 on the first line
	PutData(b byte)
	// GetData reads all 8 data lines
	GetData() byte
	// Set drives a control line high or low
	Set(l Line, high bool)
}

// Clock is the time source for pulse widths and poll intervals
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

type mode int

const (
	modeOutput mode = iota
	modeInput
)

// Bus owns the multiplexed data lines, the shift register chain and the chiller state latched
// into it. It is not safe for concurrent use; callers serialize access
type Bus struct {
	pins   Pins
	clock  Clock
	cfg    BusConfig
	logger *slog.Logger

	mode    mode
	chiller bool
	latched Frame
}

// NewBus takes ownership of the pins and leaves the registers cleared with the chiller off
func NewBus(pins Pins, clock Clock, cfg BusConfig, logger *slog.Logger) *Bus {
	b := &Bus{
		pins:   pins,
		clock:  clock,
		cfg:    cfg.withDefaults(),
		logger: orDiscard(logger),
	}

	pins.ConfigureControl()
	pins.Set(LineClear, true)
	for _, l := range clockLines {
		pins.Set(l, false)
	}
	pins.Set(LineBuffer, true)
	pins.DataOutput()
	b.mode = modeOutput

	b.Clear()

	return b
}

// Clear resets the shift register chain to all zeros. Only used at start up
func (b *Bus) Clear() {
	b.switchToOutput()

	b.pins.Set(LineClear, false)
	b.clock.Sleep(b.cfg.ClearPulse)
	b.pins.Set(LineClear, true)

	b.latched = Frame{}
	b.logger.Debug("cleared shift registers")
}

// Drive clocks f into U2, U3 and U4 in that order. The chiller bit is applied to U2 on every
// write. The registers hold the pattern until the next Drive
func (b *Bus) Drive(f Frame) {
	b.switchToOutput()

	f = b.withChiller(f)
	for reg, data := range f {
		clk := clockLines[reg]
		b.pins.PutData(data)
		b.pins.Set(clk, true)
		b.clock.Sleep(b.cfg.ClockPulse)
		b.pins.Set(clk, false)
		b.clock.Sleep(b.cfg.ClockPulse)
	}

	b.latched = f
	b.logger.Log(context.Background(), LevelTrace, "drive", "frame", f.String())
}

// Sense turns the bus around and reads the sense lines
func (b *Bus) Sense() SenseFrame {
	b.switchToInput()
	return SenseFrame(b.pins.GetData())
}

// Stop drives the all-zero frame, keeping the chiller state
func (b *Bus) Stop() {
	b.Drive(Frame{})
}

// Latched returns the last frame clocked into the registers, chiller bit included
func (b *Bus) Latched() Frame {
	return b.latched
}

// Chiller reports the chiller state that is applied to every frame
func (b *Bus) Chiller() bool {
	return b.chiller
}

func (b *Bus) setChiller(on bool) {
	b.chiller = on
}

func (b *Bus) withChiller(f Frame) Frame {
	on := b.chiller
	if b.cfg.InvertChiller {
		on = !on
	}
	if on {
		f[RegisterU2] |= chillerBit
	} else {
		f[RegisterU2] &^= chillerBit
	}
	return f
}

// switchToOutput takes the sense buffer off the data lines before driving them
func (b *Bus) switchToOutput() {
	if b.mode == modeOutput {
		return
	}
	b.pins.Set(LineBuffer, true)
	b.clock.Sleep(b.cfg.Settle)
	b.pins.DataOutput()
	b.mode = modeOutput
}

// switchToInput releases the data lines and enables the sense buffer. Reads taken before the
// settle delay are not valid
func (b *Bus) switchToInput() {
	if b.mode == modeInput {
		return
	}
	b.pins.DataInput()
	b.pins.Set(LineBuffer, false)
	b.clock.Sleep(b.cfg.Settle)
	b.mode = modeInput
}
