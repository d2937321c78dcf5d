// Package sim is a simulated vending machine control board for tests and bench work without
// hardware. It latches shift registers on clock edges, models each motor's position on a
// virtual clock and produces the sense lines the real comparators would, including garbage for
// reads that do not respect the bus turnaround.
package sim

import (
	"time"

	"github.com/calvinmclean/pivend/firmware/vend"

	"tinygo.org/x/drivers"
)

// Default motor timings
const (
	DefaultLeaveAfter = 200 * time.Millisecond
	DefaultCycle      = 1500 * time.Millisecond
)

// Config has the physical characteristics of the simulated machine
type Config struct {
	// LeaveAfter is how long a driven motor takes to move off its home switch
	LeaveAfter time.Duration
	// Cycle is how long a driven motor takes to get back home
	Cycle time.Duration
	// Settle is how long the sense buffer takes to present valid data
	Settle time.Duration
}

// Jam makes a motor stop turning at some point of its cycle
type Jam int

const (
	JamNone Jam = iota
	// JamHome never leaves home
	JamHome
	// JamNotHome leaves home and never gets back
	JamNotHome
)

// Motor is one installed tray motor
type Motor struct {
	Jam Jam
	// Travel is how far into its cycle the motor is
	Travel time.Duration
	// Cans is the stock of a can column. The can sense line only reports two or more
	Cans int
	// Cycles counts completed cycles, each of which drops an item
	Cycles int
}

// Board implements vend.Pins and vend.Clock
type Board struct {
	cfg   Config
	start time.Time
	now   time.Time

	levels          [5]bool
	dataOutput      bool
	data            byte
	registers       vend.Frame
	bufferEnabledAt time.Time

	motors map[string]*Motor

	// Pulses counts register clock rising edges
	Pulses int
	// Clears counts shift register clears
	Clears int
	// Reads counts data line reads
	Reads int
	// BadReads counts reads taken while the bus was not turned around or had not settled
	BadReads int
	// Contention counts moments where the sense buffer and the data line outputs were both on
	Contention int
	// GumDriven is the total time the gum line was driven
	GumDriven time.Duration
}

var (
	_ vend.Pins  = &Board{}
	_ vend.Clock = &Board{}
)

// New creates a board with no motors installed
func New(cfg Config) *Board {
	if cfg.LeaveAfter == 0 {
		cfg.LeaveAfter = DefaultLeaveAfter
	}
	if cfg.Cycle == 0 {
		cfg.Cycle = DefaultCycle
	}
	if cfg.Settle == 0 {
		cfg.Settle = vend.DefaultSettle
	}

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return &Board{
		cfg:    cfg,
		start:  start,
		now:    start,
		levels: [5]bool{vend.LineBuffer: true, vend.LineClear: true},
		motors: map[string]*Motor{},
	}
}

// Install puts a motor at address and returns it
func (b *Board) Install(address string) *Motor {
	m := &Motor{}
	b.motors[address] = m
	return m
}

// InstallAll fills every standard and can position. Can columns start with cans
func (b *Board) InstallAll(cans int) {
	for row := byte('A'); row <= 'F'; row++ {
		for col := byte('0'); col <= '9'; col++ {
			m := b.Install(string([]byte{row, col}))
			if row >= 'E' {
				m.Cans = cans
			}
		}
	}
}

// Motor returns the motor at address, or nil
func (b *Board) Motor(address string) *Motor {
	return b.motors[address]
}

// Registers returns the latched shift register contents
func (b *Board) Registers() vend.Frame {
	return b.registers
}

// Elapsed is the virtual time since the board was created
func (b *Board) Elapsed() time.Duration {
	return b.now.Sub(b.start)
}

func (b *Board) Now() time.Time {
	return b.now
}

// Sleep advances the virtual clock, turning every driven motor
func (b *Board) Sleep(d time.Duration) {
	for _, m := range b.energized() {
		m.turn(d, b.cfg)
	}
	if b.registers[vend.RegisterU3]&0x20 != 0 {
		b.GumDriven += d
	}
	b.now = b.now.Add(d)
}

func (b *Board) ConfigureControl() {}

func (b *Board) DataOutput() {
	if !b.levels[vend.LineBuffer] {
		b.Contention++
	}
	b.dataOutput = true
}

func (b *Board) DataInput() {
	b.dataOutput = false
}

func (b *Board) PutData(v byte) {
	b.data = v
}

func (b *Board) Set(l vend.Line, high bool) {
	prev := b.levels[l]
	b.levels[l] = high

	switch l {
	case vend.LineBuffer:
		if prev && !high {
			b.bufferEnabledAt = b.now
			if b.dataOutput {
				b.Contention++
			}
		}
	case vend.LineClear:
		if !high {
			b.registers = vend.Frame{}
			if prev {
				b.Clears++
			}
		}
	case vend.LineClockU2, vend.LineClockU3, vend.LineClockU4:
		if high && !prev {
			b.latch(vend.Register(l - vend.LineClockU2))
		}
	}
}

func (b *Board) latch(reg vend.Register) {
	b.Pulses++
	if !b.levels[vend.LineClear] {
		return
	}
	if !b.dataOutput {
		// floating inputs
		b.registers[reg] = 0xFF
		return
	}
	b.registers[reg] = b.data
}

// GetData returns the sense lines. Reads that the hardware would not present valid data for
// return the inverse of the real sense byte
func (b *Board) GetData() byte {
	b.Reads++

	if b.dataOutput {
		b.BadReads++
		return b.data
	}

	sense := b.sense()
	if b.levels[vend.LineBuffer] || b.now.Sub(b.bufferEnabledAt) < b.cfg.Settle {
		b.BadReads++
		return ^sense
	}
	return sense
}

// sense computes what the comparators report for the currently driven lines
func (b *Board) sense() byte {
	var out byte
	for _, d := range b.driven() {
		m := b.motors[d.address]
		if m == nil {
			continue
		}
		home := m.Travel < b.cfg.LeaveAfter

		if !d.can {
			// the even half reports home on bit 0 and presence on bit 1, the odd half mirrors it
			homeBit, presentBit := byte(0x01), byte(0x02)
			if d.odd {
				homeBit, presentBit = presentBit, homeBit
			}
			out |= presentBit
			if home {
				out |= homeBit
			}
			continue
		}

		homeBit, canBit := byte(0x10), byte(0x20)
		if d.address[0] == 'F' {
			homeBit, canBit = 0x40, 0x80
		}
		if home {
			out |= homeBit
		}
		if m.Cans >= 2 {
			out |= canBit
		}
	}
	return out
}

type drivenMotor struct {
	address string
	can     bool
	odd     bool
}

// driven lists the positions that have both their row and column line latched
func (b *Board) driven() []drivenMotor {
	var out []drivenMotor
	cols := b.registers[vend.RegisterU3]

	for col := range 5 {
		if cols&(1<<col) == 0 {
			continue
		}
		for line := range 8 {
			if b.registers[vend.RegisterU4]&(1<<line) != 0 {
				out = append(out, drivenMotor{
					address: position('A', line, col),
					odd:     line%2 != 0,
				})
			}
		}
		for line := range 4 {
			if b.registers[vend.RegisterU2]&(1<<line) != 0 {
				out = append(out, drivenMotor{
					address: position('E', line, col),
					can:     true,
					odd:     line%2 != 0,
				})
			}
		}
	}
	return out
}

func (b *Board) energized() []*Motor {
	var out []*Motor
	for _, d := range b.driven() {
		if m := b.motors[d.address]; m != nil {
			out = append(out, m)
		}
	}
	return out
}

func position(firstRow byte, line, col int) string {
	return string([]byte{firstRow + byte(line/2), '0' + byte(col*2+line%2)})
}

func (m *Motor) turn(d time.Duration, cfg Config) {
	switch m.Jam {
	case JamHome:
		return
	case JamNotHome:
		m.Travel = min(m.Travel+d, cfg.LeaveAfter)
		return
	}

	m.Travel += d
	for m.Travel >= cfg.Cycle {
		m.Travel -= cfg.Cycle
		m.Cycles++
		if m.Cans > 0 {
			m.Cans--
		}
	}
}

// Thermometer is a simulated cabinet temperature sensor
type Thermometer struct {
	// Milli is the temperature reported by the next Update, in milli °C
	Milli int32
	// Err is returned by Update when set
	Err error
	// Updates counts calls to Update
	Updates int

	last int32
}

func (t *Thermometer) Update(which drivers.Measurement) error {
	t.Updates++
	if t.Err != nil {
		return t.Err
	}
	if which&drivers.Temperature != 0 {
		t.last = t.Milli
	}
	return nil
}

func (t *Thermometer) Temperature() int32 {
	return t.last
}
