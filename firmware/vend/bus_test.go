package vend_test

import (
	"testing"
	"time"

	"github.com/calvinmclean/pivend/firmware/vend"
	"github.com/calvinmclean/pivend/firmware/vend/sim"

	"github.com/stretchr/testify/assert"
)

func TestNewBusClearsRegisters(t *testing.T) {
	r := newRig(t)

	assert.Equal(t, 1, r.board.Clears)
	assert.Equal(t, vend.Frame{}, r.board.Registers())
	assert.Equal(t, vend.Frame{}, r.bus.Latched())
	assert.False(t, r.bus.Chiller())
	assert.Equal(t, vend.DefaultClearPulse, r.board.Elapsed())
}

func TestDrive(t *testing.T) {
	r := newRig(t)
	start := r.board.Elapsed()

	r.bus.Drive(vend.Frame{0x01, 0x02, 0x03})

	assert.Equal(t, vend.Frame{0x01, 0x02, 0x03}, r.board.Registers())
	assert.Equal(t, vend.Frame{0x01, 0x02, 0x03}, r.bus.Latched())
	assert.Equal(t, 3, r.board.Pulses)
	// each register clock is held high then low
	assert.Equal(t, 6*vend.DefaultClockPulse, r.board.Elapsed()-start)
}

func TestSenseTurnaround(t *testing.T) {
	r := newRig(t)
	r.board.InstallAll(5)

	for range 3 {
		r.bus.Drive(vend.Frame{0x00, 0x01, 0x01})
		sense := r.bus.Sense()
		assert.True(t, sense.Bit(0), "A0 home")
		assert.True(t, sense.Bit(1), "A0 present")
	}

	assert.Equal(t, 3, r.board.Reads)
	assert.Zero(t, r.board.BadReads)
	assert.Zero(t, r.board.Contention)
}

func TestSenseWithoutSettleIsUnreliable(t *testing.T) {
	board := sim.New(sim.Config{Settle: 10 * time.Microsecond})
	bus := vend.NewBus(board, board, vend.BusConfig{Settle: time.Microsecond}, nil)

	bus.Drive(vend.Frame{})
	bus.Sense()

	assert.Equal(t, 1, board.BadReads)
}

func TestDriveAppliesChillerBit(t *testing.T) {
	r := newRig(t)
	r.chiller.Set(true)

	r.bus.Drive(vend.Frame{0x02, 0x02, 0x00})
	assert.Equal(t, vend.Frame{0x12, 0x02, 0x00}, r.board.Registers())

	r.bus.Stop()
	assert.Equal(t, vend.Frame{0x10, 0x00, 0x00}, r.board.Registers())

	r.chiller.Set(false)
	r.bus.Drive(vend.Frame{0x12, 0x00, 0x00})
	assert.Equal(t, vend.Frame{0x02, 0x00, 0x00}, r.board.Registers())
}

func TestInvertChiller(t *testing.T) {
	board := sim.New(sim.Config{})
	bus := vend.NewBus(board, board, vend.BusConfig{InvertChiller: true}, nil)
	chiller := vend.NewChiller(bus, nil)

	bus.Stop()
	assert.Equal(t, vend.Frame{0x10, 0x00, 0x00}, board.Registers())

	chiller.Set(true)
	assert.Equal(t, vend.Frame{}, board.Registers())
	assert.True(t, chiller.On())
}
