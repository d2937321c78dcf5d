package vend_test

import (
	"testing"
	"time"

	"github.com/calvinmclean/pivend/firmware/vend"
	"github.com/calvinmclean/pivend/firmware/vend/sim"
)

type rig struct {
	board     *sim.Board
	bus       *vend.Bus
	sequencer *vend.Sequencer
	scanner   *vend.Scanner
	chiller   *vend.Chiller
}

func newRig(t *testing.T) rig {
	t.Helper()
	board := sim.New(sim.Config{})
	bus := vend.NewBus(board, board, vend.BusConfig{}, nil)
	return rig{
		board:     board,
		bus:       bus,
		sequencer: vend.NewSequencer(bus, board, vend.SequencerConfig{}, nil),
		scanner:   vend.NewScanner(bus, nil),
		chiller:   vend.NewChiller(bus, nil),
	}
}

// scriptedBus replays a fixed series of sense readings, repeating the last one
type scriptedBus struct {
	senses []vend.SenseFrame
	frames []vend.Frame
	reads  int
	stops  int
}

func (s *scriptedBus) Drive(f vend.Frame) {
	s.frames = append(s.frames, f)
}

func (s *scriptedBus) Sense() vend.SenseFrame {
	i := min(s.reads, len(s.senses)-1)
	s.reads++
	return s.senses[i]
}

func (s *scriptedBus) Stop() {
	s.stops++
	s.Drive(vend.Frame{})
}

// repeat builds a script of n identical readings
func repeat(sense vend.SenseFrame, n int) []vend.SenseFrame {
	out := make([]vend.SenseFrame, n)
	for i := range out {
		out[i] = sense
	}
	return out
}

type fakeClock struct {
	now   time.Time
	slept time.Duration
	naps  int
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Sleep(d time.Duration) {
	c.naps++
	c.slept += d
	c.now = c.now.Add(d)
}
