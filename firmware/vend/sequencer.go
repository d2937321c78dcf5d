package vend

import (
	"context"
	"log/slog"

	"github.com/calvinmclean/pivend"
)

// Driver is the part of the Bus used by the sequencer and scanner
type Driver interface {
	Drive(f Frame)
	Sense() SenseFrame
	Stop()
}

var _ Driver = &Bus{}

// State is the phase of a vend attempt
type State int

const (
	StateIdle State = iota
	StateValidating
	StateDriving
	StateAwaitingLeaveHome
	StateAwaitingReturnHome
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateValidating:
		return "Validating"
	case StateDriving:
		return "Driving"
	case StateAwaitingLeaveHome:
		return "AwaitingLeaveHome"
	case StateAwaitingReturnHome:
		return "AwaitingReturnHome"
	case StateStopped:
		return "Stopped"
	default:
		return "Unknown"
	}
}

// Sequencer runs one vend attempt at a time to completion
type Sequencer struct {
	bus    Driver
	clock  Clock
	cfg    SequencerConfig
	logger *slog.Logger

	state State
	last  pivend.Outcome
}

func NewSequencer(bus Driver, clock Clock, cfg SequencerConfig, logger *slog.Logger) *Sequencer {
	return &Sequencer{
		bus:    bus,
		clock:  clock,
		cfg:    cfg.withDefaults(),
		logger: orDiscard(logger),
		state:  StateIdle,
	}
}

// State returns the phase of the current or most recent attempt
func (s *Sequencer) State() State {
	return s.state
}

// Last returns the outcome of the most recent attempt
func (s *Sequencer) Last() pivend.Outcome {
	return s.last
}

// Vend attempts to vend the item at address. With override set, a row that is not home or a
// can row without cans is driven anyway. Since motors only turn forwards, this is also how a
// row is re-homed; it may or may not drop an item.
//
// Once the motor has been driven, the bus always ends in the stopped frame
func (s *Sequencer) Vend(address string, override bool) pivend.Outcome {
	s.transition(StateValidating)

	a, err := ParseAddress(address)
	if err != nil {
		s.logger.Debug("rejected address", "address", address)
		return s.finish(address, pivend.OutcomeInvalidAddress)
	}

	outcome := s.run(a, override)
	s.bus.Stop()

	return s.finish(address, outcome)
}

func (s *Sequencer) run(a Address, override bool) pivend.Outcome {
	frame := Encode(a)

	s.transition(StateDriving)
	s.logger.Debug("driving", "address", a.String(), "frame", frame.String(), "override", override)
	s.bus.Drive(frame)

	home, ok := HomeSenseBit(a)
	if !ok {
		// no sense contract for this row, so run it for about one cycle and report that the
		// result could not be confirmed
		s.clock.Sleep(s.cfg.BlindRun)
		return pivend.OutcomeUnknown
	}

	sense := s.bus.Sense()

	if can, ok := CanSenseBit(a); ok && !sense.Bit(can) {
		if !override {
			return pivend.OutcomeNoCan
		}
		s.logger.Debug("no can, continuing with override", "address", a.String())
	}

	if !sense.Bit(home) {
		if !override {
			return pivend.OutcomeNotHome
		}
		s.logger.Debug("not home, continuing with override", "address", a.String())
	}

	s.transition(StateAwaitingLeaveHome)
	if !s.poll(home, false, s.cfg.LeaveHomePolls) {
		return pivend.OutcomeMotorStuckHome
	}

	s.transition(StateAwaitingReturnHome)
	if !s.poll(home, true, s.cfg.ReturnHomePolls) {
		return pivend.OutcomeMotorStuckNotHome
	}

	return pivend.OutcomeSuccess
}

// poll reads the sense bit up to limit times, PollInterval apart, until it matches want
func (s *Sequencer) poll(bit uint8, want bool, limit int) bool {
	for i := range limit {
		if s.bus.Sense().Bit(bit) == want {
			s.logger.Debug("sense changed", "state", s.state.String(), "poll", i)
			return true
		}
		s.clock.Sleep(s.cfg.PollInterval)
	}
	return false
}

func (s *Sequencer) transition(next State) {
	s.logger.Log(context.Background(), LevelTrace, "transition", "from", s.state.String(), "to", next.String())
	s.state = next
}

func (s *Sequencer) finish(address string, outcome pivend.Outcome) pivend.Outcome {
	s.transition(StateStopped)
	s.last = outcome

	level := slog.LevelInfo
	if outcome != pivend.OutcomeSuccess {
		level = slog.LevelWarn
	}
	s.logger.Log(context.Background(), level, "vend finished", "address", address, "outcome", outcome.String())

	return outcome
}
