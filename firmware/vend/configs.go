package vend

import "time"

// Default timings for the shift register chain and sense buffer
const (
	DefaultClockPulse = 2 * time.Microsecond
	DefaultSettle     = 2 * time.Microsecond
	DefaultClearPulse = 50 * time.Microsecond
)

// Default vend cycle timings. A motor has about a second to leave home and four more to
// come back
const (
	DefaultPollInterval    = 50 * time.Millisecond
	DefaultLeaveHomePolls  = 20
	DefaultReturnHomePolls = 80
	DefaultBlindRun        = time.Second
)

// Default thermostat settings
const (
	DefaultThermostatInterval = 10 * time.Second
	DefaultHysteresis         = 1000 // milli °C
)

// BusConfig has the electrical timings of the bus
type BusConfig struct {
	// ClockPulse is how long each register clock is held high, and then low
	ClockPulse time.Duration
	// Settle is the wait after turning the bus around before it can be trusted
	Settle time.Duration
	// ClearPulse is how long the register clear line is held low
	ClearPulse time.Duration
	// InvertChiller drives the chiller bit low to turn the chiller on, for boards where the
	// triac input is active low
	InvertChiller bool
}

func (c BusConfig) withDefaults() BusConfig {
	if c.ClockPulse == 0 {
		c.ClockPulse = DefaultClockPulse
	}
	if c.Settle == 0 {
		c.Settle = DefaultSettle
	}
	if c.ClearPulse == 0 {
		c.ClearPulse = DefaultClearPulse
	}
	return c
}

// SequencerConfig has the polling limits of a vend cycle
type SequencerConfig struct {
	PollInterval    time.Duration
	LeaveHomePolls  int
	ReturnHomePolls int
	// BlindRun is how long the gum row is driven, since it has no home sensing
	BlindRun time.Duration
}

func (c SequencerConfig) withDefaults() SequencerConfig {
	if c.PollInterval == 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.LeaveHomePolls == 0 {
		c.LeaveHomePolls = DefaultLeaveHomePolls
	}
	if c.ReturnHomePolls == 0 {
		c.ReturnHomePolls = DefaultReturnHomePolls
	}
	if c.BlindRun == 0 {
		c.BlindRun = DefaultBlindRun
	}
	return c
}

// ThermostatConfig controls how often the chiller is re-evaluated
type ThermostatConfig struct {
	Interval time.Duration
	// Hysteresis in milli °C either side of the target
	Hysteresis int32
}

func (c ThermostatConfig) withDefaults() ThermostatConfig {
	if c.Interval == 0 {
		c.Interval = DefaultThermostatInterval
	}
	if c.Hysteresis == 0 {
		c.Hysteresis = DefaultHysteresis
	}
	return c
}
