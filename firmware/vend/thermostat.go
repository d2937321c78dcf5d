package vend

import (
	"errors"
	"log/slog"
	"time"

	"tinygo.org/x/drivers"
)

var ErrNoThermometer = errors.New("no thermometer configured")

// Thermometer is a sensor that measures the cabinet temperature
type Thermometer interface {
	drivers.Sensor
	// Temperature returns the last measured temperature in milli °C
	Temperature() int32
}

// Thermostat holds the cabinet near a target temperature by switching the chiller. It only
// acts from Tick, which is called between commands so it never lands in the middle of a vend
type Thermostat struct {
	chiller *Chiller
	sensor  Thermometer
	clock   Clock
	cfg     ThermostatConfig
	logger  *slog.Logger

	enabled   bool
	target    int32
	lastCheck time.Time
}

// NewThermostat creates a disabled Thermostat. sensor may be nil if the board has none
func NewThermostat(chiller *Chiller, sensor Thermometer, clock Clock, cfg ThermostatConfig, logger *slog.Logger) *Thermostat {
	return &Thermostat{
		chiller: chiller,
		sensor:  sensor,
		clock:   clock,
		cfg:     cfg.withDefaults(),
		logger:  orDiscard(logger),
	}
}

// SetTarget enables control around target milli °C. The next Tick evaluates it
func (t *Thermostat) SetTarget(target int32) error {
	if t.sensor == nil {
		return ErrNoThermometer
	}
	t.target = target
	t.enabled = true
	t.lastCheck = time.Time{}
	return nil
}

// Disable stops control and turns the chiller off
func (t *Thermostat) Disable() {
	t.enabled = false
	t.chiller.Set(false)
}

// Target returns the target in milli °C and whether control is enabled
func (t *Thermostat) Target() (int32, bool) {
	return t.target, t.enabled
}

// Read measures the temperature in milli °C
func (t *Thermostat) Read() (int32, error) {
	if t.sensor == nil {
		return 0, ErrNoThermometer
	}
	err := t.sensor.Update(drivers.Temperature)
	if err != nil {
		return 0, err
	}
	return t.sensor.Temperature(), nil
}

// Tick re-evaluates the chiller if control is enabled and Interval has passed since the last
// check. A failed reading leaves the chiller as it is
func (t *Thermostat) Tick() {
	if !t.enabled {
		return
	}

	now := t.clock.Now()
	if !t.lastCheck.IsZero() && now.Sub(t.lastCheck) < t.cfg.Interval {
		return
	}
	t.lastCheck = now

	temp, err := t.Read()
	if err != nil {
		t.logger.Warn("error reading temperature", "error", err)
		return
	}

	on := t.chiller.On()
	switch {
	case temp > t.target+t.cfg.Hysteresis && !on:
		t.chiller.Set(true)
	case temp < t.target-t.cfg.Hysteresis && on:
		t.chiller.Set(false)
	}
	t.logger.Debug("thermostat", "temperature", temp, "target", t.target, "chiller", t.chiller.On())
}
