package vend_test

import (
	"errors"
	"testing"

	"github.com/calvinmclean/pivend/firmware/vend"
	"github.com/calvinmclean/pivend/firmware/vend/sim"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newThermostat(t *testing.T, milli int32) (rig, *sim.Thermometer, *vend.Thermostat) {
	t.Helper()
	r := newRig(t)
	therm := &sim.Thermometer{Milli: milli}
	return r, therm, vend.NewThermostat(r.chiller, therm, r.board, vend.ThermostatConfig{}, nil)
}

func TestThermostat(t *testing.T) {
	r, therm, ts := newThermostat(t, 9000)

	t.Run("DisabledDoesNothing", func(t *testing.T) {
		ts.Tick()
		assert.Zero(t, therm.Updates)
		assert.False(t, r.chiller.On())

		_, enabled := ts.Target()
		assert.False(t, enabled)
	})

	require.NoError(t, ts.SetTarget(4000))
	target, enabled := ts.Target()
	assert.Equal(t, int32(4000), target)
	assert.True(t, enabled)

	t.Run("TurnsOnAboveBand", func(t *testing.T) {
		ts.Tick()
		assert.Equal(t, 1, therm.Updates)
		assert.True(t, r.chiller.On())
	})

	t.Run("WaitsForInterval", func(t *testing.T) {
		therm.Milli = 1000
		r.board.Sleep(vend.DefaultThermostatInterval / 2)
		ts.Tick()
		assert.Equal(t, 1, therm.Updates)
		assert.True(t, r.chiller.On())
	})

	t.Run("StaysOnInsideBand", func(t *testing.T) {
		therm.Milli = 3500
		r.board.Sleep(vend.DefaultThermostatInterval)
		ts.Tick()
		assert.Equal(t, 2, therm.Updates)
		assert.True(t, r.chiller.On())
	})

	t.Run("TurnsOffBelowBand", func(t *testing.T) {
		therm.Milli = 2999
		r.board.Sleep(vend.DefaultThermostatInterval)
		ts.Tick()
		assert.False(t, r.chiller.On())
		assert.Equal(t, vend.Frame{}, r.board.Registers())
	})

	t.Run("StaysOffInsideBand", func(t *testing.T) {
		therm.Milli = 5000
		r.board.Sleep(vend.DefaultThermostatInterval)
		ts.Tick()
		assert.False(t, r.chiller.On())
	})

	t.Run("ReadErrorLeavesChiller", func(t *testing.T) {
		therm.Milli = 20000
		therm.Err = errors.New("adc fault")
		r.board.Sleep(vend.DefaultThermostatInterval)
		ts.Tick()
		assert.False(t, r.chiller.On())

		_, err := ts.Read()
		assert.ErrorContains(t, err, "adc fault")
		therm.Err = nil
	})

	t.Run("NewTargetChecksImmediately", func(t *testing.T) {
		therm.Milli = 6000
		require.NoError(t, ts.SetTarget(2000))
		ts.Tick()
		assert.True(t, r.chiller.On())
	})

	t.Run("Disable", func(t *testing.T) {
		ts.Disable()
		assert.False(t, r.chiller.On())
		_, enabled := ts.Target()
		assert.False(t, enabled)

		updates := therm.Updates
		r.board.Sleep(vend.DefaultThermostatInterval)
		ts.Tick()
		assert.Equal(t, updates, therm.Updates)
	})
}

func TestThermostatRead(t *testing.T) {
	_, _, ts := newThermostat(t, -1500)

	temp, err := ts.Read()
	require.NoError(t, err)
	assert.Equal(t, int32(-1500), temp)
}

func TestThermostatWithoutSensor(t *testing.T) {
	r := newRig(t)
	ts := vend.NewThermostat(r.chiller, nil, r.board, vend.ThermostatConfig{}, nil)

	assert.ErrorIs(t, ts.SetTarget(4000), vend.ErrNoThermometer)
	_, err := ts.Read()
	assert.ErrorIs(t, err, vend.ErrNoThermometer)

	_, enabled := ts.Target()
	assert.False(t, enabled)
}
