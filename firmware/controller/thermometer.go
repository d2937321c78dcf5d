//go:build tinygo

package controller

import (
	"machine"

	"github.com/calvinmclean/pivend/firmware/vend"

	"tinygo.org/x/drivers"
	"tinygo.org/x/drivers/thermistor"
)

// Thermometer reads the cabinet NTC thermistor through the ADC
type Thermometer struct {
	sensor thermistor.Device
	last   int32
}

var _ vend.Thermometer = &Thermometer{}

// NewThermometer configures the ADC on pin. The thermistor is a 10k NTC 3950 on the high side
// of a 10k divider, which are the driver's defaults
func NewThermometer(pin machine.Pin) *Thermometer {
	machine.InitADC()

	t := &Thermometer{sensor: thermistor.New(pin)}
	t.sensor.Configure()
	return t
}

func (t *Thermometer) Update(which drivers.Measurement) error {
	if which&drivers.Temperature == 0 {
		return nil
	}
	temp, err := t.sensor.ReadTemperature()
	if err != nil {
		return err
	}
	t.last = temp
	return nil
}

// Temperature returns the last reading in milli °C
func (t *Thermometer) Temperature() int32 {
	return t.last
}
