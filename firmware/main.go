//go:build tinygo

package main

import (
	"machine"
	"time"

	"github.com/calvinmclean/pivend/firmware/commands"
	"github.com/calvinmclean/pivend/firmware/controller"
	"github.com/calvinmclean/pivend/firmware/device"
)

// usbSettle is how long to wait after the host connects before accepting commands
const usbSettle = 3 * time.Second

func main() {
	pins := controller.NewPins(controller.DefaultPins)
	clock := controller.Clock{}

	d, err := device.New(device.Hardware{
		Pins:        pins,
		Clock:       clock,
		Thermometer: controller.NewThermometer(machine.ADC0),
		Serial:      machine.Serial,
		Log:         machine.Serial,
	}, device.Config{})
	if err != nil {
		panic(err)
	}

	for !machine.Serial.DTR() {
		d.Idle()
	}
	time.Sleep(usbSettle)

	err = commands.Run(d, machine.Serial)
	if err != nil {
		println("error:", err.Error())
	}
}
