package controller

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"go.bug.st/serial/enumerator"
)

// PicoVID is the USB vendor ID of the Raspberry Pi Pico
const PicoVID = "2E8A"

var ErrNoUSBSerial = errors.New("no USB serial ports found")

// GetSerialPorts lists USB serial ports with any Pico first
func GetSerialPorts() ([]*enumerator.PortDetails, error) {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, fmt.Errorf("error listing serial ports: %w", err)
	}

	return sortPorts(ports)
}

func sortPorts(ports []*enumerator.PortDetails) ([]*enumerator.PortDetails, error) {
	usb := slices.DeleteFunc(slices.Clone(ports), func(p *enumerator.PortDetails) bool {
		return !p.IsUSB
	})
	if len(usb) == 0 {
		return nil, ErrNoUSBSerial
	}

	slices.SortStableFunc(usb, func(a, b *enumerator.PortDetails) int {
		switch ap, bp := IsPico(a), IsPico(b); {
		case ap && !bp:
			return -1
		case bp && !ap:
			return 1
		default:
			return strings.Compare(a.Name, b.Name)
		}
	})

	return usb, nil
}

// IsPico reports whether the port belongs to a Raspberry Pi Pico
func IsPico(p *enumerator.PortDetails) bool {
	return strings.EqualFold(p.VID, PicoVID)
}
