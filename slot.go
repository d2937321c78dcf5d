package pivend

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

var ErrInvalidSlot = errors.New("invalid slot line")

// Slot is one line of the machine map printed by MAP_MACHINE
type Slot struct {
	Address string `yaml:"address"`
	Present bool   `yaml:"present"`
	Homed   bool   `yaml:"homed"`
	// CanAvailable is only set for can rows
	CanAvailable *bool `yaml:"can_available,omitempty"`
}

// String formats the slot like "A1 - Present, NOT Homed" or "E0 - Present, Homed, no can"
func (s Slot) String() string {
	if !s.Present {
		return s.Address + " - NOT present"
	}

	out := s.Address + " - Present, "
	if !s.Homed {
		out += "NOT "
	}
	out += "Homed"

	if s.CanAvailable != nil {
		if *s.CanAvailable {
			out += ", can available"
		} else {
			out += ", no can"
		}
	}
	return out
}

// ParseSlot reads a line produced by Slot.String
func ParseSlot(line string) (Slot, error) {
	address, rest, ok := strings.Cut(strings.TrimSpace(line), " - ")
	if !ok || len(address) != 2 {
		return Slot{}, ErrInvalidSlot
	}
	s := Slot{Address: address}

	parts := strings.Split(rest, ", ")
	switch parts[0] {
	case "NOT present":
		if len(parts) != 1 {
			return Slot{}, ErrInvalidSlot
		}
		return s, nil
	case "Present":
		s.Present = true
	default:
		return Slot{}, ErrInvalidSlot
	}

	if len(parts) < 2 || len(parts) > 3 {
		return Slot{}, ErrInvalidSlot
	}
	switch parts[1] {
	case "Homed":
		s.Homed = true
	case "NOT Homed":
	default:
		return Slot{}, ErrInvalidSlot
	}

	if len(parts) == 3 {
		var available bool
		switch parts[2] {
		case "can available":
			available = true
		case "no can":
		default:
			return Slot{}, ErrInvalidSlot
		}
		s.CanAvailable = &available
	}

	return s, nil
}

// MaxCelsius bounds the temperatures accepted by ParseCelsius
const MaxCelsius = 100

var ErrInvalidTemperature = errors.New("invalid temperature")

// FormatCelsius prints milli °C as degrees with one decimal, like "4.5"
func FormatCelsius(milli int32) string {
	out := strconv.FormatFloat(float64(milli)/1000, 'f', 1, 64)
	// readings just below zero round to zero, not "-0.0"
	if out == "-0.0" {
		return "0.0"
	}
	return out
}

// ParseCelsius reads a temperature in degrees, like "4" or "-2.5", and returns milli °C
func ParseCelsius(s string) (int32, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || f > MaxCelsius || f < -MaxCelsius {
		return 0, ErrInvalidTemperature
	}
	return int32(math.Round(f * 1000)), nil
}
