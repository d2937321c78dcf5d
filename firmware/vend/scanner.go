package vend

import (
	"errors"
	"log/slog"
)

var ErrNotScannable = errors.New("row has no sense lines to probe")

const (
	standardRowLines = 8 // A to D, even and odd halves, on U4
	canRowLines      = 4 // E and F, even and odd halves, on U2
	columnLines      = 5 // column pairs on U3
)

// Record is what a probe found at one address
type Record struct {
	Address Address
	Present bool
	Homed   bool
	// CanAvailable is only set for can rows
	CanAvailable *bool
}

// MachineMap is one Record per probed address, in scan order
type MachineMap []Record

// Scanner maps out which trays and motors are installed by pulsing each motor so briefly that
// nothing moves, and reading the sense lines while it is driven
type Scanner struct {
	bus    Driver
	logger *slog.Logger
}

func NewScanner(bus Driver, logger *slog.Logger) *Scanner {
	return &Scanner{
		bus:    bus,
		logger: orDiscard(logger),
	}
}

// Scan probes every row line against every column line. The gum row has no sense lines and
// is not included
func (s *Scanner) Scan() MachineMap {
	m := make(MachineMap, 0, (standardRowLines+canRowLines)*columnLines)

	for line := range standardRowLines + canRowLines {
		for col := range columnLines {
			m = append(m, s.probe(lineAddress(line, col)))
		}
	}
	s.bus.Stop()

	s.logger.Debug("scanned machine", "records", len(m))
	return m
}

// Probe runs the scan probe for a single address
func (s *Scanner) Probe(a Address) (Record, error) {
	if _, ok := HomeSenseBit(a); !ok {
		return Record{}, ErrNotScannable
	}
	r := s.probe(a)
	s.bus.Stop()
	return r, nil
}

// probe drives the row and column lines for a, reads the sense lines straight away and then
// drops the column line. Leaving the row line latched is harmless without a column
func (s *Scanner) probe(a Address) Record {
	f := Encode(a)
	s.bus.Drive(f)
	sense := s.bus.Sense()

	f[RegisterU3] = 0
	s.bus.Drive(f)

	r := interpret(a, sense)
	s.logger.Debug("probe", "address", a.String(), "sense", int(sense), "present", r.Present, "homed", r.Homed)
	return r
}

// interpret decodes the sense lines for a driven address. On standard rows the line that is not
// the home line reports whether a motor is connected at all
func interpret(a Address, sense SenseFrame) Record {
	r := Record{Address: a}

	home, _ := HomeSenseBit(a)
	r.Homed = sense.Bit(home)

	switch a.Category() {
	case RowStandard:
		r.Present = sense.Bit(home ^ 1)
	case RowCan:
		r.Present = true
		bit, _ := CanSenseBit(a)
		available := sense.Bit(bit)
		r.CanAvailable = &available
	}

	return r
}

// lineAddress names the address selected by a row line and column line pair
func lineAddress(line, col int) Address {
	row := byte('A')
	if line >= standardRowLines {
		row = 'E'
		line -= standardRowLines
	}
	return Address{
		Row:    row + byte(line/2),
		Column: '0' + byte(col*2+line%2),
	}
}
