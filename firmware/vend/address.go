package vend

import (
	"errors"
	"strconv"
)

var ErrInvalidAddress = errors.New("invalid address")

// RowCategory groups rows that share a drive and sense layout
type RowCategory int

const (
	RowStandard RowCategory = iota
	RowCan
	RowGum
)

func (c RowCategory) String() string {
	switch c {
	case RowStandard:
		return "standard"
	case RowCan:
		return "can"
	case RowGum:
		return "gum"
	default:
		return "unknown"
	}
}

// Address selects one slot of the machine, like "A0" or "F3"
type Address struct {
	Row    byte
	Column byte
}

// ParseAddress validates a two character slot address. Rows are 'A' to 'G' and columns '0' to '9'
func ParseAddress(s string) (Address, error) {
	if len(s) != 2 {
		return Address{}, ErrInvalidAddress
	}
	a := Address{Row: s[0], Column: s[1]}
	if a.Row < 'A' || a.Row > 'G' || a.Column < '0' || a.Column > '9' {
		return Address{}, ErrInvalidAddress
	}
	return a, nil
}

func (a Address) String() string {
	return string([]byte{a.Row, a.Column})
}

// Category returns which drive/sense layout the row uses
func (a Address) Category() RowCategory {
	switch {
	case a.Row <= 'D':
		return RowStandard
	case a.Row <= 'F':
		return RowCan
	default:
		return RowGum
	}
}

// Odd reports whether the column is odd. Odd columns are on the odd half of each row
func (a Address) Odd() bool {
	return (a.Column-'0')%2 != 0
}

// Register is the index of a shift register in a Frame
type Register int

const (
	RegisterU2 Register = iota
	RegisterU3
	RegisterU4
)

func (r Register) String() string {
	return "U" + strconv.Itoa(int(r)+2)
}

// Frame is one byte per shift register, in the order they are clocked
type Frame [3]byte

const (
	// chillerBit on U2 switches the compressor triac
	chillerBit byte = 0x10
	// gumLine on U3 drives the gum and mint row. It has no odd/even split
	gumLine byte = 0x20
)

func (f Frame) String() string {
	const hex = "0123456789ABCDEF"
	out := make([]byte, 0, 14)
	for i, b := range f {
		if i > 0 {
			out = append(out, ' ')
		}
		out = append(out, '0', 'x', hex[b>>4], hex[b&0x0F])
	}
	return string(out)
}

// Encode returns the drive frame that energizes the motor at a. The column lines on U3 are
// shared by pairs of columns (0/1, 2/3, ...) and the row line picks the even or odd half:
//
//	U4: 0x01 A even, 0x02 A odd, 0x04 B even ... 0x80 D odd
//	U2: 0x01 E even, 0x02 E odd, 0x04 F even, 0x08 F odd (0x10 is the chiller)
//	U3: 0x01 cols 0/1 ... 0x10 cols 8/9, 0x20 gum and mint row
//
// a must already be valid.
func Encode(a Address) Frame {
	var f Frame

	if a.Category() == RowGum {
		f[RegisterU3] = gumLine
		return f
	}

	f[RegisterU3] = 0x01 << ((a.Column - '0') / 2)

	var offset byte
	if a.Odd() {
		offset = 1
	}

	switch a.Category() {
	case RowStandard:
		offset += (a.Row - 'A') * 2
		f[RegisterU4] = 0x01 << offset
	case RowCan:
		offset += (a.Row - 'E') * 2
		f[RegisterU2] = 0x01 << offset
	}

	return f
}

// HomeSenseBit returns the sense line that is high while the motor at a is home. Standard rows
// use bit 0 for the even half and bit 1 for the odd half. The gum row has no home sensing
func HomeSenseBit(a Address) (uint8, bool) {
	switch a.Category() {
	case RowStandard:
		if a.Odd() {
			return 1, true
		}
		return 0, true
	case RowCan:
		if a.Row == 'E' {
			return 4, true
		}
		return 6, true
	default:
		return 0, false
	}
}

// CanSenseBit returns the sense line that is high while a can row has a can to vend
func CanSenseBit(a Address) (uint8, bool) {
	if a.Category() != RowCan {
		return 0, false
	}
	if a.Row == 'E' {
		return 5, true
	}
	return 7, true
}

// SenseFrame is the byte read back from the bus in input mode
type SenseFrame byte

// Bit reports whether sense line n is high
func (s SenseFrame) Bit(n uint8) bool {
	return s&(1<<n) != 0
}
