package commands

import (
	"strings"
	"testing"

	"github.com/calvinmclean/pivend"

	"github.com/stretchr/testify/assert"
)

func feed(lr *LineReader, in string) []string {
	var lines []string
	for i := range len(in) {
		if line, ok := lr.Feed(in[i]); ok {
			lines = append(lines, line)
		}
	}
	return lines
}

func TestLineReader(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		expected []string
	}{
		{"CarriageReturn", "VEND A0\r", []string{"VEND A0"}},
		{"Newline", "MAP_MACHINE\n", []string{"MAP_MACHINE"}},
		{"CRLF", "TEMP\r\nSTATUS\r\n", []string{"TEMP", "STATUS"}},
		{"Unterminated", "VEND A0", nil},
		{"BlankLines", "\r\n  \n\r", nil},
		{"LongestLine", strings.Repeat("x", pivend.MaxLineLength-1) + "\n", []string{strings.Repeat("x", pivend.MaxLineLength-1)}},
		{"Overflow", strings.Repeat("x", pivend.MaxLineLength) + "\nTEMP\n", []string{"TEMP"}},
		{"OverflowDropsRestOfLine", strings.Repeat("VEND A0 ", 10) + "\r", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var lr LineReader
			assert.Equal(t, tt.expected, feed(&lr, tt.in))
		})
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		line     string
		expected Request
	}{
		{"VEND A0", Request{Name: "VEND", Args: []string{"A0"}}},
		{"  home   b2 ", Request{Name: "HOME", Args: []string{"b2"}}},
		{"MAP_MACHINE", Request{Name: "MAP_MACHINE", Args: []string{}}},
		{"SET_TEMP 4 extra args", Request{Name: "SET_TEMP", Args: []string{"4", "extra", "args"}}},
		{"a b c d e f g h i j k l", Request{Name: "A", Args: []string{"b", "c", "d", "e", "f", "g", "h", "i", "j", "k", "l"}}},
		{"", Request{}},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			assert.Equal(t, tt.expected, Parse(tt.line))
		})
	}
}
