package commands

import (
	"strings"

	"github.com/calvinmclean/pivend"
)

// LineReader assembles bytes into lines terminated by '\r' or '\n'
type LineReader struct {
	buf      [pivend.MaxLineLength]byte
	n        int
	overflow bool
}

// Feed adds b to the current line and returns the line once it is terminated. Empty lines and
// lines that overflowed the buffer are not returned
func (l *LineReader) Feed(b byte) (string, bool) {
	if b == '\r' || b == '\n' {
		line := string(l.buf[:l.n])
		overflow := l.overflow
		l.n, l.overflow = 0, false

		if overflow || strings.TrimSpace(line) == "" {
			return "", false
		}
		return line, true
	}

	if l.overflow {
		return "", false
	}
	if l.n == pivend.MaxLineLength-1 {
		l.overflow = true
		return "", false
	}

	l.buf[l.n] = b
	l.n++
	return "", false
}

// Request is a parsed command line
type Request struct {
	Name string
	Args []string
}

// Parse splits a line on spaces. The command name is case-insensitive
func Parse(line string) Request {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Request{}
	}
	return Request{
		Name: strings.ToUpper(fields[0]),
		Args: fields[1:],
	}
}
