package device

import (
	"io"
	"time"

	"github.com/calvinmclean/pivend/firmware/vend"
)

// DefaultIdlePause matches the serial read timeout of the board: Idle waits this long for input
const DefaultIdlePause = time.Millisecond

// Hardware is what the Device is wired to
type Hardware struct {
	Pins  vend.Pins
	Clock vend.Clock
	// Thermometer is optional. Without it, temperature commands fail and the chiller can only
	// be switched directly
	Thermometer vend.Thermometer
	// Serial is where commands are read from
	Serial io.ByteReader
	// Log receives log output. Defaults to discarding it
	Log io.Writer
}

// Config has the timings and limits of each part of the machine. Zero values are replaced
// by defaults
type Config struct {
	Bus        vend.BusConfig
	Sequencer  vend.SequencerConfig
	Thermostat vend.ThermostatConfig

	IdlePause time.Duration
	// Verbose starts with debug logging, as if VERBOSE was already sent. Otherwise only
	// warnings and errors are logged
	Verbose bool
}

func (c Config) withDefaults() Config {
	if c.IdlePause == 0 {
		c.IdlePause = DefaultIdlePause
	}
	return c
}
