package controller

import (
	"log/slog"
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultBaudRate = 115200
	// DefaultTimeout leaves room for the longest vend: a second to leave home and four more
	// to come back
	DefaultTimeout = 10 * time.Second

	// EnvPrefix is prepended to config keys to read them from the environment, like
	// PIVEND_SERIAL_PORT
	EnvPrefix = "PIVEND"
)

// Config keys
const (
	KeySerialPort = "serial_port"
	KeyBaudRate   = "baud_rate"
	KeyTimeout    = "timeout"
)

// Config has the settings for connecting to the vending machine's controller
type Config struct {
	// SerialPort is the device path. When empty, the first USB serial port is used, preferring
	// a Pico
	SerialPort string
	BaudRate   int
	// Timeout is how long to wait for the response to a command
	Timeout time.Duration

	Logger *slog.Logger
}

func (c Config) withDefaults() Config {
	if c.BaudRate == 0 {
		c.BaudRate = DefaultBaudRate
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.DiscardHandler)
	}
	return c
}

// SetDefaults registers the default value of each config key and reads them from the
// environment
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeySerialPort, "")
	v.SetDefault(KeyBaudRate, DefaultBaudRate)
	v.SetDefault(KeyTimeout, DefaultTimeout)

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
}

// ConfigFromViper reads a Config from v. The Logger is not set
func ConfigFromViper(v *viper.Viper) Config {
	return Config{
		SerialPort: v.GetString(KeySerialPort),
		BaudRate:   v.GetInt(KeyBaudRate),
		Timeout:    v.GetDuration(KeyTimeout),
	}
}

func newViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	return v
}
