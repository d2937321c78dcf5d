package controller

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestConfigFromViper(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		cfg := ConfigFromViper(newViper())
		assert.Equal(t, Config{BaudRate: DefaultBaudRate, Timeout: DefaultTimeout}, cfg)
	})

	t.Run("Environment", func(t *testing.T) {
		t.Setenv("PIVEND_SERIAL_PORT", "/dev/ttyACM0")
		t.Setenv("PIVEND_BAUD_RATE", "9600")
		t.Setenv("PIVEND_TIMEOUT", "3s")

		cfg := ConfigFromViper(newViper())
		assert.Equal(t, Config{SerialPort: "/dev/ttyACM0", BaudRate: 9600, Timeout: 3 * time.Second}, cfg)
	})

	t.Run("Explicit", func(t *testing.T) {
		t.Setenv("PIVEND_SERIAL_PORT", "/dev/ttyACM0")

		v := viper.New()
		SetDefaults(v)
		v.Set(KeySerialPort, "/dev/cu.usbmodem2101")

		assert.Equal(t, "/dev/cu.usbmodem2101", ConfigFromViper(v).SerialPort)
	})
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}.withDefaults()
	assert.Equal(t, DefaultBaudRate, cfg.BaudRate)
	assert.Equal(t, DefaultTimeout, cfg.Timeout)
	assert.NotNil(t, cfg.Logger)
}
