package vend

import "log/slog"

// Chiller switches the compressor triac. Its state rides along in U2 of every frame, so it is
// written out immediately with the motors stopped
type Chiller struct {
	bus    *Bus
	logger *slog.Logger
}

func NewChiller(bus *Bus, logger *slog.Logger) *Chiller {
	return &Chiller{
		bus:    bus,
		logger: orDiscard(logger),
	}
}

// Set turns the chiller on or off. It must only be called between vend attempts since it
// stops the motors
func (c *Chiller) Set(on bool) {
	if c.bus.Chiller() != on {
		c.logger.Info("chiller", "on", on)
	}
	c.bus.setChiller(on)
	c.bus.Stop()
}

// On reports whether the chiller is on
func (c *Chiller) On() bool {
	return c.bus.Chiller()
}
