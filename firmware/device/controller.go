package device

import (
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/calvinmclean/pivend"
	"github.com/calvinmclean/pivend/firmware/commands"
	"github.com/calvinmclean/pivend/firmware/vend"
)

var _ commands.Controller = &Device{}

// Device controls the vending machine. It owns the bus and every part that uses it, and runs
// one operation at a time
type Device struct {
	mu sync.Mutex

	bus        *vend.Bus
	sequencer  *vend.Sequencer
	scanner    *vend.Scanner
	chiller    *vend.Chiller
	thermostat *vend.Thermostat

	clock  vend.Clock
	serial io.ByteReader
	cfg    Config

	level  *slog.LevelVar
	logger *slog.Logger
}

// New initializes the bus and leaves the motors stopped with the chiller off
func New(hw Hardware, cfg Config) (*Device, error) {
	if hw.Pins == nil || hw.Clock == nil {
		return nil, errors.New("pins and clock are required")
	}
	if hw.Serial == nil {
		return nil, errors.New("serial input is required")
	}
	cfg = cfg.withDefaults()

	out := hw.Log
	if out == nil {
		out = io.Discard
	}
	level := &slog.LevelVar{}
	level.Set(slog.LevelWarn)
	if cfg.Verbose {
		level.Set(slog.LevelDebug)
	}
	logger := slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level}))

	bus := vend.NewBus(hw.Pins, hw.Clock, cfg.Bus, logger.With("component", "bus"))
	chiller := vend.NewChiller(bus, logger.With("component", "chiller"))
	chiller.Set(false)

	return &Device{
		bus:        bus,
		sequencer:  vend.NewSequencer(bus, hw.Clock, cfg.Sequencer, logger.With("component", "sequencer")),
		scanner:    vend.NewScanner(bus, logger.With("component", "scanner")),
		chiller:    chiller,
		thermostat: vend.NewThermostat(chiller, hw.Thermometer, hw.Clock, cfg.Thermostat, logger.With("component", "thermostat")),
		clock:      hw.Clock,
		serial:     hw.Serial,
		cfg:        cfg,
		level:      level,
		logger:     logger,
	}, nil
}

// Vend runs one vend attempt. With override set, the start checks are skipped
func (d *Device) Vend(address string, override bool) pivend.Outcome {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.sequencer.Vend(address, override)
}

// MapMachine probes every slot that has sense lines
func (d *Device) MapMachine() []pivend.Slot {
	d.mu.Lock()
	defer d.mu.Unlock()

	records := d.scanner.Scan()
	slots := make([]pivend.Slot, 0, len(records))
	for _, r := range records {
		slots = append(slots, slotFromRecord(r))
	}
	return slots
}

// Status returns the chiller and thermostat state. When address is set, the slot is probed too
func (d *Device) Status(address string) ([]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	lines := []string{d.statusLine()}
	if address == "" {
		return lines, nil
	}

	a, err := vend.ParseAddress(address)
	if err != nil {
		return nil, err
	}
	r, err := d.scanner.Probe(a)
	if err != nil {
		return nil, err
	}
	return append(lines, slotFromRecord(r).String()), nil
}

func (d *Device) statusLine() string {
	chiller := "off"
	if d.chiller.On() {
		chiller = "on"
	}
	target := "none"
	if milli, enabled := d.thermostat.Target(); enabled {
		target = pivend.FormatCelsius(milli)
	}
	return "chiller=" + chiller + " target=" + target
}

// SetChiller switches the chiller directly. This stops temperature control
func (d *Device) SetChiller(on bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, enabled := d.thermostat.Target(); enabled {
		d.logger.Info("temperature control stopped by manual chiller command")
		d.thermostat.Disable()
	}
	d.chiller.Set(on)
}

// Chiller reports whether the chiller is on
func (d *Device) Chiller() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.chiller.On()
}

// SetTarget starts holding the cabinet at milli °C
func (d *Device) SetTarget(milli int32) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	err := d.thermostat.SetTarget(milli)
	if err != nil {
		return err
	}
	d.logger.Info("temperature target set", "target", pivend.FormatCelsius(milli))
	return nil
}

// DisableTarget stops temperature control and turns the chiller off
func (d *Device) DisableTarget() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.thermostat.Disable()
}

// Temperature reads the cabinet temperature in milli °C
func (d *Device) Temperature() (int32, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.thermostat.Read()
}

// Verbose sets the Device to Verbose mode and increases logging
func (d *Device) Verbose() {
	d.level.Set(slog.LevelDebug)
	d.logger.Info("set verbose mode")
}

// Idle runs temperature control and then waits briefly for input
func (d *Device) Idle() {
	d.mu.Lock()
	d.thermostat.Tick()
	d.mu.Unlock()

	d.clock.Sleep(d.cfg.IdlePause)
}

func (d *Device) ReadByte() (byte, error) {
	return d.serial.ReadByte()
}

func slotFromRecord(r vend.Record) pivend.Slot {
	return pivend.Slot{
		Address:      r.Address.String(),
		Present:      r.Present,
		Homed:        r.Homed,
		CanAvailable: r.CanAvailable,
	}
}
