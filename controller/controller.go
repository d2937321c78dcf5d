package controller

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/calvinmclean/pivend"

	"github.com/google/uuid"
	"go.bug.st/serial"
)

// readPoll bounds each serial read so cancellation and timeouts are noticed
const readPoll = 100 * time.Millisecond

var (
	ErrTimeout         = errors.New("timed out waiting for response")
	ErrDevice          = errors.New("device error")
	ErrInvalidCommand  = errors.New("invalid command")
	ErrInvalidResponse = errors.New("invalid response")
)

// Controller talks to the vending machine firmware over a serial connection. It sends one
// command at a time
type Controller struct {
	mu      sync.Mutex
	port    io.ReadWriteCloser
	timeout time.Duration
	logger  *slog.Logger

	pending []byte
	// stale counts responses to commands that were abandoned, which are dropped when they arrive.
	// They are considered lost once a full timeout has passed since abandoned
	stale     int
	abandoned time.Time
}

// New opens the configured serial port, or the first USB serial port if none is set
func New(cfg Config) (*Controller, error) {
	cfg = cfg.withDefaults()

	name := cfg.SerialPort
	if name == "" {
		ports, err := GetSerialPorts()
		if err != nil {
			return nil, err
		}
		name = ports[0].Name
		cfg.Logger.Debug("using serial port", "port", name, "product", ports[0].Product)
	}

	port, err := serial.Open(name, &serial.Mode{BaudRate: cfg.BaudRate})
	if err != nil {
		return nil, fmt.Errorf("error opening serial port %q: %w", name, err)
	}

	err = port.SetReadTimeout(readPoll)
	if err != nil {
		port.Close()
		return nil, fmt.Errorf("error setting read timeout: %w", err)
	}

	return NewWithPort(port, cfg), nil
}

// NewFromEnv creates a Controller using PIVEND_SERIAL_PORT, PIVEND_BAUD_RATE and PIVEND_TIMEOUT
func NewFromEnv() (*Controller, error) {
	v := newViper()
	return New(ConfigFromViper(v))
}

// NewWithPort uses an already open connection. Reads from port should return no data when
// nothing arrives in time, like a serial port with a read timeout. A port that blocks instead
// works until a command times out, after which the next command waits for its late response
func NewWithPort(port io.ReadWriteCloser, cfg Config) *Controller {
	cfg = cfg.withDefaults()
	return &Controller{
		port:    port,
		timeout: cfg.Timeout,
		logger:  cfg.Logger,
	}
}

// Close closes the serial connection
func (c *Controller) Close() error {
	return c.port.Close()
}

// Exec sends one command line and returns the lines of its response. A response starting with
// "Error" is returned along with an ErrDevice error
func (c *Controller) Exec(ctx context.Context, line string) ([]string, error) {
	line = strings.TrimSpace(line)
	if line == "" || strings.ContainsAny(line, "\r\n") {
		return nil, ErrInvalidCommand
	}
	if len(line) >= pivend.MaxLineLength {
		return nil, fmt.Errorf("%w: longer than %d characters", ErrInvalidCommand, pivend.MaxLineLength-1)
	}

	err := ctx.Err()
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	logger := c.logger.With("request_id", uuid.NewString())

	err = c.discardStale(ctx, logger)
	if err != nil {
		return nil, err
	}

	logger.Debug("sending command", "command", line)

	_, err = c.port.Write([]byte(line + "\r"))
	if err != nil {
		return nil, fmt.Errorf("error writing command: %w", err)
	}

	resp, err := c.readResponse(ctx)
	if err != nil {
		c.stale++
		c.abandoned = time.Now()
		return nil, err
	}

	lines := c.responseLines(logger, resp)
	logger.Debug("received response", "lines", len(lines))

	if len(lines) > 0 && strings.HasPrefix(lines[0], "Error") {
		return lines, fmt.Errorf("%w: %s", ErrDevice, lines[0])
	}
	return lines, nil
}

// discardStale waits for the responses to abandoned commands and drops them, so they are not
// taken as the response to the next command. Responses that have not arrived one timeout after
// the last command was abandoned are lost, along with any partial output
func (c *Controller) discardStale(ctx context.Context, logger *slog.Logger) error {
	deadline := c.abandoned.Add(c.timeout)
	buf := make([]byte, 256)

	for {
		c.dropStale(logger)
		if c.stale == 0 {
			return nil
		}

		err := ctx.Err()
		if err != nil {
			return err
		}
		if !time.Now().Before(deadline) {
			logger.Debug("gave up on late responses", "count", c.stale, "partial", len(c.pending))
			c.stale = 0
			c.pending = nil
			return nil
		}

		n, err := c.port.Read(buf)
		c.pending = append(c.pending, buf[:n]...)
		if err != nil {
			return fmt.Errorf("error reading response: %w", err)
		}
	}
}

func (c *Controller) dropStale(logger *slog.Logger) {
	for c.stale > 0 {
		i := bytes.IndexByte(c.pending, pivend.TerminationChar)
		if i < 0 {
			return
		}
		logger.Debug("dropped late response", "response", string(c.pending[:i]))
		c.pending = c.pending[i+1:]
		c.stale--
	}
}

// readResponse reads up to the next TerminationChar
func (c *Controller) readResponse(ctx context.Context) (string, error) {
	deadline := time.Now().Add(c.timeout)
	buf := make([]byte, 256)

	for {
		if i := bytes.IndexByte(c.pending, pivend.TerminationChar); i >= 0 {
			resp := string(c.pending[:i])
			c.pending = c.pending[i+1:]
			return resp, nil
		}

		err := ctx.Err()
		if err != nil {
			return "", err
		}
		if time.Now().After(deadline) {
			return "", ErrTimeout
		}

		n, err := c.port.Read(buf)
		c.pending = append(c.pending, buf[:n]...)
		if err != nil {
			return "", fmt.Errorf("error reading response: %w", err)
		}
	}
}

// responseLines splits a response into lines. Log output from the firmware is passed to the
// logger instead
func (c *Controller) responseLines(logger *slog.Logger, resp string) []string {
	var lines []string
	for line := range strings.Lines(resp) {
		line = strings.TrimSpace(line)
		switch {
		case line == "":
		case strings.HasPrefix(line, "time="):
			logger.Debug("device log", "line", line)
		default:
			lines = append(lines, line)
		}
	}
	return lines
}

// Vend vends the item at address and returns the outcome reported by the machine
func (c *Controller) Vend(ctx context.Context, address string) (pivend.Outcome, error) {
	return c.vend(ctx, pivend.CommandVend, address)
}

// Home runs the row at address back to its home position. It may vend an item
func (c *Controller) Home(ctx context.Context, address string) (pivend.Outcome, error) {
	return c.vend(ctx, pivend.CommandHome, address)
}

func (c *Controller) vend(ctx context.Context, command, address string) (pivend.Outcome, error) {
	if address == "" || strings.ContainsAny(address, " \t") {
		return pivend.OutcomeInvalidAddress, fmt.Errorf("%w: %q", ErrInvalidCommand, address)
	}

	lines, err := c.Exec(ctx, command+" "+address)
	if err != nil {
		return pivend.OutcomeUnknown, err
	}

	last, err := lastLine(lines)
	if err != nil {
		return pivend.OutcomeUnknown, err
	}
	outcome, ok := pivend.ParseOutcome(last)
	if !ok {
		return pivend.OutcomeUnknown, fmt.Errorf("%w: %q", ErrInvalidResponse, last)
	}
	return outcome, nil
}

// MapMachine scans the machine and returns every slot in scan order
func (c *Controller) MapMachine(ctx context.Context) ([]pivend.Slot, error) {
	lines, err := c.Exec(ctx, pivend.CommandMapMachine)
	if err != nil {
		return nil, err
	}

	slots := make([]pivend.Slot, 0, len(lines))
	for _, line := range lines {
		s, err := pivend.ParseSlot(line)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidResponse, line)
		}
		slots = append(slots, s)
	}
	return slots, nil
}

// Status is the state reported by STATUS
type Status struct {
	Chiller bool `yaml:"chiller"`
	// Target is the temperature target in milli °C. It is nil while temperature control is off
	Target *int32 `yaml:"target,omitempty"`
	// Slot is only set when an address was requested
	Slot *pivend.Slot `yaml:"slot,omitempty"`
}

// Status reads the chiller and temperature control state. If address is set, that slot is
// probed too
func (c *Controller) Status(ctx context.Context, address string) (Status, error) {
	command := pivend.CommandStatus
	if address != "" {
		command += " " + address
	}

	lines, err := c.Exec(ctx, command)
	if err != nil {
		return Status{}, err
	}
	if len(lines) == 0 {
		return Status{}, fmt.Errorf("%w: empty", ErrInvalidResponse)
	}

	var s Status
	values := parseValues(lines[0])

	switch values["chiller"] {
	case "on":
		s.Chiller = true
	case "off":
	default:
		return Status{}, fmt.Errorf("%w: %q", ErrInvalidResponse, lines[0])
	}

	s.Target, err = parseTarget(values["target"])
	if err != nil {
		return Status{}, fmt.Errorf("%w: %q", ErrInvalidResponse, lines[0])
	}

	if address != "" {
		if len(lines) < 2 {
			return Status{}, fmt.Errorf("%w: missing slot", ErrInvalidResponse)
		}
		slot, err := pivend.ParseSlot(lines[1])
		if err != nil {
			return Status{}, fmt.Errorf("%w: %q", ErrInvalidResponse, lines[1])
		}
		s.Slot = &slot
	}

	return s, nil
}

// SetChiller switches the chiller directly, which stops temperature control
func (c *Controller) SetChiller(ctx context.Context, on bool) error {
	state := "off"
	if on {
		state = "on"
	}
	return c.expect(ctx, pivend.CommandChiller+" "+strings.ToUpper(state), "chiller", state)
}

// SetTemperature starts holding the cabinet at milli °C
func (c *Controller) SetTemperature(ctx context.Context, milli int32) error {
	celsius := pivend.FormatCelsius(milli)
	return c.expect(ctx, pivend.CommandSetTemp+" "+celsius, "target", celsius)
}

// DisableTemperature stops temperature control and turns the chiller off
func (c *Controller) DisableTemperature(ctx context.Context) error {
	return c.expect(ctx, pivend.CommandSetTemp+" OFF", "target", "none")
}

// Temperature reads the cabinet temperature in milli °C
func (c *Controller) Temperature(ctx context.Context) (int32, error) {
	lines, err := c.Exec(ctx, pivend.CommandTemp)
	if err != nil {
		return 0, err
	}
	last, err := lastLine(lines)
	if err != nil {
		return 0, err
	}

	value, ok := parseValues(last)["temperature"]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidResponse, last)
	}
	milli, err := pivend.ParseCelsius(value)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidResponse, last)
	}
	return milli, nil
}

// Verbose turns on debug logging in the firmware
func (c *Controller) Verbose(ctx context.Context) error {
	_, err := c.Exec(ctx, pivend.CommandVerbose)
	return err
}

// expect runs command and checks that the response has key=value
func (c *Controller) expect(ctx context.Context, command, key, value string) error {
	lines, err := c.Exec(ctx, command)
	if err != nil {
		return err
	}
	last, err := lastLine(lines)
	if err != nil {
		return err
	}
	if parseValues(last)[key] != value {
		return fmt.Errorf("%w: %q", ErrInvalidResponse, last)
	}
	return nil
}

// Run sends each line read from r as a command and writes the responses to w. Device errors and
// rejected commands are written like any other response. Run stops at the end of r or on any
// other error
func (c *Controller) Run(ctx context.Context, r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		lines, err := c.Exec(ctx, line)
		switch {
		case errors.Is(err, ErrInvalidCommand):
			lines = []string{"Error: " + err.Error()}
		case err != nil && !errors.Is(err, ErrDevice):
			return err
		}

		for _, l := range lines {
			_, err = fmt.Fprintln(w, l)
			if err != nil {
				return fmt.Errorf("error writing output: %w", err)
			}
		}
	}
	return scanner.Err()
}

func lastLine(lines []string) (string, error) {
	if len(lines) == 0 {
		return "", fmt.Errorf("%w: empty", ErrInvalidResponse)
	}
	return lines[len(lines)-1], nil
}

// parseValues reads space separated key=value pairs
func parseValues(line string) map[string]string {
	values := map[string]string{}
	for _, field := range strings.Fields(line) {
		k, v, ok := strings.Cut(field, "=")
		if ok {
			values[k] = v
		}
	}
	return values
}

func parseTarget(s string) (*int32, error) {
	switch s {
	case "none":
		return nil, nil
	case "":
		return nil, ErrInvalidResponse
	}
	milli, err := pivend.ParseCelsius(s)
	if err != nil {
		return nil, err
	}
	return &milli, nil
}
