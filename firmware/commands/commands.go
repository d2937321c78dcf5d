package commands

import (
	"errors"
	"io"
	"strings"

	"github.com/calvinmclean/pivend"
)

var (
	ErrUnknownCommand  = errors.New("unknown command")
	ErrMissingArgument = errors.New("missing argument")
	ErrInvalidArgument = errors.New("invalid argument")
)

// usage is printed for any line that does not start with a known command
const usage = "Error - valid commands: VEND <row>, STATUS <row>, HOME <row>, MAP_MACHINE, SET_TEMP <temp>, TEMP"

type Command struct {
	Name string
	// Arg names the first argument in usage and error text. Commands with a required argument
	// report "Error, no <Arg> specified" when it is missing
	Arg         string
	ArgRequired bool
	Run         func(Controller, io.Writer, []string) error
	Description string
}

// Controller is used to control a device
type Controller interface {
	Vend(address string, override bool) pivend.Outcome
	MapMachine() []pivend.Slot
	Status(address string) ([]string, error)
	SetChiller(on bool)
	SetTarget(milli int32) error
	DisableTarget()
	Temperature() (int32, error)
	Verbose()

	// Idle is called whenever no input is waiting
	Idle()

	// I/O
	ReadByte() (byte, error)
}

var (
	VendCommand = &Command{
		Name:        pivend.CommandVend,
		Arg:         "item address",
		ArgRequired: true,
		Run: func(c Controller, w io.Writer, args []string) error {
			return writeLine(w, c.Vend(args[0], false).String())
		},
		Description: "Vend the item at an address like A0.",
	}
	HomeCommand = &Command{
		Name:        pivend.CommandHome,
		Arg:         "item address",
		ArgRequired: true,
		Run: func(c Controller, w io.Writer, args []string) error {
			// motors only turn forwards, so homing is a vend that skips the start checks. It may
			// drop an item
			return writeLine(w, c.Vend(args[0], true).String())
		},
		Description: "Run a row back to its home position. This may vend an item.",
	}
	StatusCommand = &Command{
		Name: pivend.CommandStatus,
		Arg:  "item address",
		Run: func(c Controller, w io.Writer, args []string) error {
			var address string
			if len(args) > 0 {
				address = args[0]
			}
			lines, err := c.Status(address)
			if err != nil {
				return err
			}
			return writeLines(w, lines)
		},
		Description: "Show the chiller state, and the slot state when an address is given.",
	}
	MapMachineCommand = &Command{
		Name: pivend.CommandMapMachine,
		Run: func(c Controller, w io.Writer, args []string) error {
			for _, s := range c.MapMachine() {
				err := writeLine(w, s.String())
				if err != nil {
					return err
				}
			}
			return nil
		},
		Description: "Probe every slot and list which trays are installed and homed.",
	}
	SetTempCommand = &Command{
		Name:        pivend.CommandSetTemp,
		Arg:         "temperature",
		ArgRequired: true,
		Run: func(c Controller, w io.Writer, args []string) error {
			if strings.EqualFold(args[0], "OFF") {
				c.DisableTarget()
				return writeLine(w, "target=none")
			}

			milli, err := pivend.ParseCelsius(args[0])
			if err != nil {
				return err
			}
			err = c.SetTarget(milli)
			if err != nil {
				return err
			}
			return writeLine(w, "target="+pivend.FormatCelsius(milli))
		},
		Description: "Hold the cabinet at a temperature in °C, or OFF to stop the chiller.",
	}
	TempCommand = &Command{
		Name: pivend.CommandTemp,
		Run: func(c Controller, w io.Writer, args []string) error {
			milli, err := c.Temperature()
			if err != nil {
				return err
			}
			return writeLine(w, "temperature="+pivend.FormatCelsius(milli))
		},
		Description: "Read the cabinet temperature in °C.",
	}
	ChillerCommand = &Command{
		Name:        pivend.CommandChiller,
		Arg:         "state",
		ArgRequired: true,
		Run: func(c Controller, w io.Writer, args []string) error {
			switch strings.ToUpper(args[0]) {
			case "ON":
				c.SetChiller(true)
				return writeLine(w, "chiller=on")
			case "OFF":
				c.SetChiller(false)
				return writeLine(w, "chiller=off")
			default:
				return ErrInvalidArgument
			}
		},
		Description: "Switch the chiller ON or OFF directly.",
	}
	VerboseCommand = &Command{
		Name: pivend.CommandVerbose,
		Run: func(c Controller, w io.Writer, args []string) error {
			c.Verbose()
			return writeLine(w, "verbose")
		},
		Description: "Enable verbose output.",
	}
	HelpCommand = &Command{
		Name:        pivend.CommandHelp,
		Description: "Show all available commands and their descriptions.",
		Run: func(c Controller, w io.Writer, args []string) error {
			err := writeLine(w, "Available Commands:")
			if err != nil {
				return err
			}
			for _, cmd := range commands {
				err = writeLine(w, cmd.Usage()+": "+cmd.Description)
				if err != nil {
					return err
				}
			}
			return nil
		},
	}
)

var commands = []*Command{
	VendCommand,
	HomeCommand,
	StatusCommand,
	MapMachineCommand,
	SetTempCommand,
	TempCommand,
	ChillerCommand,
	VerboseCommand,
}

// Usage is the command name followed by its argument, like "VEND <item address>"
func (cmd *Command) Usage() string {
	switch {
	case cmd.Arg == "":
		return cmd.Name
	case cmd.ArgRequired:
		return cmd.Name + " <" + cmd.Arg + ">"
	default:
		return cmd.Name + " [" + cmd.Arg + "]"
	}
}

// Lookup finds a command by name
func Lookup(name string) (*Command, bool) {
	if name == HelpCommand.Name {
		return HelpCommand, true
	}
	for _, cmd := range commands {
		if cmd.Name == name {
			return cmd, true
		}
	}
	return nil, false
}

// Dispatch runs one request and writes its response. Errors from the command are written as
// part of the response, so only write errors are returned
func Dispatch(c Controller, w io.Writer, req Request) error {
	cmd, ok := Lookup(req.Name)
	if !ok {
		return writeLine(w, usage)
	}

	if cmd.ArgRequired && len(req.Args) == 0 {
		return writeLine(w, "Error, no "+cmd.Arg+" specified")
	}

	err := cmd.Run(c, w, req.Args)
	if err != nil {
		return writeLine(w, "Error: "+err.Error())
	}
	return nil
}

// Run reads commands from the Controller until it returns io.EOF. Each response is followed by
// pivend.TerminationChar
func Run(c Controller, w io.Writer) error {
	var lr LineReader

	for {
		b, err := c.ReadByte()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			c.Idle()
			continue
		}

		line, ok := lr.Feed(b)
		if !ok {
			continue
		}

		err = Dispatch(c, w, Parse(line))
		if err != nil {
			return err
		}

		_, err = w.Write([]byte{pivend.TerminationChar})
		if err != nil {
			return err
		}
	}
}

func writeLine(w io.Writer, line string) error {
	_, err := io.WriteString(w, line+"\n")
	return err
}

func writeLines(w io.Writer, lines []string) error {
	for _, line := range lines {
		err := writeLine(w, line)
		if err != nil {
			return err
		}
	}
	return nil
}
