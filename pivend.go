package pivend

const TerminationChar = 0x04 // ascii EOT (End of Transmission)

// MaxLineLength is the size of the firmware's command buffer, terminator included. Longer
// lines are dropped without a response
const MaxLineLength = 32

// Outcome is the terminal result of a single vend attempt
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeNotHome
	OutcomeNoDrop
	OutcomeInvalidAddress
	OutcomeMotorStuckHome
	OutcomeMotorStuckNotHome
	OutcomeNoCan
	OutcomeUnknown
)

// Outcomes lists every Outcome in declaration order
var Outcomes = []Outcome{
	OutcomeSuccess,
	OutcomeNotHome,
	OutcomeNoDrop,
	OutcomeInvalidAddress,
	OutcomeMotorStuckHome,
	OutcomeMotorStuckNotHome,
	OutcomeNoCan,
	OutcomeUnknown,
}

// String returns the text printed by the firmware for the Outcome. The host matches on these
// strings, so they must not change.
func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "Success"
	case OutcomeNotHome:
		return "Motor not home at start of cycle"
	case OutcomeNoDrop:
		return "Item drop not detected"
	case OutcomeInvalidAddress:
		return "Invalid address"
	case OutcomeMotorStuckHome:
		return "Motor jammed in home position"
	case OutcomeMotorStuckNotHome:
		return "Motor jammed in not-home position"
	case OutcomeNoCan:
		return "Less than two cans present"
	default:
		fallthrough
	case OutcomeUnknown:
		return "Unknown failure"
	}
}

// ParseOutcome finds the Outcome whose text matches s
func ParseOutcome(s string) (Outcome, bool) {
	for _, o := range Outcomes {
		if o.String() == s {
			return o, true
		}
	}
	return OutcomeUnknown, false
}

// Command names understood by the firmware
const (
	CommandVend       = "VEND"
	CommandHome       = "HOME"
	CommandStatus     = "STATUS"
	CommandMapMachine = "MAP_MACHINE"
	CommandSetTemp    = "SET_TEMP"
	CommandTemp       = "TEMP"
	CommandChiller    = "CHILLER"
	CommandVerbose    = "VERBOSE"
	CommandHelp       = "HELP"
)
