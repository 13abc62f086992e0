package kernel

import "fmt"

// Action is what a sensitive volume does with a datum crossing it.
type Action int8

const (
	ActionIgnore Action = iota
	ActionRecord
	ActionCatch
	ActionKill
)

func (a Action) String() string {
	switch a {
	case ActionIgnore:
		return "ignore"
	case ActionRecord:
		return "record"
	case ActionCatch:
		return "catch"
	case ActionKill:
		return "kill"
	default:
		return "unknown"
	}
}

// ParseAction parses an action keyword.
func ParseAction(s string) (Action, error) {
	switch s {
	case "", "ignore":
		return ActionIgnore, nil
	case "record":
		return ActionRecord, nil
	case "catch":
		return ActionCatch, nil
	case "kill":
		return ActionKill, nil
	default:
		return ActionIgnore, fmt.Errorf("bad action ('%s')", s)
	}
}

// Roles configures the sensitivity of a volume: what to do with energy
// deposits and with particles entering or leaving the volume.
type Roles struct {
	Deposits Action
	Ingoing  Action
	Outgoing Action
}

// IsNone reports whether the volume has no active role.
func (r Roles) IsNone() bool {
	return r == Roles{}
}

// Detector receives the data selected by a sensitive volume's roles.
type Detector interface {
	// Volume is the path of the volume the detector is attached to.
	Volume() string

	// Roles returns the detector's active roles.
	Roles() Roles

	// Deposit records an energy deposit, in the volume's local frame.
	Deposit(x, y, z, energy float64)

	// Crossing records a particle entering (ingoing true) or leaving the
	// volume.
	Crossing(x, y, z float64, ingoing bool)
}

// DetectorFactory creates detectors when a volume's roles are set.
type DetectorFactory interface {
	NewDetector(volume string, roles Roles) (Detector, error)
}
