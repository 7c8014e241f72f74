package flush

import "fmt"

// State is the phase of the most recent flush cycle.
type State int32

const (
	StateIdle State = iota
	StateRotating
	StateDraining
	StateTransmitting
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRotating:
		return "rotating"
	case StateDraining:
		return "draining"
	case StateTransmitting:
		return "transmitting"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}
