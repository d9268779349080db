package session

import "fmt"

// Stage is the position of a session in its state machine.
type Stage uint32

const (
	// StageAwaitingHandshake waits for the hello exchange.
	StageAwaitingHandshake Stage = iota

	// StageAwaitingVersion waits for version negotiation.
	StageAwaitingVersion

	// StageAwaitingKeyExchange waits for the RSA/AES key exchange.
	StageAwaitingKeyExchange

	// StageDispatch is the steady-state message loop.
	StageDispatch

	// StageClosed is terminal.
	StageClosed
)

// String returns a human-readable name for the stage.
func (s Stage) String() string {
	switch s {
	case StageAwaitingHandshake:
		return "AwaitingHandshake"
	case StageAwaitingVersion:
		return "AwaitingVersion"
	case StageAwaitingKeyExchange:
		return "AwaitingKeyExchange"
	case StageDispatch:
		return "Dispatch"
	case StageClosed:
		return "Closed"
	default:
		return fmt.Sprintf("Stage(%d)", uint32(s))
	}
}

// IsValid returns true if the stage is a defined value.
func (s Stage) IsValid() bool {
	return s <= StageClosed
}
