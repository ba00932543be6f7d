package econ

import "fmt"

// Kind tags a command for the transaction runner.
type Kind string

const (
	KindHire         Kind = "hire"
	KindTrain        Kind = "train"
	KindStartProject Kind = "start_project"
	KindSprint       Kind = "sprint"
	KindRelease      Kind = "release"
	KindMarketing    Kind = "marketing"
	KindTick         Kind = "tick"
)

// Command is one requested state transition. Commands are plain values so a
// retried transaction attempt can re-apply them against a fresh snapshot.
type Command struct {
	Kind        Kind
	ProjectName string
}

// ParseActionKind maps a wire action name to its command kind. Tick is not a
// player action and is rejected here.
func ParseActionKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindHire, KindTrain, KindStartProject, KindSprint, KindRelease, KindMarketing:
		return Kind(s), nil
	}
	return "", fmt.Errorf("unknown action %q", s)
}

// RejectReason explains why a command left the state unchanged.
type RejectReason string

const (
	RejectInsufficientFunds RejectReason = "insufficient_funds"
	RejectNotEligible       RejectReason = "not_eligible"
)

// Outcome reports whether a command changed the state. A rejected command
// touches no field; the runner still refreshes the write timestamp.
type Outcome struct {
	Applied  bool             `json:"applied"`
	Reason   RejectReason     `json:"reason,omitempty"`
	Released *ReleasedProduct `json:"released,omitempty"`
}

func applied() Outcome {
	return Outcome{Applied: true}
}

func rejected(reason RejectReason) Outcome {
	return Outcome{Reason: reason}
}
