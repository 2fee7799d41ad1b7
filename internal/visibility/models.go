package visibility

import (
	"fmt"
	"time"

	id "kesher/pkg/domain"
)

// State is the lifecycle state of a photo visibility grant.
type State string

const (
	StatePending      State = "pending"
	StateApproved     State = "approved"
	StateAutoApproved State = "auto_approved"
	StateRejected     State = "rejected"
)

// Viewable reports whether the requester may see the owner's photos.
func (s State) Viewable() bool {
	return s == StateApproved || s == StateAutoApproved
}

// Grant records the owner's photo visibility decision toward one requester.
// There is at most one grant per (owner, requester) pair.
type Grant struct {
	OwnerID     id.UserID
	RequesterID id.UserID
	State       State
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Decision is the owner's answer to a visibility request. auto_approve is
// sticky: later requests from the same requester skip the pending step.
type Decision string

const (
	DecisionApprove     Decision = "approve"
	DecisionAutoApprove Decision = "auto_approve"
	DecisionReject      Decision = "reject"
)

func ParseDecision(raw string) (Decision, error) {
	switch d := Decision(raw); d {
	case DecisionApprove, DecisionAutoApprove, DecisionReject:
		return d, nil
	default:
		return "", fmt.Errorf("unknown visibility decision %q", raw)
	}
}

// StateOf maps an owner decision to the resulting grant state.
func (d Decision) StateOf() State {
	switch d {
	case DecisionApprove:
		return StateApproved
	case DecisionAutoApprove:
		return StateAutoApproved
	default:
		return StateRejected
	}
}
