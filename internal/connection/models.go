// Package connection owns the lifecycle of a connection case between two
// users: request, two-sided consent, final mutual approval, and the handoff
// to the shadchan. Contact details are never disclosed here; that happens
// only on the shadchan surface once a case is fully approved.
package connection

import (
	"strings"
	"time"

	id "kesher/pkg/domain"
	dErrors "kesher/pkg/domain-errors"
)

// Status is the connection lifecycle state.
//
// pending → mutual_interest → waiting_for_shadchan → handled
//        ↘ rejected        ↘ rejected
//
// rejected and handled are terminal. A terminal connection never blocks a
// fresh request for the same pair.
type Status string

const (
	StatusPending            Status = "pending"
	StatusRejected           Status = "rejected"
	StatusMutualInterest     Status = "mutual_interest"
	StatusWaitingForShadchan Status = "waiting_for_shadchan"
	StatusHandled            Status = "handled"
)

// Terminal reports whether the status can never change again.
func (s Status) Terminal() bool {
	return s == StatusRejected || s == StatusHandled
}

// Active reports whether the status counts against pair uniqueness.
func (s Status) Active() bool {
	return !s.Terminal()
}

// Side identifies which participant of a connection is acting.
type Side string

const (
	SideSender   Side = "sender"
	SideReceiver Side = "receiver"
)

// Connection represents a directed request that becomes a bidirectional case.
// Sender/receiver are fixed at creation and never reordered.
type Connection struct {
	ID         id.ConnectionID
	SenderID   id.UserID
	ReceiverID id.UserID
	Status     Status

	SenderFinalApprove   bool
	ReceiverFinalApprove bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsParticipant reports whether userID is either side of the connection.
func (c Connection) IsParticipant(userID id.UserID) bool {
	return c.SenderID == userID || c.ReceiverID == userID
}

// SideOf resolves which side userID is on.
func (c Connection) SideOf(userID id.UserID) (Side, bool) {
	switch userID {
	case c.SenderID:
		return SideSender, true
	case c.ReceiverID:
		return SideReceiver, true
	default:
		return "", false
	}
}

// FinalApproved reports the caller-side final approval flag.
func (c Connection) FinalApproved(side Side) bool {
	if side == SideSender {
		return c.SenderFinalApprove
	}
	return c.ReceiverFinalApprove
}

// PairKey normalizes an unordered user pair into a stable key. Used by stores
// to enforce the one-active-connection-per-pair invariant.
func PairKey(a, b id.UserID) string {
	as, bs := a.String(), b.String()
	if strings.Compare(as, bs) > 0 {
		as, bs = bs, as
	}
	return as + ":" + bs
}

// Decision is a receiver's answer to a pending request.
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

// ParseDecision validates a decision from external input.
func ParseDecision(s string) (Decision, error) {
	switch Decision(s) {
	case DecisionApprove, DecisionReject:
		return Decision(s), nil
	default:
		return "", dErrors.New(dErrors.CodeInvalidInput, "decision must be approve or reject")
	}
}
