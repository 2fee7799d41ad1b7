// Package notification decides that and to whom an event fires. Rendering
// (email templates, push payloads) belongs to the downstream consumer of the
// notification topic.
package notification

import (
	"context"
	"time"

	id "kesher/pkg/domain"
)

// Kind labels the notification event for downstream routing.
type Kind string

const (
	KindConnectionRequested Kind = "connection_requested"
	KindConnectionApproved  Kind = "connection_approved"
	KindConnectionRejected  Kind = "connection_rejected"
	KindConnectionMatched   Kind = "connection_matched"
	KindVisibilityRequested Kind = "visibility_requested"
	KindVisibilityResponded Kind = "visibility_responded"
	KindProfileEditApproved Kind = "profile_edit_approved"
	KindProfileEditRejected Kind = "profile_edit_rejected"
)

// Event is emitted from domain logic to capture who must be told about what.
// Keep it transport-agnostic so dispatchers can fan out.
type Event struct {
	ID           string          `json:"id"`
	Kind         Kind            `json:"kind"`
	RecipientID  id.UserID       `json:"recipient_id"`
	ActorID      id.UserID       `json:"actor_id"`
	ConnectionID id.ConnectionID `json:"connection_id,omitempty"`

	// Reason carries moderator feedback (profile edit rejections).
	Reason string `json:"reason,omitempty"`

	// Device is the display name of the actor's device, for anomaly review.
	Device string `json:"device,omitempty"`

	OccurredAt time.Time `json:"occurred_at"`
}

// Notifier is the emission boundary services depend on. Emission is
// best-effort: a lost notification never fails the business operation.
type Notifier interface {
	Emit(ctx context.Context, event Event)
}
