package visibility

import (
	"context"

	id "kesher/pkg/domain"
)

// Store persists visibility grants keyed by (owner, requester).
//
// RequestPending returns the grant and whether a fresh pending entry was
// created or reset. An auto_approved grant is returned untouched with
// reset=false; the sticky check and the pending write are one atomic step.
// SetState overwrites the state of an existing grant (ErrNotFound when the
// pair has none).
type Store interface {
	Find(ctx context.Context, ownerID, requesterID id.UserID) (*Grant, error)
	RequestPending(ctx context.Context, ownerID, requesterID id.UserID) (*Grant, bool, error)
	SetState(ctx context.Context, ownerID, requesterID id.UserID, state State) (*Grant, error)
	ListPendingForOwner(ctx context.Context, ownerID id.UserID) ([]*Grant, error)
}
