package connection

import (
	"context"

	id "kesher/pkg/domain"
)

// Store is the connection persistence boundary. Every mutation is a single
// atomic conditional update on one row; callers never read-modify-write
// across two store calls. Implementations return sentinel errors:
// ErrNotFound (row absent), ErrConflict (active pair exists),
// ErrInvalidState (conditional update predicate failed).
type Store interface {
	FindByID(ctx context.Context, connID id.ConnectionID) (*Connection, error)

	// FindActiveByPair returns the single non-terminal connection for the
	// unordered pair, or ErrNotFound.
	FindActiveByPair(ctx context.Context, a, b id.UserID) (*Connection, error)

	// CreateIfNoneActive inserts the connection unless an active one already
	// exists for the pair (ErrConflict). Check and insert are one atomic step.
	CreateIfNoneActive(ctx context.Context, conn *Connection) error

	// UpdateStatusIf transitions status from→to atomically, returning the
	// updated row. ErrInvalidState when the row is not in `from`.
	UpdateStatusIf(ctx context.Context, connID id.ConnectionID, from, to Status) (*Connection, error)

	// SetFinalApproval atomically sets the given side's final-approval flag.
	// Requires mutual_interest; when both flags become true the same step
	// transitions status to waiting_for_shadchan and reports transitioned.
	// Re-approving after the transition is a no-op success. Other states
	// yield ErrInvalidState.
	SetFinalApproval(ctx context.Context, connID id.ConnectionID, side Side) (conn *Connection, transitioned bool, err error)

	ListByStatus(ctx context.Context, status Status) ([]*Connection, error)
	ListByUser(ctx context.Context, userID id.UserID) ([]*Connection, error)
}
