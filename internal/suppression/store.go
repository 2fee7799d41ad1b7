package suppression

import (
	"context"

	id "kesher/pkg/domain"
)

// Store persists suppression entries. Hide and Unhide are idempotent; neither
// reports an error when the entry already exists or is already gone.
type Store interface {
	Hide(ctx context.Context, viewerID, hiddenID id.UserID) error
	Unhide(ctx context.Context, viewerID, hiddenID id.UserID) error
	IsHidden(ctx context.Context, viewerID, hiddenID id.UserID) (bool, error)
	ListHidden(ctx context.Context, viewerID id.UserID) ([]*Entry, error)
}
