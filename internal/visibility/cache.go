package visibility

import (
	"context"

	id "kesher/pkg/domain"
)

// Cache is a read-through cache for CanView lookups. A miss or any cache
// failure falls back to the store; decisions always invalidate the pair.
type Cache interface {
	GetCanView(ctx context.Context, ownerID, requesterID id.UserID) (canView bool, hit bool)
	SetCanView(ctx context.Context, ownerID, requesterID id.UserID, canView bool)
	Invalidate(ctx context.Context, ownerID, requesterID id.UserID)
}

// NoopCache disables caching; every lookup goes to the store.
type NoopCache struct{}

func (NoopCache) GetCanView(context.Context, id.UserID, id.UserID) (bool, bool) { return false, false }
func (NoopCache) SetCanView(context.Context, id.UserID, id.UserID, bool)       {}
func (NoopCache) Invalidate(context.Context, id.UserID, id.UserID)             {}
