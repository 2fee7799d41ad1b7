package profileedit

import (
	"context"

	id "kesher/pkg/domain"
)

// Store persists pending edit requests.
//
// Put replaces any existing request for the same user. Delete removes a
// request by id (ErrNotFound when already resolved).
type Store interface {
	Put(ctx context.Context, req *EditRequest) error
	FindByID(ctx context.Context, reqID id.EditRequestID) (*EditRequest, error)
	FindByUser(ctx context.Context, userID id.UserID) (*EditRequest, error)
	Delete(ctx context.Context, reqID id.EditRequestID) error
	List(ctx context.Context) ([]*EditRequest, error)
}
