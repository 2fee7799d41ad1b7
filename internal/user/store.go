package user

import (
	"context"

	id "kesher/pkg/domain"
)

// Store is the user-record persistence boundary. Implementations return
// sentinel.ErrNotFound for missing records.
type Store interface {
	FindByID(ctx context.Context, userID id.UserID) (*User, error)
	Save(ctx context.Context, u *User) error
}
