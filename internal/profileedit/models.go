package profileedit

import (
	"time"

	"kesher/internal/user"
	id "kesher/pkg/domain"
)

// EditRequest is one user's outstanding profile diff awaiting moderation.
// A user has at most one; resubmitting replaces it.
type EditRequest struct {
	ID          id.EditRequestID
	UserID      id.UserID
	Changes     map[string]user.FieldValue
	IsSensitive bool
	SubmittedAt time.Time
}
