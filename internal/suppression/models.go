package suppression

import (
	"time"

	id "kesher/pkg/domain"
)

// Entry hides one candidate from one viewer's browsing results. It never
// expires and has no effect on connection or visibility state.
type Entry struct {
	ViewerID     id.UserID
	HiddenUserID id.UserID
	CreatedAt    time.Time
}
