package testutil

import (
	"context"
	"net/http"

	id "kesher/pkg/domain"
	"kesher/pkg/requestcontext"
)

// WithUserID adds a verified user identity to the request context.
// This simulates what the auth middleware does for authenticated requests.
// If the userID is not a valid UUID, it will not be added to the context.
func WithUserID(req *http.Request, userID string) *http.Request {
	if parsedUserID, err := id.ParseUserID(userID); err == nil {
		return req.WithContext(requestcontext.WithUserID(req.Context(), parsedUserID))
	}
	return req
}

// WithAdmin adds a verified admin identity to the request context.
// Invalid IDs are silently ignored.
func WithAdmin(req *http.Request, userID string) *http.Request {
	ctx := req.Context()
	if parsedUserID, err := id.ParseUserID(userID); err == nil {
		ctx = requestcontext.WithUserID(ctx, parsedUserID)
	}
	ctx = requestcontext.WithAdmin(ctx, true)
	return req.WithContext(ctx)
}

// WithContextValue adds an arbitrary key-value pair to the request context.
func WithContextValue(req *http.Request, key, value any) *http.Request {
	ctx := context.WithValue(req.Context(), key, value)
	return req.WithContext(ctx)
}
