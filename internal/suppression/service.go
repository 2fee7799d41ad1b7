package suppression

import (
	"context"
	"log/slog"

	id "kesher/pkg/domain"
	pkgerrors "kesher/pkg/domain-errors"
)

// Service manages per-viewer hidden profiles. Hiding is a browsing filter
// only; it never touches connection or visibility state.
type Service struct {
	store  Store
	logger *slog.Logger
}

func NewService(store Store, logger *slog.Logger) *Service {
	return &Service{store: store, logger: logger}
}

func (s *Service) Hide(ctx context.Context, viewerID, targetID id.UserID) error {
	if viewerID == targetID {
		return pkgerrors.New(pkgerrors.CodeBadRequest, "cannot hide your own profile")
	}
	if err := s.store.Hide(ctx, viewerID, targetID); err != nil {
		return pkgerrors.Wrap(err, pkgerrors.CodeInternal, "failed to hide profile")
	}
	s.logger.InfoContext(ctx, "profile hidden", "viewer_id", viewerID, "hidden_id", targetID)
	return nil
}

func (s *Service) Unhide(ctx context.Context, viewerID, targetID id.UserID) error {
	if err := s.store.Unhide(ctx, viewerID, targetID); err != nil {
		return pkgerrors.Wrap(err, pkgerrors.CodeInternal, "failed to unhide profile")
	}
	s.logger.InfoContext(ctx, "profile unhidden", "viewer_id", viewerID, "hidden_id", targetID)
	return nil
}

// IsHidden reports whether the viewer suppressed the target. Used by the
// browsing collaborator to filter results.
func (s *Service) IsHidden(ctx context.Context, viewerID, targetID id.UserID) (bool, error) {
	hidden, err := s.store.IsHidden(ctx, viewerID, targetID)
	if err != nil {
		return false, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "failed to check suppression")
	}
	return hidden, nil
}

func (s *Service) ListHidden(ctx context.Context, viewerID id.UserID) ([]*Entry, error) {
	entries, err := s.store.ListHidden(ctx, viewerID)
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "failed to list hidden profiles")
	}
	return entries, nil
}
