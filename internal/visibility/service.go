package visibility

import (
	"context"
	"errors"
	"log/slog"

	"kesher/internal/notification"
	"kesher/internal/platform/metrics"
	"kesher/internal/user"
	id "kesher/pkg/domain"
	pkgerrors "kesher/pkg/domain-errors"
	"kesher/pkg/platform/sentinel"
)

// UserDirectory is the slice of the user store visibility checks need.
type UserDirectory interface {
	FindByID(ctx context.Context, userID id.UserID) (*user.User, error)
}

// Service manages per-pair photo visibility consent.
type Service struct {
	store    Store
	cache    Cache
	users    UserDirectory
	notifier notification.Notifier
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

func NewService(store Store, cache Cache, users UserDirectory, notifier notification.Notifier, m *metrics.Metrics, logger *slog.Logger) *Service {
	return &Service{
		store:    store,
		cache:    cache,
		users:    users,
		notifier: notifier,
		metrics:  m,
		logger:   logger,
	}
}

// Request asks the owner for photo visibility. A sticky auto_approved grant
// resolves immediately; anything else becomes a fresh pending entry and the
// owner is notified.
func (s *Service) Request(ctx context.Context, requesterID, ownerID id.UserID) (*Grant, error) {
	if requesterID == ownerID {
		return nil, pkgerrors.New(pkgerrors.CodeBadRequest, "cannot request visibility of your own photos")
	}
	owner, err := s.users.FindByID(ctx, ownerID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "failed to look up user")
	}
	if owner.IsBlocked {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}

	grant, reset, err := s.store.RequestPending(ctx, ownerID, requesterID)
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "failed to record visibility request")
	}
	if reset {
		s.cache.Invalidate(ctx, ownerID, requesterID)
		s.notifier.Emit(ctx, notification.Event{
			Kind:        notification.KindVisibilityRequested,
			RecipientID: ownerID,
			ActorID:     requesterID,
		})
		s.logger.InfoContext(ctx, "visibility requested",
			"owner_id", ownerID, "requester_id", requesterID)
	}
	return grant, nil
}

// Respond records the owner's decision for one requester. Only the grant's
// owner may respond.
func (s *Service) Respond(ctx context.Context, callerID, ownerID, requesterID id.UserID, decision Decision) (*Grant, error) {
	if callerID != ownerID {
		return nil, pkgerrors.New(pkgerrors.CodeNotOwner, "only the photo owner may respond to a visibility request")
	}

	grant, err := s.store.SetState(ctx, ownerID, requesterID, decision.StateOf())
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "visibility request not found")
		}
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "failed to record visibility decision")
	}

	s.cache.Invalidate(ctx, ownerID, requesterID)
	s.metrics.VisibilityDecisions.WithLabelValues(string(grant.State)).Inc()
	s.notifier.Emit(ctx, notification.Event{
		Kind:        notification.KindVisibilityResponded,
		RecipientID: requesterID,
		ActorID:     ownerID,
	})
	s.logger.InfoContext(ctx, "visibility decision recorded",
		"owner_id", ownerID, "requester_id", requesterID, "state", grant.State)
	return grant, nil
}

// CanView reports whether the requester may see the owner's photos. It is a
// pure read used by the photo-serving path, cached per pair.
func (s *Service) CanView(ctx context.Context, requesterID, ownerID id.UserID) (bool, error) {
	if requesterID == ownerID {
		return true, nil
	}
	if canView, hit := s.cache.GetCanView(ctx, ownerID, requesterID); hit {
		return canView, nil
	}

	grant, err := s.store.Find(ctx, ownerID, requesterID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.cache.SetCanView(ctx, ownerID, requesterID, false)
			return false, nil
		}
		return false, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "failed to check visibility")
	}
	canView := grant.State.Viewable()
	s.cache.SetCanView(ctx, ownerID, requesterID, canView)
	return canView, nil
}

// ListPending returns the open requests awaiting the owner's decision.
func (s *Service) ListPending(ctx context.Context, ownerID id.UserID) ([]*Grant, error) {
	grants, err := s.store.ListPendingForOwner(ctx, ownerID)
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "failed to list visibility requests")
	}
	return grants, nil
}
