package profileedit

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"kesher/internal/notification"
	"kesher/internal/platform/metrics"
	"kesher/internal/user"
	id "kesher/pkg/domain"
	pkgerrors "kesher/pkg/domain-errors"
	"kesher/pkg/platform/sentinel"
	"kesher/pkg/platform/tx"
)

// Service moderates profile edits of already-approved users. Edits from
// unapproved users never enter this queue; their profile subsystem applies
// changes directly.
type Service struct {
	store    Store
	users    user.Store
	runner   tx.Runner
	notifier notification.Notifier
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

func NewService(store Store, users user.Store, runner tx.Runner, notifier notification.Notifier, m *metrics.Metrics, logger *slog.Logger) *Service {
	return &Service{
		store:    store,
		users:    users,
		runner:   runner,
		notifier: notifier,
		metrics:  m,
		logger:   logger,
	}
}

// Submit queues a profile diff for moderation, replacing any prior pending
// diff for the same user.
func (s *Service) Submit(ctx context.Context, userID id.UserID, fields map[string]json.RawMessage) (*EditRequest, error) {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "failed to look up user")
	}
	if !u.IsApproved {
		return nil, pkgerrors.New(pkgerrors.CodeNotApproved, "profile edits require an approved profile")
	}
	if len(fields) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeBadRequest, "no fields to change")
	}
	changes, err := user.ParseChanges(fields)
	if err != nil {
		return nil, err
	}

	req := &EditRequest{
		ID:          id.NewEditRequestID(),
		UserID:      userID,
		Changes:     changes,
		IsSensitive: user.IsSensitiveChange(changes),
		SubmittedAt: time.Now(),
	}
	if err := s.store.Put(ctx, req); err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "failed to queue profile edit")
	}
	s.logger.InfoContext(ctx, "profile edit submitted",
		"request_id", req.ID, "user_id", userID, "sensitive", req.IsSensitive)
	return req, nil
}

// Approve merges the pending diff into the user record and resolves the
// request. Fields outside the diff are untouched.
func (s *Service) Approve(ctx context.Context, reqID id.EditRequestID) error {
	req, err := s.load(ctx, reqID)
	if err != nil {
		return err
	}
	u, err := s.users.FindByID(ctx, req.UserID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return pkgerrors.Wrap(err, pkgerrors.CodeInternal, "failed to look up user")
	}

	u.ApplyChanges(req.Changes)
	// The merge and the queue removal must land together, otherwise a crash
	// in between leaves an applied edit still pending for re-approval.
	err = s.runner.InTx(ctx, func(ctx context.Context) error {
		if err := s.users.Save(ctx, u); err != nil {
			return pkgerrors.Wrap(err, pkgerrors.CodeInternal, "failed to apply profile edit")
		}
		if err := s.store.Delete(ctx, reqID); err != nil && !errors.Is(err, sentinel.ErrNotFound) {
			return pkgerrors.Wrap(err, pkgerrors.CodeInternal, "failed to resolve profile edit")
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.metrics.ProfileEditDecisions.WithLabelValues("approved").Inc()
	s.notifier.Emit(ctx, notification.Event{
		Kind:        notification.KindProfileEditApproved,
		RecipientID: req.UserID,
	})
	s.logger.InfoContext(ctx, "profile edit approved", "request_id", reqID, "user_id", req.UserID)
	return nil
}

// Reject discards the pending diff and forwards the reason to the user.
func (s *Service) Reject(ctx context.Context, reqID id.EditRequestID, reason string) error {
	if reason == "" {
		return pkgerrors.New(pkgerrors.CodeBadRequest, "a rejection reason is required")
	}
	req, err := s.load(ctx, reqID)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, reqID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "profile edit request not found")
		}
		return pkgerrors.Wrap(err, pkgerrors.CodeInternal, "failed to resolve profile edit")
	}

	s.metrics.ProfileEditDecisions.WithLabelValues("rejected").Inc()
	s.notifier.Emit(ctx, notification.Event{
		Kind:        notification.KindProfileEditRejected,
		RecipientID: req.UserID,
		Reason:      reason,
	})
	s.logger.InfoContext(ctx, "profile edit rejected", "request_id", reqID, "user_id", req.UserID)
	return nil
}

// Pending returns the user's outstanding request, if any.
func (s *Service) Pending(ctx context.Context, userID id.UserID) (*EditRequest, error) {
	req, err := s.store.FindByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no pending profile edit")
		}
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "failed to load profile edit")
	}
	return req, nil
}

// List returns every outstanding request, oldest first, for the moderation
// queue view.
func (s *Service) List(ctx context.Context) ([]*EditRequest, error) {
	reqs, err := s.store.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "failed to list profile edits")
	}
	return reqs, nil
}

func (s *Service) load(ctx context.Context, reqID id.EditRequestID) (*EditRequest, error) {
	req, err := s.store.FindByID(ctx, reqID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "profile edit request not found")
		}
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "failed to load profile edit")
	}
	return req, nil
}
