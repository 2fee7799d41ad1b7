package connection

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"kesher/internal/notification"
	"kesher/internal/platform/metrics"
	"kesher/internal/user"
	id "kesher/pkg/domain"
	pkgerrors "kesher/pkg/domain-errors"
	"kesher/pkg/platform/sentinel"
)

// UserDirectory is the slice of the user store the connection flow needs.
type UserDirectory interface {
	FindByID(ctx context.Context, userID id.UserID) (*user.User, error)
}

// Service orchestrates the connection lifecycle. It keeps state transitions in
// the store's atomic primitives and layers participant checks, notifications
// and metrics on top.
type Service struct {
	store    Store
	users    UserDirectory
	notifier notification.Notifier
	metrics  *metrics.Metrics
	logger   *slog.Logger
	tracer   trace.Tracer
}

func NewService(store Store, users UserDirectory, notifier notification.Notifier, m *metrics.Metrics, logger *slog.Logger) *Service {
	return &Service{
		store:    store,
		users:    users,
		notifier: notifier,
		metrics:  m,
		logger:   logger,
		tracer:   otel.Tracer("kesher/internal/connection"),
	}
}

// Request opens a connection from sender to target. When the target already
// has a pending request toward the sender, the two requests merge: the
// existing connection is promoted to mutual interest instead of creating a
// duplicate in the opposite direction.
func (s *Service) Request(ctx context.Context, senderID, targetID id.UserID) (*Connection, error) {
	ctx, span := s.tracer.Start(ctx, "connection.Request",
		trace.WithAttributes(attribute.String("sender_id", senderID.String())))
	defer span.End()

	if senderID == targetID {
		return nil, pkgerrors.New(pkgerrors.CodeBadRequest, "cannot request a connection with yourself")
	}
	target, err := s.users.FindByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "failed to look up user")
	}
	// A blocked profile is indistinguishable from a missing one.
	if target.IsBlocked {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}

	if existing, err := s.store.FindActiveByPair(ctx, senderID, targetID); err == nil {
		if existing.Status == StatusPending && existing.SenderID == targetID {
			return s.promoteCrossRequest(ctx, existing)
		}
		return nil, pkgerrors.New(pkgerrors.CodeDuplicateConnection, "an active connection already exists for this pair")
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "failed to check existing connections")
	}

	conn := &Connection{
		ID:         id.NewConnectionID(),
		SenderID:   senderID,
		ReceiverID: targetID,
		Status:     StatusPending,
	}
	if err := s.store.CreateIfNoneActive(ctx, conn); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, pkgerrors.New(pkgerrors.CodeDuplicateConnection, "an active connection already exists for this pair")
		}
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "failed to create connection")
	}
	s.metrics.ConnectionsCreated.Inc()
	s.notifier.Emit(ctx, notification.Event{
		Kind:         notification.KindConnectionRequested,
		RecipientID:  targetID,
		ActorID:      senderID,
		ConnectionID: conn.ID,
	})
	s.logger.InfoContext(ctx, "connection requested",
		"connection_id", conn.ID, "sender_id", senderID, "receiver_id", targetID)
	return conn, nil
}

// promoteCrossRequest handles the sender requesting someone who already
// requested them. Both sides have now expressed interest.
func (s *Service) promoteCrossRequest(ctx context.Context, existing *Connection) (*Connection, error) {
	conn, err := s.store.UpdateStatusIf(ctx, existing.ID, StatusPending, StatusMutualInterest)
	if err != nil {
		if errors.Is(err, sentinel.ErrInvalidState) {
			// Raced with a respond call; the pair is still active either way.
			return nil, pkgerrors.New(pkgerrors.CodeDuplicateConnection, "an active connection already exists for this pair")
		}
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "connection not found")
		}
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "failed to update connection")
	}
	s.metrics.ConnectionTransitions.WithLabelValues(string(StatusMutualInterest)).Inc()
	s.notifier.Emit(ctx, notification.Event{
		Kind:         notification.KindConnectionApproved,
		RecipientID:  conn.SenderID,
		ActorID:      conn.ReceiverID,
		ConnectionID: conn.ID,
	})
	s.logger.InfoContext(ctx, "cross request promoted to mutual interest", "connection_id", conn.ID)
	return conn, nil
}

// Respond records the receiver's answer to a pending request.
func (s *Service) Respond(ctx context.Context, callerID id.UserID, connID id.ConnectionID, decision Decision) (*Connection, error) {
	ctx, span := s.tracer.Start(ctx, "connection.Respond",
		trace.WithAttributes(attribute.String("decision", string(decision))))
	defer span.End()

	conn, err := s.loadForParticipant(ctx, callerID, connID)
	if err != nil {
		return nil, err
	}
	if callerID != conn.ReceiverID {
		return nil, pkgerrors.New(pkgerrors.CodeNotParticipant, "only the receiver may respond to a request")
	}

	to := StatusMutualInterest
	kind := notification.KindConnectionApproved
	if decision == DecisionReject {
		to = StatusRejected
		kind = notification.KindConnectionRejected
	}
	updated, err := s.store.UpdateStatusIf(ctx, connID, StatusPending, to)
	if err != nil {
		if errors.Is(err, sentinel.ErrInvalidState) {
			return nil, pkgerrors.New(pkgerrors.CodeInvalidState, "connection is not pending")
		}
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "connection not found")
		}
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "failed to update connection")
	}
	s.metrics.ConnectionTransitions.WithLabelValues(string(to)).Inc()
	s.notifier.Emit(ctx, notification.Event{
		Kind:         kind,
		RecipientID:  updated.SenderID,
		ActorID:      callerID,
		ConnectionID: updated.ID,
	})
	s.logger.InfoContext(ctx, "connection responded",
		"connection_id", updated.ID, "status", updated.Status)
	return updated, nil
}

// FinalApprove records the caller's final approval. When the second side
// approves, the connection moves to waiting_for_shadchan and both
// participants are notified exactly once, no matter how the two calls
// interleave.
func (s *Service) FinalApprove(ctx context.Context, callerID id.UserID, connID id.ConnectionID) (*Connection, error) {
	ctx, span := s.tracer.Start(ctx, "connection.FinalApprove")
	defer span.End()

	conn, err := s.loadForParticipant(ctx, callerID, connID)
	if err != nil {
		return nil, err
	}
	side, ok := conn.SideOf(callerID)
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotParticipant, "caller is not a participant of this connection")
	}

	updated, transitioned, err := s.store.SetFinalApproval(ctx, connID, side)
	if err != nil {
		if errors.Is(err, sentinel.ErrInvalidState) {
			return nil, pkgerrors.New(pkgerrors.CodeInvalidState, "connection is not awaiting final approval")
		}
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "connection not found")
		}
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "failed to record final approval")
	}
	if transitioned {
		s.metrics.ConnectionTransitions.WithLabelValues(string(StatusWaitingForShadchan)).Inc()
		for _, recipient := range []id.UserID{updated.SenderID, updated.ReceiverID} {
			s.notifier.Emit(ctx, notification.Event{
				Kind:         notification.KindConnectionMatched,
				RecipientID:  recipient,
				ActorID:      callerID,
				ConnectionID: updated.ID,
			})
		}
		s.logger.InfoContext(ctx, "connection waiting for shadchan", "connection_id", updated.ID)
	}
	return updated, nil
}

// ListForUser returns every connection the user participates in, oldest first.
func (s *Service) ListForUser(ctx context.Context, userID id.UserID) ([]*Connection, error) {
	conns, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "failed to list connections")
	}
	return conns, nil
}

// Get returns a single connection, visible only to its participants.
func (s *Service) Get(ctx context.Context, callerID id.UserID, connID id.ConnectionID) (*Connection, error) {
	return s.loadForParticipant(ctx, callerID, connID)
}

func (s *Service) loadForParticipant(ctx context.Context, callerID id.UserID, connID id.ConnectionID) (*Connection, error) {
	conn, err := s.store.FindByID(ctx, connID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "connection not found")
		}
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "failed to load connection")
	}
	if !conn.IsParticipant(callerID) {
		return nil, pkgerrors.New(pkgerrors.CodeNotParticipant, "caller is not a participant of this connection")
	}
	return conn, nil
}
