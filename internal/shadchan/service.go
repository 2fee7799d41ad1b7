package shadchan

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"kesher/internal/connection"
	"kesher/internal/platform/metrics"
	"kesher/internal/user"
	id "kesher/pkg/domain"
	pkgerrors "kesher/pkg/domain-errors"
	"kesher/pkg/platform/sentinel"
)

// Case is a matched pair ready for the shadchan to contact. This is the only
// place contact and reference details of both sides surface together.
type Case struct {
	ConnectionID id.ConnectionID
	MatchedAt    time.Time
	Sender       user.ContactCard
	Receiver     user.ContactCard
}

// UserDirectory is the slice of the user store the handoff view needs.
type UserDirectory interface {
	FindByID(ctx context.Context, userID id.UserID) (*user.User, error)
}

// Service hands matched connections over to the shadchan.
type Service struct {
	connections connection.Store
	users       UserDirectory
	metrics     *metrics.Metrics
	logger      *slog.Logger
}

func NewService(connections connection.Store, users UserDirectory, m *metrics.Metrics, logger *slog.Logger) *Service {
	return &Service{
		connections: connections,
		users:       users,
		metrics:     m,
		logger:      logger,
	}
}

// ListReadyCases returns every connection waiting for the shadchan, oldest
// first, with both participants' contact cards.
func (s *Service) ListReadyCases(ctx context.Context) ([]*Case, error) {
	conns, err := s.connections.ListByStatus(ctx, connection.StatusWaitingForShadchan)
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "failed to list waiting cases")
	}

	cases := make([]*Case, 0, len(conns))
	for _, conn := range conns {
		sender, err := s.contactCard(ctx, conn.SenderID)
		if err != nil {
			return nil, err
		}
		receiver, err := s.contactCard(ctx, conn.ReceiverID)
		if err != nil {
			return nil, err
		}
		cases = append(cases, &Case{
			ConnectionID: conn.ID,
			MatchedAt:    conn.UpdatedAt,
			Sender:       sender,
			Receiver:     receiver,
		})
	}
	return cases, nil
}

func (s *Service) contactCard(ctx context.Context, userID id.UserID) (user.ContactCard, error) {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			// Participant record was removed; surface an empty card rather
			// than hiding the whole case.
			return user.ContactCard{UserID: userID}, nil
		}
		return user.ContactCard{}, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "failed to load participant")
	}
	return u.ContactCard(), nil
}

// MarkHandled closes a waiting case. Re-invoking on an already handled case
// succeeds without a second transition.
func (s *Service) MarkHandled(ctx context.Context, connID id.ConnectionID) (*connection.Connection, error) {
	conn, err := s.connections.UpdateStatusIf(ctx, connID,
		connection.StatusWaitingForShadchan, connection.StatusHandled)
	if err == nil {
		s.metrics.ConnectionTransitions.WithLabelValues(string(connection.StatusHandled)).Inc()
		s.logger.InfoContext(ctx, "case handled", "connection_id", connID)
		return conn, nil
	}

	if errors.Is(err, sentinel.ErrInvalidState) {
		current, findErr := s.connections.FindByID(ctx, connID)
		if findErr == nil && current.Status == connection.StatusHandled {
			return current, nil
		}
		return nil, pkgerrors.New(pkgerrors.CodeInvalidState, "connection is not waiting for the shadchan")
	}
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "connection not found")
	}
	return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "failed to mark case handled")
}
