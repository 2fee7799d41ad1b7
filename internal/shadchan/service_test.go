package shadchan

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/suite"

	"kesher/internal/connection"
	"kesher/internal/platform/metrics"
	"kesher/internal/user"
	id "kesher/pkg/domain"
	pkgerrors "kesher/pkg/domain-errors"
)

type ServiceSuite struct {
	suite.Suite
	service     *Service
	connections *connection.InMemoryStore
	users       *user.InMemoryStore
	ctx         context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.connections = connection.NewInMemoryStore()
	s.users = user.NewInMemoryStore()
	s.service = NewService(s.connections, s.users, metrics.NewForTest(), slog.New(slog.DiscardHandler))
	s.ctx = context.Background()
}

func (s *ServiceSuite) SetupSubTest() {
	s.SetupTest()
}

func (s *ServiceSuite) seedUser(name, phone string) id.UserID {
	u := &user.User{
		ID:         id.NewUserID(),
		FirstName:  name,
		Phone:      phone,
		References: "Rav Cohen 02-555-1234",
		IsApproved: true,
	}
	s.Require().NoError(s.users.Save(s.ctx, u))
	return u.ID
}

func (s *ServiceSuite) seedConnection(status connection.Status) *connection.Connection {
	conn := &connection.Connection{
		ID:         id.NewConnectionID(),
		SenderID:   s.seedUser("Dovid", "050-000-0001"),
		ReceiverID: s.seedUser("Rivka", "050-000-0002"),
		Status:     status,
	}
	s.Require().NoError(s.connections.CreateIfNoneActive(s.ctx, conn))
	return conn
}

func (s *ServiceSuite) TestListReadyCases() {
	s.Run("returns waiting cases with both contact cards", func() {
		conn := s.seedConnection(connection.StatusWaitingForShadchan)
		s.seedConnection(connection.StatusPending)

		cases, err := s.service.ListReadyCases(s.ctx)
		s.Require().NoError(err)
		s.Require().Len(cases, 1)
		s.Equal(conn.ID, cases[0].ConnectionID)
		s.Equal("Dovid", cases[0].Sender.FullName)
		s.Equal("Rivka", cases[0].Receiver.FullName)
		s.NotEmpty(cases[0].Sender.References)
	})

	s.Run("missing participant yields an empty card, not an error", func() {
		conn := s.seedConnection(connection.StatusWaitingForShadchan)
		ghost := &connection.Connection{
			ID:         id.NewConnectionID(),
			SenderID:   id.NewUserID(),
			ReceiverID: conn.ReceiverID,
			Status:     connection.StatusWaitingForShadchan,
		}
		s.Require().NoError(s.connections.CreateIfNoneActive(s.ctx, ghost))

		cases, err := s.service.ListReadyCases(s.ctx)
		s.Require().NoError(err)
		s.Require().Len(cases, 2)
	})
}

func (s *ServiceSuite) TestMarkHandled() {
	s.Run("closes a waiting case", func() {
		conn := s.seedConnection(connection.StatusWaitingForShadchan)

		handled, err := s.service.MarkHandled(s.ctx, conn.ID)
		s.Require().NoError(err)
		s.Equal(connection.StatusHandled, handled.Status)
	})

	s.Run("marking twice is a no-op success", func() {
		conn := s.seedConnection(connection.StatusWaitingForShadchan)
		_, err := s.service.MarkHandled(s.ctx, conn.ID)
		s.Require().NoError(err)

		handled, err := s.service.MarkHandled(s.ctx, conn.ID)
		s.Require().NoError(err)
		s.Equal(connection.StatusHandled, handled.Status)
	})

	s.Run("rejects cases that are not waiting", func() {
		conn := s.seedConnection(connection.StatusMutualInterest)
		_, err := s.service.MarkHandled(s.ctx, conn.ID)
		s.Require().True(pkgerrors.HasCode(err, pkgerrors.CodeInvalidState))
	})

	s.Run("unknown case is not found", func() {
		_, err := s.service.MarkHandled(s.ctx, id.NewConnectionID())
		s.Require().True(pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
	})
}
