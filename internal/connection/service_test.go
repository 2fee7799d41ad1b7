package connection

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"

	"kesher/internal/notification"
	"kesher/internal/platform/metrics"
	"kesher/internal/user"
	id "kesher/pkg/domain"
	pkgerrors "kesher/pkg/domain-errors"
)

type ServiceSuite struct {
	suite.Suite
	service  *Service
	store    *InMemoryStore
	users    *user.InMemoryStore
	recorder *notification.Recorder
	ctx      context.Context

	sender   id.UserID
	receiver id.UserID
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.store = NewInMemoryStore()
	s.users = user.NewInMemoryStore()
	s.recorder = notification.NewRecorder()
	s.service = NewService(s.store, s.users, s.recorder, metrics.NewForTest(), slog.New(slog.DiscardHandler))
	s.ctx = context.Background()

	s.sender = s.seedUser()
	s.receiver = s.seedUser()
}

func (s *ServiceSuite) SetupSubTest() {
	// TestGet builds its fixture in the method body and its subtests read
	// that shared state, so it must not be reset between subtests.
	if strings.Contains(s.T().Name(), "/TestGet/") {
		return
	}
	s.SetupTest()
}

func (s *ServiceSuite) seedUser() id.UserID {
	u := &user.User{ID: id.NewUserID(), IsApproved: true}
	s.Require().NoError(s.users.Save(s.ctx, u))
	return u.ID
}

func (s *ServiceSuite) TestRequest() {
	s.Run("creates a pending connection and notifies the target", func() {
		conn, err := s.service.Request(s.ctx, s.sender, s.receiver)
		s.Require().NoError(err)
		s.Equal(StatusPending, conn.Status)
		s.Equal(s.sender, conn.SenderID)
		s.Equal(s.receiver, conn.ReceiverID)

		events := s.recorder.ByKind(notification.KindConnectionRequested)
		s.Require().Len(events, 1)
		s.Equal(s.receiver, events[0].RecipientID)
		s.Equal(s.sender, events[0].ActorID)
	})

	s.Run("rejects a self request", func() {
		_, err := s.service.Request(s.ctx, s.sender, s.sender)
		s.Require().True(pkgerrors.HasCode(err, pkgerrors.CodeBadRequest))
	})

	s.Run("reports unknown target as not found", func() {
		_, err := s.service.Request(s.ctx, s.sender, id.NewUserID())
		s.Require().True(pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
	})

	s.Run("reports blocked target as not found", func() {
		blocked := &user.User{ID: id.NewUserID(), IsApproved: true, IsBlocked: true}
		s.Require().NoError(s.users.Save(s.ctx, blocked))
		_, err := s.service.Request(s.ctx, s.sender, blocked.ID)
		s.Require().True(pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
	})

	s.Run("rejects a duplicate request for an active pair", func() {
		_, err := s.service.Request(s.ctx, s.sender, s.receiver)
		s.Require().NoError(err)
		_, err = s.service.Request(s.ctx, s.sender, s.receiver)
		s.Require().True(pkgerrors.HasCode(err, pkgerrors.CodeDuplicateConnection))
	})

	s.Run("cross request promotes the pending connection", func() {
		original, err := s.service.Request(s.ctx, s.sender, s.receiver)
		s.Require().NoError(err)

		promoted, err := s.service.Request(s.ctx, s.receiver, s.sender)
		s.Require().NoError(err)
		s.Equal(original.ID, promoted.ID)
		s.Equal(StatusMutualInterest, promoted.Status)

		events := s.recorder.ByKind(notification.KindConnectionApproved)
		s.Require().Len(events, 1)
		s.Equal(s.sender, events[0].RecipientID)
	})

	s.Run("allows a fresh request after rejection", func() {
		conn, err := s.service.Request(s.ctx, s.sender, s.receiver)
		s.Require().NoError(err)
		_, err = s.service.Respond(s.ctx, s.receiver, conn.ID, DecisionReject)
		s.Require().NoError(err)

		again, err := s.service.Request(s.ctx, s.sender, s.receiver)
		s.Require().NoError(err)
		s.NotEqual(conn.ID, again.ID)
		s.Equal(StatusPending, again.Status)
	})
}

func (s *ServiceSuite) TestRespond() {
	s.Run("receiver approval moves to mutual interest", func() {
		conn, err := s.service.Request(s.ctx, s.sender, s.receiver)
		s.Require().NoError(err)

		updated, err := s.service.Respond(s.ctx, s.receiver, conn.ID, DecisionApprove)
		s.Require().NoError(err)
		s.Equal(StatusMutualInterest, updated.Status)

		events := s.recorder.ByKind(notification.KindConnectionApproved)
		s.Require().Len(events, 1)
		s.Equal(s.sender, events[0].RecipientID)
	})

	s.Run("receiver rejection is terminal", func() {
		conn, err := s.service.Request(s.ctx, s.sender, s.receiver)
		s.Require().NoError(err)

		updated, err := s.service.Respond(s.ctx, s.receiver, conn.ID, DecisionReject)
		s.Require().NoError(err)
		s.Equal(StatusRejected, updated.Status)

		events := s.recorder.ByKind(notification.KindConnectionRejected)
		s.Require().Len(events, 1)
		s.Equal(s.sender, events[0].RecipientID)
	})

	s.Run("sender may not respond to their own request", func() {
		conn, err := s.service.Request(s.ctx, s.sender, s.receiver)
		s.Require().NoError(err)

		_, err = s.service.Respond(s.ctx, s.sender, conn.ID, DecisionApprove)
		s.Require().True(pkgerrors.HasCode(err, pkgerrors.CodeNotParticipant))
	})

	s.Run("outsider may not respond", func() {
		conn, err := s.service.Request(s.ctx, s.sender, s.receiver)
		s.Require().NoError(err)

		outsider := s.seedUser()
		_, err = s.service.Respond(s.ctx, outsider, conn.ID, DecisionApprove)
		s.Require().True(pkgerrors.HasCode(err, pkgerrors.CodeNotParticipant))
	})

	s.Run("responding twice fails with invalid state", func() {
		conn, err := s.service.Request(s.ctx, s.sender, s.receiver)
		s.Require().NoError(err)
		_, err = s.service.Respond(s.ctx, s.receiver, conn.ID, DecisionApprove)
		s.Require().NoError(err)

		_, err = s.service.Respond(s.ctx, s.receiver, conn.ID, DecisionApprove)
		s.Require().True(pkgerrors.HasCode(err, pkgerrors.CodeInvalidState))
	})

	s.Run("unknown connection is not found", func() {
		_, err := s.service.Respond(s.ctx, s.receiver, id.NewConnectionID(), DecisionApprove)
		s.Require().True(pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
	})
}

func (s *ServiceSuite) mutualConnection() *Connection {
	conn, err := s.service.Request(s.ctx, s.sender, s.receiver)
	s.Require().NoError(err)
	_, err = s.service.Respond(s.ctx, s.receiver, conn.ID, DecisionApprove)
	s.Require().NoError(err)
	return conn
}

func (s *ServiceSuite) TestFinalApprove() {
	s.Run("one side alone does not transition", func() {
		conn := s.mutualConnection()
		updated, err := s.service.FinalApprove(s.ctx, s.sender, conn.ID)
		s.Require().NoError(err)
		s.Equal(StatusMutualInterest, updated.Status)
		s.Empty(s.recorder.ByKind(notification.KindConnectionMatched))
	})

	s.Run("both sides transition and notify both participants", func() {
		conn := s.mutualConnection()
		_, err := s.service.FinalApprove(s.ctx, s.sender, conn.ID)
		s.Require().NoError(err)

		updated, err := s.service.FinalApprove(s.ctx, s.receiver, conn.ID)
		s.Require().NoError(err)
		s.Equal(StatusWaitingForShadchan, updated.Status)

		events := s.recorder.ByKind(notification.KindConnectionMatched)
		s.Require().Len(events, 2)
		recipients := map[id.UserID]bool{events[0].RecipientID: true, events[1].RecipientID: true}
		s.True(recipients[s.sender])
		s.True(recipients[s.receiver])
	})

	s.Run("repeat approval after transition stays idempotent", func() {
		conn := s.mutualConnection()
		_, err := s.service.FinalApprove(s.ctx, s.sender, conn.ID)
		s.Require().NoError(err)
		_, err = s.service.FinalApprove(s.ctx, s.receiver, conn.ID)
		s.Require().NoError(err)

		updated, err := s.service.FinalApprove(s.ctx, s.receiver, conn.ID)
		s.Require().NoError(err)
		s.Equal(StatusWaitingForShadchan, updated.Status)
		s.Len(s.recorder.ByKind(notification.KindConnectionMatched), 2)
	})

	s.Run("pending connection rejects final approval", func() {
		conn, err := s.service.Request(s.ctx, s.sender, s.receiver)
		s.Require().NoError(err)
		_, err = s.service.FinalApprove(s.ctx, s.sender, conn.ID)
		s.Require().True(pkgerrors.HasCode(err, pkgerrors.CodeInvalidState))
	})

	s.Run("outsider may not approve", func() {
		conn := s.mutualConnection()
		outsider := s.seedUser()
		_, err := s.service.FinalApprove(s.ctx, outsider, conn.ID)
		s.Require().True(pkgerrors.HasCode(err, pkgerrors.CodeNotParticipant))
	})

	s.Run("simultaneous approvals produce exactly one match notification pair", func() {
		conn := s.mutualConnection()
		callers := []id.UserID{s.sender, s.receiver}
		var wg sync.WaitGroup
		for _, caller := range callers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := s.service.FinalApprove(s.ctx, caller, conn.ID)
				s.NoError(err)
			}()
		}
		wg.Wait()

		final, err := s.store.FindByID(s.ctx, conn.ID)
		s.Require().NoError(err)
		s.Equal(StatusWaitingForShadchan, final.Status)
		s.Len(s.recorder.ByKind(notification.KindConnectionMatched), 2)
	})
}

func (s *ServiceSuite) TestGet() {
	conn := s.mutualConnection()

	s.Run("participant can read the connection", func() {
		found, err := s.service.Get(s.ctx, s.sender, conn.ID)
		s.Require().NoError(err)
		s.Equal(conn.ID, found.ID)
	})

	s.Run("outsider cannot", func() {
		outsider := s.seedUser()
		_, err := s.service.Get(s.ctx, outsider, conn.ID)
		s.Require().True(pkgerrors.HasCode(err, pkgerrors.CodeNotParticipant))
	})
}

func (s *ServiceSuite) TestListForUser() {
	conn := s.mutualConnection()
	conns, err := s.service.ListForUser(s.ctx, s.sender)
	s.Require().NoError(err)
	s.Require().Len(conns, 1)
	s.Equal(conn.ID, conns[0].ID)
}
