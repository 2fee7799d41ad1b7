package visibility

import (
	"context"
	"log/slog"
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

	owner     id.UserID
	requester id.UserID
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.store = NewInMemoryStore()
	s.users = user.NewInMemoryStore()
	s.recorder = notification.NewRecorder()
	s.service = NewService(s.store, NoopCache{}, s.users, s.recorder, metrics.NewForTest(), slog.New(slog.DiscardHandler))
	s.ctx = context.Background()

	s.owner = s.seedUser()
	s.requester = s.seedUser()
}

func (s *ServiceSuite) seedUser() id.UserID {
	u := &user.User{ID: id.NewUserID(), IsApproved: true}
	s.Require().NoError(s.users.Save(s.ctx, u))
	return u.ID
}

func (s *ServiceSuite) TestRequest() {
	s.Run("creates a pending grant and notifies the owner", func() {
		grant, err := s.service.Request(s.ctx, s.requester, s.owner)
		s.Require().NoError(err)
		s.Equal(StatePending, grant.State)

		events := s.recorder.ByKind(notification.KindVisibilityRequested)
		s.Require().Len(events, 1)
		s.Equal(s.owner, events[0].RecipientID)
	})

	s.Run("re-request after rejection resets to pending", func() {
		_, err := s.service.Request(s.ctx, s.requester, s.owner)
		s.Require().NoError(err)
		_, err = s.service.Respond(s.ctx, s.owner, s.owner, s.requester, DecisionReject)
		s.Require().NoError(err)

		grant, err := s.service.Request(s.ctx, s.requester, s.owner)
		s.Require().NoError(err)
		s.Equal(StatePending, grant.State)
	})

	s.Run("auto approved grant short-circuits without a new pending entry", func() {
		_, err := s.service.Request(s.ctx, s.requester, s.owner)
		s.Require().NoError(err)
		_, err = s.service.Respond(s.ctx, s.owner, s.owner, s.requester, DecisionAutoApprove)
		s.Require().NoError(err)
		requested := len(s.recorder.ByKind(notification.KindVisibilityRequested))

		grant, err := s.service.Request(s.ctx, s.requester, s.owner)
		s.Require().NoError(err)
		s.Equal(StateAutoApproved, grant.State)
		s.Len(s.recorder.ByKind(notification.KindVisibilityRequested), requested)
	})

	s.Run("rejects requesting your own photos", func() {
		_, err := s.service.Request(s.ctx, s.owner, s.owner)
		s.Require().True(pkgerrors.HasCode(err, pkgerrors.CodeBadRequest))
	})

	s.Run("unknown owner is not found", func() {
		_, err := s.service.Request(s.ctx, s.requester, id.NewUserID())
		s.Require().True(pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
	})

	s.Run("blocked owner is not found", func() {
		blocked := &user.User{ID: id.NewUserID(), IsApproved: true, IsBlocked: true}
		s.Require().NoError(s.users.Save(s.ctx, blocked))
		_, err := s.service.Request(s.ctx, s.requester, blocked.ID)
		s.Require().True(pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
	})
}

func (s *ServiceSuite) TestRespond() {
	s.Run("approve makes the pair viewable", func() {
		_, err := s.service.Request(s.ctx, s.requester, s.owner)
		s.Require().NoError(err)

		grant, err := s.service.Respond(s.ctx, s.owner, s.owner, s.requester, DecisionApprove)
		s.Require().NoError(err)
		s.Equal(StateApproved, grant.State)

		events := s.recorder.ByKind(notification.KindVisibilityResponded)
		s.Require().Len(events, 1)
		s.Equal(s.requester, events[0].RecipientID)
	})

	s.Run("only the owner may respond", func() {
		_, err := s.service.Request(s.ctx, s.requester, s.owner)
		s.Require().NoError(err)

		_, err = s.service.Respond(s.ctx, s.requester, s.owner, s.requester, DecisionApprove)
		s.Require().True(pkgerrors.HasCode(err, pkgerrors.CodeNotOwner))
	})

	s.Run("responding without a request is not found", func() {
		_, err := s.service.Respond(s.ctx, s.owner, s.owner, id.NewUserID(), DecisionApprove)
		s.Require().True(pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
	})
}

func (s *ServiceSuite) TestCanView() {
	s.Run("no grant means not viewable", func() {
		canView, err := s.service.CanView(s.ctx, s.requester, s.owner)
		s.Require().NoError(err)
		s.False(canView)
	})

	s.Run("pending is not viewable", func() {
		_, err := s.service.Request(s.ctx, s.requester, s.owner)
		s.Require().NoError(err)

		canView, err := s.service.CanView(s.ctx, s.requester, s.owner)
		s.Require().NoError(err)
		s.False(canView)
	})

	s.Run("approved and auto approved are viewable", func() {
		for _, decision := range []Decision{DecisionApprove, DecisionAutoApprove} {
			_, err := s.service.Request(s.ctx, s.requester, s.owner)
			s.Require().NoError(err)
			_, err = s.service.Respond(s.ctx, s.owner, s.owner, s.requester, decision)
			s.Require().NoError(err)

			canView, err := s.service.CanView(s.ctx, s.requester, s.owner)
			s.Require().NoError(err)
			s.True(canView)
		}
	})

	s.Run("users always see their own photos", func() {
		canView, err := s.service.CanView(s.ctx, s.owner, s.owner)
		s.Require().NoError(err)
		s.True(canView)
	})
}

func (s *ServiceSuite) TestListPending() {
	_, err := s.service.Request(s.ctx, s.requester, s.owner)
	s.Require().NoError(err)
	other := s.seedUser()
	_, err = s.service.Request(s.ctx, other, s.owner)
	s.Require().NoError(err)

	grants, err := s.service.ListPending(s.ctx, s.owner)
	s.Require().NoError(err)
	s.Len(grants, 2)
}
