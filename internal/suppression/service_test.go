package suppression

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/suite"

	id "kesher/pkg/domain"
	pkgerrors "kesher/pkg/domain-errors"
)

type ServiceSuite struct {
	suite.Suite
	service *Service
	ctx     context.Context

	viewer id.UserID
	target id.UserID
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.service = NewService(NewInMemoryStore(), slog.New(slog.DiscardHandler))
	s.ctx = context.Background()
	s.viewer = id.NewUserID()
	s.target = id.NewUserID()
}

func (s *ServiceSuite) TestHide() {
	s.Run("hides and reports hidden", func() {
		s.Require().NoError(s.service.Hide(s.ctx, s.viewer, s.target))

		hidden, err := s.service.IsHidden(s.ctx, s.viewer, s.target)
		s.Require().NoError(err)
		s.True(hidden)
	})

	s.Run("hiding twice is a no-op", func() {
		s.Require().NoError(s.service.Hide(s.ctx, s.viewer, s.target))
		s.Require().NoError(s.service.Hide(s.ctx, s.viewer, s.target))

		entries, err := s.service.ListHidden(s.ctx, s.viewer)
		s.Require().NoError(err)
		s.Len(entries, 1)
	})

	s.Run("suppression is one-directional", func() {
		s.Require().NoError(s.service.Hide(s.ctx, s.viewer, s.target))

		hidden, err := s.service.IsHidden(s.ctx, s.target, s.viewer)
		s.Require().NoError(err)
		s.False(hidden)
	})

	s.Run("cannot hide yourself", func() {
		err := s.service.Hide(s.ctx, s.viewer, s.viewer)
		s.Require().True(pkgerrors.HasCode(err, pkgerrors.CodeBadRequest))
	})
}

func (s *ServiceSuite) TestUnhide() {
	s.Run("unhide removes the entry", func() {
		s.Require().NoError(s.service.Hide(s.ctx, s.viewer, s.target))
		s.Require().NoError(s.service.Unhide(s.ctx, s.viewer, s.target))

		hidden, err := s.service.IsHidden(s.ctx, s.viewer, s.target)
		s.Require().NoError(err)
		s.False(hidden)
	})

	s.Run("unhiding an unknown pair is a no-op", func() {
		s.Require().NoError(s.service.Unhide(s.ctx, s.viewer, id.NewUserID()))
	})
}
