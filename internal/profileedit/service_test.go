package profileedit

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/suite"

	"kesher/internal/notification"
	"kesher/internal/platform/metrics"
	"kesher/internal/user"
	id "kesher/pkg/domain"
	pkgerrors "kesher/pkg/domain-errors"
	"kesher/pkg/platform/tx"
)

type ServiceSuite struct {
	suite.Suite
	service  *Service
	store    *InMemoryStore
	users    *user.InMemoryStore
	recorder *notification.Recorder
	ctx      context.Context

	subject *user.User
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.store = NewInMemoryStore()
	s.users = user.NewInMemoryStore()
	s.recorder = notification.NewRecorder()
	s.service = NewService(s.store, s.users, tx.Passthrough{}, s.recorder, metrics.NewForTest(), slog.New(slog.DiscardHandler))
	s.ctx = context.Background()

	s.subject = &user.User{
		ID:         id.NewUserID(),
		FirstName:  "Rivka",
		Age:        28,
		City:       "Jerusalem",
		IsApproved: true,
	}
	s.Require().NoError(s.users.Save(s.ctx, s.subject))
}

func rawFields(pairs map[string]string) map[string]json.RawMessage {
	out := make(map[string]json.RawMessage, len(pairs))
	for k, v := range pairs {
		out[k] = json.RawMessage(v)
	}
	return out
}

func (s *ServiceSuite) TestSubmit() {
	s.Run("queues a pending diff", func() {
		req, err := s.service.Submit(s.ctx, s.subject.ID, rawFields(map[string]string{
			"city": `"Haifa"`,
		}))
		s.Require().NoError(err)
		s.False(req.IsSensitive)

		pending, err := s.service.Pending(s.ctx, s.subject.ID)
		s.Require().NoError(err)
		s.Equal(req.ID, pending.ID)
	})

	s.Run("flags sensitive fields", func() {
		req, err := s.service.Submit(s.ctx, s.subject.ID, rawFields(map[string]string{
			"city": `"Haifa"`,
			"age":  `29`,
		}))
		s.Require().NoError(err)
		s.True(req.IsSensitive)
	})

	s.Run("resubmission replaces the previous diff", func() {
		first, err := s.service.Submit(s.ctx, s.subject.ID, rawFields(map[string]string{
			"city": `"Haifa"`,
		}))
		s.Require().NoError(err)
		second, err := s.service.Submit(s.ctx, s.subject.ID, rawFields(map[string]string{
			"occupation": `"teacher"`,
		}))
		s.Require().NoError(err)
		s.NotEqual(first.ID, second.ID)

		reqs, err := s.service.List(s.ctx)
		s.Require().NoError(err)
		s.Require().Len(reqs, 1)
		s.Equal(second.ID, reqs[0].ID)
		s.NotContains(reqs[0].Changes, "city")
	})

	s.Run("rejects unapproved users", func() {
		fresh := &user.User{ID: id.NewUserID()}
		s.Require().NoError(s.users.Save(s.ctx, fresh))

		_, err := s.service.Submit(s.ctx, fresh.ID, rawFields(map[string]string{
			"city": `"Haifa"`,
		}))
		s.Require().True(pkgerrors.HasCode(err, pkgerrors.CodeNotApproved))
	})

	s.Run("rejects unknown fields", func() {
		_, err := s.service.Submit(s.ctx, s.subject.ID, rawFields(map[string]string{
			"shoe_size": `42`,
		}))
		s.Require().True(pkgerrors.HasCode(err, pkgerrors.CodeInvalidInput))
	})

	s.Run("rejects empty diffs", func() {
		_, err := s.service.Submit(s.ctx, s.subject.ID, nil)
		s.Require().True(pkgerrors.HasCode(err, pkgerrors.CodeBadRequest))
	})

	s.Run("unknown user is not found", func() {
		_, err := s.service.Submit(s.ctx, id.NewUserID(), rawFields(map[string]string{
			"city": `"Haifa"`,
		}))
		s.Require().True(pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
	})
}

func (s *ServiceSuite) TestApprove() {
	s.Run("merges only the changed fields", func() {
		req, err := s.service.Submit(s.ctx, s.subject.ID, rawFields(map[string]string{
			"city": `"Haifa"`,
			"age":  `29`,
		}))
		s.Require().NoError(err)

		s.Require().NoError(s.service.Approve(s.ctx, req.ID))

		updated, err := s.users.FindByID(s.ctx, s.subject.ID)
		s.Require().NoError(err)
		s.Equal("Haifa", updated.City)
		s.Equal(29, updated.Age)
		s.Equal("Rivka", updated.FirstName)

		_, err = s.service.Pending(s.ctx, s.subject.ID)
		s.Require().True(pkgerrors.HasCode(err, pkgerrors.CodeNotFound))

		events := s.recorder.ByKind(notification.KindProfileEditApproved)
		s.Require().Len(events, 1)
		s.Equal(s.subject.ID, events[0].RecipientID)
	})

	s.Run("approving a resolved request is not found", func() {
		req, err := s.service.Submit(s.ctx, s.subject.ID, rawFields(map[string]string{
			"city": `"Haifa"`,
		}))
		s.Require().NoError(err)
		s.Require().NoError(s.service.Approve(s.ctx, req.ID))

		err = s.service.Approve(s.ctx, req.ID)
		s.Require().True(pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
	})
}

func (s *ServiceSuite) TestReject() {
	s.Run("discards the diff and forwards the reason", func() {
		req, err := s.service.Submit(s.ctx, s.subject.ID, rawFields(map[string]string{
			"age": `21`,
		}))
		s.Require().NoError(err)

		s.Require().NoError(s.service.Reject(s.ctx, req.ID, "age change needs documentation"))

		untouched, err := s.users.FindByID(s.ctx, s.subject.ID)
		s.Require().NoError(err)
		s.Equal(28, untouched.Age)

		events := s.recorder.ByKind(notification.KindProfileEditRejected)
		s.Require().Len(events, 1)
		s.Equal("age change needs documentation", events[0].Reason)
	})

	s.Run("requires a reason", func() {
		req, err := s.service.Submit(s.ctx, s.subject.ID, rawFields(map[string]string{
			"age": `21`,
		}))
		s.Require().NoError(err)

		err = s.service.Reject(s.ctx, req.ID, "")
		s.Require().True(pkgerrors.HasCode(err, pkgerrors.CodeBadRequest))
	})

	s.Run("rejecting a resolved request is not found", func() {
		err := s.service.Reject(s.ctx, id.NewEditRequestID(), "stale")
		s.Require().True(pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
	})
}
