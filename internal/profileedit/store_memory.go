package profileedit

import (
	"context"
	"maps"
	"sort"
	"sync"

	"kesher/internal/user"
	id "kesher/pkg/domain"
	"kesher/pkg/platform/sentinel"
)

// InMemoryStore keeps edit requests in maps for tests and local development.
type InMemoryStore struct {
	mu     sync.Mutex
	byID   map[id.EditRequestID]*EditRequest
	byUser map[id.UserID]id.EditRequestID
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		byID:   make(map[id.EditRequestID]*EditRequest),
		byUser: make(map[id.UserID]id.EditRequestID),
	}
}

func (s *InMemoryStore) Put(_ context.Context, req *EditRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.byUser[req.UserID]; ok {
		delete(s.byID, prev)
	}
	copied := copyRequest(req)
	s.byID[req.ID] = copied
	s.byUser[req.UserID] = req.ID
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, reqID id.EditRequestID) (*EditRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, ok := s.byID[reqID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return copyRequest(req), nil
}

func (s *InMemoryStore) FindByUser(_ context.Context, userID id.UserID) (*EditRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reqID, ok := s.byUser[userID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return copyRequest(s.byID[reqID]), nil
}

func (s *InMemoryStore) Delete(_ context.Context, reqID id.EditRequestID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, ok := s.byID[reqID]
	if !ok {
		return sentinel.ErrNotFound
	}
	delete(s.byID, reqID)
	delete(s.byUser, req.UserID)
	return nil
}

func (s *InMemoryStore) List(_ context.Context) ([]*EditRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*EditRequest, 0, len(s.byID))
	for _, req := range s.byID {
		out = append(out, copyRequest(req))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SubmittedAt.Equal(out[j].SubmittedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].SubmittedAt.Before(out[j].SubmittedAt)
	})
	return out, nil
}

func copyRequest(req *EditRequest) *EditRequest {
	copied := *req
	copied.Changes = make(map[string]user.FieldValue, len(req.Changes))
	maps.Copy(copied.Changes, req.Changes)
	return &copied
}
