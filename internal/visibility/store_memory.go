package visibility

import (
	"context"
	"sort"
	"sync"
	"time"

	id "kesher/pkg/domain"
	"kesher/pkg/platform/sentinel"
)

// InMemoryStore keeps grants in a map for tests and local development.
type InMemoryStore struct {
	mu     sync.Mutex
	grants map[pairKey]*Grant
}

type pairKey struct {
	owner     id.UserID
	requester id.UserID
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{grants: make(map[pairKey]*Grant)}
}

func (s *InMemoryStore) Find(_ context.Context, ownerID, requesterID id.UserID) (*Grant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	grant, ok := s.grants[pairKey{ownerID, requesterID}]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := *grant
	return &copied, nil
}

func (s *InMemoryStore) RequestPending(_ context.Context, ownerID, requesterID id.UserID) (*Grant, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := pairKey{ownerID, requesterID}
	now := time.Now()
	if grant, ok := s.grants[key]; ok {
		if grant.State == StateAutoApproved {
			copied := *grant
			return &copied, false, nil
		}
		grant.State = StatePending
		grant.UpdatedAt = now
		copied := *grant
		return &copied, true, nil
	}

	grant := &Grant{
		OwnerID:     ownerID,
		RequesterID: requesterID,
		State:       StatePending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.grants[key] = grant
	copied := *grant
	return &copied, true, nil
}

func (s *InMemoryStore) SetState(_ context.Context, ownerID, requesterID id.UserID, state State) (*Grant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	grant, ok := s.grants[pairKey{ownerID, requesterID}]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	grant.State = state
	grant.UpdatedAt = time.Now()
	copied := *grant
	return &copied, nil
}

func (s *InMemoryStore) ListPendingForOwner(_ context.Context, ownerID id.UserID) ([]*Grant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*Grant
	for _, grant := range s.grants {
		if grant.OwnerID == ownerID && grant.State == StatePending {
			copied := *grant
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].RequesterID.String() < out[j].RequesterID.String()
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}
