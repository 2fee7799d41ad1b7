package suppression

import (
	"context"
	"sort"
	"sync"
	"time"

	id "kesher/pkg/domain"
)

// InMemoryStore keeps suppression entries in a map for tests and local
// development.
type InMemoryStore struct {
	mu      sync.Mutex
	entries map[pairKey]*Entry
}

type pairKey struct {
	viewer id.UserID
	hidden id.UserID
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{entries: make(map[pairKey]*Entry)}
}

func (s *InMemoryStore) Hide(_ context.Context, viewerID, hiddenID id.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := pairKey{viewerID, hiddenID}
	if _, ok := s.entries[key]; ok {
		return nil
	}
	s.entries[key] = &Entry{
		ViewerID:     viewerID,
		HiddenUserID: hiddenID,
		CreatedAt:    time.Now(),
	}
	return nil
}

func (s *InMemoryStore) Unhide(_ context.Context, viewerID, hiddenID id.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, pairKey{viewerID, hiddenID})
	return nil
}

func (s *InMemoryStore) IsHidden(_ context.Context, viewerID, hiddenID id.UserID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.entries[pairKey{viewerID, hiddenID}]
	return ok, nil
}

func (s *InMemoryStore) ListHidden(_ context.Context, viewerID id.UserID) ([]*Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*Entry
	for _, entry := range s.entries {
		if entry.ViewerID == viewerID {
			copied := *entry
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].HiddenUserID.String() < out[j].HiddenUserID.String()
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}
