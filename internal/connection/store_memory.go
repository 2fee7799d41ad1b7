package connection

import (
	"context"
	"sort"
	"sync"
	"time"

	id "kesher/pkg/domain"
	"kesher/pkg/platform/sentinel"
)

// InMemoryStore keeps connections in a map guarded by one mutex. Every
// Store method is a single critical section, which is exactly the atomicity
// contract the interface demands.
type InMemoryStore struct {
	mu          sync.RWMutex
	connections map[id.ConnectionID]Connection
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{connections: make(map[id.ConnectionID]Connection)}
}

func (s *InMemoryStore) FindByID(_ context.Context, connID id.ConnectionID) (*Connection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c, ok := s.connections[connID]; ok {
		return &c, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) FindActiveByPair(_ context.Context, a, b id.UserID) (*Connection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c, ok := s.activeByPairLocked(a, b); ok {
		return &c, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) CreateIfNoneActive(_ context.Context, conn *Connection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.activeByPairLocked(conn.SenderID, conn.ReceiverID); ok {
		return sentinel.ErrConflict
	}
	if conn.CreatedAt.IsZero() {
		conn.CreatedAt = time.Now()
	}
	conn.UpdatedAt = conn.CreatedAt
	s.connections[conn.ID] = *conn
	return nil
}

func (s *InMemoryStore) UpdateStatusIf(_ context.Context, connID id.ConnectionID, from, to Status) (*Connection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.connections[connID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if c.Status != from {
		return nil, sentinel.ErrInvalidState
	}
	c.Status = to
	c.UpdatedAt = time.Now()
	s.connections[connID] = c
	return &c, nil
}

func (s *InMemoryStore) SetFinalApproval(_ context.Context, connID id.ConnectionID, side Side) (*Connection, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.connections[connID]
	if !ok {
		return nil, false, sentinel.ErrNotFound
	}

	switch c.Status {
	case StatusMutualInterest:
		// fall through to the flag update below
	case StatusWaitingForShadchan:
		// Retried approval after the transition: no-op success.
		if c.FinalApproved(side) {
			return &c, false, nil
		}
		return nil, false, sentinel.ErrInvalidState
	default:
		return nil, false, sentinel.ErrInvalidState
	}

	if side == SideSender {
		c.SenderFinalApprove = true
	} else {
		c.ReceiverFinalApprove = true
	}
	transitioned := false
	if c.SenderFinalApprove && c.ReceiverFinalApprove {
		c.Status = StatusWaitingForShadchan
		transitioned = true
	}
	c.UpdatedAt = time.Now()
	s.connections[connID] = c
	return &c, transitioned, nil
}

func (s *InMemoryStore) ListByStatus(_ context.Context, status Status) ([]*Connection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Connection
	for _, c := range s.connections {
		if c.Status == status {
			copy := c
			out = append(out, &copy)
		}
	}
	sortByCreation(out)
	return out, nil
}

func (s *InMemoryStore) ListByUser(_ context.Context, userID id.UserID) ([]*Connection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Connection
	for _, c := range s.connections {
		if c.IsParticipant(userID) {
			copy := c
			out = append(out, &copy)
		}
	}
	sortByCreation(out)
	return out, nil
}

func (s *InMemoryStore) activeByPairLocked(a, b id.UserID) (Connection, bool) {
	key := PairKey(a, b)
	for _, c := range s.connections {
		if c.Status.Active() && PairKey(c.SenderID, c.ReceiverID) == key {
			return c, true
		}
	}
	return Connection{}, false
}

func sortByCreation(conns []*Connection) {
	sort.Slice(conns, func(i, j int) bool {
		if conns[i].CreatedAt.Equal(conns[j].CreatedAt) {
			return conns[i].ID.String() < conns[j].ID.String()
		}
		return conns[i].CreatedAt.Before(conns[j].CreatedAt)
	})
}
