package rbac

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/paisaid/paisaid-cms/internal/shared"
)

// memStore is an in-memory RoleStore keyed by user ID.
type memStore struct {
	mu    sync.Mutex
	roles map[int64]*Role
	err   error
	calls atomic.Int64
}

func newMemStore() *memStore {
	return &memStore{roles: map[int64]*Role{}}
}

func (s *memStore) put(userID int64, role Role) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roles[userID] = &role
}

func (s *memStore) FindRoleForUser(_ context.Context, userID int64) (*Role, error) {
	s.calls.Add(1)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	role, ok := s.roles[userID]
	if !ok {
		return nil, fmt.Errorf("%w: role not found", shared.ErrNotFound)
	}
	cp := *role
	return &cp, nil
}

func perms(actions ...string) []Permission {
	out := make([]Permission, 0, len(actions))
	for i, a := range actions {
		out = append(out, Permission{ID: int64(i + 1), Action: a})
	}
	return out
}
