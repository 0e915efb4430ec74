package store

import (
	"context"
	"sync"

	"github.com/caris2020/AssuranceProject/internal/users/models"
	"github.com/caris2020/AssuranceProject/pkg/sentinel"
)

// InMemory is a mutex-guarded user directory for tests and development.
type InMemory struct {
	mu     sync.RWMutex
	nextID int64
	users  map[string]*models.User
}

func NewInMemory() *InMemory {
	return &InMemory{users: make(map[string]*models.User)}
}

// Add registers a user in the directory, assigning an ID.
func (s *InMemory) Add(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[u.Username]; exists {
		return sentinel.ErrConflict
	}
	s.nextID++
	u.ID = s.nextID
	cp := *u
	s.users[u.Username] = &cp
	return nil
}

func (s *InMemory) ListAll(_ context.Context) ([]*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.User, 0, len(s.users))
	for _, u := range s.users {
		cp := *u
		out = append(out, &cp)
	}
	return out, nil
}

func (s *InMemory) FindByUsername(_ context.Context, username string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[username]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *u
	return &cp, nil
}
