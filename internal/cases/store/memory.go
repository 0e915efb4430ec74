package store

import (
	"context"
	"sort"
	"sync"

	"github.com/caris2020/AssuranceProject/internal/cases/models"
	"github.com/caris2020/AssuranceProject/pkg/sentinel"
)

// InMemory is a mutex-guarded case store for tests and development.
type InMemory struct {
	mu     sync.RWMutex
	nextID int64
	byID   map[int64]*models.Case
	byRef  map[string]int64
}

func NewInMemory() *InMemory {
	return &InMemory{
		byID:  make(map[int64]*models.Case),
		byRef: make(map[string]int64),
	}
}

// Create assigns an ID and persists the case. A duplicate reference returns
// sentinel.ErrConflict so the service can regenerate.
func (s *InMemory) Create(_ context.Context, c *models.Case) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.byRef[c.Reference]; taken {
		return sentinel.ErrConflict
	}
	s.nextID++
	c.ID = s.nextID
	cp := *c
	s.byID[c.ID] = &cp
	s.byRef[c.Reference] = c.ID
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id int64) (*models.Case, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.byID[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *InMemory) FindByReference(_ context.Context, reference string) (*models.Case, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byRef[reference]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *s.byID[id]
	return &cp, nil
}

func (s *InMemory) Update(_ context.Context, c *models.Case) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[c.ID]; !ok {
		return sentinel.ErrNotFound
	}
	cp := *c
	s.byID[c.ID] = &cp
	return nil
}

func (s *InMemory) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.byID[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	delete(s.byRef, c.Reference)
	delete(s.byID, id)
	return nil
}

func (s *InMemory) List(_ context.Context) ([]*models.Case, error) {
	return s.listWhere(func(*models.Case) bool { return true }), nil
}

func (s *InMemory) ListByCreator(_ context.Context, creator string) ([]*models.Case, error) {
	return s.listWhere(func(c *models.Case) bool { return c.CreatedBy == creator }), nil
}

func (s *InMemory) listWhere(keep func(*models.Case) bool) []*models.Case {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Case
	for _, c := range s.byID {
		if keep(c) {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
