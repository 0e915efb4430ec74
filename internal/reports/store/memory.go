package store

import (
	"context"
	"sort"
	"sync"

	"github.com/caris2020/AssuranceProject/internal/reports/models"
	"github.com/caris2020/AssuranceProject/pkg/sentinel"
)

// InMemory is a mutex-guarded report store for tests and development.
type InMemory struct {
	mu     sync.RWMutex
	nextID int64
	rows   map[int64]*models.Report
}

func NewInMemory() *InMemory {
	return &InMemory{rows: make(map[int64]*models.Report)}
}

func (s *InMemory) Create(_ context.Context, r *models.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	r.ID = s.nextID
	cp := *r
	s.rows[r.ID] = &cp
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id int64) (*models.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rows[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (s *InMemory) Update(_ context.Context, r *models.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[r.ID]; !ok {
		return sentinel.ErrNotFound
	}
	cp := *r
	s.rows[r.ID] = &cp
	return nil
}

func (s *InMemory) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.rows, id)
	return nil
}

func (s *InMemory) List(_ context.Context) ([]*models.Report, error) {
	return s.listWhere(func(*models.Report) bool { return true }), nil
}

func (s *InMemory) ListByCreator(_ context.Context, creator string) ([]*models.Report, error) {
	return s.listWhere(func(r *models.Report) bool { return r.CreatedBy == creator }), nil
}

// ListRecent returns the newest reports, capped at limit.
func (s *InMemory) ListRecent(_ context.Context, limit int) ([]*models.Report, error) {
	out := s.listWhere(func(*models.Report) bool { return true })
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// CountByCreator returns report counts grouped by creator.
func (s *InMemory) CountByCreator(_ context.Context) (map[string]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := make(map[string]int64)
	for _, r := range s.rows {
		counts[r.CreatedBy]++
	}
	return counts, nil
}

func (s *InMemory) listWhere(keep func(*models.Report) bool) []*models.Report {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Report
	for _, r := range s.rows {
		if keep(r) {
			cp := *r
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
