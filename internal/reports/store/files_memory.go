package store

import (
	"context"
	"sort"
	"sync"

	"github.com/caris2020/AssuranceProject/internal/reports/models"
	"github.com/caris2020/AssuranceProject/pkg/sentinel"
)

// FilesInMemory holds report file metadata rows.
type FilesInMemory struct {
	mu     sync.RWMutex
	nextID int64
	rows   map[int64]*models.ReportFile
}

func NewFilesInMemory() *FilesInMemory {
	return &FilesInMemory{rows: make(map[int64]*models.ReportFile)}
}

func (s *FilesInMemory) Create(_ context.Context, f *models.ReportFile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	f.ID = s.nextID
	cp := *f
	s.rows[f.ID] = &cp
	return nil
}

func (s *FilesInMemory) FindByID(_ context.Context, id int64) (*models.ReportFile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.rows[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *f
	return &cp, nil
}

// ListByReport returns the files owned by a report, newest first.
func (s *FilesInMemory) ListByReport(_ context.Context, reportID int64) ([]*models.ReportFile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.ReportFile
	for _, f := range s.rows {
		if f.ReportID == reportID {
			cp := *f
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *FilesInMemory) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.rows, id)
	return nil
}
