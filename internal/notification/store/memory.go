package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/caris2020/AssuranceProject/internal/notification/models"
	"github.com/caris2020/AssuranceProject/pkg/sentinel"
)

// InMemory is a mutex-guarded notification store for tests and development.
type InMemory struct {
	mu   sync.RWMutex
	rows map[uuid.UUID]*models.Notification

	// failFor simulates per-recipient storage failures in fan-out tests.
	failFor map[string]error
}

func NewInMemory() *InMemory {
	return &InMemory{rows: make(map[uuid.UUID]*models.Notification)}
}

// FailFor makes Create return err for the given recipient. Test hook.
func (s *InMemory) FailFor(userID string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failFor == nil {
		s.failFor = make(map[string]error)
	}
	s.failFor[userID] = err
}

func (s *InMemory) Create(_ context.Context, n *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err, ok := s.failFor[n.UserID]; ok {
		return err
	}
	if _, exists := s.rows[n.ID]; exists {
		return sentinel.ErrConflict
	}
	cp := *n
	s.rows[n.ID] = &cp
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id uuid.UUID) (*models.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.rows[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *n
	return &cp, nil
}

func (s *InMemory) Update(_ context.Context, n *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[n.ID]; !ok {
		return sentinel.ErrNotFound
	}
	cp := *n
	s.rows[n.ID] = &cp
	return nil
}

// ListActive returns non-trashed notifications, newest first.
func (s *InMemory) ListActive(_ context.Context, userID string) ([]*models.Notification, error) {
	return s.list(userID, func(n *models.Notification) bool {
		return !n.Trashed()
	}), nil
}

// ListUnread returns non-trashed unread notifications, newest first.
func (s *InMemory) ListUnread(_ context.Context, userID string) ([]*models.Notification, error) {
	return s.list(userID, func(n *models.Notification) bool {
		return !n.Trashed() && !n.Read
	}), nil
}

// ListTrashed returns trashed notifications, newest first.
func (s *InMemory) ListTrashed(_ context.Context, userID string) ([]*models.Notification, error) {
	return s.list(userID, func(n *models.Notification) bool {
		return n.Trashed()
	}), nil
}

// CountAll returns the total number of stored rows, trashed included.
func (s *InMemory) CountAll(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.rows)), nil
}

func (s *InMemory) CountUnread(_ context.Context, userID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var count int64
	for _, n := range s.rows {
		if n.UserID == userID && !n.Trashed() && !n.Read {
			count++
		}
	}
	return count, nil
}

// TrashAll soft-deletes every notification owned by userID.
func (s *InMemory) TrashAll(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range s.rows {
		if n.UserID == userID {
			n.Status = models.StatusTrashed
		}
	}
	return nil
}

// PurgeOlderThan hard-deletes rows created before cutoff regardless of read
// or trashed state, returning the number removed.
func (s *InMemory) PurgeOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var removed int64
	for id, n := range s.rows {
		if n.CreatedAt.Before(cutoff) {
			delete(s.rows, id)
			removed++
		}
	}
	return removed, nil
}

func (s *InMemory) list(userID string, keep func(*models.Notification) bool) []*models.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Notification
	for _, n := range s.rows {
		if n.UserID == userID && keep(n) {
			cp := *n
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID.String() > out[j].ID.String()
	})
	return out
}
