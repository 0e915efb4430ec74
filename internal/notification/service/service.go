// Package service implements the notification lifecycle: active, read,
// trashed and permanently purged. Trash is a soft delete owned by the
// recipient; the purge is an unconditional age-based hard delete.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/caris2020/AssuranceProject/internal/notification/cache"
	"github.com/caris2020/AssuranceProject/internal/notification/models"
	dErrors "github.com/caris2020/AssuranceProject/pkg/domainerrors"
	"github.com/caris2020/AssuranceProject/pkg/sentinel"
)

// Store is the persistence contract the service drives.
type Store interface {
	Create(ctx context.Context, n *models.Notification) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Notification, error)
	Update(ctx context.Context, n *models.Notification) error
	ListActive(ctx context.Context, userID string) ([]*models.Notification, error)
	ListUnread(ctx context.Context, userID string) ([]*models.Notification, error)
	ListTrashed(ctx context.Context, userID string) ([]*models.Notification, error)
	CountAll(ctx context.Context) (int64, error)
	CountUnread(ctx context.Context, userID string) (int64, error)
	TrashAll(ctx context.Context, userID string) error
	PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// Service owns the notification state machine.
type Service struct {
	store     Store
	counts    *cache.UnreadCounts
	retention time.Duration
	logger    *slog.Logger
}

func New(store Store, retention time.Duration, logger *slog.Logger, counts *cache.UnreadCounts) *Service {
	return &Service{store: store, counts: counts, retention: retention, logger: logger}
}

// Create inserts a new active unread notification. IDs and timestamps are
// assigned here so callers only describe content.
func (s *Service) Create(ctx context.Context, n *models.Notification) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	n.Status = models.StatusActive
	n.Read = false
	n.ReadAt = nil
	if err := n.Validate(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid notification")
	}
	if err := s.store.Create(ctx, n); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "create notification")
	}
	s.invalidateCount(ctx, n.UserID)
	return nil
}

// MarkRead transitions an active unread notification to read. Only the owning
// recipient may perform it; a missing or foreign notification is a failure
// that leaves state unchanged.
func (s *Service) MarkRead(ctx context.Context, id uuid.UUID, userID string) error {
	n, err := s.owned(ctx, id, userID)
	if err != nil {
		return err
	}
	if n.Read {
		return nil
	}
	now := time.Now()
	n.Read = true
	n.ReadAt = &now
	if err := s.store.Update(ctx, n); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "mark notification read")
	}
	s.invalidateCount(ctx, userID)
	return nil
}

// MarkAllRead marks every unread notification of userID as read.
func (s *Service) MarkAllRead(ctx context.Context, userID string) error {
	unread, err := s.store.ListUnread(ctx, userID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "list unread notifications")
	}
	for _, n := range unread {
		if err := s.MarkRead(ctx, n.ID, userID); err != nil {
			return err
		}
	}
	return nil
}

// Trash soft-deletes a notification. The read state survives for a later
// restore.
func (s *Service) Trash(ctx context.Context, id uuid.UUID, userID string) error {
	n, err := s.owned(ctx, id, userID)
	if err != nil {
		return err
	}
	if n.Trashed() {
		return nil
	}
	n.Status = models.StatusTrashed
	if err := s.store.Update(ctx, n); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "trash notification")
	}
	s.invalidateCount(ctx, userID)
	return nil
}

// Restore moves a trashed notification back to the active list with its
// previous read state intact.
func (s *Service) Restore(ctx context.Context, id uuid.UUID, userID string) error {
	n, err := s.owned(ctx, id, userID)
	if err != nil {
		return err
	}
	if !n.Trashed() {
		return nil
	}
	n.Status = models.StatusActive
	if err := s.store.Update(ctx, n); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "restore notification")
	}
	s.invalidateCount(ctx, userID)
	return nil
}

// TrashAll soft-deletes every notification owned by userID.
func (s *Service) TrashAll(ctx context.Context, userID string) error {
	if err := s.store.TrashAll(ctx, userID); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "trash all notifications")
	}
	s.invalidateCount(ctx, userID)
	return nil
}

// Purge hard-deletes every notification older than the retention window,
// regardless of read or trashed state. Returns the number removed.
func (s *Service) Purge(ctx context.Context) (int64, error) {
	cutoff := time.Now().Add(-s.retention)
	removed, err := s.store.PurgeOlderThan(ctx, cutoff)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "purge notifications")
	}
	if removed > 0 {
		s.logger.InfoContext(ctx, "purged old notifications", "removed", removed)
	}
	return removed, nil
}

// List returns the recipient's non-trashed notifications, newest first.
func (s *Service) List(ctx context.Context, userID string) ([]*models.Notification, error) {
	out, err := s.store.ListActive(ctx, userID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list notifications")
	}
	return out, nil
}

// ListUnread returns the recipient's unread, non-trashed notifications.
func (s *Service) ListUnread(ctx context.Context, userID string) ([]*models.Notification, error) {
	out, err := s.store.ListUnread(ctx, userID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list unread notifications")
	}
	return out, nil
}

// ListTrash returns only the trashed notifications.
func (s *Service) ListTrash(ctx context.Context, userID string) ([]*models.Notification, error) {
	out, err := s.store.ListTrashed(ctx, userID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list trashed notifications")
	}
	return out, nil
}

// CountAll returns the global notification count, trashed included. Dashboard
// figure only; it bypasses the per-user cache.
func (s *Service) CountAll(ctx context.Context) (int64, error) {
	count, err := s.store.CountAll(ctx)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "count notifications")
	}
	return count, nil
}

// CountUnread counts active unread notifications, served from the Redis cache
// when warm.
func (s *Service) CountUnread(ctx context.Context, userID string) (int64, error) {
	if count, ok := s.counts.Get(ctx, userID); ok {
		return count, nil
	}
	count, err := s.store.CountUnread(ctx, userID)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "count unread notifications")
	}
	if err := s.counts.Set(ctx, userID, count); err != nil {
		s.logger.WarnContext(ctx, "unread count cache set failed", "error", err.Error())
	}
	return count, nil
}

// owned loads a notification and enforces recipient ownership.
func (s *Service) owned(ctx context.Context, id uuid.UUID, userID string) (*models.Notification, error) {
	n, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "notification not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load notification")
	}
	if n.UserID != userID {
		return nil, dErrors.New(dErrors.CodeForbidden, "notification belongs to another user")
	}
	return n, nil
}

func (s *Service) invalidateCount(ctx context.Context, userID string) {
	if err := s.counts.Invalidate(ctx, userID); err != nil {
		s.logger.WarnContext(ctx, "unread count invalidation failed",
			"user", userID,
			"error", err.Error(),
		)
	}
}
