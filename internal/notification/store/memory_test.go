package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/caris2020/AssuranceProject/internal/notification/models"
	"github.com/caris2020/AssuranceProject/pkg/sentinel"
)

type NotificationStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func (s *NotificationStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func TestNotificationStoreSuite(t *testing.T) {
	suite.Run(t, new(NotificationStoreSuite))
}

func (s *NotificationStoreSuite) add(userID string, createdAt time.Time) *models.Notification {
	n := &models.Notification{
		ID:        uuid.New(),
		UserID:    userID,
		Title:     "title",
		Message:   "message",
		Type:      models.TypeSystem,
		Status:    models.StatusActive,
		CreatedAt: createdAt,
	}
	s.Require().NoError(s.store.Create(s.ctx, n))
	return n
}

func (s *NotificationStoreSuite) TestCreateRejectsDuplicateID() {
	n := s.add("alice", time.Now())
	err := s.store.Create(s.ctx, n)
	s.ErrorIs(err, sentinel.ErrConflict)
}

func (s *NotificationStoreSuite) TestListOrderingNewestFirst() {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	oldest := s.add("alice", base)
	newest := s.add("alice", base.Add(2*time.Hour))
	middle := s.add("alice", base.Add(time.Hour))
	s.add("bob", base.Add(3*time.Hour))

	got, err := s.store.ListActive(s.ctx, "alice")
	s.Require().NoError(err)
	s.Require().Len(got, 3)
	s.Equal(newest.ID, got[0].ID)
	s.Equal(middle.ID, got[1].ID)
	s.Equal(oldest.ID, got[2].ID)
}

func (s *NotificationStoreSuite) TestListsPartitionByStatus() {
	active := s.add("alice", time.Now())
	trashed := s.add("alice", time.Now())
	trashed.Status = models.StatusTrashed
	s.Require().NoError(s.store.Update(s.ctx, trashed))
	read := s.add("alice", time.Now())
	read.Read = true
	s.Require().NoError(s.store.Update(s.ctx, read))

	activeList, err := s.store.ListActive(s.ctx, "alice")
	s.Require().NoError(err)
	s.Len(activeList, 2)

	unread, err := s.store.ListUnread(s.ctx, "alice")
	s.Require().NoError(err)
	s.Require().Len(unread, 1)
	s.Equal(active.ID, unread[0].ID)

	trash, err := s.store.ListTrashed(s.ctx, "alice")
	s.Require().NoError(err)
	s.Require().Len(trash, 1)
	s.Equal(trashed.ID, trash[0].ID)

	count, err := s.store.CountUnread(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal(int64(1), count)

	total, err := s.store.CountAll(s.ctx)
	s.Require().NoError(err)
	s.Equal(int64(3), total)
}

func (s *NotificationStoreSuite) TestTrashAllScopedToUser() {
	s.add("alice", time.Now())
	s.add("alice", time.Now())
	bobs := s.add("bob", time.Now())

	s.Require().NoError(s.store.TrashAll(s.ctx, "alice"))

	trash, err := s.store.ListTrashed(s.ctx, "alice")
	s.Require().NoError(err)
	s.Len(trash, 2)

	got, err := s.store.FindByID(s.ctx, bobs.ID)
	s.Require().NoError(err)
	s.False(got.Trashed())
}

func (s *NotificationStoreSuite) TestPurgeOlderThan() {
	cutoff := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	s.add("alice", cutoff.Add(-time.Minute))
	s.add("alice", cutoff.Add(-time.Hour))
	kept := s.add("alice", cutoff.Add(time.Minute))

	removed, err := s.store.PurgeOlderThan(s.ctx, cutoff)
	s.Require().NoError(err)
	s.Equal(int64(2), removed)

	_, err = s.store.FindByID(s.ctx, kept.ID)
	s.NoError(err)
}
