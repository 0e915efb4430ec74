package fanout

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	notifmodels "github.com/caris2020/AssuranceProject/internal/notification/models"
	notifservice "github.com/caris2020/AssuranceProject/internal/notification/service"
	notifstore "github.com/caris2020/AssuranceProject/internal/notification/store"
	"github.com/caris2020/AssuranceProject/internal/users/models"
	userstore "github.com/caris2020/AssuranceProject/internal/users/store"
)

func user(name string, active bool, loggedIn bool, status models.UserStatus, role models.UserRole) *models.User {
	u := &models.User{Username: name, Active: active, Status: status, Role: role}
	if loggedIn {
		t := time.Now()
		u.LastLoginAt = &t
	}
	return u
}

func TestPolicies(t *testing.T) {
	users := []*models.User{
		user("alice", true, true, models.StatusRegistered, models.RoleUser),
		user("bob", true, true, models.StatusRegistered, models.RoleUser),
		user("carol", true, false, models.StatusRegistered, models.RoleUser),
		user("dave", false, true, models.StatusRegistered, models.RoleUser),
		user("erin", true, true, models.StatusPending, models.RoleAdmin),
		user("frank", true, true, models.StatusDeleted, models.RoleUser),
		user("grace", true, true, models.StatusPending, models.RoleUser),
	}

	names := func(selected []*models.User) []string {
		var out []string
		for _, u := range selected {
			out = append(out, u.Username)
		}
		return out
	}

	t.Run("all active requires a past login", func(t *testing.T) {
		got := names(AllActive().Select(users))
		assert.Equal(t, []string{"alice", "bob", "erin", "frank", "grace"}, got)
	})

	t.Run("excluding drops only the actor", func(t *testing.T) {
		got := names(AllActiveExcluding("alice").Select(users))
		assert.NotContains(t, got, "alice")
		assert.Contains(t, got, "bob")
	})

	t.Run("empty actor excludes nobody", func(t *testing.T) {
		assert.Len(t, AllActiveExcluding("").Select(users), 5)
	})

	t.Run("registered or admin skips pending and deleted", func(t *testing.T) {
		// carol never logged in but is registered; this policy keeps her.
		got := names(ActiveRegisteredOrAdminExcluding("bob").Select(users))
		assert.Equal(t, []string{"alice", "carol", "erin"}, got)
	})
}

type EngineSuite struct {
	suite.Suite
	users      *userstore.InMemory
	notifStore *notifstore.InMemory
	engine     *Engine
	ctx        context.Context
}

func (s *EngineSuite) SetupTest() {
	s.users = userstore.NewInMemory()
	s.notifStore = notifstore.NewInMemory()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	notifier := notifservice.New(s.notifStore, 30*24*time.Hour, logger, nil)
	s.engine = NewEngine(s.users, notifier, logger, nil, 2)
	s.ctx = context.Background()
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineSuite))
}

func (s *EngineSuite) seed(names ...string) {
	for _, name := range names {
		s.Require().NoError(s.users.Add(s.ctx,
			user(name, true, true, models.StatusRegistered, models.RoleUser)))
	}
}

func (s *EngineSuite) payload() Payload {
	return Payload{
		Title:   "Case status updated",
		Message: "case moved",
		Type:    notifmodels.TypeCaseStatusChanged,
		Action:  "VIEW_CASE",
		URL:     "/dossiers",
		Extra:   map[string]any{"caseReference": "ABC123XYZ0"},
	}
}

func (s *EngineSuite) TestDeliversOnePerRecipient() {
	s.seed("alice", "bob", "carol")

	delivered := s.engine.Deliver(s.ctx, AllActive(), s.payload())
	s.Equal(3, delivered)

	for _, name := range []string{"alice", "bob", "carol"} {
		inbox, err := s.notifStore.ListUnread(s.ctx, name)
		s.Require().NoError(err)
		s.Require().Len(inbox, 1, name)
		s.Equal("Case status updated", inbox[0].Title)
		s.Contains(inbox[0].Metadata, "ABC123XYZ0")
	}
}

func (s *EngineSuite) TestOneFailureDoesNotStarveOthers() {
	s.seed("alice", "bob", "carol")
	s.notifStore.FailFor("bob", errors.New("disk full"))

	delivered := s.engine.Deliver(s.ctx, AllActive(), s.payload())
	s.Equal(2, delivered)

	inbox, err := s.notifStore.ListUnread(s.ctx, "alice")
	s.Require().NoError(err)
	s.Len(inbox, 1)

	inbox, err = s.notifStore.ListUnread(s.ctx, "bob")
	s.Require().NoError(err)
	s.Empty(inbox)
}

func (s *EngineSuite) TestEmptyDirectoryDeliversNothing() {
	delivered := s.engine.Deliver(s.ctx, AllActive(), s.payload())
	s.Zero(delivered)
}

func TestEncodeMetadataDropsUnserializable(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	got := encodeMetadata(context.Background(), logger, map[string]any{"ch": make(chan int)})
	require.Empty(t, got)
}
