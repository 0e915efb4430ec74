package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"github.com/caris2020/AssuranceProject/internal/notification/models"
	"github.com/caris2020/AssuranceProject/internal/notification/service"
	"github.com/caris2020/AssuranceProject/internal/notification/store"
)

type NotificationHandlerSuite struct {
	suite.Suite
	service *service.Service
	router  chi.Router
	ctx     context.Context
}

func (s *NotificationHandlerSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.service = service.New(store.NewInMemory(), 30*24*time.Hour, logger, nil)
	s.router = chi.NewRouter()
	New(s.service, logger).Register(s.router)
	s.ctx = context.Background()
}

func TestNotificationHandlerSuite(t *testing.T) {
	suite.Run(t, new(NotificationHandlerSuite))
}

func (s *NotificationHandlerSuite) create(userID string) *models.Notification {
	n := &models.Notification{
		UserID:  userID,
		Title:   "New report available",
		Message: "details inside",
		Type:    models.TypeReportCreated,
	}
	s.Require().NoError(s.service.Create(s.ctx, n))
	return n
}

func (s *NotificationHandlerSuite) do(method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *NotificationHandlerSuite) TestListAndCount() {
	s.create("alice")
	s.create("alice")
	s.create("bob")

	rec := s.do(http.MethodGet, "/api/notifications/user/alice")
	s.Require().Equal(http.StatusOK, rec.Code)
	var listed []models.Notification
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &listed))
	s.Len(listed, 2)

	rec = s.do(http.MethodGet, "/api/notifications/user/alice/unread/count")
	s.Require().Equal(http.StatusOK, rec.Code)
	var count map[string]int64
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &count))
	s.Equal(int64(2), count["count"])
}

func (s *NotificationHandlerSuite) TestReadTrashRestoreFlow() {
	n := s.create("alice")

	rec := s.do(http.MethodPost, "/api/notifications/"+n.ID.String()+"/read?userId=alice")
	s.Equal(http.StatusNoContent, rec.Code)

	rec = s.do(http.MethodDelete, "/api/notifications/"+n.ID.String()+"?userId=alice")
	s.Equal(http.StatusNoContent, rec.Code)

	rec = s.do(http.MethodGet, "/api/notifications/user/alice/trash")
	s.Require().Equal(http.StatusOK, rec.Code)
	var trash []models.Notification
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &trash))
	s.Require().Len(trash, 1)
	s.True(trash[0].Read)

	rec = s.do(http.MethodPost, "/api/notifications/"+n.ID.String()+"/restore?userId=alice")
	s.Equal(http.StatusNoContent, rec.Code)
}

func (s *NotificationHandlerSuite) TestOwnershipAndValidation() {
	n := s.create("alice")

	s.Run("foreign user gets 403", func() {
		rec := s.do(http.MethodPost, "/api/notifications/"+n.ID.String()+"/read?userId=bob")
		s.Equal(http.StatusForbidden, rec.Code)
	})

	s.Run("missing userId gets 400", func() {
		rec := s.do(http.MethodPost, "/api/notifications/"+n.ID.String()+"/read")
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("malformed id gets 400", func() {
		rec := s.do(http.MethodPost, "/api/notifications/not-a-uuid/read?userId=alice")
		s.Equal(http.StatusBadRequest, rec.Code)
	})
}

func (s *NotificationHandlerSuite) TestBulkEndpoints() {
	s.create("alice")
	s.create("alice")

	rec := s.do(http.MethodPost, "/api/notifications/user/alice/read-all")
	s.Equal(http.StatusNoContent, rec.Code)

	rec = s.do(http.MethodDelete, "/api/notifications/user/alice/all")
	s.Equal(http.StatusNoContent, rec.Code)

	rec = s.do(http.MethodDelete, "/api/notifications/cleanup")
	s.Require().Equal(http.StatusOK, rec.Code)
	var purged map[string]int64
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &purged))
	s.Zero(purged["removed"])
}
