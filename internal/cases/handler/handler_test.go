package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"github.com/caris2020/AssuranceProject/internal/audit"
	"github.com/caris2020/AssuranceProject/internal/cases/models"
	"github.com/caris2020/AssuranceProject/internal/cases/service"
	"github.com/caris2020/AssuranceProject/internal/cases/store"
	"github.com/caris2020/AssuranceProject/internal/notification/fanout"
)

type noopFanOut struct{}

func (noopFanOut) Deliver(context.Context, fanout.Policy, fanout.Payload) int { return 0 }

type CaseHandlerSuite struct {
	suite.Suite
	service *service.Service
	router  chi.Router
	ctx     context.Context
}

func (s *CaseHandlerSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	recorder := audit.NewRecorder(audit.NewInMemoryStore(), logger)
	s.service = service.New(store.NewInMemory(), recorder, noopFanOut{}, logger, nil)
	s.router = chi.NewRouter()
	New(s.service, logger).Register(s.router)
	s.ctx = context.Background()
}

func TestCaseHandlerSuite(t *testing.T) {
	suite.Run(t, new(CaseHandlerSuite))
}

func (s *CaseHandlerSuite) do(method, target string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *CaseHandlerSuite) create(actor string) models.Case {
	rec := s.do(http.MethodPost, "/api/cases?actorName="+actor, map[string]string{
		"type":     "FRAUDE",
		"status":   "SOUS_ENQUETE",
		"dataJson": `{"title":"Claim 42"}`,
	})
	s.Require().Equal(http.StatusCreated, rec.Code)
	var c models.Case
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &c))
	return c
}

func (s *CaseHandlerSuite) TestCreateAndFetch() {
	c := s.create("alice")
	s.Len(c.Reference, 10)

	rec := s.do(http.MethodGet, "/api/cases/"+strconv.FormatInt(c.ID, 10), nil)
	s.Equal(http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, "/api/cases/reference/"+c.Reference, nil)
	s.Equal(http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, "/api/cases/reference/UNKNOWN999", nil)
	s.Equal(http.StatusNotFound, rec.Code)
}

func (s *CaseHandlerSuite) TestCreateWithoutActorFails() {
	rec := s.do(http.MethodPost, "/api/cases", map[string]string{"type": "FRAUDE"})
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *CaseHandlerSuite) TestUpdateEnforcesCreator() {
	c := s.create("alice")
	target := "/api/cases/" + strconv.FormatInt(c.ID, 10)

	rec := s.do(http.MethodPut, target+"?actorName=bob", map[string]string{"status": "CLOS"})
	s.Equal(http.StatusForbidden, rec.Code)

	rec = s.do(http.MethodPut, target+"?actorName=alice", map[string]string{"status": "CLOS"})
	s.Require().Equal(http.StatusOK, rec.Code)
	var updated models.Case
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &updated))
	s.Equal(models.StatusClos, updated.Status)
}

func (s *CaseHandlerSuite) TestDelete() {
	c := s.create("alice")
	target := "/api/cases/" + strconv.FormatInt(c.ID, 10)

	rec := s.do(http.MethodDelete, target+"?actorName=alice", nil)
	s.Equal(http.StatusNoContent, rec.Code)

	rec = s.do(http.MethodGet, target, nil)
	s.Equal(http.StatusNotFound, rec.Code)
}

func (s *CaseHandlerSuite) TestPermissions() {
	c := s.create("alice")
	rec := s.do(http.MethodGet, "/api/cases/"+strconv.FormatInt(c.ID, 10)+"/permissions?actorName=alice", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var perms models.Permissions
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &perms))
	s.True(perms.CanEdit)
	s.True(perms.CanDelete)
}

func (s *CaseHandlerSuite) TestCleanupDuplicates() {
	s.create("alice")
	s.create("alice")

	rec := s.do(http.MethodPost, "/api/cases/cleanup-duplicates", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var out map[string]int
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &out))
	s.Equal(1, out["removed"])
}

func (s *CaseHandlerSuite) TestMalformedID() {
	rec := s.do(http.MethodGet, "/api/cases/abc", nil)
	s.Equal(http.StatusBadRequest, rec.Code)
}
