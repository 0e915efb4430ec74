package handler

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"github.com/caris2020/AssuranceProject/internal/audit"
	caseservice "github.com/caris2020/AssuranceProject/internal/cases/service"
	casestore "github.com/caris2020/AssuranceProject/internal/cases/store"
	"github.com/caris2020/AssuranceProject/internal/files"
	"github.com/caris2020/AssuranceProject/internal/notification/fanout"
	"github.com/caris2020/AssuranceProject/internal/reports/models"
	"github.com/caris2020/AssuranceProject/internal/reports/service"
	"github.com/caris2020/AssuranceProject/internal/reports/store"
)

type noopFanOut struct{}

func (noopFanOut) Deliver(context.Context, fanout.Policy, fanout.Payload) int { return 0 }

type ReportHandlerSuite struct {
	suite.Suite
	service *service.Service
	router  chi.Router
	ctx     context.Context
}

func (s *ReportHandlerSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	recorder := audit.NewRecorder(audit.NewInMemoryStore(), logger)
	cases := caseservice.New(casestore.NewInMemory(), recorder, noopFanOut{}, logger, nil)
	s.service = service.New(store.NewInMemory(), store.NewFilesInMemory(), files.NewInMemory(),
		cases, recorder, noopFanOut{}, logger, nil)
	s.router = chi.NewRouter()
	New(s.service, logger).Register(s.router)
	s.ctx = context.Background()
}

func TestReportHandlerSuite(t *testing.T) {
	suite.Run(t, new(ReportHandlerSuite))
}

func (s *ReportHandlerSuite) create(actor string) models.Report {
	body, err := json.Marshal(map[string]string{
		"title":         "Q1 fraud findings",
		"beneficiaries": "J. Dupont",
		"insureds":      "M. Claire",
		"initiator":     "inspector",
		"subscriber":    "ACME Assurance",
		"caseId":        "ABCDEF1234",
	})
	s.Require().NoError(err)
	req := httptest.NewRequest(http.MethodPost, "/api/reports?actorName="+actor, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	s.Require().Equal(http.StatusCreated, rec.Code)
	var r models.Report
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &r))
	return r
}

func (s *ReportHandlerSuite) attach(reportID int64, actor, name string, content []byte) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", name)
	s.Require().NoError(err)
	_, err = part.Write(content)
	s.Require().NoError(err)
	s.Require().NoError(mw.Close())

	req := httptest.NewRequest(http.MethodPost,
		"/api/reports/"+strconv.FormatInt(reportID, 10)+"/files?actorName="+actor, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *ReportHandlerSuite) TestCreateValidation() {
	req := httptest.NewRequest(http.MethodPost, "/api/reports?actorName=alice",
		bytes.NewReader([]byte(`{"title":"only a title"}`)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *ReportHandlerSuite) TestAttachListDownload() {
	r := s.create("alice")

	rec := s.attach(r.ID, "alice", "annex.csv", []byte("a,b\n1,2\n"))
	s.Require().Equal(http.StatusCreated, rec.Code)
	var f models.ReportFile
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &f))

	rec = s.attach(r.ID, "mallory", "evil.txt", []byte("no"))
	s.Equal(http.StatusForbidden, rec.Code)

	req := httptest.NewRequest(http.MethodGet,
		"/api/reports/"+strconv.FormatInt(r.ID, 10)+"/files", nil)
	listRec := httptest.NewRecorder()
	s.router.ServeHTTP(listRec, req)
	s.Require().Equal(http.StatusOK, listRec.Code)
	var listed []models.ReportFile
	s.Require().NoError(json.Unmarshal(listRec.Body.Bytes(), &listed))
	s.Len(listed, 1)

	req = httptest.NewRequest(http.MethodGet,
		"/api/download/files/"+strconv.FormatInt(f.ID, 10), nil)
	dlRec := httptest.NewRecorder()
	s.router.ServeHTTP(dlRec, req)
	s.Require().Equal(http.StatusOK, dlRec.Code)
	s.Equal([]byte("a,b\n1,2\n"), dlRec.Body.Bytes())
}

func (s *ReportHandlerSuite) TestArchiveDownload() {
	r := s.create("alice")
	s.Require().Equal(http.StatusCreated, s.attach(r.ID, "alice", "one.txt", []byte("first")).Code)
	s.Require().Equal(http.StatusCreated, s.attach(r.ID, "alice", "two.txt", []byte("second")).Code)

	req := httptest.NewRequest(http.MethodGet,
		"/api/download/"+strconv.FormatInt(r.ID, 10)+"/archive", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Equal("application/zip", rec.Header().Get("Content-Type"))

	zr, err := zip.NewReader(bytes.NewReader(rec.Body.Bytes()), int64(rec.Body.Len()))
	s.Require().NoError(err)
	s.Require().Len(zr.File, 2)

	byName := map[string]string{}
	for _, entry := range zr.File {
		rc, err := entry.Open()
		s.Require().NoError(err)
		content, err := io.ReadAll(rc)
		s.Require().NoError(err)
		s.Require().NoError(rc.Close())
		byName[entry.Name] = string(content)
	}
	s.Equal("first", byName["one.txt"])
	s.Equal("second", byName["two.txt"])
}

func (s *ReportHandlerSuite) TestUpdateAndDelete() {
	r := s.create("alice")
	target := "/api/reports/" + strconv.FormatInt(r.ID, 10)

	body := []byte(`{"title":"Renamed"}`)
	req := httptest.NewRequest(http.MethodPut, target+"?actorName=alice", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	s.Require().Equal(http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodDelete, target+"?actorName=alice", nil)
	rec = httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	s.Equal(http.StatusNoContent, rec.Code)

	req = httptest.NewRequest(http.MethodGet, target, nil)
	rec = httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	s.Equal(http.StatusNotFound, rec.Code)
}
