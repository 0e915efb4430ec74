// Package service implements the report lifecycle: validated creation with
// case resolution, creator-only mutation, file attachment and the broadcast
// notification a new report triggers.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/caris2020/AssuranceProject/internal/audit"
	casemodels "github.com/caris2020/AssuranceProject/internal/cases/models"
	"github.com/caris2020/AssuranceProject/internal/files"
	"github.com/caris2020/AssuranceProject/internal/notification/fanout"
	notifmodels "github.com/caris2020/AssuranceProject/internal/notification/models"
	"github.com/caris2020/AssuranceProject/internal/platform/metrics"
	"github.com/caris2020/AssuranceProject/internal/reports/models"
	dErrors "github.com/caris2020/AssuranceProject/pkg/domainerrors"
	"github.com/caris2020/AssuranceProject/pkg/sentinel"
)

// SystemActor is recorded as the creator of reports ingested without an
// authenticated user, such as automated submissions.
const SystemActor = "system"

// Store is the report persistence contract.
type Store interface {
	Create(ctx context.Context, r *models.Report) error
	FindByID(ctx context.Context, id int64) (*models.Report, error)
	Update(ctx context.Context, r *models.Report) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context) ([]*models.Report, error)
	ListByCreator(ctx context.Context, creator string) ([]*models.Report, error)
	ListRecent(ctx context.Context, limit int) ([]*models.Report, error)
	CountByCreator(ctx context.Context) (map[string]int64, error)
}

// FileStore persists report file metadata; the bytes live in the blob store.
type FileStore interface {
	Create(ctx context.Context, f *models.ReportFile) error
	FindByID(ctx context.Context, id int64) (*models.ReportFile, error)
	ListByReport(ctx context.Context, reportID int64) ([]*models.ReportFile, error)
	Delete(ctx context.Context, id int64) error
}

// CaseDirectory is the slice of the case service reports need: resolving the
// loosely typed caseId field and materializing cases that do not exist yet.
type CaseDirectory interface {
	FindByID(ctx context.Context, id int64) (*casemodels.Case, error)
	FindByReference(ctx context.Context, ref string) (*casemodels.Case, error)
	CreateDerived(ctx context.Context, c *casemodels.Case, actor string) (*casemodels.Case, error)
}

// FanOut delivers one notification per selected recipient, best-effort.
type FanOut interface {
	Deliver(ctx context.Context, policy fanout.Policy, payload fanout.Payload) int
}

// Service orchestrates the report lifecycle.
type Service struct {
	store   Store
	files   FileStore
	blobs   files.BlobStore
	cases   CaseDirectory
	audit   *audit.Recorder
	fanout  FanOut
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func New(store Store, fileStore FileStore, blobs files.BlobStore, cases CaseDirectory,
	recorder *audit.Recorder, engine FanOut, logger *slog.Logger, m *metrics.Metrics) *Service {
	return &Service{
		store:   store,
		files:   fileStore,
		blobs:   blobs,
		cases:   cases,
		audit:   recorder,
		fanout:  engine,
		logger:  logger,
		metrics: m,
	}
}

// Create validates and persists a new report, resolving its case reference
// first. A caseId that matches no existing case materializes one. The audit
// entry and the broadcast notification are both best-effort: the report is
// already durable when they run.
func (s *Service) Create(ctx context.Context, r *models.Report, actor string) (*models.Report, error) {
	actor = strings.TrimSpace(actor)
	if actor == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "actor name is required")
	}
	if err := validate(r); err != nil {
		return nil, err
	}

	r.CreatedBy = actor
	if r.Status == "" {
		r.Status = models.StatusDisponible
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}

	s.resolveCase(ctx, r, actor)

	if err := s.store.Create(ctx, r); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "persist report")
	}
	if s.metrics != nil {
		s.metrics.ReportsCreated.Inc()
	}

	s.audit.Record(ctx, audit.EventReportCreated, actor,
		fmt.Sprintf("Report created: %s", r.Title))

	s.fanout.Deliver(ctx, fanout.AllActive(), fanout.Payload{
		Title:   "New report available",
		Message: fmt.Sprintf("Report %q was published by %s.", r.Title, actor),
		Type:    notifmodels.TypeReportCreated,
		Action:  "VIEW_REPORT",
		URL:     "/rapports",
		Extra: map[string]any{
			"reportId":    r.ID,
			"reportTitle": r.Title,
			"creator":     actor,
		},
	})

	return r, nil
}

// CreateWithFile ingests a report on behalf of the system actor, attaching
// the supplied file when one is present. An empty file is not an error; the
// report still goes through.
func (s *Service) CreateWithFile(ctx context.Context, r *models.Report, fileName, contentType string, content []byte) (*models.Report, error) {
	created, err := s.Create(ctx, r, SystemActor)
	if err != nil {
		return nil, err
	}
	if len(content) == 0 {
		return created, nil
	}
	if _, err := s.AttachFile(ctx, created.ID, SystemActor, fileName, contentType, content); err != nil {
		s.logger.WarnContext(ctx, "report stored but file attachment failed",
			"reportId", created.ID,
			"fileName", fileName,
			"error", err.Error(),
		)
	}
	return created, nil
}

// resolveCase interprets the loosely typed caseId: a number is a case id, any
// other non-blank value a case reference. An unresolved reference materializes
// a new case carrying the report's parties as its payload. Resolution is
// advisory: failures are logged and never block the report.
func (s *Service) resolveCase(ctx context.Context, r *models.Report, actor string) {
	caseID := strings.TrimSpace(r.CaseID)
	if caseID == "" {
		return
	}

	var (
		c       *casemodels.Case
		err     error
		numeric bool
	)
	if id, numErr := strconv.ParseInt(caseID, 10, 64); numErr == nil {
		numeric = true
		c, err = s.cases.FindByID(ctx, id)
	} else {
		c, err = s.cases.FindByReference(ctx, caseID)
	}

	if err == nil {
		s.checkCorrespondence(ctx, c, r)
		return
	}
	if !dErrors.HasCode(err, dErrors.CodeNotFound) {
		s.logger.WarnContext(ctx, "case lookup failed, leaving report unlinked",
			"caseId", caseID,
			"error", err.Error(),
		)
		return
	}
	// Only an unknown reference string materializes a case. A numeric id
	// points at a row that once existed; inventing a case whose reference is
	// a bare number would pollute the reference namespace.
	if numeric {
		s.logger.WarnContext(ctx, "numeric caseId matches no case, leaving report unlinked",
			"caseId", caseID,
		)
		return
	}

	derived := &casemodels.Case{
		Reference: caseID,
		Type:      casemodels.TypeEnquete,
		Status:    casemodels.StatusSousEnquete,
		Data:      derivedCasePayload(r),
	}
	if _, err := s.cases.CreateDerived(ctx, derived, actor); err != nil {
		s.logger.WarnContext(ctx, "could not materialize case for report",
			"caseReference", caseID,
			"error", err.Error(),
		)
	}
}

// checkCorrespondence compares the report's parties against the resolved
// case's payload. Divergence is expected when the case was authored
// independently, so a mismatch is only logged.
func (s *Service) checkCorrespondence(ctx context.Context, c *casemodels.Case, r *models.Report) {
	if c.Data == "" {
		return
	}
	var doc map[string]any
	if err := json.Unmarshal([]byte(c.Data), &doc); err != nil {
		return
	}
	for key, want := range map[string]string{
		"beneficiaries": r.Beneficiaries,
		"insureds":      r.Insureds,
		"subscriber":    r.Subscriber,
	} {
		have, ok := doc[key].(string)
		if ok && have != "" && !strings.EqualFold(have, want) {
			s.logger.WarnContext(ctx, "report parties diverge from linked case",
				"caseReference", c.Reference,
				"field", key,
			)
		}
	}
}

func derivedCasePayload(r *models.Report) string {
	raw, err := json.Marshal(map[string]any{
		"title":         r.Title,
		"beneficiaries": r.Beneficiaries,
		"insureds":      r.Insureds,
		"subscriber":    r.Subscriber,
		"initiator":     r.Initiator,
	})
	if err != nil {
		return ""
	}
	return string(raw)
}

// Update replaces the report's editable fields. Only the creator may mutate,
// and the replacement must carry a title.
func (s *Service) Update(ctx context.Context, id int64, upd models.Report, actor string) (*models.Report, error) {
	r, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.CreatedBy != actor {
		return nil, dErrors.New(dErrors.CodeForbidden, "only the report creator may modify it")
	}
	if strings.TrimSpace(upd.Title) == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "field title is required")
	}

	r.Title = upd.Title
	if upd.Beneficiaries != "" {
		r.Beneficiaries = upd.Beneficiaries
	}
	if upd.Insureds != "" {
		r.Insureds = upd.Insureds
	}
	if upd.Initiator != "" {
		r.Initiator = upd.Initiator
	}
	if upd.Subscriber != "" {
		r.Subscriber = upd.Subscriber
	}
	if upd.CaseID != "" {
		r.CaseID = upd.CaseID
	}
	if upd.Status != "" {
		r.Status = upd.Status
	}

	if err := s.store.Update(ctx, r); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "persist report update")
	}
	s.audit.Record(ctx, audit.EventReportCreated, actor,
		fmt.Sprintf("Report updated: %s", r.Title))
	return r, nil
}

// Delete removes a report along with its files. File removal is best-effort:
// an unreachable blob never strands the report row.
func (s *Service) Delete(ctx context.Context, id int64, actor string) error {
	r, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if r.CreatedBy != actor {
		return dErrors.New(dErrors.CodeForbidden, "only the report creator may delete it")
	}

	attached, err := s.files.ListByReport(ctx, id)
	if err != nil {
		s.logger.WarnContext(ctx, "could not list report files before delete",
			"reportId", id,
			"error", err.Error(),
		)
	}
	for _, f := range attached {
		if err := s.blobs.Delete(ctx, f.StorageKey()); err != nil {
			s.logger.WarnContext(ctx, "orphaned blob left behind",
				"key", f.StorageKey(),
				"error", err.Error(),
			)
		}
		if err := s.files.Delete(ctx, f.ID); err != nil {
			s.logger.WarnContext(ctx, "could not remove file metadata",
				"fileId", f.ID,
				"error", err.Error(),
			)
		}
	}

	if err := s.store.Delete(ctx, id); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "delete report")
	}
	s.audit.Record(ctx, audit.EventReportCreated, actor,
		fmt.Sprintf("Report deleted: %s", r.Title))
	return nil
}

// AttachFile stores the file bytes and records its metadata under the report.
// Only the creator and the system actor may attach.
func (s *Service) AttachFile(ctx context.Context, reportID int64, actor, fileName, contentType string, content []byte) (*models.ReportFile, error) {
	r, err := s.load(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if actor != SystemActor && r.CreatedBy != actor {
		return nil, dErrors.New(dErrors.CodeForbidden, "only the report creator may attach files")
	}
	if strings.TrimSpace(fileName) == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "field fileName is required")
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	f := &models.ReportFile{
		ReportID:    reportID,
		FileName:    fileName,
		ContentType: contentType,
		Size:        int64(len(content)),
		CreatedAt:   time.Now(),
	}
	if err := s.files.Create(ctx, f); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "persist file metadata")
	}
	if err := s.blobs.Store(ctx, f.StorageKey(), contentType, content); err != nil {
		if delErr := s.files.Delete(ctx, f.ID); delErr != nil {
			s.logger.WarnContext(ctx, "stranded file metadata after blob failure",
				"fileId", f.ID,
				"error", delErr.Error(),
			)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "store file content")
	}
	return f, nil
}

// ListFiles returns the metadata of a report's files, newest first.
func (s *Service) ListFiles(ctx context.Context, reportID int64) ([]*models.ReportFile, error) {
	if _, err := s.load(ctx, reportID); err != nil {
		return nil, err
	}
	out, err := s.files.ListByReport(ctx, reportID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list report files")
	}
	return out, nil
}

// FetchFile loads one file's metadata and content.
func (s *Service) FetchFile(ctx context.Context, fileID int64) (*models.ReportFile, []byte, error) {
	f, err := s.files.FindByID(ctx, fileID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, nil, dErrors.Newf(dErrors.CodeNotFound, "no file with id %d", fileID)
		}
		return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "load file metadata")
	}
	content, err := s.blobs.Retrieve(ctx, f.StorageKey())
	if err != nil {
		return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "retrieve file content")
	}
	return f, content, nil
}

// List returns every report.
func (s *Service) List(ctx context.Context) ([]*models.Report, error) {
	out, err := s.store.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list reports")
	}
	return out, nil
}

// ListByCreator returns the reports created by the given actor.
func (s *Service) ListByCreator(ctx context.Context, creator string) ([]*models.Report, error) {
	out, err := s.store.ListByCreator(ctx, creator)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list reports by creator")
	}
	return out, nil
}

// ListRecent returns the newest reports, capped at limit.
func (s *Service) ListRecent(ctx context.Context, limit int) ([]*models.Report, error) {
	out, err := s.store.ListRecent(ctx, limit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list recent reports")
	}
	return out, nil
}

// CountByCreator returns report counts grouped by creator.
func (s *Service) CountByCreator(ctx context.Context) (map[string]int64, error) {
	counts, err := s.store.CountByCreator(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "count reports")
	}
	return counts, nil
}

// FindByID loads one report.
func (s *Service) FindByID(ctx context.Context, id int64) (*models.Report, error) {
	return s.load(ctx, id)
}

// CanEdit reports whether the actor may modify the report. CanDelete shares
// the same creator-only rule.
func (s *Service) CanEdit(ctx context.Context, id int64, actor string) bool {
	actor = strings.TrimSpace(actor)
	if actor == "" {
		return false
	}
	r, err := s.load(ctx, id)
	if err != nil {
		return false
	}
	return r.CreatedBy == actor
}

// CanDelete reports whether the actor may delete the report.
func (s *Service) CanDelete(ctx context.Context, id int64, actor string) bool {
	return s.CanEdit(ctx, id, actor)
}

func (s *Service) load(ctx context.Context, id int64) (*models.Report, error) {
	r, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Newf(dErrors.CodeNotFound, "no report with id %d", id)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load report")
	}
	return r, nil
}

func validate(r *models.Report) error {
	for _, field := range []struct {
		name  string
		value string
	}{
		{"title", r.Title},
		{"beneficiaries", r.Beneficiaries},
		{"insureds", r.Insureds},
		{"initiator", r.Initiator},
		{"subscriber", r.Subscriber},
		{"caseId", r.CaseID},
	} {
		if strings.TrimSpace(field.value) == "" {
			return dErrors.Newf(dErrors.CodeBadRequest, "field %s is required", field.name)
		}
	}
	return nil
}
