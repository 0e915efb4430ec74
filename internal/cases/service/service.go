// Package service implements the investigation case lifecycle: creation with
// reference assignment, creator-only mutation, duplicate reconciliation and
// the notification fan-outs those mutations trigger.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/caris2020/AssuranceProject/internal/audit"
	"github.com/caris2020/AssuranceProject/internal/cases/models"
	"github.com/caris2020/AssuranceProject/internal/notification/fanout"
	notifmodels "github.com/caris2020/AssuranceProject/internal/notification/models"
	"github.com/caris2020/AssuranceProject/internal/platform/metrics"
	dErrors "github.com/caris2020/AssuranceProject/pkg/domainerrors"
	"github.com/caris2020/AssuranceProject/pkg/reference"
	"github.com/caris2020/AssuranceProject/pkg/sentinel"
)

// referenceAttempts bounds the regenerate-on-conflict loop. The code space is
// 36^10, so more than one retry already signals something badly wrong.
const referenceAttempts = 5

// Store is the persistence contract the service drives.
type Store interface {
	Create(ctx context.Context, c *models.Case) error
	FindByID(ctx context.Context, id int64) (*models.Case, error)
	FindByReference(ctx context.Context, ref string) (*models.Case, error)
	Update(ctx context.Context, c *models.Case) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context) ([]*models.Case, error)
	ListByCreator(ctx context.Context, creator string) ([]*models.Case, error)
}

// FanOut delivers one notification per selected recipient, best-effort.
type FanOut interface {
	Deliver(ctx context.Context, policy fanout.Policy, payload fanout.Payload) int
}

// Service orchestrates the case lifecycle.
type Service struct {
	store   Store
	audit   *audit.Recorder
	fanout  FanOut
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func New(store Store, recorder *audit.Recorder, engine FanOut, logger *slog.Logger, m *metrics.Metrics) *Service {
	return &Service{
		store:   store,
		audit:   recorder,
		fanout:  engine,
		logger:  logger,
		metrics: m,
	}
}

// Create persists a new case, assigning a generated reference when the caller
// supplied none. Reference uniqueness is enforced at insert time: a conflict
// on a generated reference triggers regeneration, bounded by
// referenceAttempts.
func (s *Service) Create(ctx context.Context, c *models.Case, actor string) (*models.Case, error) {
	actor = strings.TrimSpace(actor)
	if actor == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "actor name is required")
	}

	generated := false
	if strings.TrimSpace(c.Reference) == "" {
		ref, err := reference.Generate()
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "generate case reference")
		}
		c.Reference = ref
		generated = true
	}
	c.CreatedBy = actor
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}

	if err := s.insertWithRetry(ctx, c, generated); err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.CasesCreated.Inc()
	}

	s.audit.Record(ctx, audit.EventCaseCreated, actor,
		fmt.Sprintf("Case created (%s)", c.Type))

	s.fanout.Deliver(ctx, fanout.AllActive(), fanout.Payload{
		Title:   "New investigation case",
		Message: fmt.Sprintf("A new investigation case was created by %s (reference: %s)", actor, c.Reference),
		Type:    notifmodels.TypeCaseCreated,
		Action:  "VIEW_CASE",
		URL:     "/dossiers",
		Extra: map[string]any{
			"caseId":        c.ID,
			"caseReference": c.Reference,
			"creator":       actor,
		},
	})

	return c, nil
}

func (s *Service) insertWithRetry(ctx context.Context, c *models.Case, regenerate bool) error {
	for attempt := 0; attempt < referenceAttempts; attempt++ {
		err := s.store.Create(ctx, c)
		if err == nil {
			return nil
		}
		if !errors.Is(err, sentinel.ErrConflict) {
			return dErrors.Wrap(err, dErrors.CodeInternal, "persist case")
		}
		if !regenerate {
			return dErrors.New(dErrors.CodeConflict, "case reference already in use")
		}
		s.logger.WarnContext(ctx, "case reference collision, regenerating",
			"reference", c.Reference,
			"attempt", attempt+1,
		)
		ref, genErr := reference.Generate()
		if genErr != nil {
			return dErrors.Wrap(genErr, dErrors.CodeInternal, "regenerate case reference")
		}
		c.Reference = ref
	}
	return dErrors.New(dErrors.CodeInternal, "could not allocate a unique case reference")
}

// CreateDerived persists a case auto-created from a report, keeping the
// caller-chosen reference. It records the audit event but deliberately sends
// no notifications: the report creation that triggered it broadcasts its own.
func (s *Service) CreateDerived(ctx context.Context, c *models.Case, actor string) (*models.Case, error) {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	c.CreatedBy = actor
	if err := s.insertWithRetry(ctx, c, false); err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.CasesCreated.Inc()
	}
	s.audit.Record(ctx, audit.EventCaseCreated, actor,
		fmt.Sprintf("Case auto-created: %s", c.Reference))
	return c, nil
}

// Update applies the mutable fields of the patch. Only the creator may
// mutate. A real status transition fans out a notification to every eligible
// user except the actor; an unchanged status sends nothing.
func (s *Service) Update(ctx context.Context, id int64, patch models.Patch, actor string) (*models.Case, error) {
	c, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.CreatedBy != actor {
		return nil, dErrors.New(dErrors.CodeForbidden, "only the case creator may modify it")
	}

	oldStatus := c.Status
	if patch.Status != nil {
		c.Status = *patch.Status
	}
	if patch.Data != nil {
		c.Data = *patch.Data
	}

	if err := s.store.Update(ctx, c); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "persist case update")
	}

	if oldStatus != "" && c.Status != "" && oldStatus != c.Status {
		s.audit.Record(ctx, audit.EventCaseStatusChanged, actor,
			fmt.Sprintf("Case %s status changed %s -> %s", c.Reference, oldStatus, c.Status))

		title := c.DisplayTitle()
		s.fanout.Deliver(ctx, fanout.AllActiveExcluding(actor), fanout.Payload{
			Title:   "Case status updated",
			Message: fmt.Sprintf("Case %q moved from %s to %s.", title, oldStatus, c.Status),
			Type:    notifmodels.TypeCaseStatusChanged,
			Action:  "VIEW_CASE",
			URL:     "/dossiers",
			Extra: map[string]any{
				"caseId":        c.ID,
				"caseReference": c.Reference,
				"caseTitle":     title,
			},
		})
	}

	return c, nil
}

// Delete removes a case. Creator-only; no notification is sent.
func (s *Service) Delete(ctx context.Context, id int64, actor string) error {
	c, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if c.CreatedBy != actor {
		return dErrors.New(dErrors.CodeForbidden, "only the case creator may delete it")
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "delete case")
	}
	s.audit.Record(ctx, audit.EventCaseDeleted, actor,
		fmt.Sprintf("Case deleted: %s", c.Reference))
	return nil
}

// List returns every case.
func (s *Service) List(ctx context.Context) ([]*models.Case, error) {
	out, err := s.store.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list cases")
	}
	return out, nil
}

// ListByCreator returns the cases created by the given actor.
func (s *Service) ListByCreator(ctx context.Context, creator string) ([]*models.Case, error) {
	out, err := s.store.ListByCreator(ctx, creator)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list cases by creator")
	}
	return out, nil
}

// FindByID loads one case.
func (s *Service) FindByID(ctx context.Context, id int64) (*models.Case, error) {
	return s.load(ctx, id)
}

// FindByReference loads a case by its reference code, ignoring surrounding
// whitespace.
func (s *Service) FindByReference(ctx context.Context, ref string) (*models.Case, error) {
	ref = strings.TrimSpace(ref)
	c, err := s.store.FindByReference(ctx, ref)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Newf(dErrors.CodeNotFound, "no case with reference %s", ref)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load case by reference")
	}
	return c, nil
}

// Permissions reports what the actor may do with the case. Edit and delete
// share the creator-only rule; an unknown case or blank actor grants nothing.
func (s *Service) Permissions(ctx context.Context, id int64, actor string) models.Permissions {
	actor = strings.TrimSpace(actor)
	if actor == "" {
		return models.Permissions{}
	}
	c, err := s.store.FindByID(ctx, id)
	if err != nil {
		return models.Permissions{}
	}
	isCreator := c.CreatedBy == actor
	return models.Permissions{CanEdit: isCreator, CanDelete: isCreator}
}

// CleanupDuplicates groups all cases by their exact payload content and,
// within any group larger than one, keeps only the most recently created
// member. Equal timestamps are broken by keeping the higher ID so the sweep
// stays deterministic. Returns the number of cases deleted.
func (s *Service) CleanupDuplicates(ctx context.Context) (int, error) {
	all, err := s.store.List(ctx)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "list cases for cleanup")
	}

	groups := make(map[string][]*models.Case)
	for _, c := range all {
		groups[c.Data] = append(groups[c.Data], c)
	}

	deleted := 0
	for _, group := range groups {
		if len(group) < 2 {
			continue
		}
		sort.Slice(group, func(i, j int) bool {
			if !group[i].CreatedAt.Equal(group[j].CreatedAt) {
				return group[i].CreatedAt.After(group[j].CreatedAt)
			}
			return group[i].ID > group[j].ID
		})
		for _, dup := range group[1:] {
			if err := s.store.Delete(ctx, dup.ID); err != nil {
				return deleted, dErrors.Wrap(err, dErrors.CodeInternal, "delete duplicate case")
			}
			deleted++
			if s.metrics != nil {
				s.metrics.DuplicateCasesRemoved.Inc()
			}
		}
	}

	if deleted > 0 {
		s.logger.InfoContext(ctx, "duplicate case cleanup complete", "deleted", deleted)
	}
	return deleted, nil
}

func (s *Service) load(ctx context.Context, id int64) (*models.Case, error) {
	c, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Newf(dErrors.CodeNotFound, "no case with id %d", id)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load case")
	}
	return c, nil
}
