// Package admin aggregates cross-domain figures into the back-office
// dashboard. Read-only; all mutation goes through the owning domain.
package admin

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/caris2020/AssuranceProject/internal/audit"
	casemodels "github.com/caris2020/AssuranceProject/internal/cases/models"
	reportmodels "github.com/caris2020/AssuranceProject/internal/reports/models"
	"github.com/caris2020/AssuranceProject/internal/transport/http/shared"
	usermodels "github.com/caris2020/AssuranceProject/internal/users/models"
)

// recentLimit bounds the event and report feeds on the dashboard.
const recentLimit = 10

type CaseLister interface {
	List(ctx context.Context) ([]*casemodels.Case, error)
}

type ReportCounter interface {
	List(ctx context.Context) ([]*reportmodels.Report, error)
	ListRecent(ctx context.Context, limit int) ([]*reportmodels.Report, error)
	CountByCreator(ctx context.Context) (map[string]int64, error)
}

type UserDirectory interface {
	ListAll(ctx context.Context) ([]*usermodels.User, error)
}

type NotificationCounter interface {
	CountAll(ctx context.Context) (int64, error)
}

// Dashboard is the admin landing payload.
type Dashboard struct {
	TotalCases         int                    `json:"totalCases"`
	TotalReports       int                    `json:"totalReports"`
	TotalUsers         int                    `json:"totalUsers"`
	ActiveUsers        int                    `json:"activeUsers"`
	TotalNotifications int64                  `json:"totalNotifications"`
	ReportsByCreator   map[string]int64       `json:"reportsByCreator"`
	RecentReports      []*reportmodels.Report `json:"recentReports"`
	RecentEvents       []audit.Event          `json:"recentEvents"`
	CasesByStatus      map[string]int         `json:"casesByStatus"`
}

type Handler struct {
	cases         CaseLister
	reports       ReportCounter
	users         UserDirectory
	notifications NotificationCounter
	audit         *audit.Recorder
	logger        *slog.Logger
}

func NewHandler(cases CaseLister, reports ReportCounter, users UserDirectory,
	notifications NotificationCounter, recorder *audit.Recorder, logger *slog.Logger) *Handler {
	return &Handler{
		cases:         cases,
		reports:       reports,
		users:         users,
		notifications: notifications,
		audit:         recorder,
		logger:        logger,
	}
}

// Register mounts the admin routes.
func (h *Handler) Register(r chi.Router) {
	r.Get("/api/admin/dashboard", h.handleDashboard)
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	allCases, err := h.cases.List(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "dashboard: list cases failed", "error", err.Error())
		shared.WriteError(w, err)
		return
	}
	allReports, err := h.reports.List(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "dashboard: list reports failed", "error", err.Error())
		shared.WriteError(w, err)
		return
	}
	byCreator, err := h.reports.CountByCreator(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "dashboard: report counts failed", "error", err.Error())
		shared.WriteError(w, err)
		return
	}
	recent, err := h.reports.ListRecent(ctx, recentLimit)
	if err != nil {
		h.logger.ErrorContext(ctx, "dashboard: recent reports failed", "error", err.Error())
		shared.WriteError(w, err)
		return
	}

	allUsers, err := h.users.ListAll(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "dashboard: list users failed", "error", err.Error())
		shared.WriteError(w, err)
		return
	}
	active := 0
	for _, u := range allUsers {
		if u.Active {
			active++
		}
	}

	totalNotifications, err := h.notifications.CountAll(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "dashboard: notification count unavailable", "error", err.Error())
		totalNotifications = 0
	}

	byStatus := make(map[string]int)
	for _, c := range allCases {
		byStatus[string(c.Status)]++
	}

	// The audit feed is advisory on the dashboard; an unavailable trail
	// degrades to an empty list rather than a 500.
	events, err := h.audit.ListRecent(ctx, recentLimit)
	if err != nil {
		h.logger.WarnContext(ctx, "dashboard: audit feed unavailable", "error", err.Error())
		events = nil
	}

	shared.WriteJSON(w, http.StatusOK, Dashboard{
		TotalCases:         len(allCases),
		TotalReports:       len(allReports),
		TotalUsers:         len(allUsers),
		ActiveUsers:        active,
		TotalNotifications: totalNotifications,
		ReportsByCreator:   byCreator,
		RecentReports:      recent,
		RecentEvents:       events,
		CasesByStatus:      byStatus,
	})
}
