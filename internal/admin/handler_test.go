package admin

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
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caris2020/AssuranceProject/internal/audit"
	casemodels "github.com/caris2020/AssuranceProject/internal/cases/models"
	casestore "github.com/caris2020/AssuranceProject/internal/cases/store"
	notifstore "github.com/caris2020/AssuranceProject/internal/notification/store"
	reportmodels "github.com/caris2020/AssuranceProject/internal/reports/models"
	reportstore "github.com/caris2020/AssuranceProject/internal/reports/store"
	usermodels "github.com/caris2020/AssuranceProject/internal/users/models"
	userstore "github.com/caris2020/AssuranceProject/internal/users/store"
)

func TestDashboard(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	cases := casestore.NewInMemory()
	require.NoError(t, cases.Create(ctx, &casemodels.Case{
		Reference: "AAAA000001", Type: casemodels.TypeFraude,
		Status: casemodels.StatusSousEnquete, CreatedBy: "alice", CreatedAt: time.Now(),
	}))
	require.NoError(t, cases.Create(ctx, &casemodels.Case{
		Reference: "AAAA000002", Type: casemodels.TypeSinistre,
		Status: casemodels.StatusClos, CreatedBy: "bob", CreatedAt: time.Now(),
	}))

	reports := reportstore.NewInMemory()
	for i, creator := range []string{"alice", "alice", "bob"} {
		require.NoError(t, reports.Create(ctx, &reportmodels.Report{
			Title: "report", Beneficiaries: "x", Insureds: "y", Initiator: "z",
			Subscriber: "w", CaseID: "AAAA000001", Status: reportmodels.StatusDisponible,
			CreatedBy: creator, CreatedAt: time.Now().Add(time.Duration(i) * time.Minute),
		}))
	}

	users := userstore.NewInMemory()
	now := time.Now()
	require.NoError(t, users.Add(ctx, &usermodels.User{
		Username: "alice", Active: true, LastLoginAt: &now,
		Status: usermodels.StatusRegistered, Role: usermodels.RoleUser,
	}))
	require.NoError(t, users.Add(ctx, &usermodels.User{
		Username: "bob", Active: false,
		Status: usermodels.StatusDeleted, Role: usermodels.RoleUser,
	}))

	auditStore := audit.NewInMemoryStore()
	recorder := audit.NewRecorder(auditStore, logger)
	recorder.Record(ctx, audit.EventCaseCreated, "alice", "Case created (FRAUDE)")

	router := chi.NewRouter()
	NewHandler(cases, reports, users, notifstore.NewInMemory(), recorder, logger).Register(router)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/dashboard", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var dash Dashboard
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dash))
	assert.Equal(t, 2, dash.TotalCases)
	assert.Equal(t, 3, dash.TotalReports)
	assert.Equal(t, 2, dash.TotalUsers)
	assert.Equal(t, 1, dash.ActiveUsers)
	assert.Equal(t, int64(2), dash.ReportsByCreator["alice"])
	assert.Equal(t, int64(1), dash.ReportsByCreator["bob"])
	assert.Equal(t, 1, dash.CasesByStatus["SOUS_ENQUETE"])
	assert.Equal(t, 1, dash.CasesByStatus["CLOS"])
	assert.Len(t, dash.RecentEvents, 1)
	require.Len(t, dash.RecentReports, 3)
	assert.Equal(t, int64(3), dash.RecentReports[0].ID)
}
