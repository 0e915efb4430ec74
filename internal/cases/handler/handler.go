// Package handler exposes the case lifecycle over HTTP.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/caris2020/AssuranceProject/internal/cases/models"
	"github.com/caris2020/AssuranceProject/internal/cases/service"
	"github.com/caris2020/AssuranceProject/internal/transport/http/shared"
	dErrors "github.com/caris2020/AssuranceProject/pkg/domainerrors"
)

type Handler struct {
	cases  *service.Service
	logger *slog.Logger
}

func New(cases *service.Service, logger *slog.Logger) *Handler {
	return &Handler{cases: cases, logger: logger}
}

// Register mounts the case routes.
func (h *Handler) Register(r chi.Router) {
	r.Route("/api/cases", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Post("/", h.handleCreate)
		r.Get("/my-cases", h.handleMyCases)
		r.Post("/cleanup-duplicates", h.handleCleanupDuplicates)
		r.Get("/reference/{reference}", h.handleFindByReference)
		r.Get("/{id}", h.handleFindByID)
		r.Put("/{id}", h.handleUpdate)
		r.Delete("/{id}", h.handleDelete)
		r.Get("/{id}/permissions", h.handlePermissions)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var (
		out []*models.Case
		err error
	)
	if creator := r.URL.Query().Get("creator"); creator != "" {
		out, err = h.cases.ListByCreator(ctx, creator)
	} else {
		out, err = h.cases.List(ctx)
	}
	if err != nil {
		h.logger.ErrorContext(ctx, "list cases failed", "error", err.Error())
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) handleMyCases(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := r.URL.Query().Get("actorName")
	if actor == "" {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "actorName is required"))
		return
	}
	out, err := h.cases.ListByCreator(ctx, actor)
	if err != nil {
		h.logger.ErrorContext(ctx, "list own cases failed", "error", err.Error())
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var c models.Case
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	created, err := h.cases.Create(ctx, &c, r.URL.Query().Get("actorName"))
	if err != nil {
		h.logger.WarnContext(ctx, "create case failed", "error", err.Error())
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, created)
}

func (h *Handler) handleFindByID(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := pathID(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	c, err := h.cases.FindByID(ctx, id)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, c)
}

func (h *Handler) handleFindByReference(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	c, err := h.cases.FindByReference(ctx, chi.URLParam(r, "reference"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, c)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := pathID(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var patch models.Patch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	updated, err := h.cases.Update(ctx, id, patch, r.URL.Query().Get("actorName"))
	if err != nil {
		h.logger.WarnContext(ctx, "update case failed", "id", id, "error", err.Error())
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, updated)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := pathID(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if err := h.cases.Delete(ctx, id, r.URL.Query().Get("actorName")); err != nil {
		h.logger.WarnContext(ctx, "delete case failed", "id", id, "error", err.Error())
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handlePermissions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := pathID(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	perms := h.cases.Permissions(ctx, id, r.URL.Query().Get("actorName"))
	shared.WriteJSON(w, http.StatusOK, perms)
}

func (h *Handler) handleCleanupDuplicates(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	removed, err := h.cases.CleanupDuplicates(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "duplicate cleanup failed", "error", err.Error())
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]int{"removed": removed})
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, dErrors.New(dErrors.CodeBadRequest, "invalid id")
	}
	return id, nil
}
