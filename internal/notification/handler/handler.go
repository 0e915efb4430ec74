// Package handler exposes per-user notification inboxes over HTTP. Every
// mutating route carries the acting user so ownership can be enforced.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/caris2020/AssuranceProject/internal/notification/service"
	"github.com/caris2020/AssuranceProject/internal/transport/http/shared"
	dErrors "github.com/caris2020/AssuranceProject/pkg/domainerrors"
)

type Handler struct {
	notifications *service.Service
	logger        *slog.Logger
}

func New(notifications *service.Service, logger *slog.Logger) *Handler {
	return &Handler{notifications: notifications, logger: logger}
}

// Register mounts the notification routes.
func (h *Handler) Register(r chi.Router) {
	r.Route("/api/notifications", func(r chi.Router) {
		r.Get("/user/{userID}", h.handleList)
		r.Get("/user/{userID}/unread", h.handleListUnread)
		r.Get("/user/{userID}/unread/count", h.handleCountUnread)
		r.Get("/user/{userID}/trash", h.handleListTrash)
		r.Post("/user/{userID}/read-all", h.handleMarkAllRead)
		r.Delete("/user/{userID}/all", h.handleTrashAll)
		r.Delete("/cleanup", h.handlePurge)
		r.Post("/{id}/read", h.handleMarkRead)
		r.Post("/{id}/restore", h.handleRestore)
		r.Delete("/{id}", h.handleTrash)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	out, err := h.notifications.List(ctx, chi.URLParam(r, "userID"))
	if err != nil {
		h.logger.ErrorContext(ctx, "list notifications failed", "error", err.Error())
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) handleListUnread(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	out, err := h.notifications.ListUnread(ctx, chi.URLParam(r, "userID"))
	if err != nil {
		h.logger.ErrorContext(ctx, "list unread failed", "error", err.Error())
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) handleCountUnread(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	count, err := h.notifications.CountUnread(ctx, chi.URLParam(r, "userID"))
	if err != nil {
		h.logger.ErrorContext(ctx, "count unread failed", "error", err.Error())
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]int64{"count": count})
}

func (h *Handler) handleListTrash(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	out, err := h.notifications.ListTrash(ctx, chi.URLParam(r, "userID"))
	if err != nil {
		h.logger.ErrorContext(ctx, "list trash failed", "error", err.Error())
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	h.mutateOne(w, r, h.notifications.MarkRead)
}

func (h *Handler) handleTrash(w http.ResponseWriter, r *http.Request) {
	h.mutateOne(w, r, h.notifications.Trash)
}

func (h *Handler) handleRestore(w http.ResponseWriter, r *http.Request) {
	h.mutateOne(w, r, h.notifications.Restore)
}

func (h *Handler) handleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.notifications.MarkAllRead(ctx, chi.URLParam(r, "userID")); err != nil {
		h.logger.ErrorContext(ctx, "mark all read failed", "error", err.Error())
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleTrashAll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.notifications.TrashAll(ctx, chi.URLParam(r, "userID")); err != nil {
		h.logger.ErrorContext(ctx, "trash all failed", "error", err.Error())
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handlePurge(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	removed, err := h.notifications.Purge(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "retention purge failed", "error", err.Error())
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]int64{"removed": removed})
}

// mutateOne factors the id+userId plumbing shared by the single-notification
// mutations.
func (h *Handler) mutateOne(w http.ResponseWriter, r *http.Request,
	op func(ctx context.Context, id uuid.UUID, userID string) error) {
	ctx := r.Context()
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid notification id"))
		return
	}
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "userId is required"))
		return
	}
	if err := op(ctx, id, userID); err != nil {
		h.logger.WarnContext(ctx, "notification mutation failed",
			"id", id.String(), "error", err.Error())
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
