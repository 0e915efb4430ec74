// Package handler exposes the report lifecycle over HTTP, including file
// attachment and the zipped archive download.
package handler

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/caris2020/AssuranceProject/internal/reports/models"
	"github.com/caris2020/AssuranceProject/internal/reports/service"
	"github.com/caris2020/AssuranceProject/internal/transport/http/shared"
	dErrors "github.com/caris2020/AssuranceProject/pkg/domainerrors"
)

// maxUploadBytes caps multipart uploads at 32 MiB.
const maxUploadBytes = 32 << 20

type Handler struct {
	reports *service.Service
	logger  *slog.Logger
}

func New(reports *service.Service, logger *slog.Logger) *Handler {
	return &Handler{reports: reports, logger: logger}
}

// Register mounts the report routes.
func (h *Handler) Register(r chi.Router) {
	r.Route("/api/reports", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Post("/", h.handleCreate)
		r.Post("/upload", h.handleCreateWithFile)
		r.Get("/{id}", h.handleFindByID)
		r.Put("/{id}", h.handleUpdate)
		r.Delete("/{id}", h.handleDelete)
		r.Get("/{id}/permissions", h.handlePermissions)
		r.Get("/{id}/files", h.handleListFiles)
		r.Post("/{id}/files", h.handleAttachFile)
	})
	r.Get("/api/download/{reportId}/archive", h.handleDownloadArchive)
	r.Get("/api/download/files/{fileId}", h.handleDownloadFile)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var (
		out []*models.Report
		err error
	)
	if creator := r.URL.Query().Get("creator"); creator != "" {
		out, err = h.reports.ListByCreator(ctx, creator)
	} else {
		out, err = h.reports.List(ctx)
	}
	if err != nil {
		h.logger.ErrorContext(ctx, "list reports failed", "error", err.Error())
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var rep models.Report
	if err := json.NewDecoder(r.Body).Decode(&rep); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	created, err := h.reports.Create(ctx, &rep, r.URL.Query().Get("actorName"))
	if err != nil {
		h.logger.WarnContext(ctx, "create report failed", "error", err.Error())
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, created)
}

// handleCreateWithFile ingests a multipart submission on behalf of the system
// actor: report fields as form values, an optional file under "file".
func (h *Handler) handleCreateWithFile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid multipart body"))
		return
	}

	rep := models.Report{
		Title:         r.FormValue("title"),
		Beneficiaries: r.FormValue("beneficiaries"),
		Insureds:      r.FormValue("insureds"),
		Initiator:     r.FormValue("initiator"),
		Subscriber:    r.FormValue("subscriber"),
		CaseID:        r.FormValue("caseId"),
	}

	var (
		fileName    string
		contentType string
		content     []byte
	)
	if file, header, err := r.FormFile("file"); err == nil {
		defer file.Close()
		content, err = io.ReadAll(file)
		if err != nil {
			shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "could not read uploaded file"))
			return
		}
		fileName = header.Filename
		contentType = header.Header.Get("Content-Type")
	}

	created, err := h.reports.CreateWithFile(ctx, &rep, fileName, contentType, content)
	if err != nil {
		h.logger.WarnContext(ctx, "ingest report failed", "error", err.Error())
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, created)
}

func (h *Handler) handleFindByID(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := pathInt(r, "id")
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	rep, err := h.reports.FindByID(ctx, id)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, rep)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := pathInt(r, "id")
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var upd models.Report
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	updated, err := h.reports.Update(ctx, id, upd, r.URL.Query().Get("actorName"))
	if err != nil {
		h.logger.WarnContext(ctx, "update report failed", "id", id, "error", err.Error())
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, updated)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := pathInt(r, "id")
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if err := h.reports.Delete(ctx, id, r.URL.Query().Get("actorName")); err != nil {
		h.logger.WarnContext(ctx, "delete report failed", "id", id, "error", err.Error())
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handlePermissions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := pathInt(r, "id")
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	actor := r.URL.Query().Get("actorName")
	shared.WriteJSON(w, http.StatusOK, map[string]bool{
		"canEdit":   h.reports.CanEdit(ctx, id, actor),
		"canDelete": h.reports.CanDelete(ctx, id, actor),
	})
}

func (h *Handler) handleListFiles(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := pathInt(r, "id")
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	out, err := h.reports.ListFiles(ctx, id)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) handleAttachFile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := pathInt(r, "id")
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid multipart body"))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "file part is required"))
		return
	}
	defer file.Close()
	content, err := io.ReadAll(file)
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "could not read uploaded file"))
		return
	}

	f, err := h.reports.AttachFile(ctx, id, r.URL.Query().Get("actorName"),
		header.Filename, header.Header.Get("Content-Type"), content)
	if err != nil {
		h.logger.WarnContext(ctx, "attach file failed", "reportId", id, "error", err.Error())
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, f)
}

func (h *Handler) handleDownloadFile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	fileID, err := pathInt(r, "fileId")
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	meta, content, err := h.reports.FetchFile(ctx, fileID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	w.Header().Set("Content-Type", meta.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", meta.FileName))
	w.Header().Set("Content-Length", strconv.Itoa(len(content)))
	_, _ = w.Write(content)
}

// handleDownloadArchive streams every file of a report as a single ZIP. The
// archive is built on the fly; a blob failure mid-stream truncates the ZIP,
// which the client detects through the missing central directory.
func (h *Handler) handleDownloadArchive(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reportID, err := pathInt(r, "reportId")
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	rep, err := h.reports.FindByID(ctx, reportID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	attached, err := h.reports.ListFiles(ctx, reportID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", fmt.Sprintf("report-%d.zip", rep.ID)))

	zw := zip.NewWriter(w)
	defer zw.Close()
	for _, f := range attached {
		_, content, err := h.reports.FetchFile(ctx, f.ID)
		if err != nil {
			h.logger.ErrorContext(ctx, "archive aborted: file unavailable",
				"fileId", f.ID, "error", err.Error())
			return
		}
		entry, err := zw.Create(f.FileName)
		if err != nil {
			h.logger.ErrorContext(ctx, "archive aborted: zip entry failed",
				"fileId", f.ID, "error", err.Error())
			return
		}
		if _, err := entry.Write(content); err != nil {
			h.logger.ErrorContext(ctx, "archive aborted: write failed",
				"fileId", f.ID, "error", err.Error())
			return
		}
	}
}

func pathInt(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil {
		return 0, dErrors.Newf(dErrors.CodeBadRequest, "invalid %s", name)
	}
	return id, nil
}
