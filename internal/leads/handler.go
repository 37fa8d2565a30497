package leads

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"taxsavings-backend/internal/httpx"
	"taxsavings-backend/internal/middleware"
	"taxsavings-backend/internal/transport"
	"taxsavings-backend/internal/validation"

	"github.com/go-chi/chi/v5"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type Handler struct {
	service *Service
	val     *validation.Validator
	log     *slog.Logger
}

func NewHandler(service *Service, val *validation.Validator, log *slog.Logger) *Handler {
	return &Handler{
		service: service,
		val:     val,
		log:     log,
	}
}

func (h *Handler) AdminList(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	limit, offset, err := httpx.ParseLimitOffset(r.URL.Query(), 20, 100)
	if err != nil {
		log.Warn("admin leads list: invalid query", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	items, total, err := h.service.ListAdmin(ctx, filterFromQuery(r), limit, offset)
	if err != nil {
		if details := filterErrorDetails(err); details != nil {
			transport.WriteError(w, http.StatusBadRequest, "invalid query", details)
			return
		}
		log.Error("admin leads list: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	log.Info("admin leads list: ok", slog.Int("count", len(items)))
	transport.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"items":  items,
		"limit":  limit,
		"offset": offset,
		"total":  total,
	})
}

func (h *Handler) AdminGetByID(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		log.Warn("admin leads get: missing id")
		transport.WriteError(w, http.StatusBadRequest, "missing id", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	lead, err := h.service.GetAdminByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			log.Warn("admin leads get: not found", slog.String("lead_id", id))
			transport.WriteError(w, http.StatusNotFound, "lead not found", nil)
			return
		}
		log.Error("admin leads get: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	log.Info("admin leads get: ok", slog.String("lead_id", id))
	transport.WriteJSON(w, http.StatusOK, lead)
}

func (h *Handler) AdminUpdateStatus(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		log.Warn("admin leads status: missing id")
		transport.WriteError(w, http.StatusBadRequest, "missing id", nil)
		return
	}

	var req AdminStatusUpdateRequest
	if err := httpx.DecodeJSON(r.Body, &req); err != nil {
		log.Warn("admin leads status: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		log.Warn("admin leads status: validation error")
		transport.WriteError(w, http.StatusBadRequest, "validation error", httpx.ValidationDetails(h.val.ValidationErrors(err)))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	lead, err := h.service.UpdateStatus(ctx, id, req.Status)
	if err != nil {
		h.writeUpdateError(w, log, "admin leads status", id, err)
		return
	}

	log.Info("admin leads status: ok", slog.String("lead_id", id), slog.String("status", lead.Status))
	transport.WriteJSON(w, http.StatusOK, lead)
}

func (h *Handler) AdminUpdateStage(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		log.Warn("admin leads stage: missing id")
		transport.WriteError(w, http.StatusBadRequest, "missing id", nil)
		return
	}

	var req AdminStageUpdateRequest
	if err := httpx.DecodeJSON(r.Body, &req); err != nil {
		log.Warn("admin leads stage: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		log.Warn("admin leads stage: validation error")
		transport.WriteError(w, http.StatusBadRequest, "validation error", httpx.ValidationDetails(h.val.ValidationErrors(err)))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	lead, err := h.service.UpdateStage(ctx, id, req.Stage)
	if err != nil {
		h.writeUpdateError(w, log, "admin leads stage", id, err)
		return
	}

	log.Info("admin leads stage: ok", slog.String("lead_id", id), slog.String("stage", lead.PipelineStage))
	transport.WriteJSON(w, http.StatusOK, lead)
}

func (h *Handler) AdminStats(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	stats, err := h.service.Stats(ctx)
	if err != nil {
		log.Error("admin leads stats: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}
	transport.WriteJSON(w, http.StatusOK, stats)
}

func (h *Handler) AdminExport(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	ctx, cancel := context.WithTimeout(r.Context(), 20*time.Second)
	defer cancel()

	items, err := h.service.Export(ctx, filterFromQuery(r))
	if err != nil {
		if details := filterErrorDetails(err); details != nil {
			transport.WriteError(w, http.StatusBadRequest, "invalid query", details)
			return
		}
		log.Error("admin leads export: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	body, err := Workbook(items)
	if err != nil {
		log.Error("admin leads export: render failed", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "export failed", nil)
		return
	}

	log.Info("admin leads export: ok", slog.Int("count", len(items)))
	filename := fmt.Sprintf("leads-%s.xlsx", h.service.now().In(h.service.location).Format("20060102"))
	transport.WriteAttachment(w, xlsxContentType, filename, body)
}

func (h *Handler) writeUpdateError(w http.ResponseWriter, log *slog.Logger, op, id string, err error) {
	switch {
	case errors.Is(err, ErrInvalidStatus):
		transport.WriteError(w, http.StatusBadRequest, "validation error", map[string]string{"status": "oneof"})
	case errors.Is(err, ErrInvalidStage):
		transport.WriteError(w, http.StatusBadRequest, "validation error", map[string]string{"stage": "oneof"})
	case errors.Is(err, ErrNotFound):
		log.Warn(op+": not found", slog.String("lead_id", id))
		transport.WriteError(w, http.StatusNotFound, "lead not found", nil)
	default:
		log.Error(op+": database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
	}
}

func filterFromQuery(r *http.Request) ListFilter {
	q := r.URL.Query()
	return ListFilter{
		Status: q.Get("status"),
		Stage:  q.Get("stage"),
		Source: q.Get("source"),
		Tag:    q.Get("tag"),
	}
}

func filterErrorDetails(err error) map[string]string {
	switch {
	case errors.Is(err, ErrInvalidStatus):
		return map[string]string{"status": "oneof"}
	case errors.Is(err, ErrInvalidStage):
		return map[string]string{"stage": "oneof"}
	case errors.Is(err, ErrInvalidSource):
		return map[string]string{"source": "oneof"}
	}
	return nil
}

func (h *Handler) logWithRequest(r *http.Request) *slog.Logger {
	if r == nil {
		return h.log
	}
	if id := middleware.RequestIDFromContext(r.Context()); id != "" {
		return h.log.With(slog.String("request_id", id))
	}
	return h.log
}
