package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jehnsen/admin-suite/internal/platform/httpx"
)

// Reader is the dashboard contract the handler serves.
type Reader interface {
	Get(ctx context.Context, name string) (any, error)
	Invalidate(ctx context.Context) error
}

// WarmupQueue schedules a background rebuild.
type WarmupQueue interface {
	EnqueueWarmup(ctx context.Context, names ...string) error
}

// Handler serves dashboard summaries.
type Handler struct {
	reader Reader
	queue  WarmupQueue
	logger *slog.Logger
}

// NewHandler constructs the dashboard handler. queue may be nil.
func NewHandler(reader Reader, queue WarmupQueue, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{reader: reader, queue: queue, logger: logger}
}

// MountRoutes registers the dashboard routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/dashboard/{name}", h.handleGet)
	r.Post("/dashboard/refresh", h.handleRefresh)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	out, err := h.reader.Get(r.Context(), name)
	if err != nil {
		if errors.Is(err, ErrUnknownDashboard) {
			err = fmt.Errorf("%w: dashboard %q", httpx.ErrNotFound, name)
		} else {
			h.logger.Error("load dashboard", slog.String("dashboard", name), slog.Any("error", err))
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"data": out})
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if err := h.reader.Invalidate(r.Context()); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if h.queue == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err := h.queue.EnqueueWarmup(r.Context(), Names()...); err != nil {
		h.logger.Warn("enqueue dashboard warmup", slog.Any("error", err))
		w.WriteHeader(http.StatusNoContent)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}
