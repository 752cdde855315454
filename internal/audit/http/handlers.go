package audithttp

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/jehnsen/admin-suite/internal/audit"
	"github.com/jehnsen/admin-suite/internal/platform/httpx"
	"github.com/jehnsen/admin-suite/internal/validation"
	"github.com/jehnsen/admin-suite/internal/workflow"
)

const (
	maxRangeDays    = 366
	dateLayout      = "2006-01-02"
	defaultLookback = 30 * 24 * time.Hour
)

// TimelineService defines the read side of the journal.
type TimelineService interface {
	Timeline(ctx context.Context, filters audit.Filters) (audit.Result, error)
}

// Handler serves the audit timeline.
type Handler struct {
	logger  *slog.Logger
	service TimelineService
	now     func() time.Time
}

// NewHandler constructs the audit handler.
func NewHandler(logger *slog.Logger, service TimelineService) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, now: time.Now}
}

func (h *Handler) handleTimeline(w http.ResponseWriter, r *http.Request) {
	filters, err := h.parseFilters(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	result, err := h.service.Timeline(r.Context(), filters)
	if err != nil {
		h.logger.Error("load audit timeline", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) parseFilters(r *http.Request) (audit.Filters, error) {
	q := r.URL.Query()
	errs := validation.Errors{}
	var f audit.Filters

	if raw := strings.TrimSpace(q.Get("kind")); raw != "" {
		kind, err := workflow.ParseKind(raw)
		if err != nil {
			errs["kind"] = "unknown kind"
		}
		f.Kind = kind
	}
	if raw := strings.TrimSpace(q.Get("action")); raw != "" {
		action, err := workflow.ParseAction(raw)
		if err != nil {
			errs["action"] = "unknown action"
		}
		f.Action = action
	}
	f.EntityID = positiveInt(q.Get("entity_id"), "entity_id", errs)
	f.ActorID = positiveInt(q.Get("actor_id"), "actor_id", errs)
	f.Page = int(positiveInt(q.Get("page"), "page", errs))
	f.PageSize = int(positiveInt(q.Get("page_size"), "page_size", errs))

	now := h.now().UTC()
	to := now
	if raw := strings.TrimSpace(q.Get("to")); raw != "" {
		parsed, err := time.Parse(dateLayout, raw)
		if err != nil {
			errs["to"] = "to must be a date (YYYY-MM-DD)"
		}
		// inclusive of the whole day
		to = parsed.Add(24*time.Hour - time.Nanosecond)
	}
	from := to.Add(-defaultLookback)
	if raw := strings.TrimSpace(q.Get("from")); raw != "" {
		parsed, err := time.Parse(dateLayout, raw)
		if err != nil {
			errs["from"] = "from must be a date (YYYY-MM-DD)"
		}
		from = parsed
	}
	if errs.Valid() {
		if from.After(to) {
			errs["from"] = "from must not be after to"
		} else if to.Sub(from) > maxRangeDays*24*time.Hour {
			errs["from"] = "range must not exceed one year"
		}
	}
	if !errs.Valid() {
		return audit.Filters{}, errs.Err()
	}
	f.From, f.To = from, to
	return f, nil
}

func positiveInt(raw, field string, errs validation.Errors) int64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v <= 0 {
		errs[field] = field + " must be a positive integer"
		return 0
	}
	return v
}
