package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/jehnsen/admin-suite/internal/platform/httpx"
	"github.com/jehnsen/admin-suite/internal/session"
	"github.com/jehnsen/admin-suite/internal/validation"
	"github.com/jehnsen/admin-suite/internal/workflow"
)

// Runner is the dispatch contract the handler drives.
type Runner interface {
	Dispatch(ctx context.Context, req Request) (Result, error)
}

// SubjectCache is local state kept in step with the backend copy.
type SubjectCache interface {
	Subject(kind workflow.Kind, id int64) (workflow.Subject, bool)
	ReplaceSubject(ctx context.Context, subject workflow.Subject) error
}

// SubjectSource loads the current subject from the backend.
type SubjectSource interface {
	Subject(ctx context.Context, kind workflow.Kind, id int64) (workflow.Subject, error)
}

// ActionObserver counts dispatched actions.
type ActionObserver interface {
	ObserveAction(kind, action string, err error)
}

// Handler serves the workflow endpoints.
type Handler struct {
	runner   Runner
	cache    SubjectCache
	source   SubjectSource
	observer ActionObserver
	logger   *slog.Logger
}

// NewHandler constructs the workflow handler. cache and observer may be nil.
// Without a source the cache is the only view of a subject.
func NewHandler(runner Runner, cache SubjectCache, source SubjectSource, observer ActionObserver, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{runner: runner, cache: cache, source: source, observer: observer, logger: logger}
}

// MountRoutes registers the workflow routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/workflow/{kind}/statuses", h.handleStatuses)
	r.Get("/workflow/{kind}/actions", h.handleActions)
	r.Post("/workflow/{kind}/{id}/{action}", h.handleTransition)
}

func (h *Handler) handleStatuses(w http.ResponseWriter, r *http.Request) {
	kind, err := workflow.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"kind":     kind,
		"statuses": workflow.Statuses(kind),
	})
}

func (h *Handler) handleActions(w http.ResponseWriter, r *http.Request) {
	kind, err := workflow.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	q := r.URL.Query()
	status, err := workflow.ParseStatus(kind, q.Get("status"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	actions := workflow.AllowedActions(kind, status)
	raw := strings.TrimSpace(q.Get("role"))
	if caller, ok := session.FromContext(r.Context()); ok && raw == "" {
		raw = string(caller.User.Role)
	}
	if raw != "" {
		role, err := workflow.ParseRole(raw)
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		actions = workflow.ActionsFor(kind, status, role)
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"kind":     kind,
		"status":   status,
		"terminal": workflow.IsTerminal(kind, status),
		"actions":  actions,
	})
}

type transitionRequest struct {
	Status  string `json:"status"`
	Reason  string `json:"reason"`
	Remarks string `json:"remarks"`
}

type transitionResponse struct {
	Data workflow.Subject `json:"data"`
	From workflow.Status  `json:"from"`
	To   workflow.Status  `json:"to"`
}

func (h *Handler) handleTransition(w http.ResponseWriter, r *http.Request) {
	actor, err := callerActor(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	kind, err := workflow.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	action, err := workflow.ParseAction(chi.URLParam(r, "action"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.RespondError(w, fmt.Errorf("%w: invalid id", httpx.ErrBadRequest))
		return
	}

	var body transitionRequest
	if err := httpx.DecodeJSON(r, &body); err != nil {
		httpx.RespondError(w, err)
		return
	}
	errs := validation.ValidateTransition(validation.TransitionForm{Action: action, Reason: body.Reason, Remarks: body.Remarks})
	if !errs.Valid() {
		httpx.RespondError(w, errs.Err())
		return
	}

	subject, err := h.current(r.Context(), kind, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if body.Status != "" {
		seen, err := workflow.ParseStatus(kind, body.Status)
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		if now := subject.WorkflowStatus(); seen != now {
			httpx.RespondError(w, fmt.Errorf("%w: %s %d is now %s", httpx.ErrConflict, kind, id, now))
			return
		}
	}

	res, err := h.runner.Dispatch(r.Context(), Request{
		Subject: subject,
		Action:  action,
		Actor:   actor,
		Reason:  body.Reason,
		Remarks: body.Remarks,
	})
	if h.observer != nil {
		h.observer.ObserveAction(string(kind), string(action), err)
	}
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, transitionResponse{Data: res.Subject, From: res.From, To: res.To})
}

// callerActor is the signed-in user scoped to ctx by the auth middleware.
func callerActor(ctx context.Context) (Actor, error) {
	caller, ok := session.FromContext(ctx)
	if !ok || caller.User.ID <= 0 {
		return Actor{}, httpx.ErrUnauthenticated
	}
	role, err := workflow.ParseRole(string(caller.User.Role))
	if err != nil {
		return Actor{}, fmt.Errorf("%w: %v", workflow.ErrForbiddenAction, err)
	}
	return Actor{ID: caller.User.ID, Role: role}, nil
}

// current returns the backend's copy of the subject and writes it back to
// the cache, so the guard and the stale-view check never run on an old copy.
func (h *Handler) current(ctx context.Context, kind workflow.Kind, id int64) (workflow.Subject, error) {
	if h.source == nil {
		if h.cache != nil {
			if s, ok := h.cache.Subject(kind, id); ok {
				return s, nil
			}
		}
		return nil, fmt.Errorf("%w: %s %d", httpx.ErrNotFound, kind, id)
	}
	subject, err := h.source.Subject(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	if subject == nil {
		return nil, fmt.Errorf("%w: %s %d", httpx.ErrNotFound, kind, id)
	}
	if h.cache != nil {
		if err := h.cache.ReplaceSubject(ctx, subject); err != nil {
			h.logger.Warn("refresh cached subject", slog.String("kind", string(kind)), slog.Int64("id", id), slog.Any("error", err))
		}
	}
	return subject, nil
}
