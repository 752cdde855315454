// Package auth signs users in through the gateway and resolves the caller of
// every API request from their bearer token.
package auth

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jehnsen/admin-suite/internal/entity"
	"github.com/jehnsen/admin-suite/internal/platform/httpx"
	"github.com/jehnsen/admin-suite/internal/session"
	"github.com/jehnsen/admin-suite/internal/validation"
)

// Backend is the slice of the REST client used for authentication.
type Backend interface {
	Authenticate(ctx context.Context, email, password string) (session.Auth, error)
	CurrentUser(ctx context.Context) (entity.User, error)
	SignOut(ctx context.Context) error
}

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger  *slog.Logger
	backend Backend
}

// NewHandler constructs a Handler instance.
func NewHandler(backend Backend, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, backend: backend}
}

// MountRoutes registers auth routes on provided router. Login is public; the
// rest require a bearer token.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/auth/login", h.handleLogin)
	r.With(h.Require).Get("/auth/me", h.handleMe)
	r.With(h.Require).Post("/auth/logout", h.handleLogout)
}

type loginResponse struct {
	Token string      `json:"token"`
	User  entity.User `json:"user"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var form validation.LoginForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if errs := validation.Validate(form); !errs.Valid() {
		httpx.RespondError(w, errs.Err())
		return
	}
	auth, err := h.backend.Authenticate(r.Context(), form.Email, form.Password)
	if err != nil {
		h.logger.Info("sign in rejected", slog.String("email", form.Email), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("signed in", slog.Int64("user_id", auth.User.ID), slog.String("role", string(auth.User.Role)))
	httpx.JSON(w, http.StatusOK, map[string]any{"data": loginResponse{Token: auth.Token, User: auth.User}})
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	auth, _ := session.FromContext(r.Context())
	httpx.JSON(w, http.StatusOK, map[string]any{"data": auth.User})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.backend.SignOut(r.Context()); err != nil {
		h.logger.Warn("sign out", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
