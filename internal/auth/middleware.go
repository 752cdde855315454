package auth

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/jehnsen/admin-suite/internal/platform/httpx"
	"github.com/jehnsen/admin-suite/internal/session"
)

// Require resolves the caller from the Authorization header and scopes their
// token and user to the request context. Backend calls made while serving the
// request carry the caller's token.
func (h *Handler) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			httpx.RespondError(w, httpx.ErrUnauthenticated)
			return
		}
		ctx := session.WithAuth(r.Context(), session.Auth{Token: token, IsAuthenticated: true})
		user, err := h.backend.CurrentUser(ctx)
		if err != nil {
			h.logger.Debug("resolve caller", slog.Any("error", err))
			httpx.RespondError(w, err)
			return
		}
		if user.ID <= 0 {
			httpx.RespondError(w, httpx.ErrUnauthenticated)
			return
		}
		ctx = session.WithAuth(r.Context(), session.Auth{User: user, Token: token, IsAuthenticated: true})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
