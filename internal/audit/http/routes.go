package audithttp

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/jehnsen/admin-suite/internal/platform/httpx"
	"github.com/jehnsen/admin-suite/internal/session"
)

const rateLimit = 30
const rateWindow = time.Minute

// MountRoutes registers the timeline. Queries are limited per actor.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	limiter := httprate.Limit(rateLimit, rateWindow,
		httprate.WithKeyFuncs(rateLimitKey),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			httpx.Error(w, http.StatusTooManyRequests, "Too many audit queries. Please try again later.", nil)
		}),
	)
	r.With(limiter).Get("/audit", h.handleTimeline)
}

// rateLimitKey buckets by the signed-in caller, falling back to the client IP.
func rateLimitKey(r *http.Request) (string, error) {
	if caller, ok := session.FromContext(r.Context()); ok && caller.User.ID > 0 {
		return "user:" + strconv.FormatInt(caller.User.ID, 10), nil
	}
	key, err := httprate.KeyByIP(r)
	if err != nil {
		return "", err
	}
	return "ip:" + key, nil
}
