package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jehnsen/admin-suite/internal/api"
	"github.com/jehnsen/admin-suite/internal/audit"
	audithttp "github.com/jehnsen/admin-suite/internal/audit/http"
	"github.com/jehnsen/admin-suite/internal/auth"
	"github.com/jehnsen/admin-suite/internal/entity"
	"github.com/jehnsen/admin-suite/internal/observability"
	"github.com/jehnsen/admin-suite/internal/session"
	"github.com/jehnsen/admin-suite/internal/workflow"
	"github.com/jehnsen/admin-suite/jobs"
)

func unsetEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, key := range keys {
		if prev, ok := os.LookupEnv(key); ok {
			require.NoError(t, os.Unsetenv(key))
			t.Cleanup(func() { _ = os.Setenv(key, prev) })
		}
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	unsetEnv(t, "BACKEND_URL", "BACKEND_TIMEOUT", "DASHBOARD_CACHE_TTL", "RATE_LIMIT_PER_MINUTE", "APP_ENV")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, "http://localhost:8000/api", cfg.BackendURL)
	require.Equal(t, 30*time.Second, cfg.BackendTimeout)
	require.Equal(t, 5*time.Minute, cfg.DashboardCacheTTL)
	require.Equal(t, 60, cfg.RateLimitPerMinute)
	require.False(t, cfg.IsProduction())
}

func TestLoadConfigRejectsRelativeBackend(t *testing.T) {
	t.Setenv("BACKEND_URL", "/api")
	_, err := LoadConfig()
	require.Error(t, err)
}

func TestInTestMode(t *testing.T) {
	t.Setenv(testModeEnv, "true")
	RefreshTestMode()
	require.True(t, InTestMode())

	t.Setenv(testModeEnv, "0")
	RefreshTestMode()
	require.False(t, InTestMode())
}

func TestRouterHealthAndSecurityHeaders(t *testing.T) {
	metrics := observability.NewMetrics()
	router := NewRouter(RouterParams{
		Config:     &Config{AppEnv: "development", RateLimitPerMinute: 100, AppRequestTimeout: time.Second},
		Metrics:    metrics,
		JobHandler: jobs.NewHandler(nil, nil),
	})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
	require.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
	require.Equal(t, "DENY", rr.Header().Get("X-Frame-Options"))
	require.NotEmpty(t, rr.Header().Get("X-Ratelimit-Limit"))

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/jobs/health", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), `"queue":"default"`)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/nowhere", nil))
	require.Equal(t, http.StatusNotFound, rr.Code)
	require.Contains(t, rr.Body.String(), `"message"`)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), `adminsuite_http_requests_total{code="200",route="/healthz"} 1`)
}

func TestRouterRateLimit(t *testing.T) {
	router := NewRouter(RouterParams{Config: &Config{RateLimitPerMinute: 2, AppRequestTimeout: time.Second}})

	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		last = httptest.NewRecorder()
		router.ServeHTTP(last, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	}
	require.Equal(t, http.StatusTooManyRequests, last.Code)
	require.Contains(t, last.Body.String(), "Too many requests")
}

func TestOpenJournalWithoutDSN(t *testing.T) {
	cfg := &Config{}
	journal, closeFn, err := OpenJournal(context.Background(), cfg, NewLogger(cfg))
	require.NoError(t, err)
	defer closeFn()
	require.IsType(t, &audit.MemoryJournal{}, journal)
}

type tokenBackend struct{}

func (tokenBackend) Authenticate(ctx context.Context, email, password string) (session.Auth, error) {
	return session.Auth{}, &api.Error{Status: http.StatusUnauthorized, Message: "Invalid credentials"}
}

func (tokenBackend) CurrentUser(ctx context.Context) (entity.User, error) {
	if session.Token(ctx, nil) != "tok-bk" {
		return entity.User{}, &api.Error{Status: http.StatusUnauthorized, Message: "Unauthenticated."}
	}
	return entity.User{ID: 12, Role: workflow.RoleBookkeeper}, nil
}

func (tokenBackend) SignOut(ctx context.Context) error { return nil }

func TestRouterRequiresBearerOnAPI(t *testing.T) {
	router := NewRouter(RouterParams{
		Config:       &Config{RateLimitPerMinute: 100, AppRequestTimeout: time.Second},
		AuthHandler:  auth.NewHandler(tokenBackend{}, nil),
		AuditHandler: audithttp.NewHandler(nil, audit.NewMemoryJournal()),
	})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/audit", nil))
	require.Equal(t, http.StatusUnauthorized, rr.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/audit", nil)
	req.Header.Set("Authorization", "Bearer tok-bk")
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"email":"a@school.test","password":"nope"}`)))
	require.Equal(t, http.StatusUnauthorized, rr.Code)
}
