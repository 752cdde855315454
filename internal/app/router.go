package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jehnsen/admin-suite/internal/auth"
	audithttp "github.com/jehnsen/admin-suite/internal/audit/http"
	"github.com/jehnsen/admin-suite/internal/dashboard"
	"github.com/jehnsen/admin-suite/internal/dispatch"
	"github.com/jehnsen/admin-suite/internal/finance"
	"github.com/jehnsen/admin-suite/internal/observability"
	"github.com/jehnsen/admin-suite/internal/platform/httpx"
	"github.com/jehnsen/admin-suite/internal/procurement"
	"github.com/jehnsen/admin-suite/jobs"
)

// RouterParams groups dependencies for building the HTTP router. Nil
// handlers are not mounted. With an AuthHandler every /api route other
// than sign-in requires a bearer token.
type RouterParams struct {
	Logger             *slog.Logger
	Config             *Config
	Metrics            *observability.Metrics
	AuthHandler        *auth.Handler
	WorkflowHandler    *dispatch.Handler
	DashboardHandler   *dashboard.Handler
	FinanceHandler     *finance.Handler
	ProcurementHandler *procurement.Handler
	AuditHandler       *audithttp.Handler
	JobHandler         *jobs.Handler
}

// NewRouter constructs the chi.Router with gateway defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.Error(w, http.StatusNotFound, "", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httpx.Error(w, http.StatusMethodNotAllowed, "", nil)
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		if params.AuthHandler != nil {
			params.AuthHandler.MountRoutes(r)
			r = r.With(params.AuthHandler.Require)
		}
		if params.WorkflowHandler != nil {
			params.WorkflowHandler.MountRoutes(r)
		}
		if params.DashboardHandler != nil {
			params.DashboardHandler.MountRoutes(r)
		}
		if params.FinanceHandler != nil {
			params.FinanceHandler.MountRoutes(r)
		}
		if params.ProcurementHandler != nil {
			params.ProcurementHandler.MountRoutes(r)
		}
		if params.AuditHandler != nil {
			params.AuditHandler.MountRoutes(r)
		}
	})
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}
	return r
}
