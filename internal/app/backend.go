package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/jehnsen/admin-suite/internal/api"
	"github.com/jehnsen/admin-suite/internal/session"
)

// NewBackend builds the REST client. Requests served for an API caller carry
// that caller's token; the stored session is only used by background work.
func NewBackend(ctx context.Context, cfg *Config, logger *slog.Logger, sessions session.Store, observer api.Observer) (*api.Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	opts := []api.Option{
		api.WithHTTPClient(&http.Client{Timeout: cfg.BackendTimeout}),
		api.WithLogger(logger),
		api.WithUnauthorizedHook(func(context.Context) {
			logger.Warn("backend session expired; sign in again to resume")
		}),
	}
	if sessions != nil {
		opts = append(opts, api.WithSessionStore(sessions))
	}
	if observer != nil {
		opts = append(opts, api.WithObserver(observer))
	}
	return api.New(cfg.BackendURL, opts...), nil
}

// SignIn opens the service session used by background jobs when credentials
// are configured and no session is stored yet.
func SignIn(ctx context.Context, cfg *Config, client *api.Client) error {
	if cfg.BackendEmail == "" {
		return nil
	}
	if session.Token(ctx, client.Sessions()) != "" {
		return nil
	}
	if _, err := client.Login(ctx, cfg.BackendEmail, cfg.BackendPassword); err != nil {
		return fmt.Errorf("sign in to backend: %w", err)
	}
	return nil
}
