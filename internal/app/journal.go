package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"github.com/jehnsen/admin-suite/internal/audit"
	"github.com/jehnsen/admin-suite/internal/platform/db"
)

// Journal is the audit store shared by the gateway and the worker.
type Journal interface {
	audit.Recorder
	Timeline(ctx context.Context, filters audit.Filters) (audit.Result, error)
}

// OpenJournal returns a Postgres-backed journal when PG_DSN is set and an
// in-memory one otherwise. The returned func releases the pool.
func OpenJournal(ctx context.Context, cfg *Config, logger *slog.Logger) (Journal, func(), error) {
	if cfg.PGDSN == "" {
		logger.Info("audit journal in memory")
		return audit.NewMemoryJournal(), func() {}, nil
	}
	pool, err := db.New(ctx, cfg.PGDSN, 4)
	if err != nil {
		return nil, nil, err
	}
	err = db.Migrate(ctx, pool, func(tx pgx.Tx) error {
		return audit.NewPGJournal(tx, logger).Migrate(ctx)
	})
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("migrate audit journal: %w", err)
	}
	return audit.NewPGJournal(pool, logger), pool.Close, nil
}
