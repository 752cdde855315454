package audit

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/jehnsen/admin-suite/internal/workflow"
)

// DB is the subset of *pgxpool.Pool the journal needs.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Schema creates the journal table.
const Schema = `CREATE TABLE IF NOT EXISTS workflow_audit (
	id          BIGSERIAL PRIMARY KEY,
	actor_id    BIGINT NOT NULL,
	role        TEXT NOT NULL DEFAULT '',
	kind        TEXT NOT NULL,
	entity_id   BIGINT NOT NULL,
	action      TEXT NOT NULL,
	from_status TEXT NOT NULL,
	to_status   TEXT NOT NULL,
	reason      TEXT NOT NULL DEFAULT '',
	remarks     TEXT NOT NULL DEFAULT '',
	at          TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS workflow_audit_entity_idx ON workflow_audit (kind, entity_id, at DESC);`

// PGJournal writes entries into Postgres.
type PGJournal struct {
	db     DB
	logger *slog.Logger
}

// NewPGJournal constructs PGJournal.
func NewPGJournal(db DB, logger *slog.Logger) *PGJournal {
	if logger == nil {
		logger = slog.Default()
	}
	return &PGJournal{db: db, logger: logger}
}

// Migrate creates the journal table when missing.
func (j *PGJournal) Migrate(ctx context.Context) error {
	if _, err := j.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("audit: migrate: %w", err)
	}
	return nil
}

// Record writes entry.
func (j *PGJournal) Record(ctx context.Context, entry Entry) error {
	if j == nil || j.db == nil {
		return fmt.Errorf("audit: journal not initialised")
	}
	if err := entry.validate(); err != nil {
		return err
	}
	_, err := j.db.Exec(ctx, `INSERT INTO workflow_audit (actor_id, role, kind, entity_id, action, from_status, to_status, reason, remarks, at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, COALESCE($10, NOW()))`,
		entry.ActorID, string(entry.Role), string(entry.Kind), entry.EntityID, string(entry.Action),
		string(entry.From), string(entry.To), entry.Reason, entry.Remarks, toPgTime(entry.At))
	if err != nil {
		j.logger.Error("record workflow audit", slog.Any("error", err), slog.String("kind", string(entry.Kind)), slog.Int64("entity_id", entry.EntityID))
		return err
	}
	return nil
}

// Timeline returns matching entries, newest first.
func (j *PGJournal) Timeline(ctx context.Context, f Filters) (Result, error) {
	if j == nil || j.db == nil {
		return Result{}, fmt.Errorf("audit: journal not initialised")
	}
	page, size, offset := f.window()
	where, args := f.clause()
	args = append(args, size+1, offset)
	sql := fmt.Sprintf(`SELECT id, actor_id, role, kind, entity_id, action, from_status, to_status, reason, remarks, at
FROM workflow_audit%s ORDER BY at DESC, id DESC LIMIT $%d OFFSET $%d`, where, len(args)-1, len(args))
	rows, err := j.db.Query(ctx, sql, args...)
	if err != nil {
		return Result{}, err
	}
	defer rows.Close()
	var entries []Entry
	for rows.Next() {
		var e Entry
		var role, kind, action, fromS, toS string
		var at pgtype.Timestamptz
		if err := rows.Scan(&e.ID, &e.ActorID, &role, &kind, &e.EntityID, &action, &fromS, &toS, &e.Reason, &e.Remarks, &at); err != nil {
			return Result{}, err
		}
		e.Role = workflow.Role(role)
		e.Kind = workflow.Kind(kind)
		e.Action = workflow.Action(action)
		e.From = workflow.Status(fromS)
		e.To = workflow.Status(toS)
		if at.Valid {
			e.At = at.Time
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return Result{}, err
	}
	return paginate(entries, page, size), nil
}

func (f Filters) clause() (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if f.Kind != "" {
		add("kind = $%d", string(f.Kind))
	}
	if f.EntityID != 0 {
		add("entity_id = $%d", f.EntityID)
	}
	if f.ActorID != 0 {
		add("actor_id = $%d", f.ActorID)
	}
	if f.Action != "" {
		add("lower(action) = lower($%d)", string(f.Action))
	}
	if !f.From.IsZero() {
		add("at >= $%d", toPgTime(f.From))
	}
	if !f.To.IsZero() {
		add("at <= $%d", toPgTime(f.To))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func toPgTime(t time.Time) pgtype.Timestamptz {
	if t.IsZero() {
		return pgtype.Timestamptz{}
	}
	return pgtype.Timestamptz{Time: t, Valid: true}
}
