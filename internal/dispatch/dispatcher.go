// Package dispatch runs workflow actions end to end: local guard, optimistic
// store update, backend call, then reconcile or roll back.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jehnsen/admin-suite/internal/api"
	"github.com/jehnsen/admin-suite/internal/audit"
	"github.com/jehnsen/admin-suite/internal/entity"
	"github.com/jehnsen/admin-suite/internal/workflow"
)

// Backend performs the authoritative transition.
type Backend interface {
	Transition(ctx context.Context, kind workflow.Kind, id int64, action workflow.Action, body api.TransitionBody) (workflow.Subject, error)
}

// Cache is where subjects are optimistically updated.
type Cache interface {
	ReplaceSubject(ctx context.Context, subject workflow.Subject) error
}

// Actor is the user performing an action.
type Actor struct {
	ID   int64
	Role workflow.Role
}

// Request describes one action on one record.
type Request struct {
	Subject workflow.Subject
	Action  workflow.Action
	Actor   Actor
	Reason  string
	Remarks string
}

// Result is the reconciled outcome.
type Result struct {
	Subject workflow.Subject
	From    workflow.Status
	To      workflow.Status
}

// Dispatcher coordinates one action at a time per call; it holds no locks
// across the backend round trip.
type Dispatcher struct {
	backend  Backend
	cache    Cache
	recorder audit.Recorder
	logger   *slog.Logger
	now      func() time.Time
	onChange func(ctx context.Context, kind workflow.Kind)
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithRecorder journals successful actions.
func WithRecorder(r audit.Recorder) Option {
	return func(d *Dispatcher) { d.recorder = r }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.logger = l
		}
	}
}

// OnChange registers a callback run after each reconciled action.
func OnChange(fn func(ctx context.Context, kind workflow.Kind)) Option {
	return func(d *Dispatcher) { d.onChange = fn }
}

// New constructs a Dispatcher. cache may be nil when no local state is kept.
func New(backend Backend, cache Cache, opts ...Option) *Dispatcher {
	d := &Dispatcher{backend: backend, cache: cache, logger: slog.Default(), now: time.Now}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch runs req. A transition the guard rejects never reaches the
// backend; a backend failure restores the subject as it was.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) (Result, error) {
	if req.Subject == nil {
		return Result{}, errors.New("dispatch: subject required")
	}
	kind := req.Subject.WorkflowKind()
	from := req.Subject.WorkflowStatus()
	next, err := workflow.Check(kind, from, req.Action, req.Actor.Role, req.Reason)
	if err != nil {
		return Result{}, err
	}

	optimistic := next != from
	if optimistic && d.cache != nil {
		projected, err := entity.WithStatus(req.Subject, next)
		if err != nil {
			return Result{}, err
		}
		if err := d.cache.ReplaceSubject(ctx, projected); err != nil {
			return Result{}, fmt.Errorf("dispatch: optimistic update: %w", err)
		}
	}

	updated, err := d.backend.Transition(ctx, kind, req.Subject.WorkflowID(), req.Action, api.TransitionBody{
		ActorID: req.Actor.ID,
		Reason:  req.Reason,
		Remarks: req.Remarks,
	})
	if err != nil {
		if optimistic && d.cache != nil {
			// restore even if the caller has gone away
			if rbErr := d.cache.ReplaceSubject(context.WithoutCancel(ctx), req.Subject); rbErr != nil {
				d.logger.Error("rollback optimistic update", slog.Any("error", rbErr), slog.String("kind", string(kind)), slog.Int64("id", req.Subject.WorkflowID()))
			}
		}
		d.logger.Warn("workflow action failed",
			slog.String("kind", string(kind)),
			slog.Int64("id", req.Subject.WorkflowID()),
			slog.String("action", string(req.Action)),
			slog.Any("error", err))
		return Result{}, err
	}

	to := updated.WorkflowStatus()
	if to != next {
		d.logger.Info("backend status differs from local projection",
			slog.String("kind", string(kind)),
			slog.Int64("id", updated.WorkflowID()),
			slog.String("projected", string(next)),
			slog.String("actual", string(to)))
	}
	if d.cache != nil {
		if err := d.cache.ReplaceSubject(ctx, updated); err != nil {
			d.logger.Error("reconcile store", slog.Any("error", err))
		}
	}
	if d.recorder != nil {
		entry := audit.Entry{
			ActorID:  req.Actor.ID,
			Role:     req.Actor.Role,
			Kind:     kind,
			EntityID: updated.WorkflowID(),
			Action:   req.Action,
			From:     from,
			To:       to,
			Reason:   req.Reason,
			Remarks:  req.Remarks,
			At:       d.now(),
		}
		if err := d.recorder.Record(context.WithoutCancel(ctx), entry); err != nil {
			d.logger.Error("journal workflow action", slog.Any("error", err))
		}
	}
	if d.onChange != nil {
		d.onChange(ctx, kind)
	}
	return Result{Subject: updated, From: from, To: to}, nil
}
