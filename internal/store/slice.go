// Package store holds the client-side cache of backend records. Each slice of
// state is owned by one goroutine; readers get copies and writers submit
// functions, so no caller ever observes a half-applied update.
package store

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is returned once a slice has been stopped.
var ErrClosed = errors.New("store: closed")

// Slice owns one piece of state.
type Slice[S any] struct {
	ops   chan func()
	quit  chan struct{}
	once  sync.Once
	clone func(S) S

	// fields below are touched only by the owning goroutine
	state S
	gens  map[string]uint64
}

// NewSlice starts the owning goroutine. clone must deep-copy any reference
// fields of S; nil means S is treated as a plain value.
func NewSlice[S any](initial S, clone func(S) S) *Slice[S] {
	if clone == nil {
		clone = func(s S) S { return s }
	}
	s := &Slice[S]{
		ops:   make(chan func()),
		quit:  make(chan struct{}),
		clone: clone,
		state: clone(initial),
		gens:  make(map[string]uint64),
	}
	go s.loop()
	return s
}

func (s *Slice[S]) loop() {
	for {
		select {
		case op := <-s.ops:
			op()
		case <-s.quit:
			return
		}
	}
}

// submit runs op on the owning goroutine and waits for it.
func (s *Slice[S]) submit(ctx context.Context, op func()) error {
	select {
	case <-s.quit:
		return ErrClosed
	default:
	}
	done := make(chan struct{})
	wrapped := func() {
		op()
		close(done)
	}
	select {
	case s.ops <- wrapped:
	case <-s.quit:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	<-done
	return nil
}

// Update applies fn to a copy of the state and stores the result. The last
// update to run wins.
func (s *Slice[S]) Update(ctx context.Context, fn func(S) S) (S, error) {
	var out S
	err := s.submit(ctx, func() {
		s.state = s.clone(fn(s.clone(s.state)))
		out = s.clone(s.state)
	})
	return out, err
}

// Snapshot returns a copy of the current state, or the zero value after Close.
func (s *Slice[S]) Snapshot() S {
	var out S
	_ = s.submit(context.Background(), func() {
		out = s.clone(s.state)
	})
	return out
}

// Ticket identifies one outstanding load for a key.
type Ticket struct {
	key string
	gen uint64
}

// Key returns the load key.
func (t Ticket) Key() string { return t.key }

// Begin starts a load for key and supersedes any load already in flight.
func (s *Slice[S]) Begin(key string) Ticket {
	t := Ticket{key: key}
	_ = s.submit(context.Background(), func() {
		s.gens[key]++
		t.gen = s.gens[key]
	})
	return t
}

// Commit applies fn only if t is still the newest load for its key and ctx
// has not been cancelled. It reports whether fn was applied.
func (s *Slice[S]) Commit(ctx context.Context, t Ticket, fn func(S) S) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, nil
	}
	applied := false
	err := s.submit(ctx, func() {
		if s.gens[t.key] != t.gen || ctx.Err() != nil {
			return
		}
		s.state = s.clone(fn(s.clone(s.state)))
		applied = true
	})
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false, nil
	}
	return applied, err
}

// Close stops the owning goroutine. Later calls return ErrClosed.
func (s *Slice[S]) Close() {
	s.once.Do(func() { close(s.quit) })
}
