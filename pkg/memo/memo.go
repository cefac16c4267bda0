// Package memo provides per-run memoization of concurrent entity fetches.
//
// An entity can be requested redundantly, for example a video listed
// directly and discovered again inside a playlist. The resolver guarantees
// that each unique ID starts at most one underlying fetch per run and that
// every caller, concurrent or late, observes the identical outcome.
// Failures are stored as values rather than re-raised and lost so the
// aggregation step can filter them out.
package memo

import (
	"context"
	"sync"
)

// State describes the lifecycle of a single entity fetch. Terminal states
// are final for the lifetime of the resolver.
type State string

const (
	StateNotStarted State = "not_started"
	StateInFlight   State = "in_flight"
	StateSucceeded  State = "succeeded"
	StateFailed     State = "failed"
)

// FetchFunc loads one entity by ID.
type FetchFunc[T any] func(ctx context.Context, id string) (T, error)

// Outcome is the recorded result of a completed fetch.
type Outcome[T any] struct {
	Value T
	Err   error
}

type handle[T any] struct {
	done chan struct{}
	val  T
	err  error
}

// Resolver memoizes fetches by entity ID. Safe for concurrent use.
type Resolver[T any] struct {
	fetch FetchFunc[T]

	mu      sync.Mutex
	handles map[string]*handle[T]
}

// NewResolver creates a resolver around the given fetch function.
func NewResolver[T any](fetch FetchFunc[T]) *Resolver[T] {
	return &Resolver[T]{
		fetch:   fetch,
		handles: make(map[string]*handle[T]),
	}
}

// Resolve returns the entity for id, fetching it at most once per run.
//
// The first caller for an id installs a shared handle and starts the
// fetch; the check-then-insert is a single step under the resolver mutex,
// which is what preserves the at-most-once guarantee. Later callers wait
// on the same handle and are never blocked longer than the first caller's
// fetch. The fetch runs under the first caller's context; a caller whose
// own context ends while waiting gets its context error without
// invalidating the shared outcome.
func (r *Resolver[T]) Resolve(ctx context.Context, id string) (T, error) {
	r.mu.Lock()
	h, ok := r.handles[id]
	if !ok {
		h = &handle[T]{done: make(chan struct{})}
		r.handles[id] = h
		go func() {
			h.val, h.err = r.fetch(ctx, id)
			close(h.done)
		}()
	}
	r.mu.Unlock()

	select {
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	case <-h.done:
		return h.val, h.err
	}
}

// State reports the lifecycle state of id's fetch.
func (r *Resolver[T]) State(id string) State {
	r.mu.Lock()
	h, ok := r.handles[id]
	r.mu.Unlock()

	if !ok {
		return StateNotStarted
	}
	select {
	case <-h.done:
		if h.err != nil {
			return StateFailed
		}
		return StateSucceeded
	default:
		return StateInFlight
	}
}

// Outcomes returns a snapshot of all completed fetches, keyed by ID.
// In-flight fetches are excluded.
func (r *Resolver[T]) Outcomes() map[string]Outcome[T] {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make(map[string]Outcome[T], len(r.handles))
	for id, h := range r.handles {
		select {
		case <-h.done:
			out[id] = Outcome[T]{Value: h.val, Err: h.err}
		default:
		}
	}
	return out
}
