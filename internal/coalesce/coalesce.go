// MovieApp - AI-Assisted Movie Recommendations
// Copyright 2026 P. Mahajan (pmahajan3105)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pmahajan3105/movieapp-sub009

package coalesce

import (
	"context"
	"sync"
	"time"

	"github.com/pmahajan3105/movieapp-sub009/internal/metrics"
)

// entry is a single in-flight operation shared by all callers of one key.
// val and err are written exactly once, before done is closed.
type entry[T any] struct {
	createdAt time.Time
	done      chan struct{}
	val       T
	err       error
}

// Group deduplicates concurrent operations by fingerprint key.
// It is safe for concurrent use. The zero value is not usable; construct
// with NewGroup.
type Group[T any] struct {
	name    string
	timeout time.Duration

	mu      sync.Mutex
	pending map[string]*entry[T]
}

// NewGroup creates a coalescing group. name labels the group in metrics and
// logs. timeout bounds how long a pending entry may be shared: entries older
// than this are treated as abandoned and no longer joined by new callers.
func NewGroup[T any](name string, timeout time.Duration) *Group[T] {
	return &Group[T]{
		name:    name,
		timeout: timeout,
		pending: make(map[string]*entry[T]),
	}
}

// Do returns the result of op for the given key, sharing a single execution
// among all concurrent callers of that key.
//
// If a live pending entry exists, the caller attaches to it; op is not
// invoked and the caller observes the same value or error as everyone else
// on that entry. Otherwise op is started in its own goroutine and registered
// under key. The check-and-insert happens under one lock acquisition, so two
// callers can never both believe they are first.
//
// The entry is removed as soon as op settles, success or failure, so a
// subsequent call always triggers a fresh execution. Errors from op are
// returned verbatim to every attached caller.
//
// op runs detached from the calling context: a caller whose ctx is done
// stops waiting and gets ctx.Err(), but the operation continues for the
// benefit of other attached callers.
func (g *Group[T]) Do(ctx context.Context, key string, op func(context.Context) (T, error)) (T, error) {
	g.mu.Lock()
	if e, ok := g.pending[key]; ok {
		if time.Since(e.createdAt) <= g.timeout {
			g.mu.Unlock()
			metrics.CoalesceHits.WithLabelValues(g.name).Inc()
			return g.wait(ctx, e)
		}
		// Stale entry: its operation keeps running unshared.
		delete(g.pending, key)
		metrics.CoalesceEvictions.WithLabelValues(g.name, "timeout").Inc()
	}

	e := &entry[T]{
		createdAt: time.Now(),
		done:      make(chan struct{}),
	}
	g.pending[key] = e
	metrics.CoalescePending.WithLabelValues(g.name).Set(float64(len(g.pending)))
	g.mu.Unlock()

	metrics.CoalesceMisses.WithLabelValues(g.name).Inc()

	go func() {
		e.val, e.err = op(context.WithoutCancel(ctx))

		g.mu.Lock()
		// Only remove the entry if it is still ours; a timeout sweep may have
		// replaced it with a newer execution for the same key.
		if cur, ok := g.pending[key]; ok && cur == e {
			delete(g.pending, key)
			metrics.CoalesceEvictions.WithLabelValues(g.name, "settled").Inc()
		}
		metrics.CoalescePending.WithLabelValues(g.name).Set(float64(len(g.pending)))
		g.mu.Unlock()

		close(e.done)
	}()

	return g.wait(ctx, e)
}

// wait blocks until the entry settles or the caller's context is done.
func (g *Group[T]) wait(ctx context.Context, e *entry[T]) (T, error) {
	select {
	case <-e.done:
		return e.val, e.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Sweep removes all pending entries older than the group timeout and returns
// how many were evicted. Swept operations keep running but are no longer
// shared with new callers.
func (g *Group[T]) Sweep() int {
	now := time.Now()

	g.mu.Lock()
	defer g.mu.Unlock()

	evicted := 0
	for key, e := range g.pending {
		if now.Sub(e.createdAt) > g.timeout {
			delete(g.pending, key)
			evicted++
		}
	}
	if evicted > 0 {
		metrics.CoalesceEvictions.WithLabelValues(g.name, "timeout").Add(float64(evicted))
		metrics.CoalescePending.WithLabelValues(g.name).Set(float64(len(g.pending)))
	}
	return evicted
}

// Clear drops all pending entries unconditionally. In-flight operations keep
// running; their results are delivered to already attached callers only.
func (g *Group[T]) Clear() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if n := len(g.pending); n > 0 {
		metrics.CoalesceEvictions.WithLabelValues(g.name, "clear").Add(float64(n))
	}
	g.pending = make(map[string]*entry[T])
	metrics.CoalescePending.WithLabelValues(g.name).Set(0)
}

// PendingCount reports the current number of in-flight entries.
func (g *Group[T]) PendingCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.pending)
}

// Name returns the group's metrics label.
func (g *Group[T]) Name() string {
	return g.name
}

// Timeout returns the configured pending-entry timeout.
func (g *Group[T]) Timeout() time.Duration {
	return g.timeout
}
