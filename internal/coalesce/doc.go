// MovieApp - AI-Assisted Movie Recommendations
// Copyright 2026 P. Mahajan (pmahajan3105)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pmahajan3105/movieapp-sub009

// Package coalesce collapses duplicate in-flight expensive operations.
//
// A Group holds at most one live execution per fingerprint key. Callers that
// request a key while its operation is still running attach to the pending
// entry and observe the identical result or error. Entries are removed the
// moment the operation settles, so a completed result is never reused: this
// is a coalescing table for in-flight work, not a result cache.
//
// Groups are constructed explicitly, one per concern, each with its own
// pending-entry timeout. A slow AI call in one group cannot starve an
// unrelated search group. Entries older than the timeout are evicted lazily
// on access and periodically by a Sweeper; a swept entry's operation keeps
// running but is no longer shared, and the next caller starts fresh.
//
// Typical usage:
//
//	group := coalesce.NewGroup[[]Movie]("ai-recommend", 30*time.Second)
//	key := coalesce.Key(map[string]any{"user_id": uid, "query": q})
//	movies, err := group.Do(ctx, key, func(ctx context.Context) ([]Movie, error) {
//	    return expensiveResolve(ctx, uid, q)
//	})
package coalesce
