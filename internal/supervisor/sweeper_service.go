// MovieApp - AI-Assisted Movie Recommendations
// Copyright 2026 P. Mahajan (pmahajan3105)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pmahajan3105/movieapp-sub009

package supervisor

import (
	"context"
	"time"

	"github.com/pmahajan3105/movieapp-sub009/internal/logging"
)

// Sweeper is a deduplication group that can evict stale entries.
// Satisfied by *coalesce.Group[T].
type Sweeper interface {
	Sweep() int
	Name() string
}

// SweeperService periodically sweeps stale entries out of the registered
// deduplication groups. Lazy eviction on access already keeps hot groups
// clean; the sweep bounds the lifetime of entries for keys nobody requests
// again.
type SweeperService struct {
	groups   []Sweeper
	interval time.Duration
}

// NewSweeperService creates a sweeper over the given groups.
func NewSweeperService(interval time.Duration, groups ...Sweeper) *SweeperService {
	if interval <= 0 {
		interval = time.Minute
	}
	return &SweeperService{groups: groups, interval: interval}
}

// Serve implements suture.Service.
func (s *SweeperService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			for _, g := range s.groups {
				if evicted := g.Sweep(); evicted > 0 {
					logging.Debug().
						Str("group", g.Name()).
						Int("evicted", evicted).
						Msg("swept stale dedup entries")
				}
			}
		}
	}
}

// String identifies the service in supervisor logs.
func (s *SweeperService) String() string {
	return "dedup-sweeper"
}
