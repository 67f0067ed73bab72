// MovieApp - AI-Assisted Movie Recommendations
// Copyright 2026 P. Mahajan (pmahajan3105)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pmahajan3105/movieapp-sub009

package recommend

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/pmahajan3105/movieapp-sub009/internal/metrics"
)

// Default match confidence by provenance, used when the AI supplied no raw
// confidence. A catalog record is trusted more than a blind external match.
const (
	defaultDatabaseConfidence = 0.8
	defaultExternalConfidence = 0.7
)

// Enricher resolves AI-suggested titles to canonical movie records,
// catalog first, external search second.
type Enricher struct {
	catalog Finder
	search  Searcher
	logger  zerolog.Logger
}

// NewEnricher creates an enrichment pipeline over the given collaborators.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEnricher(catalog Finder, search Searcher, logger zerolog.Logger) *Enricher {
	return &Enricher{
		catalog: catalog,
		search:  search,
		logger:  logger.With().Str("component", "enrich").Logger(),
	}
}

// Enrich resolves a batch of suggestions concurrently. The output preserves
// input order as a stable subsequence: resolved entries keep their relative
// positions, unresolved entries are dropped without a gap marker. Errors on
// one suggestion are contained to that suggestion; the batch always returns
// whatever it could resolve.
func (e *Enricher) Enrich(ctx context.Context, suggestions []Suggestion) []Recommendation {
	if len(suggestions) == 0 {
		return nil
	}

	start := time.Now()
	defer func() {
		metrics.EnrichmentBatchDuration.Observe(time.Since(start).Seconds())
	}()

	// Collected positionally so completion order never reorders results.
	resolved := make([]*Recommendation, len(suggestions))

	var wg sync.WaitGroup
	for i := range suggestions {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			resolved[idx] = e.resolve(ctx, suggestions[idx])
		}(i)
	}
	wg.Wait()

	out := make([]Recommendation, 0, len(suggestions))
	for _, rec := range resolved {
		if rec != nil {
			out = append(out, *rec)
		}
	}
	return out
}

// resolve runs the per-suggestion lookup chain. Any error at either step is
// logged and converted to an unresolved drop, never surfaced to the batch.
func (e *Enricher) resolve(ctx context.Context, s Suggestion) *Recommendation {
	if s.Title == "" {
		metrics.EnrichmentResults.WithLabelValues(ProvenanceUnresolved.String()).Inc()
		return nil
	}

	if record, err := e.catalog.Find(ctx, s.Title); err != nil {
		e.logger.Warn().Err(err).Str("title", s.Title).Msg("catalog lookup failed")
	} else if record != nil {
		metrics.EnrichmentResults.WithLabelValues(ProvenanceDatabase.String()).Inc()
		return e.enriched(s, record, ProvenanceDatabase, defaultDatabaseConfidence)
	}

	results, err := e.search.Search(ctx, s.Title, SearchOptions{Year: s.Year, Limit: 1})
	if err != nil {
		e.logger.Warn().Err(err).Str("title", s.Title).Msg("external search failed")
	} else if len(results) > 0 {
		metrics.EnrichmentResults.WithLabelValues(ProvenanceExternal.String()).Inc()
		return e.enriched(s, &results[0], ProvenanceExternal, defaultExternalConfidence)
	}

	e.logger.Debug().Str("title", s.Title).Int("year", s.Year).Msg("suggestion unresolved, dropping")
	metrics.EnrichmentResults.WithLabelValues(ProvenanceUnresolved.String()).Inc()
	return nil
}

// enriched builds a Recommendation from a resolved record, preferring the
// AI's raw confidence over the provenance default.
func (e *Enricher) enriched(s Suggestion, record *MovieRecord, p Provenance, defaultConfidence float64) *Recommendation {
	confidence := defaultConfidence
	if s.RawConfidence != nil {
		confidence = *s.RawConfidence
	}

	year := s.Year
	if year == 0 {
		year = record.Year
	}

	return &Recommendation{
		Record:          record,
		Title:           record.Title,
		Year:            year,
		Reason:          s.Reason,
		MatchConfidence: confidence,
		Provenance:      p,
	}
}
