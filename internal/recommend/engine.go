// MovieApp - AI-Assisted Movie Recommendations
// Copyright 2026 P. Mahajan (pmahajan3105)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pmahajan3105/movieapp-sub009

package recommend

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pmahajan3105/movieapp-sub009/internal/coalesce"
	"github.com/pmahajan3105/movieapp-sub009/internal/metrics"
)

// Options bound engine behavior beyond the scoring weights.
type Options struct {
	// DefaultK is applied when a request does not specify K. Default: 10.
	DefaultK int

	// MaxK caps K for any request. Default: 50.
	MaxK int

	// MemoryUpdateTimeout bounds the detached taste-memory update.
	// Default: 5s.
	MemoryUpdateTimeout time.Duration
}

// Engine produces ranked movie recommendations. Identical concurrent
// requests (same user, intent and query) share one in-flight resolution.
// Safe for concurrent use.
type Engine struct {
	weights  Weights
	opts     Options
	enricher *Enricher
	ai       Completer
	memory   TasteMemory
	group    *coalesce.Group[*Response]
	logger   zerolog.Logger

	// now is injected for deterministic temporal signals in tests.
	now func() time.Time
}

// NewEngine creates a recommendation engine. The coalescing group is owned
// by the caller so its timeout window can be configured alongside the other
// groups of the process; weights are sanitized once here, so a bad value in
// configuration degrades a single weight rather than failing requests.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEngine(weights Weights, opts Options, enricher *Enricher, ai Completer, memory TasteMemory, group *coalesce.Group[*Response], logger zerolog.Logger) *Engine {
	if opts.DefaultK <= 0 {
		opts.DefaultK = 10
	}
	if opts.MaxK <= 0 {
		opts.MaxK = 50
	}
	if opts.MemoryUpdateTimeout <= 0 {
		opts.MemoryUpdateTimeout = 5 * time.Second
	}

	return &Engine{
		weights:  weights.Sanitized(),
		opts:     opts,
		enricher: enricher,
		ai:       ai,
		memory:   memory,
		group:    group,
		logger:   logger.With().Str("component", "recommend").Logger(),
		now:      time.Now,
	}
}

// Fingerprint derives the deduplication key for a request. Two requests with
// the same user, intent and query collapse onto one resolution regardless of
// parameter order at the call site.
func Fingerprint(req Request) string {
	return coalesce.Key(map[string]any{
		"user_id": req.UserID,
		"intent":  req.Intent,
		"query":   req.Query,
	})
}

// Recommend resolves recommendations for the request, sharing in-flight work
// with concurrent identical requests. Malformed AI output yields an empty
// response, not an error; an AI transport failure propagates to every caller
// attached to the same fingerprint.
func (e *Engine) Recommend(ctx context.Context, req Request) (*Response, error) {
	start := e.now()
	req = e.prepare(req)

	logger := e.logger.With().
		Str("request_id", req.RequestID).
		Str("user_id", req.UserID).
		Logger()

	executed := false
	resp, err := e.group.Do(ctx, Fingerprint(req), func(ctx context.Context) (*Response, error) {
		executed = true
		return e.resolve(ctx, req, start, logger)
	})
	if err != nil {
		metrics.RecommendationRequests.WithLabelValues("error").Inc()
		return nil, err
	}

	if !executed {
		// Attached to another caller's resolution; report that without
		// mutating the shared response.
		shared := *resp
		shared.Metadata.Coalesced = true
		logger.Debug().Msg("request coalesced onto in-flight resolution")
		return &shared, nil
	}
	return resp, nil
}

// prepare applies defaults and generates a request ID if needed.
func (e *Engine) prepare(req Request) Request {
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}
	if req.K <= 0 {
		req.K = e.opts.DefaultK
	}
	if req.K > e.opts.MaxK {
		req.K = e.opts.MaxK
	}
	return req
}

// resolve runs one full resolution: AI call, parse, enrich, score, rank.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) resolve(ctx context.Context, req Request, start time.Time, logger zerolog.Logger) (*Response, error) {
	raw, err := e.ai.Complete(ctx, buildPrompt(req), req.Intent)
	if err != nil {
		return nil, fmt.Errorf("ai completion: %w", err)
	}

	suggestions := extractSuggestions(raw)
	if len(suggestions) == 0 {
		logger.Warn().Int("raw_len", len(raw)).Msg("no usable suggestions in AI output")
		metrics.RecommendationRequests.WithLabelValues("empty").Inc()
		return e.response(req, nil, 0, start), nil
	}

	enriched := e.enricher.Enrich(ctx, suggestions)

	profile := e.loadProfile(ctx, req.UserID, logger)
	for i := range enriched {
		enriched[i].Score = e.weights.Score(e.signalsFor(&enriched[i], i, len(enriched), req, profile))
	}

	// Descending by score; stable so ties keep enrichment (input) order.
	sort.SliceStable(enriched, func(i, j int) bool {
		return enriched[i].Score > enriched[j].Score
	})
	if len(enriched) > req.K {
		enriched = enriched[:req.K]
	}

	e.recordTaste(req.UserID, enriched, logger)

	if len(enriched) == 0 {
		metrics.RecommendationRequests.WithLabelValues("empty").Inc()
	} else {
		metrics.RecommendationRequests.WithLabelValues("success").Inc()
	}

	logger.Debug().
		Int("suggested", len(suggestions)).
		Int("resolved", len(enriched)).
		Msg("recommendation resolution complete")

	return e.response(req, enriched, len(suggestions), start), nil
}

// response assembles the final Response envelope.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) response(req Request, items []Recommendation, suggested int, start time.Time) *Response {
	if items == nil {
		items = []Recommendation{}
	}
	return &Response{
		Items: items,
		Metadata: ResponseMetadata{
			RequestID: req.RequestID,
			UserID:    req.UserID,
			Suggested: suggested,
			Resolved:  len(items),
			LatencyMS: e.now().Sub(start).Milliseconds(),
			Timestamp: e.now(),
		},
	}
}

// loadProfile fetches the user's taste profile; a missing or failing memory
// store degrades the memory signals to zero rather than failing the request.
func (e *Engine) loadProfile(ctx context.Context, userID string, logger zerolog.Logger) *TasteProfile {
	if e.memory == nil {
		return nil
	}
	profile, err := e.memory.Profile(ctx, userID)
	if err != nil {
		logger.Warn().Err(err).Msg("taste profile unavailable")
		return nil
	}
	return profile
}

// signalsFor derives the per-item signal scores from everything known about
// the enriched recommendation.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) signalsFor(rec *Recommendation, rank, total int, req Request, profile *TasteProfile) Signals {
	s := Signals{
		// The AI lists its strongest matches first; fold that ordering in as
		// the semantic similarity prior, tempered by match confidence.
		Semantic:  (1 - float64(rank)/float64(total)) * rec.MatchConfidence,
		Storyline: tokenOverlap(rec.Reason, req.Query),
	}

	if rec.Record != nil {
		s.Sentiment = clamp01(rec.Record.Rating / 10)
		s.Social = clamp01(rec.Record.Popularity / 100)
		s.Temporal = yearRecency(rec.Record.Year, e.now().Year())

		if profile != nil {
			affinity := genreAffinity(rec.Record.Genres, profile.Affinity)
			s.Genre = affinity
			// Recency-weighted genre affinity: fresher profiles earn more
			// extra credit, distinct from the weighted primary genre term.
			s.GenreBoost = affinity * profileFreshness(profile.UpdatedAt, e.now())
			s.MemoryBoost = affinity
		}

		// Extra credit for recent releases on top of the primary temporal
		// signal.
		if age := e.now().Year() - rec.Record.Year; age >= 0 && age <= 2 {
			s.TemporalBoost = 1 - float64(age)/3
		}
	}

	return s
}

// recordTaste spawns the detached taste-memory update. It is never awaited
// by the response path; failures are logged and dropped.
func (e *Engine) recordTaste(userID string, items []Recommendation, logger zerolog.Logger) {
	if e.memory == nil || len(items) == 0 {
		return
	}

	seen := make(map[string]struct{})
	genres := make([]string, 0, 8)
	for i := range items {
		if items[i].Record == nil {
			continue
		}
		for _, g := range items[i].Record.Genres {
			if _, ok := seen[g]; !ok {
				seen[g] = struct{}{}
				genres = append(genres, g)
			}
		}
	}
	if len(genres) == 0 {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), e.opts.MemoryUpdateTimeout)
		defer cancel()

		if err := e.memory.Record(ctx, userID, genres); err != nil {
			metrics.TasteMemoryUpdates.WithLabelValues("error").Inc()
			logger.Warn().Err(err).Msg("taste memory update failed")
			return
		}
		metrics.TasteMemoryUpdates.WithLabelValues("ok").Inc()
	}()
}

// clamp01 bounds v to [0,1].
func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// yearRecency maps a release year to [0,1], 1.0 for the current year,
// fading to 0 over fifty years.
func yearRecency(year, currentYear int) float64 {
	if year <= 0 || year > currentYear {
		return 0
	}
	return clamp01(1 - float64(currentYear-year)/50)
}

// genreAffinity averages the profile affinity over the record's genres.
func genreAffinity(genres []string, affinity map[string]float64) float64 {
	if len(genres) == 0 || len(affinity) == 0 {
		return 0
	}
	var sum float64
	for _, g := range genres {
		sum += affinity[strings.ToLower(g)]
	}
	return clamp01(sum / float64(len(genres)))
}

// profileFreshness maps profile age to [0,1], 1.0 for a profile updated now,
// fading to 0 over thirty days.
func profileFreshness(updatedAt, now time.Time) float64 {
	if updatedAt.IsZero() {
		return 0
	}
	age := now.Sub(updatedAt)
	if age < 0 {
		return 1
	}
	const window = 30 * 24 * time.Hour
	return clamp01(1 - float64(age)/float64(window))
}

// tokenOverlap computes the fraction of query tokens present in text.
func tokenOverlap(text, query string) float64 {
	queryTokens := strings.Fields(strings.ToLower(query))
	if len(queryTokens) == 0 || text == "" {
		return 0
	}
	textLower := strings.ToLower(text)

	matched := 0
	for _, tok := range queryTokens {
		if strings.Contains(textLower, tok) {
			matched++
		}
	}
	return float64(matched) / float64(len(queryTokens))
}
