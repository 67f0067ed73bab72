// MovieApp - AI-Assisted Movie Recommendations
// Copyright 2026 P. Mahajan (pmahajan3105)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pmahajan3105/movieapp-sub009

// Package tmdb is the external movie-search collaborator, a TMDB-compatible
// HTTP client. Calls run behind a circuit breaker and a client-side rate
// limiter so a degraded provider cannot cascade into the enrichment
// pipeline: breaker and transport errors surface as ordinary errors, which
// the pipeline converts to an unresolved drop for the one affected title.
package tmdb

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/pmahajan3105/movieapp-sub009/internal/logging"
	"github.com/pmahajan3105/movieapp-sub009/internal/metrics"
	"github.com/pmahajan3105/movieapp-sub009/internal/recommend"
)

// Config holds TMDB client settings.
type Config struct {
	// BaseURL is the API root, e.g. "https://api.themoviedb.org/3".
	BaseURL string `koanf:"base_url"`

	// APIKey authenticates requests.
	APIKey string `koanf:"api_key"`

	// Timeout bounds a single search request. Default: 10s.
	Timeout time.Duration `koanf:"timeout"`

	// RequestsPerSecond is the client-side rate limit. Default: 4.
	RequestsPerSecond float64 `koanf:"requests_per_second"`

	// Burst is the rate limiter burst size. Default: 8.
	Burst int `koanf:"burst"`
}

// Client searches a TMDB-compatible API. Implements recommend.Searcher.
type Client struct {
	cfg     Config
	httpc   *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[[]recommend.MovieRecord]
}

const breakerName = "tmdb-search"

// NewClient creates a TMDB search client.
//
// Breaker policy: opens at a 60% failure rate once at least 10 requests have
// been observed in the 1 minute measurement window; probes again after 2
// minutes with up to 3 half-open requests.
func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 4
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 8
	}

	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0)

	breaker := gobreaker.NewCircuitBreaker[[]recommend.MovieRecord](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
		},
	})

	return &Client{
		cfg:     cfg,
		httpc:   &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		breaker: breaker,
	}
}

// searchResponse is the TMDB search envelope.
type searchResponse struct {
	Results []searchResult `json:"results"`
}

type searchResult struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	ReleaseDate string  `json:"release_date"`
	Overview    string  `json:"overview"`
	VoteAverage float64 `json:"vote_average"`
	Popularity  float64 `json:"popularity"`
}

// Search queries the provider for movies matching the title. Results are
// returned in provider ranking order, truncated to opts.Limit.
func (c *Client) Search(ctx context.Context, title string, opts recommend.SearchOptions) ([]recommend.MovieRecord, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("tmdb rate limit: %w", err)
	}

	start := time.Now()
	results, err := c.breaker.Execute(func() ([]recommend.MovieRecord, error) {
		return c.search(ctx, title, opts)
	})
	metrics.TMDBRequestDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.TMDBRequestErrors.Inc()
		return nil, err
	}
	return results, nil
}

// search performs one HTTP search request.
func (c *Client) search(ctx context.Context, title string, opts recommend.SearchOptions) ([]recommend.MovieRecord, error) {
	q := url.Values{}
	q.Set("query", title)
	q.Set("api_key", c.cfg.APIKey)
	if opts.Year > 0 {
		q.Set("year", strconv.Itoa(opts.Year))
	}

	reqURL := c.cfg.BaseURL + "/search/movie?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build tmdb request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tmdb search: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tmdb search: unexpected status %d", resp.StatusCode)
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode tmdb response: %w", err)
	}

	limit := opts.Limit
	if limit <= 0 || limit > len(parsed.Results) {
		limit = len(parsed.Results)
	}

	records := make([]recommend.MovieRecord, 0, limit)
	for _, r := range parsed.Results[:limit] {
		records = append(records, recommend.MovieRecord{
			ID:         "tmdb:" + strconv.FormatInt(r.ID, 10),
			Title:      r.Title,
			Year:       releaseYear(r.ReleaseDate),
			Overview:   r.Overview,
			Rating:     r.VoteAverage,
			Popularity: r.Popularity,
		})
	}
	return records, nil
}

// releaseYear extracts the year from a "YYYY-MM-DD" release date.
func releaseYear(date string) int {
	if len(date) < 4 {
		return 0
	}
	year, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0
	}
	return year
}

// stateToFloat maps breaker states to metric values.
func stateToFloat(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	default:
		return 2
	}
}
