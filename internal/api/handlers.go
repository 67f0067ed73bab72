// MovieApp - AI-Assisted Movie Recommendations
// Copyright 2026 P. Mahajan (pmahajan3105)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pmahajan3105/movieapp-sub009

package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/pmahajan3105/movieapp-sub009/internal/coalesce"
	"github.com/pmahajan3105/movieapp-sub009/internal/recommend"
)

// Pinger reports backend storage health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Recommender produces ranked recommendations.
type Recommender interface {
	Recommend(ctx context.Context, req recommend.Request) (*recommend.Response, error)
}

// Handler holds the HTTP handlers and their collaborators.
type Handler struct {
	engine      Recommender
	catalog     recommend.Finder
	search      recommend.Searcher
	db          Pinger
	searchGroup *coalesce.Group[[]recommend.MovieRecord]
	started     time.Time
}

// NewHandler creates the API handler set. The search group coalesces
// identical concurrent title searches onto one backend lookup.
func NewHandler(engine Recommender, catalog recommend.Finder, search recommend.Searcher, db Pinger, searchGroup *coalesce.Group[[]recommend.MovieRecord]) *Handler {
	return &Handler{
		engine:      engine,
		catalog:     catalog,
		search:      search,
		db:          db,
		searchGroup: searchGroup,
		started:     time.Now(),
	}
}

// healthStatus is the /healthz payload.
type healthStatus struct {
	Status        string `json:"status"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	Database      string `json:"database"`
}

// Healthz reports liveness and catalog database health.
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	status := healthStatus{
		Status:        "ok",
		UptimeSeconds: int64(time.Since(h.started).Seconds()),
		Database:      "ok",
	}

	code := http.StatusOK
	if h.db != nil {
		if err := h.db.Ping(r.Context()); err != nil {
			status.Status = "degraded"
			status.Database = "unreachable"
			code = http.StatusServiceUnavailable
		}
	}

	respondJSON(w, code, &APIResponse{
		Status:   status.Status,
		Data:     status,
		Metadata: Metadata{Timestamp: time.Now()},
	})
}

// recommendationsRequest is the POST /api/v1/recommendations body.
type recommendationsRequest struct {
	UserID string `json:"user_id" validate:"required,max=128"`
	Intent string `json:"intent"  validate:"omitempty,max=64"`
	Query  string `json:"query"   validate:"required,max=500"`
	K      int    `json:"k"       validate:"omitempty,min=1,max=50"`
}

// Recommendations serves ranked movie recommendations.
func (h *Handler) Recommendations(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req recommendationsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, codeBadRequest, "invalid JSON body", err)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	resp, err := h.engine.Recommend(r.Context(), recommend.Request{
		UserID: req.UserID,
		Intent: req.Intent,
		Query:  req.Query,
		K:      req.K,
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, codeInternal, "recommendation failed", err)
		return
	}

	respondJSON(w, http.StatusOK, &APIResponse{
		Status: "success",
		Data:   resp,
		Metadata: Metadata{
			Timestamp: time.Now(),
			LatencyMS: time.Since(start).Milliseconds(),
			Coalesced: resp.Metadata.Coalesced,
		},
	})
}

// searchRequest is the GET /api/v1/movies/search query.
type searchRequest struct {
	Title string `validate:"required,max=300"`
	Year  int    `validate:"omitempty,min=1870,max=2100"`
	Limit int    `validate:"omitempty,min=1,max=50"`
}

// SearchMovies searches the catalog first and falls back to the external
// provider. Identical concurrent searches share one lookup.
func (h *Handler) SearchMovies(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	req := searchRequest{
		Title: r.URL.Query().Get("title"),
		Year:  queryInt(r, "year"),
		Limit: queryInt(r, "limit"),
	}
	if req.Limit == 0 {
		req.Limit = 10
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	key := coalesce.Key(map[string]any{
		"title": req.Title,
		"year":  req.Year,
		"limit": req.Limit,
	})

	results, err := h.searchGroup.Do(r.Context(), key, func(ctx context.Context) ([]recommend.MovieRecord, error) {
		return h.lookupMovies(ctx, req)
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, codeInternal, "movie search failed", err)
		return
	}

	respondJSON(w, http.StatusOK, &APIResponse{
		Status: "success",
		Data:   results,
		Metadata: Metadata{
			Timestamp: time.Now(),
			LatencyMS: time.Since(start).Milliseconds(),
		},
	})
}

// lookupMovies resolves a search against the catalog and then the external
// provider. A catalog hit leads the result list; external results fill the
// remainder without duplicating the catalog title.
func (h *Handler) lookupMovies(ctx context.Context, req searchRequest) ([]recommend.MovieRecord, error) {
	results := make([]recommend.MovieRecord, 0, req.Limit)

	if h.catalog != nil {
		record, err := h.catalog.Find(ctx, req.Title)
		if err == nil && record != nil {
			results = append(results, *record)
		}
	}

	if h.search != nil && len(results) < req.Limit {
		external, err := h.search.Search(ctx, req.Title, recommend.SearchOptions{
			Year:  req.Year,
			Limit: req.Limit,
		})
		if err != nil {
			if len(results) > 0 {
				return results, nil
			}
			return nil, err
		}
		for _, rec := range external {
			if len(results) >= req.Limit {
				break
			}
			if len(results) > 0 && results[0].ID == rec.ID {
				continue
			}
			results = append(results, rec)
		}
	}

	return results, nil
}

// queryInt parses an optional integer query parameter. Invalid values read
// as zero and are caught by validation where a range applies.
func queryInt(r *http.Request, name string) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return v
}
