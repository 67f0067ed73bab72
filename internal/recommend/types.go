// MovieApp - AI-Assisted Movie Recommendations
// Copyright 2026 P. Mahajan (pmahajan3105)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pmahajan3105/movieapp-sub009

package recommend

import (
	"context"
	"time"
)

// Provenance records where a resolved movie match came from. The default
// match confidence differs by origin: catalog records are pre-vetted by
// prior curation, external results are not.
type Provenance int

const (
	// ProvenanceUnresolved indicates no match was found. Entries with this
	// provenance never reach the caller.
	ProvenanceUnresolved Provenance = iota
	// ProvenanceDatabase indicates a match from the canonical catalog.
	ProvenanceDatabase
	// ProvenanceExternal indicates a match from the external search provider.
	ProvenanceExternal
)

// String returns the wire name for the provenance.
func (p Provenance) String() string {
	switch p {
	case ProvenanceDatabase:
		return "database"
	case ProvenanceExternal:
		return "external"
	default:
		return "unresolved"
	}
}

// MarshalJSON encodes the provenance as its string name.
func (p Provenance) MarshalJSON() ([]byte, error) {
	return []byte(`"` + p.String() + `"`), nil
}

// MovieRecord is a canonical movie as stored in the catalog or returned by
// the external search provider.
type MovieRecord struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	Year       int      `json:"year"`
	Genres     []string `json:"genres"`
	Overview   string   `json:"overview,omitempty"`
	Rating     float64  `json:"rating"`     // 0-10 community rating
	Popularity float64  `json:"popularity"` // provider popularity score
}

// Suggestion is one raw AI-proposed title, parsed from the provider's
// free-text output. Ephemeral: produced per request, never persisted.
type Suggestion struct {
	Title         string   `json:"title"`
	Year          int      `json:"year,omitempty"`
	Reason        string   `json:"reason,omitempty"`
	RawConfidence *float64 `json:"confidence,omitempty"`
}

// Recommendation is an enriched, scored suggestion ready for the caller.
type Recommendation struct {
	Record          *MovieRecord `json:"record"`
	Title           string       `json:"title"`
	Year            int          `json:"year,omitempty"`
	Reason          string       `json:"reason,omitempty"`
	MatchConfidence float64      `json:"match_confidence"`
	Provenance      Provenance   `json:"provenance"`
	Score           float64      `json:"score"`
}

// Request asks for recommendations for one user intent.
type Request struct {
	UserID    string `json:"user_id"`
	Intent    string `json:"intent"`
	Query     string `json:"query"`
	K         int    `json:"k"`
	RequestID string `json:"request_id,omitempty"`
}

// Response carries the ranked recommendations plus request metadata.
type Response struct {
	Items    []Recommendation `json:"items"`
	Metadata ResponseMetadata `json:"metadata"`
}

// ResponseMetadata describes how a response was produced.
type ResponseMetadata struct {
	RequestID string    `json:"request_id"`
	UserID    string    `json:"user_id"`
	Suggested int       `json:"suggested"`
	Resolved  int       `json:"resolved"`
	Coalesced bool      `json:"coalesced"`
	LatencyMS int64     `json:"latency_ms"`
	Timestamp time.Time `json:"timestamp"`
}

// Finder is the canonical movie store collaborator. Find performs a
// case-insensitive title match, first match wins; a nil record with nil
// error means no match.
type Finder interface {
	Find(ctx context.Context, titleQuery string) (*MovieRecord, error)
}

// SearchOptions narrow an external title search.
type SearchOptions struct {
	Year  int
	Limit int
}

// Searcher is the external movie-search collaborator.
type Searcher interface {
	Search(ctx context.Context, title string, opts SearchOptions) ([]MovieRecord, error)
}

// Completer is the AI text-completion collaborator. The returned text is
// expected, not guaranteed, to contain a JSON object with a
// "recommendations" array.
type Completer interface {
	Complete(ctx context.Context, prompt, context_ string) (string, error)
}

// TasteProfile summarizes a user's remembered genre affinities.
type TasteProfile struct {
	// Affinity maps genre name to a [0,1] affinity score.
	Affinity map[string]float64
	// UpdatedAt is when the profile last changed; fresher profiles carry
	// more weight in the memory boost.
	UpdatedAt time.Time
}

// TasteMemory persists per-user genre affinity. Updates happen on a detached
// task off the response path; failures are logged and dropped.
type TasteMemory interface {
	Profile(ctx context.Context, userID string) (*TasteProfile, error)
	Record(ctx context.Context, userID string, genres []string) error
}
