// MovieApp - AI-Assisted Movie Recommendations
// Copyright 2026 P. Mahajan (pmahajan3105)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pmahajan3105/movieapp-sub009

// Package catalog is the canonical movie store, backed by DuckDB through
// database/sql. It implements the recommend.Finder collaborator: lookups are
// case-insensitive, exact matches win over substring matches, first match
// only.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/pmahajan3105/movieapp-sub009/internal/metrics"
	"github.com/pmahajan3105/movieapp-sub009/internal/recommend"
)

// Config holds catalog database settings.
type Config struct {
	// Path is the DuckDB database file, or ":memory:" for tests.
	Path string `koanf:"path"`

	// MaxMemory limits DuckDB memory usage, e.g. "512MB".
	MaxMemory string `koanf:"max_memory"`

	// Threads is the DuckDB worker thread count. 0 lets DuckDB decide.
	Threads int `koanf:"threads"`
}

// Store is a DuckDB-backed movie catalog. Safe for concurrent use.
type Store struct {
	db     *sql.DB
	logger zerolog.Logger
}

const schema = `
CREATE TABLE IF NOT EXISTS movies (
    id          VARCHAR PRIMARY KEY,
    title       VARCHAR NOT NULL,
    year        INTEGER,
    genres      VARCHAR,
    overview    VARCHAR,
    rating      DOUBLE DEFAULT 0,
    popularity  DOUBLE DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_movies_title ON movies (title);
`

// Open opens (creating if needed) the catalog database and bootstraps the
// schema.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func Open(cfg Config, logger zerolog.Logger) (*Store, error) {
	connStr := cfg.Path
	if cfg.Path != ":memory:" {
		connStr = fmt.Sprintf("%s?access_mode=read_write", cfg.Path)
		if cfg.MaxMemory != "" {
			connStr += "&max_memory=" + cfg.MaxMemory
		}
		if cfg.Threads > 0 {
			connStr += fmt.Sprintf("&threads=%d", cfg.Threads)
		}
	}

	db, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("open catalog database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap catalog schema: %w", err)
	}

	s := &Store{
		db:     db,
		logger: logger.With().Str("component", "catalog").Logger(),
	}
	s.logger.Info().Str("path", cfg.Path).Msg("catalog opened")
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Find returns the first movie whose title matches the query,
// case-insensitively. An exact title match is preferred over a substring
// match. Returns (nil, nil) when nothing matches.
func (s *Store) Find(ctx context.Context, titleQuery string) (*recommend.MovieRecord, error) {
	start := time.Now()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, title, year, genres, overview, rating, popularity
		FROM movies
		WHERE lower(title) LIKE '%' || lower(?) || '%'
		ORDER BY (lower(title) = lower(?)) DESC, popularity DESC
		LIMIT 1`,
		titleQuery, titleQuery,
	)

	record, err := scanMovie(row)
	if errors.Is(err, sql.ErrNoRows) {
		metrics.RecordCatalogQuery("find", time.Since(start), nil)
		return nil, nil
	}
	metrics.RecordCatalogQuery("find", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("find %q: %w", titleQuery, err)
	}
	return record, nil
}

// Get returns a movie by ID, or (nil, nil) if absent.
func (s *Store) Get(ctx context.Context, id string) (*recommend.MovieRecord, error) {
	start := time.Now()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, title, year, genres, overview, rating, popularity
		FROM movies WHERE id = ?`, id)

	record, err := scanMovie(row)
	if errors.Is(err, sql.ErrNoRows) {
		metrics.RecordCatalogQuery("get", time.Since(start), nil)
		return nil, nil
	}
	metrics.RecordCatalogQuery("get", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("get %q: %w", id, err)
	}
	return record, nil
}

// Upsert inserts or replaces a movie record.
func (s *Store) Upsert(ctx context.Context, m *recommend.MovieRecord) error {
	start := time.Now()

	genres, err := json.Marshal(m.Genres)
	if err != nil {
		return fmt.Errorf("marshal genres: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO movies (id, title, year, genres, overview, rating, popularity)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.Title, m.Year, string(genres), m.Overview, m.Rating, m.Popularity,
	)
	metrics.RecordCatalogQuery("upsert", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("upsert %q: %w", m.ID, err)
	}
	return nil
}

// Count returns the number of movies in the catalog.
func (s *Store) Count(ctx context.Context) (int64, error) {
	start := time.Now()

	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM movies`).Scan(&n)
	metrics.RecordCatalogQuery("count", time.Since(start), err)
	if err != nil {
		return 0, fmt.Errorf("count movies: %w", err)
	}
	return n, nil
}

// Ping verifies database connectivity, for health checks.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// scanMovie reads one movie row.
func scanMovie(row *sql.Row) (*recommend.MovieRecord, error) {
	var (
		m      recommend.MovieRecord
		year   sql.NullInt64
		genres sql.NullString
	)
	if err := row.Scan(&m.ID, &m.Title, &year, &genres, &m.Overview, &m.Rating, &m.Popularity); err != nil {
		return nil, err
	}
	m.Year = int(year.Int64)
	if genres.Valid && genres.String != "" {
		if err := json.Unmarshal([]byte(genres.String), &m.Genres); err != nil {
			return nil, fmt.Errorf("decode genres for %q: %w", m.ID, err)
		}
	}
	return &m, nil
}
