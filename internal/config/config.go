// MovieApp - AI-Assisted Movie Recommendations
// Copyright 2026 P. Mahajan (pmahajan3105)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pmahajan3105/movieapp-sub009

// Package config defines and loads the application configuration.
//
// Configuration is layered with koanf: struct defaults first, then an
// optional YAML file, then environment variables. Later layers override
// earlier ones, so precedence is ENV > file > defaults.
package config

import (
	"fmt"
	"time"

	"github.com/pmahajan3105/movieapp-sub009/internal/ai"
	"github.com/pmahajan3105/movieapp-sub009/internal/catalog"
	"github.com/pmahajan3105/movieapp-sub009/internal/memory"
	"github.com/pmahajan3105/movieapp-sub009/internal/recommend"
	"github.com/pmahajan3105/movieapp-sub009/internal/tmdb"
	"github.com/pmahajan3105/movieapp-sub009/internal/validation"
)

// Config is the root application configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Logging   LoggingConfig   `koanf:"logging"`
	Database  catalog.Config  `koanf:"database"`
	TMDB      tmdb.Config     `koanf:"tmdb"`
	AI        ai.Config       `koanf:"ai"`
	Memory    memory.Config   `koanf:"memory"`
	Recommend RecommendConfig `koanf:"recommend"`
	Dedup     DedupConfig     `koanf:"dedup"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port"    validate:"min=1,max=65535"`
	Timeout time.Duration `koanf:"timeout"`

	// CORSOrigins lists allowed CORS origins. Comma-separated in env vars.
	CORSOrigins []string `koanf:"cors_origins"`

	// RateLimit is the per-IP request budget per RateLimitWindow.
	RateLimit       int           `koanf:"rate_limit"        validate:"min=1"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"  validate:"oneof=trace debug info warn error fatal disabled"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// RecommendConfig holds recommendation engine settings.
type RecommendConfig struct {
	Weights recommend.Weights `koanf:"weights"`

	DefaultK int `koanf:"default_k" validate:"min=1,max=50"`
	MaxK     int `koanf:"max_k"     validate:"min=1,max=100"`

	// MemoryUpdateTimeout bounds the detached taste-memory update.
	MemoryUpdateTimeout time.Duration `koanf:"memory_update_timeout"`
}

// DedupConfig holds request coalescing settings. Each window is the maximum
// time attached callers wait on an in-flight operation before the entry is
// treated as stale.
type DedupConfig struct {
	SearchWindow    time.Duration `koanf:"search_window"`
	RecommendWindow time.Duration `koanf:"recommend_window"`
	SweepInterval   time.Duration `koanf:"sweep_interval"`
}

// Validate checks the configuration for invalid combinations.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.Recommend.DefaultK > c.Recommend.MaxK {
		return fmt.Errorf("invalid configuration: recommend.default_k (%d) exceeds recommend.max_k (%d)",
			c.Recommend.DefaultK, c.Recommend.MaxK)
	}
	if c.AI.BaseURL == "" {
		return fmt.Errorf("invalid configuration: ai.base_url is required")
	}
	if c.Dedup.SearchWindow <= 0 || c.Dedup.RecommendWindow <= 0 {
		return fmt.Errorf("invalid configuration: dedup windows must be positive")
	}
	return nil
}
