// MovieApp - AI-Assisted Movie Recommendations
// Copyright 2026 P. Mahajan (pmahajan3105)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pmahajan3105/movieapp-sub009

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/pmahajan3105/movieapp-sub009/internal/ai"
	"github.com/pmahajan3105/movieapp-sub009/internal/catalog"
	"github.com/pmahajan3105/movieapp-sub009/internal/memory"
	"github.com/pmahajan3105/movieapp-sub009/internal/recommend"
	"github.com/pmahajan3105/movieapp-sub009/internal/tmdb"
)

// DefaultConfigPaths lists where config files are searched, in priority
// order. The first file found wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/movieapp/config.yaml",
	"/etc/movieapp/config.yml",
}

// ConfigPathEnvVar overrides the config file search.
const ConfigPathEnvVar = "CONFIG_PATH"

// envPrefix namespaces the application's environment variables.
const envPrefix = "MOVIEAPP_"

// defaultConfig returns a Config with all defaults applied. These are
// overridden by the config file and then by environment variables.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			Timeout:         30 * time.Second,
			CORSOrigins:     nil,
			RateLimit:       100,
			RateLimitWindow: time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Database: catalog.Config{
			Path:      "/data/movieapp.duckdb",
			MaxMemory: "1GB",
			Threads:   0, // 0 = runtime default
		},
		TMDB: tmdb.Config{
			BaseURL:           "https://api.themoviedb.org/3",
			Timeout:           10 * time.Second,
			RequestsPerSecond: 4,
			Burst:             8,
		},
		AI: ai.Config{
			BaseURL:           "https://api.openai.com/v1",
			Model:             "gpt-4o-mini",
			Timeout:           60 * time.Second,
			Temperature:       0.7,
			MaxTokens:         1024,
			RequestsPerSecond: 2,
			Burst:             4,
		},
		Memory: memory.Config{
			Path: "/data/movieapp-memory",
		},
		Recommend: RecommendConfig{
			Weights:             recommend.DefaultWeights(),
			DefaultK:            10,
			MaxK:                50,
			MemoryUpdateTimeout: 5 * time.Second,
		},
		Dedup: DedupConfig{
			SearchWindow:    5 * time.Second,
			RecommendWindow: 30 * time.Second,
			SweepInterval:   time.Minute,
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file and
// MOVIEAPP_-prefixed environment variables, then validates it.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", configPath, err)
		}
	}

	// MOVIEAPP_SERVER_PORT -> server.port, MOVIEAPP_AI_API_KEY -> ai.api_key
	if err := k.Load(env.Provider(envPrefix, ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// findConfigFile returns the first config file that exists, honoring the
// CONFIG_PATH override, or empty when none is found.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// envSectionPrefixes maps the leading env var token to a config section.
// The remainder of the variable name becomes the field path.
var envSectionPrefixes = []struct {
	token   string
	section string
}{
	{"SERVER_", "server."},
	{"LOGGING_", "logging."},
	{"DATABASE_", "database."},
	{"TMDB_", "tmdb."},
	{"AI_", "ai."},
	{"MEMORY_", "memory."},
	{"RECOMMEND_", "recommend."},
	{"DEDUP_", "dedup."},
}

// envTransformFunc maps MOVIEAPP_SECTION_FIELD_NAME to section.field_name.
// Unrecognized variables are ignored.
func envTransformFunc(key string) string {
	key = strings.TrimPrefix(key, envPrefix)
	for _, p := range envSectionPrefixes {
		if strings.HasPrefix(key, p.token) {
			return p.section + strings.ToLower(strings.TrimPrefix(key, p.token))
		}
	}
	return ""
}

// sliceConfigPaths lists paths parsed as comma-separated slices when set
// from environment variables.
var sliceConfigPaths = []string{
	"server.cors_origins",
}

// processSliceFields converts comma-separated string values into slices.
// Values that arrived as slices from the YAML file are left alone.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("set %s: %w", path, err)
			}
		}
	}
	return nil
}
