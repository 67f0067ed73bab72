// MovieApp - AI-Assisted Movie Recommendations
// Copyright 2026 P. Mahajan (pmahajan3105)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pmahajan3105/movieapp-sub009

// Command server runs the MovieApp recommendation service.
//
// The process wires the movie catalog (DuckDB), taste memory (BadgerDB),
// the external search and AI completion clients, the recommendation engine
// with request deduplication, and the HTTP API, all under a suture
// supervisor tree.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pmahajan3105/movieapp-sub009/internal/ai"
	"github.com/pmahajan3105/movieapp-sub009/internal/api"
	"github.com/pmahajan3105/movieapp-sub009/internal/catalog"
	"github.com/pmahajan3105/movieapp-sub009/internal/coalesce"
	"github.com/pmahajan3105/movieapp-sub009/internal/config"
	"github.com/pmahajan3105/movieapp-sub009/internal/logging"
	"github.com/pmahajan3105/movieapp-sub009/internal/memory"
	"github.com/pmahajan3105/movieapp-sub009/internal/recommend"
	"github.com/pmahajan3105/movieapp-sub009/internal/supervisor"
	"github.com/pmahajan3105/movieapp-sub009/internal/tmdb"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("db_path", cfg.Database.Path).
		Str("ai_model", cfg.AI.Model).
		Int("port", cfg.Server.Port).
		Msg("Configuration loaded")

	// Movie catalog (DuckDB)
	store, err := catalog.Open(cfg.Database, logging.Logger())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open movie catalog")
	}
	defer func() {
		if err := store.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing movie catalog")
		}
	}()

	// Taste memory (BadgerDB)
	tasteMemory, err := memory.Open(cfg.Memory)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open taste memory")
	}
	defer func() {
		if err := tasteMemory.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing taste memory")
		}
	}()

	// External collaborators
	searchClient := tmdb.NewClient(cfg.TMDB)
	aiProvider := ai.NewProvider(cfg.AI)

	// Deduplication groups. Recommendation resolutions are slow (AI call),
	// searches are fast; each gets its own timeout window.
	recommendGroup := coalesce.NewGroup[*recommend.Response]("recommend", cfg.Dedup.RecommendWindow)
	searchGroup := coalesce.NewGroup[[]recommend.MovieRecord]("search", cfg.Dedup.SearchWindow)

	enricher := recommend.NewEnricher(store, searchClient, logging.Logger())
	engine := recommend.NewEngine(
		cfg.Recommend.Weights,
		recommend.Options{
			DefaultK:            cfg.Recommend.DefaultK,
			MaxK:                cfg.Recommend.MaxK,
			MemoryUpdateTimeout: cfg.Recommend.MemoryUpdateTimeout,
		},
		enricher,
		aiProvider,
		tasteMemory,
		recommendGroup,
		logging.Logger(),
	)

	handler := api.NewHandler(engine, store, searchClient, store, searchGroup)
	router := api.NewRouter(api.RouterConfig{
		CORSOrigins:     cfg.Server.CORSOrigins,
		RateLimit:       cfg.Server.RateLimit,
		RateLimitWindow: cfg.Server.RateLimitWindow,
	}, handler)

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// zerolog-to-slog bridge for sutureslog
	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.TreeConfig{})
	tree.AddDataService(supervisor.NewSweeperService(cfg.Dedup.SweepInterval, recommendGroup, searchGroup))
	tree.AddAPIService(supervisor.NewHTTPService(server, 10*time.Second))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("Application stopped gracefully")
}
