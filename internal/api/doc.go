// MovieApp - AI-Assisted Movie Recommendations
// Copyright 2026 P. Mahajan (pmahajan3105)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pmahajan3105/movieapp-sub009

// Package api provides the HTTP surface using the chi router.
//
// Endpoints:
//
//	GET  /healthz                   - liveness and dependency health
//	GET  /metrics                   - Prometheus metrics
//	POST /api/v1/recommendations    - ranked movie recommendations
//	GET  /api/v1/movies/search      - movie title search
//
// All JSON responses share one envelope: {"status", "data", "metadata",
// "error"}. Identical concurrent searches are coalesced onto a single
// backend lookup.
package api
