// MovieApp - AI-Assisted Movie Recommendations
// Copyright 2026 P. Mahajan (pmahajan3105)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pmahajan3105/movieapp-sub009

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/pmahajan3105/movieapp-sub009/internal/logging"
	"github.com/pmahajan3105/movieapp-sub009/internal/metrics"
)

// requestLogger logs each request and records HTTP metrics. The metric
// endpoint label uses the route pattern, not the raw path, to bound
// cardinality.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		duration := time.Since(start)
		endpoint := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				endpoint = pattern
			}
		}

		metrics.RecordHTTPRequest(r.Method, endpoint, ww.Status(), duration)

		logging.Debug().
			Str("method", r.Method).
			Str("path", sanitizeLogValue(r.URL.Path)).
			Int("status", ww.Status()).
			Dur("duration", duration).
			Int("bytes", ww.BytesWritten()).
			Msg("http request")
	})
}
