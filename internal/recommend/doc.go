// MovieApp - AI-Assisted Movie Recommendations
// Copyright 2026 P. Mahajan (pmahajan3105)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pmahajan3105/movieapp-sub009

// Package recommend turns free-text AI movie suggestions into ranked,
// attributed recommendations.
//
// The package has three parts:
//
//   - Weights: a fixed set of named signal weights and boost ceilings that
//     fold heterogeneous signal scores into one relevance score. Weights are
//     data, not logic: they come from configuration and the scoring function
//     never renormalizes them behind the operator's back.
//
//   - Enricher: resolves each AI-suggested title against the canonical
//     catalog first and an external search provider second, attaching
//     provenance and match confidence. Unresolvable suggestions are logged
//     and dropped; one bad title never fails the batch.
//
//   - Engine: the orchestrator. Identical concurrent requests are collapsed
//     onto one in-flight resolution via a coalesce.Group keyed by request
//     fingerprint (user, intent, query). Taste-memory updates run as a
//     detached task and are never awaited by the response path.
//
// The package depends on other internal packages only through the
// collaborator interfaces declared in types.go, so the catalog, TMDB and AI
// implementations stay swappable in tests.
package recommend
