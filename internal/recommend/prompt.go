// MovieApp - AI-Assisted Movie Recommendations
// Copyright 2026 P. Mahajan (pmahajan3105)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pmahajan3105/movieapp-sub009

package recommend

import (
	"fmt"
	"strings"

	"github.com/goccy/go-json"
)

// suggestionEnvelope is the JSON object the AI is asked to produce.
type suggestionEnvelope struct {
	Recommendations []Suggestion `json:"recommendations"`
}

// buildPrompt renders the completion prompt for a request. The provider is
// asked for strict JSON, but extractSuggestions tolerates the prose and code
// fences models add anyway.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func buildPrompt(req Request) string {
	var b strings.Builder
	b.WriteString("You are a movie recommendation assistant. ")
	b.WriteString("Respond with a JSON object of the form ")
	b.WriteString(`{"recommendations":[{"title":"...","year":1999,"reason":"...","confidence":0.9}]}`)
	b.WriteString(" and nothing else.\n")

	if req.Intent != "" {
		fmt.Fprintf(&b, "Intent: %s\n", req.Intent)
	}
	fmt.Fprintf(&b, "Request: %s\n", req.Query)
	fmt.Fprintf(&b, "Return up to %d movies, strongest match first.\n", req.K)
	return b.String()
}

// extractSuggestions pulls the recommendations array out of free-form AI
// output. Models wrap JSON in prose and markdown fences often enough that a
// strict parse would throw away good answers; anything that still fails to
// parse yields nil, never an error, and the caller responds with an empty
// recommendation list.
func extractSuggestions(raw string) []Suggestion {
	text := stripCodeFences(raw)

	// Object form: take the outermost braces.
	if start, end := strings.Index(text, "{"), strings.LastIndex(text, "}"); start >= 0 && end > start {
		var envelope suggestionEnvelope
		if err := json.Unmarshal([]byte(text[start:end+1]), &envelope); err == nil {
			return validSuggestions(envelope.Recommendations)
		}
	}

	// Bare array form: some models skip the envelope.
	if start, end := strings.Index(text, "["), strings.LastIndex(text, "]"); start >= 0 && end > start {
		var list []Suggestion
		if err := json.Unmarshal([]byte(text[start:end+1]), &list); err == nil {
			return validSuggestions(list)
		}
	}

	return nil
}

// validSuggestions drops entries without a title.
func validSuggestions(list []Suggestion) []Suggestion {
	out := list[:0]
	for _, s := range list {
		if strings.TrimSpace(s.Title) != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// stripCodeFences removes markdown ``` fences, keeping their contents.
func stripCodeFences(s string) string {
	if !strings.Contains(s, "```") {
		return s
	}
	var b strings.Builder
	for _, line := range strings.Split(s, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			continue
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}
