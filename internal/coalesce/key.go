// MovieApp - AI-Assisted Movie Recommendations
// Copyright 2026 P. Mahajan (pmahajan3105)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pmahajan3105/movieapp-sub009

package coalesce

import (
	"crypto/sha256"
	"fmt"
	"sort"

	"github.com/goccy/go-json"
)

// keyPair is one named parameter in its canonical position.
type keyPair struct {
	Name  string `json:"n"`
	Value any    `json:"v"`
}

// Key derives a deterministic fingerprint from a mapping of request
// parameters. Parameter names are sorted before serialization, so two
// logically identical mappings produce the same key regardless of insertion
// order. Values should be primitives (strings, numbers, bools).
func Key(params map[string]any) string {
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	pairs := make([]keyPair, 0, len(names))
	for _, name := range names {
		pairs = append(pairs, keyPair{Name: name, Value: params[name]})
	}

	data, err := json.Marshal(pairs)
	if err != nil {
		// Only non-serializable values land here; fall back to a stable
		// textual rendering of the sorted pairs.
		data = []byte(fmt.Sprintf("%v", pairs))
	}

	hash := sha256.Sum256(data)
	return fmt.Sprintf("%x", hash[:16])
}
