// MovieApp - AI-Assisted Movie Recommendations
// Copyright 2026 P. Mahajan (pmahajan3105)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pmahajan3105/movieapp-sub009

// Package memory persists per-user taste profiles in BadgerDB. A profile is
// a map of genre to [0,1] affinity; each recorded recommendation nudges the
// served genres up and decays the rest, so the profile tracks recent taste
// rather than all-time history.
package memory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/pmahajan3105/movieapp-sub009/internal/recommend"
)

const tasteKeyPrefix = "taste:"

// Affinity update constants. Recorded genres move toward 1 by the learning
// rate; unrecorded genres decay toward 0 and are dropped below the floor.
const (
	learningRate  = 0.3
	decayRate     = 0.05
	affinityFloor = 0.01
)

// Config holds taste memory settings.
type Config struct {
	// Path is the BadgerDB directory. Empty selects an in-memory store.
	Path string `koanf:"path"`
}

// storedProfile is the BadgerDB value format.
type storedProfile struct {
	Affinity  map[string]float64 `json:"affinity"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// Store is a BadgerDB-backed taste memory. Implements recommend.TasteMemory.
type Store struct {
	db  *badger.DB
	now func() time.Time
}

// Open opens the taste memory store at cfg.Path.
func Open(cfg Config) (*Store, error) {
	var opts badger.Options
	if cfg.Path == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open taste memory: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Profile returns the stored taste profile for the user, or nil when the
// user has no recorded history.
func (s *Store) Profile(ctx context.Context, userID string) (*recommend.TasteProfile, error) {
	var stored storedProfile

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(tasteKeyPrefix + userID))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &stored)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load taste profile: %w", err)
	}

	return &recommend.TasteProfile{
		Affinity:  stored.Affinity,
		UpdatedAt: stored.UpdatedAt,
	}, nil
}

// Record folds the served genres into the user's profile. Genre names are
// normalized to lower case. A user with no prior profile starts from empty.
func (s *Store) Record(ctx context.Context, userID string, genres []string) error {
	if userID == "" {
		return fmt.Errorf("record taste: empty user id")
	}

	key := []byte(tasteKeyPrefix + userID)

	return s.db.Update(func(txn *badger.Txn) error {
		stored := storedProfile{Affinity: map[string]float64{}}

		item, err := txn.Get(key)
		switch {
		case errors.Is(err, badger.ErrKeyNotFound):
			// first observation for this user
		case err != nil:
			return fmt.Errorf("load taste profile: %w", err)
		default:
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &stored)
			}); err != nil {
				return fmt.Errorf("decode taste profile: %w", err)
			}
			if stored.Affinity == nil {
				stored.Affinity = map[string]float64{}
			}
		}

		applyUpdate(stored.Affinity, genres)
		stored.UpdatedAt = s.now()

		data, err := json.Marshal(stored)
		if err != nil {
			return fmt.Errorf("encode taste profile: %w", err)
		}
		return txn.Set(key, data)
	})
}

// applyUpdate nudges served genres toward 1 and decays the rest toward 0.
// Entries that decay below the floor are removed.
func applyUpdate(affinity map[string]float64, genres []string) {
	served := make(map[string]bool, len(genres))
	for _, g := range genres {
		g = strings.ToLower(strings.TrimSpace(g))
		if g != "" {
			served[g] = true
		}
	}

	for name, score := range affinity {
		if served[name] {
			continue
		}
		score -= decayRate * score
		if score < affinityFloor {
			delete(affinity, name)
			continue
		}
		affinity[name] = score
	}

	for name := range served {
		score := affinity[name]
		affinity[name] = score + learningRate*(1-score)
	}
}
