// MovieApp - AI-Assisted Movie Recommendations
// Copyright 2026 P. Mahajan (pmahajan3105)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pmahajan3105/movieapp-sub009

package recommend

import (
	"fmt"
)

// Signals holds one score per named recommendation signal, each in [0,1].
// The set is closed: unknown signal names are rejected at the boundary by
// ParseSignals rather than silently ignored. A zero field contributes
// nothing to the combined score.
type Signals struct {
	// Primary weighted signals.
	Semantic  float64 `json:"semantic"`
	Storyline float64 `json:"storyline"`
	Talent    float64 `json:"talent"`
	Genre     float64 `json:"genre"`
	Temporal  float64 `json:"temporal"`
	Sentiment float64 `json:"sentiment"`
	Social    float64 `json:"social"`

	// Secondary raw boosts, each capped by its ceiling at scoring time.
	// Genre and temporal are deliberately double-tracked as both a weighted
	// primary term and a capped boost: a little extra credit is available
	// without unbounded compounding.
	GenreBoost    float64 `json:"genre_boost"`
	TemporalBoost float64 `json:"temporal_boost"`
	MemoryBoost   float64 `json:"memory_boost"`
}

// SignalWeights maps each primary signal to its weight. Defaults sum to
// roughly 1.0 but the model never enforces that: operators tune weights via
// configuration and the score stays additive and unclamped, so the output is
// not guaranteed to fall in [0,1]. Callers that need a bounded score rescale
// externally.
type SignalWeights struct {
	Semantic  float64 `json:"semantic"  koanf:"semantic"`
	Storyline float64 `json:"storyline" koanf:"storyline"`
	Talent    float64 `json:"talent"    koanf:"talent"`
	Genre     float64 `json:"genre"     koanf:"genre"`
	Temporal  float64 `json:"temporal"  koanf:"temporal"`
	Sentiment float64 `json:"sentiment" koanf:"sentiment"`
	Social    float64 `json:"social"    koanf:"social"`
}

// BoostCeilings cap the maximum additive contribution of each secondary
// boost signal regardless of its raw magnitude.
type BoostCeilings struct {
	Genre    float64 `json:"genre"    koanf:"genre"`
	Temporal float64 `json:"temporal" koanf:"temporal"`
	Memory   float64 `json:"memory"   koanf:"memory"`
}

// Weights is the full scoring configuration: primary weights plus boost
// ceilings.
type Weights struct {
	Signals  SignalWeights `json:"signals"  koanf:"signals"`
	Ceilings BoostCeilings `json:"ceilings" koanf:"ceilings"`
}

// DefaultWeights returns the documented scoring defaults.
func DefaultWeights() Weights {
	return Weights{
		Signals: SignalWeights{
			Semantic:  0.30,
			Storyline: 0.20,
			Talent:    0.15,
			Genre:     0.15,
			Temporal:  0.10,
			Sentiment: 0.05,
			Social:    0.05,
		},
		Ceilings: BoostCeilings{
			Genre:    0.20,
			Temporal: 0.15,
			Memory:   0.25,
		},
	}
}

// Sanitized returns a copy with every out-of-range weight or ceiling
// replaced by its documented default. A bad value degrades one weight, never
// a scoring call.
//
//nolint:gocritic // value receiver is intentional for immutable semantics
func (w Weights) Sanitized() Weights {
	def := DefaultWeights()

	fix := func(v, fallback float64) float64 {
		if v < 0 || v > 1 {
			return fallback
		}
		return v
	}

	return Weights{
		Signals: SignalWeights{
			Semantic:  fix(w.Signals.Semantic, def.Signals.Semantic),
			Storyline: fix(w.Signals.Storyline, def.Signals.Storyline),
			Talent:    fix(w.Signals.Talent, def.Signals.Talent),
			Genre:     fix(w.Signals.Genre, def.Signals.Genre),
			Temporal:  fix(w.Signals.Temporal, def.Signals.Temporal),
			Sentiment: fix(w.Signals.Sentiment, def.Signals.Sentiment),
			Social:    fix(w.Signals.Social, def.Signals.Social),
		},
		Ceilings: BoostCeilings{
			Genre:    fix(w.Ceilings.Genre, def.Ceilings.Genre),
			Temporal: fix(w.Ceilings.Temporal, def.Ceilings.Temporal),
			Memory:   fix(w.Ceilings.Memory, def.Ceilings.Memory),
		},
	}
}

// Score combines the signal scores into one relevance number:
//
//	Σ weight[s]·signal[s]  +  min(boost, ceiling) per secondary boost
//
// Pure function of its inputs; identical signals and weights always yield
// the identical score. Negative raw boosts contribute zero: a boost is extra
// credit, never a penalty.
//
//nolint:gocritic // value receiver is intentional for immutable semantics
func (w Weights) Score(s Signals) float64 {
	score := w.Signals.Semantic*s.Semantic +
		w.Signals.Storyline*s.Storyline +
		w.Signals.Talent*s.Talent +
		w.Signals.Genre*s.Genre +
		w.Signals.Temporal*s.Temporal +
		w.Signals.Sentiment*s.Sentiment +
		w.Signals.Social*s.Social

	score += cappedBoost(s.GenreBoost, w.Ceilings.Genre)
	score += cappedBoost(s.TemporalBoost, w.Ceilings.Temporal)
	score += cappedBoost(s.MemoryBoost, w.Ceilings.Memory)

	return score
}

// cappedBoost clamps a raw boost to [0, ceiling].
func cappedBoost(raw, ceiling float64) float64 {
	if raw <= 0 {
		return 0
	}
	if raw > ceiling {
		return ceiling
	}
	return raw
}

// ParseSignals converts a name-keyed mapping into the closed Signals struct.
// Unknown signal names are an error: the caller is holding data the model
// does not understand, and silently ignoring it would hide the mismatch.
func ParseSignals(m map[string]float64) (Signals, error) {
	var s Signals
	for name, value := range m {
		switch name {
		case "semantic":
			s.Semantic = value
		case "storyline":
			s.Storyline = value
		case "talent":
			s.Talent = value
		case "genre":
			s.Genre = value
		case "temporal":
			s.Temporal = value
		case "sentiment":
			s.Sentiment = value
		case "social":
			s.Social = value
		case "genre_boost":
			s.GenreBoost = value
		case "temporal_boost":
			s.TemporalBoost = value
		case "memory_boost":
			s.MemoryBoost = value
		default:
			return Signals{}, fmt.Errorf("unknown signal %q", name)
		}
	}
	return s, nil
}
