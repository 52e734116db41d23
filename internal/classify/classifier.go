// Package classify implements the categorization decision for a single
// transaction: exact learned patterns first, then fuzzy matches against
// stored keys, then seed keyword rules, then no match.
package classify

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/ledgerline/ledgerline/internal/common"
	"github.com/ledgerline/ledgerline/internal/match"
	"github.com/ledgerline/ledgerline/internal/model"
	"github.com/ledgerline/ledgerline/internal/normalize"
	"github.com/ledgerline/ledgerline/internal/service"
	"github.com/shopspring/decimal"
)

// Config holds the classifier's confidence tuning. The fuzzy band bounds
// the confidence assigned to approximate matches; a match score of 0 maps
// to FuzzyBandMin and a score of 1 to FuzzyBandMax. SeedRules, when set,
// provide keyword fallbacks for descriptions no stored pattern covers;
// with no seed rules an unknown description classifies as no match with
// confidence 0.
type Config struct {
	SeedRules    []SeedRule
	FuzzyBandMin float64
	FuzzyBandMax float64
}

// DefaultConfig returns the default confidence tuning. Seed rules are off
// by default: a fresh store sends everything to review until the operator
// either confirms categories or opts into the built-in rule set.
func DefaultConfig() Config {
	return Config{
		FuzzyBandMin: 0.5,
		FuzzyBandMax: 0.85,
	}
}

// Classifier assigns categories with confidence scores. Classification
// never mutates the pattern store and never fails: unclassifiable input
// and store outages both degrade to a no-match result.
type Classifier struct {
	store      service.PatternStore
	matcher    match.Matcher
	normalizer *normalize.Normalizer
	rules      []SeedRule
	config     Config

	mu         sync.RWMutex
	candidates []match.Candidate
}

// New creates a classifier with default tuning.
func New(store service.PatternStore, matcher match.Matcher, normalizer *normalize.Normalizer) *Classifier {
	return NewWithConfig(store, matcher, normalizer, DefaultConfig())
}

// NewWithConfig creates a classifier with custom confidence tuning.
func NewWithConfig(store service.PatternStore, matcher match.Matcher, normalizer *normalize.Normalizer, config Config) *Classifier {
	return &Classifier{
		store:      store,
		matcher:    matcher,
		normalizer: normalizer,
		rules:      config.SeedRules,
		config:     config,
	}
}

// Normalize exposes the classifier's normalizer so callers derive keys the
// same way classification does.
func (c *Classifier) Normalize(raw string) string {
	return c.normalizer.Normalize(raw)
}

// Refresh reloads the stored pattern set used for fuzzy matching. On
// failure the previous candidate set stays in place so classification can
// keep degrading gracefully.
func (c *Classifier) Refresh(ctx context.Context) error {
	entries, err := c.store.AllPatterns(ctx)
	if err != nil {
		return err
	}

	candidates := make([]match.Candidate, len(entries))
	for i, entry := range entries {
		candidates[i] = match.Candidate{
			Key:         entry.Key,
			Category:    entry.Category,
			LastUpdated: entry.LastUpdated,
		}
	}

	c.mu.Lock()
	c.candidates = candidates
	c.mu.Unlock()
	return nil
}

// Classify produces a category and confidence for one raw description.
// Steps run in priority order and the first hit wins:
//
//  1. Exact pattern-store hit on the normalized key, confidence 1.0.
//  2. Fuzzy match against stored keys, confidence in the fuzzy band.
//  3. Seed keyword rules, per-rule confidence.
//  4. No match, confidence 0.
func (c *Classifier) Classify(ctx context.Context, raw string, _ decimal.Decimal) model.Classification {
	key := c.normalizer.Normalize(raw)
	if key == "" {
		return model.Classification{Method: model.MethodNone}
	}

	if entry, err := c.store.GetPattern(ctx, key); err == nil {
		return model.Classification{
			Category:   entry.Category,
			Method:     model.MethodExact,
			Confidence: 1.0,
		}
	} else if !errors.Is(err, common.ErrNotFound) {
		// An unreachable store must not block categorization; fall through
		// to the non-store steps.
		slog.Warn("Pattern store lookup failed, degrading to no exact match",
			"key", key,
			"error", err)
	}

	c.mu.RLock()
	candidates := c.candidates
	c.mu.RUnlock()

	if result, ok := c.matcher.BestMatch(key, candidates); ok {
		band := c.config.FuzzyBandMax - c.config.FuzzyBandMin
		return model.Classification{
			Category:   result.Candidate.Category,
			Method:     model.MethodFuzzy,
			Confidence: c.config.FuzzyBandMin + result.Score*band,
		}
	}

	if classification, ok := matchSeedRules(c.rules, raw); ok {
		return classification
	}

	return model.Classification{Method: model.MethodNone}
}
