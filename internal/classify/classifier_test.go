package classify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ledgerline/ledgerline/internal/common"
	"github.com/ledgerline/ledgerline/internal/match"
	"github.com/ledgerline/ledgerline/internal/model"
	"github.com/ledgerline/ledgerline/internal/normalize"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore is an in-memory PatternStore for classifier tests. Setting
// failErr makes every call fail, simulating an unreachable database.
type fakeStore struct {
	patterns map[string]model.PatternEntry
	failErr  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{patterns: make(map[string]model.PatternEntry)}
}

func (s *fakeStore) GetPattern(_ context.Context, key string) (*model.PatternEntry, error) {
	if s.failErr != nil {
		return nil, s.failErr
	}
	entry, ok := s.patterns[key]
	if !ok {
		return nil, common.ErrNotFound
	}
	return &entry, nil
}

func (s *fakeStore) SavePattern(_ context.Context, entry *model.PatternEntry) error {
	if s.failErr != nil {
		return s.failErr
	}
	s.patterns[entry.Key] = *entry
	return nil
}

func (s *fakeStore) SavePatterns(ctx context.Context, entries []model.PatternEntry) (int, error) {
	for i := range entries {
		if err := s.SavePattern(ctx, &entries[i]); err != nil {
			return i, err
		}
	}
	return len(entries), nil
}

func (s *fakeStore) AllPatterns(_ context.Context) ([]model.PatternEntry, error) {
	if s.failErr != nil {
		return nil, s.failErr
	}
	entries := make([]model.PatternEntry, 0, len(s.patterns))
	for _, entry := range s.patterns {
		entries = append(entries, entry)
	}
	return entries, nil
}

func (s *fakeStore) DeletePattern(_ context.Context, key string) error {
	delete(s.patterns, key)
	return nil
}

func (s *fakeStore) ReplacePatterns(ctx context.Context, entries []model.PatternEntry) error {
	s.patterns = make(map[string]model.PatternEntry)
	_, err := s.SavePatterns(ctx, entries)
	return err
}

func (s *fakeStore) GetCategories(_ context.Context) ([]model.Category, error) {
	return nil, nil
}

func (s *fakeStore) CreateCategory(_ context.Context, name, parent string) (*model.Category, error) {
	return &model.Category{Name: name, Parent: parent}, nil
}

func (s *fakeStore) Migrate(_ context.Context) error { return nil }
func (s *fakeStore) Close() error                    { return nil }

func newTestClassifier(store *fakeStore, config Config) *Classifier {
	return NewWithConfig(store, match.NewTokenMatcher(), normalize.New(), config)
}

func TestClassifier_ExactMatch(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	store.patterns["wholefds mkt"] = model.PatternEntry{
		Key:         "wholefds mkt",
		Category:    "Groceries",
		LastUpdated: time.Now(),
	}

	c := newTestClassifier(store, DefaultConfig())
	require.NoError(t, c.Refresh(ctx))

	got := c.Classify(ctx, "WHOLEFDS MKT #456", decimal.NewFromInt(10))
	assert.Equal(t, "Groceries", got.Category)
	assert.Equal(t, model.MethodExact, got.Method)
	assert.Equal(t, 1.0, got.Confidence)

	// Different surface form, same normalized key, same result.
	again := c.Classify(ctx, "wholefds   mkt #99", decimal.NewFromInt(10))
	assert.Equal(t, got.Category, again.Category)
	assert.Equal(t, got.Confidence, again.Confidence)
}

func TestClassifier_FuzzyMatchConfidenceBand(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	store.patterns["blue bottle"] = model.PatternEntry{
		Key:         "blue bottle",
		Category:    "Coffee",
		LastUpdated: time.Now(),
	}

	config := DefaultConfig()
	c := newTestClassifier(store, config)
	require.NoError(t, c.Refresh(ctx))

	got := c.Classify(ctx, "BLUE BOTTLE COFFEE", decimal.NewFromInt(5))
	assert.Equal(t, "Coffee", got.Category)
	assert.Equal(t, model.MethodFuzzy, got.Method)
	assert.GreaterOrEqual(t, got.Confidence, config.FuzzyBandMin)
	assert.LessOrEqual(t, got.Confidence, config.FuzzyBandMax)
}

func TestClassifier_ExactBeatsFuzzy(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	store.patterns["blue bottle coffee"] = model.PatternEntry{Key: "blue bottle coffee", Category: "Coffee"}
	store.patterns["blue bottle"] = model.PatternEntry{Key: "blue bottle", Category: "Dining"}

	c := newTestClassifier(store, DefaultConfig())
	require.NoError(t, c.Refresh(ctx))

	got := c.Classify(ctx, "BLUE BOTTLE COFFEE", decimal.Zero)
	assert.Equal(t, model.MethodExact, got.Method)
	assert.Equal(t, "Coffee", got.Category)
	assert.Equal(t, 1.0, got.Confidence)
}

func TestClassifier_UnknownDescription(t *testing.T) {
	ctx := context.Background()
	c := newTestClassifier(newFakeStore(), DefaultConfig())
	require.NoError(t, c.Refresh(ctx))

	got := c.Classify(ctx, "UNKNOWN MERCHANT LLC", decimal.NewFromInt(42))
	assert.Equal(t, "", got.Category)
	assert.Equal(t, model.MethodNone, got.Method)
	assert.Equal(t, 0.0, got.Confidence)
}

func TestClassifier_EmptyKey(t *testing.T) {
	ctx := context.Background()
	c := newTestClassifier(newFakeStore(), DefaultConfig())

	for _, raw := range []string{"", "   ", "#1234"} {
		got := c.Classify(ctx, raw, decimal.Zero)
		assert.Equal(t, model.MethodNone, got.Method, "input %q", raw)
		assert.Equal(t, 0.0, got.Confidence, "input %q", raw)
	}
}

func TestClassifier_SeedRules(t *testing.T) {
	ctx := context.Background()
	config := DefaultConfig()
	config.SeedRules = DefaultSeedRules()
	c := newTestClassifier(newFakeStore(), config)

	tests := []struct {
		name           string
		raw            string
		wantCategory   string
		wantConfidence float64
	}{
		{
			name:           "unambiguous merchant",
			raw:            "WHOLE FOODS MARKET",
			wantCategory:   "Groceries - Whole Foods",
			wantConfidence: 0.9,
		},
		{
			name:           "general grocer gets lower confidence",
			raw:            "TARGET T-1234",
			wantCategory:   "Groceries - Other",
			wantConfidence: 0.6,
		},
		{
			name:           "amazon is flagged without a category",
			raw:            "AMAZON MKTPLACE PMTS",
			wantCategory:   "",
			wantConfidence: 0.3,
		},
		{
			name:           "prime beats the bare amazon rule",
			raw:            "AMAZON PRIME MEMBERSHIP",
			wantCategory:   "Subscriptions - Prime",
			wantConfidence: 0.9,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Classify(ctx, tt.raw, decimal.Zero)
			assert.Equal(t, model.MethodSeedRule, got.Method)
			assert.Equal(t, tt.wantCategory, got.Category)
			assert.Equal(t, tt.wantConfidence, got.Confidence)
		})
	}
}

func TestClassifier_LearnedPatternBeatsSeedRule(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	store.patterns["whole foods market"] = model.PatternEntry{
		Key:      "whole foods market",
		Category: "Household",
	}

	config := DefaultConfig()
	config.SeedRules = DefaultSeedRules()
	c := newTestClassifier(store, config)
	require.NoError(t, c.Refresh(ctx))

	got := c.Classify(ctx, "WHOLE FOODS MARKET", decimal.Zero)
	assert.Equal(t, model.MethodExact, got.Method)
	assert.Equal(t, "Household", got.Category)
}

func TestClassifier_StoreOutageDegrades(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	store.patterns["blue bottle"] = model.PatternEntry{Key: "blue bottle", Category: "Coffee"}

	c := newTestClassifier(store, DefaultConfig())
	require.NoError(t, c.Refresh(ctx))

	// The store goes away after the candidate cache was loaded. Exact
	// lookups fail, but fuzzy matching against cached candidates still
	// works and unknown descriptions still come back as no match.
	store.failErr = errors.New("database is locked")

	got := c.Classify(ctx, "BLUE BOTTLE COFFEE", decimal.Zero)
	assert.Equal(t, model.MethodFuzzy, got.Method)
	assert.Equal(t, "Coffee", got.Category)

	got = c.Classify(ctx, "UNKNOWN MERCHANT LLC", decimal.Zero)
	assert.Equal(t, model.MethodNone, got.Method)
	assert.Equal(t, 0.0, got.Confidence)
}

func TestClassifier_RefreshFailureKeepsCandidates(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	store.patterns["blue bottle"] = model.PatternEntry{Key: "blue bottle", Category: "Coffee"}

	c := newTestClassifier(store, DefaultConfig())
	require.NoError(t, c.Refresh(ctx))

	store.failErr = errors.New("database is locked")
	assert.Error(t, c.Refresh(ctx))

	got := c.Classify(ctx, "BLUE BOTTLE COFFEE", decimal.Zero)
	assert.Equal(t, model.MethodFuzzy, got.Method, "stale candidates should survive a failed refresh")
}
