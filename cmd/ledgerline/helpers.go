package main

import (
	"context"
	"fmt"

	"github.com/ledgerline/ledgerline/internal/classify"
	"github.com/ledgerline/ledgerline/internal/config"
	"github.com/ledgerline/ledgerline/internal/engine"
	"github.com/ledgerline/ledgerline/internal/match"
	"github.com/ledgerline/ledgerline/internal/model"
	"github.com/ledgerline/ledgerline/internal/normalize"
	"github.com/ledgerline/ledgerline/internal/storage"
	"github.com/spf13/viper"
)

// categoryLister is the slice of the store the strict-categories check
// needs.
type categoryLister interface {
	GetCategories(ctx context.Context) ([]model.Category, error)
}

// initStorage initializes the pattern store with proper path expansion.
func initStorage(ctx context.Context) (*storage.SQLiteStore, error) {
	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		dbPath = config.DefaultDatabasePath
	}

	// Expand tilde and environment variables
	dbPath = config.ExpandPath(dbPath)

	store, err := storage.NewSQLiteStore(dbPath)
	if err != nil {
		return nil, err
	}

	// Run migrations
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// initEngine wires the normalizer, matcher, classifier, and engine on top
// of a pattern store, applying configured thresholds and tuning. progress
// may be nil.
func initEngine(store *storage.SQLiteStore, seedRules bool, progress func(done, total int)) (*engine.Engine, error) {
	normalizer, err := normalize.NewWithPatterns(viper.GetStringSlice("normalizer.noise_patterns"))
	if err != nil {
		return nil, fmt.Errorf("failed to build normalizer: %w", err)
	}

	matcher := match.NewTokenMatcher()
	if floor := viper.GetFloat64("classifier.match_floor"); floor > 0 {
		matcher = match.NewTokenMatcherWithFloor(floor)
	}

	classifierConfig := classify.DefaultConfig()
	if band := viper.GetFloat64("classifier.fuzzy_band_min"); band > 0 {
		classifierConfig.FuzzyBandMin = band
	}
	if band := viper.GetFloat64("classifier.fuzzy_band_max"); band > 0 {
		classifierConfig.FuzzyBandMax = band
	}
	if seedRules {
		classifierConfig.SeedRules = classify.DefaultSeedRules()
	}

	classifier := classify.NewWithConfig(store, matcher, normalizer, classifierConfig)

	engineConfig := engine.DefaultConfig()
	engineConfig.Progress = progress
	if threshold := viper.GetFloat64("engine.threshold"); threshold > 0 {
		engineConfig.Threshold = threshold
	}

	return engine.NewWithConfig(store, classifier, engineConfig), nil
}
