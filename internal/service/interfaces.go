// Package service defines the interfaces for all application services.
package service

import (
	"context"

	"github.com/ledgerline/ledgerline/internal/model"
)

// PatternStore defines the contract for the persistence layer. The store's
// only writers are the learning endpoint and pattern import; classification
// is read-only.
type PatternStore interface {
	// Pattern operations.
	GetPattern(ctx context.Context, key string) (*model.PatternEntry, error)
	SavePattern(ctx context.Context, entry *model.PatternEntry) error
	SavePatterns(ctx context.Context, entries []model.PatternEntry) (int, error)
	AllPatterns(ctx context.Context) ([]model.PatternEntry, error)
	DeletePattern(ctx context.Context, key string) error
	ReplacePatterns(ctx context.Context, entries []model.PatternEntry) error

	// Category registry operations.
	GetCategories(ctx context.Context) ([]model.Category, error)
	CreateCategory(ctx context.Context, name, parent string) (*model.Category, error)

	// Database management.
	Migrate(ctx context.Context) error
	Close() error
}
