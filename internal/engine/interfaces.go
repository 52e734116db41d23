package engine

import (
	"context"

	"github.com/ledgerline/ledgerline/internal/model"
	"github.com/shopspring/decimal"
)

// Classifier is the engine's view of the categorization decision. The
// concrete implementation lives in internal/classify; tests substitute
// simpler ones.
type Classifier interface {
	// Refresh reloads whatever learned state the classifier matches
	// against. Called once per batch.
	Refresh(ctx context.Context) error
	// Normalize derives the canonical key for a raw description.
	Normalize(raw string) string
	// Classify categorizes one description with a confidence score. It
	// must not fail; degraded inputs produce a no-match result.
	Classify(ctx context.Context, raw string, amount decimal.Decimal) model.Classification
}
