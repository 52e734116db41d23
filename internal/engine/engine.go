// Package engine implements batch categorization and the learning
// endpoint on top of the classifier and the pattern store.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ledgerline/ledgerline/internal/common"
	"github.com/ledgerline/ledgerline/internal/model"
	"github.com/ledgerline/ledgerline/internal/service"
)

// DefaultThreshold is the confidence at or above which a transaction is
// auto-categorized instead of routed to review.
const DefaultThreshold = 0.7

// Config holds configuration options for the engine.
type Config struct {
	// Progress, when set, is called after each record in a batch with the
	// number processed so far and the batch size.
	Progress func(done, total int)
	// Threshold partitions classified transactions: confidence >= Threshold
	// is high confidence (the boundary is inclusive).
	Threshold float64
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() Config {
	return Config{Threshold: DefaultThreshold}
}

// Engine processes batches of raw transactions and feeds confirmed
// corrections back into the pattern store. Each Process call is
// independent; the store is the only shared state.
type Engine struct {
	store      service.PatternStore
	classifier Classifier
	progress   func(done, total int)
	threshold  float64
}

// New creates an engine with the default configuration.
func New(store service.PatternStore, classifier Classifier) *Engine {
	return NewWithConfig(store, classifier, DefaultConfig())
}

// NewWithConfig creates an engine with a custom configuration.
func NewWithConfig(store service.PatternStore, classifier Classifier, config Config) *Engine {
	threshold := config.Threshold
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Engine{
		store:      store,
		classifier: classifier,
		progress:   config.Progress,
		threshold:  threshold,
	}
}

// Process categorizes one batch of raw transactions. Malformed records are
// skipped with a reason and never contribute to the summary; valid records
// keep their input order within each partition. The summary is recomputed
// from the high-confidence partition on every call, never carried over.
func (e *Engine) Process(ctx context.Context, txns []model.Transaction) (*model.BatchResult, error) {
	if len(txns) == 0 {
		return nil, common.ErrNoTransactions
	}

	if err := e.classifier.Refresh(ctx); err != nil {
		// Classification degrades to seed rules / no match; the batch
		// still runs.
		slog.Warn("Failed to refresh learned patterns, classifying without them", "error", err)
	}

	result := &model.BatchResult{
		BatchID: uuid.NewString(),
		Summary: make(model.Summary),
	}

	for i, txn := range txns {
		if e.progress != nil {
			e.progress(i+1, len(txns))
		}

		if reason := validateTransaction(txn, e.classifier); reason != "" {
			result.Skipped = append(result.Skipped, model.SkippedRecord{
				Index:  i,
				Reason: reason,
			})
			continue
		}

		classification := e.classifier.Classify(ctx, txn.Description, txn.Amount)

		classified := model.ClassifiedTransaction{
			Transaction: txn,
			Category:    classification.Category,
			Method:      classification.Method,
			Confidence:  classification.Confidence,
		}

		if classification.Confidence >= e.threshold {
			result.HighConfidence = append(result.HighConfidence, classified)
		} else {
			result.NeedsReview = append(result.NeedsReview, classified)
		}
	}

	// The summary covers confirmed spending only: review items wait for a
	// human before they count toward any category.
	for _, txn := range result.HighConfidence {
		result.Summary.Add(txn.Category, txn.Amount)
	}

	slog.Info("Processed batch",
		"batch_id", result.BatchID,
		"high_confidence", len(result.HighConfidence),
		"needs_review", len(result.NeedsReview),
		"skipped", len(result.Skipped))

	return result, nil
}

// GroupKeyFunc derives a partition key for a transaction, e.g. a calendar
// month bucket from its date. It must be pure.
type GroupKeyFunc func(model.Transaction) string

// ProcessGrouped partitions a batch by a caller-supplied key and processes
// each group independently, producing one result per key. Within a group,
// input order is preserved.
func (e *Engine) ProcessGrouped(ctx context.Context, txns []model.Transaction, keyFn GroupKeyFunc) (map[string]*model.BatchResult, error) {
	if keyFn == nil {
		return nil, fmt.Errorf("%w: group key function", common.ErrInvalidConfig)
	}
	if len(txns) == 0 {
		return nil, common.ErrNoTransactions
	}

	groups := make(map[string][]model.Transaction)
	var order []string
	for _, txn := range txns {
		key := keyFn(txn)
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], txn)
	}

	results := make(map[string]*model.BatchResult, len(groups))
	for _, key := range order {
		result, err := e.Process(ctx, groups[key])
		if err != nil {
			return nil, fmt.Errorf("group %q: %w", key, err)
		}
		results[key] = result
	}

	return results, nil
}

// MonthKey buckets a transaction by the month of its MM/DD statement date.
// Dates that don't parse fall into a shared "unknown" bucket rather than
// silently joining a month.
func MonthKey(txn model.Transaction) string {
	parts := strings.SplitN(txn.Date, "/", 2)
	if len(parts) != 2 {
		return "unknown"
	}
	if _, err := time.Parse("01/02", txn.Date); err != nil {
		return "unknown"
	}
	return parts[0]
}

// Learn records human-confirmed corrections as patterns. Every valid pair
// becomes immediately authoritative for its normalized key; the count of
// patterns written is returned. Zero valid pairs is a caller error, and a
// store failure fails loudly since confirmed corrections must never be
// dropped silently.
func (e *Engine) Learn(ctx context.Context, corrections []model.Correction) (int, error) {
	entries := make([]model.PatternEntry, 0, len(corrections))
	for i, correction := range corrections {
		if strings.TrimSpace(correction.Category) == "" {
			return 0, fmt.Errorf("%w: pair %d has empty category", common.ErrInvalidCorrection, i)
		}
		key := e.classifier.Normalize(correction.Description)
		if key == "" {
			return 0, fmt.Errorf("%w: pair %d has empty description", common.ErrInvalidCorrection, i)
		}
		entries = append(entries, model.PatternEntry{
			Key:         key,
			Category:    correction.Category,
			LastUpdated: time.Now(),
		})
	}

	if len(entries) == 0 {
		return 0, common.ErrNoCorrections
	}

	written, err := e.store.SavePatterns(ctx, entries)
	if err != nil {
		return written, fmt.Errorf("failed to store corrections: %w", err)
	}

	slog.Info("Learned patterns", "count", written)
	return written, nil
}

// validateTransaction checks the batch invariants for one record and
// returns a reason string when the record must be skipped.
func validateTransaction(txn model.Transaction, classifier Classifier) string {
	if strings.TrimSpace(txn.Description) == "" {
		return "empty description"
	}
	if classifier.Normalize(txn.Description) == "" {
		return "description normalizes to empty key"
	}
	if txn.Amount.IsNegative() {
		return "negative amount"
	}
	return ""
}
