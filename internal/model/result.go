package model

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Summary maps a category to the total amount of all high-confidence
// transactions assigned to it within one batch. Summaries are always
// rebuilt from the current partition, never patched incrementally.
type Summary map[string]decimal.Decimal

// Add accumulates an amount into a category bucket.
func (s Summary) Add(category string, amount decimal.Decimal) {
	s[category] = s[category].Add(amount)
}

// CategoryTotal is one summary row.
type CategoryTotal struct {
	Category string
	Total    decimal.Decimal
}

// Sorted returns summary rows ordered by descending total. Ordering is a
// presentation convenience; the summary itself is an unordered mapping.
func (s Summary) Sorted() []CategoryTotal {
	totals := make([]CategoryTotal, 0, len(s))
	for category, total := range s {
		totals = append(totals, CategoryTotal{Category: category, Total: total})
	}
	sort.Slice(totals, func(i, j int) bool {
		if totals[i].Total.Equal(totals[j].Total) {
			return totals[i].Category < totals[j].Category
		}
		return totals[i].Total.GreaterThan(totals[j].Total)
	})
	return totals
}

// SkippedRecord describes a malformed input record that was dropped from a
// batch rather than corrupting the summary.
type SkippedRecord struct {
	Reason string
	Index  int
}

// BatchResult is the outcome of processing one batch of raw transactions.
type BatchResult struct {
	BatchID        string
	HighConfidence []ClassifiedTransaction
	NeedsReview    []ClassifiedTransaction
	Skipped        []SkippedRecord
	Summary        Summary
}
