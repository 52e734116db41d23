// Package export writes categorization results in formats other tools can
// consume.
package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/ledgerline/ledgerline/internal/model"
)

var resultHeaders = []string{"Date", "Description", "Amount", "Category", "Confidence", "Status", "Source"}

// WriteResultCSV writes every classified transaction in a batch, high
// confidence first, review items after, preserving each partition's input
// order.
func WriteResultCSV(w io.Writer, result *model.BatchResult) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(resultHeaders); err != nil {
		return fmt.Errorf("writing headers: %w", err)
	}

	write := func(txns []model.ClassifiedTransaction, status string) error {
		for _, txn := range txns {
			record := []string{
				txn.Date,
				txn.Description,
				txn.Amount.StringFixed(2),
				txn.Category,
				fmt.Sprintf("%.2f", txn.Confidence),
				status,
				txn.SourceTag,
			}
			if err := writer.Write(record); err != nil {
				return fmt.Errorf("writing record: %w", err)
			}
		}
		return nil
	}

	if err := write(result.HighConfidence, "high_confidence"); err != nil {
		return err
	}
	if err := write(result.NeedsReview, "needs_review"); err != nil {
		return err
	}

	writer.Flush()
	return writer.Error()
}

// WriteSummaryCSV writes the per-category totals of a batch, largest
// first.
func WriteSummaryCSV(w io.Writer, summary model.Summary) error {
	writer := csv.NewWriter(w)

	if err := writer.Write([]string{"Category", "Total"}); err != nil {
		return fmt.Errorf("writing headers: %w", err)
	}

	for _, row := range summary.Sorted() {
		if err := writer.Write([]string{row.Category, row.Total.StringFixed(2)}); err != nil {
			return fmt.Errorf("writing record: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}
