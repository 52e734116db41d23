package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/ledgerline/ledgerline/internal/model"
	"github.com/shopspring/decimal"
)

// ReadTransactionsCSV reads raw transactions from CSV records of the form
// date,description,amount. A leading header row is tolerated. Malformed
// records are reported as skips so a batch keeps its partial-failure
// semantics end to end.
func ReadTransactionsCSV(r io.Reader, sourceTag string) ([]model.Transaction, []model.SkippedRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var (
		txns    []model.Transaction
		skipped []model.SkippedRecord
		index   int
	)

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read csv: %w", err)
		}

		if index == 0 && isHeaderRow(record) {
			index++
			continue
		}

		txn, reason := parseTransactionRecord(record, sourceTag)
		if reason != "" {
			skipped = append(skipped, model.SkippedRecord{Index: index, Reason: reason})
			index++
			continue
		}

		txns = append(txns, txn)
		index++
	}

	return txns, skipped, nil
}

// ReadCorrectionsCSV reads confirmed description,category pairs for the
// learning endpoint. A leading header row is tolerated; validation of the
// pairs themselves belongs to the engine.
func ReadCorrectionsCSV(r io.Reader) ([]model.Correction, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var (
		corrections []model.Correction
		first       = true
	)

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv: %w", err)
		}

		if first {
			first = false
			if len(record) >= 2 && strings.EqualFold(strings.TrimSpace(record[0]), "description") {
				continue
			}
		}

		if len(record) < 2 {
			return nil, fmt.Errorf("correction record needs description and category, got %d fields", len(record))
		}

		corrections = append(corrections, model.Correction{
			Description: strings.TrimSpace(record[0]),
			Category:    strings.TrimSpace(record[1]),
		})
	}

	return corrections, nil
}

// parseTransactionRecord converts one CSV record, returning a skip reason
// for malformed input.
func parseTransactionRecord(record []string, sourceTag string) (model.Transaction, string) {
	if len(record) < 3 {
		return model.Transaction{}, fmt.Sprintf("expected 3 fields, got %d", len(record))
	}

	description := strings.TrimSpace(record[1])
	if description == "" {
		return model.Transaction{}, "missing description"
	}

	amount, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(record[2]), ",", ""))
	if err != nil {
		return model.Transaction{}, "non-numeric amount"
	}
	if amount.IsNegative() {
		return model.Transaction{}, "negative amount"
	}

	return model.Transaction{
		Date:        strings.TrimSpace(record[0]),
		Description: description,
		Amount:      amount,
		SourceTag:   sourceTag,
	}, ""
}

// isHeaderRow detects a date,description,amount header.
func isHeaderRow(record []string) bool {
	if len(record) == 0 {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(record[0]), "date")
}
