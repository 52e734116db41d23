// Package ingest turns statement files into raw transaction records. The
// engine treats extraction as an external collaborator: everything here
// produces plain transactions and nothing here classifies.
package ingest

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/ledgerline/ledgerline/internal/model"
	"github.com/shopspring/decimal"
)

var (
	// Statement lines look like "MM/DD DESCRIPTION $1,234.56".
	statementLine = regexp.MustCompile(`^(\d{2}/\d{2})\s+(.+)$`)
	trailingAmt   = regexp.MustCompile(`\$?([\d,]+\.\d{2})$`)
)

// skipMarkers flag non-purchase lines (card payments and autopay
// confirmations) that must not enter a spending batch.
var skipMarkers = []string{"PAYMENT", "THANK YOU", "AUTOPAY"}

// ParseStatementText extracts transactions from plain statement text, one
// candidate per line. Lines that don't carry a dated amount are statement
// boilerplate and are ignored; payment lines are skipped deliberately.
func ParseStatementText(r io.Reader, sourceTag string) ([]model.Transaction, error) {
	var txns []model.Transaction

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		m := statementLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		date, rest := m[1], strings.TrimSpace(m[2])

		am := trailingAmt.FindStringSubmatchIndex(rest)
		if am == nil {
			continue
		}

		amount, err := decimal.NewFromString(strings.ReplaceAll(rest[am[2]:am[3]], ",", ""))
		if err != nil {
			continue
		}

		description := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(rest[:am[0]]), "$"))
		if description == "" || isPaymentLine(description) {
			continue
		}

		txns = append(txns, model.Transaction{
			Date:        date,
			Description: description,
			Amount:      amount,
			SourceTag:   sourceTag,
		})
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read statement text: %w", err)
	}

	return txns, nil
}

// isPaymentLine reports whether a description marks a card payment rather
// than spending.
func isPaymentLine(description string) bool {
	upper := strings.ToUpper(description)
	for _, marker := range skipMarkers {
		if strings.Contains(upper, marker) {
			return true
		}
	}
	return false
}
