package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/ledgerline/ledgerline/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteResultCSV(t *testing.T) {
	result := &model.BatchResult{
		HighConfidence: []model.ClassifiedTransaction{
			{
				Transaction: model.Transaction{
					Date:        "01/15",
					Description: "WHOLEFDS MKT #456",
					Amount:      decimal.RequireFromString("23.17"),
					SourceTag:   "chase-jan",
				},
				Category:   "Groceries",
				Method:     model.MethodExact,
				Confidence: 1.0,
			},
		},
		NeedsReview: []model.ClassifiedTransaction{
			{
				Transaction: model.Transaction{
					Date:        "01/16",
					Description: "UNKNOWN MERCHANT LLC",
					Amount:      decimal.RequireFromString("5.00"),
				},
				Confidence: 0,
			},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteResultCSV(&buf, result))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Date,Description,Amount,Category,Confidence,Status,Source", lines[0])
	assert.Equal(t, "01/15,WHOLEFDS MKT #456,23.17,Groceries,1.00,high_confidence,chase-jan", lines[1])
	assert.Equal(t, "01/16,UNKNOWN MERCHANT LLC,5.00,,0.00,needs_review,", lines[2])
}

func TestWriteResultCSV_EmptyResult(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteResultCSV(&buf, &model.BatchResult{}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 1, "headers only")
}

func TestWriteSummaryCSV(t *testing.T) {
	summary := model.Summary{
		"Groceries": decimal.RequireFromString("35.67"),
		"Coffee":    decimal.RequireFromString("104.20"),
		"Gas":       decimal.RequireFromString("35.67"),
	}

	var buf bytes.Buffer
	require.NoError(t, WriteSummaryCSV(&buf, summary))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "Category,Total", lines[0])
	// Largest total first; equal totals ordered by name.
	assert.Equal(t, "Coffee,104.20", lines[1])
	assert.Equal(t, "Gas,35.67", lines[2])
	assert.Equal(t, "Groceries,35.67", lines[3])
}
