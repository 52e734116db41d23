// Package model defines the core domain models used throughout the application.
package model

import (
	"github.com/shopspring/decimal"
)

// Transaction represents a single statement line item as supplied by an
// ingestion source. Transactions are ephemeral: they live for the duration
// of one categorization batch and are never persisted on their own.
type Transaction struct {
	Date        string // statement date, MM/DD
	Description string // raw merchant text
	SourceTag   string // caller-supplied origin label (statement/account)
	Amount      decimal.Decimal
}

// Classification is the result of running a transaction through the
// classifier. Once the engine attaches a classification to a transaction it
// is never mutated; a human correction produces a new pattern via Learn and
// a fresh classification on the next run.
type Classification struct {
	Category   string
	Method     ClassificationMethod
	Confidence float64
}

// ClassificationMethod records which step of the classifier produced
// a classification.
type ClassificationMethod string

// Classification method constants.
const (
	MethodExact    ClassificationMethod = "EXACT"
	MethodFuzzy    ClassificationMethod = "FUZZY"
	MethodSeedRule ClassificationMethod = "SEED_RULE"
	MethodNone     ClassificationMethod = "NONE"
)

// ClassifiedTransaction pairs a transaction with its classification.
type ClassifiedTransaction struct {
	Transaction
	Category   string
	Method     ClassificationMethod
	Confidence float64
}

// Correction is a human-confirmed description to category pair submitted
// to the learning endpoint.
type Correction struct {
	Description string
	Category    string
}
