// Package match provides the fuzzy-matching strategies the classifier uses
// to generalize learned patterns to near-identical descriptions.
package match

import "time"

// Candidate is a stored pattern key offered to a matcher.
type Candidate struct {
	LastUpdated time.Time
	Key         string
	Category    string
}

// Result is the best candidate found for a key, with a raw match quality
// score in [0,1]. Scores describe match quality only; mapping a score into
// a confidence band is the classifier's job.
type Result struct {
	Candidate Candidate
	Score     float64
}

// Matcher selects the best stored candidate for a normalized key. The
// matching algorithm is pluggable; the classifier's priority ordering does
// not depend on which implementation is in use.
type Matcher interface {
	// BestMatch returns the strongest candidate and true, or false when no
	// candidate clears the matcher's quality floor.
	BestMatch(key string, candidates []Candidate) (Result, bool)
}
