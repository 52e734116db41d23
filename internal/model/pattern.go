package model

import "time"

// PatternEntry is a learned association between a normalized merchant key
// and a category. Pattern entries are the only state that survives process
// restarts; the most recent confirmation for a key always wins.
type PatternEntry struct {
	LastUpdated time.Time
	Key         string
	Category    string
}

// Category is an entry in the category registry. The registry is advisory:
// the engine accepts any non-empty category string, and the CLI uses the
// registry only to warn about unknown labels.
type Category struct {
	CreatedAt time.Time
	Name      string
	Parent    string
}
