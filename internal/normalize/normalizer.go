// Package normalize derives canonical matching keys from raw merchant
// descriptions. Learned patterns only generalize through this function, so
// two descriptions a human would call "the same merchant" must produce the
// same key as often as possible.
package normalize

import (
	"fmt"
	"regexp"
	"strings"
)

// defaultNoisePatterns strip processor noise that varies between visits to
// the same merchant: store numbers, card fragments, reference codes and
// other long digit runs. Patterns are applied to the lower-cased input.
var defaultNoisePatterns = []string{
	`#\s*\d+`,        // store/location numbers: "#123"
	`\bx{2,}\d+\b`,   // masked card fragments: "xxxx1234"
	`\b\w*\d{3,}\w*`, // reference codes and long digit runs
	`\btst\*?`,       // toast processor prefix
	`\bsq\s?\*`,      // square processor prefix
	`\bpaypal\s?\*`,  // paypal processor prefix
}

// usStateCodes recognizes trailing state abbreviations so that
// "starbucks boston ma" and "starbucks cambridge ma" stand a chance of
// colliding on the merchant tokens.
var usStateCodes = map[string]bool{
	"al": true, "ak": true, "az": true, "ar": true, "ca": true, "co": true,
	"ct": true, "de": true, "fl": true, "ga": true, "hi": true, "id": true,
	"il": true, "in": true, "ia": true, "ks": true, "ky": true, "la": true,
	"me": true, "md": true, "ma": true, "mi": true, "mn": true, "ms": true,
	"mo": true, "mt": true, "ne": true, "nv": true, "nh": true, "nj": true,
	"nm": true, "ny": true, "nc": true, "nd": true, "oh": true, "ok": true,
	"or": true, "pa": true, "ri": true, "sc": true, "sd": true, "tn": true,
	"tx": true, "ut": true, "vt": true, "va": true, "wa": true, "wv": true,
	"wi": true, "wy": true, "dc": true,
}

var (
	punctuation = regexp.MustCompile(`[^a-z0-9 ]`)
	whitespace  = regexp.MustCompile(`\s+`)
)

// Normalizer turns raw merchant descriptions into canonical keys. It is
// safe for concurrent use.
type Normalizer struct {
	noise []*regexp.Regexp
}

// New creates a normalizer with the default noise patterns.
func New() *Normalizer {
	n, err := NewWithPatterns(nil)
	if err != nil {
		// Default patterns are compile-checked by tests; this cannot happen
		// at runtime.
		panic(err)
	}
	return n
}

// NewWithPatterns creates a normalizer with the default noise patterns plus
// any extra caller-supplied ones. Extra patterns are matched against the
// lower-cased description.
func NewWithPatterns(extra []string) (*Normalizer, error) {
	patterns := make([]string, 0, len(defaultNoisePatterns)+len(extra))
	patterns = append(patterns, defaultNoisePatterns...)
	patterns = append(patterns, extra...)

	noise := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid noise pattern %q: %w", p, err)
		}
		noise = append(noise, re)
	}

	return &Normalizer{noise: noise}, nil
}

// Normalize derives the canonical key for a raw merchant description. It is
// pure, total and idempotent; the empty string normalizes to the empty key,
// which never matches anything.
func (n *Normalizer) Normalize(raw string) string {
	key := strings.ToLower(raw)

	// Apostrophes are contracted rather than split so "trader joe's"
	// becomes "trader joes", not "trader joe s".
	key = strings.ReplaceAll(key, "'", "")

	for _, re := range n.noise {
		key = re.ReplaceAllString(key, " ")
	}

	key = punctuation.ReplaceAllString(key, " ")
	key = whitespace.ReplaceAllString(key, " ")
	key = strings.TrimSpace(key)

	key = stripLocationSuffix(key)

	return key
}

// stripLocationSuffix removes trailing US state codes, repeatedly, so long
// as more than one token remains. "wholefds mkt cambridge ma" and
// "wholefds mkt somerville ma" keep their leading merchant tokens.
func stripLocationSuffix(key string) string {
	for {
		idx := strings.LastIndexByte(key, ' ')
		if idx < 0 {
			return key
		}
		last := key[idx+1:]
		if !usStateCodes[last] {
			return key
		}
		key = key[:idx]
	}
}
