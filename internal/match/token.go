package match

import "strings"

// DefaultMinScore is the quality floor below which a candidate is not
// reported as a match at all.
const DefaultMinScore = 0.5

// TokenMatcher scores candidates by token overlap, with a containment
// bonus for keys that are substrings of one another. It is the default
// Matcher implementation.
type TokenMatcher struct {
	minScore float64
}

// NewTokenMatcher creates a token matcher with the default quality floor.
func NewTokenMatcher() *TokenMatcher {
	return &TokenMatcher{minScore: DefaultMinScore}
}

// NewTokenMatcherWithFloor creates a token matcher with a custom quality
// floor in [0,1].
func NewTokenMatcherWithFloor(minScore float64) *TokenMatcher {
	return &TokenMatcher{minScore: minScore}
}

// BestMatch implements Matcher. Ties on score are broken by the greater
// shared token length, then by the most recently updated candidate, on the
// theory that recent corrections better represent current spending.
func (m *TokenMatcher) BestMatch(key string, candidates []Candidate) (Result, bool) {
	if key == "" {
		return Result{}, false
	}

	keyTokens := strings.Fields(key)
	if len(keyTokens) == 0 {
		return Result{}, false
	}

	var (
		best        Result
		bestOverlap int
		found       bool
	)

	for _, candidate := range candidates {
		if candidate.Key == "" || candidate.Key == key {
			// Exact hits are the store lookup's job; the matcher only
			// handles approximate candidates.
			continue
		}

		score, overlap := m.score(key, keyTokens, candidate.Key)
		if score < m.minScore {
			continue
		}

		if !found || score > best.Score ||
			(score == best.Score && overlap > bestOverlap) ||
			(score == best.Score && overlap == bestOverlap &&
				candidate.LastUpdated.After(best.Candidate.LastUpdated)) {
			best = Result{Candidate: candidate, Score: score}
			bestOverlap = overlap
			found = true
		}
	}

	return best, found
}

// score rates how well a candidate key matches the lookup key. The result
// is the stronger of a containment ratio and a token overlap (Dice)
// coefficient, along with the shared character length used to break ties.
func (m *TokenMatcher) score(key string, keyTokens []string, candidateKey string) (float64, int) {
	containment := containmentScore(key, candidateKey)

	candidateTokens := strings.Fields(candidateKey)
	shared := sharedTokenLength(keyTokens, candidateTokens)

	var dice float64
	if total := tokenLength(keyTokens) + tokenLength(candidateTokens); total > 0 {
		dice = float64(2*shared) / float64(total)
	}

	score := containment
	if dice > score {
		score = dice
	}
	return score, shared
}

// containmentScore rates substring containment: the shorter key's share of
// the longer one when either contains the other, zero otherwise.
func containmentScore(a, b string) float64 {
	shorter, longer := a, b
	if len(shorter) > len(longer) {
		shorter, longer = longer, shorter
	}
	if len(longer) == 0 || !strings.Contains(longer, shorter) {
		return 0
	}
	return float64(len(shorter)) / float64(len(longer))
}

// sharedTokenLength sums the character length of tokens present in both
// keys. Duplicated tokens count once.
func sharedTokenLength(a, b []string) int {
	set := make(map[string]bool, len(a))
	for _, tok := range a {
		set[tok] = true
	}

	var shared int
	for _, tok := range b {
		if set[tok] {
			shared += len(tok)
			set[tok] = false
		}
	}
	return shared
}

func tokenLength(tokens []string) int {
	var total int
	for _, tok := range tokens {
		total += len(tok)
	}
	return total
}
