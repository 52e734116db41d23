package classify

import (
	"strings"

	"github.com/ledgerline/ledgerline/internal/model"
)

// SeedRule is a keyword-based fallback rule used when no learned pattern
// applies. Rules are evaluated in order; the first keyword hit wins, so
// more specific rules must come before broader ones.
type SeedRule struct {
	Name       string
	Category   string
	Keywords   []string
	Confidence float64
}

// DefaultSeedRules returns the built-in fallback rule set. Confidences sit
// below the exact-match 1.0: 0.9 for unambiguous merchants, lower where a
// keyword hit could mean several things.
func DefaultSeedRules() []SeedRule {
	return []SeedRule{
		{
			Name:       "Whole Foods",
			Category:   "Groceries - Whole Foods",
			Keywords:   []string{"WHOLE FOODS", "WHOLEFDS", "WFM"},
			Confidence: 0.9,
		},
		{
			Name:       "Trader Joe's",
			Category:   "Groceries - Trader Joe's",
			Keywords:   []string{"TRADER JOE"},
			Confidence: 0.9,
		},
		{
			Name:     "General grocers",
			Category: "Groceries - Other",
			Keywords: []string{"PUBLIX", "WALMART", "TARGET", "WINN DIXIE", "ALDI"},
			// These stores sell plenty besides groceries.
			Confidence: 0.6,
		},
		{
			Name:       "Coffee",
			Category:   "Dining - Coffee",
			Keywords:   []string{"STARBUCKS", "DUNKIN", "COFFEE", "TATTE", "BLUE BOTTLE"},
			Confidence: 0.9,
		},
		{
			Name:     "Restaurants",
			Category: "Dining - Restaurants",
			Keywords: []string{
				"RESTAURANT", "CHICK-FIL-A", "CHIPOTLE", "PANERA",
				"BURGER", "PIZZA", "SUSHI", "GRILL", "CAFE", "SWEETGREEN",
			},
			Confidence: 0.9,
		},
		{
			Name:     "Travel",
			Category: "Travel",
			Keywords: []string{
				"JETBLUE", "DELTA", "UNITED", "AIRLINE", "HOTEL", "AIRBNB",
			},
			Confidence: 0.9,
		},
		{
			Name:       "Clothing",
			Category:   "Shopping - Clothes",
			Keywords:   []string{"MARSHALLS", "TJ MAXX", "TJMAXX", "NORDSTROM", "MACY"},
			Confidence: 0.9,
		},
		{
			Name:       "Beauty",
			Category:   "Shopping - Beauty",
			Keywords:   []string{"SEPHORA", "ULTA", "SALON", "BEAUTY"},
			Confidence: 0.9,
		},
		{
			Name:       "Home improvement",
			Category:   "Home Supplies",
			Keywords:   []string{"HOME DEPOT", "LOWES", "IKEA", "WAYFAIR"},
			Confidence: 0.9,
		},
		{
			Name:       "Pet stores",
			Category:   "Pet Supplies",
			Keywords:   []string{"CHEWY", "PETSMART", "PETCO", "ROVER"},
			Confidence: 0.9,
		},
		{
			Name:       "Transit",
			Category:   "Transit",
			Keywords:   []string{"MBTA", "TOLL", "PARKING", "METRO", "UBER", "LYFT"},
			Confidence: 0.9,
		},
		{
			Name:       "Gas stations",
			Category:   "Gas",
			Keywords:   []string{"SHELL", "BP#", "EXXON", "CHEVRON", "MOBIL", " GAS "},
			Confidence: 0.9,
		},
		{
			Name:       "Entertainment",
			Category:   "Entertainment",
			Keywords:   []string{"MOVIE", "CINEMA", "SPOTIFY", "NETFLIX", "MUSEUM"},
			Confidence: 0.9,
		},
		{
			Name:       "Amazon Prime",
			Category:   "Subscriptions - Prime",
			Keywords:   []string{"AMAZON PRIME"},
			Confidence: 0.9,
		},
		{
			Name:       "Phone carriers",
			Category:   "Phone Plan",
			Keywords:   []string{"VERIZON", "AT&T", "T-MOBILE"},
			Confidence: 0.9,
		},
		{
			Name:     "Amazon",
			Category: "",
			Keywords: []string{"AMAZON"},
			// Amazon could be anything; surface it for review rather than
			// guessing a category.
			Confidence: 0.3,
		},
	}
}

// matchSeedRules evaluates the rule chain against a raw description.
// Matching is case-insensitive substring search on the raw text, since
// several keywords ("BP#", " GAS ") rely on characters the normalizer
// strips.
func matchSeedRules(rules []SeedRule, raw string) (model.Classification, bool) {
	desc := strings.ToUpper(raw)

	for _, rule := range rules {
		for _, keyword := range rule.Keywords {
			if strings.Contains(desc, keyword) {
				return model.Classification{
					Category:   rule.Category,
					Method:     model.MethodSeedRule,
					Confidence: rule.Confidence,
				}, true
			}
		}
	}

	return model.Classification{}, false
}
