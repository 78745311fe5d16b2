package rules

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/gagneet/ledgerflow/internal/common"
)

// MerchantRule maps a description fragment to a canonical counterparty name.
// Patterns are case-insensitive regular expressions; plain text works too.
type MerchantRule struct {
	Pattern string
	Name    string
}

type compiledMerchantRule struct {
	regex *regexp.Regexp
	name  string
}

// Normalizer cleans statement descriptions into canonical counterparty
// names: strip rules remove reference numbers and statement noise, then the
// merchant table is evaluated first-match-wins. Order matters: specific
// identifiers (a particular card number) must precede generic brand patterns
// that would otherwise capture them.
type Normalizer struct {
	strips []*regexp.Regexp
	rules  []compiledMerchantRule
}

// stripPatterns remove trailing statement noise before merchant matching.
// Applied in order to the raw description.
var stripPatterns = []string{
	`Value Date:\s*\d{2}/\d{2}/\d{4}`,
	`- Receipt \d+`,
	`\b(?:Card|Tap and Pay)\s+xx\d+`,
	`\bxx\d{2,4}\b`,
	`\b\d{5,}\b`,
	`\b(?:AUS?|AU)\b\s*$`,
}

// NewNormalizer compiles the strip rules and merchant table. An invalid
// pattern is a configuration error, reported before any batch processing.
func NewNormalizer(rules []MerchantRule) (*Normalizer, error) {
	if len(rules) == 0 {
		return nil, fmt.Errorf("%w: merchant rule table must not be empty", common.ErrInvalidConfig)
	}

	strips := make([]*regexp.Regexp, 0, len(stripPatterns))
	for _, p := range stripPatterns {
		strips = append(strips, regexp.MustCompile(`(?i)`+p))
	}

	compiled := make([]compiledMerchantRule, 0, len(rules))
	for _, r := range rules {
		if r.Pattern == "" || r.Name == "" {
			return nil, fmt.Errorf("%w: merchant rule needs both pattern and name", common.ErrInvalidConfig)
		}
		regex, err := regexp.Compile(`(?i)` + r.Pattern)
		if err != nil {
			return nil, fmt.Errorf("%w: merchant pattern %q: %v", common.ErrInvalidConfig, r.Pattern, err)
		}
		compiled = append(compiled, compiledMerchantRule{regex: regex, name: r.Name})
	}

	return &Normalizer{strips: strips, rules: compiled}, nil
}

// Normalize returns the canonical counterparty name for a raw description.
// When no rule matches it falls back to a title-cased prefix of the cleaned
// text, so every record still gets a usable counterparty.
func (n *Normalizer) Normalize(description string) string {
	cleaned := description
	for _, strip := range n.strips {
		cleaned = strip.ReplaceAllString(cleaned, "")
	}
	cleaned = strings.Join(strings.Fields(cleaned), " ")

	for _, rule := range n.rules {
		if rule.regex.MatchString(cleaned) || rule.regex.MatchString(description) {
			return rule.name
		}
	}

	return fallbackName(cleaned)
}

// fallbackName truncates the cleaned description to its first three words
// and title-cases them.
func fallbackName(cleaned string) string {
	words := strings.Fields(cleaned)
	if len(words) == 0 {
		return "Unknown"
	}
	if len(words) > 3 {
		words = words[:3]
	}
	for i, w := range words {
		words[i] = titleWord(w)
	}
	return strings.Join(words, " ")
}

func titleWord(w string) string {
	lower := strings.ToLower(w)
	r := []rune(lower)
	if len(r) == 0 {
		return w
	}
	return strings.ToUpper(string(r[0])) + string(r[1:])
}

// DefaultMerchantRules returns the built-in merchant table. Specific card
// numbers sit above the brands that would otherwise swallow them.
func DefaultMerchantRules() []MerchantRule {
	return []MerchantRule{
		// Specific identifiers first
		{Pattern: `376011940042008`, Name: "AMEX Business Platinum"},
		{Pattern: `377354019081005`, Name: "AMEX CashBack"},
		{Pattern: `LN REPAY`, Name: "Loan Repayment"},
		{Pattern: `SAI GLOBAL`, Name: "SAI Global"},

		// Brands
		{Pattern: `american express`, Name: "American Express"},
		{Pattern: `woolworths`, Name: "Woolworths"},
		{Pattern: `coles`, Name: "Coles"},
		{Pattern: `bunnings`, Name: "Bunnings"},
		{Pattern: `aldi`, Name: "Aldi"},
		{Pattern: `\biga\b`, Name: "IGA"},
		{Pattern: `costco fuel`, Name: "Costco Fuel"},
		{Pattern: `costco`, Name: "Costco"},
		{Pattern: `ikea`, Name: "IKEA"},
		{Pattern: `kmart`, Name: "Kmart"},
		{Pattern: `target`, Name: "Target"},
		{Pattern: `big w`, Name: "Big W"},
		{Pattern: `myer`, Name: "Myer"},
		{Pattern: `chemist warehouse`, Name: "Chemist Warehouse"},
		{Pattern: `mcdonalds?`, Name: "McDonald's"},
		{Pattern: `guzman y gomez`, Name: "Guzman Y Gomez"},
		{Pattern: `subway`, Name: "Subway"},
		{Pattern: `wilson parking`, Name: "Wilson Parking"},
		{Pattern: `act gov parking`, Name: "ACT Government Parking"},
		{Pattern: `beem`, Name: "Beem It"},
		{Pattern: `origin energy`, Name: "Origin Energy"},
		{Pattern: `uber`, Name: "Uber"},
	}
}
