package tariff

import (
	"strings"
	"unicode"
)

// Rule é uma linha da tabela de direitos aduaneiros.
type Rule struct {
	Country     string   `json:"country" yaml:"country"`
	Category    string   `json:"category" yaml:"category"`
	Subcategory string   `json:"subcategory" yaml:"subcategory"`
	HSPrefixes  []string `json:"hs" yaml:"hs"`
	Duty        string   `json:"duty" yaml:"duty"`
	Gst         string   `json:"gstRule" yaml:"gstRule"`
}

// RuleSet is an immutable, normalized rule table. The zero value is an empty set.
type RuleSet struct {
	rules []Rule
}

// NewRuleSet normalizes raw rules: text fields trimmed and upper-cased, HS fragments
// reduced to digits with empty ones dropped. The input slice is not retained.
func NewRuleSet(raw []Rule) RuleSet {
	rules := make([]Rule, 0, len(raw))
	for _, r := range raw {
		prefixes := make([]string, 0, len(r.HSPrefixes))
		for _, h := range r.HSPrefixes {
			if d := Digits(h); d != "" {
				prefixes = append(prefixes, d)
			}
		}
		rules = append(rules, Rule{
			Country:     normalize(r.Country),
			Category:    normalize(r.Category),
			Subcategory: normalize(r.Subcategory),
			HSPrefixes:  prefixes,
			Duty:        normalize(r.Duty),
			Gst:         normalize(r.Gst),
		})
	}
	return RuleSet{rules: rules}
}

func (s RuleSet) Len() int { return len(s.rules) }

// Rules returns a copy of the normalized rules.
func (s RuleSet) Rules() []Rule {
	out := make([]Rule, len(s.rules))
	for i, r := range s.rules {
		out[i] = r.clone()
	}
	return out
}

// Match returns the rule for country whose longest matching HS prefix is the longest
// overall. Ties keep table order.
func (s RuleSet) Match(country, hsCode string) (Rule, bool) {
	country = normalize(country)
	hs := Digits(hsCode)
	if hs == "" {
		return Rule{}, false
	}

	best, bestLen := -1, 0
	for i, r := range s.rules {
		if r.Country != country {
			continue
		}
		if n := longestPrefix(hs, r.HSPrefixes); n > bestLen {
			best, bestLen = i, n
		}
	}
	if best < 0 {
		return Rule{}, false
	}
	return s.rules[best].clone(), true
}

func longestPrefix(hs string, prefixes []string) int {
	n := 0
	for _, p := range prefixes {
		if len(p) > n && strings.HasPrefix(hs, p) {
			n = len(p)
		}
	}
	return n
}

func (r Rule) clone() Rule {
	r.HSPrefixes = append([]string(nil), r.HSPrefixes...)
	return r
}

// Digits strips every non-digit character.
func Digits(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}

func normalize(s string) string {
	return strings.ToUpper(strings.TrimFunc(s, unicode.IsSpace))
}
