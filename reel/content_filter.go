package reel

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
)

// FilterRule replaces every case-insensitive occurrence of Pattern with Replacement.
type FilterRule struct {
	Pattern     string `json:"pattern"`
	Replacement string `json:"replacement"`
}

// DefaultFilterRules is the built-in word list. Order matters: rules run top to bottom.
// No replacement matches any pattern, so filtering twice is the same as filtering once.
var DefaultFilterRules = []FilterRule{
	{Pattern: "motherfucker", Replacement: "motherf*cker"},
	{Pattern: "fuck", Replacement: "f*ck"},
	{Pattern: "shit", Replacement: "sh*t"},
	{Pattern: "bitch", Replacement: "b*tch"},
	{Pattern: "asshole", Replacement: "a**hole"},
	{Pattern: "bastard", Replacement: "b*stard"},
	{Pattern: "cunt", Replacement: "c*nt"},
	{Pattern: "dick", Replacement: "d*ck"},
	{Pattern: "pussy", Replacement: "p*ssy"},
	{Pattern: "whore", Replacement: "wh*re"},
}

type compiledRule struct {
	re          *regexp.Regexp
	replacement string
}

// ContentFilter is a pure substitution over a fixed, ordered rule list.
// A nil *ContentFilter passes text through unchanged.
type ContentFilter struct {
	rules []compiledRule
}

// NewContentFilter compiles rules in order. Patterns are matched literally.
func NewContentFilter(rules []FilterRule) (*ContentFilter, error) {
	out := make([]compiledRule, 0, len(rules))
	for i, r := range rules {
		if strings.TrimSpace(r.Pattern) == "" {
			return nil, fmt.Errorf("NewContentFilter: rule %d has an empty pattern", i)
		}
		re, err := regexp.Compile("(?i)" + regexp.QuoteMeta(r.Pattern))
		if err != nil {
			return nil, fmt.Errorf("NewContentFilter: rule %d: %w", i, err)
		}
		out = append(out, compiledRule{re: re, replacement: r.Replacement})
	}
	return &ContentFilter{rules: out}, nil
}

// DefaultContentFilter returns a filter over DefaultFilterRules.
func DefaultContentFilter() *ContentFilter {
	f, err := NewContentFilter(DefaultFilterRules)
	if err != nil {
		panic(err)
	}
	return f
}

// Filter applies every rule globally, in order.
func (f *ContentFilter) Filter(text string) string {
	if f == nil {
		return text
	}
	for _, r := range f.rules {
		text = r.re.ReplaceAllLiteralString(text, r.replacement)
	}
	return text
}

// LoadFilterRules reads an ordered JSON array of rules from path.
func LoadFilterRules(path string) ([]FilterRule, error) {
	if path == "" {
		return nil, errors.New("LoadFilterRules: path is empty")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("LoadFilterRules: read: %w", err)
	}
	var rules []FilterRule
	if err := json.Unmarshal(b, &rules); err != nil {
		return nil, fmt.Errorf("LoadFilterRules: unmarshal %s: %w", path, err)
	}
	return rules, nil
}
