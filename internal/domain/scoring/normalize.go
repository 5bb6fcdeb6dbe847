package scoring

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Normalize turns raw request items into symptom tokens. Non-string items
// are dropped. Each string is lowercased, stripped of everything but
// letters, digits and whitespace, and trimmed; empty results are dropped.
// Order is preserved and duplicates are kept. The result is never nil.
func Normalize(items []any) []string {
	// A Caser keeps state and is not safe for concurrent use.
	lower := cases.Lower(language.Und)
	out := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			continue
		}
		if token := normalizeToken(lower, s); token != "" {
			out = append(out, token)
		}
	}
	return out
}

// NormalizeStrings is Normalize for callers that already hold strings.
func NormalizeStrings(items []string) []string {
	lower := cases.Lower(language.Und)
	out := make([]string, 0, len(items))
	for _, s := range items {
		if token := normalizeToken(lower, s); token != "" {
			out = append(out, token)
		}
	}
	return out
}

func normalizeToken(lower cases.Caser, s string) string {
	s = lower.String(s)
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsNumber(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}
