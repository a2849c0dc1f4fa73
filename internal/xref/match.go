package xref

import (
	"regexp"
	"strings"
)

const (
	wordBefore = `(?i)(?:^|[^\p{L}\p{N}_])`
	wordAfter  = `(?:$|[^\p{L}\p{N}_])`
)

type pattern struct {
	name string
	re   *regexp.Regexp
}

// Matcher finds whole-word, case-insensitive occurrences of a fixed list of names.
// Letters include umlauts, so "Müller" does not match inside "Müllers".
type Matcher struct {
	patterns []pattern
}

func NewMatcher(names []string) *Matcher {
	m := &Matcher{}
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		key := strings.ToLower(n)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		m.patterns = append(m.patterns, pattern{
			name: n,
			re:   regexp.MustCompile(wordBefore + regexp.QuoteMeta(n) + wordAfter),
		})
	}
	return m
}

func (m *Matcher) Len() int {
	return len(m.patterns)
}

// Match returns the names found in content, in list order.
func (m *Matcher) Match(content string) []string {
	var found []string
	for _, p := range m.patterns {
		if p.re.MatchString(content) {
			found = append(found, p.name)
		}
	}
	return found
}
