package xref

import "strings"

// Article is a harvested record as read back from a crawl output file.
type Article struct {
	URL     string `json:"url"`
	Content string `json:"content"`
	Date    string `json:"date,omitempty"`
}

// Match is an article that mentions at least one politician and one company.
type Match struct {
	URL         string `json:"url"`
	Content     string `json:"content"`
	Date        string `json:"date,omitempty"`
	Politicians string `json:"politicians"`
	Companies   string `json:"companies"`
}

type Filter struct {
	politicians *Matcher
	companies   *Matcher
}

func NewFilter(politicians, companies []string) *Filter {
	return &Filter{politicians: NewMatcher(politicians), companies: NewMatcher(companies)}
}

// Check reports whether a mentions both lists and returns the enriched record.
func (f *Filter) Check(a Article) (Match, bool) {
	pols := f.politicians.Match(a.Content)
	if len(pols) == 0 {
		return Match{}, false
	}
	comps := f.companies.Match(a.Content)
	if len(comps) == 0 {
		return Match{}, false
	}
	return Match{
		URL:         a.URL,
		Content:     a.Content,
		Date:        a.Date,
		Politicians: strings.Join(pols, ", "),
		Companies:   strings.Join(comps, ", "),
	}, true
}

func (f *Filter) Apply(articles []Article) []Match {
	var out []Match
	for _, a := range articles {
		if m, ok := f.Check(a); ok {
			out = append(out, m)
		}
	}
	return out
}
