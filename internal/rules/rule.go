// Package rules turns a site's extraction configuration into an immutable Rule
// that pulls candidate links, the publication date and the body text out of a
// fetched page.
package rules

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"newsharvest/internal/domain"
	"newsharvest/internal/models"
	"newsharvest/internal/selector"
)

var (
	errNoDateSelector = errors.New("date selector is required")
	errNoDateLayouts  = errors.New("at least one date layout is required")
	errNoBodySelector = errors.New("body selector is required")
)

// DateFormatError is returned when a date string was found on a page but does not
// parse under any of the site's layouts.
type DateFormatError struct {
	Raw     string
	Layouts []string
}

func (e *DateFormatError) Error() string {
	return fmt.Sprintf("date %q does not match layouts %q", e.Raw, e.Layouts)
}

type Rule struct {
	frontPageLinks  selector.Selector
	links           selector.Selector
	date            selector.Selector
	datePattern     *regexp.Regexp
	dateLayouts     []string
	body            selector.Selector
	excludeLinks    []string
	ineligiblePaths []string
}

// Compile validates cfg and compiles its selectors and pattern.
func Compile(cfg models.RuleConfig) (*Rule, error) {
	if strings.TrimSpace(cfg.DateSelector) == "" {
		return nil, errNoDateSelector
	}
	if len(cfg.DateLayouts) == 0 {
		return nil, errNoDateLayouts
	}
	if strings.TrimSpace(cfg.BodySelector) == "" {
		return nil, errNoBodySelector
	}

	r := &Rule{
		dateLayouts:     append([]string(nil), cfg.DateLayouts...),
		excludeLinks:    nonEmpty(cfg.ExcludeLinks),
		ineligiblePaths: nonEmpty(cfg.IneligiblePaths),
	}
	var err error
	if cfg.FrontPageLinkSelector != "" {
		if r.frontPageLinks, err = selector.Compile(cfg.FrontPageLinkSelector); err != nil {
			return nil, fmt.Errorf("front page link selector: %w", err)
		}
	}
	if strings.TrimSpace(cfg.LinkSelector) != "" {
		if r.links, err = selector.Compile(cfg.LinkSelector); err != nil {
			return nil, fmt.Errorf("link selector: %w", err)
		}
	}
	if r.date, err = selector.Compile(cfg.DateSelector); err != nil {
		return nil, fmt.Errorf("date selector: %w", err)
	}
	if r.body, err = selector.Compile(cfg.BodySelector); err != nil {
		return nil, fmt.Errorf("body selector: %w", err)
	}
	if cfg.DatePattern != "" {
		if r.datePattern, err = regexp.Compile(cfg.DatePattern); err != nil {
			return nil, fmt.Errorf("date pattern: %w", err)
		}
	}
	return r, nil
}

func nonEmpty(in []string) []string {
	var out []string
	for _, s := range in {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// DateSelector returns the source expression of the date selector.
func (r *Rule) DateSelector() string {
	return r.date.String()
}

// CandidateLinks resolves every selected href against the page and drops the
// ones matching the exclusion list. Front pages use the front page selector
// when the rule has one. Without a link selector every anchor href is a candidate.
func (r *Rule) CandidateLinks(p domain.Page, frontPage bool) []string {
	sel := r.links
	if frontPage && !r.frontPageLinks.IsZero() {
		sel = r.frontPageLinks
	}
	hrefs := p.GetLinks()
	if !sel.IsZero() {
		hrefs = p.Select(sel)
	}
	var out []string
	for _, href := range hrefs {
		abs, err := p.Resolve(href)
		if err != nil {
			continue
		}
		if r.IsExcludedLink(abs) {
			continue
		}
		out = append(out, abs)
	}
	return out
}

func (r *Rule) IsExcludedLink(url string) bool {
	return containsAny(url, r.excludeLinks)
}

// IsEligible reports whether date and body extraction should be attempted for
// the page at url at all.
func (r *Rule) IsEligible(url string) bool {
	return !containsAny(url, r.ineligiblePaths)
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// ExtractDate returns the first date token found on the page. With a date pattern
// the first selected string matching it wins and its first group (or the whole
// match) is returned.
func (r *Rule) ExtractDate(p domain.Page) (string, bool) {
	for _, candidate := range p.Select(r.date) {
		if r.datePattern == nil {
			if s := strings.TrimSpace(candidate); s != "" {
				return s, true
			}
			continue
		}
		m := r.datePattern.FindStringSubmatch(candidate)
		switch {
		case len(m) > 1:
			return m[1], true
		case len(m) == 1:
			return m[0], true
		}
	}
	return "", false
}

// ParseDate parses raw with the site's layouts. The wall clock of the string is
// taken as UTC: a zone offset in raw is accepted but discarded.
func (r *Rule) ParseDate(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	for _, layout := range r.dateLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC), nil
	}
	return time.Time{}, &DateFormatError{Raw: raw, Layouts: r.dateLayouts}
}

// ExtractBody returns the body text fragments in document order.
func (r *Rule) ExtractBody(p domain.Page) []string {
	return p.Select(r.body)
}

// JoinBody trims each fragment, drops empty ones and joins the rest with a
// single space.
func JoinBody(fragments []string) string {
	parts := make([]string, 0, len(fragments))
	for _, f := range fragments {
		if f = strings.TrimSpace(f); f != "" {
			parts = append(parts, f)
		}
	}
	return strings.Join(parts, " ")
}
