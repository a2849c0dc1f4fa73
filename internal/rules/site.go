package rules

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"newsharvest/internal/models"
)

var (
	errNoSiteName     = errors.New("site name is required")
	errNoStartURLs    = errors.New("at least one start url is required")
	errBadStartURL    = errors.New("start url must be an absolute http(s) url")
	errBadThreshold   = errors.New("threshold must be RFC 3339 or YYYY-MM-DD")
	errNoAllowedHosts = errors.New("allowed domain is required")
)

// Site is the compiled, read-only configuration of one crawl target.
type Site struct {
	Name          string
	AllowedDomain string
	StartURLs     []string
	Threshold     time.Time
	Rule          *Rule
}

// CompileSite validates cfg. Every error here is a startup error: nothing has
// been fetched yet.
func CompileSite(cfg models.SiteConfig) (*Site, error) {
	if strings.TrimSpace(cfg.Name) == "" {
		return nil, errNoSiteName
	}
	if strings.TrimSpace(cfg.AllowedDomain) == "" {
		return nil, fmt.Errorf("site %s: %w", cfg.Name, errNoAllowedHosts)
	}
	if len(cfg.StartURLs) == 0 {
		return nil, fmt.Errorf("site %s: %w", cfg.Name, errNoStartURLs)
	}
	for _, s := range cfg.StartURLs {
		u, err := url.Parse(s)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return nil, fmt.Errorf("site %s: %w: %q", cfg.Name, errBadStartURL, s)
		}
	}
	threshold, err := ParseThreshold(cfg.Threshold)
	if err != nil {
		return nil, fmt.Errorf("site %s: %w", cfg.Name, err)
	}
	rule, err := Compile(cfg.Rule)
	if err != nil {
		return nil, fmt.Errorf("site %s: %w", cfg.Name, err)
	}
	return &Site{
		Name:          cfg.Name,
		AllowedDomain: strings.ToLower(strings.TrimSpace(cfg.AllowedDomain)),
		StartURLs:     append([]string(nil), cfg.StartURLs...),
		Threshold:     threshold,
		Rule:          rule,
	}, nil
}

// ParseThreshold accepts an RFC 3339 instant or a bare date, taken as UTC midnight.
func ParseThreshold(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("%w: %q", errBadThreshold, s)
}
