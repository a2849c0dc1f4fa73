package requester

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	colly "github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"newsharvest/internal/domain"
	"newsharvest/internal/page"
)

var (
	errIncorrectTimeout     = errors.New("incorrect timeout value, should be > 0")
	errIncorrectParallelism = errors.New("incorrect parallelism value, should be > 0")
	errIncorrectUserAgent   = errors.New("user agent is required")
	errIncorrectDomain      = errors.New("allowed domain is required")
	errNoResponse           = errors.New("no response received")
)

type Options struct {
	AllowedDomain    string
	UserAgent        string
	Timeout          time.Duration
	Parallelism      int
	Delay            time.Duration
	RespectRobotsTxt bool
	MaxBodySize      int

	// Transport replaces the HTTP transport, mainly for tests.
	Transport http.RoundTripper
}

type requester struct {
	collector *colly.Collector
	slog      *zap.SugaredLogger
}

// NewRequester builds a colly-backed fetcher that stays on opts.AllowedDomain and
// its subdomains. Concurrency across all callers is bounded by opts.Parallelism.
func NewRequester(opts Options, slog *zap.SugaredLogger) (*requester, error) {
	if opts.Timeout <= 0 {
		return nil, errIncorrectTimeout
	}
	if strings.TrimSpace(opts.AllowedDomain) == "" {
		return nil, errIncorrectDomain
	}
	if opts.Parallelism < 1 {
		return nil, errIncorrectParallelism
	}
	if strings.TrimSpace(opts.UserAgent) == "" {
		return nil, errIncorrectUserAgent
	}
	if slog == nil {
		slog = zap.NewNop().Sugar()
	}

	collectorOpts := []colly.CollectorOption{
		colly.UserAgent(opts.UserAgent),
		colly.URLFilters(domainFilter(opts.AllowedDomain)),
		// the frontier decides what gets fetched twice, not the collector
		colly.AllowURLRevisit(),
	}
	if opts.MaxBodySize > 0 {
		collectorOpts = append(collectorOpts, colly.MaxBodySize(opts.MaxBodySize))
	}
	c := colly.NewCollector(collectorOpts...)
	c.IgnoreRobotsTxt = !opts.RespectRobotsTxt
	c.SetRequestTimeout(opts.Timeout)
	if opts.Transport != nil {
		c.WithTransport(opts.Transport)
	}
	if err := c.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: opts.Parallelism,
		Delay:       opts.Delay,
	}); err != nil {
		return nil, fmt.Errorf("failed to set rate limit: %w", err)
	}

	return &requester{collector: c, slog: slog}, nil
}

// domainFilter matches http(s) URLs on domain or any of its subdomains.
func domainFilter(domain string) *regexp.Regexp {
	d := regexp.QuoteMeta(strings.ToLower(strings.TrimSpace(domain)))
	return regexp.MustCompile(`^https?://([^/?#@]+\.)?` + d + `(:\d+)?([/?#]|$)`)
}

func (r *requester) Get(ctx context.Context, url string) (domain.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, &domain.FetchError{URL: url, Err: err}
	}

	c := r.collector.Clone()
	c.Context = ctx

	var (
		p      domain.Page
		status int
		errRes error
	)
	c.OnResponse(func(resp *colly.Response) {
		status = resp.StatusCode
		finalURL := resp.Request.URL.String()
		p, errRes = page.NewPage(finalURL, bytes.NewReader(resp.Body), r.slog)
		if errRes != nil {
			r.slog.Debugf("can't create page: %s", errRes)
		}
	})
	c.OnError(func(resp *colly.Response, err error) {
		if resp != nil {
			status = resp.StatusCode
		}
		errRes = err
	})

	if err := c.Visit(url); err != nil {
		if errors.Is(err, colly.ErrNoURLFiltersMatch) {
			return nil, &domain.FetchError{URL: url, Err: domain.ErrOffsite}
		}
		r.slog.Debugf("http transport error: %s", err)
		return nil, &domain.FetchError{URL: url, Status: status, Err: err}
	}
	if errRes != nil {
		return nil, &domain.FetchError{URL: url, Status: status, Err: errRes}
	}
	if p == nil {
		return nil, &domain.FetchError{URL: url, Err: errNoResponse}
	}
	return p, nil
}
