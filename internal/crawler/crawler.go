package crawler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"newsharvest/internal/domain"
	"newsharvest/internal/frontier"
	"newsharvest/internal/metrics"
	"newsharvest/internal/models"
	"newsharvest/internal/rules"
)

var (
	errIncorrectRequester   = errors.New("requester is required")
	errIncorrectSite        = errors.New("site is required")
	errIncorrectParallelism = errors.New("incorrect parallelism value, should be > 0")
	errAlreadyScanned       = errors.New("crawler already scanned")
	errNoSeeds              = errors.New("at least one seed url is required")
)

// Config tunes one crawler. MaxPages of zero means no page cap.
type Config struct {
	Parallelism int
	MaxPages    int
	Metrics     *metrics.PrometheusMetrics
}

type fetchResult struct {
	url  string
	page domain.Page
	err  error
}

type crawler struct {
	r           domain.Requester
	site        *rules.Site
	res         chan models.CrawlResult
	parallelism int
	maxPages    int
	metrics     *metrics.PrometheusMetrics
	slog        *zap.SugaredLogger

	state   atomic.Int32
	scanned atomic.Bool

	mu       sync.RWMutex
	stats    models.CrawlStats
	frontier frontier.Frontier
	seeds    map[string]struct{}
}

func NewCrawler(r domain.Requester, site *rules.Site, cfg Config, slog *zap.SugaredLogger) (*crawler, error) {
	if r == nil {
		return nil, errIncorrectRequester
	}
	if site == nil || site.Rule == nil {
		return nil, errIncorrectSite
	}
	if cfg.Parallelism < 1 {
		return nil, errIncorrectParallelism
	}
	if slog == nil {
		slog = zap.NewNop().Sugar()
	}

	return &crawler{
		r:           r,
		site:        site,
		res:         make(chan models.CrawlResult),
		parallelism: cfg.Parallelism,
		maxPages:    cfg.MaxPages,
		metrics:     cfg.Metrics,
		slog:        slog.With("site", site.Name),
	}, nil
}

// Scan seeds a fresh frontier and drains it. Up to parallelism fetches are in
// flight at once, but every page is processed on the calling goroutine, so the
// frontier only ever sees one writer. Results are published on ChanResult, which
// is closed when Scan returns. Scan returns ctx.Err() when cancelled.
func (c *crawler) Scan(ctx context.Context, seeds []string) error {
	if !c.scanned.CompareAndSwap(false, true) {
		return errAlreadyScanned
	}
	defer close(c.res)
	defer c.setState(models.StateDone)

	if len(seeds) == 0 {
		return errNoSeeds
	}

	c.setState(models.StateSeeding)
	fr := frontier.WithLimit(frontier.NewMemory(), c.maxPages)
	if err := fr.Seed(seeds); err != nil {
		return err
	}
	c.mu.Lock()
	c.frontier = fr
	c.seeds = make(map[string]struct{}, len(seeds))
	for _, s := range seeds {
		c.seeds[s] = struct{}{}
	}
	c.mu.Unlock()
	c.slog.Infow("crawl seeded", "seeds", seeds, "threshold", c.site.Threshold)

	c.setState(models.StateDraining)
	results := make(chan fetchResult, c.parallelism)
	inflight := 0
	for {
		for inflight < c.parallelism && ctx.Err() == nil {
			next, ok := fr.Take()
			if !ok {
				break
			}
			inflight++
			go func(u string) {
				p, err := c.r.Get(ctx, u)
				results <- fetchResult{url: u, page: p, err: err}
			}(next)
		}
		c.metrics.SetFrontierDepth(c.site.Name, fr.Len())

		if ctx.Err() != nil {
			c.slog.Infow("crawl cancelled", "in_flight", inflight, "pending", fr.Len())
			return ctx.Err()
		}
		if inflight == 0 {
			c.slog.Infow("crawl finished", "stats", c.Stats())
			return nil
		}

		select {
		case <-ctx.Done():
			continue
		case res := <-results:
			inflight--
			if ctx.Err() != nil {
				continue
			}
			c.handle(ctx, fr, res)
		}
	}
}

func (c *crawler) handle(ctx context.Context, fr frontier.Frontier, res fetchResult) {
	if res.err != nil || res.page == nil {
		err := res.err
		if err == nil {
			err = &domain.FetchError{URL: res.url, Err: errors.New("empty response")}
		}
		if errors.Is(err, domain.ErrOffsite) {
			c.skip(metrics.ReasonOffsite, func(s *models.CrawlStats) { s.SkippedOffsite++ })
			return
		}
		c.update(func(s *models.CrawlStats) { s.FetchErrors++ })
		c.metrics.FetchFailed(c.site.Name)
		c.slog.Debugf("can't get page %s: %s", res.url, err)
		c.publish(ctx, models.CrawlResult{URL: res.url, Err: err})
		return
	}
	c.update(func(s *models.CrawlStats) { s.PagesFetched++ })
	c.metrics.PageFetched(c.site.Name)

	c.processPage(ctx, fr, res.url, res.page)
}

// processPage runs the per-page protocol. Link discovery always happens first so
// pages that are too old or on excluded paths still feed the frontier.
func (c *crawler) processPage(ctx context.Context, fr frontier.Frontier, requested string, p domain.Page) {
	rule := c.site.Rule
	pageURL := p.URL()

	// a redirect target is visited too; if it was already known the page is
	// handled through that URL
	if pageURL != requested && !fr.MarkVisited(pageURL) {
		c.skip(metrics.ReasonDuplicate, func(s *models.CrawlStats) { s.SkippedDuplicate++ })
		c.slog.Debugw("redirect to known url", "requested", requested, "url", pageURL)
		return
	}

	links := rule.CandidateLinks(p, c.isFrontPage(requested))
	accepted := 0
	for _, link := range links {
		if fr.Offer(link) {
			accepted++
		}
	}
	c.update(func(s *models.CrawlStats) {
		s.LinksOffered += len(links)
		s.LinksAccepted += accepted
	})
	c.metrics.LinksAdded(c.site.Name, accepted)
	c.slog.Debugw("page processed", "url", pageURL, "links", len(links), "new", accepted)

	if !rule.IsEligible(pageURL) {
		c.skip(metrics.ReasonIneligible, func(s *models.CrawlStats) { s.SkippedPath++ })
		return
	}

	raw, ok := rule.ExtractDate(p)
	if !ok {
		c.skip(metrics.ReasonNoDate, func(s *models.CrawlStats) { s.SkippedNoDate++ })
		return
	}

	published, err := rule.ParseDate(raw)
	if err != nil {
		c.skip(metrics.ReasonBadDate, func(s *models.CrawlStats) { s.DateErrors++ })
		c.slog.Warnw("unparseable article date", "url", pageURL, "date", raw, "error", err)
		c.publish(ctx, models.CrawlResult{URL: pageURL, Err: err})
		return
	}
	if published.Before(c.site.Threshold) {
		c.skip(metrics.ReasonTooOld, func(s *models.CrawlStats) { s.SkippedTooOld++ })
		return
	}

	content := rules.JoinBody(rule.ExtractBody(p))
	if content == "" {
		c.skip(metrics.ReasonEmptyBody, func(s *models.CrawlStats) { s.SkippedEmptyBody++ })
		return
	}

	c.update(func(s *models.CrawlStats) { s.RecordsEmitted++ })
	c.metrics.RecordEmitted(c.site.Name)
	c.publish(ctx, models.CrawlResult{
		URL:    pageURL,
		Record: &models.ArticleRecord{URL: pageURL, Content: content, Date: raw},
	})
}

func (c *crawler) isFrontPage(requested string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.seeds[requested]
	return ok
}

func (c *crawler) skip(reason string, count func(s *models.CrawlStats)) {
	c.update(count)
	c.metrics.PageSkipped(c.site.Name, reason)
}

func (c *crawler) publish(ctx context.Context, r models.CrawlResult) {
	select {
	case c.res <- r:
	case <-ctx.Done():
	}
}

func (c *crawler) update(f func(s *models.CrawlStats)) {
	c.mu.Lock()
	f(&c.stats)
	c.mu.Unlock()
}

func (c *crawler) setState(s models.CrawlState) {
	c.state.Store(int32(s))
}

func (c *crawler) ChanResult() <-chan models.CrawlResult {
	return c.res
}

func (c *crawler) State() models.CrawlState {
	return models.CrawlState(c.state.Load())
}

// Stats returns a snapshot of the run's counters. Safe to call from any goroutine.
func (c *crawler) Stats() models.CrawlStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s := c.stats
	if c.frontier != nil {
		s.Pending = c.frontier.Len()
		s.Visited = c.frontier.Visited()
	}
	return s
}
