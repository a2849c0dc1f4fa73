package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"newsharvest/internal/domain"
	"newsharvest/internal/models"
	"newsharvest/internal/rules"
)

// Stop reasons reported in Summary.
const (
	StopFinished   = "finished"
	StopMaxResults = "max_results"
	StopMaxErrors  = "max_errors"
	StopTimeout    = "timeout"
	StopCancelled  = "cancelled"
	StopSinkError  = "sink_error"
)

var (
	errIncorrectCrawler = errors.New("crawler is required")
	errIncorrectSink    = errors.New("sink is required")
	errIncorrectSite    = errors.New("site is required")
)

// Summary describes one finished run of a site.
type Summary struct {
	Site    string
	Records int
	Errors  int
	Stopped string
	Elapsed time.Duration
	Stats   models.CrawlStats
}

type Service struct {
	config  models.LimitsConfig
	site    *rules.Site
	crawler domain.Crawler
	sink    domain.Sink
	slog    *zap.SugaredLogger
}

func NewService(cfg models.LimitsConfig, site *rules.Site, cr domain.Crawler, sink domain.Sink, slog *zap.SugaredLogger) (*Service, error) {
	if site == nil {
		return nil, errIncorrectSite
	}
	if cr == nil {
		return nil, errIncorrectCrawler
	}
	if sink == nil {
		return nil, errIncorrectSink
	}
	if slog == nil {
		slog = zap.NewNop().Sugar()
	}
	return &Service{config: cfg, site: site, crawler: cr, sink: sink, slog: slog.With("site", site.Name)}, nil
}

// Run crawls the site until its frontier is drained, a limit is hit or ctx ends,
// writing every record to the sink. The sink is closed before Run returns.
// Reaching a limit, the global timeout or cancellation is not an error.
func (s *Service) Run(ctx context.Context) (Summary, error) {
	var cancel context.CancelFunc
	if s.config.GlobalTimeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, s.config.GlobalTimeout)
	} else {
		ctx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	start := time.Now()
	scanErr := make(chan error, 1)
	go func() {
		scanErr <- s.crawler.Scan(ctx, s.site.StartURLs)
	}()

	sum, sinkErr := processResult(ctx, cancel, s.crawler, s.sink, s.config, s.slog)
	err := <-scanErr

	sum.Site = s.site.Name
	sum.Elapsed = time.Since(start)
	sum.Stats = s.crawler.Stats()

	if cerr := s.sink.Close(); cerr != nil {
		s.slog.Errorf("can't close sink: %s", cerr)
		if sinkErr == nil {
			sinkErr = fmt.Errorf("close sink: %w", cerr)
		}
	}
	if sinkErr != nil {
		sum.Stopped = StopSinkError
		return sum, sinkErr
	}

	switch {
	case sum.Stopped != "":
	case errors.Is(err, context.DeadlineExceeded):
		sum.Stopped = StopTimeout
	case errors.Is(err, context.Canceled):
		sum.Stopped = StopCancelled
	case err != nil:
		return sum, fmt.Errorf("scan %s: %w", s.site.Name, err)
	default:
		sum.Stopped = StopFinished
	}
	s.slog.Infow("crawl run done", "stopped", sum.Stopped, "records", sum.Records, "errors", sum.Errors, "elapsed", sum.Elapsed)
	return sum, nil
}

// Abort closes the sink of a service that will never Run.
func (s *Service) Abort() {
	if err := s.sink.Close(); err != nil {
		s.slog.Warnf("can't close sink: %s", err)
	}
}

func (s *Service) State() models.CrawlState {
	return s.crawler.State()
}

func (s *Service) Stats() models.CrawlStats {
	return s.crawler.Stats()
}

// processResult drains the crawler channel until it is closed. After a limit is
// reached the crawl is cancelled and remaining results are dropped.
func processResult(ctx context.Context, cancel func(), cr domain.Crawler, sink domain.Sink, cfg models.LimitsConfig, slog *zap.SugaredLogger) (Summary, error) {
	var (
		sum     Summary
		sinkErr error
	)
	for msg := range cr.ChanResult() {
		if sum.Stopped != "" {
			continue
		}
		if msg.Err != nil {
			sum.Errors++
			slog.Warnf("crawler result return err: %s", msg.Err.Error())
			if cfg.MaxErrors > 0 && sum.Errors >= cfg.MaxErrors {
				slog.Errorw("crawler max errors", "errors", sum.Errors)
				sum.Stopped = StopMaxErrors
				cancel()
			}
			continue
		}
		if msg.Record == nil {
			continue
		}
		if err := sink.Write(ctx, *msg.Record); err != nil {
			slog.Errorf("can't write record %s: %s", msg.URL, err)
			sinkErr = fmt.Errorf("write %s: %w", msg.URL, err)
			sum.Stopped = StopSinkError
			cancel()
			continue
		}
		sum.Records++
		slog.Debugf("crawler result: [url: %s] date: %s", msg.URL, msg.Record.Date)
		if cfg.MaxResults > 0 && sum.Records >= cfg.MaxResults {
			slog.Infow("crawler max results", "records", sum.Records)
			sum.Stopped = StopMaxResults
			cancel()
		}
	}
	return sum, sinkErr
}
