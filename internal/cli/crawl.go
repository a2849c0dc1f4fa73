package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MakeNowJust/heredoc"
	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"newsharvest/internal/config"
	"newsharvest/internal/crawler"
	"newsharvest/internal/domain"
	"newsharvest/internal/metrics"
	"newsharvest/internal/models"
	"newsharvest/internal/requester"
	"newsharvest/internal/rules"
	"newsharvest/internal/service"
	"newsharvest/internal/sink"
)

func newCrawlCmd(a *app) *cobra.Command {
	var siteNames []string

	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Crawl the configured sites and write qualifying articles",
		Example: heredoc.Doc(`
			$ newsharvest crawl
			$ newsharvest crawl --site spiegel --max-results 500 --output-dir ./data
			$ newsharvest crawl --site tonline --format jsonl --timeout 10m > tonline.jsonl
		`),
		RunE: func(c *cobra.Command, args []string) error {
			sites, err := config.Validate(a.cfg)
			if err != nil {
				return err
			}
			sites, err = config.Select(sites, siteNames)
			if err != nil {
				return err
			}
			return a.crawl(c.Context(), sites, c.OutOrStdout(), c.ErrOrStderr())
		},
	}

	f := cmd.Flags()
	f.StringSliceVar(&siteNames, "site", nil, "site to crawl, repeatable (default all configured)")
	f.String("output-dir", "", "directory for <site>.json files")
	f.String("format", "", "output format: json, jsonl or s3")
	f.Int("max-pages", 0, "stop enqueueing after this many urls per site (0 = unlimited)")
	f.Int("max-results", 0, "stop a site after this many records (0 = unlimited)")
	f.Int("max-errors", 0, "stop a site after this many errors (0 = unlimited)")
	f.Duration("timeout", 0, "global timeout per site (0 = none)")
	f.Int("parallelism", 0, "concurrent requests per site")
	f.String("metrics-addr", "", "serve prometheus metrics on this address, e.g. :9190")

	for key, flag := range map[string]string{
		"output.dir":            "output-dir",
		"output.format":         "format",
		"limits.max_pages":      "max-pages",
		"limits.max_results":    "max-results",
		"limits.max_errors":     "max-errors",
		"limits.global_timeout": "timeout",
		"fetch.parallelism":     "parallelism",
		"metrics_addr":          "metrics-addr",
	} {
		_ = a.v.BindPFlag(key, f.Lookup(flag))
	}
	return cmd
}

type siteRun struct {
	site    *rules.Site
	service *service.Service
}

func (a *app) crawl(ctx context.Context, sites []*rules.Site, stdout, stderr io.Writer) error {
	cfg := a.cfg
	slog := a.slog.With("run_id", uuid.NewString())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := metrics.NewMetrics()
	if cfg.MetricsAddr != "" {
		go func() {
			if err := m.Serve(ctx, cfg.MetricsAddr, slog); err != nil {
				slog.Errorf("metrics server: %s", err)
			}
		}()
	}

	// every site streams into the same writer
	var shared *sink.Shared
	if cfg.Output.Format == sink.FormatJSONL {
		shared = sink.NewShared(sink.NewJSONLines(stdout))
	}

	runs := make([]siteRun, 0, len(sites))
	for _, site := range sites {
		srv, err := a.newService(ctx, cfg, site, m, shared, slog)
		if err != nil {
			for _, run := range runs {
				run.service.Abort()
			}
			return fmt.Errorf("site %s: %w", site.Name, err)
		}
		runs = append(runs, siteRun{site: site, service: srv})
	}
	slog.Infow("crawl started", "sites", len(runs), "pid", os.Getpid())

	go watchSignals(ctx, cancel, runs, slog)

	summaries := make([]service.Summary, len(runs))
	errs := make([]error, len(runs))
	var g errgroup.Group
	for i, run := range runs {
		g.Go(func() error {
			summaries[i], errs[i] = run.service.Run(ctx)
			return nil
		})
	}
	_ = g.Wait()

	// tables go to stderr when records are streamed to stdout
	out := stdout
	if cfg.Output.Format == sink.FormatJSONL {
		out = stderr
	}
	renderSummaries(out, summaries)
	return errors.Join(errs...)
}

func (a *app) newService(ctx context.Context, cfg *models.Config, site *rules.Site, m *metrics.PrometheusMetrics, shared *sink.Shared, slog *zap.SugaredLogger) (*service.Service, error) {
	r, err := requester.NewRequester(requester.Options{
		AllowedDomain:    site.AllowedDomain,
		UserAgent:        cfg.Fetch.UserAgent,
		Timeout:          cfg.Fetch.RequestTimeout,
		Parallelism:      cfg.Fetch.Parallelism,
		Delay:            cfg.Fetch.Delay,
		RespectRobotsTxt: cfg.Fetch.RespectRobotsTxt,
		MaxBodySize:      cfg.Fetch.MaxBodySize,
		Transport:        a.transport,
	}, slog)
	if err != nil {
		return nil, fmt.Errorf("requester initialize error: %w", err)
	}
	cr, err := crawler.NewCrawler(r, site, crawler.Config{
		Parallelism: cfg.Fetch.Parallelism,
		MaxPages:    cfg.Limits.MaxPages,
		Metrics:     m,
	}, slog)
	if err != nil {
		return nil, fmt.Errorf("crawler initialize error: %w", err)
	}
	var snk domain.Sink
	if shared != nil {
		snk = shared.Handle()
	} else if snk, err = sink.New(ctx, cfg.Output, site.Name, nil); err != nil {
		return nil, fmt.Errorf("sink initialize error: %w", err)
	}
	srv, err := service.NewService(cfg.Limits, site, cr, snk, slog)
	if err != nil {
		_ = snk.Close()
		return nil, fmt.Errorf("service initialize error: %w", err)
	}
	return srv, nil
}

// watchSignals cancels the run on SIGINT or SIGTERM and logs progress on SIGUSR1.
func watchSignals(ctx context.Context, cancel context.CancelFunc, runs []siteRun, slog *zap.SugaredLogger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGUSR1)
	defer signal.Stop(sigCh)

	for {
		select {
		case <-ctx.Done():
			return
		case s := <-sigCh:
			switch s {
			case syscall.SIGUSR1:
				for _, run := range runs {
					slog.Infow("SIGUSR1", "site", run.site.Name, "state", run.service.State().String(), "stats", run.service.Stats())
				}
			default:
				slog.Infow("shutdown signal", "signal", s.String())
				cancel()
				return
			}
		}
	}
}

func renderSummaries(w io.Writer, summaries []service.Summary) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Site", "Stopped", "Fetched", "Fetch errors", "Records", "Too old", "Date errors", "Visited", "Elapsed"})
	for _, s := range summaries {
		t.AppendRow(table.Row{
			s.Site,
			s.Stopped,
			s.Stats.PagesFetched,
			s.Stats.FetchErrors,
			s.Records,
			s.Stats.SkippedTooOld,
			s.Stats.DateErrors,
			s.Stats.Visited,
			s.Elapsed.Round(time.Millisecond),
		})
	}
	t.Render()
}
