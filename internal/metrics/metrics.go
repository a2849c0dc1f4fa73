package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Skip reasons used as the "reason" label of PagesSkipped.
const (
	ReasonIneligible = "ineligible_path"
	ReasonNoDate     = "no_date"
	ReasonBadDate    = "bad_date"
	ReasonTooOld     = "too_old"
	ReasonEmptyBody  = "empty_body"
	ReasonOffsite    = "offsite"
	ReasonDuplicate  = "duplicate"
)

// PrometheusMetrics groups the crawl collectors. A nil *PrometheusMetrics is valid
// and records nothing.
type PrometheusMetrics struct {
	Registry *prometheus.Registry

	PagesFetched   *prometheus.CounterVec
	FetchErrors    *prometheus.CounterVec
	LinksAccepted  *prometheus.CounterVec
	RecordsEmitted *prometheus.CounterVec
	PagesSkipped   *prometheus.CounterVec
	FrontierDepth  *prometheus.GaugeVec
}

func NewMetrics() *PrometheusMetrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &PrometheusMetrics{
		Registry: reg,
		PagesFetched: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "harvest_pages_fetched_total",
				Help: "Total number of pages fetched successfully",
			},
			[]string{"site"},
		),
		FetchErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "harvest_fetch_errors_total",
				Help: "Total number of failed fetches",
			},
			[]string{"site"},
		),
		LinksAccepted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "harvest_links_accepted_total",
				Help: "Total number of new links admitted to the frontier",
			},
			[]string{"site"},
		),
		RecordsEmitted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "harvest_records_emitted_total",
				Help: "Total number of article records emitted",
			},
			[]string{"site"},
		),
		PagesSkipped: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "harvest_pages_skipped_total",
				Help: "Fetched pages that produced no record, by reason",
			},
			[]string{"site", "reason"},
		),
		FrontierDepth: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "harvest_frontier_depth",
				Help: "Current number of URLs waiting in the frontier",
			},
			[]string{"site"},
		),
	}
}

func (m *PrometheusMetrics) PageFetched(site string) {
	if m == nil {
		return
	}
	m.PagesFetched.WithLabelValues(site).Inc()
}

func (m *PrometheusMetrics) FetchFailed(site string) {
	if m == nil {
		return
	}
	m.FetchErrors.WithLabelValues(site).Inc()
}

func (m *PrometheusMetrics) LinksAdded(site string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.LinksAccepted.WithLabelValues(site).Add(float64(n))
}

func (m *PrometheusMetrics) RecordEmitted(site string) {
	if m == nil {
		return
	}
	m.RecordsEmitted.WithLabelValues(site).Inc()
}

func (m *PrometheusMetrics) PageSkipped(site, reason string) {
	if m == nil {
		return
	}
	m.PagesSkipped.WithLabelValues(site, reason).Inc()
}

func (m *PrometheusMetrics) SetFrontierDepth(site string, n int) {
	if m == nil {
		return
	}
	m.FrontierDepth.WithLabelValues(site).Set(float64(n))
}

// Serve exposes /metrics on addr until ctx is done.
func (m *PrometheusMetrics) Serve(ctx context.Context, addr string, slog *zap.SugaredLogger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	slog.Infow("metrics server starting", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
