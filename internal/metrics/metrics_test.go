package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Counters(t *testing.T) {
	m := NewMetrics()
	m.PageFetched("spiegel")
	m.PageFetched("spiegel")
	m.LinksAdded("spiegel", 5)
	m.PageSkipped("spiegel", ReasonTooOld)
	m.SetFrontierDepth("spiegel", 7)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.PagesFetched.WithLabelValues("spiegel")))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.LinksAccepted.WithLabelValues("spiegel")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PagesSkipped.WithLabelValues("spiegel", ReasonTooOld)))
	assert.Equal(t, 7.0, testutil.ToFloat64(m.FrontierDepth.WithLabelValues("spiegel")))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *PrometheusMetrics
	assert.NotPanics(t, func() {
		m.PageFetched("x")
		m.FetchFailed("x")
		m.LinksAdded("x", 1)
		m.RecordEmitted("x")
		m.PageSkipped("x", ReasonNoDate)
		m.SetFrontierDepth("x", 1)
	})
}

func TestMetrics_SeparateRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		NewMetrics()
		NewMetrics()
	})
}
