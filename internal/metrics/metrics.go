package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Analysis outcomes used as the outcome label.
const (
	OutcomeLagFound      = "lag_found"
	OutcomeNoLag         = "no_lag"
	OutcomeInsufficient  = "insufficient_data"
	OutcomeUpstreamError = "upstream_error"
	OutcomeError         = "error"
)

// Metrics holds the Prometheus collectors for analyses and market-data fetches.
type Metrics struct {
	AnalysesTotal    *prometheus.CounterVec   // labels: outcome
	AnalysisDuration prometheus.Histogram
	FetchDuration    *prometheus.HistogramVec // labels: provider
	FetchErrors      *prometheus.CounterVec   // labels: provider
	CacheHits        prometheus.Counter
	CacheMisses      prometheus.Counter
	SelectedLag      *prometheus.GaugeVec // labels: anchor, target
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg registers with the default Prometheus registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		AnalysesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pairwise_analyses_total",
			Help: "Total lag analyses run, by outcome",
		}, []string{"outcome"}),
		AnalysisDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "pairwise_analysis_duration_seconds",
			Help:    "Wall time of one analysis including fetches",
			Buckets: prometheus.DefBuckets,
		}),
		FetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pairwise_fetch_duration_seconds",
			Help:    "Price series fetch latency, by provider",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"provider"}),
		FetchErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pairwise_fetch_errors_total",
			Help: "Failed price series fetches, by provider",
		}, []string{"provider"}),
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pairwise_fetch_cache_hits_total",
			Help: "Price series served from the fetch cache",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pairwise_fetch_cache_misses_total",
			Help: "Price series not found in the fetch cache",
		}),
		SelectedLag: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "pairwise_selected_lag_bars",
			Help: "Last selected lag per pair, -1 when no lag cleared the threshold",
		}, []string{"anchor", "target"}),
	}

	reg.MustRegister(
		m.AnalysesTotal,
		m.AnalysisDuration,
		m.FetchDuration,
		m.FetchErrors,
		m.CacheHits,
		m.CacheMisses,
		m.SelectedLag,
	)

	return m
}

// ObserveAnalysis records one finished analysis.
func (m *Metrics) ObserveAnalysis(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}

	m.AnalysesTotal.WithLabelValues(outcome).Inc()
	m.AnalysisDuration.Observe(elapsed.Seconds())
}

// ObserveFetch records one provider fetch.
func (m *Metrics) ObserveFetch(provider string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}

	m.FetchDuration.WithLabelValues(provider).Observe(elapsed.Seconds())

	if err != nil {
		m.FetchErrors.WithLabelValues(provider).Inc()
	}
}

// ObserveCache records a fetch cache lookup.
func (m *Metrics) ObserveCache(hit bool) {
	if m == nil {
		return
	}

	if hit {
		m.CacheHits.Inc()

		return
	}

	m.CacheMisses.Inc()
}

// SetSelectedLag records the lag picked for a pair. lag < 0 means none.
func (m *Metrics) SetSelectedLag(anchor, target string, lag int) {
	if m == nil {
		return
	}

	m.SelectedLag.WithLabelValues(anchor, target).Set(float64(lag))
}
