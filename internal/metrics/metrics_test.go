package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
)

type MetricsTestSuite struct {
	suite.Suite
	registry *prometheus.Registry
	metrics  *Metrics
}

func TestMetricsSuite(t *testing.T) {
	suite.Run(t, new(MetricsTestSuite))
}

func (suite *MetricsTestSuite) SetupTest() {
	suite.registry = prometheus.NewRegistry()
	suite.metrics = NewMetrics(suite.registry)
}

func (suite *MetricsTestSuite) TestObserveAnalysis() {
	suite.metrics.ObserveAnalysis(OutcomeLagFound, 200*time.Millisecond)
	suite.metrics.ObserveAnalysis(OutcomeLagFound, 100*time.Millisecond)
	suite.metrics.ObserveAnalysis(OutcomeNoLag, 50*time.Millisecond)

	suite.Equal(2.0, testutil.ToFloat64(suite.metrics.AnalysesTotal.WithLabelValues(OutcomeLagFound)))
	suite.Equal(1.0, testutil.ToFloat64(suite.metrics.AnalysesTotal.WithLabelValues(OutcomeNoLag)))
	suite.Equal(1, testutil.CollectAndCount(suite.metrics.AnalysisDuration))
}

func (suite *MetricsTestSuite) TestObserveFetch() {
	suite.metrics.ObserveFetch("binance", time.Second, nil)
	suite.metrics.ObserveFetch("binance", time.Second, errors.New("boom"))

	suite.Equal(1.0, testutil.ToFloat64(suite.metrics.FetchErrors.WithLabelValues("binance")))
	suite.Equal(0.0, testutil.ToFloat64(suite.metrics.FetchErrors.WithLabelValues("polygon")))
}

func (suite *MetricsTestSuite) TestObserveCache() {
	suite.metrics.ObserveCache(true)
	suite.metrics.ObserveCache(false)
	suite.metrics.ObserveCache(false)

	suite.Equal(1.0, testutil.ToFloat64(suite.metrics.CacheHits))
	suite.Equal(2.0, testutil.ToFloat64(suite.metrics.CacheMisses))
}

func (suite *MetricsTestSuite) TestSetSelectedLag() {
	suite.metrics.SetSelectedLag("ETH-USD", "AVAX-USD", 3)
	suite.Equal(3.0, testutil.ToFloat64(suite.metrics.SelectedLag.WithLabelValues("ETH-USD", "AVAX-USD")))

	suite.metrics.SetSelectedLag("ETH-USD", "AVAX-USD", -1)
	suite.Equal(-1.0, testutil.ToFloat64(suite.metrics.SelectedLag.WithLabelValues("ETH-USD", "AVAX-USD")))
}

func (suite *MetricsTestSuite) TestNilMetricsIsNoop() {
	var m *Metrics

	suite.NotPanics(func() {
		m.ObserveAnalysis(OutcomeError, time.Second)
		m.ObserveFetch("yahoo", time.Second, nil)
		m.ObserveCache(true)
		m.SetSelectedLag("a", "b", 1)
	})
}

func (suite *MetricsTestSuite) TestDuplicateRegistrationPanics() {
	suite.Panics(func() {
		NewMetrics(suite.registry)
	})
}
