package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "salarydash"

// Metrics groups the service's Prometheus collectors. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	DatasetLoads  *prometheus.CounterVec
	LoadDuration  prometheus.Histogram
	DatasetRows   prometheus.Gauge
	PipelineCalls *prometheus.CounterVec
	FilteredRows  prometheus.Histogram
	Invalidations prometheus.Counter
}

// New registers every collector with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		DatasetLoads: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dataset_loads_total",
			Help:      "Dataset loads by result.",
		}, []string{"result"}),
		LoadDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "dataset_load_duration_seconds",
			Help:      "Time spent fetching and parsing the dataset.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
		DatasetRows: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dataset_rows",
			Help:      "Rows in the currently loaded dataset.",
		}),
		PipelineCalls: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_requests_total",
			Help:      "Filter and aggregate requests by route.",
		}, []string{"route"}),
		FilteredRows: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "filtered_rows",
			Help:      "Rows surviving the filter per request.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
		}),
		Invalidations: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_invalidations_total",
			Help:      "Explicit dataset cache invalidations.",
		}),
	}
}

func (m *Metrics) ObserveLoad(d time.Duration, rows int, err error) {
	if m == nil {
		return
	}
	m.LoadDuration.Observe(d.Seconds())
	if err != nil {
		m.DatasetLoads.WithLabelValues("error").Inc()
		return
	}
	m.DatasetLoads.WithLabelValues("ok").Inc()
	m.DatasetRows.Set(float64(rows))
}

func (m *Metrics) ObservePipeline(route string, rows int) {
	if m == nil {
		return
	}
	m.PipelineCalls.WithLabelValues(route).Inc()
	m.FilteredRows.Observe(float64(rows))
}

func (m *Metrics) ObserveInvalidation() {
	if m == nil {
		return
	}
	m.Invalidations.Inc()
}
