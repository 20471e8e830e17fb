package utils

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "housetrades"

// Metrics holds the collectors exported on /metrics. Each instance owns its
// registry so tests can build as many as they need.
type Metrics struct {
	Registry          *prometheus.Registry
	UnknownBuckets    prometheus.Counter
	QueryRetries      *prometheus.CounterVec
	QueryFailures     *prometheus.CounterVec
	IngestedRecords   *prometheus.CounterVec
	FailedTickers     *prometheus.CounterVec
	IngestionDuration *prometheus.HistogramVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		UnknownBuckets: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "unknown_amount_bucket_total",
			Help:      "Ingested transactions whose amount did not match a disclosure range and are valued at zero.",
		}),
		QueryRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "query_retries_total",
			Help:      "Dashboard queries retried after reconnecting to the database.",
		}, []string{"query"}),
		QueryFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "query_failures_total",
			Help:      "Dashboard queries that returned an empty result after failing.",
		}, []string{"query"}),
		IngestedRecords: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "ingested_records_total",
			Help:      "Records written by ingestion runs.",
		}, []string{"kind"}),
		FailedTickers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "ingestion_failed_tickers_total",
			Help:      "Tickers whose prices or details could not be fetched.",
		}, []string{"kind"}),
		IngestionDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "ingestion_duration_seconds",
			Help:      "Duration of ingestion runs.",
			Buckets:   []float64{1, 5, 15, 60, 300, 900, 1800, 3600, 7200},
		}, []string{"kind", "status"}),
	}
	m.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.UnknownBuckets,
		m.QueryRetries,
		m.QueryFailures,
		m.IngestedRecords,
		m.FailedTickers,
		m.IngestionDuration,
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
