// Package metrics holds the process-wide prometheus collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	SourceLoads = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "iqm_source_loads_total",
		Help: "Source artifact loads by kind and outcome",
	}, []string{"kind", "outcome"})
	SourceLoadSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "iqm_source_load_seconds",
		Help:    "Time to fetch and decode a source artifact",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
	}, []string{"kind"})
	DatasetBuilds = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "iqm_dataset_builds_total",
		Help: "Dataset load-and-join runs by outcome",
	}, []string{"outcome"})
	DatasetRegions = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "iqm_dataset_joined_regions",
		Help: "Regions in the current dataset snapshot",
	})
	DatasetUnmatched = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "iqm_dataset_unmatched_rows",
		Help: "Rows dropped by the join in the current snapshot",
	}, []string{"side"})
	CacheLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "iqm_cache_lookups_total",
		Help: "Dataset cache lookups by result",
	}, []string{"result"})
	SourceCacheLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "iqm_source_cache_lookups_total",
		Help: "Redis source byte cache lookups by result",
	}, []string{"result"})
	Selections = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "iqm_selections_total",
		Help: "View requests by operation and outcome",
	}, []string{"op", "outcome"})
	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "iqm_http_requests_total",
		Help: "HTTP API requests by route and status",
	}, []string{"route", "status"})
	HTTPDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "iqm_http_request_duration_ms",
		Help:    "HTTP API request duration in milliseconds",
		Buckets: []float64{1, 5, 10, 20, 50, 100, 200, 500, 1000, 5000},
	}, []string{"route"})
)

func init() {
	prometheus.MustRegister(SourceLoads)
	prometheus.MustRegister(SourceLoadSeconds)
	prometheus.MustRegister(DatasetBuilds)
	prometheus.MustRegister(DatasetRegions)
	prometheus.MustRegister(DatasetUnmatched)
	prometheus.MustRegister(CacheLookups)
	prometheus.MustRegister(SourceCacheLookups)
	prometheus.MustRegister(Selections)
	prometheus.MustRegister(HTTPRequests)
	prometheus.MustRegister(HTTPDurationMs)
}

// Handler exposes the default registry for scraping.
func Handler() http.Handler { return promhttp.Handler() }
