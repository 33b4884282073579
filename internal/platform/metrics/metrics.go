package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	PageRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "glycoview_page_requests_total",
			Help: "Total dashboard page requests",
		},
		[]string{"page", "status"},
	)

	PageComputeDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "glycoview_page_compute_duration_seconds",
			Help:    "Page payload computation duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2},
		},
		[]string{"page"},
	)

	PayloadCacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "glycoview_payload_cache_hits_total",
			Help: "Total payload cache hits",
		},
		[]string{"page"},
	)

	PayloadCacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "glycoview_payload_cache_misses_total",
			Help: "Total payload cache misses",
		},
		[]string{"page"},
	)

	DatasetRows = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "glycoview_dataset_rows",
			Help: "Number of patient rows loaded at startup",
		},
	)
)

func Init() {
	prometheus.MustRegister(PageRequests)
	prometheus.MustRegister(PageComputeDuration)
	prometheus.MustRegister(PayloadCacheHits)
	prometheus.MustRegister(PayloadCacheMisses)
	prometheus.MustRegister(DatasetRows)
}

func Handler() http.Handler {
	return promhttp.Handler()
}
