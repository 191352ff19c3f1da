package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal     *prometheus.CounterVec
	HTTPRequestDuration   *prometheus.HistogramVec
	JobsInQueue           prometheus.Gauge
	RunsTotal             *prometheus.CounterVec
	RunDuration           prometheus.Histogram
	DownloadAttemptsTotal *prometheus.CounterVec
)

func Init() {
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	JobsInQueue = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "audio_jobs_in_queue",
			Help: "Current number of audio jobs waiting for the automation worker.",
		},
	)

	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "automation_runs_total",
			Help: "Total number of automation runs.",
		},
		[]string{"status", "failure_stage"}, // status: success, failure
	)

	RunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "automation_run_duration_seconds",
			Help:    "Wall-clock duration of automation runs.",
			Buckets: []float64{30, 60, 120, 180, 300, 600, 900, 1200},
		},
	)

	DownloadAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "download_attempts_total",
			Help: "Download attempts by UI path and outcome.",
		},
		[]string{"method", "status"},
	)
}
