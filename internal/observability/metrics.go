package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors for outbound calls and user actions.
type Metrics struct {
	ReportFetches     *prometheus.CounterVec // labels: outcome={success,error}
	ReportsFetched    prometheus.Histogram
	ImageUploads      *prometheus.CounterVec // labels: outcome={success,error}
	UploadDuration    prometheus.Histogram
	SignUps           *prometheus.CounterVec // labels: outcome={success,invalid,error}
	VolunteersAdded   prometheus.Counter
	StreamSubscribers prometheus.Gauge
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.ReportFetches,
		m.ReportsFetched,
		m.ImageUploads,
		m.UploadDuration,
		m.SignUps,
		m.VolunteersAdded,
		m.StreamSubscribers,
	)
	return m
}

// NewMetricsForTesting returns unregistered metrics so tests can build as
// many as they like.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		ReportFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "disaster_feed",
			Name:      "report_fetches_total",
			Help:      "Report collection fetches by outcome.",
		}, []string{"outcome"}),
		ReportsFetched: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "disaster_feed",
			Name:      "reports_per_fetch",
			Help:      "Number of reports returned by a successful fetch.",
			Buckets:   []float64{0, 10, 25, 50, 100, 250, 500, 1000},
		}),
		ImageUploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "disaster_feed",
			Name:      "image_uploads_total",
			Help:      "Asset host uploads by outcome.",
		}, []string{"outcome"}),
		UploadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "disaster_feed",
			Name:      "image_upload_duration_seconds",
			Help:      "Asset host upload duration in seconds.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		SignUps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "disaster_feed",
			Name:      "signups_total",
			Help:      "Sign-up submissions by outcome.",
		}, []string{"outcome"}),
		VolunteersAdded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "disaster_feed",
			Name:      "volunteer_interests_total",
			Help:      "Volunteer interests recorded.",
		}),
		StreamSubscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "disaster_feed",
			Name:      "volunteer_stream_subscribers",
			Help:      "Open volunteer event streams.",
		}),
	}
}
