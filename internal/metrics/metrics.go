package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	WhispersPosted prometheus.Counter
	NearbyQueries  prometheus.Counter
	PushSent       *prometheus.CounterVec
	SweptWhispers  prometheus.Counter
	StreamClients  prometheus.Gauge
	HTTPSeconds    *prometheus.HistogramVec

	// Place labeling worker.
	TaskProcessed  *prometheus.CounterVec
	APIErrors      prometheus.Counter
	RequestSeconds *prometheus.HistogramVec
	ActiveWorkers  prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		WhispersPosted: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "whispers_posted_total",
			Help: "Total number of whispers stored.",
		}),
		NearbyQueries: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "whispers_nearby_queries_total",
			Help: "Total number of nearby and cluster queries served.",
		}),
		PushSent: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "whispers_push_notifications_total",
			Help: "Total number of web push deliveries by outcome.",
		}, []string{"status"}),
		SweptWhispers: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "whispers_swept_total",
			Help: "Total number of whispers deleted by the retention sweeper.",
		}),
		StreamClients: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "whispers_stream_clients",
			Help: "Current number of connected live feed clients.",
		}),
		HTTPSeconds: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "whispers_http_request_duration_seconds",
			Help:    "Duration of HTTP requests by route and status code.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "status"}),
		TaskProcessed: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "places_tasks_processed_total",
			Help: "Total number of processed place labeling tasks.",
		}, []string{"status"}),
		APIErrors: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "places_provider_api_errors_total",
			Help: "Total number of errors received from the reverse geocoding provider API.",
		}),
		RequestSeconds: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "places_provider_request_duration_seconds",
			Help:    "Duration of requests to the reverse geocoding provider API.",
			Buckets: prometheus.DefBuckets,
		}, []string{"provider"}),
		ActiveWorkers: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "places_active_workers",
			Help: "Current number of active workers processing tasks.",
		}),
	}
}
