package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "water_advisory"

// Metrics holds the Prometheus counters, histograms, and gauges for the advisory service.
type Metrics struct {
	// Notification ingestion pipeline.
	MessagesConsumed prometheus.Counter
	DecodeErrors     prometheus.Counter
	PipelineRunning  prometheus.Gauge
	BatchSize        prometheus.Histogram

	// Feed metrics.
	FeedEvents *prometheus.CounterVec // labels: event={ingested,duplicate,evicted,dismissed,ambient}
	FeedSize   prometheus.Gauge

	// Search and viewport.
	Searches       *prometheus.CounterVec // labels: outcome={suppressed,hit,miss}
	ViewportMoves  prometheus.Counter
	ActiveSessions prometheus.Gauge

	// Weather provider metrics.
	WeatherRequests    *prometheus.CounterVec // labels: outcome={success,error}
	WeatherCache       *prometheus.CounterVec // labels: result={hit,miss}
	WeatherAPIDuration prometheus.Histogram
	WeatherStale       prometheus.Counter
}

// NewMetrics creates and registers all service metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		MessagesConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_consumed_total",
			Help:      "Total notification messages read from the topic.",
		}),
		DecodeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decode_errors_total",
			Help:      "Total notification messages that failed to decode or validate.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 when the notification pipeline is active, 0 when shut down.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_size",
			Help:      "Number of messages per batch extracted from Kafka.",
			Buckets:   []float64{1, 5, 10, 20, 30, 40, 50, 75, 100},
		}),
		FeedEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feed_events_total",
			Help:      "Notification feed transitions by event.",
		}, []string{"event"}),
		FeedSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "feed_size",
			Help:      "Number of visible notifications.",
		}),
		Searches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_total",
			Help:      "Gazetteer searches by outcome.",
		}, []string{"outcome"}),
		ViewportMoves: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "viewport_moves_total",
			Help:      "Camera animation requests issued to map surfaces.",
		}),
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Connected map sessions.",
		}),
		WeatherRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "weather_requests_total",
			Help:      "Weather provider requests by outcome.",
		}, []string{"outcome"}),
		WeatherCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "weather_cache_total",
			Help:      "Weather cache lookups by result.",
		}, []string{"result"}),
		WeatherAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "weather_api_duration_seconds",
			Help:      "Weather provider request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		WeatherStale: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "weather_stale_responses_total",
			Help:      "Weather responses dropped because a newer query superseded them.",
		}),
	}

	prometheus.MustRegister(
		m.MessagesConsumed,
		m.DecodeErrors,
		m.PipelineRunning,
		m.BatchSize,
		m.FeedEvents,
		m.FeedSize,
		m.Searches,
		m.ViewportMoves,
		m.ActiveSessions,
		m.WeatherRequests,
		m.WeatherCache,
		m.WeatherAPIDuration,
		m.WeatherStale,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		MessagesConsumed:   prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "messages_consumed_total"}),
		DecodeErrors:       prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "decode_errors_total"}),
		PipelineRunning:    prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: "pipeline_running"}),
		BatchSize:          prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: namespace, Name: "batch_size"}),
		FeedEvents:         prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "feed_events_total"}, []string{"event"}),
		FeedSize:           prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: "feed_size"}),
		Searches:           prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "searches_total"}, []string{"outcome"}),
		ViewportMoves:      prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "viewport_moves_total"}),
		ActiveSessions:     prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: "active_sessions"}),
		WeatherRequests:    prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "weather_requests_total"}, []string{"outcome"}),
		WeatherCache:       prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "weather_cache_total"}, []string{"result"}),
		WeatherAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: namespace, Name: "weather_api_duration_seconds"}),
		WeatherStale:       prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "weather_stale_responses_total"}),
	}
}
