package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roverchat_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "roverchat_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// ChatRequestsTotal counts chat turns by outcome: ok, rate_limited or a
	// failure kind such as embedding or history_store.
	ChatRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roverchat_chat_requests_total",
			Help: "Total number of chat turns by outcome.",
		},
		[]string{"outcome"},
	)

	PipelineStageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "roverchat_pipeline_stage_duration_seconds",
			Help:    "Duration of each chat pipeline stage in seconds.",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"stage"},
	)

	RetrievedMemories = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "roverchat_retrieved_memories",
			Help:    "Number of memories retrieved per chat turn.",
			Buckets: []float64{0, 1, 2, 3, 4, 5, 10, 20},
		},
	)
)

func init() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		ChatRequestsTotal,
		PipelineStageDuration,
		RetrievedMemories,
	)
}
