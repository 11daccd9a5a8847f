// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AgentRequestsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agent_requests_completed_total",
			Help: "Total number of requests completed by agent",
		},
		[]string{"agent", "message_type"},
	)

	AgentRequestsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agent_requests_failed_total",
			Help: "Total number of requests failed by agent",
		},
		[]string{"agent", "error_code"},
	)

	AgentRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "agent_request_duration_seconds",
			Help: "Duration of agent request processing in seconds",
		},
		[]string{"agent"},
	)

	RecommendationsIssued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendations_issued_total",
			Help: "Total number of tier recommendations issued",
		},
		[]string{"tier", "risk_level"},
	)

	UpstreamFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "upstream_fetch_duration_seconds",
			Help: "Duration of upstream data source fetches in seconds",
		},
		[]string{"source"},
	)

	UpstreamFetchFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upstream_fetch_failures_total",
			Help: "Total number of failed upstream data source fetches",
		},
		[]string{"source", "error_code"},
	)

	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"cache"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"cache"},
	)

	PendingRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "agentbus_pending_requests",
			Help: "Number of requests awaiting a reply on the agent bus",
		},
	)

	ExpiredRequests = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "agentbus_expired_requests_total",
			Help: "Total number of pending requests that expired before a reply",
		},
	)
)
