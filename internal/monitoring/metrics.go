package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var latencyBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10}

var (
	// HTTP 请求指标
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatrelay_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status_class"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chatrelay_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds (streaming requests measure the full stream)",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60, 180},
		},
		[]string{"method", "path", "status_class"},
	)

	HTTPInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "chatrelay_http_inflight",
			Help: "Number of HTTP requests currently being processed",
		},
	)

	// 聊天请求结果
	ChatRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatrelay_chat_requests_total",
			Help: "Chat relay requests by provider and outcome",
		},
		[]string{"provider", "outcome"},
	)

	// 上游 API 调用指标
	UpstreamRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatrelay_upstream_requests_total",
			Help: "Total number of upstream API requests",
		},
		[]string{"provider", "status_class"},
	)

	UpstreamRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chatrelay_upstream_request_duration_seconds",
			Help:    "Time until upstream response headers arrive",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"provider"},
	)

	UpstreamErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatrelay_upstream_errors_total",
			Help: "Upstream failures by provider and error kind",
		},
		[]string{"provider", "kind"},
	)

	UpstreamModelRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatrelay_upstream_model_requests_total",
			Help: "Upstream requests per model",
		},
		[]string{"provider", "model"},
	)

	// SSE 流指标
	SSEEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatrelay_sse_events_total",
			Help: "SSE events written to clients",
		},
		[]string{"provider"},
	)

	SSEBytesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatrelay_sse_bytes_total",
			Help: "SSE bytes written to clients",
		},
		[]string{"provider"},
	)

	SSEClosedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatrelay_sse_closed_total",
			Help: "Relayed streams by close reason (completed, client_disconnect, timeout, upstream_error)",
		},
		[]string{"provider", "reason"},
	)

	// 存储指标
	StorageOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatrelay_storage_operations_total",
			Help: "Storage operations by backend, operation and result",
		},
		[]string{"backend", "operation", "result"},
	)

	StorageOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chatrelay_storage_operation_duration_seconds",
			Help:    "Storage operation latency in seconds",
			Buckets: latencyBuckets,
		},
		[]string{"backend", "operation"},
	)

	StoragePoolConnections = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "chatrelay_storage_pool_connections",
			Help: "Storage connection pool state",
		},
		[]string{"backend", "state"},
	)

	CacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatrelay_cache_lookups_total",
			Help: "Message cache lookups by cache kind and result",
		},
		[]string{"cache", "result"},
	)

	// 历史选择指标
	HistoryTurnsIn = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "chatrelay_history_turns_in",
			Help:    "History length loaded from storage",
			Buckets: []float64{1, 2, 5, 10, 20, 50, 100, 250},
		},
	)

	HistoryTurnsOut = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "chatrelay_history_turns_out",
			Help:    "History length sent upstream",
			Buckets: []float64{1, 2, 3, 5, 8, 10},
		},
	)

	HistoryCodeBlocksStripped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chatrelay_history_code_blocks_stripped_total",
			Help: "Assistant turns whose fenced code blocks were removed",
		},
	)

	HistoryPromptTokens = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "chatrelay_history_prompt_tokens",
			Help:    "Estimated prompt tokens of the selected history",
			Buckets: prometheus.ExponentialBuckets(64, 2, 10),
		},
	)

	// 限流指标
	RateLimitKeysGauge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "chatrelay_ratelimit_keys",
			Help: "Number of active rate limiter keys",
		},
	)

	RateLimitSweepsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chatrelay_ratelimit_sweeps_total",
			Help: "Number of rate limiter cleanup sweeps",
		},
	)

	RateLimitRejectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatrelay_ratelimit_rejected_total",
			Help: "Requests rejected by the rate limiter",
		},
		[]string{"key_kind"},
	)
)

// StatusClass buckets an HTTP status into 2xx/3xx/4xx/5xx.
func StatusClass(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	case code >= 200:
		return "2xx"
	default:
		return "1xx"
	}
}
