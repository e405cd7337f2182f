package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics exposes prometheus collectors for the aggregation pipeline.
type Metrics struct {
	requestDuration     *prometheus.HistogramVec
	errorCount          *prometheus.CounterVec
	providerFetchErrors *prometheus.CounterVec
	sentimentCacheHits  prometheus.Counter
	sentimentCacheMiss  prometheus.Counter
	scorerBatchCalls    *prometheus.CounterVec
}

// NewMetrics registers collectors on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "tickethub",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by path, method and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"path", "method", "status"}),
		errorCount: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tickethub",
			Name:      "http_request_errors_total",
			Help:      "Requests that resolved to a domain error, by code.",
		}, []string{"path", "method", "code"}),
		providerFetchErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tickethub",
			Name:      "provider_fetch_errors_total",
			Help:      "External provider page fetches that failed and were skipped.",
		}, []string{"provider"}),
		sentimentCacheHits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "tickethub",
			Name:      "sentiment_cache_hits_total",
			Help:      "Satisfaction scores served from the content-hash cache.",
		}),
		sentimentCacheMiss: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "tickethub",
			Name:      "sentiment_cache_misses_total",
			Help:      "Satisfaction scores that required the scoring service.",
		}),
		scorerBatchCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tickethub",
			Name:      "sentiment_scorer_batches_total",
			Help:      "Batched scorer invocations by outcome.",
		}, []string{"outcome"}),
	}
}

// RecordRequest observes one completed HTTP request.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requestDuration.WithLabelValues(path, method, strconv.Itoa(status)).Observe(duration.Seconds())
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	m.errorCount.WithLabelValues(path, method, code).Inc()
}

// RecordProviderFetchError counts a skipped provider page.
func (m *Metrics) RecordProviderFetchError(providerType string) {
	if m == nil {
		return
	}
	m.providerFetchErrors.WithLabelValues(providerType).Inc()
}

// RecordSentimentCacheHit counts a cache hit.
func (m *Metrics) RecordSentimentCacheHit() {
	if m == nil {
		return
	}
	m.sentimentCacheHits.Inc()
}

// RecordSentimentCacheMiss counts a cache miss.
func (m *Metrics) RecordSentimentCacheMiss() {
	if m == nil {
		return
	}
	m.sentimentCacheMiss.Inc()
}

// RecordScorerBatch counts one batched scorer call.
func (m *Metrics) RecordScorerBatch(outcome string) {
	if m == nil {
		return
	}
	m.scorerBatchCalls.WithLabelValues(outcome).Inc()
}
