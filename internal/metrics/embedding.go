package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "ideahub"

var (
	embeddingCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "vectorizer",
			Name:      "calls_total",
			Help:      "Vectorizer calls by outcome (ok or a failure kind)",
		},
		[]string{"provider", "model", "outcome"},
	)

	embeddingLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "vectorizer",
			Name:      "latency_seconds",
			Help:      "Latency of successful vectorizer calls",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15},
		},
		[]string{"provider", "model"},
	)

	embeddingTokens = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "vectorizer",
			Name:      "tokens_total",
			Help:      "Tokens billed by the vectorizer",
		},
		[]string{"provider", "model", "kind"}, // prompt / total
	)

	// EmbeddingCacheTotal counts cache lookups in front of the vectorizer.
	EmbeddingCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "vectorizer",
			Name:      "cache_lookups_total",
			Help:      "Vector cache lookups by result",
		},
		[]string{"result"}, // hit / miss
	)
)

// VectorizerCall records one upstream embedding request. Create it right
// before the request and finish it with exactly one of OK or Failed.
type VectorizerCall struct {
	provider, model string
	start           time.Time
}

// StartVectorizerCall starts timing a call to provider/model.
func StartVectorizerCall(provider, model string) VectorizerCall {
	return VectorizerCall{provider: provider, model: model, start: time.Now()}
}

// OK records a successful call. Zero token counts (providers that do not
// report usage) are not added.
func (c VectorizerCall) OK(promptTokens, totalTokens int) {
	embeddingCalls.WithLabelValues(c.provider, c.model, "ok").Inc()
	embeddingLatency.WithLabelValues(c.provider, c.model).Observe(time.Since(c.start).Seconds())
	if totalTokens > 0 {
		embeddingTokens.WithLabelValues(c.provider, c.model, "prompt").Add(float64(promptTokens))
		embeddingTokens.WithLabelValues(c.provider, c.model, "total").Add(float64(totalTokens))
	}
}

// Failed records a failed call under kind (transport, http_status, decode, ...).
func (c VectorizerCall) Failed(kind string) {
	embeddingCalls.WithLabelValues(c.provider, c.model, kind).Inc()
}
