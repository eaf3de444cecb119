package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var registerOnce sync.Once

// RegisterAll registers every ideahub collector with the default registry.
// Safe to call more than once.
func RegisterAll() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			httpLatency,
			httpRequests,
			httpInFlight,
			embeddingCalls,
			embeddingLatency,
			embeddingTokens,
			EmbeddingCacheTotal,
			LLMRequestsTotal,
			LLMRequestDuration,
			MatchDecisionsTotal,
			MatchCandidates,
			RealtimeClients,
			RealtimeEventsTotal,
		)
	})
}
