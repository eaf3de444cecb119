package metrics

import "github.com/prometheus/client_golang/prometheus"

// Matching and realtime metrics.
var (
	MatchDecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "match_decisions_total",
			Help:      "Match decisions by kind",
		},
		[]string{"kind"}, // no_match / single_match / multi_match / aborted
	)

	MatchCandidates = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "match_candidates",
			Help:      "Number of candidates above threshold per match",
			Buckets:   []float64{0, 1, 2, 3, 5, 10, 20},
		},
	)

	RealtimeClients = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "realtime_clients",
			Help:      "Connected websocket clients",
		},
	)

	RealtimeEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "realtime_events_total",
			Help:      "Realtime events fanned out to clients",
		},
		[]string{"type"},
	)
)
