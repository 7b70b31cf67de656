// Package metrics declares the Prometheus collectors of the matching engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "matchmaker"

var (
	// SwipesTotal counts recorded swipe decisions.
	// Labels: direction (left, right)
	SwipesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "ledger",
		Name:      "swipes_total",
		Help:      "Total swipe decisions recorded",
	}, []string{"direction"})

	// MutualMatchesTotal counts swipes that turned a pair into a mutual match.
	MutualMatchesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "ledger",
		Name:      "mutual_matches_total",
		Help:      "Total mutual matches detected",
	})

	// LedgerConflictsTotal counts asymmetric mutual states detected in the ledger.
	LedgerConflictsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "ledger",
		Name:      "conflicts_total",
		Help:      "Asymmetric mutual states detected",
	})

	// RankingDuration measures discovery plus scoring latency.
	// Labels: mode (fresh, liked), cache (hit, miss)
	RankingDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "matching",
		Name:      "ranking_duration_seconds",
		Help:      "Time to produce a ranked candidate list",
		Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"mode", "cache"})

	// CandidatesScored tracks the candidate pool size handed to the scorer.
	CandidatesScored = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "matching",
		Name:      "candidates_scored",
		Help:      "Number of candidates scored per request",
		Buckets:   []float64{0, 1, 5, 10, 20, 50, 100, 200},
	})

	// LiveConnections tracks websocket sessions held by this process.
	LiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "realtime",
		Name:      "connections",
		Help:      "Live websocket connections on this instance",
	})

	// EventsEmitted counts events written to live sessions.
	// Labels: event (matches-unlocked, message, icebreakers)
	EventsEmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "realtime",
		Name:      "events_emitted_total",
		Help:      "Events delivered to live sessions",
	}, []string{"event"})

	// EventsDropped counts events dropped for slow or closed sessions.
	EventsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "realtime",
		Name:      "events_dropped_total",
		Help:      "Events dropped because a session buffer was full",
	})

	// MessagesStored counts persisted chat messages.
	MessagesStored = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "chat",
		Name:      "messages_stored_total",
		Help:      "Chat messages persisted",
	})
)
