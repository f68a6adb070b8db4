// Package metrics exposes Prometheus instrumentation for the debate server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	DebatesStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "deliberation_debates_started_total",
		Help: "Number of debates created.",
	})

	TurnsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "deliberation_turns_completed_total",
		Help: "Number of agent turns that produced a message.",
	})

	TurnErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "deliberation_turn_errors_total",
		Help: "Number of turns that failed and were reported as error events.",
	})

	Fallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "deliberation_generation_fallbacks_total",
		Help: "Number of generations replaced by a fallback response, by reason.",
	}, []string{"reason"})

	Messages = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "deliberation_messages_total",
		Help: "Number of messages appended to debate logs, by type.",
	}, []string{"type"})

	ConnectedClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "deliberation_connected_clients",
		Help: "Currently connected WebSocket clients.",
	})
)
