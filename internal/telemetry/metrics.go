package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AgentAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dispute_agent_attempts_total",
		Help: "Calls made to the decision agent, by outcome.",
	}, []string{"outcome"})

	GatewayDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dispute_gateway_decisions_total",
		Help: "Decisions returned by the gateway, by source (agent, fallback_rate_limited, fallback_error).",
	}, []string{"source"})

	StoreFallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dispute_store_fallbacks_total",
		Help: "Claim store operations served by the local cache after a remote failure.",
	}, []string{"operation"})

	ClaimTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dispute_claim_transitions_total",
		Help: "Claim status transitions.",
	}, []string{"from", "to"})
)
