// Package metrics exposes the gateway's Prometheus collectors.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "weather_assistant"

type Metrics struct {
	ChatRequests  *prometheus.CounterVec
	ChatLatency   prometheus.Histogram
	AgentRounds   prometheus.Histogram
	AgentExhausts prometheus.Counter
	ToolCalls     *prometheus.CounterVec
	LLMCalls      *prometheus.CounterVec
}

var (
	once   sync.Once
	global *Metrics
)

// New builds a fresh set of collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ChatRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_requests_total",
			Help:      "Chat requests handled, by outcome",
		}, []string{"outcome"}),
		ChatLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "chat_duration_seconds",
			Help:      "End-to-end latency of /chat",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40},
		}),
		AgentRounds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "agent_rounds",
			Help:      "Model rounds used per agent run",
			Buckets:   []float64{1, 2, 3, 4, 5},
		}),
		AgentExhausts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "agent_iteration_limit_total",
			Help:      "Agent runs stopped by the iteration limit",
		}),
		ToolCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tool_calls_total",
			Help:      "Tool executions, by tool and result",
		}, []string{"tool", "result"}),
		LLMCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_calls_total",
			Help:      "Completion requests sent to the provider, by outcome",
		}, []string{"outcome"}),
	}
	reg.MustRegister(m.ChatRequests, m.ChatLatency, m.AgentRounds, m.AgentExhausts, m.ToolCalls, m.LLMCalls)
	return m
}

// Global returns the process-wide collectors on the default registry.
func Global() *Metrics {
	once.Do(func() {
		global = New(prometheus.DefaultRegisterer)
	})
	return global
}
