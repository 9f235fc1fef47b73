package telemetry

import (
	"log"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mohammad-safakhou/redditdig/config"
)

// Telemetry tracks request, tool, Reddit and LLM activity. Metrics live on a
// private registry so multiple instances can coexist in one process.
type Telemetry struct {
	cfg      config.TelemetryConfig
	logger   *log.Logger
	registry *prometheus.Registry

	requests       *prometheus.CounterVec
	toolCalls      *prometheus.CounterVec
	redditRequests *prometheus.CounterVec
	llmTokens      *prometheus.CounterVec
	llmCost        prometheus.Counter

	costTracker *CostTracker
}

// CostTracker accumulates LLM spend per model alongside total token usage.
type CostTracker struct {
	mu          sync.RWMutex
	ModelCosts  map[string]float64
	TotalCost   float64
	TotalTokens int64
}

// NewTelemetry creates a telemetry instance with its own metric registry.
func NewTelemetry(cfg config.TelemetryConfig) *Telemetry {
	registry := prometheus.NewRegistry()

	t := &Telemetry{
		cfg:      cfg,
		logger:   log.New(log.Writer(), "[TELEMETRY] ", log.LstdFlags),
		registry: registry,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "redditdig_requests_total",
			Help: "HTTP requests by route and status class.",
		}, []string{"route", "status"}),
		toolCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "redditdig_tool_calls_total",
			Help: "Agent tool invocations by tool and outcome.",
		}, []string{"tool", "outcome"}),
		redditRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "redditdig_reddit_requests_total",
			Help: "Outbound Reddit requests by kind and outcome.",
		}, []string{"kind", "outcome"}),
		llmTokens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "redditdig_llm_tokens_total",
			Help: "LLM tokens consumed by model and direction.",
		}, []string{"model", "direction"}),
		llmCost: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "redditdig_llm_cost_dollars_total",
			Help: "Estimated cumulative LLM spend in dollars.",
		}),
		costTracker: &CostTracker{ModelCosts: make(map[string]float64)},
	}

	registry.MustRegister(t.requests, t.toolCalls, t.redditRequests, t.llmTokens, t.llmCost)
	return t
}

// Handler serves this instance's metrics.
func (t *Telemetry) Handler() http.Handler {
	if t == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(t.registry, promhttp.HandlerOpts{})
}

func (t *Telemetry) enabled() bool { return t != nil && t.cfg.Enabled }

// RecordRequest counts one HTTP request.
func (t *Telemetry) RecordRequest(route, status string) {
	if !t.enabled() {
		return
	}
	t.requests.WithLabelValues(route, status).Inc()
}

// RecordToolCall counts one agent tool invocation.
func (t *Telemetry) RecordToolCall(tool string, success bool) {
	if !t.enabled() {
		return
	}
	t.toolCalls.WithLabelValues(tool, outcome(success)).Inc()
}

// RecordRedditRequest counts one outbound Reddit call.
func (t *Telemetry) RecordRedditRequest(kind string, success bool) {
	if !t.enabled() {
		return
	}
	t.redditRequests.WithLabelValues(kind, outcome(success)).Inc()
}

// RecordLLMUsage counts tokens and, when cost tracking is on, accumulates the
// estimated spend.
func (t *Telemetry) RecordLLMUsage(model string, inputTokens, outputTokens int64, cost float64) {
	if !t.enabled() {
		return
	}
	t.llmTokens.WithLabelValues(model, "input").Add(float64(inputTokens))
	t.llmTokens.WithLabelValues(model, "output").Add(float64(outputTokens))
	if !t.cfg.CostTracking {
		return
	}
	t.llmCost.Add(cost)
	t.costTracker.mu.Lock()
	t.costTracker.ModelCosts[model] += cost
	t.costTracker.TotalCost += cost
	t.costTracker.TotalTokens += inputTokens + outputTokens
	t.costTracker.mu.Unlock()
}

// TotalCost reports the accumulated LLM spend.
func (t *Telemetry) TotalCost() float64 {
	if t == nil {
		return 0
	}
	t.costTracker.mu.RLock()
	defer t.costTracker.mu.RUnlock()
	return t.costTracker.TotalCost
}

// TotalTokens reports the accumulated token usage.
func (t *Telemetry) TotalTokens() int64 {
	if t == nil {
		return 0
	}
	t.costTracker.mu.RLock()
	defer t.costTracker.mu.RUnlock()
	return t.costTracker.TotalTokens
}

func outcome(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}
