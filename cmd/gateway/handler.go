package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/dileep-u-k/weather-assistant/internal/agent"
	"github.com/dileep-u-k/weather-assistant/internal/api"
	"github.com/dileep-u-k/weather-assistant/internal/llm"
	"github.com/dileep-u-k/weather-assistant/internal/metrics"
	"github.com/dileep-u-k/weather-assistant/internal/version"
)

const (
	serviceName = "Weather Assistant API"
	rootMessage = "Weather Assistant API is running! 🌤️"
)

// GatewayHandler maps HTTP requests onto agent runs. Everything it holds is
// built once in main and shared read-only by all requests.
type GatewayHandler struct {
	agent    *agent.Agent
	profiler *llm.Profiler
	metrics  *metrics.Metrics
	logger   zerolog.Logger
	model    string
	version  string
}

// NewGatewayHandler wires the handler. profiler may be nil, which disables /stats.
func NewGatewayHandler(a *agent.Agent, profiler *llm.Profiler, m *metrics.Metrics, logger zerolog.Logger) *GatewayHandler {
	return &GatewayHandler{
		agent:    a,
		profiler: profiler,
		metrics:  m,
		logger:   logger.With().Str("component", "gateway").Logger(),
		model:    a.Config().Model,
		version:  version.Get().String(),
	}
}

func (h *GatewayHandler) HandleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, api.RootInfo{
		Message: rootMessage,
		Status:  "active",
		Endpoints: map[string]string{
			"/chat":   "POST - Send weather queries",
			"/health": "GET - Health check",
		},
		Version: h.version,
	})
}

func (h *GatewayHandler) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, api.HealthResponse{Status: "healthy", Service: serviceName})
}

func (h *GatewayHandler) HandleChat(c *gin.Context) {
	start := time.Now()

	var req api.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		status := bindStatus(err)
		h.observe("bad_request", start)
		c.JSON(status, api.ErrorResponse{Detail: "Invalid request: " + err.Error()})
		return
	}

	// A client hanging up does not abort the model or weather calls.
	ctx := context.WithoutCancel(c.Request.Context())

	outcome, err := h.agent.Run(ctx, *req.Message)
	latency := time.Since(start)
	if err != nil {
		h.logger.Error().Err(err).Dur("latency", latency).Msg("chat request failed")
		if h.profiler != nil {
			h.profiler.RecordFailure(ctx, h.model)
		}
		h.observe("error", start)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Detail: "Error processing request: " + err.Error()})
		return
	}

	if h.profiler != nil {
		h.profiler.RecordSuccess(ctx, h.model, latency, outcome.Usage)
	}

	result := "ok"
	event := h.logger.Info()
	if outcome.Exhausted {
		result = "exhausted"
		event = h.logger.Warn()
	}
	event.
		Int("rounds", outcome.Rounds).
		Int("tool_calls", len(outcome.Steps)).
		Int("total_tokens", outcome.Usage.TotalTokens).
		Bool("exhausted", outcome.Exhausted).
		Dur("latency", latency).
		Msg("chat request served")
	h.observe(result, start)

	c.JSON(http.StatusOK, api.ChatResponse{Response: outcome.Output})
}

// HandleStats reports the usage profile of the configured model.
func (h *GatewayHandler) HandleStats(c *gin.Context) {
	if h.profiler == nil {
		c.JSON(http.StatusNotFound, api.ErrorResponse{Detail: "usage profiling is disabled"})
		return
	}
	profile, err := h.profiler.GetProfile(c.Request.Context(), h.model)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to load model profile")
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Detail: "Error loading stats: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, profile)
}

// bindStatus is 422 for well-formed JSON whose message is missing or of the
// wrong type, and 400 when the body cannot be parsed at all.
func bindStatus(err error) int {
	var validationErrs validator.ValidationErrors
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &validationErrs) || errors.As(err, &typeErr) {
		return http.StatusUnprocessableEntity
	}
	return http.StatusBadRequest
}

func (h *GatewayHandler) observe(outcome string, start time.Time) {
	if h.metrics == nil {
		return
	}
	h.metrics.ChatRequests.WithLabelValues(outcome).Inc()
	h.metrics.ChatLatency.Observe(time.Since(start).Seconds())
}
