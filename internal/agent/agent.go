// Package agent runs the bounded tool-calling loop between the model and the
// registered tools.
//
// A run moves through three states:
//
//	awaiting_model       -> the model is asked for the next step
//	awaiting_tool_result -> requested tools are executed in order
//	done                 -> a final answer exists or the round limit was hit
//
// Each model call counts as one round. When MaxIterations rounds pass
// without a final answer the run stops and reports Exhausted.
package agent

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/dileep-u-k/weather-assistant/internal/api"
	"github.com/dileep-u-k/weather-assistant/internal/llm"
	"github.com/dileep-u-k/weather-assistant/internal/metrics"
	"github.com/dileep-u-k/weather-assistant/internal/tools"
)

const (
	DefaultMaxIterations = 3

	// StoppedMessage is returned when the round limit is hit before the model
	// produced any text at all.
	StoppedMessage = "Agent stopped due to iteration limit or time limit."

	DefaultSystemPrompt = `You are a helpful weather assistant. When users ask about weather in any city,
use the get_weather tool to fetch real-time data. Be friendly and conversational.
If the query is not about weather, politely inform that you specialize in weather information.`
)

type State int

const (
	StateAwaitingModel State = iota
	StateAwaitingToolResult
	StateDone
)

func (s State) String() string {
	switch s {
	case StateAwaitingModel:
		return "awaiting_model"
	case StateAwaitingToolResult:
		return "awaiting_tool_result"
	case StateDone:
		return "done"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Config is fixed at startup and shared by every run.
type Config struct {
	Model         string
	Temperature   float32
	MaxIterations int
	SystemPrompt  string
}

// Step records one tool execution inside a run.
type Step struct {
	Round     int
	ToolName  string
	Arguments string
	Result    tools.Result
}

// Outcome is what a finished run hands back to the gateway.
type Outcome struct {
	Output    string
	Rounds    int
	Steps     []Step
	Exhausted bool
	Usage     api.Usage
}

// Agent is immutable after New and safe for concurrent Run calls.
type Agent struct {
	client  llm.LLMClient
	tools   *tools.ToolManager
	cfg     Config
	logger  zerolog.Logger
	metrics *metrics.Metrics
}

type Option func(*Agent)

func WithLogger(logger zerolog.Logger) Option {
	return func(a *Agent) {
		a.logger = logger.With().Str("component", "agent").Logger()
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(a *Agent) {
		a.metrics = m
	}
}

func New(client llm.LLMClient, toolManager *tools.ToolManager, cfg Config, opts ...Option) *Agent {
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = DefaultMaxIterations
	}
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = DefaultSystemPrompt
	}
	if cfg.Model == "" {
		cfg.Model = llm.DefaultModel
	}
	a := &Agent{
		client: client,
		tools:  toolManager,
		cfg:    cfg,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Config returns the settings the agent runs with.
func (a *Agent) Config() Config {
	return a.cfg
}

// run is the per-request iteration state. It never outlives Run.
type run struct {
	state    State
	messages []llm.Message
	pending  []*tools.ToolCall
	lastText string
	outcome  Outcome
}

// Run drives one conversation to completion. Provider errors end the run and
// are returned; tool failures never are.
func (a *Agent) Run(ctx context.Context, input string) (*Outcome, error) {
	r := &run{
		state: StateAwaitingModel,
		messages: []llm.Message{
			{Role: llm.RoleSystem, Content: a.cfg.SystemPrompt},
			{Role: llm.RoleUser, Content: input},
		},
	}
	genCfg := &llm.GenerationConfig{Model: a.cfg.Model, Temperature: llm.Float32(a.cfg.Temperature)}
	definitions := a.tools.GetDefinitions()

	a.logger.Debug().Str("input", input).Int("max_iterations", a.cfg.MaxIterations).Msg("entering agent loop")

	for r.state != StateDone {
		switch r.state {
		case StateAwaitingModel:
			if r.outcome.Rounds >= a.cfg.MaxIterations {
				a.exhaust(r)
				continue
			}
			if err := a.callModel(ctx, r, genCfg, definitions); err != nil {
				return nil, err
			}
		case StateAwaitingToolResult:
			a.runTools(ctx, r)
		}
	}

	if a.metrics != nil {
		a.metrics.AgentRounds.Observe(float64(r.outcome.Rounds))
	}
	a.logger.Debug().
		Int("rounds", r.outcome.Rounds).
		Int("tool_calls", len(r.outcome.Steps)).
		Bool("exhausted", r.outcome.Exhausted).
		Msg("finished agent loop")
	return &r.outcome, nil
}

func (a *Agent) callModel(ctx context.Context, r *run, genCfg *llm.GenerationConfig, definitions []tools.Tool) error {
	r.outcome.Rounds++
	round := r.outcome.Rounds

	result, err := a.client.Generate(ctx, r.messages, genCfg, definitions)
	if err != nil {
		a.countLLM("error")
		a.logger.Debug().Err(err).Int("round", round).Msg("model call failed")
		return fmt.Errorf("agent round %d: %w", round, err)
	}
	a.countLLM("ok")
	r.outcome.Usage.Add(result.Usage)

	if len(result.ToolCalls) == 0 {
		a.logger.Debug().Int("round", round).Msg("model produced final answer")
		r.outcome.Output = result.Content
		r.state = StateDone
		return nil
	}

	if result.Content != "" {
		r.lastText = result.Content
	}
	r.messages = append(r.messages, llm.Message{
		Role:      llm.RoleAssistant,
		Content:   result.Content,
		ToolCalls: result.ToolCalls,
	})
	r.pending = result.ToolCalls
	r.state = StateAwaitingToolResult
	return nil
}

func (a *Agent) runTools(ctx context.Context, r *run) {
	for _, call := range r.pending {
		name := call.Function.Name
		a.logger.Debug().
			Int("round", r.outcome.Rounds).
			Str("tool", name).
			Str("call_id", call.ID).
			Str("args", call.Function.Arguments).
			Msg("executing tool")

		res := a.tools.Execute(ctx, name, call.Function.Arguments)
		a.countTool(name, res)
		if !res.OK() {
			a.logger.Debug().Str("tool", name).Str("kind", string(res.Failure.Kind)).Str("detail", res.Failure.Detail).Msg("tool reported failure")
		}

		r.outcome.Steps = append(r.outcome.Steps, Step{
			Round:     r.outcome.Rounds,
			ToolName:  name,
			Arguments: call.Function.Arguments,
			Result:    res,
		})
		r.messages = append(r.messages, llm.Message{
			Role:       llm.RoleTool,
			Name:       name,
			ToolCallID: call.ID,
			Content:    res.String(),
		})
	}
	r.pending = nil
	r.state = StateAwaitingModel
}

// exhaust ends a run that ran out of rounds. Unlike a forced stop that always
// answers with StoppedMessage, it keeps the last text the model sent next to a
// tool call and only falls back to StoppedMessage when there was none.
func (a *Agent) exhaust(r *run) {
	r.outcome.Exhausted = true
	r.outcome.Output = r.lastText
	if r.outcome.Output == "" {
		r.outcome.Output = StoppedMessage
	}
	r.state = StateDone
	if a.metrics != nil {
		a.metrics.AgentExhausts.Inc()
	}
	a.logger.Debug().Int("rounds", r.outcome.Rounds).Msg("iteration limit reached")
}

func (a *Agent) countLLM(outcome string) {
	if a.metrics != nil {
		a.metrics.LLMCalls.WithLabelValues(outcome).Inc()
	}
}

func (a *Agent) countTool(name string, res tools.Result) {
	if a.metrics == nil {
		return
	}
	label := "ok"
	if !res.OK() {
		label = string(res.Failure.Kind)
	}
	a.metrics.ToolCalls.WithLabelValues(name, label).Inc()
}
