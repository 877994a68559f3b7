package orchestrator

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/user/thesisherald/internal/errors"
	"github.com/user/thesisherald/internal/llm"
	"github.com/user/thesisherald/internal/llmtypes"
	"github.com/user/thesisherald/internal/logging"
	"github.com/user/thesisherald/internal/papers"
	"github.com/user/thesisherald/internal/tools"
	"github.com/user/thesisherald/internal/worker_pool"
)

const (
	DefaultMaxTurns           = 5
	DefaultModelTimeout       = 60 * time.Second
	DefaultBudget             = 120 * time.Second
	DefaultMaxToolConcurrency = 5
	DefaultFallbackText       = "I couldn't finish researching this question in the time available. Please try again with a narrower question."
)

// ToolDispatcher is the registry as seen by the orchestrator
type ToolDispatcher interface {
	Definitions() []llmtypes.ToolDefinition
	Dispatch(ctx context.Context, call tools.ToolCall) tools.ToolResult
}

// Config bounds a run
type Config struct {
	MaxTurns           int           // model round-trips
	ModelTimeout       time.Duration // per model call
	Budget             time.Duration // whole run
	MaxToolConcurrency int
	MaxTokens          int
	Temperature        float64
	SystemPrompt       string
	FallbackText       string // final text when truncation leaves no assistant text
	CitationTool       string // tool whose papers may be cited, default search_papers
}

func (c Config) withDefaults() Config {
	if c.MaxTurns <= 0 {
		c.MaxTurns = DefaultMaxTurns
	}
	if c.ModelTimeout <= 0 {
		c.ModelTimeout = DefaultModelTimeout
	}
	if c.Budget <= 0 {
		c.Budget = DefaultBudget
	}
	if c.MaxToolConcurrency <= 0 {
		c.MaxToolConcurrency = DefaultMaxToolConcurrency
	}
	if c.FallbackText == "" {
		c.FallbackText = DefaultFallbackText
	}
	if c.CitationTool == "" {
		c.CitationTool = tools.SearchPapersToolName
	}
	return c
}

// Result is the outcome of a run that reached DONE
type Result struct {
	Question     string
	FinalText    string
	CitedPapers  []papers.Paper
	TurnCount    int
	Truncated    bool
	State        State
	Usage        llmtypes.TokenUsage
	Conversation []Turn
}

// Orchestrator answers questions by alternating model calls and tool
// dispatch. It holds no per-run state; one instance serves concurrent runs.
type Orchestrator struct {
	client   llm.LLMClient
	registry ToolDispatcher
	cfg      Config
	logger   *logging.Logger
}

// New creates an orchestrator
func New(client llm.LLMClient, registry ToolDispatcher, cfg Config, logger *logging.Logger) *Orchestrator {
	return &Orchestrator{
		client:   client,
		registry: registry,
		cfg:      cfg.withDefaults(),
		logger:   logging.OrNop(logger).Named("orchestrator"),
	}
}

// run is the mutable state of one Run call
type run struct {
	conv      *Conversation
	state     State
	turns     int
	lastText  string
	usage     llmtypes.TokenUsage
	pending   []tools.ToolCall
	startedAt time.Time
}

// Run answers question. It returns an error only when the model cannot be
// used (ModelUnavailableError, ModelProtocolError) or ctx is cancelled. An
// exhausted turn bound or budget yields a truncated Result.
func (o *Orchestrator) Run(ctx context.Context, question string) (*Result, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, errors.NewError("question is empty", errors.ExitValidationError)
	}

	budgetCtx, cancel := context.WithTimeoutCause(ctx, o.cfg.Budget,
		errors.NewOrchestrationTimeoutError(o.cfg.Budget.Seconds()))
	defer cancel()

	r := &run{
		conv:      NewConversation(question),
		state:     AwaitingModel,
		startedAt: time.Now(),
	}
	o.logger.Info("orchestration started",
		logging.Int("max_turns", o.cfg.MaxTurns),
		logging.Duration("budget", o.cfg.Budget))

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if budgetCtx.Err() != nil {
			o.logger.Warn("orchestration budget exhausted",
				logging.Error(context.Cause(budgetCtx)),
				logging.Int("turn", r.turns))
			return o.finish(r, "", true), nil
		}

		switch r.state {
		case AwaitingModel:
			rep, err := o.awaitModel(budgetCtx, r)
			if err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				if budgetCtx.Err() != nil {
					continue
				}
				o.transition(r, Failed, 0)
				o.logger.Error("model call failed", logging.Int("turn", r.turns), logging.Error(err))
				return nil, err
			}

			switch rep := rep.(type) {
			case textReply:
				o.transition(r, Done, 0)
				return o.finish(r, rep.text, false), nil
			case toolCallReply:
				if r.turns >= o.cfg.MaxTurns {
					o.logger.Warn("turn limit reached with tool calls outstanding",
						logging.Int("turn", r.turns),
						logging.Int("tool_calls", len(rep.calls)))
					o.transition(r, Done, len(rep.calls))
					return o.finish(r, "", true), nil
				}
				r.pending = rep.calls
				o.transition(r, ExecutingTools, len(rep.calls))
			}

		case ExecutingTools:
			if err := o.executeTools(budgetCtx, r); err != nil {
				return nil, err
			}
			o.transition(r, AwaitingModel, 0)
		}
	}
}

// awaitModel performs one model round-trip and appends the assistant turn
func (o *Orchestrator) awaitModel(budgetCtx context.Context, r *run) (reply, error) {
	r.turns++
	callCtx, cancel := context.WithTimeout(budgetCtx, o.cfg.ModelTimeout)
	defer cancel()

	start := time.Now()
	resp, err := o.client.GenerateCompletion(callCtx, llmtypes.CompletionRequest{
		SystemPrompt: o.cfg.SystemPrompt,
		Messages:     r.conv.Messages(),
		Tools:        o.registry.Definitions(),
		MaxTokens:    o.cfg.MaxTokens,
		Temperature:  o.cfg.Temperature,
	})
	if err != nil {
		return nil, classifyModelError(o.client.GetProvider(), err)
	}
	r.usage.Add(resp.Usage)

	rep, err := decodeReply(o.client.GetProvider(), resp)
	if err != nil {
		return nil, err
	}

	msg := rep.assistantMessage()
	if err := r.conv.Append(msg); err != nil {
		return nil, errors.NewModelProtocolError(o.client.GetProvider(), "reply does not fit the conversation", err)
	}
	if msg.Text != "" {
		r.lastText = msg.Text
	}

	o.logger.Debug("model replied",
		logging.Int("turn", r.turns),
		logging.Int("tool_calls", len(msg.ToolCalls)),
		logging.Int("input_tokens", resp.Usage.InputTokens),
		logging.Int("output_tokens", resp.Usage.OutputTokens),
		logging.Duration("duration", time.Since(start)))
	return rep, nil
}

// executeTools dispatches the pending calls concurrently and appends the
// outcomes in the order the calls were issued.
func (o *Orchestrator) executeTools(ctx context.Context, r *run) error {
	calls := r.pending
	r.pending = nil

	tasks := make([]worker_pool.Task[tools.ToolResult], len(calls))
	for i, call := range calls {
		tasks[i] = func(ctx context.Context) (tools.ToolResult, error) {
			return o.registry.Dispatch(ctx, call), nil
		}
	}

	pool := worker_pool.Bounded(o.cfg.MaxToolConcurrency, len(calls))
	results := worker_pool.Run(ctx, pool, tasks)

	for i, call := range calls {
		res := results[i].Value
		if results[i].Error != nil {
			// Never started because the run was cut short
			res = tools.ToolResult{
				ToolName: call.Name,
				Content:  "Error: tool call was not executed: " + results[i].Error.Error(),
				IsError:  true,
			}
		}
		res.CallID = call.ID
		if err := r.conv.Append(ToolOutcome{CallID: call.ID, Result: res}); err != nil {
			return fmt.Errorf("recording tool outcome: %w", err)
		}
	}
	return nil
}

func (o *Orchestrator) transition(r *run, to State, toolCalls int) {
	o.logger.Debug("state transition",
		logging.String("from", r.state.String()),
		logging.String("state", to.String()),
		logging.Int("turn", r.turns),
		logging.Int("tool_calls", toolCalls),
		logging.Duration("duration", time.Since(r.startedAt)))
	r.state = to
}

// finish builds the DONE result. A truncated run answers with the last
// assistant text seen, or the fallback text.
func (o *Orchestrator) finish(r *run, text string, truncated bool) *Result {
	r.state = Done
	if truncated {
		text = r.lastText
		if text == "" {
			text = o.cfg.FallbackText
		}
	}

	turns := r.conv.Turns()
	result := &Result{
		Question:     turns[0].(UserMessage).Text,
		FinalText:    text,
		CitedPapers:  extractCitations(turns, o.cfg.CitationTool, text),
		TurnCount:    r.turns,
		Truncated:    truncated,
		State:        Done,
		Usage:        r.usage,
		Conversation: turns,
	}

	o.logger.Info("orchestration finished",
		logging.String("state", Done.String()),
		logging.Int("turn", r.turns),
		logging.Bool("truncated", truncated),
		logging.Int("cited_papers", len(result.CitedPapers)),
		logging.Int("total_tokens", r.usage.TotalTokens),
		logging.Duration("duration", time.Since(r.startedAt)))
	return result
}

// classifyModelError keeps the two fatal model error types and wraps
// anything else as unavailability.
func classifyModelError(provider string, err error) error {
	var unavailable *errors.ModelUnavailableError
	var protocol *errors.ModelProtocolError
	if stderrors.As(err, &unavailable) || stderrors.As(err, &protocol) {
		return err
	}
	return errors.NewModelUnavailableError(provider, 0, err)
}
