package tools

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/user/thesisherald/internal/errors"
	"github.com/user/thesisherald/internal/llmtypes"
	"github.com/user/thesisherald/internal/logging"
)

const (
	DefaultTimeout      = 10 * time.Second
	DefaultMaxRetries   = 1
	DefaultRetryBackoff = 500 * time.Millisecond
)

// DispatchOptions bound every tool invocation
type DispatchOptions struct {
	Timeout      time.Duration // per attempt
	MaxRetries   int           // retries after the first attempt, transient failures only
	RetryBackoff time.Duration // fixed delay between attempts
}

func (o DispatchOptions) withDefaults() DispatchOptions {
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.MaxRetries < 0 {
		o.MaxRetries = 0
	}
	if o.RetryBackoff < 0 {
		o.RetryBackoff = 0
	}
	return o
}

// DefaultDispatchOptions returns the standard bounds
func DefaultDispatchOptions() DispatchOptions {
	return DispatchOptions{
		Timeout:      DefaultTimeout,
		MaxRetries:   DefaultMaxRetries,
		RetryBackoff: DefaultRetryBackoff,
	}
}

// Registry holds the tools the model may call. It is safe for concurrent
// Dispatch once registration is complete.
type Registry struct {
	mu     sync.RWMutex
	specs  map[string]ToolSpec
	order  []string
	opts   DispatchOptions
	logger *logging.Logger
}

// NewRegistry creates an empty registry
func NewRegistry(opts DispatchOptions, logger *logging.Logger) *Registry {
	return &Registry{
		specs:  make(map[string]ToolSpec),
		opts:   opts.withDefaults(),
		logger: logging.OrNop(logger).Named("tools"),
	}
}

// Register adds a tool. Specs are validated here, before any call is made.
func (r *Registry) Register(spec ToolSpec) error {
	if err := spec.validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.specs[spec.Name]; exists {
		return errors.NewDuplicateToolError(spec.Name)
	}
	r.specs[spec.Name] = spec
	r.order = append(r.order, spec.Name)
	return nil
}

// Describe returns the registered specs in registration order
func (r *Registry) Describe() []ToolSpec {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]ToolSpec, len(r.order))
	for i, name := range r.order {
		out[i] = r.specs[name]
	}
	return out
}

// Names returns the registered tool names in registration order
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// Definitions renders the tools as JSON Schema definitions for the model
func (r *Registry) Definitions() []llmtypes.ToolDefinition {
	specs := r.Describe()
	defs := make([]llmtypes.ToolDefinition, len(specs))
	for i, spec := range specs {
		defs[i] = spec.Definition()
	}
	return defs
}

// Dispatch runs a call and always returns a result. Unknown tools, invalid
// arguments and handler failures come back with IsError set.
func (r *Registry) Dispatch(ctx context.Context, call ToolCall) ToolResult {
	result := ToolResult{CallID: call.ID, ToolName: call.Name}

	r.mu.RLock()
	spec, ok := r.specs[call.Name]
	r.mu.RUnlock()
	if !ok {
		err := errors.NewUnknownToolError(call.Name, r.Names())
		r.logger.Warn("model called unknown tool", logging.String("tool", call.Name))
		return failed(result, err)
	}

	raw := call.Arguments
	if raw == nil {
		raw = map[string]interface{}{}
	}
	if problems := validateArguments(spec, raw); len(problems) > 0 {
		err := errors.NewToolArgumentError(call.Name, problems)
		r.logger.Warn("invalid tool arguments",
			logging.String("tool", call.Name),
			logging.Strings("problems", problems))
		return failed(result, err)
	}

	start := time.Now()
	out, attempts, err := r.invoke(ctx, spec, Arguments(raw))
	result.Attempts = attempts
	if err != nil {
		r.logger.Warn("tool call failed",
			logging.String("tool", call.Name),
			logging.String("call_id", call.ID),
			logging.Int("attempts", attempts),
			logging.Duration("duration", time.Since(start)),
			logging.Error(err))
		return failed(result, errors.NewToolExecutionError(call.Name, err))
	}

	r.logger.Debug("tool call completed",
		logging.String("tool", call.Name),
		logging.String("call_id", call.ID),
		logging.Int("attempts", attempts),
		logging.Duration("duration", time.Since(start)))

	result.Content = TruncateString(out.Content, MaxToolResponseSize)
	result.Papers = out.Papers
	return result
}

// invoke runs the handler under the per-attempt timeout and retries
// transient failures while the caller's context is still live.
func (r *Registry) invoke(ctx context.Context, spec ToolSpec, args Arguments) (Output, int, error) {
	var lastErr error
	attempts := 0

	for attempt := 0; attempt <= r.opts.MaxRetries; attempt++ {
		if attempt > 0 {
			if !sleep(ctx, r.opts.RetryBackoff) {
				break
			}
		}
		if ctx.Err() != nil {
			break
		}

		attempts++
		out, err := r.attempt(ctx, spec, args)
		if err == nil {
			return out, attempts, nil
		}
		lastErr = err

		if ctx.Err() != nil || !IsTransient(err) {
			break
		}
		if attempt < r.opts.MaxRetries {
			r.logger.Debug("retrying tool call",
				logging.String("tool", spec.Name),
				logging.Int("attempt", attempts),
				logging.Error(err))
		}
	}

	if lastErr == nil {
		lastErr = ctx.Err()
	}
	return Output{}, attempts, lastErr
}

// attempt runs the handler once. A handler that overruns its deadline is
// abandoned; its late answer is discarded.
func (r *Registry) attempt(ctx context.Context, spec ToolSpec, args Arguments) (Output, error) {
	callCtx, cancel := context.WithTimeout(ctx, r.opts.Timeout)
	defer cancel()

	type outcome struct {
		out Output
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		var o outcome
		defer func() {
			if p := recover(); p != nil {
				o.err = fmt.Errorf("tool panicked: %v", p)
			}
			done <- o
		}()
		o.out, o.err = spec.Handler(callCtx, args)
	}()

	select {
	case o := <-done:
		if o.err != nil && ctx.Err() == nil && callCtx.Err() == context.DeadlineExceeded {
			return Output{}, fmt.Errorf("timed out after %s: %w", r.opts.Timeout, context.DeadlineExceeded)
		}
		return o.out, o.err
	case <-callCtx.Done():
		if ctx.Err() != nil {
			return Output{}, ctx.Err()
		}
		return Output{}, fmt.Errorf("timed out after %s: %w", r.opts.Timeout, context.DeadlineExceeded)
	}
}

func failed(result ToolResult, err error) ToolResult {
	result.IsError = true
	result.Content = "Error: " + err.Error()
	return result
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// validate rejects malformed specs at registration time
func (s ToolSpec) validate() error {
	name := strings.TrimSpace(s.Name)
	if name == "" {
		return errors.NewToolSpecError(s.Name, "name is empty")
	}
	if name != s.Name || strings.ContainsAny(name, " \t\n") {
		return errors.NewToolSpecError(s.Name, "name must not contain whitespace")
	}
	if s.Handler == nil {
		return errors.NewToolSpecError(s.Name, "handler is nil")
	}
	for pname, p := range s.Params {
		if pname == "" {
			return errors.NewToolSpecError(s.Name, "parameter with empty name")
		}
		if !p.Type.valid() {
			return errors.NewToolSpecError(s.Name, fmt.Sprintf("parameter %q has unsupported type %q", pname, p.Type))
		}
		if p.Type == TypeArray {
			if !p.Items.valid() || p.Items == TypeArray {
				return errors.NewToolSpecError(s.Name, fmt.Sprintf("array parameter %q needs a scalar item type", pname))
			}
		}
	}
	for _, pname := range s.Order {
		if _, ok := s.Params[pname]; !ok {
			return errors.NewToolSpecError(s.Name, fmt.Sprintf("order lists undeclared parameter %q", pname))
		}
	}
	return nil
}

// paramOrder lists parameter names: Order first, then the rest alphabetically.
func (s ToolSpec) paramOrder() []string {
	seen := make(map[string]bool, len(s.Params))
	names := make([]string, 0, len(s.Params))
	for _, name := range s.Order {
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	var rest []string
	for name := range s.Params {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(names, rest...)
}

// Definition renders the tool as a JSON Schema definition
func (s ToolSpec) Definition() llmtypes.ToolDefinition {
	properties := map[string]interface{}{}
	required := []string{}
	for _, name := range s.paramOrder() {
		p := s.Params[name]
		prop := map[string]interface{}{"type": string(p.Type)}
		if p.Description != "" {
			prop["description"] = p.Description
		}
		if p.Type == TypeArray {
			prop["items"] = map[string]interface{}{"type": string(p.Items)}
		}
		properties[name] = prop
		if p.Required {
			required = append(required, name)
		}
	}
	return llmtypes.ToolDefinition{
		Name:        s.Name,
		Description: s.Description,
		Parameters: map[string]interface{}{
			"type":       "object",
			"properties": properties,
			"required":   required,
		},
	}
}
