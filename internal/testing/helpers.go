package testing

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/user/thesisherald/internal/llmtypes"
)

// MockLLMClient is a scripted, concurrency-safe LLM client.
// Each call consumes the next entry of Responses (the last one repeats);
// Errors, when set for an index, are returned instead.
type MockLLMClient struct {
	mu             sync.Mutex
	Responses      []llmtypes.CompletionResponse
	Errors         map[int]error
	Delay          time.Duration
	Provider       string
	callCount      int
	requestHistory []llmtypes.CompletionRequest
}

// NewMockLLMClient creates a new mock LLM client with predefined responses
func NewMockLLMClient(responses ...llmtypes.CompletionResponse) *MockLLMClient {
	return &MockLLMClient{Responses: responses, Errors: map[int]error{}}
}

// GenerateCompletion replays the script. With Delay set it blocks until the
// delay passes or ctx is done.
func (m *MockLLMClient) GenerateCompletion(ctx context.Context, req llmtypes.CompletionRequest) (llmtypes.CompletionResponse, error) {
	m.mu.Lock()
	call := m.callCount
	m.callCount++
	m.requestHistory = append(m.requestHistory, cloneRequest(req))
	delay := m.Delay
	m.mu.Unlock()

	if delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return llmtypes.CompletionResponse{}, ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.Errors[call]; ok {
		return llmtypes.CompletionResponse{}, err
	}
	if len(m.Responses) == 0 {
		return llmtypes.CompletionResponse{}, fmt.Errorf("no responses configured")
	}
	if call >= len(m.Responses) {
		return m.Responses[len(m.Responses)-1], nil
	}
	return m.Responses[call], nil
}

// SupportsTools implements llm.LLMClient
func (m *MockLLMClient) SupportsTools() bool {
	return true
}

// GetProvider implements llm.LLMClient
func (m *MockLLMClient) GetProvider() string {
	if m.Provider == "" {
		return "mock"
	}
	return m.Provider
}

// CallCount returns how many completions were requested.
func (m *MockLLMClient) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// Requests returns a copy of every request received, in order.
func (m *MockLLMClient) Requests() []llmtypes.CompletionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]llmtypes.CompletionRequest, len(m.requestHistory))
	copy(out, m.requestHistory)
	return out
}

// LastRequest returns the most recent request.
func (m *MockLLMClient) LastRequest() llmtypes.CompletionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.requestHistory) == 0 {
		return llmtypes.CompletionRequest{}
	}
	return m.requestHistory[len(m.requestHistory)-1]
}

func cloneRequest(req llmtypes.CompletionRequest) llmtypes.CompletionRequest {
	req.Messages = append([]llmtypes.Message(nil), req.Messages...)
	req.Tools = append([]llmtypes.ToolDefinition(nil), req.Tools...)
	return req
}

// TextResponse is a final answer without tool calls.
func TextResponse(text string) llmtypes.CompletionResponse {
	return llmtypes.CompletionResponse{Content: text, StopReason: "end_turn"}
}

// ToolCallResponse asks for the given tool calls, with optional preamble text.
func ToolCallResponse(text string, calls ...llmtypes.ToolCall) llmtypes.CompletionResponse {
	return llmtypes.CompletionResponse{Content: text, ToolCalls: calls, StopReason: "tool_use"}
}

// Call builds a tool call.
func Call(id, name string, args map[string]interface{}) llmtypes.ToolCall {
	if args == nil {
		args = map[string]interface{}{}
	}
	return llmtypes.ToolCall{ID: id, Name: name, Arguments: args}
}
