package llm

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/user/thesisherald/internal/errors"
	"github.com/user/thesisherald/internal/llmtypes"
)

// Type aliases so callers only import llm
type Message = llmtypes.Message
type ToolCall = llmtypes.ToolCall
type CompletionRequest = llmtypes.CompletionRequest
type CompletionResponse = llmtypes.CompletionResponse
type TokenUsage = llmtypes.TokenUsage
type ToolDefinition = llmtypes.ToolDefinition

// LLMClient is the interface for LLM providers.
//
// Implementations report failures as *errors.ModelUnavailableError (transport,
// auth, quota, non-2xx) or *errors.ModelProtocolError (undecodable output).
type LLMClient interface {
	// GenerateCompletion generates a completion from the LLM
	GenerateCompletion(ctx context.Context, req CompletionRequest) (CompletionResponse, error)

	// SupportsTools returns true if the client supports tool calling
	SupportsTools() bool

	// GetProvider returns the provider name
	GetProvider() string
}

// BaseLLMClient provides common functionality for all LLM clients
type BaseLLMClient struct {
	retryClient *RetryClient
	provider    string
}

// NewBaseLLMClient creates a new base LLM client
func NewBaseLLMClient(provider string, retryClient *RetryClient) *BaseLLMClient {
	if retryClient == nil {
		retryClient = NewRetryClient(nil)
	}
	return &BaseLLMClient{
		retryClient: retryClient,
		provider:    provider,
	}
}

// doHTTPRequest marshals payload, sends it through the retry client and
// returns a 200 response. Every other outcome is converted into a
// ModelUnavailableError. The caller must close resp.Body.
func (b *BaseLLMClient) doHTTPRequest(
	ctx context.Context,
	method string,
	url string,
	headers map[string]string,
	payload interface{},
) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		jsonData, err := json.Marshal(payload)
		if err != nil {
			return nil, errors.NewModelProtocolError(b.provider, "failed to marshal request", err)
		}
		body = bytes.NewReader(jsonData)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, errors.NewModelUnavailableError(b.provider, 0, fmt.Errorf("failed to create request: %w", err))
	}

	httpReq.Header.Set("Content-Type", "application/json")
	for key, value := range headers {
		httpReq.Header.Set(key, value)
	}

	resp, err := b.retryClient.Do(httpReq)
	if err != nil {
		var statusErr *StatusError
		if stderrors.As(err, &statusErr) {
			return nil, errors.NewModelUnavailableError(b.provider, statusErr.StatusCode, err)
		}
		return nil, errors.NewModelUnavailableError(b.provider, 0, err)
	}

	if resp.StatusCode != http.StatusOK {
		defer func() { _ = resp.Body.Close() }()
		return nil, b.statusError(resp)
	}

	return resp, nil
}

// statusError extracts the provider's error message from a non-200 body.
func (b *BaseLLMClient) statusError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))

	// Anthropic: {"type":"error","error":{"message":...}}
	// OpenAI:    {"error":{"message":...}}
	// Gemini:    {"error":{"code":..,"message":...}} or [{"error":...}]
	var envelope struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	msg := strings.TrimSpace(string(raw))
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var list []json.RawMessage
		if json.Unmarshal(trimmed, &list) == nil && len(list) > 0 {
			trimmed = list[0]
		}
	}
	if json.Unmarshal(trimmed, &envelope) == nil && envelope.Error.Message != "" {
		msg = envelope.Error.Message
	}

	return errors.NewModelUnavailableError(b.provider, resp.StatusCode,
		fmt.Errorf("API error: status %d: %s", resp.StatusCode, msg))
}

// protocolError builds a ModelProtocolError for this provider.
func (b *BaseLLMClient) protocolError(reason string, cause error) error {
	return errors.NewModelProtocolError(b.provider, reason, cause)
}

func secondsToDuration(s int) time.Duration {
	return time.Duration(s) * time.Second
}
