package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/user/thesisherald/internal/config"
	"github.com/user/thesisherald/internal/errors"
)

// GeminiClient implements LLMClient for Google Gemini
type GeminiClient struct {
	*BaseLLMClient
	apiKey  string
	model   string
	baseURL string
}

// geminiRequest represents the request body for Gemini API
type geminiRequest struct {
	Contents          []geminiContent        `json:"contents"`
	Tools             []geminiTool           `json:"tools,omitempty"`
	GenerationConfig  geminiGenerationConfig `json:"generationConfig,omitempty"`
	SystemInstruction *geminiContent         `json:"systemInstruction,omitempty"`
}

// geminiContent represents content in Gemini format
type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

// geminiPart represents a part of content
type geminiPart struct {
	Text             string                  `json:"text,omitempty"`
	FunctionCall     *geminiFunctionCall     `json:"functionCall,omitempty"`
	FunctionResponse *geminiFunctionResponse `json:"functionResponse,omitempty"`
	ThoughtSignature string                  `json:"thoughtSignature,omitempty"` // Required for Gemini 3 function calling
}

// geminiFunctionCall is a complete call; Gemini never streams partial arguments
type geminiFunctionCall struct {
	Name string                 `json:"name"`
	Args map[string]interface{} `json:"args"`
}

// geminiFunctionResponse represents a function response
// Gemini format: {"name": "function_name", "response": {...}}
type geminiFunctionResponse struct {
	Name     string                 `json:"name"`
	Response map[string]interface{} `json:"response,omitempty"`
}

// geminiTool represents a tool declaration
type geminiTool struct {
	FunctionDeclarations []geminiFunctionDeclaration `json:"functionDeclarations,omitempty"`
}

// geminiFunctionDeclaration represents a function declaration
type geminiFunctionDeclaration struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Parameters  map[string]interface{} `json:"parameters"`
}

// geminiGenerationConfig represents generation configuration
type geminiGenerationConfig struct {
	Temperature     float64 `json:"temperature,omitempty"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

// geminiUsageMetadata represents token usage
type geminiUsageMetadata struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
	TotalTokenCount      int `json:"totalTokenCount"`
}

// geminiError represents an error
type geminiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

// geminiStreamChunk is one SSE data payload of streamGenerateContent?alt=sse
type geminiStreamChunk struct {
	Candidates    []geminiStreamCandidate `json:"candidates"`
	UsageMetadata *geminiUsageMetadata    `json:"usageMetadata,omitempty"`
	Error         *geminiError            `json:"error,omitempty"`
}

// geminiStreamCandidate represents a candidate in a streaming chunk
type geminiStreamCandidate struct {
	Content      geminiContent `json:"content"`
	FinishReason *string       `json:"finishReason,omitempty"`
	Index        int           `json:"index"`
}

// geminiAccumulator builds CompletionResponse from streaming chunks
type geminiAccumulator struct {
	textBuilder  strings.Builder
	toolCalls    []ToolCall
	usage        geminiUsageMetadata
	finishReason string
	complete     bool
}

func newGeminiAccumulator() *geminiAccumulator {
	return &geminiAccumulator{}
}

// HandleChunk processes a single streaming chunk
func (a *geminiAccumulator) HandleChunk(chunk geminiStreamChunk) error {
	if chunk.Error != nil {
		return fmt.Errorf("API error %d: %s", chunk.Error.Code, chunk.Error.Message)
	}

	if chunk.UsageMetadata != nil {
		a.usage = *chunk.UsageMetadata
	}

	if len(chunk.Candidates) == 0 {
		return nil
	}

	candidate := chunk.Candidates[0]

	if candidate.FinishReason != nil && *candidate.FinishReason == "SAFETY" {
		return fmt.Errorf("response blocked for safety reasons")
	}

	for _, part := range candidate.Content.Parts {
		if part.Text != "" {
			a.textBuilder.WriteString(part.Text)
		}
		if part.FunctionCall != nil {
			args := part.FunctionCall.Args
			if args == nil {
				args = map[string]interface{}{}
			}
			a.toolCalls = append(a.toolCalls, ToolCall{
				Name:      part.FunctionCall.Name,
				Arguments: args,
				RawFunctionCall: map[string]interface{}{
					"name": part.FunctionCall.Name,
					"args": args,
				},
				ThoughtSignature: part.ThoughtSignature,
			})
		}
	}

	if candidate.FinishReason != nil {
		a.finishReason = *candidate.FinishReason
		a.complete = true
	}

	return nil
}

// Build constructs the final CompletionResponse
func (a *geminiAccumulator) Build() CompletionResponse {
	return CompletionResponse{
		Content:    a.textBuilder.String(),
		ToolCalls:  a.toolCalls,
		StopReason: a.finishReason,
		Usage: TokenUsage{
			InputTokens:  a.usage.PromptTokenCount,
			OutputTokens: a.usage.CandidatesTokenCount,
			TotalTokens:  a.usage.TotalTokenCount,
		},
	}
}

// IsComplete returns true if finishReason was received
func (a *geminiAccumulator) IsComplete() bool {
	return a.complete
}

// NewGeminiClient creates a new Gemini client
func NewGeminiClient(cfg config.LLMConfig, retryClient *RetryClient) *GeminiClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com"
	}
	return &GeminiClient{
		BaseLLMClient: NewBaseLLMClient("gemini", retryClient),
		apiKey:        cfg.APIKey,
		model:         cfg.Model,
		baseURL:       baseURL,
	}
}

// GenerateCompletion generates a completion from Gemini
func (c *GeminiClient) GenerateCompletion(ctx context.Context, req CompletionRequest) (CompletionResponse, error) {
	gemReq := c.convertRequest(req)

	modelName := c.model
	if !strings.HasPrefix(modelName, "models/") {
		modelName = "models/" + modelName
	}
	endpoint := fmt.Sprintf("%s/v1beta/%s:streamGenerateContent?alt=sse&key=%s", c.baseURL, modelName, url.QueryEscape(c.apiKey))

	resp, err := c.doHTTPRequest(ctx, http.MethodPost, endpoint, nil, gemReq)
	if err != nil {
		return CompletionResponse{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	return c.parseStreamingResponse(ctx, resp.Body)
}

// parseStreamingResponse reads the SSE stream produced with alt=sse
func (c *GeminiClient) parseStreamingResponse(ctx context.Context, body io.Reader) (CompletionResponse, error) {
	parser := NewSSEParser(body)
	accumulator := newGeminiAccumulator()

	for {
		event, err := parser.NextEvent()
		if err == io.EOF {
			break
		}
		if err != nil {
			if ctx.Err() != nil {
				return CompletionResponse{}, errors.NewModelUnavailableError(c.provider, 0, ctx.Err())
			}
			return CompletionResponse{}, c.protocolError("stream reading error", err)
		}
		if len(event.Data) == 0 || IsSSEDone(event.Data) {
			continue
		}

		var chunk geminiStreamChunk
		if err := json.Unmarshal(event.Data, &chunk); err != nil {
			return CompletionResponse{}, c.protocolError("failed to parse stream chunk", err)
		}

		if err := accumulator.HandleChunk(chunk); err != nil {
			if chunk.Error != nil {
				return CompletionResponse{}, errors.NewModelUnavailableError(c.provider, chunk.Error.Code, err)
			}
			return CompletionResponse{}, c.protocolError("chunk handling error", err)
		}
	}

	// Usage metadata may arrive after finishReason, so the whole stream is read
	if !accumulator.IsComplete() {
		return CompletionResponse{}, c.protocolError("stream ended without finishReason", nil)
	}

	return accumulator.Build(), nil
}

// SupportsTools returns true
func (c *GeminiClient) SupportsTools() bool {
	return true
}

// GetProvider returns the provider name
func (c *GeminiClient) GetProvider() string {
	return "gemini"
}

// convertRequest converts internal request to Gemini format
func (c *GeminiClient) convertRequest(req CompletionRequest) geminiRequest {
	contents := []geminiContent{}

	for _, msg := range req.Messages {
		switch msg.Role {
		case "tool":
			part := geminiPart{
				FunctionResponse: &geminiFunctionResponse{
					Name:     msg.ToolName,
					Response: map[string]interface{}{"result": msg.Content},
				},
			}
			if msg.IsError {
				part.FunctionResponse.Response = map[string]interface{}{"error": msg.Content}
			}
			// Responses to one model turn travel together in a single user content
			if n := len(contents); n > 0 && contents[n-1].Role == "user" && contents[n-1].Parts[0].FunctionResponse != nil {
				contents[n-1].Parts = append(contents[n-1].Parts, part)
				continue
			}
			contents = append(contents, geminiContent{Role: "user", Parts: []geminiPart{part}})
		case "assistant":
			var parts []geminiPart
			if msg.Content != "" {
				parts = append(parts, geminiPart{Text: msg.Content})
			}
			for _, tc := range msg.ToolCalls {
				args := tc.Arguments
				if args == nil {
					args = map[string]interface{}{}
				}
				parts = append(parts, geminiPart{
					FunctionCall:     &geminiFunctionCall{Name: tc.Name, Args: args},
					ThoughtSignature: tc.ThoughtSignature,
				})
			}
			if len(parts) > 0 {
				contents = append(contents, geminiContent{Role: "model", Parts: parts})
			}
		case "user":
			if msg.Content == "" {
				continue
			}
			contents = append(contents, geminiContent{
				Role:  "user",
				Parts: []geminiPart{{Text: msg.Content}},
			})
		}
	}

	var tools []geminiTool
	if len(req.Tools) > 0 {
		functions := make([]geminiFunctionDeclaration, len(req.Tools))
		for i, tool := range req.Tools {
			functions[i] = geminiFunctionDeclaration{
				Name:        tool.Name,
				Description: tool.Description,
				Parameters:  tool.Parameters,
			}
		}
		tools = []geminiTool{{FunctionDeclarations: functions}}
	}

	gemReq := geminiRequest{
		Contents: contents,
		Tools:    tools,
		GenerationConfig: geminiGenerationConfig{
			Temperature:     req.Temperature,
			MaxOutputTokens: req.MaxTokens,
		},
	}
	if req.SystemPrompt != "" {
		gemReq.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: req.SystemPrompt}}}
	}
	return gemReq
}
