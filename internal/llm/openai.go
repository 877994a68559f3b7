package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/user/thesisherald/internal/config"
)

// OpenAIClient implements LLMClient for OpenAI-compatible APIs
type OpenAIClient struct {
	*BaseLLMClient
	apiKey  string
	baseURL string
	model   string
}

// openaiRequest represents the request body for OpenAI API
type openaiRequest struct {
	Model       string          `json:"model"`
	Messages    []openaiMessage `json:"messages"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
	Temperature float64         `json:"temperature"`
	Tools       []openaiTool    `json:"tools,omitempty"`
}

// openaiMessage represents a message in OpenAI format. Content is a pointer
// because assistant messages carrying only tool_calls send null.
type openaiMessage struct {
	Role       string           `json:"role"`
	Content    *string          `json:"content"`
	ToolCalls  []openaiToolCall `json:"tool_calls,omitempty"`
	ToolCallID string           `json:"tool_call_id,omitempty"`
}

// openaiTool represents a tool definition in OpenAI format
type openaiTool struct {
	Type     string             `json:"type"`
	Function openaiToolFunction `json:"function"`
}

// openaiToolFunction represents tool function parameters
type openaiToolFunction struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Parameters  map[string]interface{} `json:"parameters"`
}

// openaiToolCall represents a tool call in OpenAI format
type openaiToolCall struct {
	ID       string             `json:"id"`
	Type     string             `json:"type"`
	Function openaiToolCallFunc `json:"function"`
}

// openaiToolCallFunc carries the arguments as a JSON-encoded string
type openaiToolCallFunc struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// openaiResponse represents the response from OpenAI API
type openaiResponse struct {
	ID      string             `json:"id"`
	Model   string             `json:"model"`
	Choices []openaiChoice     `json:"choices"`
	Usage   openaiUsage        `json:"usage"`
	Error   *openaiErrorDetail `json:"error,omitempty"`
}

// openaiChoice represents a choice in the response
type openaiChoice struct {
	Index        int           `json:"index"`
	Message      openaiMessage `json:"message"`
	FinishReason string        `json:"finish_reason"`
}

// openaiUsage represents token usage
type openaiUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// openaiErrorDetail represents an error from OpenAI
type openaiErrorDetail struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// NewOpenAIClient creates a new OpenAI client
func NewOpenAIClient(cfg config.LLMConfig, retryClient *RetryClient) *OpenAIClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}

	return &OpenAIClient{
		BaseLLMClient: NewBaseLLMClient("openai", retryClient),
		apiKey:        cfg.APIKey,
		baseURL:       baseURL,
		model:         cfg.Model,
	}
}

// GenerateCompletion generates a completion from OpenAI
func (c *OpenAIClient) GenerateCompletion(ctx context.Context, req CompletionRequest) (CompletionResponse, error) {
	oaReq := c.convertRequest(req)

	url := fmt.Sprintf("%s/chat/completions", c.baseURL)
	headers := map[string]string{
		"Authorization": fmt.Sprintf("Bearer %s", c.apiKey),
	}

	resp, err := c.doHTTPRequest(ctx, http.MethodPost, url, headers, oaReq)
	if err != nil {
		return CompletionResponse{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return CompletionResponse{}, c.protocolError("failed to read response", err)
	}

	var oaResp openaiResponse
	if err := json.Unmarshal(body, &oaResp); err != nil {
		return CompletionResponse{}, c.protocolError("failed to parse response", err)
	}

	if oaResp.Error != nil {
		return CompletionResponse{}, c.protocolError("API error: "+oaResp.Error.Message, nil)
	}

	return c.convertResponse(oaResp)
}

// SupportsTools returns true
func (c *OpenAIClient) SupportsTools() bool {
	return true
}

// GetProvider returns the provider name
func (c *OpenAIClient) GetProvider() string {
	return "openai"
}

// convertRequest converts internal request to OpenAI format
func (c *OpenAIClient) convertRequest(req CompletionRequest) openaiRequest {
	messages := []openaiMessage{}

	if req.SystemPrompt != "" {
		messages = append(messages, openaiMessage{
			Role:    "system",
			Content: stringPtr(req.SystemPrompt),
		})
	}

	for _, msg := range req.Messages {
		switch msg.Role {
		case "assistant":
			out := openaiMessage{Role: "assistant"}
			if msg.Content != "" || len(msg.ToolCalls) == 0 {
				out.Content = stringPtr(msg.Content)
			}
			for _, tc := range msg.ToolCalls {
				args, err := json.Marshal(tc.Arguments)
				if err != nil || tc.Arguments == nil {
					args = []byte("{}")
				}
				out.ToolCalls = append(out.ToolCalls, openaiToolCall{
					ID:   tc.ID,
					Type: "function",
					Function: openaiToolCallFunc{
						Name:      tc.Name,
						Arguments: string(args),
					},
				})
			}
			messages = append(messages, out)
		case "tool":
			messages = append(messages, openaiMessage{
				Role:       "tool",
				Content:    stringPtr(msg.Content),
				ToolCallID: msg.ToolID,
			})
		default:
			messages = append(messages, openaiMessage{
				Role:    msg.Role,
				Content: stringPtr(msg.Content),
			})
		}
	}

	oaReq := openaiRequest{
		Model:       c.model,
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}

	if len(req.Tools) > 0 {
		oaReq.Tools = make([]openaiTool, len(req.Tools))
		for i, tool := range req.Tools {
			oaReq.Tools[i] = openaiTool{
				Type: "function",
				Function: openaiToolFunction{
					Name:        tool.Name,
					Description: tool.Description,
					Parameters:  tool.Parameters,
				},
			}
		}
	}

	return oaReq
}

// convertResponse converts OpenAI response to internal format
func (c *OpenAIClient) convertResponse(resp openaiResponse) (CompletionResponse, error) {
	usage := TokenUsage{
		InputTokens:  resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
		TotalTokens:  resp.Usage.TotalTokens,
	}
	if len(resp.Choices) == 0 {
		return CompletionResponse{}, c.protocolError("response has no choices", nil)
	}

	choice := resp.Choices[0]
	result := CompletionResponse{
		StopReason: choice.FinishReason,
		Usage:      usage,
	}
	if choice.Message.Content != nil {
		result.Content = *choice.Message.Content
	}

	for _, tc := range choice.Message.ToolCalls {
		args := map[string]interface{}{}
		if tc.Function.Arguments != "" {
			if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
				return CompletionResponse{}, c.protocolError(fmt.Sprintf("invalid arguments for tool %q", tc.Function.Name), err)
			}
		}
		result.ToolCalls = append(result.ToolCalls, ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: args,
		})
	}

	return result, nil
}

func stringPtr(s string) *string {
	return &s
}
