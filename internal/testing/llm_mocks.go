package testing

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

func WriteSSE(w http.ResponseWriter, event, data string) {
	if event != "" {
		fmt.Fprintf(w, "event: %s\n", event)
	}
	fmt.Fprintf(w, "data: %s\n\n", data)
}

func SetSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
}

func SetJSONHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
}

// jsonString quotes s as a JSON string literal.
func jsonString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

type MockServerOption func(*mockServerConfig)

type mockServerConfig struct {
	validateAuth bool
	authHeader   string
	authValue    string
}

func WithAuthValidation(header, value string) MockServerOption {
	return func(cfg *mockServerConfig) {
		cfg.validateAuth = true
		cfg.authHeader = header
		cfg.authValue = value
	}
}

func NewMockServer(t *testing.T, handler http.HandlerFunc, opts ...MockServerOption) *httptest.Server {
	t.Helper()
	cfg := &mockServerConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	wrappedHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if cfg.validateAuth {
			if r.Header.Get(cfg.authHeader) != cfg.authValue {
				t.Errorf("Expected %s header '%s', got '%s'", cfg.authHeader, cfg.authValue, r.Header.Get(cfg.authHeader))
			}
		}
		handler(w, r)
	})

	server := httptest.NewServer(wrappedHandler)
	t.Cleanup(server.Close)
	return server
}

// StatusHandler answers every request with status and body.
func StatusHandler(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}

func AnthropicMessageStart(inputTokens int) string {
	return fmt.Sprintf(`{"type":"message_start","message":{"id":"msg_123","type":"message","role":"assistant","content":[],"model":"claude-3-5-sonnet","stop_reason":null,"usage":{"input_tokens":%d,"output_tokens":0}}}`, inputTokens)
}

func AnthropicTextBlockStart(index int) string {
	return fmt.Sprintf(`{"type":"content_block_start","index":%d,"content_block":{"type":"text","text":""}}`, index)
}

func AnthropicToolUseStart(index int, id, name string) string {
	return fmt.Sprintf(`{"type":"content_block_start","index":%d,"content_block":{"type":"tool_use","id":%s,"name":%s,"input":{}}}`, index, jsonString(id), jsonString(name))
}

func AnthropicTextDelta(index int, text string) string {
	return fmt.Sprintf(`{"type":"content_block_delta","index":%d,"delta":{"type":"text_delta","text":%s}}`, index, jsonString(text))
}

func AnthropicInputDelta(index int, partialJSON string) string {
	return fmt.Sprintf(`{"type":"content_block_delta","index":%d,"delta":{"type":"input_json_delta","partial_json":%s}}`, index, jsonString(partialJSON))
}

func AnthropicContentBlockStop(index int) string {
	return fmt.Sprintf(`{"type":"content_block_stop","index":%d}`, index)
}

func AnthropicMessageDelta(stopReason string, outputTokens int) string {
	return fmt.Sprintf(`{"type":"message_delta","delta":{"stop_reason":%s,"stop_sequence":null},"usage":{"output_tokens":%d}}`, jsonString(stopReason), outputTokens)
}

func AnthropicMessageStop() string {
	return `{"type":"message_stop"}`
}

// AnthropicToolUse describes one tool_use block of a scripted stream.
type AnthropicToolUse struct {
	ID   string
	Name string
	Args string // JSON object
}

// AnthropicStreamHandler streams an optional text block followed by tool_use blocks.
func AnthropicStreamHandler(text string, tools ...AnthropicToolUse) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		SetSSEHeaders(w)
		WriteSSE(w, "message_start", AnthropicMessageStart(10))
		index := 0
		if text != "" {
			WriteSSE(w, "content_block_start", AnthropicTextBlockStart(index))
			WriteSSE(w, "content_block_delta", AnthropicTextDelta(index, text))
			WriteSSE(w, "content_block_stop", AnthropicContentBlockStop(index))
			index++
		}
		for _, tool := range tools {
			WriteSSE(w, "content_block_start", AnthropicToolUseStart(index, tool.ID, tool.Name))
			WriteSSE(w, "content_block_delta", AnthropicInputDelta(index, tool.Args))
			WriteSSE(w, "content_block_stop", AnthropicContentBlockStop(index))
			index++
		}
		stop := "end_turn"
		if len(tools) > 0 {
			stop = "tool_use"
		}
		WriteSSE(w, "message_delta", AnthropicMessageDelta(stop, 5))
		WriteSSE(w, "message_stop", AnthropicMessageStop())
	}
}

// OpenAIToolCall describes one tool call of a scripted chat completion.
type OpenAIToolCall struct {
	ID   string
	Name string
	Args string // JSON object
}

// OpenAIChatResponse renders a non-streaming /chat/completions body.
func OpenAIChatResponse(content string, calls ...OpenAIToolCall) string {
	type fn struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	}
	type call struct {
		ID       string `json:"id"`
		Type     string `json:"type"`
		Function fn     `json:"function"`
	}
	message := map[string]interface{}{"role": "assistant", "content": nil}
	if content != "" {
		message["content"] = content
	}
	finish := "stop"
	if len(calls) > 0 {
		finish = "tool_calls"
		out := make([]call, len(calls))
		for i, c := range calls {
			out[i] = call{ID: c.ID, Type: "function", Function: fn{Name: c.Name, Arguments: c.Args}}
		}
		message["tool_calls"] = out
	}
	body, _ := json.Marshal(map[string]interface{}{
		"id":      "chatcmpl-123",
		"object":  "chat.completion",
		"model":   "gpt-4o",
		"choices": []interface{}{map[string]interface{}{"index": 0, "message": message, "finish_reason": finish}},
		"usage":   map[string]int{"prompt_tokens": 12, "completion_tokens": 7, "total_tokens": 19},
	})
	return string(body)
}

func OpenAIChatHandler(content string, calls ...OpenAIToolCall) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		SetJSONHeaders(w)
		_, _ = w.Write([]byte(OpenAIChatResponse(content, calls...)))
	}
}

func GeminiChunk(text string, finishReason string, inputTokens, outputTokens int) string {
	fr := "null"
	if finishReason != "" {
		fr = jsonString(finishReason)
	}
	textPart := ""
	if text != "" {
		textPart = fmt.Sprintf(`{"text":%s}`, jsonString(text))
	}
	return fmt.Sprintf(`{"candidates":[{"content":{"parts":[%s],"role":"model"},"finishReason":%s,"index":0}],"usageMetadata":{"promptTokenCount":%d,"candidatesTokenCount":%d,"totalTokenCount":%d}}`, textPart, fr, inputTokens, outputTokens, inputTokens+outputTokens)
}

func GeminiFunctionCallChunk(name, args string) string {
	return fmt.Sprintf(`{"candidates":[{"content":{"parts":[{"functionCall":{"name":%s,"args":%s}}],"role":"model"},"finishReason":"STOP","index":0}]}`, jsonString(name), args)
}

// GeminiStreamHandler writes chunks as alt=sse events.
func GeminiStreamHandler(chunks ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		SetSSEHeaders(w)
		for _, chunk := range chunks {
			WriteSSE(w, "", chunk)
		}
	}
}

// RetryHandler fails the first failUntil requests, then delegates.
type RetryHandler struct {
	mu             sync.Mutex
	callCount      int
	failUntil      int
	failStatusCode int
	failBody       string
	successHandler http.HandlerFunc
}

func NewRetryHandler(failUntil, failStatusCode int, failBody string, successHandler http.HandlerFunc) *RetryHandler {
	return &RetryHandler{
		failUntil:      failUntil,
		failStatusCode: failStatusCode,
		failBody:       failBody,
		successHandler: successHandler,
	}
}

func (h *RetryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	h.callCount++
	fail := h.callCount <= h.failUntil
	h.mu.Unlock()

	if fail {
		w.WriteHeader(h.failStatusCode)
		_, _ = w.Write([]byte(h.failBody))
		return
	}
	h.successHandler(w, r)
}

func (h *RetryHandler) CallCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.callCount
}
