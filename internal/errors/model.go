package errors

import (
	"fmt"
	"net/http"
)

// ModelUnavailableError is raised when the LLM provider cannot be reached or
// refuses the request (network, authentication, quota, 5xx).
type ModelUnavailableError struct {
	*HeraldError
	Provider   string
	StatusCode int
}

// NewModelUnavailableError creates a new model unavailable error. statusCode is 0
// for transport-level failures.
func NewModelUnavailableError(provider string, statusCode int, cause error) *ModelUnavailableError {
	suggestions := []string{
		"Check your internet connection",
		"Try again later (service may be unavailable)",
	}
	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		suggestions = []string{
			"Check that llm.api_key (or HERALD_LLM_API_KEY) is valid",
			"Verify the key has access to the configured model",
		}
	case http.StatusTooManyRequests:
		suggestions = []string{
			"The provider quota or rate limit was hit; wait and retry",
			"Lower orchestrator.max_turns to reduce calls per question",
		}
	}

	return &ModelUnavailableError{
		HeraldError: &HeraldError{
			Message: fmt.Sprintf("LLM provider unavailable: %s", provider),
			Cause:   cause,
			Context: &ErrorContext{
				Operation: "LLM API Call",
				Component: "LLM Client",
				Details: map[string]interface{}{
					"provider":    provider,
					"status_code": statusCode,
				},
				Suggestions: suggestions,
				Recoverable: false,
			},
			ExitCode: ExitLLMError,
		},
		Provider:   provider,
		StatusCode: statusCode,
	}
}

// ModelProtocolError is raised when the LLM response cannot be decoded into
// text or tool calls.
type ModelProtocolError struct {
	*HeraldError
	Provider string
	Reason   string
}

// NewModelProtocolError creates a new model protocol error
func NewModelProtocolError(provider, reason string, cause error) *ModelProtocolError {
	return &ModelProtocolError{
		HeraldError: &HeraldError{
			Message: fmt.Sprintf("Malformed response from LLM provider %s: %s", provider, reason),
			Cause:   cause,
			Context: &ErrorContext{
				Operation: "Parsing LLM Response",
				Component: "LLM Client",
				Details: map[string]interface{}{
					"provider": provider,
					"reason":   reason,
				},
				Suggestions: []string{
					"Check if the model name is correct",
					"Try a different model",
					"Report this issue if it persists",
				},
			},
			ExitCode: ExitLLMError,
		},
		Provider: provider,
		Reason:   reason,
	}
}

// OrchestrationTimeoutError marks an exhausted wall-clock budget. The
// orchestrator converts it into a truncated answer instead of failing.
type OrchestrationTimeoutError struct {
	*HeraldError
}

// NewOrchestrationTimeoutError creates a new orchestration timeout error
func NewOrchestrationTimeoutError(budgetSeconds float64) *OrchestrationTimeoutError {
	return &OrchestrationTimeoutError{
		HeraldError: &HeraldError{
			Message: fmt.Sprintf("Orchestration budget of %.0fs exhausted", budgetSeconds),
			Context: &ErrorContext{
				Operation: "Answering question",
				Component: "Orchestrator",
				Details: map[string]interface{}{
					"budget_seconds": budgetSeconds,
				},
				Suggestions: []string{
					"Increase orchestrator.budget",
					"Ask a narrower question",
				},
				Recoverable: true,
			},
			ExitCode: ExitToolError,
		},
	}
}
