package llm

import (
	"fmt"

	"github.com/user/thesisherald/internal/config"
)

// Factory creates LLM clients
type Factory struct {
	retryClient *RetryClient
}

// NewFactory creates a new LLM factory sharing one retry client
func NewFactory(retryClient *RetryClient) *Factory {
	return &Factory{retryClient: retryClient}
}

// CreateClient creates an LLM client based on the provider configuration
func (f *Factory) CreateClient(cfg config.LLMConfig) (LLMClient, error) {
	switch cfg.Provider {
	case "openai":
		return NewOpenAIClient(cfg, f.retryClient), nil
	case "anthropic", "":
		return NewAnthropicClient(cfg, f.retryClient), nil
	case "gemini":
		return NewGeminiClient(cfg, f.retryClient), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s (supported: openai, anthropic, gemini)", cfg.Provider)
	}
}

// RetryConfigFrom converts the file/env retry settings into a RetryConfig.
func RetryConfigFrom(cfg config.RetryConfig) *RetryConfig {
	rc := DefaultRetryConfig()
	if cfg.MaxAttempts > 0 {
		rc.MaxAttempts = cfg.MaxAttempts
	}
	if cfg.Multiplier > 0 {
		rc.Multiplier = cfg.Multiplier
	}
	if cfg.MaxWaitPerAttempt > 0 {
		rc.MaxWaitPerAttempt = secondsToDuration(cfg.MaxWaitPerAttempt)
	}
	if cfg.MaxTotalWait > 0 {
		rc.MaxTotalWait = secondsToDuration(cfg.MaxTotalWait)
	}
	return rc
}
