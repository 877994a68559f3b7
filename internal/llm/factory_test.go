package llm

import (
	"testing"
	"time"

	"github.com/user/thesisherald/internal/config"
)

func TestFactory_CreateClient_AllProviders(t *testing.T) {
	tests := []struct {
		name         string
		provider     string
		wantProvider string
		expectError  bool
	}{
		{"openai", "openai", "openai", false},
		{"anthropic", "anthropic", "anthropic", false},
		{"gemini", "gemini", "gemini", false},
		{"empty defaults to anthropic", "", "anthropic", false},
		{"unsupported", "cohere", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			factory := NewFactory(nil)
			client, err := factory.CreateClient(config.LLMConfig{
				Provider: tt.provider,
				Model:    "test-model",
				APIKey:   "test-key",
			})

			if tt.expectError {
				if err == nil {
					t.Error("Expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if client.GetProvider() != tt.wantProvider {
				t.Errorf("GetProvider() = %q, want %q", client.GetProvider(), tt.wantProvider)
			}
			if !client.SupportsTools() {
				t.Error("every provider must support tools")
			}
		})
	}
}

func TestRetryConfigFrom(t *testing.T) {
	rc := RetryConfigFrom(config.RetryConfig{MaxAttempts: 4, Multiplier: 2, MaxWaitPerAttempt: 3, MaxTotalWait: 9})
	if rc.MaxAttempts != 4 || rc.Multiplier != 2 {
		t.Errorf("unexpected attempts/multiplier: %+v", rc)
	}
	if rc.MaxWaitPerAttempt != 3*time.Second || rc.MaxTotalWait != 9*time.Second {
		t.Errorf("unexpected waits: %+v", rc)
	}

	defaults := RetryConfigFrom(config.RetryConfig{})
	if defaults.MaxAttempts != DefaultRetryConfig().MaxAttempts {
		t.Errorf("zero values should keep defaults, got %+v", defaults)
	}
}
