package config

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/user/thesisherald/internal/errors"
)

// isolate points HOME at an empty directory and clears provider env vars so
// the developer's own configuration never leaks into a test.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	for _, name := range []string{
		"ANTHROPIC_API_KEY", "OPENAI_API_KEY", "GEMINI_API_KEY", "GOOGLE_API_KEY",
		"HERALD_LLM_API_KEY", "HERALD_LLM_PROVIDER", "HERALD_LLM_MODEL",
		"DISCORD_WEBHOOK_URL", "NOTIFICATION_TIME", "ARXIV_CATEGORIES", "ARXIV_MAX_RESULTS",
		"HERALD_PAPERS_DEFAULT_CATEGORIES", "HERALD_ORCHESTRATOR_MAX_TURNS",
	} {
		t.Setenv(name, "")
		_ = os.Unsetenv(name)
	}
	return home
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestLoad_DefaultValues(t *testing.T) {
	isolate(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing-ok.yaml"), nil)
	if err == nil {
		t.Fatal("Expected error for explicit config file that does not exist")
	}

	cfg, err = NewLoader("").Load(nil)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if cfg.LLM.Provider != "anthropic" {
		t.Errorf("Expected provider 'anthropic', got '%s'", cfg.LLM.Provider)
	}
	if cfg.Orchestrator.MaxTurns != 5 {
		t.Errorf("Expected max_turns 5, got %d", cfg.Orchestrator.MaxTurns)
	}
	if cfg.Orchestrator.GetToolTimeout() != 10*time.Second {
		t.Errorf("Expected tool timeout 10s, got %v", cfg.Orchestrator.GetToolTimeout())
	}
	if cfg.Orchestrator.ToolRetries != 1 {
		t.Errorf("Expected tool_retries 1, got %d", cfg.Orchestrator.ToolRetries)
	}
	if cfg.Papers.DefaultMaxResults != 5 || cfg.Papers.MaxResultsCap != 20 {
		t.Errorf("Unexpected paper limits: %+v", cfg.Papers)
	}
	if len(cfg.Papers.DefaultCategories) != 3 || cfg.Papers.DefaultCategories[0] != "cs.AI" {
		t.Errorf("Unexpected default categories: %v", cfg.Papers.DefaultCategories)
	}
	if cfg.Notification.Time != "09:00" {
		t.Errorf("Expected notification time 09:00, got %s", cfg.Notification.Time)
	}
}

func TestLoad_PrecedenceFileEnvCLI(t *testing.T) {
	home := isolate(t)

	writeFile(t, filepath.Join(home, ".config", "thesisherald", "config.yaml"), `
llm:
  provider: openai
  model: gpt-4o
orchestrator:
  max_turns: 3
  budget: 30
`)
	project := filepath.Join(t.TempDir(), "herald.yaml")
	writeFile(t, project, `
llm:
  model: gpt-4o-mini
orchestrator:
  max_turns: 4
`)

	t.Setenv("HERALD_ORCHESTRATOR_MAX_TURNS", "6")

	cfg, err := Load(project, map[string]interface{}{"llm.model": "from-cli"})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if cfg.LLM.Provider != "openai" {
		t.Errorf("global file should set provider, got %s", cfg.LLM.Provider)
	}
	if cfg.Orchestrator.Budget != 30 {
		t.Errorf("global file should set budget, got %d", cfg.Orchestrator.Budget)
	}
	if cfg.Orchestrator.MaxTurns != 6 {
		t.Errorf("env should beat config files, got max_turns %d", cfg.Orchestrator.MaxTurns)
	}
	if cfg.LLM.Model != "from-cli" {
		t.Errorf("CLI should beat everything, got model %s", cfg.LLM.Model)
	}
}

func TestLoad_LegacyEnvNames(t *testing.T) {
	isolate(t)
	t.Setenv("ARXIV_CATEGORIES", "cs.CV, stat.ML")
	t.Setenv("NOTIFICATION_TIME", "07:30")
	t.Setenv("DISCORD_WEBHOOK_URL", "https://discord.example/webhook")

	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	want := []string{"cs.CV", "stat.ML"}
	if len(cfg.Papers.DefaultCategories) != len(want) {
		t.Fatalf("categories = %v, want %v", cfg.Papers.DefaultCategories, want)
	}
	for i := range want {
		if cfg.Papers.DefaultCategories[i] != want[i] {
			t.Errorf("categories[%d] = %q, want %q", i, cfg.Papers.DefaultCategories[i], want[i])
		}
	}
	if cfg.Notification.Time != "07:30" {
		t.Errorf("notification time = %s", cfg.Notification.Time)
	}
	if cfg.Notification.WebhookURL != "https://discord.example/webhook" {
		t.Errorf("webhook url = %s", cfg.Notification.WebhookURL)
	}
}

func TestLoad_APIKeyFallback(t *testing.T) {
	isolate(t)
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant-test")

	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if cfg.LLM.APIKey != "sk-ant-test" {
		t.Errorf("Expected fallback API key, got %q", cfg.LLM.APIKey)
	}
	if err := cfg.ValidateLLM(); err != nil {
		t.Errorf("ValidateLLM() = %v", err)
	}
}

func TestValidateLLM_MissingAPIKey(t *testing.T) {
	isolate(t)

	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	err = cfg.ValidateLLM()
	var missing *errors.MissingEnvVarError
	if !stderrors.As(err, &missing) {
		t.Fatalf("Expected MissingEnvVarError, got %v", err)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"provider", "llm:\n  provider: cohere\n"},
		{"max turns", "orchestrator:\n  max_turns: 0\n"},
		{"tool retries above one", "orchestrator:\n  tool_retries: 2\n"},
		{"negative tool retries", "orchestrator:\n  tool_retries: -1\n"},
		{"default above cap", "papers:\n  default_max_results: 30\n  max_results_cap: 20\n"},
		{"notification time", "notification:\n  time: \"25:00\"\n"},
		{"digest weekday", "digest:\n  enabled: true\n  day_of_week: someday\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			path := filepath.Join(t.TempDir(), "herald.yaml")
			writeFile(t, path, tt.yaml)

			_, err := Load(path, nil)
			var invalid *errors.InvalidEnvVarError
			if !stderrors.As(err, &invalid) {
				t.Fatalf("Expected InvalidEnvVarError, got %v", err)
			}
		})
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "herald.yaml")
	writeFile(t, path, "llm: [unclosed")

	_, err := Load(path, nil)
	var fileErr *errors.ConfigFileError
	if !stderrors.As(err, &fileErr) {
		t.Fatalf("Expected ConfigFileError, got %v", err)
	}
}

func TestClockTime(t *testing.T) {
	h, m, err := ClockTime("09:05")
	if err != nil || h != 9 || m != 5 {
		t.Errorf("ClockTime(09:05) = %d, %d, %v", h, m, err)
	}
	for _, bad := range []string{"", "9", "24:00", "12:60", "ab:cd"} {
		if _, _, err := ClockTime(bad); err == nil {
			t.Errorf("ClockTime(%q) expected error", bad)
		}
	}
}

func TestDigestWeekday(t *testing.T) {
	for in, want := range map[string]time.Weekday{"monday": time.Monday, "Fri": time.Friday, "0": time.Sunday} {
		d := DigestConfig{DayOfWeek: in}
		got, err := d.Weekday()
		if err != nil || got != want {
			t.Errorf("Weekday(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
}

func TestGetEnvVar(t *testing.T) {
	t.Setenv("HERALD_TEST_VAR", "value")
	if v, err := GetEnvVar("HERALD_TEST_VAR", "test"); err != nil || v != "value" {
		t.Errorf("GetEnvVar() = %q, %v", v, err)
	}
	if _, err := GetEnvVar("HERALD_TEST_MISSING_VAR", "test"); err == nil {
		t.Error("Expected error for missing variable")
	}
	if v := GetEnvVarOrDefault("HERALD_TEST_MISSING_VAR", "fallback"); v != "fallback" {
		t.Errorf("GetEnvVarOrDefault() = %q", v)
	}
}
