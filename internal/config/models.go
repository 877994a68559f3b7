package config

import (
	"fmt"
	"strings"
	"time"
)

// LLMConfig holds LLM provider configuration
type LLMConfig struct {
	Provider    string  `mapstructure:"provider"` // openai, anthropic, gemini
	Model       string  `mapstructure:"model"`
	APIKey      string  `mapstructure:"api_key"`
	BaseURL     string  `mapstructure:"base_url"` // Optional, for OpenAI-compatible APIs
	Timeout     int     `mapstructure:"timeout"`  // Per-call timeout in seconds
	MaxTokens   int     `mapstructure:"max_tokens"`
	Temperature float64 `mapstructure:"temperature"`
}

// RetryConfig holds HTTP retry configuration for LLM calls
type RetryConfig struct {
	MaxAttempts       int `mapstructure:"max_attempts"`         // Default: 3
	Multiplier        int `mapstructure:"multiplier"`           // Default: 1
	MaxWaitPerAttempt int `mapstructure:"max_wait_per_attempt"` // Default: 10 seconds
	MaxTotalWait      int `mapstructure:"max_total_wait"`       // Default: 30 seconds
}

// OrchestratorConfig bounds a single question/answer run
type OrchestratorConfig struct {
	MaxTurns           int `mapstructure:"max_turns"`
	Budget             int `mapstructure:"budget"`       // Wall-clock budget in seconds
	ToolTimeout        int `mapstructure:"tool_timeout"` // Per tool call, seconds
	ToolRetries        int `mapstructure:"tool_retries"`
	ToolRetryBackoffMs int `mapstructure:"tool_retry_backoff_ms"`
	MaxToolConcurrency int `mapstructure:"max_tool_concurrency"`
	MaxChunkSize       int `mapstructure:"max_chunk_size"`
	InlineMaxChunks    int `mapstructure:"inline_max_chunks"`
}

// PapersConfig configures the arXiv paper source
type PapersConfig struct {
	BaseURL                string   `mapstructure:"base_url"`
	DefaultMaxResults      int      `mapstructure:"default_max_results"`
	MaxResultsCap          int      `mapstructure:"max_results_cap"`
	DefaultCategories      []string `mapstructure:"default_categories"`
	NotificationMaxResults int      `mapstructure:"notification_max_results"`
	Timeout                int      `mapstructure:"timeout"`
	CacheSize              int      `mapstructure:"cache_size"` // 0 disables the query cache
	CacheTTL               int      `mapstructure:"cache_ttl"`  // seconds
}

// WebSearchConfig configures the web search tool
type WebSearchConfig struct {
	BaseURL    string `mapstructure:"base_url"`
	MaxResults int    `mapstructure:"max_results"`
	Timeout    int    `mapstructure:"timeout"`
}

// NotificationConfig configures where and when the daily paper digest is posted
type NotificationConfig struct {
	WebhookURL string `mapstructure:"webhook_url"`
	ChannelID  string `mapstructure:"channel_id"`
	Time       string `mapstructure:"time"` // HH:MM, local time
}

// DigestConfig configures the weekly LLM-written research digest
type DigestConfig struct {
	Enabled   bool     `mapstructure:"enabled"`
	Topics    []string `mapstructure:"topics"`
	Language  string   `mapstructure:"language"`
	DayOfWeek string   `mapstructure:"day_of_week"`
	Time      string   `mapstructure:"time"`
	Days      int      `mapstructure:"days"`
}

// PromptsConfig points at an optional directory of prompt overrides
type PromptsConfig struct {
	OverrideDir string `mapstructure:"override_dir"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	LogDir       string `mapstructure:"log_dir"`
	FileLevel    string `mapstructure:"file_level"`    // debug, info, warn, error
	ConsoleLevel string `mapstructure:"console_level"` // debug, info, warn, error
}

// HeraldConfig is the complete, immutable runtime configuration
type HeraldConfig struct {
	LLM          LLMConfig          `mapstructure:"llm"`
	Orchestrator OrchestratorConfig `mapstructure:"orchestrator"`
	Papers       PapersConfig       `mapstructure:"papers"`
	WebSearch    WebSearchConfig    `mapstructure:"web_search"`
	Notification NotificationConfig `mapstructure:"notification"`
	Digest       DigestConfig       `mapstructure:"digest"`
	Prompts      PromptsConfig      `mapstructure:"prompts"`
	Retry        RetryConfig        `mapstructure:"retry"`
	Logging      LoggingConfig      `mapstructure:"logging"`
}

// GetTimeout returns the timeout as a time.Duration
func (c *LLMConfig) GetTimeout() time.Duration {
	if c.Timeout <= 0 {
		return 60 * time.Second
	}
	return time.Duration(c.Timeout) * time.Second
}

// GetMaxTokens returns the max tokens with a default
func (c *LLMConfig) GetMaxTokens() int {
	if c.MaxTokens <= 0 {
		return 4096
	}
	return c.MaxTokens
}

// GetBudget returns the overall wall-clock budget
func (c *OrchestratorConfig) GetBudget() time.Duration {
	if c.Budget <= 0 {
		return 120 * time.Second
	}
	return time.Duration(c.Budget) * time.Second
}

// GetToolTimeout returns the per-call tool timeout
func (c *OrchestratorConfig) GetToolTimeout() time.Duration {
	if c.ToolTimeout <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.ToolTimeout) * time.Second
}

// GetToolRetryBackoff returns the fixed delay between tool attempts
func (c *OrchestratorConfig) GetToolRetryBackoff() time.Duration {
	return time.Duration(c.ToolRetryBackoffMs) * time.Millisecond
}

func (c *PapersConfig) GetTimeout() time.Duration {
	if c.Timeout <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.Timeout) * time.Second
}

// GetCacheTTL returns how long a cached arXiv query stays valid
func (c *PapersConfig) GetCacheTTL() time.Duration {
	if c.CacheTTL <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(c.CacheTTL) * time.Second
}

func (c *WebSearchConfig) GetTimeout() time.Duration {
	if c.Timeout <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.Timeout) * time.Second
}

// ClockTime parses an "HH:MM" string into hour and minute.
func ClockTime(s string) (hour, minute int, err error) {
	if _, err := fmt.Sscanf(strings.TrimSpace(s), "%d:%d", &hour, &minute); err != nil {
		return 0, 0, fmt.Errorf("invalid time %q, expected HH:MM", s)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid time %q, expected HH:MM", s)
	}
	return hour, minute, nil
}

var weekdays = map[string]time.Weekday{
	"sunday": time.Sunday, "sun": time.Sunday, "0": time.Sunday,
	"monday": time.Monday, "mon": time.Monday, "1": time.Monday,
	"tuesday": time.Tuesday, "tue": time.Tuesday, "2": time.Tuesday,
	"wednesday": time.Wednesday, "wed": time.Wednesday, "3": time.Wednesday,
	"thursday": time.Thursday, "thu": time.Thursday, "4": time.Thursday,
	"friday": time.Friday, "fri": time.Friday, "5": time.Friday,
	"saturday": time.Saturday, "sat": time.Saturday, "6": time.Saturday,
}

// Weekday parses DayOfWeek ("monday", "mon" or "1").
func (c *DigestConfig) Weekday() (time.Weekday, error) {
	day, ok := weekdays[strings.ToLower(strings.TrimSpace(c.DayOfWeek))]
	if !ok {
		return 0, fmt.Errorf("invalid day_of_week %q", c.DayOfWeek)
	}
	return day, nil
}
