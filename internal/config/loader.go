package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"github.com/user/thesisherald/internal/errors"
)

// ProjectConfigFile is read from the working directory when no --config is given.
const ProjectConfigFile = "herald.yaml"

// Loader handles loading configuration from multiple sources
type Loader struct {
	v          *viper.Viper
	configFile string
}

// NewLoader creates a new configuration loader. configFile, when set, replaces
// the project config lookup and must exist.
func NewLoader(configFile string) *Loader {
	// Load .env file if exists
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("HERALD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	bindLegacyEnv(v)

	return &Loader{v: v, configFile: configFile}
}

// Load merges every source and decodes the result.
// Precedence: CLI > environment > project/--config file > global file > defaults
func (l *Loader) Load(cliOverrides map[string]interface{}) (*HeraldConfig, error) {
	if err := l.loadGlobalConfig(); err != nil {
		return nil, err
	}
	if err := l.loadProjectConfig(); err != nil {
		return nil, err
	}
	l.applyCLIOverrides(cliOverrides)

	cfg := &HeraldConfig{}
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToSliceHookFunc(","),
		trimStringsHook,
	))
	if err := l.v.Unmarshal(cfg, hook); err != nil {
		return nil, errors.WrapError(err, "failed to decode configuration", errors.ExitConfigError)
	}

	applyAPIKeyFallback(&cfg.LLM)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Settings exposes the merged key/value view (used by `config show`).
func (l *Loader) Settings() map[string]interface{} {
	return l.v.AllSettings()
}

// Load is a convenience wrapper around NewLoader(configFile).Load.
func Load(configFile string, cliOverrides map[string]interface{}) (*HeraldConfig, error) {
	return NewLoader(configFile).Load(cliOverrides)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("llm.provider", "anthropic")
	v.SetDefault("llm.model", "claude-3-5-sonnet-20241022")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.timeout", 60)
	v.SetDefault("llm.max_tokens", 4096)
	v.SetDefault("llm.temperature", 0.0)

	v.SetDefault("orchestrator.max_turns", 5)
	v.SetDefault("orchestrator.budget", 120)
	v.SetDefault("orchestrator.tool_timeout", 10)
	v.SetDefault("orchestrator.tool_retries", 1)
	v.SetDefault("orchestrator.tool_retry_backoff_ms", 500)
	v.SetDefault("orchestrator.max_tool_concurrency", 5)
	v.SetDefault("orchestrator.max_chunk_size", 2000)
	v.SetDefault("orchestrator.inline_max_chunks", 1)

	v.SetDefault("papers.base_url", "http://export.arxiv.org/api/query")
	v.SetDefault("papers.default_max_results", 5)
	v.SetDefault("papers.max_results_cap", 20)
	v.SetDefault("papers.default_categories", []string{"cs.AI", "cs.LG", "cs.CL"})
	v.SetDefault("papers.notification_max_results", 10)
	v.SetDefault("papers.timeout", 30)
	v.SetDefault("papers.cache_size", 100)
	v.SetDefault("papers.cache_ttl", 300)

	v.SetDefault("web_search.base_url", "https://lite.duckduckgo.com/lite/")
	v.SetDefault("web_search.max_results", 5)
	v.SetDefault("web_search.timeout", 10)

	v.SetDefault("notification.webhook_url", "")
	v.SetDefault("notification.channel_id", "")
	v.SetDefault("notification.time", "09:00")

	v.SetDefault("digest.enabled", false)
	v.SetDefault("digest.topics", []string{})
	v.SetDefault("digest.language", "en")
	v.SetDefault("digest.day_of_week", "monday")
	v.SetDefault("digest.time", "09:00")
	v.SetDefault("digest.days", 7)

	v.SetDefault("prompts.override_dir", "")

	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.multiplier", 1)
	v.SetDefault("retry.max_wait_per_attempt", 10)
	v.SetDefault("retry.max_total_wait", 30)

	v.SetDefault("logging.log_dir", ".herald/logs")
	v.SetDefault("logging.file_level", "info")
	v.SetDefault("logging.console_level", "info")
}

// bindLegacyEnv keeps the variable names of the original deployment working.
// HERALD_* always wins over the legacy name.
func bindLegacyEnv(v *viper.Viper) {
	legacy := map[string]string{
		"notification.webhook_url":        "DISCORD_WEBHOOK_URL",
		"notification.channel_id":         "NOTIFICATION_CHANNEL_ID",
		"notification.time":               "NOTIFICATION_TIME",
		"papers.default_categories":       "ARXIV_CATEGORIES",
		"papers.notification_max_results": "ARXIV_MAX_RESULTS",
	}
	for key, env := range legacy {
		primary := "HERALD_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		_ = v.BindEnv(key, primary, env)
	}
}

// applyAPIKeyFallback reads the provider's conventional key variable when
// llm.api_key was not configured.
func applyAPIKeyFallback(llm *LLMConfig) {
	if llm.APIKey != "" {
		return
	}
	switch llm.Provider {
	case "anthropic":
		llm.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	case "openai":
		llm.APIKey = os.Getenv("OPENAI_API_KEY")
	case "gemini":
		llm.APIKey = getEnvWithFallback("GEMINI_API_KEY", "GOOGLE_API_KEY", "")
	}
}

// loadGlobalConfig loads ~/.config/thesisherald/config.yaml
func (l *Loader) loadGlobalConfig() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil // Not a fatal error
	}

	globalConfig := filepath.Join(homeDir, ".config", "thesisherald", "config.yaml")
	if _, err := os.Stat(globalConfig); err != nil {
		return nil // File doesn't exist, skip
	}

	l.v.SetConfigFile(globalConfig)
	if err := l.v.MergeInConfig(); err != nil {
		return errors.NewConfigFileError(globalConfig, err)
	}

	return nil
}

// loadProjectConfig loads --config or ./herald.yaml
func (l *Loader) loadProjectConfig() error {
	configPath := l.configFile
	if configPath == "" {
		configPath = ProjectConfigFile
		if _, err := os.Stat(configPath); err != nil {
			return nil // File doesn't exist, skip
		}
	}

	l.v.SetConfigFile(configPath)
	if err := l.v.MergeInConfig(); err != nil {
		return errors.NewConfigFileError(configPath, err)
	}

	return nil
}

// applyCLIOverrides applies CLI flag overrides
func (l *Loader) applyCLIOverrides(overrides map[string]interface{}) {
	for key, value := range overrides {
		// Only set if value is not nil/zero
		if value != nil {
			l.v.Set(key, value)
		}
	}
}

// GetEnvVar gets an environment variable, returning an error if not set
func GetEnvVar(name, description string) (string, error) {
	value := os.Getenv(name)
	if value == "" {
		return "", errors.NewMissingEnvVarError(name, description)
	}
	return value, nil
}

// GetEnvVarOrDefault gets an environment variable with a default value
func GetEnvVarOrDefault(name, defaultValue string) string {
	value := os.Getenv(name)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvWithFallback(primaryKey, fallbackKey, defaultValue string) string {
	if val := os.Getenv(primaryKey); val != "" {
		return val
	}
	if val := os.Getenv(fallbackKey); val != "" {
		return val
	}
	return defaultValue
}

// trimStringsHook strips whitespace around list items coming from env vars
// such as "cs.AI, cs.LG".
func trimStringsHook(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
	if to != reflect.TypeOf([]string{}) {
		return data, nil
	}
	items, ok := data.([]string)
	if !ok {
		return data, nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out, nil
}

// Validate checks the settings every command relies on.
func (c *HeraldConfig) Validate() error {
	validProviders := map[string]bool{
		"openai":    true,
		"anthropic": true,
		"gemini":    true,
	}
	if !validProviders[c.LLM.Provider] {
		return errors.NewInvalidEnvVarError("HERALD_LLM_PROVIDER", c.LLM.Provider, "Must be one of: openai, anthropic, gemini")
	}

	o := c.Orchestrator
	if o.MaxTurns < 1 {
		return errors.NewInvalidEnvVarError("HERALD_ORCHESTRATOR_MAX_TURNS", fmt.Sprint(o.MaxTurns), "Must be at least 1")
	}
	if o.ToolRetries < 0 || o.ToolRetries > 1 {
		return errors.NewInvalidEnvVarError("HERALD_ORCHESTRATOR_TOOL_RETRIES", fmt.Sprint(o.ToolRetries), "Must be 0 or 1")
	}
	if o.MaxToolConcurrency < 1 {
		return errors.NewInvalidEnvVarError("HERALD_ORCHESTRATOR_MAX_TOOL_CONCURRENCY", fmt.Sprint(o.MaxToolConcurrency), "Must be at least 1")
	}
	if o.MaxChunkSize < 100 {
		return errors.NewInvalidEnvVarError("HERALD_ORCHESTRATOR_MAX_CHUNK_SIZE", fmt.Sprint(o.MaxChunkSize), "Must be at least 100")
	}

	p := c.Papers
	if p.MaxResultsCap < 1 || p.DefaultMaxResults < 1 || p.DefaultMaxResults > p.MaxResultsCap {
		return errors.NewInvalidEnvVarError("HERALD_PAPERS_DEFAULT_MAX_RESULTS", fmt.Sprint(p.DefaultMaxResults),
			fmt.Sprintf("Must be between 1 and papers.max_results_cap (%d)", p.MaxResultsCap))
	}

	if _, _, err := ClockTime(c.Notification.Time); err != nil {
		return errors.NewInvalidEnvVarError("HERALD_NOTIFICATION_TIME", c.Notification.Time, err.Error())
	}
	if c.Digest.Enabled {
		if _, err := c.Digest.Weekday(); err != nil {
			return errors.NewInvalidEnvVarError("HERALD_DIGEST_DAY_OF_WEEK", c.Digest.DayOfWeek, err.Error())
		}
		if _, _, err := ClockTime(c.Digest.Time); err != nil {
			return errors.NewInvalidEnvVarError("HERALD_DIGEST_TIME", c.Digest.Time, err.Error())
		}
	}

	return nil
}

// ValidateLLM is required only by commands that talk to the model.
func (c *HeraldConfig) ValidateLLM() error {
	if c.LLM.APIKey == "" {
		return errors.NewMissingEnvVarError("HERALD_LLM_API_KEY", "API key for LLM provider")
	}
	return nil
}
