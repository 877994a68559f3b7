package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/user/thesisherald/internal/config"
	"github.com/user/thesisherald/internal/export"
	"github.com/user/thesisherald/internal/handlers"
	"github.com/user/thesisherald/internal/llm"
	"github.com/user/thesisherald/internal/logging"
	"github.com/user/thesisherald/internal/orchestrator"
	"github.com/user/thesisherald/internal/papers"
	"github.com/user/thesisherald/internal/platform"
	"github.com/user/thesisherald/internal/prompts"
	"github.com/user/thesisherald/internal/tools"
	"github.com/user/thesisherald/internal/websearch"
)

// webhookTimeout bounds a single webhook request
const webhookTimeout = 30 * time.Second

// CommandContext holds common resources used by CLI commands.
// Build it with newCommandContext and Close it when the command ends.
type CommandContext struct {
	// Config is the merged, validated configuration
	Config *config.HeraldConfig

	// Logger is the configured logger for the command
	Logger *logging.Logger

	// Poster delivers messages: the webhook when one is configured, else stdout
	Poster platform.Poster

	// Prompts holds the embedded prompt templates plus any overrides
	Prompts *prompts.Manager

	// Dest is where command output is posted
	Dest platform.Destination
}

// InitLogger creates a configured logger for CLI commands.
//   - debug enables caller information and debug-level console output
//   - verbose enables console output; otherwise logs only go to files
//
// The caller is responsible for calling logger.Sync() when done.
func InitLogger(cfg config.LoggingConfig, debug bool, verbose bool) (*logging.Logger, error) {
	consoleLevel := logging.LevelFromString(cfg.ConsoleLevel)
	if debug {
		consoleLevel = logging.LevelFromString("debug")
	}

	logCfg := &logging.Config{
		LogDir:         cfg.LogDir,
		FileLevel:      logging.LevelFromString(cfg.FileLevel),
		ConsoleLevel:   consoleLevel,
		EnableCaller:   debug,
		ConsoleEnabled: verbose || debug,
	}

	logger, err := logging.NewLogger(logCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}

// cliOverrides maps global flags onto config keys. Unset flags are left out
// so they don't mask file or environment values.
func cliOverrides() map[string]interface{} {
	overrides := map[string]interface{}{}
	if webhookFlag != "" {
		overrides["notification.webhook_url"] = webhookFlag
	}
	return overrides
}

// newCommandContext loads configuration and builds the logger, prompts and
// poster shared by every command
func newCommandContext() (*CommandContext, error) {
	cfg, err := config.Load(configFile, cliOverrides())
	if err != nil {
		return nil, err
	}

	logger, err := InitLogger(cfg.Logging, debugFlag, verboseFlag)
	if err != nil {
		return nil, err
	}

	pm, err := prompts.NewManager(cfg.Prompts.OverrideDir)
	if err != nil {
		_ = logger.Sync()
		return nil, err
	}

	return &CommandContext{
		Config:  cfg,
		Logger:  logger,
		Poster:  NewPoster(cfg, os.Stdout, logger),
		Prompts: pm,
		Dest:    platform.Destination{ChannelID: cfg.Notification.ChannelID},
	}, nil
}

// Close flushes the logger
func (c *CommandContext) Close() {
	_ = c.Logger.Sync()
}

// NewPoster returns a webhook poster when notification.webhook_url is set
// and a console poster writing to out otherwise
func NewPoster(cfg *config.HeraldConfig, out io.Writer, logger *logging.Logger) platform.Poster {
	if cfg.Notification.WebhookURL == "" {
		return platform.NewConsolePoster(out)
	}
	client := llm.NewRetryClientWithTimeout(webhookTimeout, llm.RetryConfigFrom(cfg.Retry))
	return platform.NewWebhookPoster(cfg.Notification.WebhookURL, client, logger)
}

func (c *CommandContext) baseHandler() *handlers.BaseHandler {
	return handlers.NewBaseHandler(c.Config, c.Poster, c.Logger)
}

func (c *CommandContext) paperClient() *papers.Client {
	return papers.NewClient(c.Config.Papers, c.Logger)
}

// webSearcher returns nil when web search is turned off
// (web_search.max_results <= 0)
func (c *CommandContext) webSearcher() tools.WebSearcher {
	if c.Config.WebSearch.MaxResults <= 0 {
		return nil
	}
	return websearch.NewDuckDuckGo(c.Config.WebSearch, c.Logger)
}

// llmClient validates the LLM settings and creates the provider client
func (c *CommandContext) llmClient() (llm.LLMClient, error) {
	if err := c.Config.ValidateLLM(); err != nil {
		return nil, err
	}
	factory := llm.NewFactory(llm.NewRetryClient(llm.RetryConfigFrom(c.Config.Retry)))
	return factory.CreateClient(c.Config.LLM)
}

// optionalLLM returns nil when no usable LLM is configured. Handlers
// report that to the user themselves.
func (c *CommandContext) optionalLLM() llm.LLMClient {
	client, err := c.llmClient()
	if err != nil {
		c.Logger.Warn("LLM unavailable", logging.Error(err))
		return nil
	}
	return client
}

// newOrchestrator wires the tool registry and the system prompt around client
func (c *CommandContext) newOrchestrator(client llm.LLMClient, source tools.PaperSearcher) (*orchestrator.Orchestrator, error) {
	o := c.Config.Orchestrator

	registry, err := tools.DefaultRegistry(
		source,
		tools.PaperLimits{Default: c.Config.Papers.DefaultMaxResults, Max: c.Config.Papers.MaxResultsCap},
		c.webSearcher(),
		c.Config.WebSearch.MaxResults,
		tools.DispatchOptions{
			Timeout:      o.GetToolTimeout(),
			MaxRetries:   o.ToolRetries,
			RetryBackoff: o.GetToolRetryBackoff(),
		},
		c.Logger,
	)
	if err != nil {
		return nil, err
	}

	system, err := c.Prompts.Render(prompts.AskSystem, map[string]interface{}{
		"Today": time.Now().Format("2006-01-02"),
	})
	if err != nil {
		return nil, err
	}

	return orchestrator.New(client, registry, orchestrator.Config{
		MaxTurns:           o.MaxTurns,
		ModelTimeout:       c.Config.LLM.GetTimeout(),
		Budget:             o.GetBudget(),
		MaxToolConcurrency: o.MaxToolConcurrency,
		MaxTokens:          c.Config.LLM.GetMaxTokens(),
		Temperature:        c.Config.LLM.Temperature,
		SystemPrompt:       system,
	}, c.Logger), nil
}

// saveOutput writes doc to path when --output was given
func (c *CommandContext) saveOutput(doc export.Document, path string) error {
	if path == "" {
		return nil
	}
	if err := export.Write(doc, path); err != nil {
		return err
	}
	c.Logger.Info("Output saved", logging.String("path", path), logging.String("kind", doc.Kind))
	return nil
}

// HandleCommandError logs err and returns it unchanged so Execute can map
// it to an exit code
func HandleCommandError(err error, logger *logging.Logger) error {
	if err == nil {
		return nil
	}
	logging.OrNop(logger).Error("command failed", logging.Error(err))
	return err
}
