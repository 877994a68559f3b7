package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/user/thesisherald/internal/config"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect thesisherald settings",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Long: `Print the configuration after merging defaults, ~/.config/thesisherald/config.yaml,
./herald.yaml (or --config), environment variables and flags. Secrets are masked.`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
}

// secretKeys are masked by config show
var secretKeys = map[string]bool{
	"llm.api_key":              true,
	"notification.webhook_url": true,
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	loader := config.NewLoader(configFile)
	if _, err := loader.Load(cliOverrides()); err != nil {
		return err
	}

	settings := loader.Settings()
	maskSecrets(settings, "")

	out, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to render configuration: %w", err)
	}
	_, err = cmd.OutOrStdout().Write(out)
	return err
}

// maskSecrets replaces secret values in the nested settings map in place
func maskSecrets(settings map[string]interface{}, prefix string) {
	for key, value := range settings {
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}
		if nested, ok := value.(map[string]interface{}); ok {
			maskSecrets(nested, path)
			continue
		}
		if secretKeys[path] {
			settings[key] = mask(fmt.Sprint(value))
		}
	}
}

// mask keeps the last four characters of long secrets
func mask(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= 8 {
		return strings.Repeat("*", len(secret))
	}
	return strings.Repeat("*", 8) + secret[len(secret)-4:]
}
