package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/user/thesisherald/internal/errors"
)

var (
	configFile  string
	debugFlag   bool
	verboseFlag bool
	webhookFlag string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "thesisherald",
	Short: "arXiv paper notifications and tool-using research answers",
	Long: `ThesisHerald posts newly published arXiv papers to a community channel
and answers research questions with an LLM that can search arXiv and the web.

Answers cite only the papers the model actually looked up. Long messages are
split to the platform limit and posted in threads.`,
	Version:       "1.0.0",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits with the error's exit code
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errors.UserMessage(err))
		os.Exit(errors.ExitCodeOf(err).Int())
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default ./herald.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "Enable debug mode")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Show log output on the console")
	rootCmd.PersistentFlags().StringVar(&webhookFlag, "webhook", "", "Post to this webhook URL instead of the console")
}
