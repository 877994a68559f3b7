package cmd

import (
	"github.com/spf13/cobra"
	"github.com/user/thesisherald/internal/handlers"
)

var dailyCmd = &cobra.Command{
	Use:   "daily",
	Short: "Post today's paper update once",
	Long: `Fetch the newest papers of papers.default_categories and post them to the
notification channel, exactly as the scheduled daily job does.`,
	Args: cobra.NoArgs,
	RunE: runDaily,
}

func init() {
	rootCmd.AddCommand(dailyCmd)
}

func runDaily(cmd *cobra.Command, args []string) error {
	cc, err := newCommandContext()
	if err != nil {
		return err
	}
	defer cc.Close()

	if _, err := handlers.NewNotifyHandler(cc.baseHandler(), cc.paperClient()).Handle(cmd.Context()); err != nil {
		return HandleCommandError(err, cc.Logger)
	}
	return nil
}
