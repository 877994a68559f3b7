package cmd

import (
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/user/thesisherald/internal/export"
	"github.com/user/thesisherald/internal/handlers"
)

var askOutput string

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Answer a research question",
	Long: `Answer a research question with the configured LLM.

The model may search arXiv and the web before answering. The answer lists
only the papers that its search calls actually returned and that the answer
mentions. Long answers are posted in a thread.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().StringVarP(&askOutput, "output", "o", "", "Also save the answer to a .html, .json or .md file")
}

func runAsk(cmd *cobra.Command, args []string) error {
	cc, err := newCommandContext()
	if err != nil {
		return err
	}
	defer cc.Close()

	var asker handlers.Asker
	if client := cc.optionalLLM(); client != nil {
		o, err := cc.newOrchestrator(client, cc.paperClient())
		if err != nil {
			return HandleCommandError(err, cc.Logger)
		}
		asker = o
	}

	question := strings.Join(args, " ")
	result, err := handlers.NewAskHandler(cc.baseHandler(), asker).Handle(cmd.Context(), question, cc.Dest)
	if err != nil {
		return HandleCommandError(err, cc.Logger)
	}
	return HandleCommandError(cc.saveOutput(export.AnswerDocument(result, time.Now()), askOutput), cc.Logger)
}
