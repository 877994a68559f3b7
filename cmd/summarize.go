package cmd

import (
	"time"

	"github.com/spf13/cobra"
	"github.com/user/thesisherald/internal/export"
	"github.com/user/thesisherald/internal/handlers"
)

var (
	summarizeLanguage string
	summarizeOutput   string
)

var summarizeCmd = &cobra.Command{
	Use:     "summarize <arxiv-id>",
	Short:   "Summarize one arXiv paper",
	Example: "  thesisherald summarize 2403.01234 --language ja",
	Args:    cobra.ExactArgs(1),
	RunE:    runSummarize,
}

func init() {
	rootCmd.AddCommand(summarizeCmd)
	summarizeCmd.Flags().StringVar(&summarizeLanguage, "language", "en", "Summary language code (en, ja, zh, ko, es, fr, de)")
	summarizeCmd.Flags().StringVarP(&summarizeOutput, "output", "o", "", "Also save the summary to a .html, .json or .md file")
}

func runSummarize(cmd *cobra.Command, args []string) error {
	cc, err := newCommandContext()
	if err != nil {
		return err
	}
	defer cc.Close()

	h := handlers.NewSummarizeHandler(cc.baseHandler(), cc.paperClient(), cc.optionalLLM(), cc.Prompts)
	summary, err := h.Handle(cmd.Context(), args[0], summarizeLanguage, cc.Dest)
	if err != nil {
		return HandleCommandError(err, cc.Logger)
	}
	doc := export.Document{Kind: export.KindSummary, Title: "Summary of arXiv:" + args[0], Markdown: summary, GeneratedAt: time.Now()}
	return HandleCommandError(cc.saveOutput(doc, summarizeOutput), cc.Logger)
}
