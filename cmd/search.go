package cmd

import (
	"github.com/spf13/cobra"
	"github.com/user/thesisherald/internal/handlers"
	"github.com/user/thesisherald/internal/logging"
)

var searchMax int

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search arXiv and post the results",
}

var searchCategoryCmd = &cobra.Command{
	Use:     "category <category>",
	Short:   "Post the newest papers of an arXiv category",
	Example: "  thesisherald search category cs.AI --max 10",
	Args:    cobra.ExactArgs(1),
	RunE:    runSearchCategory,
}

var searchKeywordsCmd = &cobra.Command{
	Use:     "keywords <keyword,...>",
	Short:   "Post papers matching comma-separated keywords",
	Example: `  thesisherald search keywords "diffusion, protein folding"`,
	Args:    cobra.ExactArgs(1),
	RunE:    runSearchKeywords,
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.AddCommand(searchCategoryCmd)
	searchCmd.AddCommand(searchKeywordsCmd)

	searchCmd.PersistentFlags().IntVar(&searchMax, "max", 0, "Number of papers (default papers.default_max_results, capped at papers.max_results_cap)")
}

func runSearchCategory(cmd *cobra.Command, args []string) error {
	cc, err := newCommandContext()
	if err != nil {
		return err
	}
	defer cc.Close()

	h := handlers.NewSearchHandler(cc.baseHandler(), cc.paperClient())
	n, err := h.ByCategory(cmd.Context(), args[0], searchMax, cc.Dest)
	if err != nil {
		return HandleCommandError(err, cc.Logger)
	}
	cc.Logger.Info("Category search posted", logging.String("category", args[0]), logging.Int("papers", n))
	return nil
}

func runSearchKeywords(cmd *cobra.Command, args []string) error {
	cc, err := newCommandContext()
	if err != nil {
		return err
	}
	defer cc.Close()

	h := handlers.NewSearchHandler(cc.baseHandler(), cc.paperClient())
	n, err := h.ByKeywords(cmd.Context(), args[0], searchMax, cc.Dest)
	if err != nil {
		return HandleCommandError(err, cc.Logger)
	}
	cc.Logger.Info("Keyword search posted", logging.String("keywords", args[0]), logging.Int("papers", n))
	return nil
}
