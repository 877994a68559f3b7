package cmd

import (
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/user/thesisherald/internal/export"
	"github.com/user/thesisherald/internal/handlers"
)

var (
	digestLanguage string
	digestOutput   string
)

var digestCmd = &cobra.Command{
	Use:   "digest [topic]",
	Short: "Write and post a research digest",
	Long: `Search recent papers on a topic and post an LLM-written digest of them.

Without a topic, a digest is posted for every entry of digest.topics, as the
scheduled weekly job does.`,
	Args: cobra.ArbitraryArgs,
	RunE: runDigest,
}

func init() {
	rootCmd.AddCommand(digestCmd)
	digestCmd.Flags().StringVar(&digestLanguage, "language", "", "Digest language code (default digest.language)")
	digestCmd.Flags().StringVarP(&digestOutput, "output", "o", "", "Also save the digest to a .html, .json or .md file (single topic only)")
}

func runDigest(cmd *cobra.Command, args []string) error {
	cc, err := newCommandContext()
	if err != nil {
		return err
	}
	defer cc.Close()

	h := handlers.NewDigestHandler(cc.baseHandler(), cc.paperClient(), cc.optionalLLM(), cc.Prompts)

	if len(args) == 0 {
		return HandleCommandError(h.HandleAll(cmd.Context()), cc.Logger)
	}

	language := digestLanguage
	if language == "" {
		language = cc.Config.Digest.Language
	}
	topic := strings.Join(args, " ")
	digest, err := h.Handle(cmd.Context(), topic, language, cc.Dest)
	if err != nil {
		return HandleCommandError(err, cc.Logger)
	}
	doc := export.Document{Kind: export.KindDigest, Title: "Digest: " + topic, Markdown: digest, GeneratedAt: time.Now()}
	return HandleCommandError(cc.saveOutput(doc, digestOutput), cc.Logger)
}
