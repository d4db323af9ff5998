package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Enrich ingested papers with embeddings and classification",
	Long: `Enrich processes every paper with status "new": it computes an embedding
over title and abstract, estimates math depth, detects evidence signals in
the abstract, and classifies the paper into topics and facets via the
configured LLM (falling back to keyword rules on LLM failure).

Provider selection (local Ollama vs cloud) follows the user profile; the
--local-embeddings and --local-llm flags override it.`,
	RunE: runEnrich,
}

func init() {
	enrichCmd.Flags().Bool("local-embeddings", false, "force the local embedding provider")
	enrichCmd.Flags().Bool("local-llm", false, "force the local LLM backend")

	rootCmd.AddCommand(enrichCmd)
}

func runEnrich(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	cfg := pipelineConfig(cmd)

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	profile, err := loadProfile(ctx, st, currentUser(cmd))
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("local-embeddings") {
		profile.LocalEmbeddings, _ = cmd.Flags().GetBool("local-embeddings")
	}
	if cmd.Flags().Changed("local-llm") {
		profile.LocalLLM, _ = cmd.Flags().GetBool("local-llm")
	}

	enricher, err := buildEnricher(st, cfg, profile)
	if err != nil {
		return err
	}

	summary, err := enricher.EnrichPending(ctx, os.Stdout)
	if err != nil {
		return err
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d paper(s) failed enrichment", summary.Failed)
	}
	return nil
}
