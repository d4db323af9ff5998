package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var scoutCmd = &cobra.Command{
	Use:   "scout [categories...]",
	Short: "Ingest recent papers from arXiv",
	Long: `Scout syncs the category taxonomy and fetches the most recent
submissions for each category through the rate-limited feed client. Papers
are deduplicated by base ID: new papers are created, newer versions replace
stored ones and are queued for re-enrichment, older or equal versions are
skipped.

Categories default to the user profile's subscriptions.`,
	RunE: runScout,
}

func init() {
	scoutCmd.Flags().Int("max", 0, "recent entries to fetch per category (default 25)")

	rootCmd.AddCommand(scoutCmd)
}

func runScout(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	cfg := pipelineConfig(cmd)

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	categories := args
	if len(categories) == 0 {
		profile, err := loadProfile(ctx, st, currentUser(cmd))
		if err != nil {
			return err
		}
		categories = profile.Categories
	}

	if max, _ := cmd.Flags().GetInt("max"); max > 0 {
		cfg.Scout.MaxPerCategory = max
	}

	sc, sched := buildScout(st, cfg)
	sched.Start()
	defer sched.Stop()

	if _, err := sc.SyncCategories(ctx); err != nil {
		return fmt.Errorf("syncing categories: %w", err)
	}

	ids, summary, err := sc.IngestRecent(ctx, categories, cfg.Scout.MaxPerCategory, os.Stdout)
	if err != nil {
		return err
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d entr(ies) failed ingestion", summary.Failed)
	}
	fmt.Printf("%d paper(s) created or updated\n", len(ids))
	return nil
}
