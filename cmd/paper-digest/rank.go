package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/paper-digest/internal/rank"
	"github.com/pdiddy/paper-digest/pkg/types"
)

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Score enriched papers against the user profile",
	Long: `Rank scores every enriched paper for the user: the profile's exclusion
rules are applied as a hard filter, six signals (novelty, evidence,
velocity, personal fit, lab prior, math penalty) are combined into a final
score, and the results are persisted for briefing assembly. Papers without
enrichment data are skipped with a reason.

The author-to-lab roster for the lab prior signal comes from the "labs"
map in the config file.`,
	RunE: runRank,
}

func init() {
	rankCmd.Flags().String("run", "", "ranking run ID (default: a new UUID)")

	rootCmd.AddCommand(rankCmd)
}

// newRanker builds a Ranker with the configured author roster.
func newRanker() *rank.Ranker {
	roster := viper.GetStringMapString("labs")
	if len(roster) == 0 {
		return rank.New()
	}
	return rank.New(rank.WithAffiliationResolver(rank.RosterResolver(roster)))
}

func runRank(cmd *cobra.Command, args []string) error {
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

	runID, _ := cmd.Flags().GetString("run")
	if runID == "" {
		runID = uuid.NewString()
	}

	papers, err := st.ListPapersByStatus(ctx, types.StatusEnriched)
	if err != nil {
		return err
	}
	if len(papers) == 0 {
		fmt.Println("No enriched papers to rank.")
		return nil
	}

	enrichments := make(map[string]*types.Enrichment, len(papers))
	for _, p := range papers {
		e, err := st.GetEnrichment(ctx, p.ID)
		if err != nil {
			return err
		}
		if e != nil {
			enrichments[p.ID] = e
		}
	}

	scores, skips, err := newRanker().RankPapers(ctx, papers, enrichments, profile, runID)
	if err != nil {
		return err
	}
	for _, skip := range skips {
		fmt.Fprintf(os.Stdout, "skipped %s: %s\n", skip.PaperID, skip.Reason)
	}

	if len(scores) > 0 {
		if err := st.PutScores(ctx, scores); err != nil {
			return err
		}
		for _, score := range scores {
			if err := st.SetPaperStatus(ctx, score.PaperID, types.StatusRanked); err != nil {
				return err
			}
		}
	}

	printScores(scores)
	fmt.Printf("\nrun %s: %d ranked, %d skipped\n", runID, len(scores), len(skips))
	return nil
}

func printScores(scores []*types.Score) {
	if len(scores) == 0 {
		return
	}
	fmt.Fprintf(os.Stdout, "%-16s  %-6s  %s\n", "Paper", "Score", "Why")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 70))
	for _, score := range scores {
		fmt.Fprintf(os.Stdout, "%-16s  %.3f  %s\n", score.PaperID, score.Final, whyShownSummary(score.WhyShown))
	}
}

// whyShownSummary renders the attribution map with the largest
// contributions first.
func whyShownSummary(why map[string]float64) string {
	names := make([]string, 0, len(why))
	for name := range why {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if why[names[i]] != why[names[j]] {
			return why[names[i]] > why[names[j]]
		}
		return names[i] < names[j]
	})

	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = fmt.Sprintf("%s=%.2f", name, why[name])
	}
	return strings.Join(parts, " ")
}
