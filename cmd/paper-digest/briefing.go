package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paper-digest/pkg/types"
)

var briefingCmd = &cobra.Command{
	Use:   "briefing",
	Short: "Show a daily briefing",
	Long: `Briefing prints the ranked paper selection for a date, with titles and
final scores. Viewing a briefing transitions it from "generated" to
"viewed" unless --no-mark is given.`,
	RunE: runBriefing,
}

func init() {
	briefingCmd.Flags().String("date", "", "briefing date in YYYY-MM-DD form (default: today)")
	briefingCmd.Flags().Bool("no-mark", false, "do not mark the briefing as viewed")
	briefingCmd.Flags().Bool("json", false, "output the briefing as JSON")

	rootCmd.AddCommand(briefingCmd)
}

func runBriefing(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	userID := currentUser(cmd)

	date, _ := cmd.Flags().GetString("date")
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}

	cfg := pipelineConfig(cmd)
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	briefing, err := st.GetBriefing(ctx, userID, date)
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(briefing)
	}

	scores, err := st.ListScores(ctx, userID, briefing.RunID)
	if err != nil {
		return err
	}
	finals := make(map[string]float64, len(scores))
	for _, score := range scores {
		finals[score.PaperID] = score.Final
	}

	fmt.Printf("Briefing for %s on %s (%d papers, avg %.3f)\n\n",
		userID, briefing.Date, briefing.PaperCount, briefing.AvgScore)
	for i, id := range briefing.PaperIDs {
		title := id
		if paper, err := st.GetPaper(ctx, id); err == nil && paper != nil {
			title = paper.Title
			if len(title) > 70 {
				title = title[:67] + "..."
			}
		}
		fmt.Fprintf(os.Stdout, "%2d. %.3f  %-16s  %s\n", i+1, finals[id], id, title)
	}
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 70))

	if noMark, _ := cmd.Flags().GetBool("no-mark"); !noMark && briefing.Status == types.BriefingGenerated {
		if err := st.SetBriefingStatus(ctx, userID, date, types.BriefingViewed); err != nil {
			return err
		}
	}
	return nil
}
