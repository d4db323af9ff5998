package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paper-digest/internal/pipeline"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full digest pipeline and build the daily briefing",
	Long: `Run executes the three pipeline stages in order (scout, enrich, rank)
as a queued daily-digest job, then assembles the day's briefing from the
ranking results. Stage failures are isolated: a failed scout still leaves
previously ingested papers to enrich, and a failed enrichment still leaves
enriched papers to rank.`,
	RunE: runPipeline,
}

func init() {
	runCmd.Flags().String("date", "", "briefing date in YYYY-MM-DD form (default: today)")

	rootCmd.AddCommand(runCmd)
}

func runPipeline(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	cfg := pipelineConfig(cmd)
	userID := currentUser(cmd)

	date, _ := cmd.Flags().GetString("date")
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	profile, err := loadProfile(ctx, st, userID)
	if err != nil {
		return err
	}

	enricher, err := buildEnricher(st, cfg, profile)
	if err != nil {
		return err
	}
	sc, sched := buildScout(st, cfg)
	sched.Start()
	defer sched.Stop()

	pipe := pipeline.New(sc, enricher, newRanker(), st, cfg)
	builder := pipeline.NewBriefingBuilder(st)

	queue := pipeline.NewMemoryQueue()
	queue.Register("daily-digest", func(ctx context.Context, payload map[string]string) error {
		summary, err := pipe.Run(ctx, payload["user"], os.Stdout)
		if err != nil {
			return err
		}
		if summary.Ranked == 0 {
			fmt.Println("No papers ranked; skipping briefing.")
			return nil
		}
		briefing, err := builder.Build(ctx, payload["user"], summary.RunID, payload["date"])
		if err != nil {
			return err
		}
		fmt.Printf("briefing %s: %d paper(s), avg score %.3f\n",
			briefing.Date, briefing.PaperCount, briefing.AvgScore)
		return nil
	})

	jobID, err := queue.Enqueue(ctx, "daily-digest", map[string]string{
		"user": userID,
		"date": date,
	})
	if err != nil {
		return err
	}
	if err := queue.Drain(ctx); err != nil {
		return err
	}

	job := queue.Job(jobID)
	if job.Status == pipeline.JobFailed {
		return fmt.Errorf("daily-digest job %s failed: %s", jobID, job.Error)
	}
	return nil
}
