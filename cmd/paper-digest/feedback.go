package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paper-digest/internal/feedback"
	"github.com/pdiddy/paper-digest/pkg/types"
)

var feedbackCmd = &cobra.Command{
	Use:   "feedback [paper-id]",
	Short: "Record a reaction to a paper and update the interest vector",
	Long: `Feedback appends one reaction (save, dismiss, thumbs_up, thumbs_down,
hide) to the user's feedback log and blends the paper's embedding into the
user's interest vector. Positive actions pull the vector toward the paper,
negative actions push it away.`,
	Args: cobra.ExactArgs(1),
	RunE: runFeedback,
}

func init() {
	feedbackCmd.Flags().String("action", "", "one of: save, dismiss, thumbs_up, thumbs_down, hide")
	feedbackCmd.Flags().Float64("weight", 1.0, "update weight")
	feedbackCmd.Flags().String("note", "", "optional free-form context")

	rootCmd.AddCommand(feedbackCmd)
}

func runFeedback(cmd *cobra.Command, args []string) error {
	action, _ := cmd.Flags().GetString("action")
	if action == "" {
		return fmt.Errorf("provide --action (save, dismiss, thumbs_up, thumbs_down, hide)")
	}
	weight, _ := cmd.Flags().GetFloat64("weight")
	note, _ := cmd.Flags().GetString("note")

	cfg := pipelineConfig(cmd)
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	userID := currentUser(cmd)
	learner := feedback.NewLearner(st)
	err = learner.Record(context.Background(), types.Feedback{
		UserID:  userID,
		PaperID: args[0],
		Action:  types.FeedbackAction(action),
		Weight:  weight,
		Context: note,
	})
	if err != nil {
		return err
	}

	fmt.Printf("recorded %s on %s for %s\n", action, args[0], userID)
	return nil
}
