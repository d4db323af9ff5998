package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/paper-digest/internal/store"
	"github.com/pdiddy/paper-digest/pkg/types"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage user interest profiles",
	Long: `Profile manages per-user interest profiles: category subscriptions,
topic and keyword exclusion rules, math-depth tolerance, exploration rate,
and provider preferences. Profiles can be exported to and imported from
YAML files.`,
}

// --- init subcommand ---

var profileInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a profile with default settings",
	RunE:  runProfileInit,
}

func runProfileInit(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	st, err := openStore(pipelineConfig(cmd))
	if err != nil {
		return err
	}
	defer st.Close()

	userID := currentUser(cmd)
	if _, err := st.GetProfile(ctx, userID); err == nil {
		return fmt.Errorf("profile %q already exists", userID)
	} else if !errors.Is(err, store.ErrProfileNotFound) {
		return err
	}

	profile := types.DefaultProfile(userID)
	profile.UpdatedAt = time.Now()
	if err := st.PutProfile(ctx, profile); err != nil {
		return err
	}
	fmt.Printf("created profile %q with categories %v\n", userID, profile.Categories)
	return nil
}

// --- show subcommand ---

var profileShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print a profile as YAML",
	RunE:  runProfileShow,
}

func runProfileShow(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	st, err := openStore(pipelineConfig(cmd))
	if err != nil {
		return err
	}
	defer st.Close()

	profile, err := loadProfile(ctx, st, currentUser(cmd))
	if err != nil {
		return err
	}
	return yaml.NewEncoder(os.Stdout).Encode(profile)
}

// --- set subcommand ---

var profileSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Update profile settings",
	Long: `Set updates the flagged settings and leaves everything else unchanged.
List-valued flags replace the stored list wholesale.`,
	RunE: runProfileSet,
}

func runProfileSet(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	st, err := openStore(pipelineConfig(cmd))
	if err != nil {
		return err
	}
	defer st.Close()

	profile, err := loadProfile(ctx, st, currentUser(cmd))
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("categories") {
		profile.Categories, _ = flags.GetStringSlice("categories")
	}
	if flags.Changed("include-topics") {
		profile.IncludeTopics, _ = flags.GetStringSlice("include-topics")
	}
	if flags.Changed("exclude-topics") {
		profile.ExcludeTopics, _ = flags.GetStringSlice("exclude-topics")
	}
	if flags.Changed("include-keywords") {
		profile.IncludeKeywords, _ = flags.GetStringSlice("include-keywords")
	}
	if flags.Changed("exclude-keywords") {
		profile.ExcludeKeywords, _ = flags.GetStringSlice("exclude-keywords")
	}
	if flags.Changed("math-depth-max") {
		profile.MathDepthMax, _ = flags.GetFloat64("math-depth-max")
	}
	if flags.Changed("exploration-rate") {
		profile.ExplorationRate, _ = flags.GetFloat64("exploration-rate")
	}
	if flags.Changed("noise-cap") {
		profile.NoiseCap, _ = flags.GetInt("noise-cap")
	}
	if flags.Changed("target-daily") {
		profile.TargetDaily, _ = flags.GetInt("target-daily")
	}
	if flags.Changed("local-embeddings") {
		profile.LocalEmbeddings, _ = flags.GetBool("local-embeddings")
	}
	if flags.Changed("local-llm") {
		profile.LocalLLM, _ = flags.GetBool("local-llm")
	}

	if profile.MathDepthMax < 0 || profile.MathDepthMax > 1 {
		return fmt.Errorf("math-depth-max must be in [0,1]")
	}
	if profile.ExplorationRate < 0 || profile.ExplorationRate > 1 {
		return fmt.Errorf("exploration-rate must be in [0,1]")
	}

	profile.UpdatedAt = time.Now()
	if err := st.PutProfile(ctx, profile); err != nil {
		return err
	}
	fmt.Printf("updated profile %q\n", profile.UserID)
	return nil
}

// --- export / import subcommands ---

var profileExportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Write a profile to a YAML file",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfileExport,
}

func runProfileExport(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	st, err := openStore(pipelineConfig(cmd))
	if err != nil {
		return err
	}
	defer st.Close()

	profile, err := loadProfile(ctx, st, currentUser(cmd))
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(profile)
	if err != nil {
		return fmt.Errorf("encoding profile: %w", err)
	}
	if err := os.WriteFile(args[0], data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", args[0], err)
	}
	fmt.Printf("exported profile %q to %s\n", profile.UserID, args[0])
	return nil
}

var profileImportCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Load a profile from a YAML file",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfileImport,
}

func runProfileImport(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading %s: %w", args[0], err)
	}

	var profile types.Profile
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return fmt.Errorf("parsing %s: %w", args[0], err)
	}
	if profile.UserID == "" {
		profile.UserID = currentUser(cmd)
	}

	st, err := openStore(pipelineConfig(cmd))
	if err != nil {
		return err
	}
	defer st.Close()

	profile.UpdatedAt = time.Now()
	if err := st.PutProfile(context.Background(), &profile); err != nil {
		return err
	}
	fmt.Printf("imported profile %q from %s\n", profile.UserID, args[0])
	return nil
}

func init() {
	profileSetCmd.Flags().StringSlice("categories", nil, "arXiv category subscriptions")
	profileSetCmd.Flags().StringSlice("include-topics", nil, "topics to favor")
	profileSetCmd.Flags().StringSlice("exclude-topics", nil, "topics that hard-exclude papers")
	profileSetCmd.Flags().StringSlice("include-keywords", nil, "keywords to favor")
	profileSetCmd.Flags().StringSlice("exclude-keywords", nil, "keywords that hard-exclude papers (substring match)")
	profileSetCmd.Flags().Float64("math-depth-max", 1.0, "math depth tolerance in [0,1]")
	profileSetCmd.Flags().Float64("exploration-rate", 0.1, "exploration rate in [0,1]")
	profileSetCmd.Flags().Int("noise-cap", 30, "maximum papers per briefing")
	profileSetCmd.Flags().Int("target-daily", 10, "preferred briefing size")
	profileSetCmd.Flags().Bool("local-embeddings", true, "use the local embedding provider")
	profileSetCmd.Flags().Bool("local-llm", true, "use the local LLM backend")

	profileCmd.AddCommand(profileInitCmd)
	profileCmd.AddCommand(profileShowCmd)
	profileCmd.AddCommand(profileSetCmd)
	profileCmd.AddCommand(profileExportCmd)
	profileCmd.AddCommand(profileImportCmd)

	rootCmd.AddCommand(profileCmd)
}
