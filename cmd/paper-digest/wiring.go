package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/paper-digest/internal/enrich"
	"github.com/pdiddy/paper-digest/internal/schedule"
	"github.com/pdiddy/paper-digest/internal/scout"
	"github.com/pdiddy/paper-digest/internal/store"
	"github.com/pdiddy/paper-digest/pkg/types"
)

const (
	defaultTimeout        = 60 * time.Second
	defaultUserAgent      = "paper-digest/0.1"
	defaultDataDir        = "data"
	defaultUser           = "default"
	defaultMaxPerCategory = 25
)

// currentUser resolves the profile name from the --user flag or config.
func currentUser(cmd *cobra.Command) string {
	user, _ := cmd.Flags().GetString("user")
	if user == "" {
		user = viper.GetString("user")
	}
	if user == "" {
		user = defaultUser
	}
	return user
}

// pipelineConfig assembles the full stage configuration from flags, the
// config file, and loaded secrets.
func pipelineConfig(cmd *cobra.Command) types.PipelineConfig {
	dataDir, _ := cmd.Flags().GetString("data-dir")
	if dataDir == "" {
		dataDir = viper.GetString("store.data_dir")
	}
	if dataDir == "" {
		dataDir = defaultDataDir
	}

	cfg := types.PipelineConfig{
		Scheduler: types.SchedulerConfig{
			MinInterval:       viper.GetDuration("scheduler.min_interval"),
			Reservoir:         viper.GetInt("scheduler.reservoir"),
			RefillPeriod:      viper.GetDuration("scheduler.refill_period"),
			MaxRetries:        viper.GetInt("scheduler.max_retries"),
			ThrottleBaseDelay: viper.GetDuration("scheduler.throttle_base_delay"),
			ThrottleMaxDelay:  viper.GetDuration("scheduler.throttle_max_delay"),
			TransientDelay:    viper.GetDuration("scheduler.transient_delay"),
		}.Defaulted(),
		Scout: types.ScoutConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   defaultTimeout,
				UserAgent: defaultUserAgent,
			},
			MaxPerCategory: viper.GetInt("scout.max_per_category"),
		},
		Enrich: types.EnrichConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   defaultTimeout,
				UserAgent: defaultUserAgent,
			},
			Embedding: types.EmbeddingConfig{
				LocalURL:   viper.GetString("enrich.embedding.local_url"),
				LocalModel: viper.GetString("enrich.embedding.local_model"),
				CloudURL:   viper.GetString("enrich.embedding.cloud_url"),
				CloudModel: viper.GetString("enrich.embedding.cloud_model"),
				APIKey:     secretDefault("openai-api-key", viper.GetString("enrich.embedding.api_key")),
				Dimensions: viper.GetInt("enrich.embedding.dimensions"),
			},
			LLM: types.LLMConfig{
				LocalURL:   viper.GetString("enrich.llm.local_url"),
				LocalModel: viper.GetString("enrich.llm.local_model"),
				CloudModel: viper.GetString("enrich.llm.cloud_model"),
				APIKey:     secretDefault("anthropic-api-key", viper.GetString("enrich.llm.api_key")),
			},
		},
		Store: types.StoreConfig{DataDir: dataDir},
	}
	if cfg.Scout.MaxPerCategory <= 0 {
		cfg.Scout.MaxPerCategory = defaultMaxPerCategory
	}
	return cfg
}

func openStore(cfg types.PipelineConfig) (*store.Store, error) {
	return store.NewStore(cfg.Store)
}

// buildScout wires the arXiv feed, the shared scheduler, and the store into
// a Scout. The caller owns the returned scheduler's lifecycle.
func buildScout(st *store.Store, cfg types.PipelineConfig) (*scout.Scout, *schedule.Scheduler) {
	sched := schedule.NewScheduler(cfg.Scheduler)
	feed := &scout.ArxivFeed{
		Client: &http.Client{Timeout: cfg.Scout.Timeout},
		Config: cfg.Scout,
	}
	return scout.New(feed, st, sched, cfg.Scout), sched
}

// buildEnricher selects providers per the profile's local/cloud preferences
// and wires the LLM classifier with its keyword fallback.
func buildEnricher(st *store.Store, cfg types.PipelineConfig, profile *types.Profile) (*enrich.Enricher, error) {
	client := &http.Client{Timeout: cfg.Enrich.Timeout}

	embedder, err := enrich.SelectEmbedder(cfg.Enrich.Embedding, profile.LocalEmbeddings, client)
	if err != nil {
		return nil, fmt.Errorf("selecting embedding provider: %w", err)
	}
	llm, err := enrich.SelectLLM(cfg.Enrich.LLM, profile.LocalLLM, client)
	if err != nil {
		return nil, fmt.Errorf("selecting LLM backend: %w", err)
	}

	classifier := &enrich.FallbackClassifier{
		Primary:  &enrich.LLMClassifier{Backend: llm},
		Fallback: enrich.KeywordClassifier{},
	}
	return enrich.New(embedder, classifier, st), nil
}

// loadProfile reads the user's profile, pointing at `profile init` when it
// does not exist yet.
func loadProfile(ctx context.Context, st *store.Store, userID string) (*types.Profile, error) {
	profile, err := st.GetProfile(ctx, userID)
	if errors.Is(err, store.ErrProfileNotFound) {
		return nil, fmt.Errorf("no profile for %q: run `paper-digest profile init --user %s` first", userID, userID)
	}
	return profile, err
}
