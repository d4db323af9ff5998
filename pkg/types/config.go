// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "paper-digest/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// SchedulerConfig holds settings for the outbound source-feed scheduler.
type SchedulerConfig struct {
	// MinInterval is the minimum separation between task start times
	// (default 3s, per the arXiv API usage policy).
	MinInterval time.Duration `json:"min_interval" yaml:"min_interval"`

	// Reservoir is the number of task slots available between refills
	// (default 20).
	Reservoir int `json:"reservoir" yaml:"reservoir"`

	// RefillPeriod is how often the reservoir refills to capacity
	// (default 60s).
	RefillPeriod time.Duration `json:"refill_period" yaml:"refill_period"`

	// MaxRetries is the retry budget per task before its failure is
	// surfaced (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// ThrottleBaseDelay is the base backoff after an upstream throttle
	// response; the wait grows linearly with the attempt count and is
	// capped at ThrottleMaxDelay.
	ThrottleBaseDelay time.Duration `json:"throttle_base_delay" yaml:"throttle_base_delay"`
	ThrottleMaxDelay  time.Duration `json:"throttle_max_delay" yaml:"throttle_max_delay"`

	// TransientDelay is the fixed wait before retrying a non-throttle
	// failure.
	TransientDelay time.Duration `json:"transient_delay" yaml:"transient_delay"`
}

// Defaulted returns a copy with zero fields replaced by defaults.
func (c SchedulerConfig) Defaulted() SchedulerConfig {
	if c.MinInterval <= 0 {
		c.MinInterval = 3 * time.Second
	}
	if c.Reservoir <= 0 {
		c.Reservoir = 20
	}
	if c.RefillPeriod <= 0 {
		c.RefillPeriod = 60 * time.Second
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.ThrottleBaseDelay <= 0 {
		c.ThrottleBaseDelay = 5 * time.Second
	}
	if c.ThrottleMaxDelay <= 0 {
		c.ThrottleMaxDelay = 30 * time.Second
	}
	if c.TransientDelay <= 0 {
		c.TransientDelay = 2 * time.Second
	}
	return c
}

// ScoutConfig holds settings for the ingestion stage.
type ScoutConfig struct {
	HTTPConfig `yaml:",inline"`

	// MaxPerCategory is how many recent entries to fetch per category
	// (default 25).
	MaxPerCategory int `json:"max_per_category" yaml:"max_per_category"`
}

// EmbeddingConfig holds settings for the embedding providers.
type EmbeddingConfig struct {
	// LocalURL is the Ollama-compatible endpoint for local embeddings.
	LocalURL string `json:"local_url" yaml:"local_url"`

	// LocalModel is the local embedding model (default "all-minilm:l6-v2").
	LocalModel string `json:"local_model" yaml:"local_model"`

	// CloudURL is the OpenAI-compatible embeddings endpoint.
	CloudURL string `json:"cloud_url" yaml:"cloud_url"`

	// CloudModel is the cloud embedding model.
	CloudModel string `json:"cloud_model" yaml:"cloud_model"`

	// APIKey authenticates cloud requests. Required for cloud mode; a
	// missing key is a configuration error, never silently substituted.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// Dimensions is the expected vector length (default 384). Responses
	// with any other length are rejected.
	Dimensions int `json:"dimensions" yaml:"dimensions"`
}

// LLMConfig holds settings for the classification LLM backends.
type LLMConfig struct {
	// LocalURL is the Ollama-compatible generate endpoint.
	LocalURL string `json:"local_url" yaml:"local_url"`

	// LocalModel is the local chat model used for classification.
	LocalModel string `json:"local_model" yaml:"local_model"`

	// CloudModel is the cloud model identifier (e.g. a Claude model name).
	CloudModel string `json:"cloud_model" yaml:"cloud_model"`

	// APIKey authenticates cloud requests.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`
}

// EnrichConfig holds settings for the enrichment stage.
type EnrichConfig struct {
	HTTPConfig `yaml:",inline"`

	Embedding EmbeddingConfig `json:"embedding" yaml:"embedding"`
	LLM       LLMConfig       `json:"llm" yaml:"llm"`
}

// StoreConfig holds settings for the SQLite store.
type StoreConfig struct {
	// DataDir is the base directory for the digest database
	// (contains digest.db).
	DataDir string `json:"data_dir" yaml:"data_dir"`
}

// PipelineConfig groups all stage configurations.
type PipelineConfig struct {
	Scheduler SchedulerConfig `json:"scheduler" yaml:"scheduler"`
	Scout     ScoutConfig     `json:"scout" yaml:"scout"`
	Enrich    EnrichConfig    `json:"enrich" yaml:"enrich"`
	Store     StoreConfig     `json:"store" yaml:"store"`
}
