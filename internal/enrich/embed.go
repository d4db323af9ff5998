// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package enrich

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/pdiddy/paper-digest/pkg/types"
)

// ErrMissingAPIKey marks a cloud provider configured without credentials.
// It is fatal: a missing key is never papered over with placeholder vectors.
var ErrMissingAPIKey = errors.New("missing API key")

// Default embedding settings for the local provider.
const (
	DefaultOllamaURL       = "http://localhost:11434"
	DefaultEmbeddingModel  = "all-minilm:l6-v2"
	DefaultDimensions      = 384
	DefaultCloudEmbedURL   = "https://api.openai.com/v1/embeddings"
	DefaultCloudEmbedModel = "text-embedding-3-small"
)

// EmbeddingProvider computes a fixed-length vector for a text. Local and
// cloud implementations are interchangeable from the caller's perspective.
type EmbeddingProvider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
}

// OllamaEmbedder calls an Ollama-compatible embeddings endpoint.
type OllamaEmbedder struct {
	BaseURL string
	Model   string
	Dims    int
	Client  *http.Client
}

// NewOllamaEmbedder builds the local provider from cfg, applying defaults.
func NewOllamaEmbedder(cfg types.EmbeddingConfig, client *http.Client) *OllamaEmbedder {
	e := &OllamaEmbedder{
		BaseURL: cfg.LocalURL,
		Model:   cfg.LocalModel,
		Dims:    cfg.Dimensions,
		Client:  client,
	}
	if e.BaseURL == "" {
		e.BaseURL = DefaultOllamaURL
	}
	if e.Model == "" {
		e.Model = DefaultEmbeddingModel
	}
	if e.Dims <= 0 {
		e.Dims = DefaultDimensions
	}
	return e
}

// Dimensions returns the expected vector length.
func (e *OllamaEmbedder) Dimensions() int { return e.Dims }

type ollamaEmbedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type ollamaEmbedResponse struct {
	Embedding []float32 `json:"embedding"`
}

// Embed generates an embedding for text. A response with the wrong
// dimensionality is rejected rather than truncated or padded.
func (e *OllamaEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(ollamaEmbedRequest{Model: e.Model, Prompt: text})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.BaseURL+"/api/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama embeddings request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("ollama returned HTTP %d: %s", resp.StatusCode, string(b))
	}

	var result ollamaEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	if len(result.Embedding) != e.Dims {
		return nil, fmt.Errorf("unexpected embedding dimensions: got %d, want %d", len(result.Embedding), e.Dims)
	}
	return result.Embedding, nil
}

// CloudEmbedder calls an OpenAI-compatible embeddings endpoint.
type CloudEmbedder struct {
	BaseURL string
	Model   string
	APIKey  string
	Dims    int
	Client  *http.Client
}

// NewCloudEmbedder builds the cloud provider from cfg. A missing API key
// fails here, before any request is attempted.
func NewCloudEmbedder(cfg types.EmbeddingConfig, client *http.Client) (*CloudEmbedder, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("cloud embeddings: %w", ErrMissingAPIKey)
	}
	e := &CloudEmbedder{
		BaseURL: cfg.CloudURL,
		Model:   cfg.CloudModel,
		APIKey:  cfg.APIKey,
		Dims:    cfg.Dimensions,
		Client:  client,
	}
	if e.BaseURL == "" {
		e.BaseURL = DefaultCloudEmbedURL
	}
	if e.Model == "" {
		e.Model = DefaultCloudEmbedModel
	}
	if e.Dims <= 0 {
		e.Dims = DefaultDimensions
	}
	return e, nil
}

// Dimensions returns the expected vector length.
func (e *CloudEmbedder) Dimensions() int { return e.Dims }

type cloudEmbedRequest struct {
	Model      string `json:"model"`
	Input      string `json:"input"`
	Dimensions int    `json:"dimensions,omitempty"`
}

type cloudEmbedResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// Embed generates an embedding for text through the cloud endpoint.
func (e *CloudEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(cloudEmbedRequest{Model: e.Model, Input: text, Dimensions: e.Dims})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.BaseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.APIKey)

	resp, err := e.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embeddings API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("embeddings API returned HTTP %d: %s", resp.StatusCode, string(b))
	}

	var result cloudEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	if len(result.Data) == 0 {
		return nil, fmt.Errorf("embeddings API returned no data")
	}
	vec := result.Data[0].Embedding
	if len(vec) != e.Dims {
		return nil, fmt.Errorf("unexpected embedding dimensions: got %d, want %d", len(vec), e.Dims)
	}
	return vec, nil
}

// SelectEmbedder returns the provider matching the profile's local/cloud
// preference.
func SelectEmbedder(cfg types.EmbeddingConfig, local bool, client *http.Client) (EmbeddingProvider, error) {
	if local {
		return NewOllamaEmbedder(cfg, client), nil
	}
	return NewCloudEmbedder(cfg, client)
}
