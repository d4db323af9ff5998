// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package enrich

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/pdiddy/paper-digest/pkg/types"
)

// claudeAPIURL is the Claude API endpoint. Package-level var for test
// substitution.
var claudeAPIURL = "https://api.anthropic.com/v1/messages"

// Default LLM settings.
const (
	DefaultLocalLLMModel = "llama3.2"
	DefaultCloudLLMModel = "claude-sonnet-4-5-20250929"
)

// LLMBackend abstracts the text-generation provider so classification can
// run against a local or cloud model, and tests can supply a mock.
type LLMBackend interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// OllamaBackend calls an Ollama-compatible generate endpoint.
type OllamaBackend struct {
	BaseURL string
	Model   string
	Client  *http.Client
}

// NewOllamaBackend builds the local backend from cfg, applying defaults.
func NewOllamaBackend(cfg types.LLMConfig, client *http.Client) *OllamaBackend {
	b := &OllamaBackend{BaseURL: cfg.LocalURL, Model: cfg.LocalModel, Client: client}
	if b.BaseURL == "" {
		b.BaseURL = DefaultOllamaURL
	}
	if b.Model == "" {
		b.Model = DefaultLocalLLMModel
	}
	return b
}

type ollamaGenerateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Format string `json:"format,omitempty"`
	Stream bool   `json:"stream"`
}

type ollamaGenerateResponse struct {
	Response string `json:"response"`
}

// Complete sends prompt to the generate endpoint and returns the raw
// response text. JSON output format is requested so the classifier gets a
// parseable reply.
func (b *OllamaBackend) Complete(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(ollamaGenerateRequest{
		Model:  b.Model,
		Prompt: prompt,
		Format: "json",
		Stream: false,
	})
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.BaseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("ollama generate request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("ollama returned HTTP %d: %s", resp.StatusCode, string(respBody))
	}

	var result ollamaGenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}
	return result.Response, nil
}

// ClaudeBackend calls the Claude Messages API.
type ClaudeBackend struct {
	APIKey string
	Model  string
	Client *http.Client
}

// NewClaudeBackend builds the cloud backend from cfg. A missing API key
// fails immediately.
func NewClaudeBackend(cfg types.LLMConfig, client *http.Client) (*ClaudeBackend, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("cloud LLM: %w", ErrMissingAPIKey)
	}
	b := &ClaudeBackend{APIKey: cfg.APIKey, Model: cfg.CloudModel, Client: client}
	if b.Model == "" {
		b.Model = DefaultCloudLLMModel
	}
	return b, nil
}

type claudeRequest struct {
	Model     string          `json:"model"`
	MaxTokens int             `json:"max_tokens"`
	Messages  []claudeMessage `json:"messages"`
}

type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type claudeResponse struct {
	Content []claudeContent `json:"content"`
}

type claudeContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Complete sends prompt to the Claude Messages API and returns the first
// text block.
func (b *ClaudeBackend) Complete(ctx context.Context, prompt string) (string, error) {
	reqBody := claudeRequest{
		Model:     b.Model,
		MaxTokens: 1024,
		Messages:  []claudeMessage{{Role: "user", Content: prompt}},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, claudeAPIURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", b.APIKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	client := b.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling Claude API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("Claude API returned %d: %s", resp.StatusCode, string(respBody))
	}

	var cResp claudeResponse
	if err := json.NewDecoder(resp.Body).Decode(&cResp); err != nil {
		return "", fmt.Errorf("decoding Claude response: %w", err)
	}

	for _, block := range cResp.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}
	return "", fmt.Errorf("no text content in Claude API response")
}

// SelectLLM returns the backend matching the profile's local/cloud
// preference.
func SelectLLM(cfg types.LLMConfig, local bool, client *http.Client) (LLMBackend, error) {
	if local {
		return NewOllamaBackend(cfg, client), nil
	}
	return NewClaudeBackend(cfg, client)
}
