// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package enrich

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"text/template"
)

// Closed vocabularies. Classification output is filtered to these labels;
// anything else a model invents is dropped.
var (
	topicVocabulary = []string{"agents", "rag", "multimodal", "architectures", "surveys", "applications"}
	facetVocabulary = []string{"planning", "memory", "tool_use", "evaluation", "safety", "protocols"}
)

// classifyPromptTmpl instructs the model to label a paper with topics and
// facets from the closed vocabularies and reply with strict JSON.
var classifyPromptTmpl = template.Must(template.New("classify").Parse(`You are a research paper classification system. Assign topics and facets to the paper below.

Topics (choose one or more): agents, rag, multimodal, architectures, surveys, applications
Facets (choose zero or more): planning, memory, tool_use, evaluation, safety, protocols

Respond with a JSON object of the form {"topics": [...], "facets": [...]}. Use only labels from the lists above. Do not include any text outside the JSON object.

Title: {{.Title}}

Abstract: {{.Abstract}}
`))

// Classification is the structured result of classifying one paper.
type Classification struct {
	Topics []string `json:"topics"`
	Facets []string `json:"facets"`
}

// Classifier assigns topics and facets from the closed vocabularies.
// Two implementations exist: the LLM classifier and the deterministic
// keyword classifier it degrades to.
type Classifier interface {
	Classify(ctx context.Context, title, abstract string) (Classification, error)
}

// LLMClassifier classifies through an LLM backend and parses its strict
// JSON reply.
type LLMClassifier struct {
	Backend LLMBackend
}

// Classify renders the prompt, calls the backend, and validates the reply
// against the vocabularies.
func (c *LLMClassifier) Classify(ctx context.Context, title, abstract string) (Classification, error) {
	var buf bytes.Buffer
	err := classifyPromptTmpl.Execute(&buf, struct{ Title, Abstract string }{title, abstract})
	if err != nil {
		return Classification{}, fmt.Errorf("rendering prompt: %w", err)
	}

	reply, err := c.Backend.Complete(ctx, buf.String())
	if err != nil {
		return Classification{}, fmt.Errorf("classification call: %w", err)
	}

	var raw Classification
	if err := json.Unmarshal([]byte(strings.TrimSpace(reply)), &raw); err != nil {
		return Classification{}, fmt.Errorf("parsing classification JSON: %w", err)
	}

	result := Classification{
		Topics: intersectVocabulary(raw.Topics, topicVocabulary),
		Facets: intersectVocabulary(raw.Facets, facetVocabulary),
	}
	if len(result.Topics) == 0 {
		return Classification{}, fmt.Errorf("classification returned no known topics")
	}
	return result, nil
}

// intersectVocabulary keeps labels present in vocab, normalized to lower
// case, preserving vocab order and dropping duplicates.
func intersectVocabulary(labels, vocab []string) []string {
	got := make(map[string]bool, len(labels))
	for _, l := range labels {
		got[strings.ToLower(strings.TrimSpace(l))] = true
	}
	var out []string
	for _, v := range vocab {
		if got[v] {
			out = append(out, v)
		}
	}
	return out
}

// Keyword patterns for the deterministic fallback classifier. These are
// approximate heuristics; tune the patterns here.
var topicPatterns = map[string]*regexp.Regexp{
	"agents":        regexp.MustCompile(`(?i)\bagents?\b|agentic`),
	"rag":           regexp.MustCompile(`(?i)\brag\b|retrieval[\s-]augmented`),
	"multimodal":    regexp.MustCompile(`(?i)multi[\s-]?modal|vision[\s-]language|image|audio|video`),
	"architectures": regexp.MustCompile(`(?i)architecture|transformer|attention|mixture[\s-]of[\s-]experts`),
	"surveys":       regexp.MustCompile(`(?i)\bsurvey\b|systematic review|\boverview\b`),
	"applications":  regexp.MustCompile(`(?i)application|real[\s-]world|deployment|production`),
}

var facetPatterns = map[string]*regexp.Regexp{
	"planning":   regexp.MustCompile(`(?i)\bplanning\b|\bplanner\b`),
	"memory":     regexp.MustCompile(`(?i)\bmemory\b`),
	"tool_use":   regexp.MustCompile(`(?i)tool[\s-]?use|tool[\s-]?calling|function[\s-]calling`),
	"evaluation": regexp.MustCompile(`(?i)evaluat|\bbenchmark`),
	"safety":     regexp.MustCompile(`(?i)\bsafety\b|alignment|adversarial|jailbreak`),
	"protocols":  regexp.MustCompile(`(?i)\bprotocols?\b|interoperab`),
}

// KeywordClassifier is the deterministic degradation path used when the LLM
// is unavailable or replies with something unparseable. The pipeline never
// halts on an LLM outage.
type KeywordClassifier struct{}

// Classify matches vocabulary patterns against the title and abstract. A
// paper matching no topic pattern falls into "applications" so every
// enriched paper carries at least one topic.
func (KeywordClassifier) Classify(_ context.Context, title, abstract string) (Classification, error) {
	text := title + " " + abstract

	var result Classification
	for _, topic := range topicVocabulary {
		if topicPatterns[topic].MatchString(text) {
			result.Topics = append(result.Topics, topic)
		}
	}
	if len(result.Topics) == 0 {
		result.Topics = []string{"applications"}
	}

	for _, facet := range facetVocabulary {
		if facetPatterns[facet].MatchString(text) {
			result.Facets = append(result.Facets, facet)
		}
	}
	return result, nil
}

// FallbackClassifier tries the primary classifier and degrades to the
// fallback on any error.
type FallbackClassifier struct {
	Primary  Classifier
	Fallback Classifier
}

// Classify returns the primary result when it succeeds, the fallback result
// otherwise.
func (c *FallbackClassifier) Classify(ctx context.Context, title, abstract string) (Classification, error) {
	result, err := c.Primary.Classify(ctx, title, abstract)
	if err == nil {
		return result, nil
	}
	return c.Fallback.Classify(ctx, title, abstract)
}
