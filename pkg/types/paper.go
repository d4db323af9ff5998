// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// PaperStatus tracks where a paper sits in the ingestion pipeline.
type PaperStatus string

const (
	// StatusNew marks a paper that has been ingested but not yet enriched.
	// A version bump resets an existing paper to this status.
	StatusNew PaperStatus = "new"

	// StatusEnriched marks a paper with embedding, classification, and
	// evidence signals computed.
	StatusEnriched PaperStatus = "enriched"

	// StatusRanked marks a paper that has been scored in at least one
	// ranking run.
	StatusRanked PaperStatus = "ranked"

	// StatusArchived marks a paper that has aged out of daily ranking.
	StatusArchived PaperStatus = "archived"
)

// Paper is one arXiv paper as stored by the ingestion pipeline. Identity is
// the arXiv base ID, stable across versions; at most one record exists per
// base ID, and a newer version overwrites only when strictly greater.
type Paper struct {
	// ID is the arXiv base identifier without a version suffix
	// (e.g. "2401.12345" or "cs/0501001").
	ID string `json:"id" yaml:"id"`

	// Version is the arXiv version number (1 when the source entry carries
	// no explicit version).
	Version int `json:"version" yaml:"version"`

	// Title is the paper title with feed whitespace collapsed.
	Title string `json:"title" yaml:"title"`

	// Abstract is the paper abstract.
	Abstract string `json:"abstract" yaml:"abstract"`

	// Authors lists author names in feed order.
	Authors []string `json:"authors" yaml:"authors"`

	// Categories lists arXiv category tags in feed order; the first entry
	// is the primary category.
	Categories []string `json:"categories" yaml:"categories"`

	// PDFURL is the external PDF link from the feed entry.
	PDFURL string `json:"pdf_url,omitempty" yaml:"pdf_url,omitempty"`

	// Published is the original submission timestamp.
	Published time.Time `json:"published" yaml:"published"`

	// Updated is the latest revision timestamp.
	Updated time.Time `json:"updated" yaml:"updated"`

	// Status is the pipeline lifecycle state.
	Status PaperStatus `json:"status" yaml:"status"`
}

// PrimaryCategory returns the first category tag, or "" for an empty list.
func (p *Paper) PrimaryCategory() string {
	if len(p.Categories) == 0 {
		return ""
	}
	return p.Categories[0]
}

// EvidenceSignals are boolean empirical-rigor markers detected in a paper's
// abstract.
type EvidenceSignals struct {
	HasCode          bool `json:"has_code" yaml:"has_code"`
	HasData          bool `json:"has_data" yaml:"has_data"`
	HasBaselines     bool `json:"has_baselines" yaml:"has_baselines"`
	HasAblations     bool `json:"has_ablations" yaml:"has_ablations"`
	HasMultipleEvals bool `json:"has_multiple_evals" yaml:"has_multiple_evals"`
}

// Enrichment holds the computed signals for one paper. It is keyed by the
// paper's base ID (1:1 with Paper) and overwritten as a whole on
// re-enrichment.
type Enrichment struct {
	// PaperID matches Paper.ID.
	PaperID string `json:"paper_id" yaml:"paper_id"`

	// Topics are labels from the closed topic vocabulary.
	Topics []string `json:"topics" yaml:"topics"`

	// Facets are labels from the closed facet vocabulary.
	Facets []string `json:"facets" yaml:"facets"`

	// Embedding is the title+abstract embedding vector (fixed
	// dimensionality, 384 for the default local model).
	Embedding []float32 `json:"embedding" yaml:"embedding"`

	// MathDepth estimates mathematical density in [0,1].
	MathDepth float64 `json:"math_depth" yaml:"math_depth"`

	// Evidence holds the detected evidence signals.
	Evidence EvidenceSignals `json:"evidence" yaml:"evidence"`

	// EnrichedAt is when enrichment was computed.
	EnrichedAt time.Time `json:"enriched_at" yaml:"enriched_at"`
}

// Category is one entry of the source taxonomy (e.g. "cs.AI").
type Category struct {
	// ID is the category identifier used in feed queries.
	ID string `json:"id" yaml:"id"`

	// Name is the human-readable category name.
	Name string `json:"name" yaml:"name"`

	// Description summarizes the category's coverage.
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}
