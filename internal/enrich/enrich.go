// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package enrich computes per-paper signals: embedding, math depth, topic
// and facet classification, and evidence markers. Papers enter with status
// "new" and leave with status "enriched".
package enrich

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/pdiddy/paper-digest/pkg/types"
)

// Store is the subset of persistence the enricher needs.
type Store interface {
	// ListPapersByStatus returns papers in one lifecycle state.
	ListPapersByStatus(ctx context.Context, status types.PaperStatus) ([]*types.Paper, error)

	// PutEnrichment creates or overwrites the enrichment for a paper.
	PutEnrichment(ctx context.Context, e *types.Enrichment) error

	// SetPaperStatus transitions a paper's lifecycle state.
	SetPaperStatus(ctx context.Context, id string, status types.PaperStatus) error
}

// BatchSummary holds counts from a batch enrichment run.
type BatchSummary struct {
	Enriched int
	Failed   int
}

// Total returns the number of papers processed.
func (s BatchSummary) Total() int {
	return s.Enriched + s.Failed
}

// Enricher computes and persists enrichment records.
type Enricher struct {
	embedder   EmbeddingProvider
	classifier Classifier
	store      Store

	// now is the clock; tests may substitute it.
	now func() time.Time
}

// New creates an Enricher.
func New(embedder EmbeddingProvider, classifier Classifier, store Store) *Enricher {
	return &Enricher{
		embedder:   embedder,
		classifier: classifier,
		store:      store,
		now:        time.Now,
	}
}

// Enrich computes all signals for one paper, upserts the enrichment record,
// and transitions the paper to "enriched". Classification degrades to the
// keyword rules inside the classifier; an embedding failure is fatal for
// the paper because a score without an embedding would be meaningless.
func (e *Enricher) Enrich(ctx context.Context, paper *types.Paper) (*types.Enrichment, error) {
	embedding, err := e.embedder.Embed(ctx, paper.Title+"\n\n"+paper.Abstract)
	if err != nil {
		return nil, fmt.Errorf("embedding %s: %w", paper.ID, err)
	}

	classification, err := e.classifier.Classify(ctx, paper.Title, paper.Abstract)
	if err != nil {
		return nil, fmt.Errorf("classifying %s: %w", paper.ID, err)
	}

	record := &types.Enrichment{
		PaperID:    paper.ID,
		Topics:     classification.Topics,
		Facets:     classification.Facets,
		Embedding:  embedding,
		MathDepth:  MathDepth(paper.Title, paper.Abstract),
		Evidence:   DetectEvidence(paper.Abstract),
		EnrichedAt: e.now().UTC(),
	}

	if err := e.store.PutEnrichment(ctx, record); err != nil {
		return nil, fmt.Errorf("storing enrichment %s: %w", paper.ID, err)
	}
	if err := e.store.SetPaperStatus(ctx, paper.ID, types.StatusEnriched); err != nil {
		return nil, fmt.Errorf("updating status %s: %w", paper.ID, err)
	}
	return record, nil
}

// EnrichPending processes every paper with status "new", one at a time. A
// failure on one paper is logged to w and skipped; the rest of the queue
// continues. The run is abortable between papers via ctx.
func (e *Enricher) EnrichPending(ctx context.Context, w io.Writer) (BatchSummary, error) {
	papers, err := e.store.ListPapersByStatus(ctx, types.StatusNew)
	if err != nil {
		return BatchSummary{}, fmt.Errorf("listing pending papers: %w", err)
	}

	var summary BatchSummary
	for _, paper := range papers {
		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		if _, err := e.Enrich(ctx, paper); err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", paper.ID, err)
			summary.Failed++
			continue
		}
		fmt.Fprintf(w, "enriched %s\n", paper.ID)
		summary.Enriched++
	}

	fmt.Fprintf(w, "\nenriched: %d, failed: %d\n", summary.Enriched, summary.Failed)
	return summary, nil
}
