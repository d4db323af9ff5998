// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline sequences the three digest stages: scout ingestion,
// enrichment, and ranking. Stage failures are isolated so one broken stage
// leaves the others' results intact for the next run.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/pdiddy/paper-digest/internal/enrich"
	"github.com/pdiddy/paper-digest/internal/rank"
	"github.com/pdiddy/paper-digest/internal/scout"
	"github.com/pdiddy/paper-digest/pkg/types"
)

// Ingester is the scout stage surface.
type Ingester interface {
	IngestRecent(ctx context.Context, categories []string, maxPerCategory int, w io.Writer) ([]string, scout.IngestSummary, error)
}

// Enricher is the enrichment stage surface.
type Enricher interface {
	EnrichPending(ctx context.Context, w io.Writer) (enrich.BatchSummary, error)
}

// Ranker is the ranking stage surface.
type Ranker interface {
	RankPapers(ctx context.Context, papers []*types.Paper, enrichments map[string]*types.Enrichment, profile *types.Profile, runID string) ([]*types.Score, []rank.Skip, error)
}

// Store is the persistence surface the orchestrator needs around the stages.
type Store interface {
	GetProfile(ctx context.Context, userID string) (*types.Profile, error)
	ListPapersByStatus(ctx context.Context, status types.PaperStatus) ([]*types.Paper, error)
	GetEnrichment(ctx context.Context, paperID string) (*types.Enrichment, error)
	SetPaperStatus(ctx context.Context, id string, status types.PaperStatus) error
	PutScores(ctx context.Context, scores []*types.Score) error
}

// RunSummary reports what one pipeline run actually accomplished. Counts
// reflect successful operations only.
type RunSummary struct {
	RunID    string
	Ingested int
	Enriched int
	Ranked   int
	Skipped  int
}

// Pipeline owns one run's stage sequencing.
type Pipeline struct {
	ingester Ingester
	enricher Enricher
	ranker   Ranker
	store    Store
	cfg      types.PipelineConfig
	now      func() time.Time
	newRunID func() string
}

func New(ingester Ingester, enricher Enricher, ranker Ranker, store Store, cfg types.PipelineConfig) *Pipeline {
	return &Pipeline{
		ingester: ingester,
		enricher: enricher,
		ranker:   ranker,
		store:    store,
		cfg:      cfg,
		now:      time.Now,
		newRunID: uuid.NewString,
	}
}

// Run executes scout → enrich → rank for one user. A scout failure aborts
// ingestion only; enrichment proceeds over already-ingested papers. An
// enrichment listing failure likewise leaves ranking to work with whatever
// is already enriched. A ranking failure is returned after the earlier
// stages' results are safely persisted.
func (p *Pipeline) Run(ctx context.Context, userID string, w io.Writer) (RunSummary, error) {
	profile, err := p.store.GetProfile(ctx, userID)
	if err != nil {
		return RunSummary{}, fmt.Errorf("pipeline: %w", err)
	}

	summary := RunSummary{RunID: p.newRunID()}

	ids, _, err := p.ingester.IngestRecent(ctx, profile.Categories, p.cfg.Scout.MaxPerCategory, w)
	if err != nil {
		fmt.Fprintf(w, "scout stage failed: %v\n", err)
	}
	summary.Ingested = len(ids)

	enrichSummary, err := p.enricher.EnrichPending(ctx, w)
	if err != nil {
		fmt.Fprintf(w, "enrich stage failed: %v\n", err)
	}
	summary.Enriched = enrichSummary.Enriched

	ranked, skipped, err := p.rankEnriched(ctx, profile, summary.RunID, w)
	summary.Ranked = ranked
	summary.Skipped = skipped
	if err != nil {
		fmt.Fprintf(w, "rank stage failed: %v\n", err)
		return summary, fmt.Errorf("pipeline: rank stage: %w", err)
	}

	fmt.Fprintf(w, "\nrun %s: ingested: %d, enriched: %d, ranked: %d, skipped: %d\n",
		summary.RunID, summary.Ingested, summary.Enriched, summary.Ranked, summary.Skipped)
	return summary, nil
}

// rankEnriched scores every enriched-but-unranked paper against the profile
// and persists the scores. Papers that were scored transition to "ranked";
// skipped papers keep their status and are reported.
func (p *Pipeline) rankEnriched(ctx context.Context, profile *types.Profile, runID string, w io.Writer) (int, int, error) {
	papers, err := p.store.ListPapersByStatus(ctx, types.StatusEnriched)
	if err != nil {
		return 0, 0, fmt.Errorf("listing enriched papers: %w", err)
	}
	if len(papers) == 0 {
		return 0, 0, nil
	}

	enrichments := make(map[string]*types.Enrichment, len(papers))
	for _, paper := range papers {
		e, err := p.store.GetEnrichment(ctx, paper.ID)
		if err != nil {
			return 0, 0, fmt.Errorf("loading enrichment %s: %w", paper.ID, err)
		}
		if e != nil {
			enrichments[paper.ID] = e
		}
	}

	scores, skips, err := p.ranker.RankPapers(ctx, papers, enrichments, profile, runID)
	if err != nil {
		return 0, 0, err
	}
	for _, skip := range skips {
		fmt.Fprintf(w, "skipped %s: %s\n", skip.PaperID, skip.Reason)
	}

	if len(scores) > 0 {
		if err := p.store.PutScores(ctx, scores); err != nil {
			return 0, len(skips), fmt.Errorf("persisting scores: %w", err)
		}
	}
	for _, score := range scores {
		if err := p.store.SetPaperStatus(ctx, score.PaperID, types.StatusRanked); err != nil {
			return 0, len(skips), fmt.Errorf("marking %s ranked: %w", score.PaperID, err)
		}
	}
	return len(scores), len(skips), nil
}
