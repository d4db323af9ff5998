// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package scout ingests paper metadata from the source feed. It syncs the
// category taxonomy and pulls recent submissions per category through the
// shared scheduler, deduplicating by arXiv base ID with a strict
// version-upgrade policy.
package scout

import (
	"context"
	"fmt"
	"io"

	"github.com/pdiddy/paper-digest/internal/schedule"
	"github.com/pdiddy/paper-digest/pkg/types"
)

// Store is the subset of persistence Scout needs.
type Store interface {
	// GetPaper returns the stored paper for a base ID, or nil when absent.
	GetPaper(ctx context.Context, id string) (*types.Paper, error)

	// UpsertPaper creates or overwrites a paper keyed by base ID.
	UpsertPaper(ctx context.Context, p *types.Paper) error

	// UpsertCategory creates a category or refreshes its name and
	// description.
	UpsertCategory(ctx context.Context, c types.Category) error
}

// IngestSummary holds counts from one ingestion run.
type IngestSummary struct {
	Created int
	Updated int
	Skipped int
	Failed  int
}

// Total returns the number of feed entries processed.
func (s IngestSummary) Total() int {
	return s.Created + s.Updated + s.Skipped + s.Failed
}

// Scout orchestrates ingestion. The scheduler is injected so all outbound
// feed calls share one pacing state and the component stays testable.
type Scout struct {
	feed  SourceFeed
	store Store
	sched *schedule.Scheduler
	cfg   types.ScoutConfig
}

// New creates a Scout.
func New(feed SourceFeed, store Store, sched *schedule.Scheduler, cfg types.ScoutConfig) *Scout {
	return &Scout{feed: feed, store: store, sched: sched, cfg: cfg}
}

// SyncCategories fetches the source taxonomy and upserts each category.
// The upsert is idempotent: re-running refreshes names and descriptions.
func (s *Scout) SyncCategories(ctx context.Context) ([]types.Category, error) {
	var cats []types.Category
	err := s.sched.Schedule(ctx, func(ctx context.Context) error {
		var err error
		cats, err = s.feed.Categories(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("fetching taxonomy: %w", err)
	}

	for _, c := range cats {
		if err := s.store.UpsertCategory(ctx, c); err != nil {
			return nil, fmt.Errorf("upserting category %s: %w", c.ID, err)
		}
	}
	return cats, nil
}

// IngestRecent fetches up to maxPer recent entries for each category and
// applies the version policy:
//
//   - unknown base ID: create with status "new"
//   - stored version >= incoming: skip, no mutation
//   - incoming strictly greater: overwrite in place, reset status to "new"
//
// A malformed entry or a failed category fetch is logged to w and skipped;
// it never aborts the batch. The returned IDs cover created and updated
// papers only.
func (s *Scout) IngestRecent(ctx context.Context, categories []string, maxPer int, w io.Writer) ([]string, IngestSummary, error) {
	if maxPer <= 0 {
		maxPer = s.cfg.MaxPerCategory
	}

	var ids []string
	var summary IngestSummary

	for _, cat := range categories {
		select {
		case <-ctx.Done():
			return ids, summary, ctx.Err()
		default:
		}

		var entries []Entry
		err := s.sched.Schedule(ctx, func(ctx context.Context) error {
			var err error
			entries, err = s.feed.Recent(ctx, cat, maxPer)
			return err
		})
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", cat, err)
			summary.Failed++
			continue
		}

		for _, entry := range entries {
			id, outcome, err := s.ingestEntry(ctx, entry)
			if err != nil {
				fmt.Fprintf(w, "failed  %s: %v\n", entry.IDURL, err)
				summary.Failed++
				continue
			}
			switch outcome {
			case outcomeCreated:
				fmt.Fprintf(w, "created %s\n", id)
				summary.Created++
				ids = append(ids, id)
			case outcomeUpdated:
				fmt.Fprintf(w, "updated %s\n", id)
				summary.Updated++
				ids = append(ids, id)
			case outcomeSkipped:
				summary.Skipped++
			}
		}
	}

	fmt.Fprintf(w, "\ningested: %d created, %d updated, %d skipped, %d failed\n",
		summary.Created, summary.Updated, summary.Skipped, summary.Failed)
	return ids, summary, nil
}

type ingestOutcome int

const (
	outcomeCreated ingestOutcome = iota
	outcomeUpdated
	outcomeSkipped
)

// ingestEntry applies the version policy for one feed entry.
func (s *Scout) ingestEntry(ctx context.Context, entry Entry) (string, ingestOutcome, error) {
	base, version, err := ParseIdentifier(entry.IDURL)
	if err != nil {
		return "", 0, err
	}

	existing, err := s.store.GetPaper(ctx, base)
	if err != nil {
		return "", 0, fmt.Errorf("reading paper %s: %w", base, err)
	}
	if existing != nil && existing.Version >= version {
		return base, outcomeSkipped, nil
	}

	paper := &types.Paper{
		ID:         base,
		Version:    version,
		Title:      entry.Title,
		Abstract:   entry.Abstract,
		Authors:    entry.Authors,
		Categories: entry.Categories,
		PDFURL:     entry.PDFURL,
		Published:  entry.Published,
		Updated:    entry.Updated,
		// A version bump re-enters the pipeline under the new content.
		Status: types.StatusNew,
	}
	if err := s.store.UpsertPaper(ctx, paper); err != nil {
		return "", 0, fmt.Errorf("upserting paper %s: %w", base, err)
	}

	if existing == nil {
		return base, outcomeCreated, nil
	}
	return base, outcomeUpdated, nil
}
