// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pdiddy/paper-digest/pkg/types"
)

// ErrNoScores marks a briefing request for a run that produced no scores.
var ErrNoScores = errors.New("pipeline: no scores for run")

// BriefingStore is the persistence surface the briefing builder needs.
type BriefingStore interface {
	GetProfile(ctx context.Context, userID string) (*types.Profile, error)
	ListScores(ctx context.Context, userID, runID string) ([]*types.Score, error)
	PutBriefing(ctx context.Context, b *types.Briefing) error
}

// BriefingBuilder assembles a user's daily briefing from a ranking run.
type BriefingBuilder struct {
	store BriefingStore
	now   func() time.Time
}

func NewBriefingBuilder(store BriefingStore) *BriefingBuilder {
	return &BriefingBuilder{store: store, now: time.Now}
}

// Build selects the day's papers for a user from one run's scores. The
// selection takes the highest-scored papers up to the profile's daily
// target, never exceeding its noise cap, and persists the briefing as
// "generated" for the given date.
func (b *BriefingBuilder) Build(ctx context.Context, userID, runID, date string) (*types.Briefing, error) {
	profile, err := b.store.GetProfile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("briefing: %w", err)
	}

	scores, err := b.store.ListScores(ctx, userID, runID)
	if err != nil {
		return nil, fmt.Errorf("briefing: %w", err)
	}
	if len(scores) == 0 {
		return nil, fmt.Errorf("briefing: run %s: %w", runID, ErrNoScores)
	}

	limit := profile.TargetDaily
	if limit <= 0 || (profile.NoiseCap > 0 && limit > profile.NoiseCap) {
		limit = profile.NoiseCap
	}
	if limit <= 0 || limit > len(scores) {
		limit = len(scores)
	}
	selected := scores[:limit]

	var sum float64
	ids := make([]string, len(selected))
	for i, score := range selected {
		ids[i] = score.PaperID
		sum += score.Final
	}

	briefing := &types.Briefing{
		UserID:     userID,
		Date:       date,
		RunID:      runID,
		PaperIDs:   ids,
		PaperCount: len(ids),
		AvgScore:   sum / float64(len(ids)),
		Status:     types.BriefingGenerated,
		CreatedAt:  b.now(),
	}
	if err := b.store.PutBriefing(ctx, briefing); err != nil {
		return nil, fmt.Errorf("briefing: %w", err)
	}
	return briefing, nil
}
