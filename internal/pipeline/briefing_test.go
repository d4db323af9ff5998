// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paper-digest/pkg/types"
)

func seedScores(store *fakePipelineStore, userID, runID string, finals ...float64) {
	for i, final := range finals {
		store.scores = append(store.scores, &types.Score{
			UserID:  userID,
			PaperID: "2401.0000" + string(rune('1'+i)),
			RunID:   runID,
			Final:   final,
		})
	}
}

func TestBuildSelectsTopTargetDaily(t *testing.T) {
	store := newFakePipelineStore()
	profile := pipelineProfile()
	profile.TargetDaily = 2
	store.profiles["user-1"] = profile
	seedScores(store, "user-1", "run-1", 0.9, 0.8, 0.7, 0.6)

	briefing, err := NewBriefingBuilder(store).Build(context.Background(), "user-1", "run-1", "2026-02-01")
	require.NoError(t, err)

	assert.Equal(t, 2, briefing.PaperCount)
	assert.Equal(t, []string{"2401.00001", "2401.00002"}, briefing.PaperIDs)
	assert.InDelta(t, 0.85, briefing.AvgScore, 1e-9)
	assert.Equal(t, types.BriefingGenerated, briefing.Status)
	assert.NotNil(t, store.briefings["user-1/2026-02-01"])
}

func TestBuildRespectsNoiseCap(t *testing.T) {
	store := newFakePipelineStore()
	profile := pipelineProfile()
	profile.TargetDaily = 10
	profile.NoiseCap = 3
	store.profiles["user-1"] = profile
	seedScores(store, "user-1", "run-1", 0.9, 0.8, 0.7, 0.6, 0.5)

	briefing, err := NewBriefingBuilder(store).Build(context.Background(), "user-1", "run-1", "2026-02-01")
	require.NoError(t, err)
	assert.Equal(t, 3, briefing.PaperCount)
}

func TestBuildWithFewerScoresThanTarget(t *testing.T) {
	store := newFakePipelineStore()
	store.profiles["user-1"] = pipelineProfile()
	seedScores(store, "user-1", "run-1", 0.4)

	briefing, err := NewBriefingBuilder(store).Build(context.Background(), "user-1", "run-1", "2026-02-01")
	require.NoError(t, err)
	assert.Equal(t, 1, briefing.PaperCount)
	assert.InDelta(t, 0.4, briefing.AvgScore, 1e-9)
}

func TestBuildNoScores(t *testing.T) {
	store := newFakePipelineStore()
	store.profiles["user-1"] = pipelineProfile()

	_, err := NewBriefingBuilder(store).Build(context.Background(), "user-1", "run-empty", "2026-02-01")
	assert.ErrorIs(t, err, ErrNoScores)
}

func TestBuildMissingProfile(t *testing.T) {
	_, err := NewBriefingBuilder(newFakePipelineStore()).Build(context.Background(), "ghost", "run-1", "2026-02-01")
	assert.Error(t, err)
}
