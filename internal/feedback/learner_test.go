// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package feedback

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paper-digest/internal/vec"
	"github.com/pdiddy/paper-digest/pkg/types"
)

func TestUpdateVectorPreservesDimensionality(t *testing.T) {
	current := vec.Normalize([]float32{1, 1, 0, 0})
	embedding := []float32{0, 0, 1, 0}

	updated, err := UpdateVector(current, embedding, types.ActionSave, 1.0)
	require.NoError(t, err)
	assert.Len(t, updated, 4)
	assert.InDelta(t, 1.0, vec.Norm(updated), 1e-6)
}

func TestUpdateVectorDimensionMismatch(t *testing.T) {
	_, err := UpdateVector([]float32{1, 0}, []float32{1, 0, 0}, types.ActionSave, 1.0)
	require.Error(t, err)

	var mismatch *vec.DimensionMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, 2, mismatch.VectorLen)
	assert.Equal(t, 3, mismatch.EmbeddingLen)
}

func TestUpdateVectorConvergesTowardEmbedding(t *testing.T) {
	embedding := []float32{0, 1, 0, 0}
	current := vec.Normalize([]float32{1, 0, 0, 0})

	prev := vec.Cosine(current, embedding)
	for i := 0; i < 20; i++ {
		next, err := UpdateVector(current, embedding, types.ActionSave, 1.0)
		require.NoError(t, err)
		sim := vec.Cosine(next, embedding)
		assert.GreaterOrEqual(t, sim, prev, "iteration %d regressed", i)
		assert.LessOrEqual(t, vec.Norm(next), 1.0+1e-6)
		current, prev = next, sim
	}
	assert.Greater(t, prev, 0.99)
}

func TestUpdateVectorNegativePushesAway(t *testing.T) {
	embedding := []float32{0, 1, 0, 0}
	current := vec.Normalize([]float32{1, 1, 0, 0})

	updated, err := UpdateVector(current, embedding, types.ActionDismiss, 1.0)
	require.NoError(t, err)
	assert.Less(t, vec.Cosine(updated, embedding), vec.Cosine(current, embedding))
}

func TestUpdateVectorZeroMagnitudePassesThrough(t *testing.T) {
	// 0.9×current exactly cancels 0.1×embedding under a negative action.
	current := []float32{1, 0}
	embedding := []float32{9, 0}

	updated, err := UpdateVector(current, embedding, types.ActionHide, 1.0)
	require.NoError(t, err)
	require.Len(t, updated, 2)
	for i, v := range updated {
		assert.InDelta(t, 0.0, float64(v), 1e-6, "component %d", i)
	}
}

// --- Learner.Record ---

type fakeLearnerStore struct {
	profiles    map[string]*types.Profile
	enrichments map[string]*types.Enrichment
	feedback    []*types.Feedback
	putErr      error
}

func newFakeLearnerStore() *fakeLearnerStore {
	return &fakeLearnerStore{
		profiles:    make(map[string]*types.Profile),
		enrichments: make(map[string]*types.Enrichment),
	}
}

func (s *fakeLearnerStore) GetProfile(_ context.Context, userID string) (*types.Profile, error) {
	p, ok := s.profiles[userID]
	if !ok {
		return nil, errors.New("profile not found")
	}
	return p, nil
}

func (s *fakeLearnerStore) PutProfile(_ context.Context, p *types.Profile) error {
	if s.putErr != nil {
		return s.putErr
	}
	s.profiles[p.UserID] = p
	return nil
}

func (s *fakeLearnerStore) GetEnrichment(_ context.Context, paperID string) (*types.Enrichment, error) {
	return s.enrichments[paperID], nil
}

func (s *fakeLearnerStore) AppendFeedback(_ context.Context, fb *types.Feedback) error {
	s.feedback = append(s.feedback, fb)
	return nil
}

func TestRecordAppendsAndUpdatesProfile(t *testing.T) {
	store := newFakeLearnerStore()
	profile := types.DefaultProfile("user-1")
	profile.InterestVector = vec.Normalize([]float32{1, 0, 0, 0})
	store.profiles["user-1"] = profile
	store.enrichments["2401.00001"] = &types.Enrichment{
		PaperID: "2401.00001", Embedding: []float32{0, 1, 0, 0},
	}

	l := NewLearner(store)
	before := vec.Cosine(profile.InterestVector, store.enrichments["2401.00001"].Embedding)

	err := l.Record(context.Background(), types.Feedback{
		UserID: "user-1", PaperID: "2401.00001", Action: types.ActionSave,
	})
	require.NoError(t, err)

	require.Len(t, store.feedback, 1)
	assert.Equal(t, 1.0, store.feedback[0].Weight)
	assert.False(t, store.feedback[0].CreatedAt.IsZero())

	after := vec.Cosine(store.profiles["user-1"].InterestVector,
		store.enrichments["2401.00001"].Embedding)
	assert.Greater(t, after, before)
	assert.False(t, store.profiles["user-1"].UpdatedAt.IsZero())
}

func TestRecordSeedsEmptyInterestVector(t *testing.T) {
	store := newFakeLearnerStore()
	store.profiles["user-1"] = types.DefaultProfile("user-1")
	store.enrichments["2401.00002"] = &types.Enrichment{
		PaperID: "2401.00002", Embedding: []float32{3, 4, 0},
	}

	err := NewLearner(store).Record(context.Background(), types.Feedback{
		UserID: "user-1", PaperID: "2401.00002", Action: types.ActionThumbsUp,
	})
	require.NoError(t, err)

	got := store.profiles["user-1"].InterestVector
	require.Len(t, got, 3)
	assert.InDelta(t, 1.0, vec.Norm(got), 1e-6)
	assert.InDelta(t, 1.0, vec.Cosine(got, []float32{3, 4, 0}), 1e-6)
}

func TestRecordRejectsUnknownAction(t *testing.T) {
	l := NewLearner(newFakeLearnerStore())
	err := l.Record(context.Background(), types.Feedback{
		UserID: "user-1", PaperID: "p", Action: "upvote",
	})
	assert.Error(t, err)
}

func TestRecordUnenrichedPaper(t *testing.T) {
	store := newFakeLearnerStore()
	store.profiles["user-1"] = types.DefaultProfile("user-1")

	err := NewLearner(store).Record(context.Background(), types.Feedback{
		UserID: "user-1", PaperID: "2401.00003", Action: types.ActionSave,
	})
	assert.ErrorIs(t, err, ErrNoEmbedding)
	assert.Empty(t, store.feedback)
}

func TestRecordMissingProfile(t *testing.T) {
	err := NewLearner(newFakeLearnerStore()).Record(context.Background(), types.Feedback{
		UserID: "ghost", PaperID: "p", Action: types.ActionSave,
	})
	assert.Error(t, err)
}
