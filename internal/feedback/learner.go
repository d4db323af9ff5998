// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package feedback turns user reactions into interest-vector updates. Each
// feedback event blends the paper's embedding into the user's vector with an
// exponential moving average and renormalizes.
package feedback

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/pdiddy/paper-digest/internal/vec"
	"github.com/pdiddy/paper-digest/pkg/types"
)

// EMA blend constants: the current vector keeps 90% of its weight, the paper
// embedding contributes 10% toward or away from its direction.
const (
	retainWeight = 0.9
	blendWeight  = 0.1
)

// ErrNoEmbedding marks feedback on a paper whose enrichment record has no
// embedding, so there is nothing to learn from.
var ErrNoEmbedding = errors.New("feedback: paper has no embedding")

// UpdateVector applies one EMA step to the interest vector and renormalizes.
// Positive actions pull the vector toward the embedding, negative actions
// push away. The weight scales the blend term; callers pass 1.0 by default.
// A zero-magnitude result is passed through unnormalized rather than divided
// by zero.
func UpdateVector(current, embedding []float32, action types.FeedbackAction, weight float64) ([]float32, error) {
	if len(current) != len(embedding) {
		return nil, &vec.DimensionMismatchError{VectorLen: len(current), EmbeddingLen: len(embedding)}
	}
	sign := 1.0
	if !action.IsPositive() {
		sign = -1.0
	}
	raw := make([]float32, len(current))
	for i := range current {
		raw[i] = float32(retainWeight*float64(current[i]) + sign*blendWeight*weight*float64(embedding[i]))
	}
	return vec.Normalize(raw), nil
}

// Store is the persistence surface the learner needs.
type Store interface {
	GetProfile(ctx context.Context, userID string) (*types.Profile, error)
	PutProfile(ctx context.Context, p *types.Profile) error
	GetEnrichment(ctx context.Context, paperID string) (*types.Enrichment, error)
	AppendFeedback(ctx context.Context, fb *types.Feedback) error
}

// Learner records feedback events and keeps interest vectors current. EMA
// updates are order-sensitive, so events for the same user are serialized by
// a per-user lock while different users proceed concurrently.
type Learner struct {
	store Store
	now   func() time.Time

	mu    sync.Mutex
	users map[string]*sync.Mutex
}

func NewLearner(store Store) *Learner {
	return &Learner{
		store: store,
		now:   time.Now,
		users: make(map[string]*sync.Mutex),
	}
}

func (l *Learner) userLock(userID string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	lock, ok := l.users[userID]
	if !ok {
		lock = &sync.Mutex{}
		l.users[userID] = lock
	}
	return lock
}

// Record validates one feedback event, appends it to the log, and applies
// the vector update to the user's profile. A missing weight defaults to 1.0.
// The first feedback for a profile with an empty interest vector seeds it
// from a zero vector of the embedding's dimensionality.
func (l *Learner) Record(ctx context.Context, fb types.Feedback) error {
	if !fb.Action.IsValid() {
		return fmt.Errorf("feedback: unknown action %q", fb.Action)
	}
	if fb.Weight == 0 {
		fb.Weight = 1.0
	}

	lock := l.userLock(fb.UserID)
	lock.Lock()
	defer lock.Unlock()

	profile, err := l.store.GetProfile(ctx, fb.UserID)
	if err != nil {
		return fmt.Errorf("feedback: load profile %s: %w", fb.UserID, err)
	}
	enrichment, err := l.store.GetEnrichment(ctx, fb.PaperID)
	if err != nil {
		return fmt.Errorf("feedback: load enrichment %s: %w", fb.PaperID, err)
	}
	if enrichment == nil || len(enrichment.Embedding) == 0 {
		return fmt.Errorf("feedback: paper %s: %w", fb.PaperID, ErrNoEmbedding)
	}

	current := profile.InterestVector
	if len(current) == 0 {
		current = make([]float32, len(enrichment.Embedding))
	}
	updated, err := UpdateVector(current, enrichment.Embedding, fb.Action, fb.Weight)
	if err != nil {
		return err
	}

	fb.CreatedAt = l.now()
	if err := l.store.AppendFeedback(ctx, &fb); err != nil {
		return fmt.Errorf("feedback: append event: %w", err)
	}

	profile.InterestVector = updated
	profile.UpdatedAt = l.now()
	if err := l.store.PutProfile(ctx, profile); err != nil {
		return fmt.Errorf("feedback: update profile %s: %w", fb.UserID, err)
	}
	return nil
}
