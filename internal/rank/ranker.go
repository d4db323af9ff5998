// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package rank scores enriched papers against a user profile. Each paper
// passes the hard exclusion filter first, then six signals are combined by a
// fixed weight set into one final score with a per-signal attribution map.
package rank

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"math"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/paper-digest/internal/vec"
	"github.com/pdiddy/paper-digest/pkg/types"
)

// ErrNotEnriched marks a paper that reached ranking without enrichment data.
var ErrNotEnriched = errors.New("paper not enriched")

// scoreConcurrency bounds parallel per-paper scoring within one batch.
const scoreConcurrency = 3

// explorationBoost is added to the final score of papers selected by the
// exploration perturbation, before clipping.
const explorationBoost = 0.15

// Weights combines the six signals into the final score. The five positive
// weights sum to 1.0; MathPenalty is subtracted.
type Weights struct {
	Novelty     float64
	Evidence    float64
	Velocity    float64
	PersonalFit float64
	LabPrior    float64
	MathPenalty float64
}

// DefaultWeights is the pipeline-level weight configuration. Personal fit
// dominates, with novelty and evidence next.
var DefaultWeights = Weights{
	Novelty:     0.20,
	Evidence:    0.20,
	Velocity:    0.10,
	PersonalFit: 0.35,
	LabPrior:    0.15,
	MathPenalty: 0.25,
}

// Skip reports a paper that could not be scored and why. Skipped papers are
// never silently defaulted to a zero score.
type Skip struct {
	PaperID string
	Reason  string
}

// Ranker scores batches of papers. The zero value is not usable; construct
// with New.
type Ranker struct {
	weights  Weights
	resolver AffiliationResolver
	now      func() time.Time
}

// Option configures a Ranker.
type Option func(*Ranker)

// WithWeights overrides the default signal weights.
func WithWeights(w Weights) Option {
	return func(r *Ranker) { r.weights = w }
}

// WithAffiliationResolver installs a lab resolver for the lab prior signal.
func WithAffiliationResolver(res AffiliationResolver) Option {
	return func(r *Ranker) { r.resolver = res }
}

func New(opts ...Option) *Ranker {
	r := &Ranker{
		weights: DefaultWeights,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RankPapers scores every paper in the batch against the profile. Excluded
// papers are dropped, papers without enrichment are skipped with a reason,
// and the returned scores are sorted by descending final score. Papers are
// scored concurrently up to a fixed bound; ordering is a post-sort.
func (r *Ranker) RankPapers(ctx context.Context, papers []*types.Paper, enrichments map[string]*types.Enrichment, profile *types.Profile, runID string) ([]*types.Score, []Skip, error) {
	if profile == nil {
		return nil, nil, errors.New("rank: nil profile")
	}

	scores := make([]*types.Score, len(papers))
	var mu sync.Mutex
	var skips []Skip

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(scoreConcurrency)
	for i, p := range papers {
		i, p := i, p
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			score, skip := r.scoreOne(p, enrichments[p.ID], profile, runID)
			if skip != nil {
				mu.Lock()
				skips = append(skips, *skip)
				mu.Unlock()
				return nil
			}
			scores[i] = score
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	ranked := make([]*types.Score, 0, len(scores))
	for _, s := range scores {
		if s != nil {
			ranked = append(ranked, s)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Final != ranked[j].Final {
			return ranked[i].Final > ranked[j].Final
		}
		return ranked[i].PaperID < ranked[j].PaperID
	})
	sort.Slice(skips, func(i, j int) bool { return skips[i].PaperID < skips[j].PaperID })
	return ranked, skips, nil
}

// scoreOne applies the hard filter and signal combination for a single
// paper. A nil Score with a non-nil Skip means the paper was excluded or
// unscorable.
func (r *Ranker) scoreOne(p *types.Paper, e *types.Enrichment, profile *types.Profile, runID string) (*types.Score, *Skip) {
	if e == nil || len(e.Embedding) == 0 {
		return nil, &Skip{PaperID: p.ID, Reason: ErrNotEnriched.Error()}
	}
	// An empty interest vector scores zero personal fit; a populated one must
	// match the embedding's dimensionality or the paper is unscorable.
	if n := len(profile.InterestVector); n > 0 && n != len(e.Embedding) {
		mismatch := &vec.DimensionMismatchError{VectorLen: n, EmbeddingLen: len(e.Embedding)}
		return nil, &Skip{PaperID: p.ID, Reason: mismatch.Error()}
	}

	paperText := p.Title + " " + p.Abstract
	if ShouldExclude(e.Topics, profile.ExcludeTopics, profile.ExcludeKeywords, paperText) {
		return nil, &Skip{PaperID: p.ID, Reason: "excluded by profile rules"}
	}

	signals := r.signalsFor(p, e, profile)
	w := r.weights

	final := w.Novelty*signals.Novelty +
		w.Evidence*signals.Evidence +
		w.Velocity*signals.Velocity +
		w.PersonalFit*signals.PersonalFit +
		w.LabPrior*signals.LabPrior -
		w.MathPenalty*signals.MathPenalty

	why := make(map[string]float64)
	addContribution(why, "novelty", w.Novelty*signals.Novelty)
	addContribution(why, "evidence", w.Evidence*signals.Evidence)
	addContribution(why, "velocity", w.Velocity*signals.Velocity)
	addContribution(why, "personal_fit", w.PersonalFit*signals.PersonalFit)
	addContribution(why, "lab_prior", w.LabPrior*signals.LabPrior)

	if explores(profile.UserID, p.ID, runID, profile.ExplorationRate) {
		final += explorationBoost
		why["exploration"] = explorationBoost
	}

	final = math.Min(1.0, math.Max(0.0, final))

	return &types.Score{
		UserID:    profile.UserID,
		PaperID:   p.ID,
		RunID:     runID,
		Signals:   signals,
		Final:     final,
		WhyShown:  why,
		CreatedAt: r.now(),
	}, nil
}

func addContribution(why map[string]float64, name string, v float64) {
	if v > 0 {
		why[name] = v
	}
}

// explores decides the exploration perturbation for one (user, paper, run)
// triple. The decision hashes the triple so it is reproducible across
// rescoring of the same run, and the hash fraction is compared against the
// profile's exploration rate.
func explores(userID, paperID, runID string, rate float64) bool {
	if rate <= 0 {
		return false
	}
	if rate >= 1 {
		return true
	}
	h := fnv.New64a()
	fmt.Fprintf(h, "%s\x00%s\x00%s", userID, paperID, runID)
	fraction := float64(h.Sum64()>>11) / float64(1<<53)
	return fraction < rate
}
