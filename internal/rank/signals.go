// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package rank

import (
	"math"
	"strings"
	"time"

	"github.com/pdiddy/paper-digest/internal/enrich"
	"github.com/pdiddy/paper-digest/internal/vec"
	"github.com/pdiddy/paper-digest/pkg/types"
)

// Tunable signal constants.
const (
	// noveltyHalfLife is the age at which a paper's novelty signal halves.
	noveltyHalfLife = 7 * 24 * time.Hour

	// minVelocityWeeks floors the velocity denominator so papers revised
	// within their first week do not produce runaway velocity.
	minVelocityWeeks = 1.0
)

// Novelty decays exponentially with paper age. A paper published now scores
// 1.0, one published a half-life ago scores 0.5. Future timestamps clamp
// to 1.0.
func Novelty(published, now time.Time) float64 {
	age := now.Sub(published)
	if age <= 0 {
		return 1.0
	}
	return math.Pow(0.5, age.Hours()/noveltyHalfLife.Hours())
}

// Velocity measures revision rate: versions beyond the first per week since
// publication, capped at 1.0. A v1 paper has no velocity.
func Velocity(version int, published, now time.Time) float64 {
	if version <= 1 {
		return 0
	}
	weeks := now.Sub(published).Hours() / (24 * 7)
	if weeks < minVelocityWeeks {
		weeks = minVelocityWeeks
	}
	return math.Min(1.0, float64(version-1)/weeks)
}

// PersonalFit is the cosine alignment between the user's interest vector and
// the paper embedding, floored at 0 so anti-aligned papers contribute
// nothing rather than a negative fit.
func PersonalFit(interest, embedding []float32) float64 {
	return math.Max(0, vec.Cosine(interest, embedding))
}

// MathPenalty measures how far a paper's math depth exceeds the profile's
// ceiling, scaled to [0,1] over the remaining headroom. Papers at or below
// the ceiling are not penalized, and a ceiling of 1.0 disables the penalty.
func MathPenalty(depth, ceiling float64) float64 {
	if ceiling >= 1.0 || depth <= ceiling {
		return 0
	}
	return math.Min(1.0, (depth-ceiling)/(1.0-ceiling))
}

// AffiliationResolver maps an ordered author list to zero or more lab
// identifiers. Resolution quality is deliberately out of scope here; a
// resolver may use affiliation strings, a curated roster, or nothing at all.
type AffiliationResolver interface {
	Labs(authors []string) []string
}

// RosterResolver resolves labs from a curated author → lab roster, matched
// case-insensitively on the full author name.
type RosterResolver map[string]string

func (r RosterResolver) Labs(authors []string) []string {
	seen := make(map[string]bool)
	var labs []string
	for _, author := range authors {
		for name, lab := range r {
			if strings.EqualFold(name, author) && !seen[lab] {
				seen[lab] = true
				labs = append(labs, lab)
			}
		}
	}
	return labs
}

// LabPrior returns the strongest boost from the profile's lab boost map for
// any lab the resolver attributes to the paper's authors, clipped to [0,1].
// A nil resolver or an empty boost map yields 0.
func LabPrior(resolver AffiliationResolver, authors []string, boosts map[string]float64) float64 {
	if resolver == nil || len(boosts) == 0 {
		return 0
	}
	var best float64
	for _, lab := range resolver.Labs(authors) {
		if b, ok := boosts[lab]; ok && b > best {
			best = b
		}
	}
	return math.Min(1.0, math.Max(0, best))
}

// signalsFor computes the six raw signals for one enriched paper.
func (r *Ranker) signalsFor(p *types.Paper, e *types.Enrichment, profile *types.Profile) types.Signals {
	now := r.now()
	return types.Signals{
		Novelty:     Novelty(p.Published, now),
		Evidence:    enrich.EvidenceScore(e.Evidence),
		Velocity:    Velocity(p.Version, p.Published, now),
		PersonalFit: PersonalFit(profile.InterestVector, e.Embedding),
		LabPrior:    LabPrior(r.resolver, p.Authors, profile.LabBoosts),
		MathPenalty: MathPenalty(e.MathDepth, profile.MathDepthMax),
	}
}
