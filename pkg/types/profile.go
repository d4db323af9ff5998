// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Profile is one user's interest profile. The interest vector shares the
// paper embedding dimensionality and is kept unit-length (or zero, before
// any feedback) by the feedback learner.
type Profile struct {
	// UserID identifies the profile owner.
	UserID string `json:"user_id" yaml:"user_id"`

	// InterestVector is the learned interest direction. Magnitude is 0
	// (untrained) or 1; it is never left at an intermediate scale.
	InterestVector []float32 `json:"interest_vector" yaml:"interest_vector"`

	// IncludeTopics and ExcludeTopics are normalized topic tags. An
	// excluded topic is a hard filter: matching papers never rank.
	IncludeTopics []string `json:"include_topics,omitempty" yaml:"include_topics,omitempty"`
	ExcludeTopics []string `json:"exclude_topics,omitempty" yaml:"exclude_topics,omitempty"`

	// IncludeKeywords and ExcludeKeywords are matched case-insensitively
	// as substrings of the paper text.
	IncludeKeywords []string `json:"include_keywords,omitempty" yaml:"include_keywords,omitempty"`
	ExcludeKeywords []string `json:"exclude_keywords,omitempty" yaml:"exclude_keywords,omitempty"`

	// MathDepthMax is the user's tolerance ceiling in [0,1]; papers whose
	// math depth exceeds it are penalized in ranking.
	MathDepthMax float64 `json:"math_depth_max" yaml:"math_depth_max"`

	// ExplorationRate in [0,1] controls how often lower-scored papers are
	// surfaced by the seeded exploration perturbation.
	ExplorationRate float64 `json:"exploration_rate" yaml:"exploration_rate"`

	// LabBoosts maps lab or group names to score boosts applied when a
	// paper's authorship matches.
	LabBoosts map[string]float64 `json:"lab_boosts,omitempty" yaml:"lab_boosts,omitempty"`

	// Categories are the subscribed arXiv categories (e.g. "cs.AI").
	Categories []string `json:"categories" yaml:"categories"`

	// SourceArxiv toggles the arXiv feed for this user.
	SourceArxiv bool `json:"source_arxiv" yaml:"source_arxiv"`

	// LocalEmbeddings selects the local embedding provider over the cloud
	// provider; LocalLLM does the same for classification.
	LocalEmbeddings bool `json:"local_embeddings" yaml:"local_embeddings"`
	LocalLLM        bool `json:"local_llm" yaml:"local_llm"`

	// NoiseCap is the maximum papers per daily briefing.
	NoiseCap int `json:"noise_cap" yaml:"noise_cap"`

	// TargetDaily is the preferred briefing size; the builder aims for this
	// count and never exceeds NoiseCap.
	TargetDaily int `json:"target_daily" yaml:"target_daily"`

	// UpdatedAt is the last settings or feedback mutation.
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}

// DefaultProfile returns a new profile with the documented defaults.
func DefaultProfile(userID string) *Profile {
	return &Profile{
		UserID:          userID,
		MathDepthMax:    1.0,
		ExplorationRate: 0.1,
		Categories:      []string{"cs.AI", "cs.LG", "cs.CL"},
		SourceArxiv:     true,
		LocalEmbeddings: true,
		LocalLLM:        true,
		NoiseCap:        30,
		TargetDaily:     10,
	}
}
