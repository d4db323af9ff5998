// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Signals holds the six raw signal values computed for one paper against one
// profile, each in [0,1] (MathPenalty measures the overshoot past the user's
// tolerance, also in [0,1]).
type Signals struct {
	Novelty     float64 `json:"novelty" yaml:"novelty"`
	Evidence    float64 `json:"evidence" yaml:"evidence"`
	Velocity    float64 `json:"velocity" yaml:"velocity"`
	PersonalFit float64 `json:"personal_fit" yaml:"personal_fit"`
	LabPrior    float64 `json:"lab_prior" yaml:"lab_prior"`
	MathPenalty float64 `json:"math_penalty" yaml:"math_penalty"`
}

// Score is the outcome of scoring one paper for one user in one ranking run.
// Historical scores are never mutated, only superseded by later runs.
type Score struct {
	// UserID and PaperID identify the pair; RunID identifies the run.
	UserID  string `json:"user_id" yaml:"user_id"`
	PaperID string `json:"paper_id" yaml:"paper_id"`
	RunID   string `json:"run_id" yaml:"run_id"`

	// Signals are the raw per-signal values.
	Signals Signals `json:"signals" yaml:"signals"`

	// Final is the combined score clipped to [0,1].
	Final float64 `json:"final" yaml:"final"`

	// WhyShown maps signal names to their positive weighted contributions.
	// Signals contributing zero or less are omitted, never fabricated.
	WhyShown map[string]float64 `json:"why_shown,omitempty" yaml:"why_shown,omitempty"`

	// CreatedAt is when the score was computed.
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// FeedbackAction is one user reaction to a paper.
type FeedbackAction string

const (
	ActionSave       FeedbackAction = "save"
	ActionDismiss    FeedbackAction = "dismiss"
	ActionThumbsUp   FeedbackAction = "thumbs_up"
	ActionThumbsDown FeedbackAction = "thumbs_down"
	ActionHide       FeedbackAction = "hide"
)

// IsPositive reports whether the action reinforces the paper's direction in
// the user's interest vector.
func (a FeedbackAction) IsPositive() bool {
	return a == ActionSave || a == ActionThumbsUp
}

// IsValid reports whether a is one of the known actions.
func (a FeedbackAction) IsValid() bool {
	switch a {
	case ActionSave, ActionDismiss, ActionThumbsUp, ActionThumbsDown, ActionHide:
		return true
	}
	return false
}

// Feedback is one append-only feedback log entry. The core never mutates or
// deletes entries.
type Feedback struct {
	UserID  string         `json:"user_id" yaml:"user_id"`
	PaperID string         `json:"paper_id" yaml:"paper_id"`
	Action  FeedbackAction `json:"action" yaml:"action"`

	// Weight scales the update; 1.0 unless a caller says otherwise.
	Weight float64 `json:"weight" yaml:"weight"`

	// Context is optional free-form text from the user.
	Context string `json:"context,omitempty" yaml:"context,omitempty"`

	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// BriefingStatus is the briefing lifecycle state.
type BriefingStatus string

const (
	BriefingGenerated BriefingStatus = "generated"
	BriefingViewed    BriefingStatus = "viewed"
)

// Briefing is a ranked, date-scoped paper selection for one user.
type Briefing struct {
	UserID string `json:"user_id" yaml:"user_id"`

	// Date is the briefing day in YYYY-MM-DD form.
	Date string `json:"date" yaml:"date"`

	// RunID is the ranking run the selection was drawn from.
	RunID string `json:"run_id" yaml:"run_id"`

	// PaperIDs are the selected papers in descending score order.
	PaperIDs []string `json:"paper_ids" yaml:"paper_ids"`

	// PaperCount and AvgScore are aggregate stats over the selection.
	PaperCount int     `json:"paper_count" yaml:"paper_count"`
	AvgScore   float64 `json:"avg_score" yaml:"avg_score"`

	Status BriefingStatus `json:"status" yaml:"status"`

	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}
