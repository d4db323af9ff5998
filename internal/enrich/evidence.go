// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package enrich

import (
	"regexp"

	"github.com/pdiddy/paper-digest/pkg/types"
)

// Evidence weights. Independent, additive, and summing to 1.0 so the score
// stays in [0,1] without clipping.
const (
	weightBaselines     = 0.30
	weightAblations     = 0.20
	weightCode          = 0.20
	weightData          = 0.15
	weightMultipleEvals = 0.15
)

// Evidence detection patterns. These are approximate abstract heuristics;
// retune the patterns, not the callers.
var (
	codeRe      = regexp.MustCompile(`(?i)github\.com|gitlab\.com|bitbucket\.org|code available|open[\s-]?source`)
	dataRe      = regexp.MustCompile(`(?i)dataset|data available`)
	baselinesRe = regexp.MustCompile(`(?i)baseline|compared to|compare against`)
	ablationsRe = regexp.MustCompile(`(?i)ablation|ablated`)
	evalTokenRe = regexp.MustCompile(`(?i)dataset|benchmark`)
)

// DetectEvidence inspects an abstract for empirical-rigor markers.
func DetectEvidence(abstract string) types.EvidenceSignals {
	return types.EvidenceSignals{
		HasCode:          codeRe.MatchString(abstract),
		HasData:          dataRe.MatchString(abstract),
		HasBaselines:     baselinesRe.MatchString(abstract),
		HasAblations:     ablationsRe.MatchString(abstract),
		HasMultipleEvals: len(evalTokenRe.FindAllStringIndex(abstract, 3)) >= 2,
	}
}

// EvidenceScore maps the boolean signals to a score in [0,1]: the exact sum
// of the weights of the true flags.
func EvidenceScore(s types.EvidenceSignals) float64 {
	var score float64
	if s.HasBaselines {
		score += weightBaselines
	}
	if s.HasAblations {
		score += weightAblations
	}
	if s.HasCode {
		score += weightCode
	}
	if s.HasData {
		score += weightData
	}
	if s.HasMultipleEvals {
		score += weightMultipleEvals
	}
	return score
}
