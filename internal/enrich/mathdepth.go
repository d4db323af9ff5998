// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package enrich

import (
	"regexp"
	"strings"
)

// Math-depth estimator constants. The density multiplier is a calibration
// constant tuned so typical LaTeX-heavy abstracts land in the upper range;
// it is not a universal law.
const (
	latexDensityWeight     = 0.6
	theoryKeywordWeight    = 0.4
	latexDensityMultiplier = 100.0
)

// latexCommandRe matches LaTeX-style command tokens like `\theta`.
var latexCommandRe = regexp.MustCompile(`\\[a-z]+`)

// theoryKeywords is the vocabulary whose presence (each term counted once)
// contributes the keyword half of the estimate.
var theoryKeywords = []string{
	"theorem",
	"proof",
	"lemma",
	"corollary",
	"convergence",
	"optimization",
	"gradient descent",
	"loss function",
	"regularization",
}

// MathDepth estimates the mathematical density of a paper in [0,1] from its
// title and abstract.
func MathDepth(title, abstract string) float64 {
	text := strings.ToLower(strings.TrimSpace(title + " " + abstract))
	if len(text) == 0 {
		return 0
	}

	latexDensity := float64(len(latexCommandRe.FindAllStringIndex(text, -1))) / float64(len(text))

	var present int
	for _, kw := range theoryKeywords {
		if strings.Contains(text, kw) {
			present++
		}
	}
	keywordScore := float64(present) / float64(len(theoryKeywords))

	depth := latexDensityWeight*latexDensity*latexDensityMultiplier + theoryKeywordWeight*keywordScore
	return min(1.0, depth)
}
