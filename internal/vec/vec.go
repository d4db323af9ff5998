// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package vec holds the small float32 vector operations shared by ranking
// and feedback learning. Accumulation runs in float64 to limit drift.
package vec

import (
	"fmt"
	"math"
)

// DimensionMismatchError reports an interest vector and paper embedding of
// different lengths. Mixed dimensions are a data-integrity failure, never
// silently defaulted.
type DimensionMismatchError struct {
	VectorLen    int
	EmbeddingLen int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("vector dimension mismatch: interest %d, embedding %d",
		e.VectorLen, e.EmbeddingLen)
}

// Dot returns the dot product. Vectors must be equal length; callers
// validate dimensions before calling.
func Dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

// Norm returns the Euclidean magnitude.
func Norm(a []float32) float64 {
	var sum float64
	for _, v := range a {
		sum += float64(v) * float64(v)
	}
	return math.Sqrt(sum)
}

// Cosine returns the cosine similarity in [-1,1], or 0 when either vector
// has zero magnitude.
func Cosine(a, b []float32) float64 {
	na, nb := Norm(a), Norm(b)
	if na == 0 || nb == 0 {
		return 0
	}
	return Dot(a, b) / (na * nb)
}

// Normalize returns a unit-length copy of a. A zero vector is returned
// unchanged rather than divided by zero.
func Normalize(a []float32) []float32 {
	out := make([]float32, len(a))
	n := Norm(a)
	if n == 0 {
		copy(out, a)
		return out
	}
	for i, v := range a {
		out[i] = float32(float64(v) / n)
	}
	return out
}
