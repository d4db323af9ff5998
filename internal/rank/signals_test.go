// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package rank

import (
	"math"
	"testing"
	"time"
)

var signalsNow = time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)

func TestNovelty(t *testing.T) {
	tests := []struct {
		name      string
		published time.Time
		want      float64
	}{
		{"published now", signalsNow, 1.0},
		{"future timestamp clamps", signalsNow.Add(time.Hour), 1.0},
		{"one half-life", signalsNow.Add(-7 * 24 * time.Hour), 0.5},
		{"two half-lives", signalsNow.Add(-14 * 24 * time.Hour), 0.25},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Novelty(tt.published, signalsNow)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Novelty() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestVelocity(t *testing.T) {
	tests := []struct {
		name      string
		version   int
		published time.Time
		want      float64
	}{
		{"v1 has no velocity", 1, signalsNow.Add(-30 * 24 * time.Hour), 0},
		{"one revision over two weeks", 2, signalsNow.Add(-14 * 24 * time.Hour), 0.5},
		{"rapid revision floors at one week", 3, signalsNow.Add(-24 * time.Hour), 1.0},
		{"capped at one", 10, signalsNow.Add(-14 * 24 * time.Hour), 1.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Velocity(tt.version, tt.published, signalsNow)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Velocity() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPersonalFit(t *testing.T) {
	aligned := PersonalFit([]float32{1, 0}, []float32{1, 0})
	if math.Abs(aligned-1.0) > 1e-6 {
		t.Errorf("aligned fit = %v, want 1.0", aligned)
	}

	orthogonal := PersonalFit([]float32{1, 0}, []float32{0, 1})
	if orthogonal != 0 {
		t.Errorf("orthogonal fit = %v, want 0", orthogonal)
	}

	// Anti-aligned papers floor at zero instead of going negative.
	opposed := PersonalFit([]float32{1, 0}, []float32{-1, 0})
	if opposed != 0 {
		t.Errorf("opposed fit = %v, want 0", opposed)
	}

	zero := PersonalFit([]float32{0, 0}, []float32{1, 0})
	if zero != 0 {
		t.Errorf("zero-vector fit = %v, want 0", zero)
	}
}

func TestMathPenalty(t *testing.T) {
	tests := []struct {
		name    string
		depth   float64
		ceiling float64
		want    float64
	}{
		{"below ceiling", 0.3, 0.5, 0},
		{"at ceiling", 0.5, 0.5, 0},
		{"ceiling of one disables", 1.0, 1.0, 0},
		{"halfway into headroom", 0.75, 0.5, 0.5},
		{"full overshoot", 1.0, 0.5, 1.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MathPenalty(tt.depth, tt.ceiling)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("MathPenalty(%v, %v) = %v, want %v", tt.depth, tt.ceiling, got, tt.want)
			}
		})
	}
}

func TestLabPrior(t *testing.T) {
	resolver := RosterResolver{
		"Jane Researcher": "frontier-lab",
		"Kim Author":      "campus-lab",
	}
	boosts := map[string]float64{"frontier-lab": 0.8, "campus-lab": 0.3}

	if got := LabPrior(resolver, []string{"jane researcher"}, boosts); got != 0.8 {
		t.Errorf("LabPrior() = %v, want 0.8", got)
	}
	// Multiple matching labs take the strongest boost.
	if got := LabPrior(resolver, []string{"Kim Author", "Jane Researcher"}, boosts); got != 0.8 {
		t.Errorf("LabPrior() = %v, want 0.8", got)
	}
	if got := LabPrior(resolver, []string{"Nobody Known"}, boosts); got != 0 {
		t.Errorf("LabPrior() = %v, want 0", got)
	}
	if got := LabPrior(nil, []string{"Jane Researcher"}, boosts); got != 0 {
		t.Errorf("nil resolver LabPrior() = %v, want 0", got)
	}
	if got := LabPrior(resolver, []string{"Jane Researcher"}, nil); got != 0 {
		t.Errorf("empty boosts LabPrior() = %v, want 0", got)
	}
}
