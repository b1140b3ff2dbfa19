package compliance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestScoreConfidence(t *testing.T) {
	day := 24 * time.Hour

	cases := []struct {
		name          string
		cacheAge      time.Duration
		ambiguity     int
		missingFields int
		edgeCase      bool
		want          int
	}{
		{name: "perfect inputs", want: 100},
		{name: "age at penalty boundary", cacheAge: 3 * day, want: 100},
		{name: "age just past boundary", cacheAge: 3*day + time.Second, want: 90},
		{name: "very stale costs the same", cacheAge: 30 * day, want: 90},
		{name: "ambiguity", ambiguity: 1, want: 85},
		{name: "ambiguity is flat not per phrase", ambiguity: 5, want: 85},
		{name: "one missing field", missingFields: 1, want: 95},
		{name: "missing fields accumulate", missingFields: 4, want: 80},
		{name: "edge case", edgeCase: true, want: 80},
		{name: "all penalties", cacheAge: 10 * day, ambiguity: 2, missingFields: 3, edgeCase: true, want: 40},
		{name: "floor at zero", missingFields: 25, want: 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ScoreConfidence(DefaultWeights(), tc.cacheAge, tc.ambiguity, tc.missingFields, tc.edgeCase)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestScoreConfidenceCustomWeights(t *testing.T) {
	w := Weights{
		StaleAge:            time.Hour,
		StalePenalty:        50,
		AmbiguityPenalty:    30,
		MissingFieldPenalty: 25,
		EdgeCasePenalty:     40,
	}

	assert.Equal(t, 50, ScoreConfidence(w, 2*time.Hour, 0, 0, false))
	assert.Equal(t, 0, ScoreConfidence(w, 2*time.Hour, 1, 2, true), "clamped at zero, never negative")
}

func TestScoreConfidencePure(t *testing.T) {
	w := DefaultWeights()
	first := ScoreConfidence(w, 4*24*time.Hour, 1, 2, true)
	second := ScoreConfidence(w, 4*24*time.Hour, 1, 2, true)
	assert.Equal(t, first, second)
	assert.Equal(t, 45, first)
}
