package kafka

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scholarvest/paperscore/internal/scoring"
)

func TestNewScoredEvent(t *testing.T) {
	novelty, err := scoring.NewDimensionResult(scoring.DimensionNovelty, 8, 0.9, "reasoning text", map[string]any{"k": "v"})
	require.NoError(t, err)

	agg := &scoring.AggregatedScore{
		PaperID:           "p-3",
		OverallScore:      8.0,
		OverallConfidence: 0.9,
		DimensionResults: map[scoring.Dimension]scoring.DimensionResult{
			scoring.DimensionNovelty: novelty,
		},
		ModelVersion: "m-2",
		Errors:       []string{"feasibility: model unavailable"},
		FromCache:    false,
		ScoredAt:     time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}

	event := NewScoredEvent("org-1", "10.1234/x", agg)

	assert.Equal(t, "p-3", event.PaperID)
	assert.Equal(t, "10.1234/x", event.DOI)
	assert.Equal(t, "org-1", event.OrgID)
	assert.Equal(t, 8.0, event.OverallScore)
	assert.Equal(t, map[string]float64{"novelty": 8}, event.DimensionScores)
	assert.Equal(t, 1, event.FailedDimensions)
	assert.Equal(t, agg.ScoredAt, event.ScoredAt)
}
