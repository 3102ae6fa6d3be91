package evaluate

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scholarvest/paperscore/internal/llm"
	"github.com/scholarvest/paperscore/internal/scoring"
	"github.com/scholarvest/paperscore/pkg/types/paper"
)

type fakeCompleter struct {
	content string
	err     error
	lastReq llm.Request
}

func (f *fakeCompleter) CompleteStructured(_ context.Context, req llm.Request) (*llm.Reply, error) {
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return &llm.Reply{
		Content:          json.RawMessage(f.content),
		Model:            "test-model",
		PromptTokens:     120,
		CompletionTokens: 40,
	}, nil
}

func (f *fakeCompleter) ModelVersion() string { return "test-model" }

func evalPaper() *paper.Paper {
	return &paper.Paper{
		ID:       "p-9",
		Title:    "Low-power neuromorphic vision sensor",
		Abstract: "An event-driven sensor design cutting power by 30x.",
		Authors:  []string{"L. Ortiz", "D. Chen"},
		Venue:    "ISSCC",
	}
}

func TestEvaluateHappyPath(t *testing.T) {
	fc := &fakeCompleter{content: `{"score": 8.2, "confidence": 0.75, "reasoning": "strong prior-art gap", "details": {"claims": 3}}`}
	ev := New(scoring.DimensionIPPotential, fc, Options{Pricing: Pricing{Per1KPromptUSD: 1, Per1KCompletionUSD: 2}})

	result, usage, err := ev.Evaluate(context.Background(), evalPaper(), "## Patent and market landscape\n- prior art")
	require.NoError(t, err)

	assert.Equal(t, scoring.DimensionIPPotential, result.Dimension)
	assert.InDelta(t, 8.2, result.Score, 1e-9)
	assert.InDelta(t, 0.75, result.Confidence, 1e-9)
	assert.Equal(t, "strong prior-art gap", result.Reasoning)
	assert.Equal(t, 120, usage.PromptTokens)
	assert.Equal(t, 40, usage.CompletionTokens)
	assert.InDelta(t, 0.2, usage.CostUSD, 1e-9)

	assert.Contains(t, fc.lastReq.Prompt, "Low-power neuromorphic vision sensor")
	assert.Contains(t, fc.lastReq.Prompt, "--- Context ---")
	assert.Contains(t, fc.lastReq.System, "IP POTENTIAL")
}

func TestEvaluateDefaultsMissingFields(t *testing.T) {
	fc := &fakeCompleter{content: `{"reasoning": ""}`}
	ev := New(scoring.DimensionNovelty, fc, Options{})

	result, _, err := ev.Evaluate(context.Background(), evalPaper(), "")
	require.NoError(t, err)

	assert.Equal(t, scoring.NeutralScore, result.Score)
	assert.Equal(t, scoring.NeutralConfidence, result.Confidence)
	assert.Equal(t, scoring.NeutralReasoning, result.Reasoning)
}

func TestEvaluateDefaultsWrongTypedFields(t *testing.T) {
	fc := &fakeCompleter{content: `{"score": "high", "confidence": 0.9, "reasoning": "partial reply", "details": "not an object"}`}
	ev := New(scoring.DimensionNovelty, fc, Options{})

	result, _, err := ev.Evaluate(context.Background(), evalPaper(), "")
	require.NoError(t, err)

	assert.Equal(t, scoring.NeutralScore, result.Score)
	assert.InDelta(t, 0.9, result.Confidence, 1e-9)
	assert.Equal(t, "partial reply", result.Reasoning)
	assert.Nil(t, result.Details)

	fc.content = `{"score": 7, "confidence": {"value": 0.9}, "reasoning": 42}`
	result, _, err = ev.Evaluate(context.Background(), evalPaper(), "")
	require.NoError(t, err)

	assert.InDelta(t, 7.0, result.Score, 1e-9)
	assert.Equal(t, scoring.NeutralConfidence, result.Confidence)
	assert.Equal(t, scoring.NeutralReasoning, result.Reasoning)
}

func TestEvaluateClampsOutOfRange(t *testing.T) {
	fc := &fakeCompleter{content: `{"score": 14, "confidence": -2, "reasoning": "overshoot"}`}
	ev := New(scoring.DimensionFeasibility, fc, Options{})

	result, _, err := ev.Evaluate(context.Background(), evalPaper(), "")
	require.NoError(t, err)

	assert.Equal(t, scoring.MaxScore, result.Score)
	assert.Equal(t, scoring.MinConfidence, result.Confidence)
}

func TestEvaluateNonObjectReplyFails(t *testing.T) {
	fc := &fakeCompleter{content: `"just a string"`}
	ev := New(scoring.DimensionMarketability, fc, Options{})

	_, _, err := ev.Evaluate(context.Background(), evalPaper(), "")
	require.Error(t, err)

	var scoringErr *ScoringError
	require.ErrorAs(t, err, &scoringErr)
	assert.Equal(t, scoring.DimensionMarketability, scoringErr.Dimension)
	assert.Equal(t, "p-9", scoringErr.PaperID)
}

func TestEvaluateCompleterFailure(t *testing.T) {
	fc := &fakeCompleter{err: errors.New("rate limited")}
	ev := New(scoring.DimensionCommercialization, fc, Options{})

	_, _, err := ev.Evaluate(context.Background(), evalPaper(), "")
	var scoringErr *ScoringError
	require.ErrorAs(t, err, &scoringErr)
	assert.ErrorContains(t, scoringErr.Cause, "rate limited")
}

func TestNewAllCoversEveryDimension(t *testing.T) {
	evaluators := NewAll(&fakeCompleter{content: `{}`}, Options{})
	require.Len(t, evaluators, scoring.NumDimensions)
	for _, d := range scoring.AllDimensions() {
		require.Contains(t, evaluators, d)
		assert.Equal(t, d, evaluators[d].Dimension())
	}
}
