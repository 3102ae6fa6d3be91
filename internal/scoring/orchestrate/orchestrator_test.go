package orchestrate

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scholarvest/paperscore/internal/scoring"
	"github.com/scholarvest/paperscore/internal/scoring/evaluate"
	"github.com/scholarvest/paperscore/pkg/types/paper"
)

// stubEvaluator returns a fixed result, error, or blocks to let tests observe
// concurrency.
type stubEvaluator struct {
	dim     scoring.Dimension
	score   float64
	conf    float64
	err     error
	delay   time.Duration
	onStart func()
	onEnd   func()
}

func (s *stubEvaluator) Dimension() scoring.Dimension { return s.dim }

func (s *stubEvaluator) Evaluate(ctx context.Context, _ *paper.Paper, _ string) (scoring.DimensionResult, evaluate.Usage, error) {
	if s.onStart != nil {
		s.onStart()
	}
	if s.onEnd != nil {
		defer s.onEnd()
	}
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return scoring.DimensionResult{}, evaluate.Usage{}, ctx.Err()
		}
	}
	if s.err != nil {
		return scoring.DimensionResult{}, evaluate.Usage{}, s.err
	}
	r, err := scoring.NewDimensionResult(s.dim, s.score, s.conf, "stubbed", nil)
	return r, evaluate.Usage{PromptTokens: 10, CompletionTokens: 5, CostUSD: 0.001}, err
}

func allStubs(score, conf float64) map[scoring.Dimension]evaluate.Evaluator {
	out := make(map[scoring.Dimension]evaluate.Evaluator, scoring.NumDimensions)
	for _, d := range scoring.AllDimensions() {
		out[d] = &stubEvaluator{dim: d, score: score, conf: conf}
	}
	return out
}

func orchPaper() *paper.Paper {
	return &paper.Paper{ID: "p-42", Title: "Test paper", Abstract: "An abstract."}
}

func TestRunAggregatesAllDimensions(t *testing.T) {
	o := NewOrchestrator(allStubs(8, 0.9), nil, true, nil)

	result := o.Run(context.Background(), orchPaper(), nil, nil, scoring.DefaultWeights(), "m-1")
	require.NotNil(t, result)

	assert.Equal(t, "p-42", result.PaperID)
	assert.InDelta(t, 8.0, result.OverallScore, 1e-9)
	assert.InDelta(t, 0.9, result.OverallConfidence, 1e-9)
	assert.Len(t, result.DimensionResults, scoring.NumDimensions)
	assert.Empty(t, result.Errors)
	assert.Equal(t, "m-1", result.ModelVersion)
	assert.True(t, result.AllDimensionsScored())

	require.NotNil(t, result.Usage)
	assert.Equal(t, scoring.NumDimensions, result.Usage.Calls)
	assert.Equal(t, scoring.NumDimensions*15, result.Usage.TotalTokens)
}

func TestRunIsolatesSingleFailure(t *testing.T) {
	evaluators := allStubs(8, 0.9)
	evaluators[scoring.DimensionFeasibility] = &stubEvaluator{
		dim: scoring.DimensionFeasibility,
		err: errors.New("model unavailable"),
	}
	o := NewOrchestrator(evaluators, nil, false, nil)

	result := o.Run(context.Background(), orchPaper(), nil, nil, scoring.EqualWeights(), "m-1")

	// Sentinel visible in results, excluded from the aggregate.
	sentinel := result.DimensionResults[scoring.DimensionFeasibility]
	assert.Equal(t, scoring.NeutralScore, sentinel.Score)
	assert.Equal(t, 0.0, sentinel.Confidence)
	assert.Contains(t, sentinel.Reasoning, "Scoring failed")

	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "feasibility:")

	// Remaining five at score 8 under equal weights renormalize to 8.
	assert.InDelta(t, 8.0, result.OverallScore, 1e-9)
	assert.False(t, result.AllDimensionsScored())
}

func TestRunAllFailuresYieldZeroConfidence(t *testing.T) {
	evaluators := make(map[scoring.Dimension]evaluate.Evaluator)
	for _, d := range scoring.AllDimensions() {
		evaluators[d] = &stubEvaluator{dim: d, err: errors.New("down")}
	}
	o := NewOrchestrator(evaluators, nil, false, nil)

	result := o.Run(context.Background(), orchPaper(), nil, nil, scoring.DefaultWeights(), "m-1")

	assert.Equal(t, 0.0, result.OverallScore)
	assert.Equal(t, 0.0, result.OverallConfidence)
	assert.Len(t, result.Errors, scoring.NumDimensions)
	assert.Len(t, result.DimensionResults, scoring.NumDimensions)
}

func TestRunErrorsAreDeterministicallyOrdered(t *testing.T) {
	evaluators := make(map[scoring.Dimension]evaluate.Evaluator)
	for _, d := range scoring.AllDimensions() {
		evaluators[d] = &stubEvaluator{dim: d, err: errors.New("down")}
	}
	o := NewOrchestrator(evaluators, nil, false, nil)

	first := o.Run(context.Background(), orchPaper(), nil, nil, scoring.DefaultWeights(), "m-1")
	for i := 0; i < 5; i++ {
		again := o.Run(context.Background(), orchPaper(), nil, nil, scoring.DefaultWeights(), "m-1")
		assert.Equal(t, first.Errors, again.Errors)
	}
}

func TestRunBoundsConcurrency(t *testing.T) {
	var active, peak int64
	var mu sync.Mutex

	evaluators := make(map[scoring.Dimension]evaluate.Evaluator)
	for _, d := range scoring.AllDimensions() {
		evaluators[d] = &stubEvaluator{
			dim: d, score: 7, conf: 0.8, delay: 30 * time.Millisecond,
			onStart: func() {
				n := atomic.AddInt64(&active, 1)
				mu.Lock()
				if n > peak {
					peak = n
				}
				mu.Unlock()
			},
			onEnd: func() { atomic.AddInt64(&active, -1) },
		}
	}

	o := NewOrchestrator(evaluators, NewGate(2), false, nil)
	result := o.Run(context.Background(), orchPaper(), nil, nil, scoring.DefaultWeights(), "m-1")

	assert.Empty(t, result.Errors)
	mu.Lock()
	defer mu.Unlock()
	assert.LessOrEqual(t, peak, int64(2))
	assert.Greater(t, peak, int64(0))
}

func TestRunMissingEvaluatorIsFailure(t *testing.T) {
	evaluators := allStubs(6, 0.5)
	delete(evaluators, scoring.DimensionTeamReadiness)
	o := NewOrchestrator(evaluators, nil, false, nil)

	result := o.Run(context.Background(), orchPaper(), nil, nil, scoring.DefaultWeights(), "m-1")
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "no evaluator registered")
}

func TestRunRespectsContextCancellation(t *testing.T) {
	evaluators := make(map[scoring.Dimension]evaluate.Evaluator)
	for _, d := range scoring.AllDimensions() {
		evaluators[d] = &stubEvaluator{dim: d, score: 7, conf: 0.8, delay: 5 * time.Second}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	o := NewOrchestrator(evaluators, nil, false, nil)
	result := o.Run(ctx, orchPaper(), nil, nil, scoring.DefaultWeights(), "m-1")

	assert.Len(t, result.Errors, scoring.NumDimensions)
	assert.Equal(t, 0.0, result.OverallConfidence)
}
