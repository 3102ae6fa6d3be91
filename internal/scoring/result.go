package scoring

import (
	"math"

	"github.com/scholarvest/paperscore/pkg/errors"
)

// Score bounds for a single dimension and for confidence values.
const (
	MinScore      = 0.0
	MaxScore      = 10.0
	MinConfidence = 0.0
	MaxConfidence = 1.0
)

// Neutral defaults substituted by evaluators for missing or malformed fields
// in an otherwise parseable model reply, and used for the orchestrator's
// failure sentinel.
const (
	NeutralScore      = 5.0
	NeutralConfidence = 0.5
	NeutralReasoning  = "No reasoning provided"
)

// DimensionResult is the validated outcome of one dimension evaluation.
// Constructed once per evaluator invocation and immutable thereafter.
type DimensionResult struct {
	Dimension  Dimension      `json:"dimension"`
	Score      float64        `json:"score"`      // [0,10]
	Confidence float64        `json:"confidence"` // [0,1]
	Reasoning  string         `json:"reasoning"`
	Details    map[string]any `json:"details,omitempty"`
}

// NewDimensionResult validates ranges and constructs a DimensionResult.
// Out-of-range score or confidence fails construction: evaluators must clamp
// before constructing, so a range violation here is a programming error at
// the evaluator boundary, not bad model output.
func NewDimensionResult(dim Dimension, score, confidence float64, reasoning string, details map[string]any) (DimensionResult, error) {
	if _, err := ParseDimension(string(dim)); err != nil {
		return DimensionResult{}, err
	}
	if score < MinScore || score > MaxScore || math.IsNaN(score) {
		return DimensionResult{}, errors.Newf(errors.ErrCodeInvalidScore,
			"score %.4f outside [%.0f,%.0f] for dimension %s", score, MinScore, MaxScore, dim)
	}
	if confidence < MinConfidence || confidence > MaxConfidence || math.IsNaN(confidence) {
		return DimensionResult{}, errors.Newf(errors.ErrCodeInvalidScore,
			"confidence %.4f outside [%.0f,%.0f] for dimension %s", confidence, MinConfidence, MaxConfidence, dim)
	}
	return DimensionResult{
		Dimension:  dim,
		Score:      score,
		Confidence: confidence,
		Reasoning:  reasoning,
		Details:    details,
	}, nil
}

// FailureSentinel is the neutral, zero-confidence result the orchestrator
// records for a dimension whose evaluation failed. It never contributes to
// the weighted aggregate.
func FailureSentinel(dim Dimension, evalErr error) DimensionResult {
	reason := "Scoring failed"
	if evalErr != nil {
		reason = "Scoring failed: " + evalErr.Error()
	}
	return DimensionResult{
		Dimension:  dim,
		Score:      NeutralScore,
		Confidence: 0.0,
		Reasoning:  reason,
	}
}

// ClampScore bounds a raw model score into [0,10].
func ClampScore(v float64) float64 {
	if math.IsNaN(v) {
		return NeutralScore
	}
	return math.Min(MaxScore, math.Max(MinScore, v))
}

// ClampConfidence bounds a raw model confidence into [0,1].
func ClampConfidence(v float64) float64 {
	if math.IsNaN(v) {
		return NeutralConfidence
	}
	return math.Min(MaxConfidence, math.Max(MinConfidence, v))
}

// UsageSummary accumulates token and cost accounting across the successful
// dimension calls of one scoring pass.
type UsageSummary struct {
	PromptTokens     int     `json:"prompt_tokens"`
	CompletionTokens int     `json:"completion_tokens"`
	TotalTokens      int     `json:"total_tokens"`
	Calls            int     `json:"calls"`
	EstimatedCostUSD float64 `json:"estimated_cost_usd"`
}

// Add folds another usage sample into the summary.
func (u *UsageSummary) Add(prompt, completion int, costUSD float64) {
	u.PromptTokens += prompt
	u.CompletionTokens += completion
	u.TotalTokens += prompt + completion
	u.Calls++
	u.EstimatedCostUSD += costUSD
}
