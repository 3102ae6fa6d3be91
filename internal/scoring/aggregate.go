package scoring

import (
	"math"
	"time"
)

// AggregatedScore is the final, derived outcome of one scoring pass.
// Constructed exactly once per pass; read-only afterwards.
type AggregatedScore struct {
	PaperID           string                        `json:"paper_id"`
	OverallScore      float64                       `json:"overall_score"`
	OverallConfidence float64                       `json:"overall_confidence"`
	DimensionResults  map[Dimension]DimensionResult `json:"dimension_results"`
	Weights           Weights                       `json:"weights"`
	ModelVersion      string                        `json:"model_version"`
	Errors            []string                      `json:"errors,omitempty"`
	Usage             *UsageSummary                 `json:"usage,omitempty"`
	FromCache         bool                          `json:"from_cache"`
	ScoredAt          time.Time                     `json:"scored_at"`
}

// AllDimensionsScored reports whether every one of the six dimensions was
// evaluated successfully. The global score cache only accepts complete,
// error-free passes.
func (a *AggregatedScore) AllDimensionsScored() bool {
	if len(a.Errors) > 0 {
		return false
	}
	for _, d := range AllDimensions() {
		if _, ok := a.DimensionResults[d]; !ok {
			return false
		}
	}
	return true
}

// WeightedAverage computes the weighted mean of per-dimension values over
// the dimensions present in scores, renormalizing by the sum of their
// weights. This is the single aggregation formula used for both score and
// confidence: when a subset of dimensions was evaluated the weights need not
// sum to 1.0 after subsetting, so the denominator renormalizes.
//
// The degenerate Σweight == 0 input yields 0.0 by definition, not an error.
// Results are rounded to 2 decimal places.
func WeightedAverage(values map[Dimension]float64, weights Weights) float64 {
	var num, den float64
	for d, v := range values {
		w := weights.Get(d)
		num += w * v
		den += w
	}
	if den == 0 {
		return 0.0
	}
	return round2(num / den)
}

// Aggregate combines the successfully evaluated dimension results into an
// overall score and confidence. Failed dimensions must not appear in
// evaluated: the caller (orchestrator) records their sentinel results
// separately so that they are visible but excluded from both numerator and
// denominator.
func Aggregate(evaluated map[Dimension]DimensionResult, weights Weights) (score, confidence float64) {
	scores := make(map[Dimension]float64, len(evaluated))
	confidences := make(map[Dimension]float64, len(evaluated))
	for d, r := range evaluated {
		scores[d] = r.Score
		confidences[d] = r.Confidence
	}
	return WeightedAverage(scores, weights), WeightedAverage(confidences, weights)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
