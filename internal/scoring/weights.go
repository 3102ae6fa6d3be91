package scoring

import (
	"math"

	"github.com/scholarvest/paperscore/pkg/errors"
)

// WeightEpsilon is the tolerance applied when checking that a full weight set
// sums to 1.0.
const WeightEpsilon = 1e-3

// Weights assigns a relative importance to each of the six scoring
// dimensions. A Weights value is created per scoring request (defaults or
// caller override), consumed by the aggregator, and never mutated.
type Weights map[Dimension]float64

// DefaultWeights returns the reference deployment's weighting of the six
// dimensions. Marketability and commercialization carry the most weight
// because the platform's output is a commercial-potential verdict.
func DefaultWeights() Weights {
	return Weights{
		DimensionNovelty:           0.20,
		DimensionIPPotential:       0.15,
		DimensionMarketability:     0.25,
		DimensionFeasibility:       0.15,
		DimensionCommercialization: 0.15,
		DimensionTeamReadiness:     0.10,
	}
}

// EqualWeights returns a uniform 1/6 split. Cached entries keep whatever
// weights the writing request used; this split exists for callers that want
// an unopinionated blend.
func EqualWeights() Weights {
	w := make(Weights, NumDimensions)
	for _, d := range AllDimensions() {
		w[d] = 1.0 / float64(NumDimensions)
	}
	return w
}

// NewWeights validates a caller-supplied weight set: every key must be a
// known dimension, every value non-negative, all six dimensions present, and
// the sum within WeightEpsilon of 1.0. Violations fail construction before
// any scoring work begins.
func NewWeights(raw map[string]float64) (Weights, error) {
	if len(raw) == 0 {
		return DefaultWeights(), nil
	}
	w := make(Weights, len(raw))
	var sum float64
	for name, v := range raw {
		d, err := ParseDimension(name)
		if err != nil {
			return nil, err
		}
		if v < 0 || math.IsNaN(v) {
			return nil, errors.Newf(errors.ErrCodeInvalidWeights,
				"weight for %s must be non-negative, got %.4f", d, v)
		}
		w[d] = v
		sum += v
	}
	if len(w) != NumDimensions {
		return nil, errors.Newf(errors.ErrCodeInvalidWeights,
			"weights must cover all %d dimensions, got %d", NumDimensions, len(w))
	}
	if math.Abs(sum-1.0) > WeightEpsilon {
		return nil, errors.Newf(errors.ErrCodeInvalidWeights,
			"weights must sum to 1.0 (±%.0e), got %.4f", WeightEpsilon, sum)
	}
	return w, nil
}

// Get returns the weight for a dimension, zero when absent.
func (w Weights) Get(d Dimension) float64 {
	return w[d]
}
