// Package scoring defines the core data model of the paper-scoring pipeline:
// the six assessment dimensions, per-dimension results, configurable weights,
// and the weighted aggregate computed over them.
package scoring

import (
	"github.com/scholarvest/paperscore/pkg/errors"
)

// Dimension is one of the six independent axes a paper's commercial
// potential is assessed on.
type Dimension string

const (
	DimensionNovelty           Dimension = "novelty"
	DimensionIPPotential       Dimension = "ip_potential"
	DimensionMarketability     Dimension = "marketability"
	DimensionFeasibility       Dimension = "feasibility"
	DimensionCommercialization Dimension = "commercialization"
	DimensionTeamReadiness     Dimension = "team_readiness"
)

// AllDimensions returns the canonical ordered list of scoring dimensions.
// The order is stable and used wherever deterministic iteration matters
// (context assembly, CSV export, test fixtures).
func AllDimensions() []Dimension {
	return []Dimension{
		DimensionNovelty,
		DimensionIPPotential,
		DimensionMarketability,
		DimensionFeasibility,
		DimensionCommercialization,
		DimensionTeamReadiness,
	}
}

// NumDimensions is the size of the full dimension set.
const NumDimensions = 6

// ParseDimension validates a caller-supplied dimension name.
func ParseDimension(s string) (Dimension, error) {
	d := Dimension(s)
	switch d {
	case DimensionNovelty, DimensionIPPotential, DimensionMarketability,
		DimensionFeasibility, DimensionCommercialization, DimensionTeamReadiness:
		return d, nil
	}
	return "", errors.Newf(errors.ErrCodeUnknownDimension, "unknown scoring dimension: %s", s)
}

// ResolveDimensions validates a requested dimension subset, defaulting to
// the full set when the input is empty. Duplicates are collapsed, input
// order preserved.
func ResolveDimensions(names []string) ([]Dimension, error) {
	if len(names) == 0 {
		return AllDimensions(), nil
	}
	seen := make(map[Dimension]bool, len(names))
	out := make([]Dimension, 0, len(names))
	for _, n := range names {
		d, err := ParseDimension(n)
		if err != nil {
			return nil, err
		}
		if seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, d)
	}
	return out, nil
}
