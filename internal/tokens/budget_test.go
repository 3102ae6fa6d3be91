package tokens

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/scholarvest/paperscore/internal/scoring"
)

func TestCountTokensEmpty(t *testing.T) {
	m := NewManager(nil)
	assert.Equal(t, 0, m.CountTokens(""))
}

func TestCountTokensNonEmpty(t *testing.T) {
	m := NewManager(nil)
	n := m.CountTokens("transformer architectures for protein folding")
	assert.Greater(t, n, 0)
}

func TestTruncateToTokensNoOpWhenWithinBudget(t *testing.T) {
	m := NewManager(nil)
	text := "short abstract about battery chemistry"
	assert.Equal(t, text, m.TruncateToTokens(text, 10000))
}

func TestTruncateToTokensZeroBudget(t *testing.T) {
	m := NewManager(nil)
	assert.Equal(t, "", m.TruncateToTokens("anything", 0))
	assert.Equal(t, "", m.TruncateToTokens("anything", -5))
}

func TestTruncateToTokensShortens(t *testing.T) {
	m := NewManager(nil)
	text := strings.Repeat("evidence ", 2000)

	got := m.TruncateToTokens(text, 50)
	assert.Less(t, len(got), len(text))
	assert.LessOrEqual(t, m.CountTokens(got), 50)
}

func TestTruncateToTokensIdempotent(t *testing.T) {
	m := NewManager(nil)
	text := strings.Repeat("novel method for water desalination ", 500)

	once := m.TruncateToTokens(text, 80)
	twice := m.TruncateToTokens(once, 80)
	assert.Equal(t, once, twice)
}

func TestTruncateByCharsRespectsRunes(t *testing.T) {
	s := "héllo wörld"
	got := truncateByChars(s, 3)
	assert.LessOrEqual(t, len(got), 3)
	assert.True(t, strings.HasPrefix(s, got))
}

func TestBudgetTableCoversAllDimensions(t *testing.T) {
	for _, d := range scoring.AllDimensions() {
		b := BudgetFor(d)
		assert.Greater(t, b.Total, 0, "dimension %s", d)
	}
}

func TestBudgetExclusions(t *testing.T) {
	// Zero sub-budgets encode source exclusions per dimension.
	assert.Zero(t, BudgetFor(scoring.DimensionNovelty).Enrichment)
	assert.Zero(t, BudgetFor(scoring.DimensionMarketability).CitationGraph)
	assert.Zero(t, BudgetFor(scoring.DimensionCommercialization).CitationGraph)
	assert.Zero(t, BudgetFor(scoring.DimensionTeamReadiness).SimilarPapers)

	// And novelty always admits similar papers.
	assert.Greater(t, BudgetFor(scoring.DimensionNovelty).SimilarPapers, 0)
}

func TestBudgetForUnknownDimensionFallsBack(t *testing.T) {
	b := BudgetFor(scoring.Dimension("mystery"))
	assert.Greater(t, b.Total, 0)
}
