package scoring

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scholarvest/paperscore/internal/infrastructure/messaging/kafka"
	"github.com/scholarvest/paperscore/internal/llm"
	"github.com/scholarvest/paperscore/internal/scoring"
	"github.com/scholarvest/paperscore/internal/scoring/contextbuild"
	"github.com/scholarvest/paperscore/internal/scoring/evaluate"
	"github.com/scholarvest/paperscore/internal/scoring/orchestrate"
	"github.com/scholarvest/paperscore/internal/scoring/scorecache"
	apperrors "github.com/scholarvest/paperscore/pkg/errors"
	"github.com/scholarvest/paperscore/pkg/types/paper"
)

// scriptedCompleter returns per-dimension scores keyed off the system
// instruction so one completer can serve all six evaluators.
type scriptedCompleter struct {
	mu    sync.Mutex
	calls int
	score float64
}

func (s *scriptedCompleter) CompleteStructured(_ context.Context, _ llm.Request) (*llm.Reply, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	content := fmt.Sprintf(`{"score": %.1f, "confidence": 0.8, "reasoning": "scripted"}`, s.score)
	return &llm.Reply{
		Content:          json.RawMessage(content),
		Model:            "scripted-model",
		PromptTokens:     10,
		CompletionTokens: 5,
	}, nil
}

func (s *scriptedCompleter) ModelVersion() string { return "scripted-model" }

func (s *scriptedCompleter) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type capturingPublisher struct {
	mu     sync.Mutex
	events []kafka.ScoredEvent
}

func (c *capturingPublisher) PublishScored(_ context.Context, e kafka.ScoredEvent) error {
	c.mu.Lock()
	c.events = append(c.events, e)
	c.mu.Unlock()
	return nil
}

func servicePaper() *paper.Paper {
	return &paper.Paper{
		ID:       "paper-1",
		Title:    "Catalyst design via graph networks",
		Abstract: "Machine-learned catalysts with 4x turnover.",
		DOI:      "10.1234/catalyst.2026",
	}
}

func newTestService(t *testing.T, completer llm.StructuredCompleter, cache scorecache.Store, events EventPublisher) *Service {
	t.Helper()
	assembler := contextbuild.NewAssembler(nil, nil, nil, nil, nil, nil, nil)
	orch := orchestrate.NewOrchestrator(evaluate.NewAll(completer, evaluate.Options{}), nil, true, nil)
	return NewService(assembler, orch, cache, events, nil, "scripted-model", nil)
}

func TestScoreValidation(t *testing.T) {
	svc := newTestService(t, &scriptedCompleter{score: 7}, nil, nil)

	_, err := svc.Score(context.Background(), Request{OrgID: "org-1"})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeValidation))

	_, err = svc.Score(context.Background(), Request{Paper: servicePaper()})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeValidation))

	_, err = svc.Score(context.Background(), Request{
		Paper: &paper.Paper{ID: "x"}, OrgID: "org-1",
	})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeValidation))
}

func TestScoreFullPassAndCacheWrite(t *testing.T) {
	completer := &scriptedCompleter{score: 7}
	cache := scorecache.NewMemory(scorecache.DefaultTTL, nil)
	svc := newTestService(t, completer, cache, nil)

	result, err := svc.Score(context.Background(), Request{Paper: servicePaper(), OrgID: "org-1"})
	require.NoError(t, err)

	assert.InDelta(t, 7.0, result.OverallScore, 1e-9)
	assert.False(t, result.FromCache)
	assert.Equal(t, scoring.NumDimensions, completer.callCount())

	entry, err := cache.Lookup(context.Background(), servicePaper().DOI)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.InDelta(t, 7.0, entry.OverallScore, 1e-9)
}

func TestScoreCacheHitShortCircuits(t *testing.T) {
	completer := &scriptedCompleter{score: 7}
	cache := scorecache.NewMemory(scorecache.DefaultTTL, nil)
	svc := newTestService(t, completer, cache, nil)

	_, err := svc.Score(context.Background(), Request{Paper: servicePaper(), OrgID: "org-1"})
	require.NoError(t, err)
	callsAfterFirst := completer.callCount()

	// Second request, different tenant: served from the shared cache.
	second, err := svc.Score(context.Background(), Request{Paper: servicePaper(), OrgID: "org-2"})
	require.NoError(t, err)

	assert.True(t, second.FromCache)
	assert.Equal(t, callsAfterFirst, completer.callCount())
	assert.InDelta(t, 7.0, second.OverallScore, 1e-9)
	for _, r := range second.DimensionResults {
		assert.Equal(t, cachedReasoning, r.Reasoning)
	}
}

func TestScoreCacheHitRecomputesUnderCustomWeights(t *testing.T) {
	cache := scorecache.NewMemory(scorecache.DefaultTTL, nil)

	// Seed the cache with uneven dimension scores.
	results := make(map[scoring.Dimension]scoring.DimensionResult)
	scoresByDim := map[scoring.Dimension]float64{
		scoring.DimensionNovelty:           9,
		scoring.DimensionIPPotential:       4,
		scoring.DimensionMarketability:     4,
		scoring.DimensionFeasibility:       4,
		scoring.DimensionCommercialization: 4,
		scoring.DimensionTeamReadiness:     4,
	}
	for d, sc := range scoresByDim {
		r, err := scoring.NewDimensionResult(d, sc, 0.8, "seed", nil)
		require.NoError(t, err)
		results[d] = r
	}
	seed := &scoring.AggregatedScore{
		PaperID:           "paper-1",
		OverallScore:      4.83, // equal-weight mean of the seeded scores
		OverallConfidence: 0.8,
		DimensionResults:  results,
		ModelVersion:      "scripted-model",
	}
	require.NoError(t, cache.Write(context.Background(), servicePaper().DOI, seed))

	svc := newTestService(t, &scriptedCompleter{score: 7}, cache, nil)

	noveltyHeavy, err := svc.Score(context.Background(), Request{
		Paper: servicePaper(), OrgID: "org-1",
		Weights: map[string]float64{
			"novelty": 0.5, "ip_potential": 0.1, "marketability": 0.1,
			"feasibility": 0.1, "commercialization": 0.1, "team_readiness": 0.1,
		},
	})
	require.NoError(t, err)
	require.True(t, noveltyHeavy.FromCache)
	// 0.5*9 + 0.5*4 = 6.5 under the skewed split.
	assert.InDelta(t, 6.5, noveltyHeavy.OverallScore, 1e-9)
	// Confidence is reused from the cached pass, not recomputed.
	assert.InDelta(t, 0.8, noveltyHeavy.OverallConfidence, 1e-9)
}

func TestScoreBypassCache(t *testing.T) {
	completer := &scriptedCompleter{score: 7}
	cache := scorecache.NewMemory(scorecache.DefaultTTL, nil)
	svc := newTestService(t, completer, cache, nil)

	_, err := svc.Score(context.Background(), Request{Paper: servicePaper(), OrgID: "org-1"})
	require.NoError(t, err)

	result, err := svc.Score(context.Background(), Request{
		Paper: servicePaper(), OrgID: "org-1", BypassCache: true,
	})
	require.NoError(t, err)
	assert.False(t, result.FromCache)
	assert.Equal(t, 2*scoring.NumDimensions, completer.callCount())
}

func TestScoreNoCacheWriteWithoutDOI(t *testing.T) {
	cache := scorecache.NewMemory(scorecache.DefaultTTL, nil)
	svc := newTestService(t, &scriptedCompleter{score: 7}, cache, nil)

	p := servicePaper()
	p.DOI = ""
	_, err := svc.Score(context.Background(), Request{Paper: p, OrgID: "org-1"})
	require.NoError(t, err)

	entry, err := cache.Lookup(context.Background(), "10.1234/catalyst.2026")
	require.NoError(t, err)
	assert.Nil(t, entry)
}

func TestScoreNoCacheWriteForSubsetRequests(t *testing.T) {
	cache := scorecache.NewMemory(scorecache.DefaultTTL, nil)
	svc := newTestService(t, &scriptedCompleter{score: 7}, cache, nil)

	_, err := svc.Score(context.Background(), Request{
		Paper: servicePaper(), OrgID: "org-1",
		Dimensions: []string{"novelty", "feasibility"},
	})
	require.NoError(t, err)

	entry, err := cache.Lookup(context.Background(), servicePaper().DOI)
	require.NoError(t, err)
	assert.Nil(t, entry)
}

func TestScorePublishesEvent(t *testing.T) {
	pub := &capturingPublisher{}
	svc := newTestService(t, &scriptedCompleter{score: 7}, nil, pub)

	result, err := svc.Score(context.Background(), Request{Paper: servicePaper(), OrgID: "org-1"})
	require.NoError(t, err)

	require.Len(t, pub.events, 1)
	event := pub.events[0]
	assert.Equal(t, "paper-1", event.PaperID)
	assert.Equal(t, "org-1", event.OrgID)
	assert.Equal(t, result.OverallScore, event.OverallScore)
	assert.Len(t, event.DimensionScores, scoring.NumDimensions)
}

func TestScoreSubsetDimensions(t *testing.T) {
	completer := &scriptedCompleter{score: 6}
	svc := newTestService(t, completer, nil, nil)

	result, err := svc.Score(context.Background(), Request{
		Paper: servicePaper(), OrgID: "org-1",
		Dimensions: []string{"novelty", "marketability"},
	})
	require.NoError(t, err)

	assert.Len(t, result.DimensionResults, 2)
	assert.Equal(t, 2, completer.callCount())
	assert.InDelta(t, 6.0, result.OverallScore, 1e-9)
}
