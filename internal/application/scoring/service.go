// Package scoring wires the scoring pipeline into a request-level service:
// validation, the global score cache, context assembly, orchestration, cache
// write-back, event publishing and metrics.
package scoring

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/scholarvest/paperscore/internal/infrastructure/messaging/kafka"
	"github.com/scholarvest/paperscore/internal/infrastructure/monitoring/logging"
	"github.com/scholarvest/paperscore/internal/infrastructure/monitoring/prometheus"
	"github.com/scholarvest/paperscore/internal/scoring"
	"github.com/scholarvest/paperscore/internal/scoring/contextbuild"
	"github.com/scholarvest/paperscore/internal/scoring/orchestrate"
	"github.com/scholarvest/paperscore/internal/scoring/scorecache"
	apperrors "github.com/scholarvest/paperscore/pkg/errors"
	"github.com/scholarvest/paperscore/pkg/types/paper"
)

// cachedReasoning replaces per-dimension reasoning on cache hits: the cache
// stores numbers only, so the original text is gone by construction.
const cachedReasoning = "Served from global score cache"

// Request is one scoring request.
type Request struct {
	Paper *paper.Paper
	// OrgID scopes knowledge retrieval; it never affects cached numbers.
	OrgID  string
	UserID string
	// Dimensions selects a subset; empty means all six.
	Dimensions []string
	// Weights overrides the default split; empty means defaults.
	Weights map[string]float64
	// SimilarPapers, when non-nil, is caller-supplied pre-ranked context.
	SimilarPapers []paper.Summary
	// BypassCache forces a fresh evaluation.
	BypassCache bool
}

// EventPublisher abstracts the scored-event sink.
type EventPublisher interface {
	PublishScored(ctx context.Context, event kafka.ScoredEvent) error
}

// Service is the scoring application service. All collaborators except the
// assembler and orchestrator are optional.
type Service struct {
	assembler    *contextbuild.Assembler
	orchestrator *orchestrate.Orchestrator
	cache        scorecache.Store
	events       EventPublisher
	metrics      *prometheus.Metrics
	modelVersion string
	log          logging.Logger
}

// NewService constructs the Service. cache and events may be nil to disable
// those stages; nil metrics records into a throwaway registry.
func NewService(
	assembler *contextbuild.Assembler,
	orchestrator *orchestrate.Orchestrator,
	cache scorecache.Store,
	events EventPublisher,
	metrics *prometheus.Metrics,
	modelVersion string,
	log logging.Logger,
) *Service {
	if metrics == nil {
		metrics = prometheus.NewNop()
	}
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Service{
		assembler:    assembler,
		orchestrator: orchestrator,
		cache:        cache,
		events:       events,
		metrics:      metrics,
		modelVersion: modelVersion,
		log:          log.Named("scoring_service"),
	}
}

// Score runs one scoring pass for a paper. Identical papers scored by
// different organizations may be served from the shared cache; everything
// tenant-specific is excluded from cached entries, so the share is safe.
func (s *Service) Score(ctx context.Context, req Request) (*scoring.AggregatedScore, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	dims, err := resolveDimensions(req.Dimensions)
	if err != nil {
		return nil, err
	}
	weights, err := scoring.NewWeights(req.Weights)
	if err != nil {
		return nil, err
	}

	requestID := uuid.NewString()
	log := s.log.With(
		logging.String("request_id", requestID),
		logging.String("paper_id", req.Paper.ID),
		logging.String("org_id", req.OrgID),
	)
	start := time.Now()

	if !req.BypassCache && s.cache != nil {
		if hit := s.lookupCache(ctx, req, dims, weights, log); hit != nil {
			s.metrics.CacheHits.Inc()
			s.metrics.ScoringTotal.WithLabelValues("cache_hit").Inc()
			s.metrics.ScoringDuration.WithLabelValues("true").Observe(time.Since(start).Seconds())
			log.Info("served from score cache",
				logging.Float64("overall_score", hit.OverallScore))
			s.publish(ctx, req, hit, log)
			return hit, nil
		}
		s.metrics.CacheMisses.Inc()
	}

	assembled, err := s.assembler.Assemble(ctx, contextbuild.Input{
		Paper:         req.Paper,
		OrgID:         req.OrgID,
		UserID:        req.UserID,
		SimilarPapers: req.SimilarPapers,
		Dimensions:    dims,
	})
	if err != nil {
		s.metrics.ScoringTotal.WithLabelValues("error").Inc()
		return nil, apperrors.Wrap(err, apperrors.ErrCodeScoringFailed, "context assembly aborted")
	}

	contexts := make(map[scoring.Dimension]string, len(assembled.Contexts))
	for dim, dc := range assembled.Contexts {
		contexts[dim] = dc.Text
		s.metrics.ContextTokens.WithLabelValues(string(dim)).Observe(float64(dc.TokensUsed))
	}

	result := s.orchestrator.Run(ctx, req.Paper, contexts, dims, weights, s.modelVersion)

	for _, dim := range scoring.AllDimensions() {
		if containsDimension(result.Errors, dim) {
			s.metrics.DimensionFailures.WithLabelValues(string(dim)).Inc()
		}
	}
	if result.Usage != nil {
		s.metrics.ModelCost.Add(result.Usage.EstimatedCostUSD)
	}

	s.writeCache(ctx, req, dims, assembled.KnowledgeInjected, result, log)
	s.publish(ctx, req, result, log)

	status := "ok"
	if len(result.Errors) > 0 {
		status = "partial"
	}
	s.metrics.ScoringTotal.WithLabelValues(status).Inc()
	s.metrics.ScoringDuration.WithLabelValues("false").Observe(time.Since(start).Seconds())

	log.Info("scoring pass complete",
		logging.Float64("overall_score", result.OverallScore),
		logging.Float64("overall_confidence", result.OverallConfidence),
		logging.Int("failed_dimensions", len(result.Errors)),
		logging.Duration("elapsed", time.Since(start)))
	return result, nil
}

func validate(req Request) error {
	if req.Paper == nil {
		return apperrors.NewValidation("paper is required")
	}
	if req.Paper.ID == "" {
		return apperrors.NewValidation("paper id is required")
	}
	if req.Paper.Title == "" && req.Paper.Abstract == "" {
		return apperrors.NewValidation("paper must carry a title or an abstract")
	}
	if req.OrgID == "" {
		return apperrors.NewValidation("org id is required")
	}
	return nil
}

func resolveDimensions(names []string) ([]scoring.Dimension, error) {
	if len(names) == 0 {
		return scoring.AllDimensions(), nil
	}
	return scoring.ResolveDimensions(names)
}

// lookupCache serves a prior pass when one exists for the paper's DOI. The
// overall score is recomputed from the cached per-dimension scores under the
// caller's weights and requested dimensions; confidence is reused as cached,
// since per-dimension confidences alone cannot reproduce the original
// failure-aware blend.
func (s *Service) lookupCache(
	ctx context.Context,
	req Request,
	dims []scoring.Dimension,
	weights scoring.Weights,
	log logging.Logger,
) *scoring.AggregatedScore {
	if req.Paper.DOI == "" {
		return nil
	}

	entry, err := s.cache.Lookup(ctx, req.Paper.DOI)
	if err != nil {
		log.Warn("score cache lookup failed, falling through", logging.Err(err))
		return nil
	}
	if entry == nil {
		return nil
	}

	results := make(map[scoring.Dimension]scoring.DimensionResult, len(dims))
	values := make(map[scoring.Dimension]float64, len(dims))
	for _, dim := range dims {
		ds, ok := entry.DimensionScores[dim]
		if !ok {
			// Entry predates a requested dimension; treat as a miss.
			return nil
		}
		results[dim] = scoring.DimensionResult{
			Dimension:  dim,
			Score:      ds.Score,
			Confidence: ds.Confidence,
			Reasoning:  cachedReasoning,
		}
		values[dim] = ds.Score
	}

	return &scoring.AggregatedScore{
		PaperID:           req.Paper.ID,
		OverallScore:      scoring.WeightedAverage(values, weights),
		OverallConfidence: entry.OverallConfidence,
		DimensionResults:  results,
		Weights:           weights,
		ModelVersion:      entry.ModelVersion,
		FromCache:         true,
		ScoredAt:          entry.CreatedAt,
	}
}

// writeCache persists a fresh result when the write policy allows: the paper
// has a DOI, all six dimensions were requested and scored cleanly, and no
// tenant knowledge reached the contexts. Write failures are logged, never
// surfaced; caching is an optimization.
func (s *Service) writeCache(
	ctx context.Context,
	req Request,
	dims []scoring.Dimension,
	knowledgeInjected bool,
	result *scoring.AggregatedScore,
	log logging.Logger,
) {
	if s.cache == nil || req.Paper.DOI == "" {
		return
	}
	if len(dims) != scoring.NumDimensions {
		return
	}
	if !result.AllDimensionsScored() {
		return
	}
	if knowledgeInjected {
		return
	}

	if err := s.cache.Write(ctx, req.Paper.DOI, result); err != nil {
		log.Warn("score cache write failed", logging.Err(err))
	}
}

// publish emits the scored event when a publisher is wired. Failures are
// logged only; eventing is downstream of the caller's result.
func (s *Service) publish(ctx context.Context, req Request, result *scoring.AggregatedScore, log logging.Logger) {
	if s.events == nil {
		return
	}
	event := kafka.NewScoredEvent(req.OrgID, req.Paper.DOI, result)
	if err := s.events.PublishScored(ctx, event); err != nil {
		log.Warn("failed to publish scored event", logging.Err(err))
	}
}

func containsDimension(errs []string, dim scoring.Dimension) bool {
	prefix := string(dim) + ":"
	for _, e := range errs {
		if len(e) >= len(prefix) && e[:len(prefix)] == prefix {
			return true
		}
	}
	return false
}
