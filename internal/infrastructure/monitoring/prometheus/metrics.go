// Package prometheus registers and exposes the scoring pipeline's metrics.
package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles every instrument the scoring pipeline records into.
// Construct once per process and share.
type Metrics struct {
	ScoringTotal      *prometheus.CounterVec
	ScoringDuration   *prometheus.HistogramVec
	CacheHits         prometheus.Counter
	CacheMisses       prometheus.Counter
	DimensionFailures *prometheus.CounterVec
	ContextTokens     *prometheus.HistogramVec
	ModelCost         prometheus.Counter
}

// New registers all scoring metrics on the given registerer. Pass
// prometheus.DefaultRegisterer in production; tests use a fresh registry to
// avoid duplicate-registration panics.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ScoringTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "paperscore",
			Name:      "scoring_requests_total",
			Help:      "Scoring requests by terminal status.",
		}, []string{"status"}),
		ScoringDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "paperscore",
			Name:      "scoring_duration_seconds",
			Help:      "Wall time of a full scoring pass.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80},
		}, []string{"from_cache"}),
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "paperscore",
			Name:      "score_cache_hits_total",
			Help:      "Global score cache hits.",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "paperscore",
			Name:      "score_cache_misses_total",
			Help:      "Global score cache misses.",
		}),
		DimensionFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "paperscore",
			Name:      "dimension_failures_total",
			Help:      "Dimension evaluations replaced by a failure sentinel.",
		}, []string{"dimension"}),
		ContextTokens: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "paperscore",
			Name:      "context_tokens",
			Help:      "Tokens used by assembled per-dimension contexts.",
			Buckets:   []float64{250, 500, 1000, 2000, 3000, 4000, 6000},
		}, []string{"dimension"}),
		ModelCost: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "paperscore",
			Name:      "model_cost_usd_total",
			Help:      "Estimated cumulative model spend in USD.",
		}),
	}

	reg.MustRegister(
		m.ScoringTotal,
		m.ScoringDuration,
		m.CacheHits,
		m.CacheMisses,
		m.DimensionFailures,
		m.ContextTokens,
		m.ModelCost,
	)
	return m
}

// NewNop returns metrics bound to a throwaway registry, for tests and for
// callers that do not wire monitoring.
func NewNop() *Metrics { return New(prometheus.NewRegistry()) }
