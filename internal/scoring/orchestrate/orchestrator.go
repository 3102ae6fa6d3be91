// Package orchestrate runs the per-dimension evaluators concurrently under a
// bounded gate, isolates per-dimension failures, and folds the survivors
// into a weighted aggregate.
package orchestrate

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/scholarvest/paperscore/internal/infrastructure/monitoring/logging"
	"github.com/scholarvest/paperscore/internal/scoring"
	"github.com/scholarvest/paperscore/internal/scoring/evaluate"
	"github.com/scholarvest/paperscore/pkg/types/paper"
)

// DefaultConcurrency is the default gate capacity: at most this many
// dimension evaluations execute simultaneously.
const DefaultConcurrency = 5

// Gate bounds concurrent dimension evaluations. A single Gate may be shared
// process-wide to bound the outbound model-call rate across concurrent
// scoring requests, not just within one.
type Gate struct {
	sem *semaphore.Weighted
}

// NewGate returns a Gate with the given capacity; non-positive capacities
// fall back to DefaultConcurrency.
func NewGate(capacity int) *Gate {
	if capacity <= 0 {
		capacity = DefaultConcurrency
	}
	return &Gate{sem: semaphore.NewWeighted(int64(capacity))}
}

func (g *Gate) acquire(ctx context.Context) error { return g.sem.Acquire(ctx, 1) }
func (g *Gate) release()                          { g.sem.Release(1) }

// Orchestrator coordinates one scoring pass: fan-out, failure isolation,
// aggregation, usage accounting. It holds no per-request state; a single
// instance serves concurrent requests.
type Orchestrator struct {
	evaluators map[scoring.Dimension]evaluate.Evaluator
	gate       *Gate
	trackUsage bool
	log        logging.Logger
}

// NewOrchestrator constructs an Orchestrator. A nil gate gets a private gate
// at DefaultConcurrency.
func NewOrchestrator(
	evaluators map[scoring.Dimension]evaluate.Evaluator,
	gate *Gate,
	trackUsage bool,
	log logging.Logger,
) *Orchestrator {
	if gate == nil {
		gate = NewGate(DefaultConcurrency)
	}
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Orchestrator{
		evaluators: evaluators,
		gate:       gate,
		trackUsage: trackUsage,
		log:        log.Named("orchestrator"),
	}
}

// dimOutcome is one dimension task's terminal state.
type dimOutcome struct {
	result scoring.DimensionResult
	usage  evaluate.Usage
	err    error
}

// Run evaluates the requested dimensions for one paper and aggregates the
// results. It always returns an AggregatedScore: every per-dimension failure
// is replaced by a neutral sentinel and recorded in Errors, and a pass in
// which all dimensions fail yields overall confidence 0.0 rather than an
// error. Dimension results are order-independent.
//
// The caller bounds the whole pass with ctx; on expiry, tasks that have not
// produced a result are recorded as failed.
func (o *Orchestrator) Run(
	ctx context.Context,
	p *paper.Paper,
	contexts map[scoring.Dimension]string,
	dims []scoring.Dimension,
	weights scoring.Weights,
	modelVersion string,
) *scoring.AggregatedScore {
	if len(dims) == 0 {
		dims = scoring.AllDimensions()
	}

	outcomes := make(map[scoring.Dimension]*dimOutcome, len(dims))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, dim := range dims {
		wg.Add(1)
		go func(dim scoring.Dimension) {
			defer wg.Done()
			out := o.runDimension(ctx, dim, p, contexts[dim])
			mu.Lock()
			outcomes[dim] = out
			mu.Unlock()
		}(dim)
	}
	wg.Wait()

	evaluated := make(map[scoring.Dimension]scoring.DimensionResult, len(dims))
	results := make(map[scoring.Dimension]scoring.DimensionResult, len(dims))
	var errs []string
	var usage *scoring.UsageSummary
	if o.trackUsage {
		usage = &scoring.UsageSummary{}
	}

	// Deterministic dimension order keeps the errors list stable for callers
	// and tests; the aggregate itself is order-independent.
	for _, dim := range scoring.AllDimensions() {
		out, ok := outcomes[dim]
		if !ok {
			continue
		}
		if out.err != nil {
			o.log.Warn("dimension evaluation failed",
				logging.String("paper_id", p.ID),
				logging.String("dimension", string(dim)),
				logging.Err(out.err))
			results[dim] = scoring.FailureSentinel(dim, out.err)
			errs = append(errs, fmt.Sprintf("%s: %v", dim, out.err))
			continue
		}
		evaluated[dim] = out.result
		results[dim] = out.result
		if usage != nil {
			usage.Add(out.usage.PromptTokens, out.usage.CompletionTokens, out.usage.CostUSD)
		}
	}

	overall, confidence := scoring.Aggregate(evaluated, weights)

	return &scoring.AggregatedScore{
		PaperID:           p.ID,
		OverallScore:      overall,
		OverallConfidence: confidence,
		DimensionResults:  results,
		Weights:           weights,
		ModelVersion:      modelVersion,
		Errors:            errs,
		Usage:             usage,
		ScoredAt:          time.Now().UTC(),
	}
}

// runDimension executes one dimension task: gate slot first, then the
// evaluator. Both failure points funnel into the same outcome shape.
func (o *Orchestrator) runDimension(ctx context.Context, dim scoring.Dimension, p *paper.Paper, contextText string) *dimOutcome {
	ev, ok := o.evaluators[dim]
	if !ok {
		return &dimOutcome{err: fmt.Errorf("no evaluator registered for dimension %s", dim)}
	}

	if err := o.gate.acquire(ctx); err != nil {
		return &dimOutcome{err: fmt.Errorf("concurrency gate: %w", err)}
	}
	defer o.gate.release()

	result, usage, err := ev.Evaluate(ctx, p, contextText)
	if err != nil {
		return &dimOutcome{err: err}
	}
	return &dimOutcome{result: result, usage: usage}
}
