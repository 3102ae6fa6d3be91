package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	appscoring "github.com/scholarvest/paperscore/internal/application/scoring"
	"github.com/scholarvest/paperscore/internal/config"
	"github.com/scholarvest/paperscore/internal/enrichment"
	"github.com/scholarvest/paperscore/internal/enrichment/neo4jgraph"
	"github.com/scholarvest/paperscore/internal/enrichment/opensearchkb"
	"github.com/scholarvest/paperscore/internal/infrastructure/database/postgres"
	"github.com/scholarvest/paperscore/internal/infrastructure/database/redis"
	"github.com/scholarvest/paperscore/internal/infrastructure/messaging/kafka"
	"github.com/scholarvest/paperscore/internal/infrastructure/monitoring/logging"
	promx "github.com/scholarvest/paperscore/internal/infrastructure/monitoring/prometheus"
	"github.com/scholarvest/paperscore/internal/llm"
	"github.com/scholarvest/paperscore/internal/scoring/contextbuild"
	"github.com/scholarvest/paperscore/internal/scoring/evaluate"
	"github.com/scholarvest/paperscore/internal/scoring/orchestrate"
	"github.com/scholarvest/paperscore/internal/scoring/scorecache"
	"github.com/scholarvest/paperscore/internal/tokens"
	apperrors "github.com/scholarvest/paperscore/pkg/errors"
	"github.com/scholarvest/paperscore/pkg/types/paper"
)

type scoreOptions struct {
	orgID       string
	userID      string
	dimensions  []string
	weights     []string
	bypassCache bool
	timeout     time.Duration
}

func newScoreCommand(root *RootOptions) *cobra.Command {
	opts := &scoreOptions{}

	cmd := &cobra.Command{
		Use:   "score <paper.json>",
		Short: "Score a paper's commercial potential",
		Long: `Score reads a paper description from a JSON file (or - for stdin),
runs the six-dimension evaluation, and prints the aggregated result as JSON.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScore(cmd, root, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.orgID, "org", "", "organization id (required)")
	cmd.Flags().StringVar(&opts.userID, "user", "", "acting user id")
	cmd.Flags().StringSliceVar(&opts.dimensions, "dimensions", nil, "subset of dimensions to score")
	cmd.Flags().StringSliceVar(&opts.weights, "weights", nil, "weight overrides as dim=value pairs")
	cmd.Flags().BoolVar(&opts.bypassCache, "bypass-cache", false, "force a fresh evaluation")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 5*time.Minute, "overall scoring deadline")
	_ = cmd.MarkFlagRequired("org")

	return cmd
}

func runScore(cmd *cobra.Command, root *RootOptions, opts *scoreOptions, path string) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	log, err := root.newLogger(cfg)
	if err != nil {
		return err
	}

	p, err := readPaper(path)
	if err != nil {
		return err
	}
	weights, err := parseWeights(opts.weights)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
	defer cancel()

	service, cleanup, err := buildService(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()

	result, err := service.Score(ctx, appscoring.Request{
		Paper:       p,
		OrgID:       opts.orgID,
		UserID:      opts.userID,
		Dimensions:  opts.dimensions,
		Weights:     weights,
		BypassCache: opts.bypassCache,
	})
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}

// buildService wires the full pipeline from configuration. Enrichment
// sources are best-effort: an unreachable collaborator is logged and
// dropped, never fatal, matching the assembler's degradation model.
func buildService(ctx context.Context, cfg *config.Config, log logging.Logger) (*appscoring.Service, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	completer := llm.NewClient(cfg.LLM, log)
	evaluators := evaluate.NewAll(completer, evaluate.Options{
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		Pricing: evaluate.Pricing{
			Per1KPromptUSD:     cfg.LLM.CostPer1KPromptUSD,
			Per1KCompletionUSD: cfg.LLM.CostPer1KCompletionUSD,
		},
	})

	var citations enrichment.CitationGraphSource
	if graph, err := neo4jgraph.NewSource(ctx, cfg.Neo4j, log); err != nil {
		log.Warn("citation graph source unavailable", logging.Err(err))
	} else {
		citations = graph
		closers = append(closers, func() { _ = graph.Close(context.Background()) })
	}

	var knowledge enrichment.KnowledgeSource
	if kb, err := opensearchkb.NewSource(ctx, cfg.OpenSearch, log); err != nil {
		log.Warn("knowledge source unavailable", logging.Err(err))
	} else {
		knowledge = kb
	}

	assembler := contextbuild.NewAssembler(nil, citations, nil, knowledge, nil, tokens.NewManager(log), log)

	gate := orchestrate.NewGate(cfg.Scoring.Concurrency)
	orchestrator := orchestrate.NewOrchestrator(evaluators, gate, cfg.Scoring.TrackUsage, log)

	cache, err := buildCache(ctx, cfg, log, &closers)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	var events appscoring.EventPublisher
	if cfg.Scoring.EventsEnabled {
		producer := kafka.NewProducer(cfg.Kafka, log)
		events = producer
		closers = append(closers, func() { _ = producer.Close() })
	}

	metrics := promx.New(prometheus.NewRegistry())
	service := appscoring.NewService(assembler, orchestrator, cache, events, metrics, cfg.LLM.Model, log)
	return service, cleanup, nil
}

func buildCache(ctx context.Context, cfg *config.Config, log logging.Logger, closers *[]func()) (scorecache.Store, error) {
	switch cfg.Scoring.CacheBackend {
	case "", "memory":
		return scorecache.NewMemory(cfg.Scoring.CacheTTL, nil), nil
	case "redis":
		client, err := redis.NewClient(ctx, cfg.Redis, log)
		if err != nil {
			return nil, err
		}
		*closers = append(*closers, func() { _ = client.Close() })
		return redis.NewScoreStore(client, cfg.Scoring.CacheTTL, log), nil
	case "postgres":
		pool, err := postgres.NewPool(ctx, cfg.Postgres, log)
		if err != nil {
			return nil, err
		}
		*closers = append(*closers, pool.Close)
		return postgres.NewScoreStore(pool, cfg.Scoring.CacheTTL, log), nil
	default:
		return nil, apperrors.NewValidation("unknown cache backend " + cfg.Scoring.CacheBackend)
	}
}

func readPaper(path string) (*paper.Paper, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = readAllStdin()
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeBadRequest, "failed to read paper file")
	}

	var p paper.Paper
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeBadRequest, "failed to parse paper JSON")
	}
	return &p, nil
}

func readAllStdin() ([]byte, error) {
	return os.ReadFile("/dev/stdin")
}

func parseWeights(pairs []string) (map[string]float64, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]float64, len(pairs))
	for _, pair := range pairs {
		name, value, found := strings.Cut(pair, "=")
		if !found {
			return nil, apperrors.NewValidation("weights must be dim=value pairs, got " + pair)
		}
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, apperrors.NewValidation("invalid weight value in " + pair)
		}
		out[name] = f
	}
	return out, nil
}
