// Package config loads and validates the service configuration from file
// and environment.
package config

import (
	"time"

	"github.com/scholarvest/paperscore/internal/enrichment/neo4jgraph"
	"github.com/scholarvest/paperscore/internal/enrichment/opensearchkb"
	"github.com/scholarvest/paperscore/internal/infrastructure/database/postgres"
	"github.com/scholarvest/paperscore/internal/infrastructure/database/redis"
	"github.com/scholarvest/paperscore/internal/infrastructure/messaging/kafka"
	"github.com/scholarvest/paperscore/internal/infrastructure/monitoring/logging"
	"github.com/scholarvest/paperscore/internal/llm"
	apperrors "github.com/scholarvest/paperscore/pkg/errors"
)

// Config is the root configuration tree.
type Config struct {
	Log        logging.Config     `mapstructure:"log"`
	Redis      redis.Config       `mapstructure:"redis"`
	Postgres   postgres.Config    `mapstructure:"postgres"`
	Neo4j      neo4jgraph.Config  `mapstructure:"neo4j"`
	OpenSearch opensearchkb.Config `mapstructure:"opensearch"`
	Kafka      kafka.Config       `mapstructure:"kafka"`
	LLM        llm.ClientConfig   `mapstructure:"llm"`
	Scoring    ScoringConfig      `mapstructure:"scoring"`
}

// ScoringConfig tunes the scoring pipeline itself.
type ScoringConfig struct {
	// Concurrency bounds simultaneous dimension evaluations process-wide.
	Concurrency int `mapstructure:"concurrency"`
	// CacheBackend selects the score cache store: memory, redis or postgres.
	CacheBackend string `mapstructure:"cache_backend"`
	// CacheTTL is the score cache entry lifetime.
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
	// TrackUsage enables token and cost accounting on results.
	TrackUsage bool `mapstructure:"track_usage"`
	// Weights overrides the default dimension weight split; empty means
	// defaults. Must name all six dimensions and sum to 1.0 when set.
	Weights map[string]float64 `mapstructure:"weights"`
	// EventsEnabled toggles publishing of paper.scored events.
	EventsEnabled bool `mapstructure:"events_enabled"`
}

// Validate checks cross-field constraints that mapstructure cannot express.
func (c *Config) Validate() error {
	switch c.Scoring.CacheBackend {
	case "", "memory", "redis", "postgres":
	default:
		return apperrors.NewValidation("scoring.cache_backend must be memory, redis or postgres")
	}
	if c.Scoring.Concurrency < 0 {
		return apperrors.NewValidation("scoring.concurrency must not be negative")
	}
	if c.Scoring.CacheTTL < 0 {
		return apperrors.NewValidation("scoring.cache_ttl must not be negative")
	}
	if c.LLM.BaseURL == "" {
		return apperrors.NewValidation("llm.base_url is required")
	}
	return nil
}
