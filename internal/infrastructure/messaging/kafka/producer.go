// Package kafka publishes scoring lifecycle events. The only event today is
// paper.scored, emitted after a scoring pass completes; consumers drive
// downstream indexing and notification from it.
package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/scholarvest/paperscore/internal/infrastructure/monitoring/logging"
	"github.com/scholarvest/paperscore/internal/scoring"
	apperrors "github.com/scholarvest/paperscore/pkg/errors"
)

// Config holds Kafka producer settings.
type Config struct {
	Brokers      []string      `mapstructure:"brokers"`
	Topic        string        `mapstructure:"topic"`
	BatchTimeout time.Duration `mapstructure:"batch_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

const defaultTopic = "paper.scored"

// ScoredEvent is the wire shape of a completed scoring pass. It carries the
// same sanitized numeric view as the global score cache: never reasoning
// text and never tenant enrichment.
type ScoredEvent struct {
	PaperID           string             `json:"paper_id"`
	DOI               string             `json:"doi,omitempty"`
	OrgID             string             `json:"org_id"`
	OverallScore      float64            `json:"overall_score"`
	OverallConfidence float64            `json:"overall_confidence"`
	DimensionScores   map[string]float64 `json:"dimension_scores"`
	ModelVersion      string             `json:"model_version"`
	FromCache         bool               `json:"from_cache"`
	FailedDimensions  int                `json:"failed_dimensions"`
	ScoredAt          time.Time          `json:"scored_at"`
}

// NewScoredEvent projects an aggregated score into its event shape.
func NewScoredEvent(orgID, doi string, s *scoring.AggregatedScore) ScoredEvent {
	dims := make(map[string]float64, len(s.DimensionResults))
	for d, r := range s.DimensionResults {
		dims[string(d)] = r.Score
	}
	return ScoredEvent{
		PaperID:           s.PaperID,
		DOI:               doi,
		OrgID:             orgID,
		OverallScore:      s.OverallScore,
		OverallConfidence: s.OverallConfidence,
		DimensionScores:   dims,
		ModelVersion:      s.ModelVersion,
		FromCache:         s.FromCache,
		FailedDimensions:  len(s.Errors),
		ScoredAt:          s.ScoredAt,
	}
}

// Producer publishes ScoredEvents keyed by paper ID so per-paper ordering is
// preserved within a partition.
type Producer struct {
	writer *kafka.Writer
	log    logging.Logger
}

// NewProducer constructs a Producer. The writer is lazy; no connection is
// made until the first publish.
func NewProducer(cfg Config, log logging.Logger) *Producer {
	if log == nil {
		log = logging.NewNopLogger()
	}
	topic := cfg.Topic
	if topic == "" {
		topic = defaultTopic
	}
	batchTimeout := cfg.BatchTimeout
	if batchTimeout <= 0 {
		batchTimeout = 100 * time.Millisecond
	}
	writeTimeout := cfg.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = 10 * time.Second
	}

	return &Producer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			BatchTimeout: batchTimeout,
			WriteTimeout: writeTimeout,
			RequiredAcks: kafka.RequireOne,
		},
		log: log.Named("kafka"),
	}
}

// PublishScored emits one ScoredEvent.
func (p *Producer) PublishScored(ctx context.Context, event ScoredEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeSerialization, "failed to serialize scored event")
	}

	msg := kafka.Message{
		Key:   []byte(event.PaperID),
		Value: value,
		Time:  time.Now(),
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeExternalService, "failed to publish scored event")
	}

	p.log.Debug("published scored event",
		logging.String("paper_id", event.PaperID),
		logging.Float64("overall_score", event.OverallScore))
	return nil
}

// Close flushes and shuts down the writer.
func (p *Producer) Close() error { return p.writer.Close() }
