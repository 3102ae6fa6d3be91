package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/scholarvest/paperscore/internal/infrastructure/monitoring/logging"
	"github.com/scholarvest/paperscore/internal/scoring"
	"github.com/scholarvest/paperscore/internal/scoring/scorecache"
	apperrors "github.com/scholarvest/paperscore/pkg/errors"
	"github.com/scholarvest/paperscore/pkg/types/paper"
)

const scoreKeyPrefix = "paperscore:score:"

// ScoreStore is the Redis-backed scorecache.Store. SET with TTL gives the
// atomic last-writer-wins upsert, and Redis key expiry enforces the entry
// lifetime server-side.
type ScoreStore struct {
	client *Client
	ttl    time.Duration
	log    logging.Logger
}

// NewScoreStore constructs a ScoreStore. Non-positive ttl falls back to
// scorecache.DefaultTTL.
func NewScoreStore(client *Client, ttl time.Duration, log logging.Logger) *ScoreStore {
	if ttl <= 0 {
		ttl = scorecache.DefaultTTL
	}
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &ScoreStore{client: client, ttl: ttl, log: log.Named("score_store")}
}

func scoreKey(normalizedDOI string) string { return scoreKeyPrefix + normalizedDOI }

// Lookup implements scorecache.Store. Expired keys are removed by Redis
// itself, so a GET miss covers both absent and expired entries.
func (s *ScoreStore) Lookup(ctx context.Context, doi string) (*scorecache.Entry, error) {
	key, ok := paper.NormalizeDOI(doi)
	if !ok {
		return nil, nil
	}

	data, err := s.client.rdb.Get(ctx, scoreKey(key)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeCacheError, "score cache lookup failed")
	}

	var entry scorecache.Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		// A corrupt entry is treated as a miss; the next write replaces it.
		s.log.Warn("discarding malformed score cache entry",
			logging.String("doi", key), logging.Err(err))
		return nil, nil
	}
	return &entry, nil
}

// Write implements scorecache.Store. Malformed DOIs are a silent no-op.
func (s *ScoreStore) Write(ctx context.Context, doi string, score *scoring.AggregatedScore) error {
	key, ok := paper.NormalizeDOI(doi)
	if !ok {
		return nil
	}

	entry := scorecache.NewEntry(key, score, time.Now(), s.ttl)
	data, err := json.Marshal(entry)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeSerialization, "failed to serialize score cache entry")
	}

	if err := s.client.rdb.Set(ctx, scoreKey(key), data, s.ttl).Err(); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeCacheError, "score cache write failed")
	}
	return nil
}
