package postgres

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/scholarvest/paperscore/internal/infrastructure/monitoring/logging"
	"github.com/scholarvest/paperscore/internal/scoring"
	"github.com/scholarvest/paperscore/internal/scoring/scorecache"
	apperrors "github.com/scholarvest/paperscore/pkg/errors"
	"github.com/scholarvest/paperscore/pkg/types/paper"
)

// ScoreStore is the durable scorecache.Store backed by the score_cache
// table. The upsert is a single INSERT ... ON CONFLICT statement, so
// concurrent writers for the same DOI resolve to last writer wins without
// application locking.
type ScoreStore struct {
	pool *Pool
	ttl  time.Duration
	log  logging.Logger
}

// NewScoreStore constructs a ScoreStore. Non-positive ttl falls back to
// scorecache.DefaultTTL.
func NewScoreStore(pool *Pool, ttl time.Duration, log logging.Logger) *ScoreStore {
	if ttl <= 0 {
		ttl = scorecache.DefaultTTL
	}
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &ScoreStore{pool: pool, ttl: ttl, log: log.Named("score_store")}
}

const lookupQuery = `
SELECT entry
FROM score_cache
WHERE doi = $1 AND expires_at > now()`

const upsertQuery = `
INSERT INTO score_cache (doi, entry, created_at, expires_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (doi) DO UPDATE
SET entry = EXCLUDED.entry,
    created_at = EXCLUDED.created_at,
    expires_at = EXCLUDED.expires_at`

// Lookup implements scorecache.Store. The expires_at filter means expired
// rows are invisible immediately; physical cleanup is left to a periodic
// DELETE outside the request path.
func (s *ScoreStore) Lookup(ctx context.Context, doi string) (*scorecache.Entry, error) {
	key, ok := paper.NormalizeDOI(doi)
	if !ok {
		return nil, nil
	}

	var data []byte
	err := s.pool.pool.QueryRow(ctx, lookupQuery, key).Scan(&data)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "score cache lookup failed")
	}

	var entry scorecache.Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		s.log.Warn("discarding malformed score cache row",
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

	if _, err := s.pool.pool.Exec(ctx, upsertQuery, key, data, entry.CreatedAt, entry.ExpiresAt); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "score cache upsert failed")
	}
	return nil
}
