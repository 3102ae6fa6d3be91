// Package scorecache defines the cross-tenant global score cache: a
// DOI-keyed, TTL-expiring store of previously computed numeric scores. The
// cache never holds free-text reasoning or tenant-specific enrichment:
// entries are sanitized to numbers at construction, which is what makes
// sharing results across tenants safe.
package scorecache

import (
	"context"
	"sync"
	"time"

	"github.com/scholarvest/paperscore/internal/scoring"
	"github.com/scholarvest/paperscore/pkg/types/paper"
)

// DefaultTTL is the reference deployment's entry lifetime. Expiry is the
// only removal path; there is no explicit delete.
const DefaultTTL = 90 * 24 * time.Hour

// DimensionScore is the numeric pair kept per dimension.
type DimensionScore struct {
	Score      float64 `json:"score"`
	Confidence float64 `json:"confidence"`
}

// Entry is one cached scoring outcome, keyed by normalized DOI.
// DimensionDetails carries numbers only; sanitize is the single constructor
// path, so a reasoning string can never reach a stored entry.
type Entry struct {
	DOI               string                               `json:"doi"`
	DimensionScores   map[scoring.Dimension]DimensionScore `json:"dimension_scores"`
	OverallScore      float64                              `json:"overall_score"`
	OverallConfidence float64                              `json:"overall_confidence"`
	ModelVersion      string                               `json:"model_version"`
	DimensionDetails  map[string]map[string]float64        `json:"dimension_details"`
	Errors            []string                             `json:"errors,omitempty"`
	CreatedAt         time.Time                            `json:"created_at"`
	ExpiresAt         time.Time                            `json:"expires_at"`
}

// Expired reports whether the entry's lifetime has passed at now.
func (e *Entry) Expired(now time.Time) bool {
	return !now.Before(e.ExpiresAt)
}

// OverallWith recomputes the overall score from the cached per-dimension
// scores under the supplied weights. Used when a cache hit is served to a
// caller whose weights differ from the split the entry was computed with.
func (e *Entry) OverallWith(weights scoring.Weights) float64 {
	values := make(map[scoring.Dimension]float64, len(e.DimensionScores))
	for d, ds := range e.DimensionScores {
		values[d] = ds.Score
	}
	return scoring.WeightedAverage(values, weights)
}

// NewEntry sanitizes an aggregated score into a cache entry: the six
// dimension score/confidence pairs, overall fields, model version, and error
// strings. Reasoning and per-dimension details are dropped here and nowhere
// else stored.
func NewEntry(normalizedDOI string, s *scoring.AggregatedScore, now time.Time, ttl time.Duration) *Entry {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	dims := make(map[scoring.Dimension]DimensionScore, len(s.DimensionResults))
	details := make(map[string]map[string]float64, len(s.DimensionResults))
	for d, r := range s.DimensionResults {
		dims[d] = DimensionScore{Score: r.Score, Confidence: r.Confidence}
		details[string(d)] = map[string]float64{
			"score":      r.Score,
			"confidence": r.Confidence,
		}
	}
	return &Entry{
		DOI:               normalizedDOI,
		DimensionScores:   dims,
		OverallScore:      s.OverallScore,
		OverallConfidence: s.OverallConfidence,
		ModelVersion:      s.ModelVersion,
		DimensionDetails:  details,
		Errors:            append([]string(nil), s.Errors...),
		CreatedAt:         now.UTC(),
		ExpiresAt:         now.UTC().Add(ttl),
	}
}

// Store is the global score cache contract. Implementations must provide
// atomic last-writer-wins upsert under concurrent writers targeting the
// same DOI.
//
// Lookup returns (nil, nil), not an error, when the DOI is malformed,
// absent, or the stored entry has expired. Write normalizes the DOI and is
// a silent no-op when it is malformed.
type Store interface {
	Lookup(ctx context.Context, doi string) (*Entry, error)
	Write(ctx context.Context, doi string, score *scoring.AggregatedScore) error
}

// Clock abstracts time for expiry decisions so tests can control it.
type Clock func() time.Time

// Memory is the in-process Store used in tests and single-node deployments.
type Memory struct {
	ttl   time.Duration
	clock Clock

	mu      sync.Mutex // Lookup may delete expired entries
	entries map[string]*Entry
}

// NewMemory constructs a Memory store. A nil clock uses time.Now; a
// non-positive ttl uses DefaultTTL.
func NewMemory(ttl time.Duration, clock Clock) *Memory {
	if clock == nil {
		clock = time.Now
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Memory{
		ttl:     ttl,
		clock:   clock,
		entries: make(map[string]*Entry),
	}
}

// Lookup implements Store.
func (m *Memory) Lookup(_ context.Context, doi string) (*Entry, error) {
	key, ok := paper.NormalizeDOI(doi)
	if !ok {
		return nil, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e, found := m.entries[key]
	if !found {
		return nil, nil
	}
	if e.Expired(m.clock()) {
		// Lazy eviction; expiry remains the only removal path.
		delete(m.entries, key)
		return nil, nil
	}
	clone := *e
	return &clone, nil
}

// Write implements Store. Last writer wins on conflicting DOIs.
func (m *Memory) Write(_ context.Context, doi string, score *scoring.AggregatedScore) error {
	key, ok := paper.NormalizeDOI(doi)
	if !ok {
		return nil
	}
	entry := NewEntry(key, score, m.clock(), m.ttl)
	m.mu.Lock()
	m.entries[key] = entry
	m.mu.Unlock()
	return nil
}
