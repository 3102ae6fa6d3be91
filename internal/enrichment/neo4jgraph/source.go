// Package neo4jgraph implements the citation-graph enrichment source on top
// of the Neo4j citation graph.
package neo4jgraph

import (
	"context"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/scholarvest/paperscore/internal/enrichment"
	"github.com/scholarvest/paperscore/internal/infrastructure/monitoring/logging"
	apperrors "github.com/scholarvest/paperscore/pkg/errors"
	"github.com/scholarvest/paperscore/pkg/types/paper"
)

// Config holds Neo4j connection settings.
type Config struct {
	URI      string        `mapstructure:"uri"`
	Username string        `mapstructure:"username"`
	Password string        `mapstructure:"password"`
	Database string        `mapstructure:"database"`
	Timeout  time.Duration `mapstructure:"timeout"`
	MaxWorks int           `mapstructure:"max_works"`
}

const defaultMaxWorks = 25

// Source is the Neo4j-backed enrichment.CitationGraphSource. Papers are
// (:Paper {id}) nodes and citations are (:Paper)-[:CITES]->(:Paper) edges.
type Source struct {
	driver   neo4j.DriverWithContext
	database string
	maxWorks int
	timeout  time.Duration
	log      logging.Logger
}

// NewSource connects to Neo4j and verifies connectivity.
func NewSource(ctx context.Context, cfg Config, log logging.Logger) (*Source, error) {
	if log == nil {
		log = logging.NewNopLogger()
	}
	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.Username, cfg.Password, ""))
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeExternalService, "failed to create neo4j driver")
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeExternalService, "failed to connect to neo4j")
	}

	maxWorks := cfg.MaxWorks
	if maxWorks <= 0 {
		maxWorks = defaultMaxWorks
	}
	log.Info("connected to neo4j", logging.String("uri", cfg.URI))
	return &Source{
		driver:   driver,
		database: cfg.Database,
		maxWorks: maxWorks,
		timeout:  cfg.Timeout,
		log:      log.Named("citation_graph"),
	}, nil
}

// Close releases the driver.
func (s *Source) Close(ctx context.Context) error { return s.driver.Close(ctx) }

const citingQuery = `
MATCH (citing:Paper)-[:CITES]->(p:Paper {id: $id})
RETURN citing.title AS title, citing.doi AS doi, citing.year AS year, citing.venue AS venue
ORDER BY citing.citation_count DESC
LIMIT $limit`

const referencedQuery = `
MATCH (p:Paper {id: $id})-[:CITES]->(ref:Paper)
RETURN ref.title AS title, ref.doi AS doi, ref.year AS year, ref.venue AS venue
ORDER BY ref.citation_count DESC
LIMIT $limit`

// CitationGraph implements enrichment.CitationGraphSource. Both directions
// are fetched in one read session; a paper unknown to the graph yields an
// empty graph, not an error.
func (s *Source) CitationGraph(ctx context.Context, p *paper.Paper) (enrichment.CitationGraph, error) {
	ctx, cancel := s.queryContext(ctx)
	defer cancel()

	session := s.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeRead,
		DatabaseName: s.database,
	})
	defer session.Close(ctx)

	out, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		citing, err := s.collectWorks(ctx, tx, citingQuery, p.ID)
		if err != nil {
			return nil, err
		}
		referenced, err := s.collectWorks(ctx, tx, referencedQuery, p.ID)
		if err != nil {
			return nil, err
		}
		return enrichment.CitationGraph{ReferencedWorks: referenced, CitingWorks: citing}, nil
	})
	if err != nil {
		return enrichment.CitationGraph{}, apperrors.Wrap(err,
			apperrors.ErrCodeCitationGraphError, "citation graph query failed")
	}
	return out.(enrichment.CitationGraph), nil
}

// queryContext bounds one graph query with the configured timeout; zero
// means the caller's deadline alone applies.
func (s *Source) queryContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

func (s *Source) collectWorks(ctx context.Context, tx neo4j.ManagedTransaction, query, paperID string) ([]enrichment.CitedWork, error) {
	result, err := tx.Run(ctx, query, map[string]any{"id": paperID, "limit": s.maxWorks})
	if err != nil {
		return nil, err
	}

	var works []enrichment.CitedWork
	for result.Next(ctx) {
		rec := result.Record()
		work := enrichment.CitedWork{}
		if v, ok := rec.Get("title"); ok {
			work.Title, _ = v.(string)
		}
		if v, ok := rec.Get("doi"); ok {
			work.DOI, _ = v.(string)
		}
		if v, ok := rec.Get("venue"); ok {
			work.Venue, _ = v.(string)
		}
		if v, ok := rec.Get("year"); ok {
			if y, isInt := v.(int64); isInt {
				work.Year = int(y)
			}
		}
		works = append(works, work)
	}
	return works, result.Err()
}
