// Package enrichment declares the collaborator interfaces the context
// assembler pulls from and the typed results they produce. The scoring core
// owns only this boundary: citation graphs, patent/market snapshots,
// knowledge retrieval, and JSTOR indexing are implemented elsewhere (or by
// the adapters in the subpackages here) and may always come back empty.
package enrichment

import (
	"context"
	"time"

	"github.com/scholarvest/paperscore/pkg/types/paper"
)

// Outcome wraps a fetched enrichment value with an explicit presence flag so
// that "the source had nothing" and "the source was unreachable" are both
// first-class absent states rather than inferences from empty collections.
type Outcome[T any] struct {
	Value   T
	Present bool
}

// Present wraps a value in a present Outcome.
func Present[T any](v T) Outcome[T] { return Outcome[T]{Value: v, Present: true} }

// Absent returns the zero-value absent Outcome.
func Absent[T any]() Outcome[T] { return Outcome[T]{} }

// CitedWork is one node of a paper's citation neighbourhood.
type CitedWork struct {
	Title string `json:"title"`
	DOI   string `json:"doi,omitempty"`
	Year  int    `json:"year,omitempty"`
	Venue string `json:"venue,omitempty"`
}

// CitationGraph holds the works a paper references and the works citing it.
type CitationGraph struct {
	ReferencedWorks []CitedWork `json:"referenced_works"`
	CitingWorks     []CitedWork `json:"citing_works"`
}

// Empty reports whether the graph carries no works at all.
func (g CitationGraph) Empty() bool {
	return len(g.ReferencedWorks) == 0 && len(g.CitingWorks) == 0
}

// PatentHit is a related patent returned by the patent-search collaborator.
type PatentHit struct {
	Title      string    `json:"title"`
	Assignee   string    `json:"assignee,omitempty"`
	FilingDate time.Time `json:"filing_date,omitempty"`
	Abstract   string    `json:"abstract,omitempty"`
}

// MarketSignal is one market-intelligence datapoint (funding round, product
// launch, analyst note) relevant to the paper's technology area.
type MarketSignal struct {
	Source   string    `json:"source"`
	Headline string    `json:"headline"`
	Summary  string    `json:"summary,omitempty"`
	Date     time.Time `json:"date,omitempty"`
}

// Snapshot bundles the patent and market-signal enrichment produced by the
// external enrichment pipeline for one paper.
type Snapshot struct {
	Patents       []PatentHit    `json:"patents"`
	MarketSignals []MarketSignal `json:"market_signals"`
}

// Empty reports whether the snapshot carries no data.
func (s Snapshot) Empty() bool {
	return len(s.Patents) == 0 && len(s.MarketSignals) == 0
}

// KnowledgeExcerpt is a tenant/user-scoped knowledge-base passage already
// ranked by relevance to the paper.
type KnowledgeExcerpt struct {
	SourceName string  `json:"source_name"`
	Excerpt    string  `json:"excerpt"`
	Relevance  float64 `json:"relevance"`
}

// JstorWork is a related scholarly work from the JSTOR index.
type JstorWork struct {
	Title     string   `json:"title"`
	Authors   []string `json:"authors,omitempty"`
	Year      int      `json:"year,omitempty"`
	Container string   `json:"container,omitempty"`
}

// SimilarPapersSource produces an ordered list of related paper summaries
// for a given paper, already filtered to the caller's tenant.
type SimilarPapersSource interface {
	SimilarPapers(ctx context.Context, p *paper.Paper, orgID string) ([]paper.Summary, error)
}

// CitationGraphSource produces the referenced/citing neighbourhood of a
// paper. A missing paper yields an empty graph, not an error.
type CitationGraphSource interface {
	CitationGraph(ctx context.Context, p *paper.Paper) (CitationGraph, error)
}

// SnapshotSource produces the patent + market-signal snapshot for a paper.
type SnapshotSource interface {
	Snapshot(ctx context.Context, p *paper.Paper) (Snapshot, error)
}

// KnowledgeSource produces ranked knowledge-base excerpts, filtered to the
// organization and optionally personalized to the acting user.
type KnowledgeSource interface {
	Excerpts(ctx context.Context, p *paper.Paper, orgID, userID string) ([]KnowledgeExcerpt, error)
}

// JstorSource produces JSTOR-indexed related works for a paper.
type JstorSource interface {
	RelatedWorks(ctx context.Context, p *paper.Paper) ([]JstorWork, error)
}
