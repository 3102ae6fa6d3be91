package contextbuild

import (
	"context"
	"strings"

	"github.com/scholarvest/paperscore/internal/enrichment"
	"github.com/scholarvest/paperscore/internal/infrastructure/monitoring/logging"
	"github.com/scholarvest/paperscore/internal/scoring"
	"github.com/scholarvest/paperscore/internal/tokens"
	"github.com/scholarvest/paperscore/pkg/types/paper"
)

// SourcePresence records which source categories contributed non-empty
// content to a dimension's context. Used for observability and tests, never
// for correctness decisions.
type SourcePresence struct {
	SimilarPapers bool `json:"similar_papers"`
	CitationGraph bool `json:"citation_graph"`
	Enrichment    bool `json:"enrichment"`
	Knowledge     bool `json:"knowledge"`
	Jstor         bool `json:"jstor"`
}

// DimensionContext is one dimension's assembled, budget-bounded context.
type DimensionContext struct {
	Dimension  scoring.Dimension `json:"dimension"`
	Text       string            `json:"text"`
	TokensUsed int               `json:"tokens_used"`
	Sources    SourcePresence    `json:"sources"`
}

// Result is the output of one assembly pass: one context per requested
// dimension. KnowledgeInjected reports whether tenant knowledge-base content
// reached any dimension's context; the score-cache write policy depends on it.
type Result struct {
	Contexts          map[scoring.Dimension]DimensionContext
	KnowledgeInjected bool
}

// Input carries everything one assembly pass needs. SimilarPapers, when
// non-nil, is a pre-ranked list supplied by the caller; the assembler then
// skips the similar-papers source entirely.
type Input struct {
	Paper         *paper.Paper
	OrgID         string
	UserID        string
	SimilarPapers []paper.Summary
	Dimensions    []scoring.Dimension
}

// Assembler builds per-dimension context blobs from the enrichment
// collaborators. Context strings are request-scoped: built fresh per call
// and discarded after orchestration.
//
// Any nil source is treated as permanently absent. A source whose fetch
// fails is omitted for every dimension of the request: enrichment is
// best-effort and a single unreachable collaborator never fails the pass.
type Assembler struct {
	similar   enrichment.SimilarPapersSource
	citations enrichment.CitationGraphSource
	snapshots enrichment.SnapshotSource
	knowledge enrichment.KnowledgeSource
	jstor     enrichment.JstorSource
	tokens    *tokens.Manager
	log       logging.Logger
}

// NewAssembler constructs an Assembler. Every source may be nil.
func NewAssembler(
	similar enrichment.SimilarPapersSource,
	citations enrichment.CitationGraphSource,
	snapshots enrichment.SnapshotSource,
	knowledge enrichment.KnowledgeSource,
	jstor enrichment.JstorSource,
	tm *tokens.Manager,
	log logging.Logger,
) *Assembler {
	if tm == nil {
		tm = tokens.NewManager(nil)
	}
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Assembler{
		similar:   similar,
		citations: citations,
		snapshots: snapshots,
		knowledge: knowledge,
		jstor:     jstor,
		tokens:    tm,
		log:       log.Named("assembler"),
	}
}

// fetched holds the once-per-request enrichment pulls shared by all
// dimensions, avoiding duplicate I/O across the six contexts.
type fetched struct {
	similar   enrichment.Outcome[[]paper.Summary]
	citations enrichment.Outcome[enrichment.CitationGraph]
	snapshot  enrichment.Outcome[enrichment.Snapshot]
	knowledge enrichment.Outcome[[]enrichment.KnowledgeExcerpt]
	jstor     enrichment.Outcome[[]enrichment.JstorWork]
}

// Assemble builds one bounded context per requested dimension. The only
// error it can return is ctx cancellation between fetches; enrichment
// failures degrade to absent sections.
func (a *Assembler) Assemble(ctx context.Context, in Input) (*Result, error) {
	dims := in.Dimensions
	if len(dims) == 0 {
		dims = scoring.AllDimensions()
	}

	f := a.fetchAll(ctx, in)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := &Result{Contexts: make(map[scoring.Dimension]DimensionContext, len(dims))}
	for _, dim := range dims {
		dc := a.assembleDimension(dim, f)
		if dc.Sources.Knowledge {
			res.KnowledgeInjected = true
		}
		res.Contexts[dim] = dc
	}
	return res, nil
}

func (a *Assembler) fetchAll(ctx context.Context, in Input) fetched {
	var f fetched

	if in.SimilarPapers != nil {
		f.similar = enrichment.Present(in.SimilarPapers)
	} else if a.similar != nil {
		if papers, err := a.similar.SimilarPapers(ctx, in.Paper, in.OrgID); err != nil {
			a.log.Warn("similar-papers fetch failed, omitting section",
				logging.String("paper_id", in.Paper.ID), logging.Err(err))
		} else {
			f.similar = enrichment.Present(papers)
		}
	}

	if a.citations != nil {
		if g, err := a.citations.CitationGraph(ctx, in.Paper); err != nil {
			a.log.Warn("citation-graph fetch failed, omitting section",
				logging.String("paper_id", in.Paper.ID), logging.Err(err))
		} else {
			f.citations = enrichment.Present(g)
		}
	}

	if a.snapshots != nil {
		if s, err := a.snapshots.Snapshot(ctx, in.Paper); err != nil {
			a.log.Warn("enrichment snapshot fetch failed, omitting section",
				logging.String("paper_id", in.Paper.ID), logging.Err(err))
		} else {
			f.snapshot = enrichment.Present(s)
		}
	}

	if a.knowledge != nil {
		if k, err := a.knowledge.Excerpts(ctx, in.Paper, in.OrgID, in.UserID); err != nil {
			a.log.Warn("knowledge fetch failed, omitting section",
				logging.String("paper_id", in.Paper.ID), logging.Err(err))
		} else {
			f.knowledge = enrichment.Present(k)
		}
	}

	if a.jstor != nil {
		if w, err := a.jstor.RelatedWorks(ctx, in.Paper); err != nil {
			a.log.Warn("jstor fetch failed, omitting section",
				logging.String("paper_id", in.Paper.ID), logging.Err(err))
		} else {
			f.jstor = enrichment.Present(w)
		}
	}

	return f
}

// assembleDimension formats each included source category, truncates each
// section to its sub-budget, joins with blank lines, and re-truncates the
// whole blob to the dimension's total. A zero sub-budget excludes the
// category for that dimension; the budget table is the inclusion table.
func (a *Assembler) assembleDimension(dim scoring.Dimension, f fetched) DimensionContext {
	budget := tokens.BudgetFor(dim)
	var sections []string
	var presence SourcePresence

	appendSection := func(text string, subBudget int, mark *bool) {
		if subBudget <= 0 || text == "" {
			return
		}
		text = a.tokens.TruncateToTokens(text, subBudget)
		if text == "" {
			return
		}
		sections = append(sections, text)
		*mark = true
	}

	if f.similar.Present {
		appendSection(FormatSimilarPapers(dim, f.similar.Value), budget.SimilarPapers, &presence.SimilarPapers)
	}
	if f.citations.Present {
		appendSection(FormatCitationGraph(dim, f.citations.Value), budget.CitationGraph, &presence.CitationGraph)
	}
	if f.snapshot.Present {
		appendSection(FormatSnapshot(dim, f.snapshot.Value), budget.Enrichment, &presence.Enrichment)
	}
	if f.knowledge.Present {
		appendSection(FormatKnowledge(dim, f.knowledge.Value), budget.Knowledge, &presence.Knowledge)
	}
	if f.jstor.Present {
		appendSection(FormatJstor(dim, f.jstor.Value), budget.Jstor, &presence.Jstor)
	}

	combined := strings.Join(sections, "\n\n")
	combined = a.tokens.TruncateToTokens(combined, budget.Total)

	used := a.tokens.CountTokens(combined)
	a.log.Debug("assembled dimension context",
		logging.String("dimension", string(dim)),
		logging.Int("tokens_used", used),
		logging.Int("budget_total", budget.Total))

	return DimensionContext{
		Dimension:  dim,
		Text:       combined,
		TokensUsed: used,
		Sources:    presence,
	}
}
