// Package contextbuild assembles the bounded, per-dimension context payloads
// the evaluators attach to their prompts. Formatters are pure: typed
// enrichment in, labeled text block out, empty string when the source has
// nothing to say.
package contextbuild

import (
	"fmt"
	"strings"

	"github.com/scholarvest/paperscore/internal/enrichment"
	"github.com/scholarvest/paperscore/internal/scoring"
	"github.com/scholarvest/paperscore/pkg/types/paper"
)

// maxItemsPerSection bounds list-shaped sections before token truncation so
// a pathological source cannot dominate the budget with hundreds of entries.
const maxItemsPerSection = 10

// abstractSnippetLen is the character cap applied to abstracts inside
// formatted sections; full abstracts belong to the paper itself, not its
// neighbours.
const abstractSnippetLen = 400

func snippet(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= abstractSnippetLen {
		return s
	}
	cut := strings.LastIndexByte(s[:abstractSnippetLen], ' ')
	if cut <= 0 {
		cut = abstractSnippetLen
	}
	return s[:cut] + "..."
}

// FormatSimilarPapers renders the ranked similar-papers list. The ranking is
// produced upstream; novelty keeps the full ordered list while other
// dimensions only need the closest neighbours, so the cap is tighter there.
func FormatSimilarPapers(dim scoring.Dimension, papers []paper.Summary) string {
	if len(papers) == 0 {
		return ""
	}
	limit := maxItemsPerSection
	if dim != scoring.DimensionNovelty {
		limit = 5
	}
	var b strings.Builder
	b.WriteString("## Similar papers (most similar first)\n")
	for i, p := range papers {
		if i >= limit {
			break
		}
		fmt.Fprintf(&b, "%d. %s", i+1, strings.TrimSpace(p.Title))
		if !p.PublicationDate.IsZero() {
			fmt.Fprintf(&b, " (%d)", p.PublicationDate.Year())
		}
		if p.DOI != "" {
			fmt.Fprintf(&b, " [doi:%s]", p.DOI)
		}
		b.WriteString("\n")
		if p.Abstract != "" {
			fmt.Fprintf(&b, "   %s\n", snippet(p.Abstract))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatCitationGraph renders the citation neighbourhood. Novelty cares most
// about who builds on this work, so citing works lead; feasibility and the
// rest read the foundations first.
func FormatCitationGraph(dim scoring.Dimension, g enrichment.CitationGraph) string {
	if g.Empty() {
		return ""
	}
	var b strings.Builder
	b.WriteString("## Citation graph\n")

	citing := func() { writeCitedWorks(&b, "Works citing this paper", g.CitingWorks) }
	referenced := func() { writeCitedWorks(&b, "Works this paper references", g.ReferencedWorks) }

	if dim == scoring.DimensionNovelty {
		citing()
		referenced()
	} else {
		referenced()
		citing()
	}
	return strings.TrimRight(b.String(), "\n")
}

func writeCitedWorks(b *strings.Builder, label string, works []enrichment.CitedWork) {
	if len(works) == 0 {
		return
	}
	fmt.Fprintf(b, "%s (%d total):\n", label, len(works))
	for i, w := range works {
		if i >= maxItemsPerSection {
			fmt.Fprintf(b, "- ... and %d more\n", len(works)-i)
			break
		}
		fmt.Fprintf(b, "- %s", strings.TrimSpace(w.Title))
		if w.Year > 0 {
			fmt.Fprintf(b, " (%d)", w.Year)
		}
		if w.Venue != "" {
			fmt.Fprintf(b, ", %s", w.Venue)
		}
		b.WriteString("\n")
	}
}

// FormatSnapshot renders the patent + market-signal snapshot. Marketability
// and commercialization read market signals first; ip_potential reads the
// patent landscape first.
func FormatSnapshot(dim scoring.Dimension, s enrichment.Snapshot) string {
	if s.Empty() {
		return ""
	}
	var b strings.Builder
	b.WriteString("## Patent and market landscape\n")

	patents := func() {
		if len(s.Patents) == 0 {
			return
		}
		fmt.Fprintf(&b, "Related patents (%d):\n", len(s.Patents))
		for i, p := range s.Patents {
			if i >= maxItemsPerSection {
				break
			}
			fmt.Fprintf(&b, "- %s", strings.TrimSpace(p.Title))
			if p.Assignee != "" {
				fmt.Fprintf(&b, ", assignee %s", p.Assignee)
			}
			if !p.FilingDate.IsZero() {
				fmt.Fprintf(&b, " (filed %d)", p.FilingDate.Year())
			}
			b.WriteString("\n")
		}
	}
	signals := func() {
		if len(s.MarketSignals) == 0 {
			return
		}
		fmt.Fprintf(&b, "Market signals (%d):\n", len(s.MarketSignals))
		for i, m := range s.MarketSignals {
			if i >= maxItemsPerSection {
				break
			}
			fmt.Fprintf(&b, "- [%s] %s", m.Source, strings.TrimSpace(m.Headline))
			if m.Summary != "" {
				fmt.Fprintf(&b, ": %s", snippet(m.Summary))
			}
			b.WriteString("\n")
		}
	}

	switch dim {
	case scoring.DimensionMarketability, scoring.DimensionCommercialization:
		signals()
		patents()
	default:
		patents()
		signals()
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatKnowledge renders ranked knowledge-base excerpts.
func FormatKnowledge(_ scoring.Dimension, excerpts []enrichment.KnowledgeExcerpt) string {
	if len(excerpts) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("## Organization knowledge base\n")
	for i, e := range excerpts {
		if i >= maxItemsPerSection {
			break
		}
		fmt.Fprintf(&b, "- [%s] %s\n", e.SourceName, snippet(e.Excerpt))
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatJstor renders JSTOR-indexed related works.
func FormatJstor(_ scoring.Dimension, works []enrichment.JstorWork) string {
	if len(works) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("## Related works (JSTOR)\n")
	for i, w := range works {
		if i >= maxItemsPerSection {
			break
		}
		fmt.Fprintf(&b, "- %s", strings.TrimSpace(w.Title))
		if len(w.Authors) > 0 {
			fmt.Fprintf(&b, " by %s", strings.Join(w.Authors, ", "))
		}
		if w.Year > 0 {
			fmt.Fprintf(&b, " (%d)", w.Year)
		}
		if w.Container != "" {
			fmt.Fprintf(&b, ", %s", w.Container)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
