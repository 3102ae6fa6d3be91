// Package tokens provides deterministic token counting, budget-bounded
// truncation, and the per-dimension context budget tables used by the
// context assembler.
package tokens

import (
	"sync"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"

	"github.com/scholarvest/paperscore/internal/infrastructure/monitoring/logging"
	"github.com/scholarvest/paperscore/internal/scoring"
)

// encodingName is the BPE encoding used for all counting. It must stay in
// sync with the model family the evaluators call.
const encodingName = "cl100k_base"

// fallbackCharsPerToken is the approximation applied when the tokenizer
// cannot be initialized: one token per four characters. This is a documented
// approximate fallback, not an error path.
const fallbackCharsPerToken = 4

// Manager counts tokens and truncates text to token budgets. It is stateless
// aside from the lazily-initialized, process-shared tokenizer: the encoding
// tables load once on first use and are reused by every Manager.
type Manager struct {
	log logging.Logger
}

// NewManager constructs a Manager. A nil logger falls back to the no-op
// logger.
func NewManager(log logging.Logger) *Manager {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Manager{log: log.Named("tokens")}
}

var (
	encOnce sync.Once
	enc     *tiktoken.Tiktoken
	encErr  error
)

// encoding returns the shared tokenizer instance, loading it on first call.
// A load failure is remembered and the character fallback is used for the
// life of the process.
func encoding() (*tiktoken.Tiktoken, error) {
	encOnce.Do(func() {
		enc, encErr = tiktoken.GetEncoding(encodingName)
	})
	return enc, encErr
}

// CountTokens returns the number of subword tokens in text. When the
// tokenizer is unavailable it returns len(text)/4.
func (m *Manager) CountTokens(text string) int {
	if text == "" {
		return 0
	}
	e, err := encoding()
	if err != nil {
		m.log.Warn("tokenizer unavailable, using character approximation", logging.Err(err))
		return len(text) / fallbackCharsPerToken
	}
	return len(e.Encode(text, nil, nil))
}

// TruncateToTokens returns text unchanged if it already fits within
// maxTokens; otherwise it decodes only the first maxTokens tokens back to
// text. maxTokens <= 0 yields the empty string. The operation is idempotent:
// truncating an already-truncated string with the same budget is a no-op.
func (m *Manager) TruncateToTokens(text string, maxTokens int) string {
	if maxTokens <= 0 {
		return ""
	}
	if text == "" {
		return text
	}

	e, err := encoding()
	if err != nil {
		return truncateByChars(text, maxTokens*fallbackCharsPerToken)
	}

	ids := e.Encode(text, nil, nil)
	if len(ids) <= maxTokens {
		return text
	}
	return e.Decode(ids[:maxTokens])
}

// truncateByChars is the fallback truncation: a prefix of at most maxChars
// bytes that never splits a UTF-8 rune.
func truncateByChars(s string, maxChars int) string {
	if len(s) <= maxChars {
		return s
	}
	for maxChars > 0 && !utf8.RuneStart(s[maxChars]) {
		maxChars--
	}
	return s[:maxChars]
}

// DimensionBudget caps, in tokens, how much context each source category may
// contribute to one dimension's prompt, and the hard total after assembly.
// One static instance exists per dimension; budgets are configuration data
// and never mutated at runtime.
type DimensionBudget struct {
	Total         int `json:"total"`
	SimilarPapers int `json:"similar_papers"`
	CitationGraph int `json:"citation_graph"`
	Enrichment    int `json:"enrichment"`
	Knowledge     int `json:"knowledge"`
	Jstor         int `json:"jstor"`
}

// dimensionBudgets allocates each dimension's context window across source
// categories. Category sub-budgets intentionally oversubscribe Total a
// little: the assembler truncates each section independently and then
// re-truncates the concatenation, so rarely-full sections can lend room to
// full ones.
var dimensionBudgets = map[scoring.Dimension]DimensionBudget{
	scoring.DimensionNovelty: {
		Total: 4000, SimilarPapers: 1800, CitationGraph: 1200, Enrichment: 0, Knowledge: 600, Jstor: 900,
	},
	scoring.DimensionIPPotential: {
		Total: 3500, SimilarPapers: 800, CitationGraph: 600, Enrichment: 1600, Knowledge: 600, Jstor: 400,
	},
	scoring.DimensionMarketability: {
		Total: 3500, SimilarPapers: 500, CitationGraph: 0, Enrichment: 2000, Knowledge: 800, Jstor: 400,
	},
	scoring.DimensionFeasibility: {
		Total: 3000, SimilarPapers: 900, CitationGraph: 800, Enrichment: 600, Knowledge: 800, Jstor: 400,
	},
	scoring.DimensionCommercialization: {
		Total: 3000, SimilarPapers: 400, CitationGraph: 0, Enrichment: 1600, Knowledge: 800, Jstor: 300,
	},
	scoring.DimensionTeamReadiness: {
		Total: 2000, SimilarPapers: 0, CitationGraph: 400, Enrichment: 600, Knowledge: 900, Jstor: 300,
	},
}

// BudgetFor returns the static budget for a dimension. Unknown dimensions
// get a conservative default rather than a panic; ParseDimension upstream
// makes that path unreachable in practice.
func BudgetFor(d scoring.Dimension) DimensionBudget {
	if b, ok := dimensionBudgets[d]; ok {
		return b
	}
	return DimensionBudget{Total: 2000, SimilarPapers: 500, CitationGraph: 500, Enrichment: 500, Knowledge: 500, Jstor: 250}
}
