package evaluate

import (
	"github.com/scholarvest/paperscore/internal/llm"
	"github.com/scholarvest/paperscore/internal/scoring"
)

// Options tunes the shared evaluator parameters. Zero values get the
// documented defaults.
type Options struct {
	Temperature float64
	MaxTokens   int
	Pricing     Pricing
}

func (o Options) withDefaults() Options {
	if o.Temperature == 0 {
		o.Temperature = 0.2
	}
	if o.MaxTokens == 0 {
		o.MaxTokens = 1024
	}
	return o
}

// Per-dimension instruction blocks. These state what the dimension measures
// and what evidence to weigh; the structured-output contract is appended by
// the prompt builder.
const (
	noveltyInstruction = `You are an expert reviewer assessing the NOVELTY of a research paper
for commercialization screening. Judge how original the contribution is
relative to the similar papers, citation graph, and related works provided.
Reward genuinely new methods or results; penalize incremental variations of
well-cited prior work.`

	ipPotentialInstruction = `You are a technology-transfer analyst assessing the IP POTENTIAL of a
research paper. Judge patentability and defensibility: proximity to existing
patents in the landscape provided, clarity of the inventive step, and whether
the contribution is the kind that patent offices grant claims on.`

	marketabilityInstruction = `You are a market analyst assessing the MARKETABILITY of a research
paper's technology. Judge the size and accessibility of the addressable
market using the market signals and patent landscape provided, and whether a
product built on this work would meet demonstrated demand.`

	feasibilityInstruction = `You are an engineering due-diligence reviewer assessing the technical
FEASIBILITY of productizing a research paper. Judge maturity of the method,
dependence on exotic data or hardware, and the engineering distance from
prototype to deployable system, grounded in the references provided.`

	commercializationInstruction = `You are a venture analyst assessing the COMMERCIALIZATION path of a
research paper. Judge time-to-market, capital intensity, regulatory burden,
and the plausibility of a viable business model, using the market and patent
context provided.`

	teamReadinessInstruction = `You are an investor assessing the TEAM READINESS signalled by a research
paper. Judge the authors' demonstrated execution capability: breadth of the
collaboration, institutional support, track record visible in the citation
and knowledge context provided, and signs of applied (not purely academic)
orientation.`
)

var instructions = map[scoring.Dimension]string{
	scoring.DimensionNovelty:           noveltyInstruction,
	scoring.DimensionIPPotential:       ipPotentialInstruction,
	scoring.DimensionMarketability:     marketabilityInstruction,
	scoring.DimensionFeasibility:       feasibilityInstruction,
	scoring.DimensionCommercialization: commercializationInstruction,
	scoring.DimensionTeamReadiness:     teamReadinessInstruction,
}

// New constructs the evaluator for one dimension.
func New(dim scoring.Dimension, completer llm.StructuredCompleter, opts Options) Evaluator {
	opts = opts.withDefaults()
	return &llmEvaluator{
		dim:         dim,
		completer:   completer,
		instruction: instructions[dim],
		temperature: opts.Temperature,
		maxTokens:   opts.MaxTokens,
		pricing:     opts.Pricing,
	}
}

// NewAll constructs one evaluator per dimension, keyed by dimension.
func NewAll(completer llm.StructuredCompleter, opts Options) map[scoring.Dimension]Evaluator {
	out := make(map[scoring.Dimension]Evaluator, scoring.NumDimensions)
	for _, d := range scoring.AllDimensions() {
		out[d] = New(d, completer, opts)
	}
	return out
}
