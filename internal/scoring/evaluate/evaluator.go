// Package evaluate implements the per-dimension evaluators: each turns a
// paper plus its assembled context into a validated DimensionResult via the
// model-call collaborator. The evaluator boundary is where untrusted model
// output becomes trusted domain data: everything is schema-checked, clamped,
// or defaulted here.
package evaluate

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/scholarvest/paperscore/internal/llm"
	"github.com/scholarvest/paperscore/internal/scoring"
	"github.com/scholarvest/paperscore/pkg/types/paper"
)

// ScoringError is the single failure mode an evaluator can surface: the
// model reply could not be parsed into a result at all. Partial or malformed
// fields never cause it; those are defaulted.
type ScoringError struct {
	Dimension scoring.Dimension
	PaperID   string
	Cause     error
}

func (e *ScoringError) Error() string {
	return fmt.Sprintf("scoring %s for paper %s failed: %v", e.Dimension, e.PaperID, e.Cause)
}

func (e *ScoringError) Unwrap() error { return e.Cause }

// Usage is the token/cost sample of one successful evaluation.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	CostUSD          float64
}

// Evaluator is the polymorphic per-dimension contract. Implementations are
// safe for concurrent use; the orchestrator calls them from parallel
// goroutines.
type Evaluator interface {
	Dimension() scoring.Dimension
	Evaluate(ctx context.Context, p *paper.Paper, contextText string) (scoring.DimensionResult, Usage, error)
}

// Pricing converts token counts into an estimated cost. Zero values simply
// produce zero cost.
type Pricing struct {
	Per1KPromptUSD     float64
	Per1KCompletionUSD float64
}

func (p Pricing) cost(prompt, completion int) float64 {
	return float64(prompt)/1000*p.Per1KPromptUSD + float64(completion)/1000*p.Per1KCompletionUSD
}

// llmEvaluator is the shared implementation behind all six dimensions; only
// the dimension identity and instruction block differ.
type llmEvaluator struct {
	dim         scoring.Dimension
	completer   llm.StructuredCompleter
	instruction string
	temperature float64
	maxTokens   int
	pricing     Pricing
}

func (e *llmEvaluator) Dimension() scoring.Dimension { return e.dim }

func (e *llmEvaluator) Evaluate(ctx context.Context, p *paper.Paper, contextText string) (scoring.DimensionResult, Usage, error) {
	prompt := buildPrompt(p, contextText)

	reply, err := e.completer.CompleteStructured(ctx, llm.Request{
		System:      e.instruction,
		Prompt:      prompt,
		Temperature: e.temperature,
		MaxTokens:   e.maxTokens,
	})
	if err != nil {
		return scoring.DimensionResult{}, Usage{}, &ScoringError{Dimension: e.dim, PaperID: p.ID, Cause: err}
	}

	result, err := parseReply(e.dim, p.ID, reply.Content)
	if err != nil {
		return scoring.DimensionResult{}, Usage{}, err
	}

	usage := Usage{
		PromptTokens:     reply.PromptTokens,
		CompletionTokens: reply.CompletionTokens,
		CostUSD:          e.pricing.cost(reply.PromptTokens, reply.CompletionTokens),
	}
	return result, usage, nil
}

// parseReply validates the model's structured output. Only a reply that is
// not a JSON object fails with ScoringError; within an object, each field is
// decoded independently, so a missing or wrong-typed field is replaced by its
// neutral default instead of failing the dimension, and score and confidence
// are clamped into range before construction.
func parseReply(dim scoring.Dimension, paperID string, content json.RawMessage) (scoring.DimensionResult, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(content, &fields); err != nil {
		return scoring.DimensionResult{}, &ScoringError{Dimension: dim, PaperID: paperID, Cause: err}
	}

	score := scoring.NeutralScore
	if v, ok := numberField(fields, "score"); ok {
		score = scoring.ClampScore(v)
	}

	confidence := scoring.NeutralConfidence
	if v, ok := numberField(fields, "confidence"); ok {
		confidence = scoring.ClampConfidence(v)
	}

	reasoning := scoring.NeutralReasoning
	if raw, present := fields["reasoning"]; present {
		var s string
		if json.Unmarshal(raw, &s) == nil && s != "" {
			reasoning = s
		}
	}

	var details map[string]any
	if raw, present := fields["details"]; present {
		// A non-object details value decodes to nil and is dropped.
		_ = json.Unmarshal(raw, &details)
	}

	result, err := scoring.NewDimensionResult(dim, score, confidence, reasoning, details)
	if err != nil {
		// Clamping above makes this unreachable for range reasons; keep the
		// sentinel mapping for defence in the unknown-dimension case.
		return scoring.DimensionResult{}, &ScoringError{Dimension: dim, PaperID: paperID, Cause: err}
	}
	return result, nil
}

// numberField decodes a numeric field; false means absent or not a number.
func numberField(fields map[string]json.RawMessage, key string) (float64, bool) {
	raw, present := fields[key]
	if !present {
		return 0, false
	}
	var v float64
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, false
	}
	return v, true
}

// buildPrompt renders the paper fields and the assembled context into the
// user message. The context block is already budget-bounded by the
// assembler; nothing here may grow it.
func buildPrompt(p *paper.Paper, contextText string) string {
	prompt := fmt.Sprintf("Paper title: %s\n\nAbstract:\n%s\n", p.Title, p.Abstract)
	if len(p.Authors) > 0 {
		prompt += fmt.Sprintf("\nAuthors: %s\n", joinComma(p.Authors))
	}
	if p.Venue != "" {
		prompt += fmt.Sprintf("Venue: %s\n", p.Venue)
	}
	if contextText != "" {
		prompt += "\n--- Context ---\n" + contextText + "\n"
	}
	prompt += "\nRespond with a JSON object: {\"score\": <0-10>, \"confidence\": <0-1>, \"reasoning\": <string>, \"details\": <object>}."
	return prompt
}

func joinComma(ss []string) string {
	out := ""
	for i, s := range ss {
		if i > 0 {
			out += ", "
		}
		out += s
	}
	return out
}
