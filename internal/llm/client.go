// Package llm defines the model-call collaborator boundary used by the
// dimension evaluators, plus an OpenAI-compatible HTTP implementation. The
// scoring core only depends on the StructuredCompleter interface; provider
// routing, retries, and rate limiting live behind it.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/scholarvest/paperscore/internal/infrastructure/monitoring/logging"
	"github.com/scholarvest/paperscore/pkg/errors"
)

// Request carries one structured-completion call.
type Request struct {
	System      string
	Prompt      string
	Temperature float64
	MaxTokens   int
}

// Reply is the provider-neutral result of a structured completion. Content
// is the raw JSON object the model produced; callers validate its shape.
type Reply struct {
	Content          json.RawMessage
	Model            string
	PromptTokens     int
	CompletionTokens int
}

// StructuredCompleter is the model-call collaborator contract. Failures
// surface as typed *errors.AppError values with an LLM_* code; evaluators
// map them into scoring failures.
type StructuredCompleter interface {
	CompleteStructured(ctx context.Context, req Request) (*Reply, error)

	// ModelVersion identifies the model configuration behind this completer,
	// stamped onto aggregated scores and cache entries.
	ModelVersion() string
}

// ClientConfig holds the parameters for the HTTP completer.
type ClientConfig struct {
	BaseURL     string        `mapstructure:"base_url"`
	APIKey      string        `mapstructure:"api_key"`
	Model       string        `mapstructure:"model"`
	Timeout     time.Duration `mapstructure:"timeout"`
	Temperature float64       `mapstructure:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	// CostPer1KPromptUSD and CostPer1KCompletionUSD feed usage accounting.
	CostPer1KPromptUSD     float64 `mapstructure:"cost_per_1k_prompt_usd"`
	CostPer1KCompletionUSD float64 `mapstructure:"cost_per_1k_completion_usd"`
}

// Client speaks the OpenAI chat-completions wire format in JSON mode against
// any compatible endpoint.
type Client struct {
	cfg  ClientConfig
	http *http.Client
	log  logging.Logger
}

// NewClient constructs a Client. A nil logger falls back to the no-op
// logger; a zero timeout defaults to 60s.
func NewClient(cfg ClientConfig, log logging.Logger) *Client {
	if log == nil {
		log = logging.NewNopLogger()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
		log:  log.Named("llm"),
	}
}

// ModelVersion implements StructuredCompleter.
func (c *Client) ModelVersion() string { return c.cfg.Model }

// Config exposes the client configuration for usage-cost computation.
func (c *Client) Config() ClientConfig { return c.cfg }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	Temperature    float64       `json:"temperature"`
	MaxTokens      int           `json:"max_tokens,omitempty"`
	ResponseFormat struct {
		Type string `json:"type"`
	} `json:"response_format"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// CompleteStructured implements StructuredCompleter against an
// OpenAI-compatible endpoint in JSON mode.
func (c *Client) CompleteStructured(ctx context.Context, req Request) (*Reply, error) {
	body := chatRequest{
		Model:       c.cfg.Model,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}
	body.ResponseFormat.Type = "json_object"
	if req.System != "" {
		body.Messages = append(body.Messages, chatMessage{Role: "system", Content: req.System})
	}
	body.Messages = append(body.Messages, chatMessage{Role: "user", Content: req.Prompt})

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "marshal completion request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.cfg.BaseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeLLMError, "build completion request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeLLMUnavailable, "completion call failed")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeLLMError, "read completion response")
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, errors.New(errors.ErrCodeLLMRateLimited, "completion endpoint rate limited")
	case resp.StatusCode >= 500:
		return nil, errors.Newf(errors.ErrCodeLLMUnavailable, "completion endpoint returned %d", resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, errors.Newf(errors.ErrCodeLLMError, "completion endpoint returned %d: %s",
			resp.StatusCode, truncateForLog(raw))
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeLLMBadResponse, "decode completion response")
	}
	if parsed.Error != nil {
		return nil, errors.Newf(errors.ErrCodeLLMError, "completion error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return nil, errors.New(errors.ErrCodeLLMBadResponse, "completion returned no choices")
	}

	content := parsed.Choices[0].Message.Content
	if !json.Valid([]byte(content)) {
		return nil, errors.New(errors.ErrCodeLLMBadResponse, "completion content is not valid JSON")
	}

	c.log.Debug("structured completion",
		logging.String("model", parsed.Model),
		logging.Int("prompt_tokens", parsed.Usage.PromptTokens),
		logging.Int("completion_tokens", parsed.Usage.CompletionTokens),
		logging.Duration("elapsed", time.Since(start)))

	model := parsed.Model
	if model == "" {
		model = c.cfg.Model
	}
	return &Reply{
		Content:          json.RawMessage(content),
		Model:            model,
		PromptTokens:     parsed.Usage.PromptTokens,
		CompletionTokens: parsed.Usage.CompletionTokens,
	}, nil
}

func truncateForLog(b []byte) string {
	const max = 256
	if len(b) <= max {
		return string(b)
	}
	return fmt.Sprintf("%s... (%d bytes)", b[:max], len(b))
}
