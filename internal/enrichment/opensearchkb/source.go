// Package opensearchkb implements the tenant knowledge-base enrichment
// source on top of an OpenSearch index of organization documents.
package opensearchkb

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"

	"github.com/opensearch-project/opensearch-go/v2"
	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"

	"github.com/scholarvest/paperscore/internal/enrichment"
	"github.com/scholarvest/paperscore/internal/infrastructure/monitoring/logging"
	apperrors "github.com/scholarvest/paperscore/pkg/errors"
	"github.com/scholarvest/paperscore/pkg/types/paper"
)

// Config holds OpenSearch connection and query settings.
type Config struct {
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
	Index     string   `mapstructure:"index"`
	MaxHits   int      `mapstructure:"max_hits"`
}

const (
	defaultIndex   = "org-knowledge"
	defaultMaxHits = 8
)

// Source is the OpenSearch-backed enrichment.KnowledgeSource. Tenant
// isolation is a hard filter on org_id; results visible to one organization
// never leak into another's context.
type Source struct {
	client  *opensearch.Client
	index   string
	maxHits int
	log     logging.Logger
}

// NewSource creates the OpenSearch client and verifies the cluster responds.
func NewSource(ctx context.Context, cfg Config, log logging.Logger) (*Source, error) {
	if log == nil {
		log = logging.NewNopLogger()
	}
	client, err := opensearch.NewClient(opensearch.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeExternalService, "failed to create opensearch client")
	}

	res, err := client.Ping(client.Ping.WithContext(ctx))
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeExternalService, "failed to reach opensearch")
	}
	res.Body.Close()

	index := cfg.Index
	if index == "" {
		index = defaultIndex
	}
	maxHits := cfg.MaxHits
	if maxHits <= 0 {
		maxHits = defaultMaxHits
	}

	log.Info("connected to opensearch", logging.String("index", index))
	return &Source{client: client, index: index, maxHits: maxHits, log: log.Named("knowledge")}, nil
}

// knowledgeDoc is the indexed document shape we read back.
type knowledgeDoc struct {
	SourceName string `json:"source_name"`
	Content    string `json:"content"`
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			Score  float64         `json:"_score"`
			Source json.RawMessage `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// Excerpts implements enrichment.KnowledgeSource: a full-text match on the
// paper's title, abstract, and keywords, filtered to the organization, and
// when userID is set additionally to documents the user may read.
func (s *Source) Excerpts(ctx context.Context, p *paper.Paper, orgID, userID string) ([]enrichment.KnowledgeExcerpt, error) {
	query := buildQuery(p, orgID, userID, s.maxHits)
	body, err := json.Marshal(query)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeSerialization, "failed to build knowledge query")
	}

	req := opensearchapi.SearchRequest{
		Index: []string{s.index},
		Body:  bytes.NewReader(body),
	}
	res, err := req.Do(ctx, s.client)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeKnowledgeError, "knowledge search failed")
	}
	defer res.Body.Close()

	if res.IsError() {
		msg, _ := io.ReadAll(io.LimitReader(res.Body, 2048))
		return nil, apperrors.New(apperrors.ErrCodeKnowledgeError,
			"knowledge search returned "+res.Status()).WithDetail(string(msg))
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeSerialization, "failed to decode knowledge response")
	}

	excerpts := make([]enrichment.KnowledgeExcerpt, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		var doc knowledgeDoc
		if err := json.Unmarshal(hit.Source, &doc); err != nil {
			continue
		}
		if doc.Content == "" {
			continue
		}
		excerpts = append(excerpts, enrichment.KnowledgeExcerpt{
			SourceName: doc.SourceName,
			Excerpt:    doc.Content,
			Relevance:  hit.Score,
		})
	}
	return excerpts, nil
}

func buildQuery(p *paper.Paper, orgID, userID string, size int) map[string]any {
	text := p.Title
	if p.Abstract != "" {
		text += " " + p.Abstract
	}
	if len(p.Keywords) > 0 {
		text += " " + strings.Join(p.Keywords, " ")
	}

	filters := []map[string]any{
		{"term": map[string]any{"org_id": orgID}},
	}
	if userID != "" {
		filters = append(filters, map[string]any{
			"bool": map[string]any{
				"should": []map[string]any{
					{"term": map[string]any{"visibility": "org"}},
					{"term": map[string]any{"owner_id": userID}},
				},
				"minimum_should_match": 1,
			},
		})
	}

	return map[string]any{
		"size": size,
		"query": map[string]any{
			"bool": map[string]any{
				"must": []map[string]any{
					{"match": map[string]any{"content": text}},
				},
				"filter": filters,
			},
		},
	}
}
