// Package retrieval turns the semantic index into the three recommendation
// modes: free-text search, topic search and platform-filtered search.
package retrieval

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"learnrag/internal/domain"
)

// platformOverfetch is how many candidates per requested result the
// platform mode pulls before filtering.
const platformOverfetch = 2

// Searcher is the part of the vector index the engine needs.
type Searcher interface {
	Query(ctx context.Context, text string, k int) ([]domain.SearchResult, error)
}

// Engine answers recommendation queries over a Searcher.
type Engine struct {
	index  Searcher
	logger *zap.Logger
}

func NewEngine(index Searcher, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{index: index, logger: logger}
}

// SearchResources returns the topK records most similar to query, verbatim.
func (e *Engine) SearchResources(ctx context.Context, query string, topK int) ([]domain.Resource, error) {
	hits, err := e.index.Query(ctx, query, topK)
	if err != nil {
		return nil, fmt.Errorf("search resources: %w", err)
	}
	out := make([]domain.Resource, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.Resource)
	}
	e.logger.Debug("search", zap.String("query", query), zap.Int("results", len(out)))
	return out, nil
}

// SearchByTopic returns up to topK records for topic with unique urls.
// The first (highest ranked) occurrence of each url wins.
func (e *Engine) SearchByTopic(ctx context.Context, topic string, topK int) ([]domain.Resource, error) {
	hits, err := e.index.Query(ctx, "Topic: "+topic, topK)
	if err != nil {
		return nil, fmt.Errorf("search by topic: %w", err)
	}
	seen := make(map[string]struct{}, len(hits))
	out := make([]domain.Resource, 0, len(hits))
	for _, h := range hits {
		if len(out) == topK {
			break
		}
		if _, dup := seen[h.Resource.URL]; dup {
			continue
		}
		seen[h.Resource.URL] = struct{}{}
		r := h.Resource
		r.SourceRepo = ""
		out = append(out, r)
	}
	e.logger.Debug("topic search", zap.String("topic", topic), zap.Int("results", len(out)))
	return out, nil
}

// SearchByPlatform returns up to topK records hosted on platform, optionally
// narrowed by query. Candidates come from a single over-fetched query, so
// fewer than topK results may come back even when more matching records
// exist further down the ranking.
func (e *Engine) SearchByPlatform(ctx context.Context, platform, query string, topK int) ([]domain.Resource, error) {
	if topK <= 0 {
		return nil, fmt.Errorf("search by platform: %w", domain.ErrInvalidK)
	}
	text := "Platform: " + platform
	if query != "" {
		text = query + " " + text
	}
	hits, err := e.index.Query(ctx, text, topK*platformOverfetch)
	if err != nil {
		return nil, fmt.Errorf("search by platform: %w", err)
	}
	out := make([]domain.Resource, 0, topK)
	for _, h := range hits {
		if len(out) == topK {
			break
		}
		if !strings.EqualFold(string(h.Resource.Platform), platform) {
			continue
		}
		r := h.Resource
		r.Subtopic = ""
		r.SourceRepo = ""
		out = append(out, r)
	}
	e.logger.Debug("platform search",
		zap.String("platform", platform),
		zap.String("query", query),
		zap.Int("candidates", len(hits)),
		zap.Int("results", len(out)))
	return out, nil
}
