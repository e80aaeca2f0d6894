package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"learnrag/internal/config"
	"learnrag/internal/domain"
	"learnrag/internal/embedding/hashing"
	"learnrag/internal/embedding/openai"
	"learnrag/internal/source/github"
	"learnrag/internal/source/raw"
	"learnrag/internal/vectorstore"
	"learnrag/internal/vectorstore/memory"
	"learnrag/internal/vectorstore/qdrant"
	"learnrag/internal/vectorstore/sqlite"
)

func seconds(n int) time.Duration { return time.Duration(n) * time.Second }

func newEmbedder(cfg *config.AppConfig) (domain.Embedder, error) {
	switch cfg.Embedder.Type {
	case "hashing", "":
		return hashing.NewEmbedder(cfg.Embedder.Dimension), nil
	case "openai":
		o := cfg.Embedder.OpenAI
		if o == nil {
			return nil, fmt.Errorf("openai embedder config missing")
		}
		client, err := openai.NewClient(openai.Config{
			BaseURL:    o.BaseURL,
			APIKeyEnv:  o.APIKeyEnv,
			Model:      o.Model,
			Dimension:  o.Dimension,
			Timeout:    seconds(o.TimeoutSecs),
			MaxRetries: o.MaxRetries,
		})
		if err != nil {
			return nil, fmt.Errorf("openai embedder init failed: %w", err)
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown embedder: %s", cfg.Embedder.Type)
	}
}

func newFetcher(ctx context.Context, cfg *config.AppConfig) (domain.Fetcher, error) {
	f := cfg.Fetcher
	switch f.Type {
	case "raw", "":
		return raw.NewFetcher(raw.Config{
			BaseURL:        f.BaseURL,
			Branches:       f.Branches,
			Timeout:        seconds(f.TimeoutSecs),
			RequestsPerSec: f.RequestsPerSec,
		}), nil
	case "github":
		fetcher, err := github.NewFetcher(ctx, github.Config{
			Token:          os.Getenv(f.TokenEnv),
			BaseURL:        f.BaseURL,
			Branches:       f.Branches,
			Timeout:        seconds(f.TimeoutSecs),
			RequestsPerSec: f.RequestsPerSec,
		})
		if err != nil {
			return nil, err
		}
		return fetcher, nil
	default:
		return nil, fmt.Errorf("unknown fetcher: %s", f.Type)
	}
}

// openIndex assembles the embedder and the configured storage. The returned
// close func releases the storage.
func openIndex(ctx context.Context, cfg *config.AppConfig, logger *zap.Logger) (*vectorstore.Index, func() error, error) {
	emb, err := newEmbedder(cfg)
	if err != nil {
		return nil, nil, err
	}
	noop := func() error { return nil }

	var st vectorstore.Storage
	closeFn := noop
	switch cfg.VectorStore.Type {
	case "memory":
		st = memory.NewStorage()
	case "sqlite", "":
		s, err := sqlite.Open(ctx, cfg.VectorStore.Path, emb.Name())
		if err != nil {
			return nil, nil, err
		}
		info, err := s.Info(ctx)
		if err != nil {
			s.Close()
			return nil, nil, err
		}
		if info.BuildID != "" && info.Embedder != emb.Name() {
			logger.Warn("index was built with a different embedder; run update",
				zap.String("index_embedder", info.Embedder),
				zap.String("embedder", emb.Name()))
		}
		logger.Debug("opened index",
			zap.String("path", s.Path()),
			zap.String("build_id", info.BuildID),
			zap.Int("documents", info.Count))
		st, closeFn = s, s.Close
	case "qdrant":
		q := cfg.VectorStore.Qdrant
		if q == nil {
			return nil, nil, fmt.Errorf("qdrant config missing")
		}
		st = qdrant.NewStorage(qdrant.Config{
			URL:        q.URL,
			APIKey:     os.Getenv(q.APIKeyEnv),
			Collection: q.Collection,
			Timeout:    seconds(q.TimeoutSecs),
			BatchSize:  q.BatchSize,
		})
	default:
		return nil, nil, fmt.Errorf("unknown vector store: %s", cfg.VectorStore.Type)
	}
	return vectorstore.NewIndex(emb, st, logger), closeFn, nil
}
