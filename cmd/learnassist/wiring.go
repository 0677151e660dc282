package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"learnassist/internal/chunker"
	"learnassist/internal/config"
	"learnassist/internal/domain"
	"learnassist/internal/embedding/langchain"
	"learnassist/internal/embedding/openai"
	"learnassist/internal/embedding/tfidf"
	anthropicgen "learnassist/internal/generation/anthropic"
	openaigen "learnassist/internal/generation/openai"
	"learnassist/internal/service"
	"learnassist/internal/vectorstore/memory"
	"learnassist/internal/vectorstore/pinecone"
	"learnassist/internal/vectorstore/qdrant"
)

func seconds(n int) time.Duration { return time.Duration(n) * time.Second }

func newEmbedder(cfg config.EmbedderConfig) (domain.Embedder, error) {
	switch cfg.Type {
	case "tfidf":
		return tfidf.NewEmbedder(), nil
	case "openai":
		o := cfg.OpenAI
		return openai.NewClient(openai.Config{
			BaseURL:    o.BaseURL,
			APIKeyEnv:  o.APIKeyEnv,
			Model:      o.Model,
			Timeout:    seconds(o.TimeoutSecs),
			MaxRetries: o.MaxRetries,
		})
	case "langchain":
		o := cfg.OpenAI
		return langchain.New(langchain.Config{
			BaseURL:   o.BaseURL,
			APIKeyEnv: o.APIKeyEnv,
			Model:     o.Model,
			Timeout:   seconds(o.TimeoutSecs),
		})
	default:
		return nil, fmt.Errorf("unknown embedder: %s", cfg.Type)
	}
}

func newChunker(cfg config.ChunkerConfig) (domain.Chunker, error) {
	switch cfg.Type {
	case "character":
		return chunker.NewCharacterChunker(cfg.ChunkSize, cfg.ChunkOverlap), nil
	case "recursive":
		return chunker.NewRecursiveChunker(cfg.ChunkSize, cfg.ChunkOverlap), nil
	default:
		return nil, fmt.Errorf("unknown chunker: %s", cfg.Type)
	}
}

// newStoreFactory returns a factory opening one store per uploaded document.
// Remote stores isolate documents by collection or namespace.
func newStoreFactory(cfg config.VectorStoreConfig) (service.StoreFactory, error) {
	switch cfg.Type {
	case "memory":
		return func(context.Context, string) (domain.VectorStore, error) {
			return memory.NewStorage(), nil
		}, nil
	case "qdrant":
		q := *cfg.Qdrant
		return func(_ context.Context, namespace string) (domain.VectorStore, error) {
			return qdrant.NewStorage(qdrant.Config{
				URL:        q.URL,
				APIKey:     q.APIKey,
				Collection: q.Collection + "-" + namespace,
				Timeout:    seconds(q.TimeoutSecs),
			}), nil
		}, nil
	case "pinecone":
		p := *cfg.Pinecone
		key := os.Getenv(p.APIKeyEnv)
		if key == "" {
			return nil, fmt.Errorf("missing API key in env %s", p.APIKeyEnv)
		}
		return func(ctx context.Context, namespace string) (domain.VectorStore, error) {
			return pinecone.NewStorage(ctx, pinecone.Config{APIKey: key, Index: p.Index, Namespace: namespace})
		}, nil
	default:
		return nil, fmt.Errorf("unknown vector store: %s", cfg.Type)
	}
}

func newGenerator(cfg config.GeneratorConfig) (domain.Generator, error) {
	switch cfg.Type {
	case "openai":
		return openaigen.New(openaigen.Config{
			Model:     cfg.Model,
			APIKeyEnv: cfg.APIKeyEnv,
			BaseURL:   cfg.BaseURL,
			MaxTokens: cfg.MaxTokens,
			Timeout:   seconds(cfg.TimeoutSecs),
		})
	case "anthropic":
		return anthropicgen.New(anthropicgen.Config{
			Model:     cfg.Model,
			APIKeyEnv: cfg.APIKeyEnv,
			BaseURL:   cfg.BaseURL,
			MaxTokens: cfg.MaxTokens,
			Timeout:   seconds(cfg.TimeoutSecs),
		})
	default:
		return nil, fmt.Errorf("unknown generator: %s", cfg.Type)
	}
}
