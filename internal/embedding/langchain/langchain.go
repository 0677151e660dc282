package langchain

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"

	"learnassist/internal/domain"
)

// Config configures the langchaingo-backed OpenAI embedder.
type Config struct {
	BaseURL   string
	APIKeyEnv string
	Model     string
	Timeout   time.Duration
}

// Embedder adapts a langchaingo embeddings.Embedder to domain.Embedder.
// Prepare embeds the whole corpus in batched requests; Embed serves those
// vectors from memory and embeds anything else as a query.
type Embedder struct {
	inner     embeddings.Embedder
	timeout   time.Duration
	prepared  map[string][]float64
	dimension int
}

// New builds an embedder over langchaingo's OpenAI client.
func New(cfg Config) (*Embedder, error) {
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("missing API key in env %s", cfg.APIKeyEnv)
	}
	opts := []openai.Option{openai.WithToken(key)}
	if cfg.Model != "" {
		opts = append(opts, openai.WithEmbeddingModel(cfg.Model))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}
	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("create openai client: %w", err)
	}
	return NewFromClient(llm, cfg.Timeout)
}

// NewFromClient wraps any langchaingo embedder client.
func NewFromClient(client embeddings.EmbedderClient, timeout time.Duration) (*Embedder, error) {
	inner, err := embeddings.NewEmbedder(client)
	if err != nil {
		return nil, fmt.Errorf("create embedder: %w", err)
	}
	return &Embedder{inner: inner, timeout: timeout, prepared: map[string][]float64{}}, nil
}

func (e *Embedder) Name() string { return "langchain" }

func (e *Embedder) Dimension() int { return e.dimension }

func (e *Embedder) Prepare(corpus []string) error {
	ctx, cancel := e.context(context.Background())
	defer cancel()
	vecs, err := e.inner.EmbedDocuments(ctx, corpus)
	if err != nil {
		return domain.EmbeddingFailure(err)
	}
	if len(vecs) != len(corpus) {
		return domain.EmbeddingFailure(fmt.Errorf("got %d embeddings for %d texts", len(vecs), len(corpus)))
	}
	e.prepared = make(map[string][]float64, len(corpus))
	for i, text := range corpus {
		e.prepared[text] = widen(vecs[i])
	}
	if len(vecs) > 0 {
		e.dimension = len(vecs[0])
	}
	return nil
}

func (e *Embedder) Embed(ctx context.Context, text string) ([]float64, error) {
	if v, ok := e.prepared[text]; ok {
		return v, nil
	}
	ctx, cancel := e.context(ctx)
	defer cancel()
	v, err := e.inner.EmbedQuery(ctx, text)
	if err != nil {
		return nil, domain.EmbeddingFailure(err)
	}
	if len(v) == 0 {
		return nil, domain.EmbeddingFailure(errors.New("empty embedding"))
	}
	if e.dimension == 0 {
		e.dimension = len(v)
	}
	return widen(v), nil
}

func (e *Embedder) context(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.timeout > 0 {
		return context.WithTimeout(ctx, e.timeout)
	}
	return context.WithCancel(ctx)
}

func widen(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}
