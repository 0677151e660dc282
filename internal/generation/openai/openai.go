package openai

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"learnassist/internal/domain"
)

// Config configures the chat-completions generator.
type Config struct {
	Model     string
	APIKeyEnv string
	BaseURL   string
	MaxTokens int
	Timeout   time.Duration
}

// Generator produces completions through langchaingo's OpenAI model.
type Generator struct {
	llm       llms.Model
	maxTokens int
	timeout   time.Duration
}

func New(cfg Config) (*Generator, error) {
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("missing API key in env %s", cfg.APIKeyEnv)
	}
	opts := []openai.Option{openai.WithModel(cfg.Model), openai.WithToken(key)}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}
	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OpenAI client: %w", err)
	}
	return NewFromModel(llm, cfg.MaxTokens, cfg.Timeout), nil
}

// NewFromModel wraps any langchaingo model.
func NewFromModel(llm llms.Model, maxTokens int, timeout time.Duration) *Generator {
	return &Generator{llm: llm, maxTokens: maxTokens, timeout: timeout}
}

func (g *Generator) Generate(ctx context.Context, prompt string, temperature float64) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}
	opts := []llms.CallOption{llms.WithTemperature(temperature)}
	if g.maxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(g.maxTokens))
	}
	completion, err := llms.GenerateFromSinglePrompt(ctx, g.llm, prompt, opts...)
	if err != nil {
		return "", domain.GenerationFailure(err)
	}
	return strings.TrimSpace(completion), nil
}
