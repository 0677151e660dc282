package openai

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"learnassist/internal/domain"
)

type fakeModel struct {
	reply   string
	err     error
	prompts []string
	opts    llms.CallOptions
}

func (f *fakeModel) GenerateContent(_ context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	for _, o := range options {
		o(&f.opts)
	}
	for _, m := range messages {
		for _, p := range m.Parts {
			if tc, ok := p.(llms.TextContent); ok {
				f.prompts = append(f.prompts, tc.Text)
			}
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: f.reply}}}, nil
}

func (f *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, f, prompt, options...)
}

func TestGenerate(t *testing.T) {
	m := &fakeModel{reply: "  1. What is chlorophyll?\n"}
	g := NewFromModel(m, 256, 0)

	out, err := g.Generate(context.Background(), "make questions", 0.3)
	require.NoError(t, err)
	assert.Equal(t, "1. What is chlorophyll?", out)
	assert.Equal(t, []string{"make questions"}, m.prompts)
	assert.InDelta(t, 0.3, m.opts.Temperature, 1e-9)
	assert.Equal(t, 256, m.opts.MaxTokens)
}

func TestGenerateClassifiesErrors(t *testing.T) {
	g := NewFromModel(&fakeModel{err: errors.New("API returned unexpected status code: 429")}, 0, 0)
	_, err := g.Generate(context.Background(), "p", 0.3)
	assert.ErrorIs(t, err, domain.ErrProvider)
	assert.ErrorIs(t, err, domain.ErrRateLimited)

	g = NewFromModel(&fakeModel{err: errors.New("connection reset")}, 0, 0)
	_, err = g.Generate(context.Background(), "p", 0.3)
	assert.ErrorIs(t, err, domain.ErrProvider)
	assert.NotErrorIs(t, err, domain.ErrRateLimited)
}
