package domain

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmbeddingFailure(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantLimited bool
	}{
		{name: "transport error", err: errors.New("dial tcp: connection refused"), wantLimited: false},
		{name: "status 429", err: errors.New("API returned unexpected status code: 429"), wantLimited: true},
		{name: "quota text", err: errors.New("You exceeded your current quota"), wantLimited: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := EmbeddingFailure(tt.err)
			assert.ErrorIs(t, err, ErrEmbedding)
			assert.ErrorIs(t, err, tt.err)
			assert.Equal(t, tt.wantLimited, errors.Is(err, ErrRateLimited))
			assert.NotErrorIs(t, err, ErrProvider)
		})
	}
}

func TestClassifyKeepsExistingProviderError(t *testing.T) {
	inner := StatusFailure(ErrEmbedding, http.StatusTooManyRequests, "slow down")
	wrapped := fmt.Errorf("embed chunk 3: %w", inner)

	err := GenerationFailure(wrapped)
	assert.ErrorIs(t, err, ErrEmbedding)
	assert.ErrorIs(t, err, ErrRateLimited)
	assert.NotErrorIs(t, err, ErrProvider)
}

func TestStatusFailure(t *testing.T) {
	err := StatusFailure(ErrProvider, http.StatusInternalServerError, "boom")
	assert.ErrorIs(t, err, ErrProvider)
	assert.NotErrorIs(t, err, ErrRateLimited)
	assert.Contains(t, err.Error(), "status 500")
	assert.Nil(t, GenerationFailure(nil))
}
