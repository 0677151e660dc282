package summarizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarizeKeepsOriginalOrder(t *testing.T) {
	text := "Plants make food by photosynthesis. The weather was nice. " +
		"Photosynthesis in plants needs light and water. Lunch is at noon."

	got, err := NewFrequencySummarizer().Summarize(text, 2)
	require.NoError(t, err)
	assert.Equal(t, "Plants make food by photosynthesis. Photosynthesis in plants needs light and water.", got)
}

func TestSummarizeShortInputs(t *testing.T) {
	s := NewFrequencySummarizer()

	got, err := s.Summarize("", 3)
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = s.Summarize("no terminator\nacross lines", 3)
	require.NoError(t, err)
	assert.Equal(t, "no terminator across lines", got)

	got, err = s.Summarize("One. Two.", 0)
	require.NoError(t, err)
	assert.Equal(t, "One. Two.", got)
}
