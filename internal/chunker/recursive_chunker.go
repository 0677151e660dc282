package chunker

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/tmc/langchaingo/textsplitter"

	"learnassist/internal/domain"
)

// RecursiveChunker splits each page on paragraph, line and word boundaries
// using langchaingo's recursive splitter. Overlap is best effort.
type RecursiveChunker struct {
	splitter textsplitter.RecursiveCharacter
}

func NewRecursiveChunker(size, overlap int) *RecursiveChunker {
	return &RecursiveChunker{
		splitter: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(size),
			textsplitter.WithChunkOverlap(overlap),
		),
	}
}

func (c *RecursiveChunker) Chunk(document domain.Document) ([]domain.Chunk, error) {
	j := joinPages(document.Pages)
	var chunks []domain.Chunk
	prevEnd := -1
	for i, p := range document.Pages {
		text := strings.TrimSpace(p.Text)
		if text == "" {
			continue
		}
		parts, err := c.splitter.SplitText(text)
		if err != nil {
			return nil, fmt.Errorf("split page %d: %w", p.Number, err)
		}
		base := pageBase(j, p.Number, i)
		cursor := 0
		for _, part := range parts {
			off := base
			if k := strings.Index(text[cursor:], part); k >= 0 {
				off += utf8.RuneCountInString(text[:cursor+k])
				cursor += k
			}
			overlap := 0
			if prevEnd > off {
				overlap = prevEnd - off
			}
			idx := len(chunks)
			chunks = append(chunks, domain.Chunk{
				DocumentID: document.ID,
				ChunkID:    chunkID(document.ID, idx),
				Text:       part,
				Index:      idx,
				Page:       p.Number,
				Offset:     off,
				Overlap:    overlap,
			})
			prevEnd = off + utf8.RuneCountInString(part)
		}
	}
	return chunks, nil
}

func pageBase(j joined, number, fallback int) int {
	for i, n := range j.pages {
		if n == number {
			return j.starts[i]
		}
	}
	return fallback
}
