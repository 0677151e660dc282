package chunker

import (
	"learnassist/internal/domain"
)

// CharacterChunker slides a fixed-size rune window over the joined page text.
// Every chunk holds at most size runes and shares exactly overlap runes with
// its predecessor; only the final chunk may be shorter.
type CharacterChunker struct {
	size    int
	overlap int
}

func NewCharacterChunker(size, overlap int) *CharacterChunker {
	if size <= 0 {
		size = 1000
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}
	return &CharacterChunker{size: size, overlap: overlap}
}

func (c *CharacterChunker) Chunk(document domain.Document) ([]domain.Chunk, error) {
	j := joinPages(document.Pages)
	total := len(j.runes)
	if total == 0 {
		return nil, nil
	}

	step := c.size - c.overlap
	var chunks []domain.Chunk
	prevEnd := 0
	for start, idx := 0, 0; start < total; start, idx = start+step, idx+1 {
		end := start + c.size
		if end > total {
			end = total
		}
		overlap := 0
		if idx > 0 {
			overlap = prevEnd - start
		}
		chunks = append(chunks, domain.Chunk{
			DocumentID: document.ID,
			ChunkID:    chunkID(document.ID, idx),
			Text:       string(j.runes[start:end]),
			Index:      idx,
			Page:       j.pageAt(start),
			Offset:     start,
			Overlap:    overlap,
		})
		if end == total {
			break
		}
		prevEnd = end
	}
	return chunks, nil
}
