package domain

import "context"

// Page is the extracted text of a single PDF page.
type Page struct {
	Number int
	Text   string
}

// Document represents an uploaded PDF after extraction and chunking.
type Document struct {
	ID     string
	Name   string
	Size   int
	Pages  []Page
	Chunks []Chunk
}

// Chunk is a bounded span of document text used as the unit of retrieval.
type Chunk struct {
	DocumentID string
	ChunkID    string
	Text       string
	Index      int
	Page       int
	Offset     int
	Overlap    int
}

// SearchResult represents a matching chunk with a relevance score.
type SearchResult struct {
	Chunk Chunk
	Score float64
}

// Message is one entry of the doubt-mode chat history.
type Message struct {
	Role    string
	Content string
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Answer is the outcome of a retrieval-augmented query. Context holds the
// retrieved passages so callers can reuse them as a grounding excerpt.
type Answer struct {
	Text    string
	Context string
	Sources []SearchResult
}

// PageExtractor turns raw PDF bytes into ordered page texts.
type PageExtractor interface {
	ExtractPages(ctx context.Context, data []byte) ([]Page, error)
}

// Embedder converts free text into a numeric vector representation.
// Implementations may require a preparation phase over the corpus.
type Embedder interface {
	Name() string
	Prepare(corpus []string) error
	Dimension() int
	Embed(ctx context.Context, text string) ([]float64, error)
}

// Chunker splits documents into chunks suitable for retrieval indexing.
type Chunker interface {
	Chunk(document Document) ([]Chunk, error)
}

// VectorStore persists vectors and supports similarity search.
type VectorStore interface {
	Init(ctx context.Context, dimension int) error
	Upsert(ctx context.Context, chunks []Chunk, vectors [][]float64) error
	Search(ctx context.Context, vector []float64, topK int) ([]SearchResult, error)
	Clear(ctx context.Context) error
}

// Generator produces text for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string, temperature float64) (string, error)
}

// Answerer answers free-text queries against an indexed document.
type Answerer interface {
	Answer(ctx context.Context, query string) (Answer, error)
	Close(ctx context.Context) error
}
