package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"learnassist/internal/domain"
	"learnassist/internal/textutil"
)

// StoreFactory opens a fresh vector store for one document. The namespace
// is unique per upload so stores never share points across sessions.
type StoreFactory func(ctx context.Context, namespace string) (domain.VectorStore, error)

// Options tunes retrieval and answering.
type Options struct {
	TopK        int
	Temperature float64
}

// RAGService builds retrieval indexes over uploaded documents.
type RAGService struct {
	embedder  domain.Embedder
	newStore  StoreFactory
	generator domain.Generator
	opts      Options
	log       *zap.Logger
}

func NewRAGService(embedder domain.Embedder, newStore StoreFactory, generator domain.Generator, opts Options, log *zap.Logger) *RAGService {
	if opts.TopK <= 0 {
		opts.TopK = 4
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &RAGService{embedder: embedder, newStore: newStore, generator: generator, opts: opts, log: log}
}

// Build embeds every chunk of doc and loads the vectors into a new store.
// On failure nothing is returned and the partially written store is cleared.
func (s *RAGService) Build(ctx context.Context, doc domain.Document) (*Index, error) {
	if len(doc.Chunks) == 0 {
		return nil, fmt.Errorf("%w: document has no chunks", domain.ErrIngest)
	}
	texts := make([]string, len(doc.Chunks))
	for i, ch := range doc.Chunks {
		texts[i] = ch.Text
	}
	if err := s.embedder.Prepare(texts); err != nil {
		return nil, domain.EmbeddingFailure(err)
	}

	vectors := make([][]float64, len(doc.Chunks))
	for i := range doc.Chunks {
		vec, err := s.embedder.Embed(ctx, doc.Chunks[i].Text)
		if err != nil {
			s.log.Warn("embedding failed", zap.String("document", doc.ID), zap.Int("chunk", i), zap.Error(err))
			return nil, domain.EmbeddingFailure(err)
		}
		vectors[i] = vec
	}
	dim := s.embedder.Dimension()
	if dim == 0 {
		dim = len(vectors[0])
	}

	store, err := s.newStore(ctx, doc.ID)
	if err != nil {
		return nil, fmt.Errorf("open vector store: %w", err)
	}
	if err := s.load(ctx, store, dim, doc.Chunks, vectors); err != nil {
		if cerr := store.Clear(ctx); cerr != nil {
			s.log.Warn("clear after failed build", zap.Error(cerr))
		}
		return nil, err
	}

	s.log.Info("index built",
		zap.String("document", doc.ID),
		zap.String("embedder", s.embedder.Name()),
		zap.Int("chunks", len(doc.Chunks)),
		zap.Int("dimension", dim),
	)
	return &Index{
		embedder:    s.embedder,
		store:       store,
		generator:   s.generator,
		chunks:      doc.Chunks,
		topK:        s.opts.TopK,
		temperature: s.opts.Temperature,
		queries:     cache.New(30*time.Minute, 10*time.Minute),
		log:         s.log,
	}, nil
}

func (s *RAGService) load(ctx context.Context, store domain.VectorStore, dim int, chunks []domain.Chunk, vectors [][]float64) error {
	if err := store.Clear(ctx); err != nil {
		return fmt.Errorf("clear vector store: %w", err)
	}
	if err := store.Init(ctx, dim); err != nil {
		return fmt.Errorf("init vector store: %w", err)
	}
	if err := store.Upsert(ctx, chunks, vectors); err != nil {
		return fmt.Errorf("upsert vectors: %w", err)
	}
	return nil
}

// Index answers queries against one indexed document. It is never mutated
// after Build apart from its query-embedding cache.
type Index struct {
	embedder    domain.Embedder
	store       domain.VectorStore
	generator   domain.Generator
	chunks      []domain.Chunk
	topK        int
	temperature float64
	queries     *cache.Cache
	log         *zap.Logger
}

// Answer retrieves the passages closest to query and asks the generator to
// answer from them. The passages are returned as Answer.Context.
func (ix *Index) Answer(ctx context.Context, query string) (domain.Answer, error) {
	results, err := ix.Query(ctx, query)
	if err != nil {
		return domain.Answer{}, err
	}
	passages := joinPassages(results)
	prompt, err := answerPrompt(passages, query)
	if err != nil {
		return domain.Answer{}, err
	}
	text, err := ix.generator.Generate(ctx, prompt, ix.temperature)
	if err != nil {
		return domain.Answer{}, err
	}
	return domain.Answer{Text: text, Context: passages, Sources: results}, nil
}

// Query returns the top-k chunks for query. Queries without usable vector
// signal fall back to lexical ranking over the chunk texts.
func (ix *Index) Query(ctx context.Context, query string) ([]domain.SearchResult, error) {
	vec, err := ix.embedQuery(ctx, query)
	if err != nil {
		return nil, err
	}
	if isZero(vec) {
		return ix.lexicalSearch(query), nil
	}
	res, err := ix.store.Search(ctx, vec, ix.topK)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	allZero := true
	for _, r := range res {
		if r.Score > 1e-9 {
			allZero = false
			break
		}
	}
	if allZero {
		ix.log.Debug("vector search returned no signal, using lexical ranking", zap.String("query", query))
		return ix.lexicalSearch(query), nil
	}
	return res, nil
}

// Close discards the stored vectors.
func (ix *Index) Close(ctx context.Context) error {
	ix.queries.Flush()
	if err := ix.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear vector store: %w", err)
	}
	return nil
}

func (ix *Index) embedQuery(ctx context.Context, query string) ([]float64, error) {
	if v, ok := ix.queries.Get(query); ok {
		return v.([]float64), nil
	}
	vec, err := ix.embedder.Embed(ctx, query)
	if err != nil {
		return nil, domain.EmbeddingFailure(err)
	}
	ix.queries.Set(query, vec, cache.DefaultExpiration)
	return vec, nil
}

func (ix *Index) lexicalSearch(query string) []domain.SearchResult {
	qset := textutil.TokenSet(query)
	type pair struct {
		idx   int
		score float64
	}
	scores := make([]pair, len(ix.chunks))
	for i, ch := range ix.chunks {
		scores[i] = pair{i, textutil.Ochiai(qset, ch.Text)}
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].score > scores[j].score })
	topK := min(ix.topK, len(scores))
	out := make([]domain.SearchResult, 0, topK)
	for i := 0; i < topK; i++ {
		p := scores[i]
		out = append(out, domain.SearchResult{Chunk: ix.chunks[p.idx], Score: p.score})
	}
	return out
}

func joinPassages(results []domain.SearchResult) string {
	parts := make([]string, 0, len(results))
	for _, r := range results {
		if t := strings.TrimSpace(r.Chunk.Text); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, "\n\n")
}

func isZero(vec []float64) bool {
	for _, v := range vec {
		if v != 0 {
			return false
		}
	}
	return true
}

// Index builds an index for doc and returns it as a domain.Answerer.
func (s *RAGService) Index(ctx context.Context, doc domain.Document) (domain.Answerer, error) {
	ix, err := s.Build(ctx, doc)
	if err != nil {
		return nil, err
	}
	return ix, nil
}
