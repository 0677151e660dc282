package pinecone

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pinecone-io/go-pinecone/v3/pinecone"
	"google.golang.org/protobuf/types/known/structpb"

	"learnassist/internal/domain"
)

const upsertBatchSize = 50

// indexConn is the subset of *pinecone.IndexConnection the store uses.
type indexConn interface {
	UpsertVectors(ctx context.Context, in []*pinecone.Vector) (uint32, error)
	QueryByVectorValues(ctx context.Context, in *pinecone.QueryByVectorValuesRequest) (*pinecone.QueryVectorsResponse, error)
	DeleteAllVectorsInNamespace(ctx context.Context) error
}

// Storage keeps one document's vectors in a dedicated namespace of an
// existing serverless index. Clear drops the namespace.
type Storage struct {
	conn      indexConn
	namespace string
	dimension int
}

type Config struct {
	APIKey    string
	Index     string
	Namespace string
}

// NewStorage resolves the index host and opens a namespaced connection.
func NewStorage(ctx context.Context, cfg Config) (*Storage, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("pinecone API key is empty")
	}
	pc, err := pinecone.NewClient(pinecone.NewClientParams{ApiKey: cfg.APIKey})
	if err != nil {
		return nil, fmt.Errorf("failed to create Pinecone client: %w", err)
	}
	desc, err := pc.DescribeIndex(ctx, cfg.Index)
	if err != nil {
		return nil, fmt.Errorf("failed to describe index %s: %w", cfg.Index, err)
	}
	conn, err := pc.Index(pinecone.NewIndexConnParams{Host: desc.Host, Namespace: cfg.Namespace})
	if err != nil {
		return nil, fmt.Errorf("failed to create index connection: %w", err)
	}
	return newStorage(conn, cfg.Namespace), nil
}

func newStorage(conn indexConn, namespace string) *Storage {
	return &Storage{conn: conn, namespace: namespace}
}

func (s *Storage) Init(_ context.Context, dimension int) error {
	if dimension <= 0 {
		return errors.New("invalid dimension")
	}
	s.dimension = dimension
	return nil
}

func (s *Storage) Upsert(ctx context.Context, chunks []domain.Chunk, vectors [][]float64) error {
	if len(chunks) != len(vectors) {
		return errors.New("chunks and vectors length mismatch")
	}
	batch := make([]*pinecone.Vector, 0, upsertBatchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if _, err := s.conn.UpsertVectors(ctx, batch); err != nil {
			return fmt.Errorf("failed to upsert vector batch: %w", err)
		}
		batch = batch[:0]
		return nil
	}
	for i, ch := range chunks {
		if len(vectors[i]) != s.dimension {
			return errors.New("vector dimension mismatch")
		}
		meta, err := structpb.NewStruct(map[string]any{
			"document_id": ch.DocumentID,
			"chunk_index": ch.Index,
			"page":        ch.Page,
			"offset":      ch.Offset,
			"overlap":     ch.Overlap,
			"content":     ch.Text,
		})
		if err != nil {
			return fmt.Errorf("failed to create metadata struct for chunk %s: %w", ch.ChunkID, err)
		}
		values := narrow(vectors[i])
		batch = append(batch, &pinecone.Vector{Id: ch.ChunkID, Values: &values, Metadata: meta})
		if len(batch) == upsertBatchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	return flush()
}

func (s *Storage) Search(ctx context.Context, vector []float64, topK int) ([]domain.SearchResult, error) {
	if topK <= 0 {
		topK = 5
	}
	res, err := s.conn.QueryByVectorValues(ctx, &pinecone.QueryByVectorValuesRequest{
		Vector:          narrow(vector),
		TopK:            uint32(topK),
		IncludeMetadata: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query vectors: %w", err)
	}
	results := make([]domain.SearchResult, 0, len(res.Matches))
	for _, m := range res.Matches {
		if m == nil || m.Vector == nil {
			continue
		}
		ch := domain.Chunk{ChunkID: m.Vector.Id}
		if m.Vector.Metadata != nil {
			md := m.Vector.Metadata.AsMap()
			ch.DocumentID, _ = md["document_id"].(string)
			ch.Text, _ = md["content"].(string)
			ch.Index = intField(md, "chunk_index")
			ch.Page = intField(md, "page")
			ch.Offset = intField(md, "offset")
			ch.Overlap = intField(md, "overlap")
		}
		results = append(results, domain.SearchResult{Chunk: ch, Score: float64(m.Score)})
	}
	return results, nil
}

// Clear deletes every vector in the namespace. A namespace that was never
// written is not an error.
func (s *Storage) Clear(ctx context.Context) error {
	err := s.conn.DeleteAllVectorsInNamespace(ctx)
	if err != nil && strings.Contains(err.Error(), "Namespace not found") {
		return nil
	}
	return err
}

func intField(md map[string]any, key string) int {
	if v, ok := md[key].(float64); ok {
		return int(v)
	}
	return 0
}

func narrow(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(x)
	}
	return out
}
