package ingest

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"learnassist/internal/domain"
)

// Ingestor turns uploaded PDF bytes into a chunked Document. Only the first
// maxPages pages are chunked to keep embedding cost bounded.
type Ingestor struct {
	extractor domain.PageExtractor
	chunker   domain.Chunker
	maxPages  int
	log       *zap.Logger
}

func NewIngestor(extractor domain.PageExtractor, chunker domain.Chunker, maxPages int, log *zap.Logger) *Ingestor {
	if maxPages <= 0 {
		maxPages = 5
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Ingestor{extractor: extractor, chunker: chunker, maxPages: maxPages, log: log}
}

// Ingest extracts and chunks a PDF. Any failure is reported as ErrIngest.
func (i *Ingestor) Ingest(ctx context.Context, name string, data []byte) (domain.Document, error) {
	pages, err := i.extractor.ExtractPages(ctx, data)
	if err != nil {
		return domain.Document{}, wrapIngest(err)
	}
	total := len(pages)
	if len(pages) > i.maxPages {
		pages = pages[:i.maxPages]
	}

	doc := domain.Document{
		ID:    uuid.NewString(),
		Name:  name,
		Size:  len(data),
		Pages: pages,
	}
	chunks, err := i.chunker.Chunk(doc)
	if err != nil {
		return domain.Document{}, wrapIngest(err)
	}
	if len(chunks) == 0 {
		return domain.Document{}, fmt.Errorf("%w: no extractable text in the first %d pages", domain.ErrIngest, len(pages))
	}
	doc.Chunks = chunks

	i.log.Info("document ingested",
		zap.String("document_id", doc.ID),
		zap.String("name", name),
		zap.Int("pages_total", total),
		zap.Int("pages_used", len(pages)),
		zap.Int("chunks", len(chunks)),
	)
	return doc, nil
}

func wrapIngest(err error) error {
	if errors.Is(err, domain.ErrIngest) {
		return err
	}
	return fmt.Errorf("%w: %v", domain.ErrIngest, err)
}
