package ingest

import (
	"bytes"
	"context"
	"fmt"
	"sort"

	"github.com/tmc/langchaingo/documentloaders"

	"learnassist/internal/domain"
)

// PDFExtractor reads page texts with langchaingo's PDF loader.
type PDFExtractor struct{}

func NewPDFExtractor() *PDFExtractor { return &PDFExtractor{} }

// ExtractPages returns the text of every page in document order.
// The underlying parser panics on some malformed input; that is reported as ErrIngest.
func (e *PDFExtractor) ExtractPages(ctx context.Context, data []byte) (pages []domain.Page, err error) {
	if !bytes.HasPrefix(bytes.TrimLeft(data, "\x00\t\r\n "), []byte("%PDF")) {
		return nil, fmt.Errorf("%w: not a PDF file", domain.ErrIngest)
	}
	defer func() {
		if r := recover(); r != nil {
			pages, err = nil, fmt.Errorf("%w: corrupt PDF: %v", domain.ErrIngest, r)
		}
	}()

	loader := documentloaders.NewPDF(bytes.NewReader(data), int64(len(data)))
	docs, err := loader.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrIngest, err)
	}
	pages = make([]domain.Page, 0, len(docs))
	for i, d := range docs {
		num := i + 1
		if n, ok := d.Metadata["page"].(int); ok {
			num = n
		}
		pages = append(pages, domain.Page{Number: num, Text: d.PageContent})
	}
	sort.SliceStable(pages, func(a, b int) bool { return pages[a].Number < pages[b].Number })
	return pages, nil
}
