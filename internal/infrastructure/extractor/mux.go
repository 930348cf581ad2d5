package extractor

import (
	"context"
	"strings"

	"github.com/akuzminsky/paperrag/internal/core/domain"
	"github.com/akuzminsky/paperrag/internal/core/ports"
)

// Mux routes extraction by MIME type: PDFs go through the PDF parser,
// everything else is treated as plain text.
type Mux struct {
	pdf   ports.TextExtractor
	plain ports.TextExtractor
}

func NewMux(pdfExtractor, plainExtractor ports.TextExtractor) *Mux {
	return &Mux{pdf: pdfExtractor, plain: plainExtractor}
}

func (m *Mux) Extract(ctx context.Context, paper *domain.Paper) (string, error) {
	if strings.Contains(strings.ToLower(paper.MimeType), "pdf") {
		return m.pdf.Extract(ctx, paper)
	}
	return m.plain.Extract(ctx, paper)
}
