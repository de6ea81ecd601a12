package extract

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/xxxsen/medrag/internal/model"
	appErr "github.com/xxxsen/medrag/internal/pkg/errors"
)

type pdfExtractor struct{}

func NewPDFExtractor() Extractor {
	return &pdfExtractor{}
}

func (p *pdfExtractor) Name() string {
	return "pdf"
}

func (p *pdfExtractor) MimeTypes() []string {
	return []string{"application/pdf"}
}

func (p *pdfExtractor) Extensions() []string {
	return []string{".pdf"}
}

// Extract reads the text page by page so chunks can be traced back to their
// page. Pages that fail to decode are skipped; a document with no text at
// all is an error.
func (p *pdfExtractor) Extract(ctx context.Context, data []byte) (out model.ExtractedText, err error) {
	if len(data) == 0 {
		return model.ExtractedText{}, emptyText(p.Name())
	}
	defer func() {
		// the pdf package panics on some malformed cross-reference tables
		if r := recover(); r != nil {
			out = model.ExtractedText{}
			err = fmt.Errorf("%w: malformed pdf: %v", appErr.ErrExtraction, r)
		}
	}()
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return model.ExtractedText{}, fmt.Errorf("%w: %w", appErr.ErrExtraction, err)
	}
	pages := make([]model.PageText, 0, reader.NumPage())
	texts := make([]string, 0, reader.NumPage())
	for i := 1; i <= reader.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return model.ExtractedText{}, err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		pages = append(pages, model.PageText{Number: i, Text: text})
		texts = append(texts, text)
	}
	joined := strings.TrimSpace(strings.Join(texts, "\n"))
	if joined == "" {
		return model.ExtractedText{}, emptyText(p.Name())
	}
	return model.ExtractedText{Text: joined, Pages: pages}, nil
}
