package extract

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/xxxsen/medrag/internal/model"
	appErr "github.com/xxxsen/medrag/internal/pkg/errors"
)

type textExtractor struct{}

func NewTextExtractor() Extractor {
	return &textExtractor{}
}

func (t *textExtractor) Name() string {
	return "text"
}

func (t *textExtractor) MimeTypes() []string {
	return []string{"text/plain"}
}

func (t *textExtractor) Extensions() []string {
	return []string{".txt"}
}

func (t *textExtractor) Extract(ctx context.Context, data []byte) (model.ExtractedText, error) {
	if !utf8.Valid(data) {
		return model.ExtractedText{}, fmt.Errorf("%w: text is not valid utf-8", appErr.ErrExtraction)
	}
	content := strings.TrimSpace(string(data))
	if content == "" {
		return model.ExtractedText{}, emptyText(t.Name())
	}
	return model.ExtractedText{Text: content}, nil
}
