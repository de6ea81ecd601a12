package extract

import (
	"context"
	"fmt"
	"mime"
	"path/filepath"
	"strings"
	"sync"

	"github.com/xxxsen/medrag/internal/model"
	appErr "github.com/xxxsen/medrag/internal/pkg/errors"
)

// Extractor turns raw document bytes into text. Implementations fail with
// an error wrapping ErrExtraction when no text can be recovered.
type Extractor interface {
	Name() string
	MimeTypes() []string
	Extensions() []string
	Extract(ctx context.Context, data []byte) (model.ExtractedText, error)
}

type Registry struct {
	mu     sync.RWMutex
	byMime map[string]Extractor
	byExt  map[string]Extractor
}

func NewRegistry(extractors ...Extractor) *Registry {
	r := &Registry{
		byMime: make(map[string]Extractor),
		byExt:  make(map[string]Extractor),
	}
	for _, e := range extractors {
		r.Register(e)
	}
	return r
}

// Default returns a registry with the PDF, Markdown and plain text extractors.
func Default() *Registry {
	return NewRegistry(NewPDFExtractor(), NewMarkdownExtractor(), NewTextExtractor())
}

func (r *Registry) Register(e Extractor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, mt := range e.MimeTypes() {
		r.byMime[strings.ToLower(mt)] = e
	}
	for _, ext := range e.Extensions() {
		r.byExt[strings.ToLower(ext)] = e
	}
}

// Resolve picks an extractor by declared MIME type first and by file
// extension second.
func (r *Registry) Resolve(fileName, mimeType string) (Extractor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if mt := normalizeMime(mimeType); mt != "" {
		if e, ok := r.byMime[mt]; ok {
			return e, nil
		}
	}
	if ext := strings.ToLower(filepath.Ext(fileName)); ext != "" {
		if e, ok := r.byExt[ext]; ok {
			return e, nil
		}
	}
	return nil, fmt.Errorf("%w: name=%q mime=%q", appErr.ErrUnsupportedFormat, fileName, mimeType)
}

func normalizeMime(mimeType string) string {
	mimeType = strings.TrimSpace(mimeType)
	if mimeType == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(mimeType)
	if err != nil {
		return strings.ToLower(mimeType)
	}
	return strings.ToLower(mt)
}

func emptyText(name string) error {
	return fmt.Errorf("%w: parsed %s text is empty", appErr.ErrExtraction, name)
}
