package ai

import (
	"fmt"
	"sort"
	"strings"

	"github.com/xxxsen/medrag/internal/model"
	appErr "github.com/xxxsen/medrag/internal/pkg/errors"
)

// ChunkText splits text into overlapping windows of size characters.
// Whitespace runs are collapsed to one space before windowing, so offsets and
// overlap are measured on the normalized text. Empty input yields no chunks.
func ChunkText(text string, size, overlap int) ([]model.ChunkInput, error) {
	if err := validateWindow(size, overlap); err != nil {
		return nil, err
	}
	return chunkRunes([]rune(NormalizeWhitespace(text)), nil, size, overlap), nil
}

// ChunkDocument chunks extracted text and, when the extractor reported pages,
// attributes every chunk to the page its first character came from. The
// chunk contents are the same as ChunkText(doc.Text, size, overlap).
func ChunkDocument(doc model.ExtractedText, size, overlap int) ([]model.ChunkInput, error) {
	if err := validateWindow(size, overlap); err != nil {
		return nil, err
	}
	if len(doc.Pages) == 0 {
		return chunkRunes([]rune(NormalizeWhitespace(doc.Text)), nil, size, overlap), nil
	}
	var sb strings.Builder
	starts := make([]pageStart, 0, len(doc.Pages))
	offset := 0
	for _, page := range doc.Pages {
		normalized := NormalizeWhitespace(page.Text)
		if normalized == "" {
			continue
		}
		if offset > 0 {
			sb.WriteByte(' ')
			offset++
		}
		starts = append(starts, pageStart{offset: offset, number: page.Number})
		sb.WriteString(normalized)
		offset += len([]rune(normalized))
	}
	return chunkRunes([]rune(sb.String()), starts, size, overlap), nil
}

// NormalizeWhitespace collapses every whitespace run to a single space and
// trims both ends.
func NormalizeWhitespace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

type pageStart struct {
	offset int
	number int
}

func validateWindow(size, overlap int) error {
	if size <= 0 {
		return fmt.Errorf("%w: chunk size must be positive, got %d", appErr.ErrInvalid, size)
	}
	if overlap < 0 || overlap >= size {
		return fmt.Errorf("%w: chunk overlap must be in [0, %d), got %d", appErr.ErrInvalid, size, overlap)
	}
	return nil
}

func chunkRunes(runes []rune, pages []pageStart, size, overlap int) []model.ChunkInput {
	var chunks []model.ChunkInput
	start := 0
	for start < len(runes) {
		end := min(len(runes), start+size)
		window := string(runes[start:end])
		content := strings.TrimSpace(window)
		if content != "" {
			chunk := model.ChunkInput{Content: content}
			if len(pages) > 0 {
				lead := len([]rune(window)) - len([]rune(strings.TrimLeft(window, " ")))
				chunk.PageNumber = pageAt(pages, start+lead)
			}
			chunks = append(chunks, chunk)
		}
		if end >= len(runes) {
			break
		}
		start = max(0, end-overlap)
	}
	return chunks
}

func pageAt(pages []pageStart, offset int) *int {
	idx := sort.Search(len(pages), func(i int) bool {
		return pages[i].offset > offset
	}) - 1
	if idx < 0 {
		idx = 0
	}
	number := pages[idx].number
	return &number
}
