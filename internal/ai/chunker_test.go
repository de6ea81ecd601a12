package ai

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/medrag/internal/model"
	appErr "github.com/xxxsen/medrag/internal/pkg/errors"
)

func contents(chunks []model.ChunkInput) []string {
	out := make([]string, 0, len(chunks))
	for _, c := range chunks {
		out = append(out, c.Content)
	}
	return out
}

func TestChunkTextWindows1200Chars(t *testing.T) {
	text := strings.Repeat("abcdefghij", 120)
	require.Len(t, text, 1200)

	chunks, err := ChunkText(text, 500, 100)
	require.NoError(t, err)
	require.Equal(t, []string{text[0:500], text[400:900], text[800:1200]}, contents(chunks))
	for _, c := range chunks {
		require.Nil(t, c.PageNumber)
	}
}

func TestChunkTextDeterministic(t *testing.T) {
	text := strings.Repeat("The patient reports intermittent chest pain. ", 60)
	first, err := ChunkText(text, 500, 100)
	require.NoError(t, err)
	second, err := ChunkText(text, 500, 100)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestChunkTextCoverageAndOverlap(t *testing.T) {
	text := strings.Repeat("0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ", 53)
	size, overlap := 500, 100
	chunks, err := ChunkText(text, size, overlap)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 2)

	var rebuilt strings.Builder
	for i, c := range chunks {
		if i < len(chunks)-1 {
			require.Len(t, c.Content, size)
		}
		if i == 0 {
			rebuilt.WriteString(c.Content)
			continue
		}
		prev := chunks[i-1].Content
		require.Equal(t, prev[len(prev)-overlap:], c.Content[:overlap])
		rebuilt.WriteString(c.Content[overlap:])
	}
	require.Equal(t, text, rebuilt.String())
}

func TestChunkTextNormalizesWhitespace(t *testing.T) {
	chunks, err := ChunkText("  first\n\n\tsecond   third  ", 500, 100)
	require.NoError(t, err)
	require.Equal(t, []string{"first second third"}, contents(chunks))
}

func TestChunkTextEmptyInput(t *testing.T) {
	for _, text := range []string{"", "   ", "\n\t "} {
		chunks, err := ChunkText(text, 500, 100)
		require.NoError(t, err)
		require.Empty(t, chunks)
	}
}

func TestChunkTextRejectsInvalidWindow(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		overlap int
	}{
		{name: "overlap equals size", size: 100, overlap: 100},
		{name: "overlap larger than size", size: 100, overlap: 150},
		{name: "negative overlap", size: 100, overlap: -1},
		{name: "zero size", size: 0, overlap: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ChunkText("some text", tt.size, tt.overlap)
			require.ErrorIs(t, err, appErr.ErrInvalid)
		})
	}
}

func TestChunkTextCountsCharactersNotBytes(t *testing.T) {
	text := strings.Repeat("é", 12)
	chunks, err := ChunkText(text, 5, 1)
	require.NoError(t, err)
	require.Equal(t, []string{"ééééé", "ééééé", "éééé"}, contents(chunks))
}

func TestChunkDocumentAttributesPages(t *testing.T) {
	doc := model.ExtractedText{
		Text: "Hello   world\nsecond\npage",
		Pages: []model.PageText{
			{Number: 1, Text: "Hello   world"},
			{Number: 2, Text: "second\npage"},
			{Number: 3, Text: "   "},
		},
	}
	chunks, err := ChunkDocument(doc, 8, 2)
	require.NoError(t, err)
	require.Equal(t, []string{"Hello wo", "world se", "second p", "page"}, contents(chunks))

	pages := make([]int, 0, len(chunks))
	for _, c := range chunks {
		require.NotNil(t, c.PageNumber)
		pages = append(pages, *c.PageNumber)
	}
	require.Equal(t, []int{1, 1, 2, 2}, pages)

	plain, err := ChunkText(doc.Text, 8, 2)
	require.NoError(t, err)
	require.Equal(t, contents(plain), contents(chunks))
}
