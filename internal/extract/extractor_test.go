package extract

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	appErr "github.com/xxxsen/medrag/internal/pkg/errors"
)

func TestRegistryResolve(t *testing.T) {
	reg := Default()
	cases := []struct {
		name     string
		fileName string
		mimeType string
		want     string
	}{
		{name: "pdf by mime", fileName: "upload", mimeType: "application/pdf", want: "pdf"},
		{name: "mime with params", fileName: "notes", mimeType: "text/plain; charset=utf-8", want: "text"},
		{name: "markdown by ext", fileName: "README.MD", mimeType: "", want: "markdown"},
		{name: "generic mime falls back to ext", fileName: "guide.pdf", mimeType: "application/octet-stream", want: "pdf"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e, err := reg.Resolve(tc.fileName, tc.mimeType)
			require.NoError(t, err)
			require.Equal(t, tc.want, e.Name())
		})
	}
}

func TestRegistryResolveUnsupported(t *testing.T) {
	_, err := Default().Resolve("image.png", "image/png")
	require.Error(t, err)
	require.True(t, errors.Is(err, appErr.ErrUnsupportedFormat))
}

func TestTextExtractor(t *testing.T) {
	out, err := NewTextExtractor().Extract(context.Background(), []byte("  hello world \n"))
	require.NoError(t, err)
	require.Equal(t, "hello world", out.Text)
	require.Empty(t, out.Pages)

	_, err = NewTextExtractor().Extract(context.Background(), []byte(" \n\t "))
	require.True(t, errors.Is(err, appErr.ErrExtraction))

	_, err = NewTextExtractor().Extract(context.Background(), []byte{0xff, 0xfe, 0x00})
	require.True(t, errors.Is(err, appErr.ErrExtraction))
}

func TestMarkdownExtractorStripsMarkup(t *testing.T) {
	src := "# Dosage\n\nTake **two** tablets with `water`.\n\n- morning\n- evening\n\n```\ncode line\n```\n"
	out, err := NewMarkdownExtractor().Extract(context.Background(), []byte(src))
	require.NoError(t, err)
	require.Contains(t, out.Text, "Dosage")
	require.Contains(t, out.Text, "Take two tablets with water.")
	require.Contains(t, out.Text, "morning")
	require.Contains(t, out.Text, "evening")
	require.Contains(t, out.Text, "code line")
	require.NotContains(t, out.Text, "**")
	require.NotContains(t, out.Text, "#")
}

func TestMarkdownExtractorEmpty(t *testing.T) {
	_, err := NewMarkdownExtractor().Extract(context.Background(), []byte("\n\n---\n"))
	require.True(t, errors.Is(err, appErr.ErrExtraction))
}

func TestPDFExtractorRejectsGarbage(t *testing.T) {
	_, err := NewPDFExtractor().Extract(context.Background(), []byte("definitely not a pdf"))
	require.Error(t, err)
	require.True(t, errors.Is(err, appErr.ErrExtraction))

	_, err = NewPDFExtractor().Extract(context.Background(), nil)
	require.True(t, errors.Is(err, appErr.ErrExtraction))
}
