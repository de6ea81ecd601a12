package extract

import (
	"context"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/xxxsen/medrag/internal/model"
)

type markdownExtractor struct {
	md goldmark.Markdown
}

func NewMarkdownExtractor() Extractor {
	return &markdownExtractor{md: goldmark.New()}
}

func (m *markdownExtractor) Name() string {
	return "markdown"
}

func (m *markdownExtractor) MimeTypes() []string {
	return []string{"text/markdown", "text/x-markdown"}
}

func (m *markdownExtractor) Extensions() []string {
	return []string{".md", ".markdown"}
}

// Extract drops markup and keeps the readable text of each block, one block
// per line.
func (m *markdownExtractor) Extract(ctx context.Context, data []byte) (model.ExtractedText, error) {
	reader := text.NewReader(data)
	doc := m.md.Parser().Parse(reader)
	source := reader.Source()

	var blocks []string
	for node := doc.FirstChild(); node != nil; node = node.NextSibling() {
		if txt := blockText(node, source); txt != "" {
			blocks = append(blocks, txt)
		}
	}
	joined := strings.TrimSpace(strings.Join(blocks, "\n"))
	if joined == "" {
		return model.ExtractedText{}, emptyText(m.Name())
	}
	return model.ExtractedText{Text: joined}, nil
}

func blockText(n ast.Node, source []byte) string {
	if n.Kind() == ast.KindFencedCodeBlock || n.Kind() == ast.KindCodeBlock {
		var sb strings.Builder
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			line := lines.At(i)
			sb.Write(line.Value(source))
		}
		return strings.TrimSpace(sb.String())
	}
	var sb strings.Builder
	_ = ast.Walk(n, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch v := node.(type) {
		case *ast.Text:
			sb.Write(v.Segment.Value(source))
			if v.SoftLineBreak() || v.HardLineBreak() {
				sb.WriteByte(' ')
			}
		case *ast.String:
			sb.Write(v.Value)
		case *ast.CodeSpan:
			for c := v.FirstChild(); c != nil; c = c.NextSibling() {
				if t, ok := c.(*ast.Text); ok {
					sb.Write(t.Segment.Value(source))
				}
			}
			return ast.WalkSkipChildren, nil
		}
		if node.Type() == ast.TypeBlock && node != n {
			sb.WriteByte(' ')
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(sb.String())
}
