package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	appErr "github.com/xxxsen/medrag/internal/pkg/errors"
)

type ManagerConfig struct {
	Dimension     int
	EmbedTimeout  int
	RerankTimeout int
}

// Manager owns the embedding and relevance scoring calls of the pipeline.
type Manager struct {
	embedder IEmbedder
	reranker IGenerator
	cfg      ManagerConfig
}

func NewManager(embedder IEmbedder, reranker IGenerator, cfg ManagerConfig) *Manager {
	return &Manager{
		embedder: embedder,
		reranker: reranker,
		cfg:      cfg,
	}
}

// EmbedChunks embeds all texts in a single provider call. The result is index
// aligned with texts.
func (m *Manager) EmbedChunks(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	vectors, err := m.embed(ctx, texts, TaskRetrievalDocument)
	if err != nil {
		return nil, err
	}
	return vectors, nil
}

func (m *Manager) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := m.embed(ctx, []string{text}, TaskRetrievalQuery)
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (m *Manager) embed(ctx context.Context, texts []string, taskType string) ([][]float32, error) {
	if m.embedder == nil {
		return nil, fmt.Errorf("%w: %w", appErr.ErrEmbedding, ErrUnavailable)
	}
	ctx, cancel := withTimeout(ctx, m.cfg.EmbedTimeout)
	defer cancel()
	vectors, err := m.embedder.Embed(ctx, texts, taskType)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", appErr.ErrEmbedding, err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("%w: got %d vectors for %d inputs", appErr.ErrEmbedding, len(vectors), len(texts))
	}
	for i, vec := range vectors {
		if len(vec) == 0 {
			return nil, fmt.Errorf("%w: empty vector at %d", appErr.ErrEmbedding, i)
		}
		if m.cfg.Dimension > 0 && len(vec) != m.cfg.Dimension {
			return nil, fmt.Errorf("%w: vector %d has dimension %d, want %d", appErr.ErrEmbedding, i, len(vec), m.cfg.Dimension)
		}
	}
	return vectors, nil
}

// ScoreRelevance asks the reranker model to grade every passage against the
// query. Errors are returned to the caller, which decides how to degrade.
func (m *Manager) ScoreRelevance(ctx context.Context, query string, passages []string) (RelevanceResult, error) {
	if m.reranker == nil {
		return RelevanceResult{}, ErrUnavailable
	}
	ctx, cancel := withTimeout(ctx, m.cfg.RerankTimeout)
	defer cancel()
	resp, err := m.reranker.Generate(ctx, buildRerankPrompt(query, passages))
	if err != nil {
		return RelevanceResult{}, err
	}
	text := strings.TrimSpace(resp)
	if text == "" {
		return RelevanceResult{}, fmt.Errorf("empty ai response")
	}
	return ParseRelevanceScores(text), nil
}

func (m *Manager) EmbeddingModelName() string {
	if m.embedder == nil {
		return ""
	}
	return m.embedder.ModelName()
}

func buildRerankPrompt(query string, passages []string) string {
	var sb strings.Builder
	for i, passage := range passages {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		fmt.Fprintf(&sb, "[%d] %s", i+1, passage)
	}
	return fmt.Sprintf(`You are a relevance scoring assistant. Given a query and a list of text chunks, rate each chunk's relevance to answering the query.

Query: %q

Text chunks:
%s

For each chunk, provide a relevance score from 0 to 10:
- 10: Directly and completely answers the query
- 7-9: Contains the answer or highly relevant information
- 4-6: Somewhat relevant, provides context
- 1-3: Marginally relevant
- 0: Not relevant at all

Respond with ONLY a JSON array of objects with "index" (1-based) and "score" fields, ordered by score descending.
Example: [{"index": 2, "score": 9}, {"index": 1, "score": 4}]`, query, sb.String())
}

func withTimeout(ctx context.Context, seconds int) (context.Context, context.CancelFunc) {
	if seconds <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, time.Duration(seconds)*time.Second)
}
