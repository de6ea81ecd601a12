package ai

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	appErr "github.com/xxxsen/medrag/internal/pkg/errors"
)

type fakeEmbedder struct {
	calls     int
	dim       int
	drop      int
	err       error
	lastTexts []string
}

func (f *fakeEmbedder) Embed(ctx context.Context, texts []string, taskType string) ([][]float32, error) {
	f.calls++
	f.lastTexts = texts
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, 0, len(texts))
	for i := range texts[:len(texts)-f.drop] {
		vec := make([]float32, f.dim)
		vec[0] = float32(i)
		out = append(out, vec)
	}
	return out, nil
}

func (f *fakeEmbedder) ModelName() string {
	return "fake"
}

type fakeGenerator struct {
	output string
	err    error
	prompt string
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	f.prompt = prompt
	return f.output, f.err
}

func TestManagerEmbedChunksBatchesInOrder(t *testing.T) {
	emb := &fakeEmbedder{dim: 4}
	m := NewManager(emb, nil, ManagerConfig{Dimension: 4})

	vectors, err := m.EmbedChunks(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)
	require.Equal(t, 1, emb.calls)
	require.Len(t, vectors, 3)
	for i, vec := range vectors {
		require.Equal(t, float32(i), vec[0])
	}
}

func TestManagerEmbedChunksEmptySkipsProvider(t *testing.T) {
	emb := &fakeEmbedder{dim: 4}
	m := NewManager(emb, nil, ManagerConfig{Dimension: 4})

	vectors, err := m.EmbedChunks(context.Background(), nil)
	require.NoError(t, err)
	require.Empty(t, vectors)
	require.Zero(t, emb.calls)
}

func TestManagerEmbedRejectsBadResponses(t *testing.T) {
	tests := []struct {
		name string
		emb  *fakeEmbedder
	}{
		{name: "provider error", emb: &fakeEmbedder{dim: 4, err: errors.New("boom")}},
		{name: "wrong dimension", emb: &fakeEmbedder{dim: 3}},
		{name: "missing vectors", emb: &fakeEmbedder{dim: 4, drop: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewManager(tt.emb, nil, ManagerConfig{Dimension: 4})
			_, err := m.EmbedChunks(context.Background(), []string{"a", "b"})
			require.ErrorIs(t, err, appErr.ErrEmbedding)
		})
	}
}

func TestManagerEmbedQueryWithoutEmbedder(t *testing.T) {
	m := NewManager(nil, nil, ManagerConfig{Dimension: 4})
	_, err := m.EmbedQuery(context.Background(), "q")
	require.ErrorIs(t, err, appErr.ErrEmbedding)
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestManagerScoreRelevanceBuildsNumberedPrompt(t *testing.T) {
	gen := &fakeGenerator{output: `[{"index": 2, "score": 9}]`}
	m := NewManager(nil, gen, ManagerConfig{})

	res, err := m.ScoreRelevance(context.Background(), "chest pain", []string{"first passage", "second passage"})
	require.NoError(t, err)
	require.Equal(t, RelevanceArray, res.Shape)
	require.True(t, strings.Contains(gen.prompt, "[1] first passage\n\n[2] second passage"))
	require.True(t, strings.Contains(gen.prompt, `Query: "chest pain"`))
}

func TestManagerScoreRelevanceWithoutReranker(t *testing.T) {
	m := NewManager(nil, nil, ManagerConfig{})
	_, err := m.ScoreRelevance(context.Background(), "q", []string{"p"})
	require.ErrorIs(t, err, ErrUnavailable)
}
