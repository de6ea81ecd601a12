package service

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/xxxsen/medrag/internal/ai"
	"github.com/xxxsen/medrag/internal/model"
	"github.com/xxxsen/medrag/internal/repo"
)

type fakeEmbedder struct {
	mu         sync.Mutex
	chunkCalls int
	queryCalls int
	err        error
}

func (f *fakeEmbedder) EmbedChunks(ctx context.Context, texts []string) ([][]float32, error) {
	f.mu.Lock()
	f.chunkCalls++
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{float32(i + 1), 1}
	}
	return out, nil
}

func (f *fakeEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	f.mu.Lock()
	f.queryCalls++
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return []float32{1, 1}, nil
}

type memIndex struct {
	mu       sync.Mutex
	nextID   int
	rows     []model.StoredChunk
	dropLast bool
	queryErr error
	lastK    int
	queries  int
	results  []model.StoredChunk
}

func (m *memIndex) Insert(ctx context.Context, resourceID string, chunks []model.EmbeddedChunk) ([]model.StoredChunk, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.StoredChunk, 0, len(chunks))
	for _, c := range chunks {
		m.nextID++
		row := model.StoredChunk{ID: strconv.Itoa(m.nextID), ResourceID: resourceID, Content: c.Content, PageNumber: c.PageNumber}
		m.rows = append(m.rows, row)
		out = append(out, row)
	}
	if m.dropLast && len(out) > 0 {
		out = out[:len(out)-1]
	}
	return out, nil
}

func (m *memIndex) Query(ctx context.Context, vector []float32, k int, filter *repo.ChunkFilter) ([]model.StoredChunk, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries++
	m.lastK = k
	if m.queryErr != nil {
		return nil, m.queryErr
	}
	src := m.results
	if src == nil {
		src = m.rows
	}
	if len(src) > k {
		src = src[:k]
	}
	return append([]model.StoredChunk(nil), src...), nil
}

func (m *memIndex) DeleteOrphans(ctx context.Context, before int64) (int64, error) {
	return 0, nil
}

type memResources struct {
	mu    sync.Mutex
	items map[string]model.Resource
}

func newMemResources() *memResources {
	return &memResources{items: map[string]model.Resource{}}
}

func (m *memResources) Create(ctx context.Context, res *model.Resource) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[res.ID] = *res
	return nil
}

func (m *memResources) GetByID(ctx context.Context, id string) (*model.Resource, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[id]
	if !ok {
		return nil, fmt.Errorf("missing %s", id)
	}
	return &item, nil
}

type fakeScorer struct {
	result ai.RelevanceResult
	err    error
	calls  int
	last   []string
}

func (f *fakeScorer) ScoreRelevance(ctx context.Context, query string, passages []string) (ai.RelevanceResult, error) {
	f.calls++
	f.last = passages
	return f.result, f.err
}

func candidatesN(n int) []model.StoredChunk {
	out := make([]model.StoredChunk, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, model.StoredChunk{ID: strconv.Itoa(i), ResourceID: "r", Content: "chunk " + strconv.Itoa(i)})
	}
	return out
}
