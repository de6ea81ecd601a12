package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/medrag/internal/ai"
	"github.com/xxxsen/medrag/internal/extract"
	"github.com/xxxsen/medrag/internal/filestore"
	"github.com/xxxsen/medrag/internal/model"
	appErr "github.com/xxxsen/medrag/internal/pkg/errors"
	"github.com/xxxsen/medrag/internal/repo"
)

type ChunkEmbedder interface {
	EmbedChunks(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

type ResourceStore interface {
	Create(ctx context.Context, res *model.Resource) error
	GetByID(ctx context.Context, id string) (*model.Resource, error)
}

type RAGConfig struct {
	ChunkSize            int
	ChunkOverlap         int
	RerankCandidateCount int
	DefaultTopK          int
	MaxTopK              int
	MaxUploadBytes       int64
	StoreTimeout         int
}

// RAGService runs the ingest and search pipelines. It holds no per-request
// state, so one instance serves concurrent callers.
type RAGService struct {
	extractors *extract.Registry
	embedder   ChunkEmbedder
	index      repo.VectorIndex
	resources  ResourceStore
	reranker   *Reranker
	archive    filestore.Store
	cfg        RAGConfig
}

func NewRAGService(extractors *extract.Registry, embedder ChunkEmbedder, index repo.VectorIndex, resources ResourceStore, reranker *Reranker, archive filestore.Store, cfg RAGConfig) *RAGService {
	return &RAGService{
		extractors: extractors,
		embedder:   embedder,
		index:      index,
		resources:  resources,
		reranker:   reranker,
		archive:    archive,
		cfg:        cfg,
	}
}

// Ingest extracts, chunks, embeds and stores one document under a new
// resource id.
func (s *RAGService) Ingest(ctx context.Context, data []byte, fileName, mimeType string) (*model.IngestResult, error) {
	logger := logutil.GetLogger(ctx).With(zap.String("file_name", fileName), zap.String("mime_type", mimeType), zap.Int("size", len(data)))
	if s.cfg.MaxUploadBytes > 0 && int64(len(data)) > s.cfg.MaxUploadBytes {
		return nil, fmt.Errorf("%w: %d bytes, limit %d", appErr.ErrPayloadTooLarge, len(data), s.cfg.MaxUploadBytes)
	}
	extractor, err := s.extractors.Resolve(fileName, mimeType)
	if err != nil {
		return nil, err
	}
	doc, err := extractor.Extract(ctx, data)
	if err != nil {
		logger.Error("extract document failed", zap.String("extractor", extractor.Name()), zap.Error(err))
		return nil, err
	}
	chunks, err := ai.ChunkDocument(doc, s.cfg.ChunkSize, s.cfg.ChunkOverlap)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return nil, appErr.ErrEmptyDocument
	}

	resourceID := newResourceID()
	logger = logger.With(zap.String("resource_id", resourceID), zap.Int("chunks", len(chunks)))

	texts := make([]string, 0, len(chunks))
	for _, c := range chunks {
		texts = append(texts, c.Content)
	}
	vectors, err := s.embedder.EmbedChunks(ctx, texts)
	if err != nil {
		logger.Error("embed chunks failed", zap.Error(err))
		return nil, err
	}
	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("%w: got %d vectors for %d chunks", appErr.ErrEmbedding, len(vectors), len(chunks))
	}
	embedded := make([]model.EmbeddedChunk, 0, len(chunks))
	for i, c := range chunks {
		embedded = append(embedded, model.EmbeddedChunk{ChunkInput: c, Embedding: vectors[i]})
	}

	stored, err := s.persist(ctx, resourceID, embedded)
	if err != nil {
		logger.Error("persist chunks failed", zap.Error(err))
		return nil, err
	}

	hash := sha256.Sum256(data)
	res := &model.Resource{
		ID:          resourceID,
		FileName:    fileName,
		MimeType:    mimeType,
		ByteSize:    int64(len(data)),
		ContentHash: hex.EncodeToString(hash[:]),
		ChunkCount:  len(stored),
		Ctime:       time.Now().Unix(),
	}
	if err := s.commit(ctx, res); err != nil {
		logger.Error("commit resource failed", zap.Error(err))
		return nil, err
	}
	s.archiveOriginal(ctx, resourceID, fileName, data)
	logger.Info("document ingested")
	return &model.IngestResult{ResourceID: resourceID, ChunkCount: len(stored)}, nil
}

func (s *RAGService) persist(ctx context.Context, resourceID string, chunks []model.EmbeddedChunk) ([]model.StoredChunk, error) {
	ctx, cancel := withSeconds(ctx, s.cfg.StoreTimeout)
	defer cancel()
	stored, err := s.index.Insert(ctx, resourceID, chunks)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", appErr.ErrPersistence, err)
	}
	if len(stored) != len(chunks) {
		return nil, fmt.Errorf("%w: stored %d of %d chunks", appErr.ErrPersistenceMismatch, len(stored), len(chunks))
	}
	return stored, nil
}

func (s *RAGService) commit(ctx context.Context, res *model.Resource) error {
	ctx, cancel := withSeconds(ctx, s.cfg.StoreTimeout)
	defer cancel()
	if err := s.resources.Create(ctx, res); err != nil {
		return fmt.Errorf("%w: %w", appErr.ErrPersistence, err)
	}
	return nil
}

func (s *RAGService) archiveOriginal(ctx context.Context, resourceID, fileName string, data []byte) {
	if s.archive == nil {
		return
	}
	key := resourceID + strings.ToLower(filepath.Ext(fileName))
	if err := filestore.SaveBytes(ctx, s.archive, key, data); err != nil {
		logutil.GetLogger(ctx).Warn("archive original failed", zap.String("resource_id", resourceID), zap.String("store", s.archive.Type()), zap.Error(err))
	}
}

// Search answers a query with up to topK reranked chunks from the whole
// corpus. topK is clamped into [1, MaxTopK]; zero means the default.
func (s *RAGService) Search(ctx context.Context, query string, topK int) ([]model.SearchMatch, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, appErr.ErrInvalidQuery
	}
	topK = s.clampTopK(topK)
	pool := max(topK, s.cfg.RerankCandidateCount)
	logger := logutil.GetLogger(ctx).With(zap.Int("top_k", topK), zap.Int("pool", pool))

	vector, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		logger.Error("embed query failed", zap.Error(err))
		return nil, err
	}
	candidates, err := s.similar(ctx, vector, pool)
	if err != nil {
		logger.Error("vector search failed", zap.Error(err))
		return nil, err
	}
	if len(candidates) == 0 {
		return []model.SearchMatch{}, nil
	}
	for i, c := range candidates {
		logger.Debug("vector candidate", zap.Int("rank", i+1), zap.String("chunk_id", c.ID), zap.Float64("similarity", c.Similarity))
	}
	ranked := s.reranker.Rerank(ctx, query, candidates, topK)
	matches := make([]model.SearchMatch, 0, len(ranked))
	for _, r := range ranked {
		matches = append(matches, model.SearchMatch{
			ChunkID:    r.ID,
			ResourceID: r.ResourceID,
			Chunk:      r.Content,
			PageNumber: r.PageNumber,
			Score:      r.RelevanceScore,
		})
	}
	logger.Info("search finished", zap.Int("candidates", len(candidates)), zap.Int("matches", len(matches)))
	return matches, nil
}

func (s *RAGService) similar(ctx context.Context, vector []float32, k int) ([]model.StoredChunk, error) {
	ctx, cancel := withSeconds(ctx, s.cfg.StoreTimeout)
	defer cancel()
	candidates, err := s.index.Query(ctx, vector, k, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", appErr.ErrVectorSearch, err)
	}
	return candidates, nil
}

// clampTopK applies the default only when topK is unset (0); any other value
// is bounded to [1, MaxTopK].
func (s *RAGService) clampTopK(topK int) int {
	if topK == 0 {
		topK = s.cfg.DefaultTopK
	}
	if topK < 1 {
		topK = 1
	}
	if s.cfg.MaxTopK > 0 && topK > s.cfg.MaxTopK {
		topK = s.cfg.MaxTopK
	}
	return topK
}

func (s *RAGService) GetResource(ctx context.Context, id string) (*model.Resource, error) {
	return s.resources.GetByID(ctx, id)
}

func withSeconds(ctx context.Context, seconds int) (context.Context, context.CancelFunc) {
	if seconds <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, time.Duration(seconds)*time.Second)
}
