package main

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/xxxsen/medrag/internal/ai"
	"github.com/xxxsen/medrag/internal/config"
	"github.com/xxxsen/medrag/internal/db"
	"github.com/xxxsen/medrag/internal/embedcache"
	"github.com/xxxsen/medrag/internal/extract"
	"github.com/xxxsen/medrag/internal/filestore"
	"github.com/xxxsen/medrag/internal/repo"
	"github.com/xxxsen/medrag/internal/service"
)

type app struct {
	cfg       *config.Config
	db        *sql.DB
	index     repo.VectorIndex
	cacheRepo *repo.EmbeddingCacheRepo
	rag       *service.RAGService
}

func newApp(cfg *config.Config) (*app, error) {
	conn, err := db.Open(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.ApplyMigrations(conn, cfg.Database.Type, cfg.RAG.EmbeddingDimension); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}
	a := &app{cfg: cfg, db: conn}
	if err := a.wire(); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) wire() error {
	cfg := a.cfg
	embedder, generator, err := ai.BuildFromConfig(cfg.AI, cfg.RAG.EmbeddingDimension)
	if err != nil {
		return fmt.Errorf("init ai: %w", err)
	}
	if cfg.EmbedCache.DBEnabled {
		a.cacheRepo = repo.NewEmbeddingCacheRepo(a.db, cfg.Database.Type)
		embedder = embedcache.WrapDBCacheToEmbedder(embedder, a.cacheRepo)
	}
	embedder = embedcache.WrapLruCacheToEmbedder(embedder, cfg.EmbedCache.LRUSize, time.Duration(cfg.EmbedCache.LRUTTLSeconds)*time.Second)

	manager := ai.NewManager(embedder, generator, ai.ManagerConfig{
		Dimension:     cfg.RAG.EmbeddingDimension,
		EmbedTimeout:  cfg.RAG.EmbedTimeout,
		RerankTimeout: cfg.RAG.RerankTimeout,
	})
	reranker := service.NewReranker(nil)
	if generator != nil {
		reranker = service.NewReranker(manager)
	}
	archive, err := filestore.New(cfg.Archive)
	if err != nil {
		return fmt.Errorf("init archive: %w", err)
	}

	a.index = repo.NewVectorIndex(a.db, cfg.Database.Type)
	a.rag = service.NewRAGService(
		extract.Default(),
		manager,
		a.index,
		repo.NewResourceRepo(a.db, cfg.Database.Type),
		reranker,
		archive,
		service.RAGConfig{
			ChunkSize:            cfg.RAG.ChunkSize,
			ChunkOverlap:         cfg.RAG.Overlap(),
			RerankCandidateCount: cfg.RAG.RerankCandidateCount,
			DefaultTopK:          cfg.RAG.DefaultTopK,
			MaxTopK:              cfg.RAG.MaxTopK,
			MaxUploadBytes:       cfg.RAG.MaxUploadBytes,
			StoreTimeout:         cfg.RAG.StoreTimeout,
		},
	)
	return nil
}

func (a *app) Close() {
	_ = a.db.Close()
}
