package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/xxxsen/common/logger"
)

const (
	defaultChunkSize            = 500
	defaultChunkOverlap         = 100
	defaultEmbeddingDimension   = 1536
	defaultRerankCandidateCount = 10
	defaultTopK                 = 5
	defaultMaxTopK              = 20
	defaultMaxUploadBytes       = 15 * 1024 * 1024
	defaultTimeoutSeconds       = 30
)

type Config struct {
	Port          int              `json:"port"`
	LogConfig     logger.LogConfig `json:"log_config"`
	Database      DatabaseConfig   `json:"database"`
	AI            AIConfig         `json:"ai"`
	RAG           RAGConfig        `json:"rag"`
	EmbedCache    EmbedCacheConfig `json:"embed_cache"`
	Archive       *ArchiveConfig   `json:"archive"`
	Schedule      ScheduleConfig   `json:"schedule"`
	CORSAllowlist []string         `json:"cors_allowlist"`
	RateLimitMS   int              `json:"rate_limit_ms"`
}

type DatabaseConfig struct {
	Type     string `json:"type"`
	DSN      string `json:"dsn"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"dbname"`
	SSLMode  string `json:"sslmode"`
	Path     string `json:"path"`
}

// AIProviderConfig is one configured provider instance. Data is decoded by
// the provider factory registered under Type.
type AIProviderConfig struct {
	Name string      `json:"name"`
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// AIModelRef selects a model on a named provider instance.
type AIModelRef struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

type AIConfig struct {
	Providers []AIProviderConfig `json:"providers"`
	Embedder  []AIModelRef       `json:"embedder"`
	Reranker  []AIModelRef       `json:"reranker"`
}

type RAGConfig struct {
	ChunkSize            int   `json:"chunk_size"`
	ChunkOverlap         *int  `json:"chunk_overlap"`
	EmbeddingDimension   int   `json:"embedding_dimension"`
	RerankCandidateCount int   `json:"rerank_candidate_count"`
	DefaultTopK          int   `json:"default_top_k"`
	MaxTopK              int   `json:"max_top_k"`
	MaxUploadBytes       int64 `json:"max_upload_bytes"`
	EmbedTimeout         int   `json:"embed_timeout"`
	StoreTimeout         int   `json:"store_timeout"`
	RerankTimeout        int   `json:"rerank_timeout"`
}

type EmbedCacheConfig struct {
	LRUSize       int  `json:"lru_size"`
	LRUTTLSeconds int  `json:"lru_ttl_seconds"`
	DBEnabled     bool `json:"db_enabled"`
	MaxAgeDays    int  `json:"max_age_days"`
}

type ArchiveConfig struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type ScheduleConfig struct {
	OrphanSweep         string `json:"orphan_sweep"`
	OrphanGraceMinutes  int    `json:"orphan_grace_minutes"`
	EmbeddingCacheSweep string `json:"embedding_cache_sweep"`
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (cfg *Config) normalize() error {
	if cfg.Port == 0 {
		return fmt.Errorf("port is required")
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	cfg.Database.Type = strings.ToLower(strings.TrimSpace(cfg.Database.Type))
	if cfg.Database.Type == "" {
		cfg.Database.Type = "postgres"
	}
	switch cfg.Database.Type {
	case "postgres":
		if cfg.Database.DSN == "" && cfg.Database.Host == "" {
			return fmt.Errorf("database.dsn or database.host is required for postgres")
		}
		if cfg.Database.Port == 0 {
			cfg.Database.Port = 5432
		}
	case "sqlite":
		if cfg.Database.Path == "" {
			return fmt.Errorf("database.path is required for sqlite")
		}
	default:
		return fmt.Errorf("database.type must be postgres or sqlite")
	}
	if len(cfg.AI.Providers) == 0 {
		return fmt.Errorf("ai.providers is required")
	}
	if len(cfg.AI.Embedder) == 0 {
		return fmt.Errorf("ai.embedder is required")
	}
	cfg.RAG.applyDefaults()
	if cfg.RAG.Overlap() >= cfg.RAG.ChunkSize {
		return fmt.Errorf("rag.chunk_overlap must be smaller than rag.chunk_size")
	}
	if cfg.RAG.DefaultTopK > cfg.RAG.MaxTopK {
		cfg.RAG.DefaultTopK = cfg.RAG.MaxTopK
	}
	if cfg.EmbedCache.MaxAgeDays <= 0 {
		cfg.EmbedCache.MaxAgeDays = 30
	}
	if cfg.Schedule.OrphanGraceMinutes <= 0 {
		cfg.Schedule.OrphanGraceMinutes = 60
	}
	if cfg.Archive != nil && cfg.Archive.Type == "" {
		cfg.Archive.Type = "local"
	}
	return nil
}

func (r *RAGConfig) applyDefaults() {
	if r.ChunkSize <= 0 {
		r.ChunkSize = defaultChunkSize
	}
	if r.ChunkOverlap == nil || *r.ChunkOverlap < 0 {
		overlap := defaultChunkOverlap
		if overlap >= r.ChunkSize {
			overlap = 0
		}
		r.ChunkOverlap = &overlap
	}
	if r.EmbeddingDimension <= 0 {
		r.EmbeddingDimension = defaultEmbeddingDimension
	}
	if r.RerankCandidateCount <= 0 {
		r.RerankCandidateCount = defaultRerankCandidateCount
	}
	if r.MaxTopK <= 0 {
		r.MaxTopK = defaultMaxTopK
	}
	if r.DefaultTopK <= 0 {
		r.DefaultTopK = defaultTopK
	}
	if r.MaxUploadBytes <= 0 {
		r.MaxUploadBytes = defaultMaxUploadBytes
	}
	if r.EmbedTimeout <= 0 {
		r.EmbedTimeout = defaultTimeoutSeconds
	}
	if r.StoreTimeout <= 0 {
		r.StoreTimeout = defaultTimeoutSeconds
	}
	if r.RerankTimeout <= 0 {
		r.RerankTimeout = defaultTimeoutSeconds
	}
}

// Overlap returns the configured chunk overlap; an unset value means the
// default of 100 characters.
func (r RAGConfig) Overlap() int {
	if r.ChunkOverlap == nil {
		return defaultChunkOverlap
	}
	return *r.ChunkOverlap
}
