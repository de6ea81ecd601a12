package repo

import (
	"context"
	"database/sql"

	"github.com/xxxsen/medrag/internal/model"
	"github.com/xxxsen/medrag/internal/pkg/dbutil"
)

// ChunkFilter narrows a similarity query. A nil filter or an empty id list
// searches the whole corpus.
type ChunkFilter struct {
	ResourceIDs []string
}

func (f *ChunkFilter) active() bool {
	return f != nil && len(f.ResourceIDs) > 0
}

// VectorIndex is the narrow contract the pipeline has with the store.
type VectorIndex interface {
	// Insert stores chunks under resourceID and returns them in input order
	// with their store-assigned ids.
	Insert(ctx context.Context, resourceID string, chunks []model.EmbeddedChunk) ([]model.StoredChunk, error)
	// Query returns up to k chunks, most similar first.
	Query(ctx context.Context, vector []float32, k int, filter *ChunkFilter) ([]model.StoredChunk, error)
	// DeleteOrphans removes chunks created before the cutoff whose resource
	// was never committed.
	DeleteOrphans(ctx context.Context, before int64) (int64, error)
}

func NewVectorIndex(db *sql.DB, dialect string) VectorIndex {
	if dialect == dbutil.DialectSQLite {
		return NewSQLiteChunkRepo(db)
	}
	return NewPGChunkRepo(db)
}
