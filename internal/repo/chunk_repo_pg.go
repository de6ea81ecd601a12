package repo

import (
	"context"
	"database/sql"
	"strings"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	"github.com/xxxsen/medrag/internal/model"
	"github.com/xxxsen/medrag/internal/pkg/dbutil"
)

// PGChunkRepo keeps vectors in a pgvector column and lets the HNSW index
// answer nearest neighbour queries by cosine distance.
type PGChunkRepo struct {
	db *sql.DB
}

func NewPGChunkRepo(db *sql.DB) *PGChunkRepo {
	return &PGChunkRepo{db: db}
}

func (r *PGChunkRepo) Insert(ctx context.Context, resourceID string, chunks []model.EmbeddedChunk) ([]model.StoredChunk, error) {
	return insertChunks(ctx, r.db, dbutil.DialectPostgres, resourceID, chunks, func(vec []float32) (interface{}, error) {
		return pgvector.NewVector(vec), nil
	})
}

func (r *PGChunkRepo) Query(ctx context.Context, vector []float32, k int, filter *ChunkFilter) ([]model.StoredChunk, error) {
	if k <= 0 {
		return nil, nil
	}
	var sb strings.Builder
	sb.WriteString(`
		SELECT id, resource_id, content, page_number, 1 - (embedding <=> $1) AS similarity
		FROM resource_chunks
	`)
	args := []interface{}{pgvector.NewVector(vector), k}
	if filter.active() {
		sb.WriteString(" WHERE resource_id = ANY($3)")
		args = append(args, pq.Array(filter.ResourceIDs))
	}
	sb.WriteString(" ORDER BY embedding <=> $1 LIMIT $2")

	rows, err := r.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.StoredChunk
	for rows.Next() {
		var item model.StoredChunk
		var page sql.NullInt64
		if err := rows.Scan(&item.ID, &item.ResourceID, &item.Content, &page, &item.Similarity); err != nil {
			return nil, err
		}
		item.PageNumber = pageFromNull(page)
		out = append(out, item)
	}
	return out, rows.Err()
}

func (r *PGChunkRepo) DeleteOrphans(ctx context.Context, before int64) (int64, error) {
	return deleteOrphanChunks(ctx, r.db, dbutil.DialectPostgres, before)
}
