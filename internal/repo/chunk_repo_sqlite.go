package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"math"
	"sort"
	"strconv"

	"github.com/didi/gendry/builder"

	"github.com/xxxsen/medrag/internal/model"
	"github.com/xxxsen/medrag/internal/pkg/dbutil"
)

// SQLiteChunkRepo stores vectors as JSON and ranks by an exact cosine scan.
// Suitable for single node deployments and tests.
type SQLiteChunkRepo struct {
	db *sql.DB
}

func NewSQLiteChunkRepo(db *sql.DB) *SQLiteChunkRepo {
	return &SQLiteChunkRepo{db: db}
}

func (r *SQLiteChunkRepo) Insert(ctx context.Context, resourceID string, chunks []model.EmbeddedChunk) ([]model.StoredChunk, error) {
	return insertChunks(ctx, r.db, dbutil.DialectSQLite, resourceID, chunks, func(vec []float32) (interface{}, error) {
		return json.Marshal(vec)
	})
}

func (r *SQLiteChunkRepo) Query(ctx context.Context, vector []float32, k int, filter *ChunkFilter) ([]model.StoredChunk, error) {
	if k <= 0 {
		return nil, nil
	}
	where := map[string]interface{}{}
	if filter.active() {
		ids := make([]interface{}, 0, len(filter.ResourceIDs))
		for _, id := range filter.ResourceIDs {
			ids = append(ids, id)
		}
		where["resource_id in"] = ids
	}
	sqlStr, args, err := builder.BuildSelect(chunkTable, where, []string{"id", "resource_id", "content", "page_number", "embedding"})
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(dbutil.DialectSQLite, sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	type scored struct {
		chunk model.StoredChunk
		id    int64
	}
	var candidates []scored
	for rows.Next() {
		var item scored
		var page sql.NullInt64
		var blob []byte
		if err := rows.Scan(&item.id, &item.chunk.ResourceID, &item.chunk.Content, &page, &blob); err != nil {
			return nil, err
		}
		var emb []float32
		if err := json.Unmarshal(blob, &emb); err != nil {
			return nil, err
		}
		if len(emb) != len(vector) {
			continue
		}
		item.chunk.ID = strconv.FormatInt(item.id, 10)
		item.chunk.PageNumber = pageFromNull(page)
		item.chunk.Similarity = cosineSimilarity(vector, emb)
		candidates = append(candidates, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].chunk.Similarity != candidates[j].chunk.Similarity {
			return candidates[i].chunk.Similarity > candidates[j].chunk.Similarity
		}
		return candidates[i].id < candidates[j].id
	})
	if len(candidates) > k {
		candidates = candidates[:k]
	}
	out := make([]model.StoredChunk, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, c.chunk)
	}
	return out, nil
}

func (r *SQLiteChunkRepo) DeleteOrphans(ctx context.Context, before int64) (int64, error) {
	return deleteOrphanChunks(ctx, r.db, dbutil.DialectSQLite, before)
}

func cosineSimilarity(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
