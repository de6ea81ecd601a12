package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/xxxsen/medrag/internal/model"
	"github.com/xxxsen/medrag/internal/pkg/dbutil"
)

// EmbeddingCacheRepo stores vectors as JSON text so the same table works on
// both dialects and for any embedding width.
type EmbeddingCacheRepo struct {
	db      *sql.DB
	dialect string
}

func NewEmbeddingCacheRepo(db *sql.DB, dialect string) *EmbeddingCacheRepo {
	return &EmbeddingCacheRepo{db: db, dialect: dialect}
}

func (r *EmbeddingCacheRepo) Get(ctx context.Context, modelName, taskType, contentHash string) ([]float32, bool, error) {
	query, args := dbutil.Finalize(r.dialect, `
		SELECT embedding
		FROM embedding_cache
		WHERE model_name = ? AND task_type = ? AND content_hash = ?
	`, []interface{}{modelName, taskType, contentHash})
	var raw string
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}
	var embedding []float32
	if err := json.Unmarshal([]byte(raw), &embedding); err != nil {
		return nil, false, err
	}
	return embedding, true, nil
}

func (r *EmbeddingCacheRepo) Save(ctx context.Context, item *model.EmbeddingCache) error {
	raw, err := json.Marshal(item.Embedding)
	if err != nil {
		return err
	}
	query, args := dbutil.Finalize(r.dialect, `
		INSERT INTO embedding_cache (model_name, task_type, content_hash, embedding, ctime)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (model_name, task_type, content_hash) DO UPDATE SET
			embedding = excluded.embedding,
			ctime = excluded.ctime
	`, []interface{}{item.ModelName, item.TaskType, item.ContentHash, string(raw), item.Ctime})
	_, err = r.db.ExecContext(ctx, query, args...)
	return err
}

func (r *EmbeddingCacheRepo) DeleteBefore(ctx context.Context, cutoff int64) (int64, error) {
	query, args := dbutil.Finalize(r.dialect, `DELETE FROM embedding_cache WHERE ctime < ?`, []interface{}{cutoff})
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
