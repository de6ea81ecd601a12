package repo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/didi/gendry/builder"

	"github.com/xxxsen/medrag/internal/model"
	"github.com/xxxsen/medrag/internal/pkg/dbutil"
	appErr "github.com/xxxsen/medrag/internal/pkg/errors"
)

type ResourceRepo struct {
	db      *sql.DB
	dialect string
}

func NewResourceRepo(db *sql.DB, dialect string) *ResourceRepo {
	return &ResourceRepo{db: db, dialect: dialect}
}

// Create writes the row that marks a resource's chunks as committed.
func (r *ResourceRepo) Create(ctx context.Context, res *model.Resource) error {
	data := []map[string]interface{}{{
		"id":           res.ID,
		"file_name":    res.FileName,
		"mime_type":    res.MimeType,
		"byte_size":    res.ByteSize,
		"content_hash": res.ContentHash,
		"chunk_count":  res.ChunkCount,
		"ctime":        res.Ctime,
	}}
	sqlStr, args, err := builder.BuildInsert("resources", data)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(r.dialect, sqlStr, args)
	if _, err := r.db.ExecContext(ctx, sqlStr, args...); err != nil {
		if dbutil.IsConflict(err) {
			return appErr.ErrConflict
		}
		return err
	}
	return nil
}

func (r *ResourceRepo) GetByID(ctx context.Context, id string) (*model.Resource, error) {
	where := map[string]interface{}{"id": id}
	sqlStr, args, err := builder.BuildSelect("resources", where, resourceFields)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(r.dialect, sqlStr, args)
	var item model.Resource
	err = r.db.QueryRowContext(ctx, sqlStr, args...).Scan(&item.ID, &item.FileName, &item.MimeType, &item.ByteSize, &item.ContentHash, &item.ChunkCount, &item.Ctime)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErr.ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}

// ListByContentHash returns resources ingested from identical bytes, oldest
// first.
func (r *ResourceRepo) ListByContentHash(ctx context.Context, contentHash string) ([]model.Resource, error) {
	where := map[string]interface{}{
		"content_hash": contentHash,
		"_orderby":     "ctime asc",
	}
	sqlStr, args, err := builder.BuildSelect("resources", where, resourceFields)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(r.dialect, sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Resource
	for rows.Next() {
		var item model.Resource
		if err := rows.Scan(&item.ID, &item.FileName, &item.MimeType, &item.ByteSize, &item.ContentHash, &item.ChunkCount, &item.Ctime); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

var resourceFields = []string{"id", "file_name", "mime_type", "byte_size", "content_hash", "chunk_count", "ctime"}
