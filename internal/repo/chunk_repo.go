package repo

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/didi/gendry/builder"

	"github.com/xxxsen/medrag/internal/model"
	"github.com/xxxsen/medrag/internal/pkg/dbutil"
)

const chunkTable = "resource_chunks"

// insertBatchSize keeps a batch at 3000 bound parameters, well under the
// SQLite (32766) and postgres (65535) limits.
const insertBatchSize = 500

type vectorEncoder func(vec []float32) (interface{}, error)

type insertedChunk struct {
	id    string
	index int
}

// insertChunks writes the rows in fixed-size batches inside one transaction.
// The store may return generated rows in any order, so they are put back in
// chunk order.
func insertChunks(ctx context.Context, db *sql.DB, dialect string, resourceID string, chunks []model.EmbeddedChunk, encode vectorEncoder) ([]model.StoredChunk, error) {
	if len(chunks) == 0 {
		return nil, nil
	}
	now := time.Now().Unix()
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback()
	}()
	got := make([]insertedChunk, 0, len(chunks))
	for offset := 0; offset < len(chunks); offset += insertBatchSize {
		end := min(offset+insertBatchSize, len(chunks))
		data := make([]map[string]interface{}, 0, end-offset)
		for i := offset; i < end; i++ {
			vec, err := encode(chunks[i].Embedding)
			if err != nil {
				return nil, err
			}
			data = append(data, map[string]interface{}{
				"resource_id": resourceID,
				"chunk_index": i,
				"content":     chunks[i].Content,
				"page_number": nullablePage(chunks[i].PageNumber),
				"embedding":   vec,
				"ctime":       now,
			})
		}
		batch, err := insertChunkBatch(ctx, tx, dialect, data)
		if err != nil {
			return nil, fmt.Errorf("insert chunks [%d,%d): %w", offset, end, err)
		}
		got = append(got, batch...)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	sort.Slice(got, func(i, j int) bool { return got[i].index < got[j].index })

	out := make([]model.StoredChunk, 0, len(got))
	for _, item := range got {
		if item.index < 0 || item.index >= len(chunks) {
			return nil, fmt.Errorf("store returned unknown chunk index %d", item.index)
		}
		src := chunks[item.index]
		out = append(out, model.StoredChunk{
			ID:         item.id,
			ResourceID: resourceID,
			Content:    src.Content,
			PageNumber: src.PageNumber,
		})
	}
	return out, nil
}

func insertChunkBatch(ctx context.Context, tx *sql.Tx, dialect string, data []map[string]interface{}) ([]insertedChunk, error) {
	sqlStr, args, err := builder.BuildInsert(chunkTable, data)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(dialect, sqlStr+" RETURNING id, chunk_index", args)
	rows, err := tx.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]insertedChunk, 0, len(data))
	for rows.Next() {
		var item insertedChunk
		if err := rows.Scan(&item.id, &item.index); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func deleteOrphanChunks(ctx context.Context, db *sql.DB, dialect string, before int64) (int64, error) {
	query, args := dbutil.Finalize(dialect, `
		DELETE FROM resource_chunks
		WHERE ctime < ? AND resource_id NOT IN (SELECT id FROM resources)
	`, []interface{}{before})
	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func nullablePage(page *int) interface{} {
	if page == nil {
		return nil
	}
	return *page
}

func pageFromNull(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	page := int(v.Int64)
	return &page
}
