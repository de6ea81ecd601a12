package repo

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/xxxsen/medrag/internal/config"
	"github.com/xxxsen/medrag/internal/db"
	"github.com/xxxsen/medrag/internal/model"
	"github.com/xxxsen/medrag/internal/pkg/dbutil"
)

func TestPGChunkRepo(t *testing.T) {
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}
	conn, err := db.Open(config.DatabaseConfig{Type: dbutil.DialectPostgres, DSN: dsn})
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, db.ApplyMigrations(conn, dbutil.DialectPostgres, 3))

	ctx := context.Background()
	resourceID := "test-" + uuid.NewString()
	t.Cleanup(func() {
		_, _ = conn.Exec("DELETE FROM resource_chunks WHERE resource_id = $1", resourceID)
	})

	index := NewVectorIndex(conn, dbutil.DialectPostgres)
	page := 3
	stored, err := index.Insert(ctx, resourceID, []model.EmbeddedChunk{
		{ChunkInput: model.ChunkInput{Content: "alpha", PageNumber: &page}, Embedding: []float32{1, 0, 0}},
		{ChunkInput: model.ChunkInput{Content: "beta"}, Embedding: []float32{0, 1, 0}},
	})
	require.NoError(t, err)
	require.Len(t, stored, 2)
	require.Equal(t, "alpha", stored[0].Content)
	require.Equal(t, "beta", stored[1].Content)

	got, err := index.Query(ctx, []float32{0.9, 0.1, 0}, 2, &ChunkFilter{ResourceIDs: []string{resourceID}})
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "alpha", got[0].Content)
	require.Equal(t, 3, *got[0].PageNumber)
	require.Nil(t, got[1].PageNumber)
	require.Greater(t, got[0].Similarity, got[1].Similarity)
}
