package filestore

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/medrag/internal/config"
)

func TestNewNilConfigDisablesArchive(t *testing.T) {
	store, err := New(nil)
	require.NoError(t, err)
	require.Nil(t, store)
}

func TestNewUnknownType(t *testing.T) {
	_, err := New(&config.ArchiveConfig{Type: "ftp", Data: map[string]interface{}{}})
	require.Error(t, err)
}

func TestLocalStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store, err := New(&config.ArchiveConfig{Type: "local", Data: map[string]interface{}{"dir": dir}})
	require.NoError(t, err)
	require.Equal(t, "local", store.Type())

	ctx := context.Background()
	require.NoError(t, SaveBytes(ctx, store, "abc.pdf", []byte("%PDF-1.4 body")))

	rc, err := store.Open(ctx, "abc.pdf")
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.Equal(t, "%PDF-1.4 body", string(data))
}

func TestLocalStoreRejectsPathKeys(t *testing.T) {
	store, err := New(&config.ArchiveConfig{Type: "local", Data: map[string]interface{}{"dir": t.TempDir()}})
	require.NoError(t, err)
	require.Error(t, SaveBytes(context.Background(), store, "../escape", []byte("x")))
	require.Error(t, SaveBytes(context.Background(), store, "", []byte("x")))
}
