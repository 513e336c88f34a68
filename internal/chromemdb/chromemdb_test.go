package chromemdb

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/philippgille/chromem-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contract-discovery/internal/config"
)

const testEncryptionKey = "0123456789abcdef0123456789abcdef"

func newTestManager(t *testing.T, dir string) *VectorDBManager {
	t.Helper()
	m, err := NewVectorDBManager(config.VectorConfig{
		Path:          dir,
		InMemory:      true,
		EncryptionKey: testEncryptionKey,
	})
	require.NoError(t, err)
	return m
}

func TestExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	m := newTestManager(t, dir)
	docs := []chromem.Document{
		{ID: "p-1", Content: "Highway resurfacing", Embedding: []float32{1, 0}},
		{ID: "p-2", Content: "Street lighting", Embedding: []float32{0, 1}},
	}
	require.NoError(t, m.AddDocuments(ctx, CollectionContracts, docs))

	count, err := m.Count(CollectionContracts)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	require.NoError(t, m.Export(ctx, CollectionContracts))

	restored := newTestManager(t, t.TempDir())
	require.NoError(t, restored.Import(ctx, filepath.Join(dir, CollectionContracts+".chromem")))

	count, err = restored.Count(CollectionContracts)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	vector, err := restored.Vector(ctx, CollectionContracts, "p-1")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0}, vector)
}

func TestExport_RequiresEncryptionKey(t *testing.T) {
	m, err := NewVectorDBManager(config.VectorConfig{Path: t.TempDir(), InMemory: true})
	require.NoError(t, err)
	assert.Error(t, m.Export(context.Background(), CollectionContracts))
}

func TestDelete_RemovesPoint(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, t.TempDir())

	docs := []chromem.Document{{ID: "p-1", Content: "Cloud hosting", Embedding: []float32{1, 0}}}
	require.NoError(t, m.AddDocuments(ctx, CollectionCapabilities, docs))
	require.NoError(t, m.Delete(ctx, CollectionCapabilities, "p-1"))

	count, err := m.Count(CollectionCapabilities)
	require.NoError(t, err)
	assert.Zero(t, count)
}
