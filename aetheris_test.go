package aetheris

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/aetheris/core"
	"github.com/poiesic/aetheris/vectorindex"
)

func TestNewDatabase(t *testing.T) {
	t.Run("create new database", func(t *testing.T) {
		tmpDir := filepath.Join(t.TempDir(), "test_db")
		db, err := NewDatabase(tmpDir)
		require.NoError(t, err)
		require.NotNil(t, db)
		defer db.Close()

		// Verify components are initialized
		assert.NotNil(t, db.DocumentRepository())
		assert.NotNil(t, db.AssetRepository())
		assert.NotNil(t, db.LabelRepository())
		assert.NotNil(t, db.SnapshotHandle())
		assert.NotNil(t, db.backend)
		assert.NotNil(t, db.logger)

		// No index has been built yet
		assert.Nil(t, db.SnapshotHandle().Snapshot())
	})

	t.Run("error with invalid path", func(t *testing.T) {
		// Try to create a database at a file path instead of directory
		tmpFile := filepath.Join(t.TempDir(), "not_a_dir")
		err := os.WriteFile(tmpFile, []byte("test"), 0644)
		require.NoError(t, err)

		db, err := NewDatabase(tmpFile)
		assert.Error(t, err)
		assert.Nil(t, db)
	})

	t.Run("error with partial snapshot", func(t *testing.T) {
		tmpDir := filepath.Join(t.TempDir(), "test_db")
		indexDir := tmpDir + ".index"
		require.NoError(t, os.MkdirAll(indexDir, 0755))
		require.NoError(t, os.WriteFile(
			filepath.Join(indexDir, vectorindex.IndexFile), []byte{0x00}, 0644))

		db, err := NewDatabase(tmpDir)
		assert.ErrorIs(t, err, vectorindex.ErrIndexCorrupt)
		assert.Nil(t, db)
	})
}

func TestDatabase_Close(t *testing.T) {
	tmpDir := t.TempDir()
	db, err := NewDatabase(tmpDir, WithInMemory())
	require.NoError(t, err)
	require.NotNil(t, db)

	// Close the database
	err = db.Close()
	assert.NoError(t, err)
}

func TestDatabase_FactoryMethods(t *testing.T) {
	db, err := NewDatabase(t.TempDir(), WithInMemory())
	require.NoError(t, err)
	require.NotNil(t, db)
	defer db.Close()

	t.Run("can create index builder", func(t *testing.T) {
		builder, err := db.NewIndexBuilder()
		require.NoError(t, err)
		require.NotNil(t, builder)
		builder.Release()
	})

	t.Run("can create engine", func(t *testing.T) {
		engine, err := db.NewEngine()
		require.NoError(t, err)
		require.NotNil(t, engine)
	})
}

func TestDatabase_IndexAndQuery(t *testing.T) {
	db, err := NewDatabase(t.TempDir(), WithInMemory())
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	now := time.Now().UTC()
	_, err = db.DocumentRepository().AddDocuments(ctx,
		&core.Document{Title: "Ransomware hits logistics", Text: "Backups encrypted by the intruders.",
			Source: "feed", URL: "https://intel.example/r1", ScrapedAt: now.Add(-time.Hour)},
		&core.Document{Title: "Phishing against finance teams", Text: "Credential lures via invoice mails.",
			Source: "feed", URL: "https://intel.example/p1", ScrapedAt: now.Add(-2 * time.Hour)},
	)
	require.NoError(t, err)

	builder, err := db.NewIndexBuilder()
	require.NoError(t, err)
	defer builder.Release()

	stats, err := builder.Build(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Documents)

	engine, err := db.NewEngine()
	require.NoError(t, err)

	bundle, err := engine.RetrieveContext(ctx, "what is the ransomware situation?", nil)
	require.NoError(t, err)
	require.NotEmpty(t, bundle.Documents)
	assert.Equal(t, "Ransomware hits logistics", bundle.Documents[0].Title)
}

func TestDatabase_SnapshotPersistsAcrossOpens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db")

	db, err := NewDatabase(path)
	require.NoError(t, err)

	ctx := context.Background()
	_, err = db.DocumentRepository().AddDocuments(ctx,
		&core.Document{Title: "Fortinet advisory", Text: "FortiGate VPN fix available.",
			Source: "feed", URL: "https://intel.example/f1", ScrapedAt: time.Now().UTC().Add(-time.Hour)})
	require.NoError(t, err)

	builder, err := db.NewIndexBuilder()
	require.NoError(t, err)
	_, err = builder.Build(ctx)
	require.NoError(t, err)
	builder.Release()
	require.NoError(t, db.Close())

	// Reopen: the persisted generation comes back without a rebuild
	db, err = NewDatabase(path)
	require.NoError(t, err)
	defer db.Close()

	snap := db.SnapshotHandle().Snapshot()
	require.NotNil(t, snap)
	assert.Equal(t, 1, snap.Len())
}
