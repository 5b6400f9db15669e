package vectorindex

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/aetheris/core"
	"github.com/poiesic/aetheris/vectorizer"
)

func buildTestSnapshot(t *testing.T) *Snapshot {
	t.Helper()
	corpus := []string{
		"WebDAV zero-day exploited against Microsoft servers",
		"Phishing campaign hits finance teams",
		"Ransomware encrypts hospital records",
	}
	model := vectorizer.Fit(corpus, 0)

	ix := NewIndex(model.Dim())
	ids := make([]core.ID, len(corpus))
	for i, text := range corpus {
		require.NoError(t, ix.Add(model.Transform(text)))
		ids[i] = core.IDFromContent(text)
	}
	return &Snapshot{Index: ix, IDMap: ids, Texts: corpus, Model: model}
}

func TestSnapshotSearchResolvesIDs(t *testing.T) {
	s := buildTestSnapshot(t)
	require.NoError(t, s.Validate())

	query := s.Model.Transform("webdav microsoft exploit")
	results, err := s.Search(query, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, s.IDMap[0], results[0].DocumentId)
	assert.Equal(t, 0, results[0].Rank)
	assert.Equal(t, 1, results[1].Rank)
	assert.LessOrEqual(t, results[0].Score, results[1].Score)
}

func TestSnapshotValidateLengthMismatch(t *testing.T) {
	s := buildTestSnapshot(t)
	s.IDMap = s.IDMap[:1]

	assert.ErrorIs(t, s.Validate(), ErrIndexCorrupt)
}

func TestSnapshotValidateVectorizerMismatch(t *testing.T) {
	s := buildTestSnapshot(t)
	s.Model = vectorizer.Fit([]string{"one two"}, 0)

	assert.ErrorIs(t, s.Validate(), ErrVectorizerMismatch)
}

func TestSnapshotWriteLoadRoundTrip(t *testing.T) {
	s := buildTestSnapshot(t)
	dir := t.TempDir()

	require.NoError(t, WriteSnapshot(s, dir))

	// All four artifacts present, no temp files left behind
	for _, name := range []string{IndexFile, IDMapFile, TextsFile, VectorizerFile} {
		_, err := os.Stat(filepath.Join(dir, name))
		require.NoError(t, err)
		_, err = os.Stat(filepath.Join(dir, name+".tmp"))
		assert.True(t, os.IsNotExist(err))
	}

	got, err := LoadSnapshot(dir)
	require.NoError(t, err)
	assert.Equal(t, s.IDMap, got.IDMap)
	assert.Equal(t, s.Texts, got.Texts)
	assert.Equal(t, s.Index.Count(), got.Index.Count())

	query := got.Model.Transform("ransomware hospital")
	results, err := got.Search(query, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, s.IDMap[2], results[0].DocumentId)
}

func TestLoadSnapshotMissingDir(t *testing.T) {
	_, err := LoadSnapshot(filepath.Join(t.TempDir(), "nonexistent"))
	assert.ErrorIs(t, err, ErrIndexUnavailable)
}

func TestLoadSnapshotMissingArtifact(t *testing.T) {
	s := buildTestSnapshot(t)
	dir := t.TempDir()
	require.NoError(t, WriteSnapshot(s, dir))
	require.NoError(t, os.Remove(filepath.Join(dir, IDMapFile)))

	_, err := LoadSnapshot(dir)
	assert.ErrorIs(t, err, ErrIndexUnavailable)
}

func TestLoadSnapshotCorruptArtifact(t *testing.T) {
	s := buildTestSnapshot(t)
	dir := t.TempDir()
	require.NoError(t, WriteSnapshot(s, dir))
	require.NoError(t, os.WriteFile(filepath.Join(dir, IndexFile), []byte("garbage"), 0644))

	_, err := LoadSnapshot(dir)
	assert.ErrorIs(t, err, ErrIndexCorrupt)
}

func TestSnapshotHandleSwap(t *testing.T) {
	h := NewSnapshotHandle(nil)
	assert.Nil(t, h.Snapshot())

	s := buildTestSnapshot(t)
	h.Swap(s)
	assert.Same(t, s, h.Snapshot())

	s2 := buildTestSnapshot(t)
	h.Swap(s2)
	assert.Same(t, s2, h.Snapshot())
}
