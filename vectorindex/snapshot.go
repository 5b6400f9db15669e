package vectorindex

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/poiesic/aetheris/core"
	"github.com/poiesic/aetheris/vectorizer"
)

// Artifact file names within a snapshot directory. The four files are
// position-coupled: vector i in the index corresponds to idMap[i] and
// texts[i], and the vectorizer model defines the vector dimensions.
const (
	IndexFile      = "index.bin"
	IDMapFile      = "idmap.bin"
	TextsFile      = "texts.bin"
	VectorizerFile = "vectorizer.bin"
)

// Snapshot is an immutable view over one generation of the vector index
// and its coupled artifacts. Readers obtain a snapshot from a
// SnapshotHandle and use it for the whole query; rebuilds never mutate a
// published snapshot.
type Snapshot struct {
	Index *Index
	IDMap []core.ID
	Texts []string
	Model *vectorizer.Model
}

// Validate checks the positional coupling between the artifacts.
func (s *Snapshot) Validate() error {
	if s == nil || s.Index == nil {
		return ErrIndexUnavailable
	}
	if s.Index.Count() != len(s.IDMap) || s.Index.Count() != len(s.Texts) {
		return fmt.Errorf("%w: index has %d vectors, id map %d entries, text cache %d entries",
			ErrIndexCorrupt, s.Index.Count(), len(s.IDMap), len(s.Texts))
	}
	if s.Model != nil && s.Model.Dim() > 0 && s.Model.Dim() != s.Index.Dim() {
		return fmt.Errorf("%w: model dimension %d, index dimension %d",
			ErrVectorizerMismatch, s.Model.Dim(), s.Index.Dim())
	}
	return nil
}

// Len returns the number of indexed documents.
func (s *Snapshot) Len() int {
	return len(s.IDMap)
}

// TextAt returns the cached raw text for an index position.
func (s *Snapshot) TextAt(pos int) string {
	if pos < 0 || pos >= len(s.Texts) {
		return ""
	}
	return s.Texts[pos]
}

// Search runs a nearest-neighbor query and resolves index positions to
// document IDs. Results are ranked by ascending distance.
func (s *Snapshot) Search(query []float32, k int) ([]core.RetrievalResult, error) {
	hits, err := s.Index.Search(query, k)
	if err != nil {
		return nil, err
	}
	results := make([]core.RetrievalResult, 0, len(hits))
	for i, hit := range hits {
		if hit.Pos >= len(s.IDMap) {
			return nil, ErrIndexCorrupt
		}
		results = append(results, core.RetrievalResult{
			DocumentId: s.IDMap[hit.Pos],
			Rank:       i,
			Score:      hit.Distance,
		})
	}
	return results, nil
}

// WriteSnapshot persists all four artifacts to dir. Each file is written
// to a temp name and renamed into place, so a crash mid-write never
// leaves a half-updated generation visible under the final names.
func WriteSnapshot(s *Snapshot, dir string) error {
	if err := s.Validate(); err != nil {
		return err
	}
	if s.Model == nil {
		s.Model = vectorizer.Fit(nil, 0)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	idMapBuf := make([]byte, core.IDSliceMUS.Size(s.IDMap))
	core.IDSliceMUS.Marshal(s.IDMap, idMapBuf)
	textsBuf := make([]byte, core.StringSliceMUS.Size(s.Texts))
	core.StringSliceMUS.Marshal(s.Texts, textsBuf)

	artifacts := []struct {
		name string
		data []byte
	}{
		{IndexFile, s.Index.Marshal()},
		{IDMapFile, idMapBuf},
		{TextsFile, textsBuf},
		{VectorizerFile, s.Model.Marshal()},
	}
	for _, a := range artifacts {
		if err := writeAtomic(filepath.Join(dir, a.name), a.data); err != nil {
			return err
		}
	}
	return nil
}

// LoadSnapshot reads and validates the four artifacts from dir. A missing
// directory or file yields ErrIndexUnavailable; artifacts that disagree
// with each other yield ErrIndexCorrupt or ErrVectorizerMismatch.
func LoadSnapshot(dir string) (*Snapshot, error) {
	indexData, err := readArtifact(filepath.Join(dir, IndexFile))
	if err != nil {
		return nil, err
	}
	idMapData, err := readArtifact(filepath.Join(dir, IDMapFile))
	if err != nil {
		return nil, err
	}
	textsData, err := readArtifact(filepath.Join(dir, TextsFile))
	if err != nil {
		return nil, err
	}
	modelData, err := readArtifact(filepath.Join(dir, VectorizerFile))
	if err != nil {
		return nil, err
	}

	index, err := UnmarshalIndex(indexData)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIndexCorrupt, err)
	}
	idMap, _, err := core.IDSliceMUS.Unmarshal(idMapData)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIndexCorrupt, err)
	}
	texts, _, err := core.StringSliceMUS.Unmarshal(textsData)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIndexCorrupt, err)
	}
	model, err := vectorizer.Unmarshal(modelData)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIndexCorrupt, err)
	}

	s := &Snapshot{Index: index, IDMap: idMap, Texts: texts, Model: model}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func readArtifact(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrIndexUnavailable, path)
		}
		return nil, err
	}
	return data, nil
}

func writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}
