// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package vectorindex

import (
	"sort"

	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/aetheris/core"
)

// Hit is a single nearest-neighbor result. Pos is the vector's position
// in the index, which doubles as its position in the snapshot's id map
// and text cache.
type Hit struct {
	Pos      int
	Distance float32
}

// Index is a flat L2 nearest-neighbor index. Vectors are scanned
// exhaustively and results are ordered by ascending squared Euclidean
// distance. The index is append-only; rebuilds produce a fresh one.
type Index struct {
	dim     int
	vectors [][]float32
}

// NewIndex creates an empty index for vectors of the given dimension.
func NewIndex(dim int) *Index {
	return &Index{dim: dim}
}

// Dim returns the vector dimension.
func (ix *Index) Dim() int {
	return ix.dim
}

// Count returns the number of indexed vectors.
func (ix *Index) Count() int {
	return len(ix.vectors)
}

// Add appends vectors to the index. All vectors must match the index
// dimension.
func (ix *Index) Add(vectors ...[]float32) error {
	for _, v := range vectors {
		if len(v) != ix.dim {
			return ErrDimensionMismatch
		}
	}
	ix.vectors = append(ix.vectors, vectors...)
	return nil
}

// Search returns the k nearest vectors to query, ordered by ascending
// distance. Ties break on lower position, so results are deterministic.
// An empty index returns no hits; that is not an error.
func (ix *Index) Search(query []float32, k int) ([]Hit, error) {
	if len(query) != ix.dim {
		return nil, ErrDimensionMismatch
	}
	if k <= 0 || len(ix.vectors) == 0 {
		return nil, nil
	}

	hits := make([]Hit, len(ix.vectors))
	for i, v := range ix.vectors {
		var dist float32
		for j := range v {
			d := v[j] - query[j]
			dist += d * d
		}
		hits[i] = Hit{Pos: i, Distance: dist}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Distance < hits[j].Distance
	})
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// Marshal serializes the index.
func (ix *Index) Marshal() []byte {
	size := varint.Int.Size(ix.dim) + varint.Int.Size(len(ix.vectors))
	for _, v := range ix.vectors {
		size += core.Float32SliceMUS.Size(v)
	}
	buf := make([]byte, size)
	n := varint.Int.Marshal(ix.dim, buf)
	n += varint.Int.Marshal(len(ix.vectors), buf[n:])
	for _, v := range ix.vectors {
		n += core.Float32SliceMUS.Marshal(v, buf[n:])
	}
	return buf
}

// UnmarshalIndex deserializes an index, checking that every vector
// matches the recorded dimension.
func UnmarshalIndex(data []byte) (*Index, error) {
	dim, n, err := varint.Int.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	count, m, err := varint.Int.Unmarshal(data[n:])
	if err != nil {
		return nil, err
	}
	n += m
	if dim < 0 || count < 0 {
		return nil, ErrIndexCorrupt
	}

	ix := &Index{dim: dim, vectors: make([][]float32, 0, count)}
	for i := 0; i < count; i++ {
		vec, m, err := core.Float32SliceMUS.Unmarshal(data[n:])
		if err != nil {
			return nil, err
		}
		n += m
		if len(vec) != dim {
			return nil, ErrIndexCorrupt
		}
		ix.vectors = append(ix.vectors, vec)
	}
	return ix, nil
}
