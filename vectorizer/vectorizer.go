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


package vectorizer

import (
	"math"
	"os"
	"sort"
	"strings"
	"unicode"

	"github.com/poiesic/aetheris/core"
)

// DefaultMaxFeatures caps the vocabulary size of a fitted model.
const DefaultMaxFeatures = 2048

// Model is a fitted TF-IDF vectorizer. The vocabulary is stored in sorted
// order; a term's position in the slice is its vector dimension. Fitting
// the same corpus always produces the same model, and Transform of the
// same text against the same model always produces the same vector.
type Model struct {
	vocabulary []string
	terms      map[string]int
	idf        []float32
}

// Fit builds a model from a corpus. Terms are ranked by total corpus
// frequency and the top maxFeatures survive (ties broken alphabetically);
// the surviving vocabulary is then sorted so dimensions are stable. An
// empty corpus yields an empty model with Dim() == 0.
func Fit(corpus []string, maxFeatures int) *Model {
	if maxFeatures <= 0 {
		maxFeatures = DefaultMaxFeatures
	}

	termCounts := make(map[string]int)
	docFreq := make(map[string]int)
	for _, text := range corpus {
		tokens := tokenize(text)
		seen := make(map[string]bool, len(tokens))
		for _, tok := range tokens {
			termCounts[tok]++
			if !seen[tok] {
				docFreq[tok]++
				seen[tok] = true
			}
		}
	}

	terms := make([]string, 0, len(termCounts))
	for term := range termCounts {
		terms = append(terms, term)
	}
	sort.Slice(terms, func(i, j int) bool {
		if termCounts[terms[i]] != termCounts[terms[j]] {
			return termCounts[terms[i]] > termCounts[terms[j]]
		}
		return terms[i] < terms[j]
	})
	if len(terms) > maxFeatures {
		terms = terms[:maxFeatures]
	}
	sort.Strings(terms)

	m := &Model{
		vocabulary: terms,
		terms:      make(map[string]int, len(terms)),
		idf:        make([]float32, len(terms)),
	}
	n := float64(len(corpus))
	for i, term := range terms {
		m.terms[term] = i
		// Smoothed inverse document frequency
		m.idf[i] = float32(math.Log((1+n)/(1+float64(docFreq[term]))) + 1)
	}
	return m
}

// Dim returns the vector dimension of the model.
func (m *Model) Dim() int {
	return len(m.vocabulary)
}

// Transform maps text to an L2-normalized TF-IDF vector. Terms outside
// the vocabulary are ignored; a text with no known terms (or an empty
// model) yields an all-zero vector.
func (m *Model) Transform(text string) []float32 {
	vec := make([]float32, len(m.vocabulary))
	if len(m.vocabulary) == 0 {
		return vec
	}

	for _, tok := range tokenize(text) {
		if i, ok := m.terms[tok]; ok {
			vec[i] += m.idf[i]
		}
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		inv := float32(1 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= inv
		}
	}
	return vec
}

// Marshal serializes the model.
func (m *Model) Marshal() []byte {
	size := core.StringSliceMUS.Size(m.vocabulary) + core.Float32SliceMUS.Size(m.idf)
	buf := make([]byte, size)
	n := core.StringSliceMUS.Marshal(m.vocabulary, buf)
	core.Float32SliceMUS.Marshal(m.idf, buf[n:])
	return buf
}

// Unmarshal deserializes a model. Returns ErrModelCorrupt when the
// vocabulary and idf table disagree in length.
func Unmarshal(data []byte) (*Model, error) {
	vocab, n, err := core.StringSliceMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	idf, _, err := core.Float32SliceMUS.Unmarshal(data[n:])
	if err != nil {
		return nil, err
	}
	if len(vocab) != len(idf) {
		return nil, ErrModelCorrupt
	}

	m := &Model{
		vocabulary: vocab,
		terms:      make(map[string]int, len(vocab)),
		idf:        idf,
	}
	for i, term := range vocab {
		m.terms[term] = i
	}
	return m, nil
}

// Save writes the model to a file.
func (m *Model) Save(path string) error {
	return os.WriteFile(path, m.Marshal(), 0644)
}

// Load reads a model from a file.
func Load(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Unmarshal(data)
}

// tokenize lowercases text and splits it into alphanumeric word tokens,
// dropping single-character tokens.
func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	tokens := fields[:0]
	for _, f := range fields {
		if len(f) >= 2 {
			tokens = append(tokens, f)
		}
	}
	return tokens
}
