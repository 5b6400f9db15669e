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


// Package vectorizer implements the local TF-IDF embedder.
//
// A Model is fitted over the full document corpus and persisted alongside
// the vector index; the same model instance must be used for both indexing
// and querying, since its vocabulary defines the vector dimensions. The
// fit is fully deterministic: identical corpora produce identical models,
// and identical texts produce identical vectors.
package vectorizer
