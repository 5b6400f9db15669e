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

import "errors"

var (
	// ErrIndexUnavailable indicates that snapshot artifacts are missing.
	ErrIndexUnavailable = errors.New("vector index unavailable")

	// ErrIndexCorrupt indicates snapshot artifacts that disagree with
	// each other or fail to deserialize.
	ErrIndexCorrupt = errors.New("vector index corrupt")

	// ErrVectorizerMismatch indicates a vectorizer model whose dimension
	// does not match the index it is coupled with.
	ErrVectorizerMismatch = errors.New("vectorizer does not match index")

	// ErrDimensionMismatch indicates a vector of the wrong dimension.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
)
