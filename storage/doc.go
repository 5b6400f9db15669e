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


// Package storage provides the storage abstraction layer for aetheris.
//
// This package defines repository interfaces that decouple storage
// implementation from the retrieval engine. It allows for different storage
// backends (BadgerDB, in-memory, etc.) to be used interchangeably.
//
// # Repositories
//
//   - DocumentRepository: the threat-intelligence article store, with
//     order-preserving batch fetch and recency-ordered substring search
//   - AssetRepository: the CMDB asset inventory
//   - LabelRepository: generated taxonomy labels, keyed by record reference
//
// # Ordering Guarantees
//
// GetDocuments preserves the order of the requested IDs exactly. The
// retrieval engine relies on this to keep vector-search rank intact when
// resolving IDs to full records; implementations must never substitute the
// store's native key order.
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support
// concurrent access from multiple goroutines.
package storage
