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


// Package retrieval implements the contextual retrieval-and-correlation
// pipeline.
//
// The Engine runs a linear pipeline per query:
//
//  1. Classify the query into an intent; inventory questions branch off
//     and are answered from the asset store alone.
//  2. Scan recent conversation turns against the trigger table and expand
//     the query with context terms.
//  3. Primary vector search on the enhanced query, plus a secondary
//     search on the expansion terms; merge secondary-first with stable
//     dedup and a bounded candidate list.
//  4. Resolve candidates to documents, preserving vector rank.
//  5. Apply the temporal filter when the query carries a time-scoped
//     phrase.
//  6. Partition by expansion-term relevance; when vector search missed
//     the established topic, run a recency-ordered lexical fallback so
//     context-established documents are still recalled.
//  7. Correlate the final documents against the asset inventory and
//     assemble the context bundle.
//
// When keyword-boosted and fallback documents compete for the final
// slots, vector-ranked matches keep their order ahead of lexical-fallback
// finds, which follow in trigger-table term order (most recent first
// within a term); non-matching documents come last.
//
// All per-query degradation is graceful: an empty index, zero search
// hits, or an unmatched asset filter shrink the bundle instead of
// failing the query.
package retrieval
