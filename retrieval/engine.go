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


package retrieval

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/poiesic/aetheris/ai"
	"github.com/poiesic/aetheris/core"
	"github.com/poiesic/aetheris/storage"
	"github.com/poiesic/aetheris/vectorindex"
)

const (
	// primaryK is the candidate count of the primary vector search.
	primaryK = 20
	// secondaryK is the candidate count of the expansion-term search.
	secondaryK = 10
	// mergeCap bounds the merged candidate list before record resolution.
	mergeCap = 15
	// finalDocumentCount is the size of the returned document set.
	finalDocumentCount = 5
	// minContextMatches is the match count below which the lexical
	// fallback kicks in.
	minContextMatches = 2
	// fallbackPerTerm bounds the substring search per lexical term.
	fallbackPerTerm = 3
)

// Engine runs the retrieval pipeline: classify, enhance, search, filter,
// boost, correlate, assemble. One Engine serves concurrent queries; all
// shared state is read-only or behind the snapshot handle.
type Engine struct {
	documents storage.DocumentRepository
	assets    storage.AssetRepository
	labels    storage.LabelRepository
	handle    *vectorindex.SnapshotHandle
	embedder  ai.Embedder
	generator ai.Generator
	logger    *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) error {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger
		return nil
	}
}

// WithGenerator sets the generation collaborator used by Answer.
// An Engine without a generator still serves RetrieveContext.
func WithGenerator(generator ai.Generator) Option {
	return func(e *Engine) error {
		e.generator = generator
		return nil
	}
}

// NewEngine creates a retrieval engine.
func NewEngine(
	documents storage.DocumentRepository,
	assets storage.AssetRepository,
	labels storage.LabelRepository,
	handle *vectorindex.SnapshotHandle,
	embedder ai.Embedder,
	opts ...Option,
) (*Engine, error) {
	if documents == nil {
		return nil, ErrDocumentRepositoryRequired
	}
	if assets == nil {
		return nil, ErrAssetRepositoryRequired
	}
	if labels == nil {
		return nil, ErrLabelRepositoryRequired
	}
	if handle == nil {
		return nil, ErrSnapshotHandleRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	e := &Engine{
		documents: documents,
		assets:    assets,
		labels:    labels,
		handle:    handle,
		embedder:  embedder,
		logger:    slog.Default(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}

	return e, nil
}

// RetrieveContext runs the full pipeline for one query and returns the
// structured context bundle for the generation collaborator.
func (e *Engine) RetrieveContext(ctx context.Context, query string, history []core.ConversationTurn) (*core.ContextBundle, error) {
	return e.RetrieveContextWithMonitor(ctx, query, history, nil)
}

// RetrieveContextWithMonitor runs the pipeline with monitoring hooks.
// The monitor receives callbacks at each stage.
func (e *Engine) RetrieveContextWithMonitor(ctx context.Context, query string, history []core.ConversationTurn, monitor RetrievalMonitor) (*core.ContextBundle, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	monitor.Start(query)

	intent := Classify(query)
	monitor.AfterClassification(intent)

	filters := ExtractFilters(query)
	filters.TimeCutoff = TimeCutoff(query, time.Now().UTC())

	// Inventory queries bypass document retrieval entirely
	if intent == core.IntentInventory {
		return e.inventoryBundle(ctx, query, filters, history, monitor)
	}

	enh := Enhance(query, history)
	monitor.AfterEnhancement(enh.EnhancedQuery, enh.Terms)

	docs, matchSet, err := e.retrieveDocuments(ctx, query, enh, filters, monitor)
	if err != nil {
		return nil, err
	}

	assets, sampleFallback, err := correlateAssets(ctx, docs, filters, e.assets)
	if err != nil {
		return nil, err
	}
	monitor.AfterCorrelation(assets, sampleFallback)

	refs := make([]string, 0, len(docs))
	for _, doc := range docs {
		refs = append(refs, RecordRef(doc.Id))
	}
	labels, err := e.labels.GetLabelsByRecordRefs(ctx, refs...)
	if err != nil {
		return nil, err
	}

	bundle := &core.ContextBundle{
		Intent:         intent,
		RawQuery:       query,
		EnhancedQuery:  enh.EnhancedQuery,
		ExpansionTerms: enh.Terms,
		Documents:      buildDocumentContexts(docs, matchSet),
		LabelSummary:   buildLabelHistogram(labels),
		Assets:         buildAssetTable(assets),
		AssetFallback:  sampleFallback,
		History:        buildHistoryExcerpt(history),
	}
	monitor.Finish(bundle)
	return bundle, nil
}

// Answer retrieves context and asks the generation collaborator for a
// response. On generation failure the already-computed bundle is returned
// alongside the error, so the caller can retry without recomputing
// retrieval.
func (e *Engine) Answer(ctx context.Context, query string, history []core.ConversationTurn) (string, *core.ContextBundle, error) {
	if e.generator == nil {
		return "", nil, ErrGeneratorRequired
	}

	bundle, err := e.RetrieveContext(ctx, query, history)
	if err != nil {
		return "", nil, err
	}

	answer, err := e.generator.Generate(ctx, ai.RenderPrompt(bundle))
	if err != nil {
		e.logger.Error("generation failed", "err", err)
		return "", bundle, err
	}
	return answer, bundle, nil
}

// retrieveDocuments runs the search-merge-filter-boost portion of the
// pipeline and returns the final documents plus the set of ids that
// matched an expansion term.
func (e *Engine) retrieveDocuments(ctx context.Context, rawQuery string, enh Enhancement, filters core.QueryFilters, monitor RetrievalMonitor) ([]*core.Document, map[core.ID]bool, error) {
	matchSet := make(map[core.ID]bool)

	resolved, err := e.searchAndResolve(ctx, enh, monitor)
	if err != nil {
		return nil, nil, err
	}

	// Temporal filter preserves relative order
	if !filters.TimeCutoff.IsZero() {
		kept := resolved[:0]
		for _, doc := range resolved {
			if !doc.ScrapedAt.Before(filters.TimeCutoff) {
				kept = append(kept, doc)
			}
		}
		resolved = kept
	}
	monitor.AfterTemporalFilter(resolved)

	// Without expansion terms the filtered list is simply truncated
	if len(enh.Terms) == 0 {
		if len(resolved) > finalDocumentCount {
			resolved = resolved[:finalDocumentCount]
		}
		return resolved, matchSet, nil
	}

	// Context-relevance partitioning: expansion-term matches rank ahead
	// of the rest, in their existing order
	var matching, other []*core.Document
	for _, doc := range resolved {
		if containsAnyTerm(doc, enh.Terms) {
			matching = append(matching, doc)
		} else {
			other = append(other, doc)
		}
	}

	// Lexical fallback: vector search missed the context topic, so pull
	// recent documents containing the lexical terms directly
	if len(matching) < minContextMatches {
		seen := make(map[core.ID]bool, len(matching))
		for _, doc := range matching {
			seen[doc.Id] = true
		}
		for _, term := range enh.LexicalTerms {
			found, err := e.documents.SearchText(ctx, term, fallbackPerTerm)
			if err != nil {
				return nil, nil, err
			}
			for _, doc := range found {
				if seen[doc.Id] {
					continue
				}
				if !filters.TimeCutoff.IsZero() && doc.ScrapedAt.Before(filters.TimeCutoff) {
					continue
				}
				seen[doc.Id] = true
				matching = append(matching, doc)
			}
		}
		// Drop fallback finds from the non-matching partition
		kept := other[:0]
		for _, doc := range other {
			if !seen[doc.Id] {
				kept = append(kept, doc)
			}
		}
		other = kept
		monitor.AfterLexicalFallback(matching)
	}

	final := make([]*core.Document, 0, len(matching)+len(other))
	final = append(final, matching...)
	final = append(final, other...)
	if len(final) > finalDocumentCount {
		final = final[:finalDocumentCount]
	}
	for _, doc := range matching {
		matchSet[doc.Id] = true
	}
	return final, matchSet, nil
}

// searchAndResolve runs the primary and secondary vector searches, merges
// and dedupes the candidates, and resolves them to documents preserving
// merged rank order. An absent or empty index yields no documents without
// error.
func (e *Engine) searchAndResolve(ctx context.Context, enh Enhancement, monitor RetrievalMonitor) ([]*core.Document, error) {
	snap := e.handle.Snapshot()
	if snap == nil || snap.Index.Count() == 0 {
		e.logger.Debug("vector index empty, skipping document search")
		return nil, nil
	}

	queryVec, err := e.embedder.EmbedText(ctx, enh.EnhancedQuery)
	if err != nil {
		return nil, err
	}
	if len(queryVec) != snap.Index.Dim() {
		return nil, vectorindex.ErrVectorizerMismatch
	}

	primary, err := snap.Search(queryVec, primaryK)
	if err != nil {
		return nil, err
	}
	monitor.AfterPrimarySearch(resultIDs(primary))

	var secondary []core.RetrievalResult
	if len(enh.Terms) > 0 {
		termVec, err := e.embedder.EmbedText(ctx, strings.Join(enh.Terms, " "))
		if err != nil {
			return nil, err
		}
		if len(termVec) != snap.Index.Dim() {
			return nil, vectorindex.ErrVectorizerMismatch
		}
		secondary, err = snap.Search(termVec, secondaryK)
		if err != nil {
			return nil, err
		}
		monitor.AfterSecondarySearch(resultIDs(secondary))
	}

	// Merge: secondary first, stable dedupe, bounded
	merged := make([]core.ID, 0, mergeCap)
	seen := make(map[core.ID]bool, mergeCap)
	for _, results := range [][]core.RetrievalResult{secondary, primary} {
		for _, r := range results {
			if len(merged) == mergeCap {
				break
			}
			if seen[r.DocumentId] {
				continue
			}
			seen[r.DocumentId] = true
			merged = append(merged, r.DocumentId)
		}
	}
	monitor.AfterMerge(merged)

	// Batch fetch preserves the merged rank order
	return e.documents.GetDocuments(ctx, merged...)
}

// inventoryBundle serves inventory-intent queries from the asset store
// alone; document retrieval is bypassed.
func (e *Engine) inventoryBundle(ctx context.Context, query string, filters core.QueryFilters, history []core.ConversationTurn, monitor RetrievalMonitor) (*core.ContextBundle, error) {
	assets, err := e.assets.FilterAssets(ctx, storage.AssetFilter{
		Location:   filters.Location,
		Department: filters.Department,
	})
	if err != nil {
		return nil, err
	}

	sampleFallback := false
	if len(assets) == 0 {
		assets, err = e.assets.SampleAssets(ctx, assetSampleSize)
		if err != nil {
			return nil, err
		}
		sampleFallback = true
	}
	monitor.AfterCorrelation(assets, sampleFallback)

	bundle := &core.ContextBundle{
		Intent:        core.IntentInventory,
		RawQuery:      query,
		EnhancedQuery: query,
		AssetCounts:   countAssetTypes(assets),
		Assets:        buildAssetTable(assets),
		AssetFallback: sampleFallback,
		History:       buildHistoryExcerpt(history),
	}
	monitor.Finish(bundle)
	return bundle, nil
}

func resultIDs(results []core.RetrievalResult) []core.ID {
	ids := make([]core.ID, 0, len(results))
	for _, r := range results {
		ids = append(ids, r.DocumentId)
	}
	return ids
}
