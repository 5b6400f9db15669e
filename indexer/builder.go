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


package indexer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/aetheris/ai"
	"github.com/poiesic/aetheris/core"
	"github.com/poiesic/aetheris/storage"
	"github.com/poiesic/aetheris/vectorindex"
	"github.com/poiesic/aetheris/vectorizer"
)

// Builder rebuilds the vector index from the document store and publishes
// the new generation to a snapshot handle.
type Builder struct {
	documents   storage.DocumentRepository
	handle      *vectorindex.SnapshotHandle
	snapshotDir string
	pool        *ants.Pool
	embedder    ai.Embedder // nil means the local TF-IDF vectorizer
	maxFeatures int
	batchSize   int
	progress    io.Writer
	progressMu  sync.Mutex
	logger      *slog.Logger
}

// Option configures a Builder.
type Option func(*Builder) error

// WithPoolSize sets the worker pool size for concurrent batch processing.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(b *Builder) error {
		if size < 1 {
			size = 1
		}
		if b.pool != nil {
			b.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		b.pool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(b *Builder) error {
		if logger == nil {
			logger = slog.Default()
		}
		b.logger = logger
		return nil
	}
}

// WithMaxFeatures caps the fitted vocabulary size of the local vectorizer.
func WithMaxFeatures(n int) Option {
	return func(b *Builder) error {
		b.maxFeatures = n
		return nil
	}
}

// WithBatchSize sets the number of documents per worker batch.
// Default is 128.
func WithBatchSize(n int) Option {
	return func(b *Builder) error {
		if n < 1 {
			n = 1
		}
		b.batchSize = n
		return nil
	}
}

// WithRemoteEmbedder switches the build to a remote embedding model
// instead of the local TF-IDF vectorizer. The published snapshot carries
// an empty vectorizer model; queries must use the same remote embedder.
func WithRemoteEmbedder(embedder ai.Embedder) Option {
	return func(b *Builder) error {
		b.embedder = embedder
		return nil
	}
}

// WithProgress streams per-batch progress lines to w.
func WithProgress(w io.Writer) Option {
	return func(b *Builder) error {
		b.progress = w
		return nil
	}
}

// NewBuilder creates an index builder. An empty snapshotDir skips artifact
// persistence; the generation is only published in memory.
func NewBuilder(
	documents storage.DocumentRepository,
	handle *vectorindex.SnapshotHandle,
	snapshotDir string,
	opts ...Option,
) (*Builder, error) {
	if documents == nil {
		return nil, ErrDocumentRepositoryRequired
	}
	if handle == nil {
		return nil, ErrSnapshotHandleRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	b := &Builder{
		documents:   documents,
		handle:      handle,
		snapshotDir: snapshotDir,
		pool:        pool,
		batchSize:   128,
		logger:      slog.Default(),
	}

	// Apply options
	for _, opt := range opts {
		if optErr := opt(b); optErr != nil {
			b.Release()
			return nil, optErr
		}
	}

	return b, nil
}

// Stats summarizes a completed build.
type Stats struct {
	Documents int
	Dim       int
	Elapsed   time.Duration
}

// Build rebuilds the index over the full document store. The snapshot is
// written to disk before the live handle is swapped, so a failure at any
// point leaves the previous generation untouched.
func (b *Builder) Build(ctx context.Context) (*Stats, error) {
	started := time.Now()

	docs, err := b.documents.AllDocuments(ctx)
	if err != nil {
		return nil, err
	}

	ids := make([]core.ID, len(docs))
	texts := make([]string, len(docs))
	for i, doc := range docs {
		ids[i] = doc.Id
		texts[i] = doc.Title + " " + doc.Text
	}

	var model *vectorizer.Model
	var vectors [][]float32
	if b.embedder != nil {
		model = vectorizer.Fit(nil, 0)
		vectors, err = b.embedRemote(ctx, texts)
		if err != nil {
			return nil, err
		}
	} else {
		model = vectorizer.Fit(texts, b.maxFeatures)
		vectors = b.transformLocal(model, texts)
	}

	dim := model.Dim()
	if len(vectors) > 0 {
		dim = len(vectors[0])
	}
	index := vectorindex.NewIndex(dim)
	if err := index.Add(vectors...); err != nil {
		return nil, err
	}

	snap := &vectorindex.Snapshot{Index: index, IDMap: ids, Texts: texts, Model: model}
	if err := snap.Validate(); err != nil {
		return nil, err
	}
	if b.snapshotDir != "" {
		if err := vectorindex.WriteSnapshot(snap, b.snapshotDir); err != nil {
			return nil, err
		}
	}
	b.handle.Swap(snap)

	stats := &Stats{Documents: len(docs), Dim: dim, Elapsed: time.Since(started)}
	b.logger.Info("index rebuilt", "documents", stats.Documents, "dim", stats.Dim, "elapsed", stats.Elapsed)
	return stats, nil
}

// ChangedSince reports whether any document was scraped in [since, now).
// Callers use it to skip a rebuild when nothing new arrived. Repositories
// without range scans always report a change.
func (b *Builder) ChangedSince(ctx context.Context, since time.Time) (bool, error) {
	ranger, ok := b.documents.(storage.ScrapedRange)
	if !ok {
		return true, nil
	}
	docs, err := ranger.GetDocumentsByScrapedRange(ctx, since, time.Now().UTC())
	if err != nil {
		return false, err
	}
	return len(docs) > 0, nil
}

// Release releases the worker pool. The builder should not be used after
// calling Release.
func (b *Builder) Release() {
	if b.pool != nil {
		b.pool.Release()
	}
}

// transformLocal vectorizes texts with the fitted model on the worker
// pool. Batches write disjoint slice ranges, so no locking is needed.
func (b *Builder) transformLocal(model *vectorizer.Model, texts []string) [][]float32 {
	vectors := make([][]float32, len(texts))
	var wg sync.WaitGroup
	var done atomic.Int64

	for start := 0; start < len(texts); start += b.batchSize {
		end := min(start+b.batchSize, len(texts))
		wg.Add(1)
		task := func() {
			defer wg.Done()
			for i := start; i < end; i++ {
				vectors[i] = model.Transform(texts[i])
			}
			b.report(done.Add(int64(end-start)), len(texts))
		}
		if err := b.pool.Submit(task); err != nil {
			// Pool unavailable; fall back to the calling goroutine
			task()
		}
	}
	wg.Wait()
	return vectors
}

// embedRemote embeds texts batch-wise through the remote embedder on the
// worker pool. The first batch failure aborts the build.
func (b *Builder) embedRemote(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	var wg sync.WaitGroup
	var done atomic.Int64

	var mu sync.Mutex
	var firstErr error

	for start := 0; start < len(texts); start += b.batchSize {
		end := min(start+b.batchSize, len(texts))
		wg.Add(1)
		task := func() {
			defer wg.Done()
			batch, err := b.embedder.EmbedTexts(ctx, texts[start:end])
			if err != nil || len(batch) != end-start {
				if err == nil {
					err = fmt.Errorf("got %d vectors for %d texts", len(batch), end-start)
				}
				mu.Lock()
				if firstErr == nil {
					firstErr = fmt.Errorf("%w: %w", ErrEmbeddingFailed, err)
				}
				mu.Unlock()
				return
			}
			copy(vectors[start:end], batch)
			b.report(done.Add(int64(end-start)), len(texts))
		}
		if err := b.pool.Submit(task); err != nil {
			task()
		}
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return vectors, nil
}

// report writes a progress line. Pool workers report concurrently, so
// writes to the caller-supplied writer are serialized.
func (b *Builder) report(done int64, total int) {
	if b.progress == nil {
		return
	}
	b.progressMu.Lock()
	defer b.progressMu.Unlock()
	fmt.Fprintf(b.progress, "indexed %d/%d documents\n", done, total)
}
