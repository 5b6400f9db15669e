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


package aetheris

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/poiesic/aetheris/ai"
	"github.com/poiesic/aetheris/ai/openai"
	"github.com/poiesic/aetheris/indexer"
	"github.com/poiesic/aetheris/retrieval"
	"github.com/poiesic/aetheris/storage"
	"github.com/poiesic/aetheris/storage/badger"
	"github.com/poiesic/aetheris/vectorindex"
)

// Database bundles the storage backend, repositories, vector index handle,
// and AI provider behind one lifecycle.
type Database struct {
	backend     *badger.Backend
	docRepo     storage.DocumentRepository
	assetRepo   storage.AssetRepository
	labelRepo   storage.LabelRepository
	handle      *vectorindex.SnapshotHandle
	provider    ai.AIProvider
	snapshotDir string
	logger      *slog.Logger
}

// DatabaseOption configures a Database.
type DatabaseOption func(*databaseOptions)

type databaseOptions struct {
	aiConfig    *ai.Config
	inMemory    bool
	snapshotDir string
}

// WithAIConfig sets the AI provider configuration.
func WithAIConfig(cfg *ai.Config) DatabaseOption {
	return func(o *databaseOptions) {
		o.aiConfig = cfg
	}
}

// WithInMemory opens the storage backend in memory. Snapshot artifacts are
// not persisted unless WithSnapshotDir is also given.
func WithInMemory() DatabaseOption {
	return func(o *databaseOptions) {
		o.inMemory = true
	}
}

// WithSnapshotDir overrides the directory holding vector index artifacts.
// Default is a sibling of the storage path with an ".index" suffix.
func WithSnapshotDir(dir string) DatabaseOption {
	return func(o *databaseOptions) {
		o.snapshotDir = dir
	}
}

func NewDatabase(filePath string, opts ...DatabaseOption) (*Database, error) {
	// Apply options
	options := &databaseOptions{
		aiConfig: ai.DefaultConfig(), // Default if not provided
	}
	for _, opt := range opts {
		opt(options)
	}

	snapshotDir := options.snapshotDir
	if snapshotDir == "" && !options.inMemory {
		snapshotDir = filePath + ".index"
	}

	// Open backend
	backend, err := badger.OpenBackend(filePath, options.inMemory)
	if err != nil {
		return nil, err
	}

	// Create document repository
	docRepo, err := badger.NewDocumentRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	// Create asset repository
	assetRepo, err := badger.NewAssetRepository(backend)
	if err != nil {
		docRepo.Close()
		backend.Close()
		return nil, err
	}

	// Create label repository
	labelRepo, err := badger.NewLabelRepository(backend)
	if err != nil {
		assetRepo.Close()
		docRepo.Close()
		backend.Close()
		return nil, err
	}

	// Load the persisted index generation, if one exists
	snap, err := loadInitialSnapshot(snapshotDir)
	if err != nil {
		labelRepo.Close()
		assetRepo.Close()
		docRepo.Close()
		backend.Close()
		return nil, err
	}

	// Create AI provider with configured settings
	provider, err := openai.NewProvider(options.aiConfig)
	if err != nil {
		labelRepo.Close()
		assetRepo.Close()
		docRepo.Close()
		backend.Close()
		return nil, err
	}

	return &Database{
		backend:     backend,
		docRepo:     docRepo,
		assetRepo:   assetRepo,
		labelRepo:   labelRepo,
		handle:      vectorindex.NewSnapshotHandle(snap),
		provider:    provider,
		snapshotDir: snapshotDir,
		logger:      slog.Default(),
	}, nil
}

func (db *Database) Close() error {
	// Close AI provider first
	if err := db.provider.Close(); err != nil {
		db.logger.Error("error closing AI provider", "err", err)
	}

	// Close repositories
	if err := db.labelRepo.Close(); err != nil {
		db.logger.Error("error closing label repository", "err", err)
		return err
	}
	if err := db.assetRepo.Close(); err != nil {
		db.logger.Error("error closing asset repository", "err", err)
		return err
	}
	if err := db.docRepo.Close(); err != nil {
		db.logger.Error("error closing document repository", "err", err)
		return err
	}

	// Close backend
	if err := db.backend.Close(); err != nil {
		db.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

func (db *Database) DocumentRepository() storage.DocumentRepository {
	return db.docRepo
}

func (db *Database) AssetRepository() storage.AssetRepository {
	return db.assetRepo
}

func (db *Database) LabelRepository() storage.LabelRepository {
	return db.labelRepo
}

func (db *Database) SnapshotHandle() *vectorindex.SnapshotHandle {
	return db.handle
}

// NewEngine constructs a retrieval engine over the database. The engine
// embeds queries with the remote embedder when one is configured, and with
// the live snapshot's own TF-IDF model otherwise.
func (db *Database) NewEngine(opts ...retrieval.Option) (*retrieval.Engine, error) {
	base := []retrieval.Option{
		retrieval.WithGenerator(db.provider.Generator()),
	}
	return retrieval.NewEngine(db.docRepo, db.assetRepo, db.labelRepo,
		db.handle, db.embedder(), append(base, opts...)...)
}

// NewIndexBuilder constructs an index builder publishing to the database's
// snapshot handle.
func (db *Database) NewIndexBuilder(opts ...indexer.Option) (*indexer.Builder, error) {
	if remote := db.provider.Embedder(); remote != nil {
		opts = append([]indexer.Option{indexer.WithRemoteEmbedder(remote)}, opts...)
	}
	return indexer.NewBuilder(db.docRepo, db.handle, db.snapshotDir, opts...)
}

func (db *Database) embedder() ai.Embedder {
	if remote := db.provider.Embedder(); remote != nil {
		return remote
	}
	return localEmbedder{handle: db.handle}
}

// loadInitialSnapshot restores the persisted generation. An absent
// generation is fine; a partial or corrupt one is a startup error, since
// serving queries against mismatched artifacts would be silently wrong.
func loadInitialSnapshot(dir string) (*vectorindex.Snapshot, error) {
	if dir == "" {
		return nil, nil
	}
	snap, err := vectorindex.LoadSnapshot(dir)
	if err == nil {
		return snap, nil
	}
	if errors.Is(err, vectorindex.ErrIndexUnavailable) {
		if anyArtifactExists(dir) {
			return nil, fmt.Errorf("%w: partial snapshot in %s", vectorindex.ErrIndexCorrupt, dir)
		}
		return nil, nil
	}
	return nil, err
}

func anyArtifactExists(dir string) bool {
	names := []string{
		vectorindex.IndexFile,
		vectorindex.IDMapFile,
		vectorindex.TextsFile,
		vectorindex.VectorizerFile,
	}
	for _, name := range names {
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			return true
		}
	}
	return false
}

// localEmbedder serves query embeddings from the live snapshot's fitted
// TF-IDF model, so queries and indexed documents share one vector space.
type localEmbedder struct {
	handle *vectorindex.SnapshotHandle
}

func (l localEmbedder) EmbedText(_ context.Context, text string) ([]float32, error) {
	snap := l.handle.Snapshot()
	if snap == nil || snap.Model == nil {
		return nil, vectorindex.ErrIndexUnavailable
	}
	return snap.Model.Transform(text), nil
}

func (l localEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := l.EmbedText(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}
