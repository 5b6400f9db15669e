package indexer

import "errors"

var (
	// ErrDocumentRepositoryRequired is returned when a document repository is not provided.
	ErrDocumentRepositoryRequired = errors.New("document repository required")

	// ErrSnapshotHandleRequired is returned when a snapshot handle is not provided.
	ErrSnapshotHandleRequired = errors.New("snapshot handle required")

	// ErrEmbeddingFailed is returned when the remote embedder fails for a batch.
	ErrEmbeddingFailed = errors.New("embedding failed")
)
