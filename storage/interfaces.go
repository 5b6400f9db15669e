package storage

import (
	"context"
	"time"

	"github.com/poiesic/aetheris/core"
)

// DocumentRepository provides operations for the threat-intelligence
// document store. Implementations must be thread-safe and support
// concurrent reads.
type DocumentRepository interface {
	// AddDocuments adds one or more documents to storage.
	// For documents with ID=0, derives a content-based ID from the URL.
	// Returns the documents with IDs populated.
	AddDocuments(ctx context.Context, docs ...*core.Document) ([]*core.Document, error)

	// GetDocument retrieves a single document by ID.
	// Returns ErrNotFound if the document doesn't exist.
	GetDocument(ctx context.Context, id core.ID) (*core.Document, error)

	// GetDocuments retrieves multiple documents by their IDs.
	// Results preserve the order of the requested IDs exactly; missing
	// documents are skipped without error. The store's native ordering is
	// never applied.
	GetDocuments(ctx context.Context, ids ...core.ID) ([]*core.Document, error)

	// SearchText performs a case-insensitive substring search over document
	// titles and bodies, ordered by ScrapedAt descending (most recent
	// first), up to limit results.
	SearchText(ctx context.Context, term string, limit int) ([]*core.Document, error)

	// AllDocuments retrieves every document ordered by ScrapedAt ascending.
	AllDocuments(ctx context.Context) ([]*core.Document, error)

	// Count returns the number of stored documents.
	Count(ctx context.Context) (int, error)

	// Close releases resources held by the repository.
	Close() error
}

// AssetFilter restricts asset inventory queries. Empty fields match
// everything; non-empty fields are case-insensitive substring matches.
type AssetFilter struct {
	Location   string
	Department string
}

// AssetRepository provides read-mostly access to the CMDB asset inventory.
type AssetRepository interface {
	// AddAssets adds one or more assets to storage.
	// For assets with ID=0, derives a content-based ID from the hostname.
	AddAssets(ctx context.Context, assets ...*core.Asset) ([]*core.Asset, error)

	// FilterAssets returns assets matching the filter, in stable key order.
	FilterAssets(ctx context.Context, filter AssetFilter) ([]*core.Asset, error)

	// SampleAssets returns up to n assets in stable key order. Used as the
	// never-empty fallback when correlation finds nothing.
	SampleAssets(ctx context.Context, n int) ([]*core.Asset, error)

	// Close releases resources held by the repository.
	Close() error
}

// LabelFilter restricts taxonomy label queries. Empty fields match
// everything; non-empty fields are case-insensitive matches, with
// multivalue label fields matching on any element.
type LabelFilter struct {
	Severity   string
	Platform   string
	OS         string
	Department string
	City       string
}

// LabelRepository provides read access to generated taxonomy labels.
type LabelRepository interface {
	// AddLabels adds one or more taxonomy labels to storage.
	AddLabels(ctx context.Context, labels ...*core.TaxonomyLabel) error

	// GetLabelsByRecordRefs retrieves all labels whose RecordRef is in refs.
	GetLabelsByRecordRefs(ctx context.Context, refs ...string) ([]*core.TaxonomyLabel, error)

	// FilterLabels returns labels matching the filter, in stable key order.
	FilterLabels(ctx context.Context, filter LabelFilter) ([]*core.TaxonomyLabel, error)

	// Close releases resources held by the repository.
	Close() error
}

// ScrapedRange is implemented by document repositories that can serve
// time-bounded scans, used by the index builder for incremental rebuilds.
type ScrapedRange interface {
	// GetDocumentsByScrapedRange retrieves documents where
	// start <= ScrapedAt < end, ordered by ScrapedAt ascending.
	GetDocumentsByScrapedRange(ctx context.Context, start, end time.Time) ([]*core.Document, error)
}
