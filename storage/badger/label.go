package badger

import (
	"context"
	"slices"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/aetheris/core"
	"github.com/poiesic/aetheris/storage"
)

// LabelRepository implements storage.LabelRepository for BadgerDB.
// Labels are keyed directly by their record reference, so lookups by
// document batch are simple point reads.
type LabelRepository struct {
	backend *Backend
}

var _ storage.LabelRepository = (*LabelRepository)(nil)

// NewLabelRepository creates a new LabelRepository.
func NewLabelRepository(backend *Backend) (*LabelRepository, error) {
	return &LabelRepository{backend: backend}, nil
}

// Close is a no-op; the repository holds no resources of its own.
func (r *LabelRepository) Close() error {
	return nil
}

// AddLabels adds one or more taxonomy labels to storage.
func (r *LabelRepository) AddLabels(ctx context.Context, labels ...*core.TaxonomyLabel) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, label := range labels {
			if label.RecordRef == "" {
				return storage.ErrInvalidQuery
			}
			key := makeLabelKey(label.RecordRef)
			value := storage.MarshalLabel(label)
			if err := tx.Set(key, value); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// FilterLabels returns labels matching the filter, in stable key order.
// Empty filter fields match everything; scalar fields match
// case-insensitively, multivalue fields match on any element.
func (r *LabelRepository) FilterLabels(ctx context.Context, filter storage.LabelFilter) ([]*core.TaxonomyLabel, error) {
	severity := strings.ToLower(strings.TrimSpace(filter.Severity))
	platform := strings.ToLower(strings.TrimSpace(filter.Platform))
	os := strings.ToLower(strings.TrimSpace(filter.OS))
	department := strings.ToLower(strings.TrimSpace(filter.Department))
	city := strings.ToLower(strings.TrimSpace(filter.City))

	var results []*core.TaxonomyLabel
	err := r.iterateLabels(func(label *core.TaxonomyLabel) bool {
		if !containsFold(label.Severity, severity) {
			return true
		}
		if !containsFold(label.Platform, platform) {
			return true
		}
		if os != "" && !strings.EqualFold(label.OS, os) {
			return true
		}
		if department != "" && !strings.EqualFold(label.Department, department) {
			return true
		}
		if city != "" && !strings.EqualFold(label.City, city) {
			return true
		}
		results = append(results, label)
		return true
	})
	return results, err
}

// containsFold reports whether values holds want case-insensitively.
// An empty want matches any slice.
func containsFold(values []string, want string) bool {
	if want == "" {
		return true
	}
	for _, v := range values {
		if strings.EqualFold(v, want) {
			return true
		}
	}
	return false
}

// iterateLabels walks every label in key order, calling fn for each.
// Iteration stops when fn returns false.
func (r *LabelRepository) iterateLabels(fn func(*core.TaxonomyLabel) bool) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		iter := tx.NewIterator(badger.DefaultIteratorOptions)
		defer iter.Close()

		prefix := []byte(labelPrefix + ":")
		for iter.Seek(prefix); iter.Valid(); iter.Next() {
			key := iter.Item().Key()
			if len(key) < len(prefix) || slices.Compare(key[:len(prefix)], prefix) != 0 {
				break
			}

			var label *core.TaxonomyLabel
			if err := iter.Item().Value(func(val []byte) error {
				var unmarshalErr error
				label, unmarshalErr = storage.UnmarshalLabel(val)
				return unmarshalErr
			}); err != nil {
				return err
			}

			if !fn(label) {
				break
			}
		}
		return nil
	}, false)
}

// GetLabelsByRecordRefs retrieves all labels whose RecordRef is in refs.
// Missing refs are skipped without error.
func (r *LabelRepository) GetLabelsByRecordRefs(ctx context.Context, refs ...string) ([]*core.TaxonomyLabel, error) {
	var results []*core.TaxonomyLabel
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, ref := range refs {
			item, err := tx.Get(makeLabelKey(ref))
			if err != nil {
				if err == badger.ErrKeyNotFound {
					continue
				}
				return err
			}

			var label *core.TaxonomyLabel
			if err := item.Value(func(val []byte) error {
				var unmarshalErr error
				label, unmarshalErr = storage.UnmarshalLabel(val)
				return unmarshalErr
			}); err != nil {
				return err
			}
			results = append(results, label)
		}
		return nil
	}, false)
	return results, err
}
