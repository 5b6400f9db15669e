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


package badger

import (
	"context"
	"slices"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/aetheris/core"
	"github.com/poiesic/aetheris/storage"
)

// AssetRepository implements storage.AssetRepository for BadgerDB.
type AssetRepository struct {
	backend *Backend
}

var _ storage.AssetRepository = (*AssetRepository)(nil)

// NewAssetRepository creates a new AssetRepository.
func NewAssetRepository(backend *Backend) (*AssetRepository, error) {
	return &AssetRepository{backend: backend}, nil
}

// Close is a no-op; the repository holds no resources of its own.
func (r *AssetRepository) Close() error {
	return nil
}

// AddAssets adds one or more assets to storage. Assets without an ID get
// a content-based ID derived from their hostname, so re-importing the
// inventory overwrites rather than duplicates.
func (r *AssetRepository) AddAssets(ctx context.Context, assets ...*core.Asset) ([]*core.Asset, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, asset := range assets {
			if err := core.ValidateAsset(asset); err != nil {
				return err
			}
			if asset.Id == 0 {
				asset.Id = core.IDFromContent(asset.Hostname)
			}

			key := makeAssetKey(asset.Id)
			value := storage.MarshalAsset(asset)
			if err := tx.Set(key, value); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	return assets, err
}

// FilterAssets returns assets matching the filter, in stable key order.
// Empty filter fields match everything; non-empty fields match as
// case-insensitive substrings.
func (r *AssetRepository) FilterAssets(ctx context.Context, filter storage.AssetFilter) ([]*core.Asset, error) {
	location := strings.ToLower(strings.TrimSpace(filter.Location))
	department := strings.ToLower(strings.TrimSpace(filter.Department))

	var results []*core.Asset
	err := r.iterateAssets(func(asset *core.Asset) bool {
		if location != "" && !strings.Contains(strings.ToLower(asset.Location), location) {
			return true
		}
		if department != "" && !strings.Contains(strings.ToLower(asset.Department), department) {
			return true
		}
		results = append(results, asset)
		return true
	})
	return results, err
}

// SampleAssets returns up to n assets in stable key order.
func (r *AssetRepository) SampleAssets(ctx context.Context, n int) ([]*core.Asset, error) {
	if n <= 0 {
		return nil, nil
	}

	var results []*core.Asset
	err := r.iterateAssets(func(asset *core.Asset) bool {
		results = append(results, asset)
		return len(results) < n
	})
	return results, err
}

// iterateAssets walks every asset in key order, calling fn for each.
// Iteration stops when fn returns false.
func (r *AssetRepository) iterateAssets(fn func(*core.Asset) bool) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		iter := tx.NewIterator(badger.DefaultIteratorOptions)
		defer iter.Close()

		prefix := []byte(assetPrefix + ":")
		for iter.Seek(prefix); iter.Valid(); iter.Next() {
			key := iter.Item().Key()
			if len(key) < len(prefix) || slices.Compare(key[:len(prefix)], prefix) != 0 {
				break
			}

			var asset *core.Asset
			if err := iter.Item().Value(func(val []byte) error {
				var unmarshalErr error
				asset, unmarshalErr = storage.UnmarshalAsset(val)
				return unmarshalErr
			}); err != nil {
				return err
			}

			if !fn(asset) {
				break
			}
		}
		return nil
	}, false)
}
