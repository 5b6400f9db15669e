package retrieval

import (
	"context"
	"strings"

	"github.com/poiesic/aetheris/core"
	"github.com/poiesic/aetheris/storage"
)

// assetSampleSize is the size of the unfiltered inventory sample used when
// correlation finds nothing. Asset context is never empty by default.
const assetSampleSize = 20

// indicatorFamilies are small fixed keyword sets scanned for in document
// text. A matched keyword becomes an indicator that is substring-matched
// against the asset inventory.
var indicatorFamilies = [][]string{
	// Network and firewall vendors
	{"fortinet", "fortigate", "cisco", "palo alto", "juniper", "sonicwall", "firewall", "vpn"},
	// OS families
	{"windows", "linux", "macos", "ubuntu", "microsoft"},
	// Web and mail stack
	{"iis", "apache", "nginx", "webdav", "exchange"},
	// Endpoint security products
	{"crowdstrike", "sentinelone", "defender", "carbon black"},
}

// correlateAssets maps indicator keywords found in the final documents onto
// the asset inventory. The inventory is pre-filtered by location/department
// entities from the raw query; when nothing correlates, an unfiltered
// sample is returned instead and the fallback flag is set.
func correlateAssets(ctx context.Context, docs []*core.Document, filters core.QueryFilters, repo storage.AssetRepository) ([]*core.Asset, bool, error) {
	indicators := collectIndicators(docs)

	assets, err := repo.FilterAssets(ctx, storage.AssetFilter{
		Location:   filters.Location,
		Department: filters.Department,
	})
	if err != nil {
		return nil, false, err
	}

	var relevant []*core.Asset
	for _, asset := range assets {
		if assetMatchesAny(asset, indicators) {
			relevant = append(relevant, asset)
		}
	}

	if len(relevant) == 0 {
		sample, err := repo.SampleAssets(ctx, assetSampleSize)
		if err != nil {
			return nil, false, err
		}
		return sample, true, nil
	}
	return relevant, false, nil
}

// collectIndicators returns the union of family keywords present in any
// document, in family-table order.
func collectIndicators(docs []*core.Document) []string {
	texts := make([]string, 0, len(docs))
	for _, doc := range docs {
		texts = append(texts, strings.ToLower(doc.Title+" "+doc.Text))
	}

	var indicators []string
	for _, family := range indicatorFamilies {
		for _, keyword := range family {
			for _, text := range texts {
				if strings.Contains(text, keyword) {
					indicators = append(indicators, keyword)
					break
				}
			}
		}
	}
	return indicators
}

// assetMatchesAny checks an asset's type, OS, software list, and security
// tools against the indicator keywords, case-insensitive substring.
func assetMatchesAny(asset *core.Asset, indicators []string) bool {
	fields := []string{
		strings.ToLower(asset.Type),
		strings.ToLower(asset.OS),
		strings.ToLower(asset.SecurityTools),
	}
	for _, sw := range asset.Software {
		fields = append(fields, strings.ToLower(sw))
	}

	for _, indicator := range indicators {
		for _, field := range fields {
			if strings.Contains(field, indicator) {
				return true
			}
		}
	}
	return false
}
