package badger

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/poiesic/aetheris/core"
)

// Key prefixes for different data types
const (
	documentPrefix     = "doc"
	documentDatePrefix = "docd"
	assetPrefix        = "ast"
	labelPrefix        = "lbl"
)

// makeDocumentKey generates a key for a document by ID.
func makeDocumentKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", documentPrefix, id))
}

// makeDocumentDateKey generates a composite key for the scrape-date index.
// Format: prefix:timestamp:id
func makeDocumentDateKey(timestamp time.Time, id core.ID) []byte {
	prefix := documentDatePrefix + ":"
	prefixBytes := []byte(prefix)
	prefixSize := len(prefixBytes)
	totalSize := prefixSize + 16 // 8 bytes for timestamp + 8 bytes for ID
	buf := make([]byte, totalSize)
	offset := copy(buf, prefixBytes)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(timestamp.UnixMicro()))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makePartialDocumentDateKey generates a partial key for date range queries.
// Format: prefix:timestamp
func makePartialDocumentDateKey(timestamp time.Time) []byte {
	prefix := documentDatePrefix + ":"
	prefixBytes := []byte(prefix)
	prefixSize := len(prefixBytes)
	totalSize := prefixSize + 8 // 8 bytes for timestamp
	buf := make([]byte, totalSize)
	offset := copy(buf, prefixBytes)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(timestamp.UnixMicro()))
	return buf
}

// makeAssetKey generates a key for an asset by ID.
func makeAssetKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", assetPrefix, id))
}

// makeLabelKey generates a key for a taxonomy label by record reference.
func makeLabelKey(recordRef string) []byte {
	return []byte(fmt.Sprintf("%s:%s", labelPrefix, recordRef))
}
