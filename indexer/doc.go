// Package indexer rebuilds the vector index from the document store.
//
// A build reads the full corpus, fits the TF-IDF vectorizer (or calls a
// remote embedder when one is configured), transforms documents in
// concurrent batches, and assembles a new snapshot generation. The
// generation is written to disk first and published to the live handle
// last, so a failed build never disturbs the snapshot queries are using.
package indexer
