// Package vectorindex implements the flat L2 nearest-neighbor index and
// its persisted snapshot format.
//
// A snapshot couples four artifacts written as one generation: the vector
// index, the position-to-document-ID map, the raw text cache, and the
// fitted vectorizer model. The coupling is positional, so the artifacts
// are only ever written and loaded together; LoadSnapshot refuses
// generations whose artifacts disagree.
//
// Readers access the live generation through a SnapshotHandle, which the
// index builder swaps atomically after a successful rebuild.
package vectorindex
