// Package vector provides nearest-neighbor search over a fixed embedding artifact.
package vector

import "context"

// Result is a single nearest-neighbor hit. Position addresses the corpus
// record whose embedding occupies the same row in the index artifact.
// Distance is cosine distance (1 - cosine similarity) and is never negative
// for the normalized vectors this index stores.
type Result struct {
	Position int
	Distance float64
}

// Index is a read-only nearest-neighbor search structure. Implementations are
// loaded once from a persisted artifact at process start; no insert, update,
// or delete path exists at runtime.
type Index interface {
	// Search returns the k nearest rows to query, ordered ascending by
	// distance with ties broken by insertion order. k is clipped to Size().
	Search(ctx context.Context, query []float32, k int) ([]Result, error)
	Size() int
	Dimensions() int
}
