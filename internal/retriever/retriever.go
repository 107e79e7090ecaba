// Package retriever composes the embedder and vector index into corpus lookups.
package retriever

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/issdc/missionchat/internal/corpus"
	"github.com/issdc/missionchat/internal/embedding"
	"github.com/issdc/missionchat/internal/vector"
)

// Snapshot pairs a corpus with the vector index built from it. The two
// artifacts are positionally aligned: index row i holds the embedding of
// corpus record i. Snapshots are immutable; hot reload swaps whole snapshots.
type Snapshot struct {
	Corpus *corpus.Store
	Index  vector.Index
}

// NewSnapshot validates that corpus and index agree on row count. A mismatch
// means the artifacts were built from different corpus versions and every
// lookup would return wrong records, so this fails instead of serving.
func NewSnapshot(c *corpus.Store, idx vector.Index) (*Snapshot, error) {
	if c.Len() != idx.Size() {
		return nil, fmt.Errorf("corpus/index misalignment: corpus has %d records, index has %d rows", c.Len(), idx.Size())
	}
	return &Snapshot{Corpus: c, Index: idx}, nil
}

// Match is a retrieved corpus record with its distance and derived similarity.
// Similarity is 1 - distance; with normalized index vectors this is the cosine
// similarity between query and record embeddings.
type Match struct {
	Position   int
	Details    string
	Distance   float64
	Similarity float64
}

// Retriever embeds query text and searches the current snapshot. It is pure
// with respect to session state and caches nothing beyond the embedder's own
// query cache.
type Retriever struct {
	embedder embedding.Embedder
	snapshot atomic.Pointer[Snapshot]
}

// New creates a retriever over the given snapshot.
func New(embedder embedding.Embedder, snap *Snapshot) *Retriever {
	r := &Retriever{embedder: embedder}
	r.snapshot.Store(snap)
	return r
}

// Swap atomically replaces the snapshot. In-flight requests keep the snapshot
// they started with.
func (r *Retriever) Swap(snap *Snapshot) {
	r.snapshot.Store(snap)
}

// Snapshot returns the current snapshot.
func (r *Retriever) Snapshot() *Snapshot {
	return r.snapshot.Load()
}

// Retrieve embeds text and returns the k best-matching corpus records,
// ordered ascending by distance. Embedding or search failures propagate; the
// caller decides whether they are fatal.
func (r *Retriever) Retrieve(ctx context.Context, text string, k int) ([]Match, error) {
	if k < 1 {
		k = 1
	}
	query, err := r.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	snap := r.snapshot.Load()
	results, err := snap.Index.Search(ctx, query, k)
	if err != nil {
		return nil, fmt.Errorf("index search: %w", err)
	}
	matches := make([]Match, 0, len(results))
	for _, res := range results {
		rec, err := snap.Corpus.Get(res.Position)
		if err != nil {
			return nil, fmt.Errorf("resolve match: %w", err)
		}
		matches = append(matches, Match{
			Position:   rec.Position,
			Details:    rec.Details,
			Distance:   res.Distance,
			Similarity: 1 - res.Distance,
		})
	}
	return matches, nil
}
