// Package embedding provides text embedding via ONNX and caching.
package embedding

import "context"

// Embedder produces a fixed-dimension vector embedding for text. Embeddings
// are deterministic for a given model: the same text always yields the same
// vector. An empty string is valid input and must not error.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
	Close() error
}
