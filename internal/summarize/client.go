// Package summarize talks to the external text-generation service and builds
// its prompts. This is the single external dependency boundary of the core:
// every failure here is absorbed into user-facing text, never propagated.
package summarize

import "context"

// Client sends a prompt to a text-generation backend and returns the raw
// generated text. Implementations enforce their own request timeout.
type Client interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
