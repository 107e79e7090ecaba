// Package session provides per-conversation short-term memory keyed by session ID.
package session

// Memory is a value snapshot of one session's carried context. LastContext is
// the previous turn's retrieved context (already clipped to the configured
// budget); LastQuestion is the previous turn's raw question.
type Memory struct {
	LastContext  string
	LastQuestion string
}

// Store maps opaque caller-supplied session IDs to their memory. Updates are
// last-write-wins; concurrent requests for the same session ID race on that
// semantics by design, while distinct sessions never interfere.
type Store interface {
	// GetOrCreate returns the session's memory, creating an empty one on
	// first use. Idempotent per session ID.
	GetOrCreate(sessionID string) (Memory, error)
	// Update overwrites the session's context and question. No merge.
	Update(sessionID, contextText, questionText string) error
	// Len returns the number of live sessions.
	Len() int
	Close() error
}
