// Package corpus loads and serves the ordered mission description corpus.
package corpus

import (
	"encoding/json"
	"fmt"
	"os"
)

// Record is a single mission description. Position is the stable 0-based
// position in the corpus and must match the corresponding row in the vector
// index artifact.
type Record struct {
	Position int
	Details  string
}

// Store is the in-memory mission corpus, loaded once and read-only thereafter.
type Store struct {
	records []Record
}

// rawRecord mirrors one entry of the corpus JSON file.
type rawRecord struct {
	Details string `json:"details"`
}

// Load reads the corpus JSON file (an ordered array of objects with a
// "details" field) and returns a read-only store. Ordering in the file is
// preserved: record i corresponds to vector index row i.
func Load(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read corpus: %w", err)
	}
	var raw []rawRecord
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse corpus: %w", err)
	}
	records := make([]Record, len(raw))
	for i, r := range raw {
		records[i] = Record{Position: i, Details: r.Details}
	}
	return &Store{records: records}, nil
}

// FromDetails builds a store from in-memory detail strings, in order.
// Used by tests and artifact-building tools.
func FromDetails(details []string) *Store {
	records := make([]Record, len(details))
	for i, d := range details {
		records[i] = Record{Position: i, Details: d}
	}
	return &Store{records: records}
}

// Get returns the record at position i.
func (s *Store) Get(i int) (Record, error) {
	if i < 0 || i >= len(s.records) {
		return Record{}, fmt.Errorf("corpus position out of range: %d (size %d)", i, len(s.records))
	}
	return s.records[i], nil
}

// Len returns the number of records.
func (s *Store) Len() int {
	return len(s.records)
}

// CustomReplies holds optional reply overrides loaded from the custom
// responses file. Only the greeting override is consulted today; the rest of
// the file is a reserved extension point.
type CustomReplies struct {
	Greetings map[string]string `json:"greetings"`
}

// LoadCustomReplies reads the optional custom responses JSON. A missing file
// is not an error; it returns an empty set.
func LoadCustomReplies(path string) (*CustomReplies, error) {
	if path == "" {
		return &CustomReplies{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &CustomReplies{}, nil
		}
		return nil, fmt.Errorf("failed to read custom replies: %w", err)
	}
	var replies CustomReplies
	if err := json.Unmarshal(data, &replies); err != nil {
		return nil, fmt.Errorf("failed to parse custom replies: %w", err)
	}
	return &replies, nil
}
