package session

import (
	"sync"
	"time"
)

const janitorInterval = time.Minute

// MemoryStore is a process-local Store. Sessions are evicted after IdleTTL
// without activity, and the total session count is capped at MaxSessions by
// evicting the least recently touched entries. A zero value for either
// disables that policy.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*entry
	idleTTL  time.Duration
	maxSize  int
	done     chan struct{}
	stopOnce sync.Once
	now      func() time.Time // overridable in tests
}

type entry struct {
	memory   Memory
	lastSeen time.Time
}

// MemoryStoreOption configures a MemoryStore.
type MemoryStoreOption func(*MemoryStore)

// WithIdleTTL evicts sessions idle longer than ttl. Zero disables eviction.
func WithIdleTTL(ttl time.Duration) MemoryStoreOption {
	return func(s *MemoryStore) { s.idleTTL = ttl }
}

// WithMaxSessions caps the number of live sessions. Zero disables the cap.
func WithMaxSessions(n int) MemoryStoreOption {
	return func(s *MemoryStore) { s.maxSize = n }
}

// NewMemoryStore creates an in-memory session store. A janitor goroutine runs
// only when an idle TTL is set; Close stops it.
func NewMemoryStore(opts ...MemoryStoreOption) *MemoryStore {
	s := &MemoryStore{
		sessions: make(map[string]*entry),
		done:     make(chan struct{}),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.idleTTL > 0 {
		go s.janitor()
	}
	return s
}

// GetOrCreate returns the session's memory snapshot, creating an empty session
// on first use.
func (s *MemoryStore) GetOrCreate(sessionID string) (Memory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[sessionID]
	if !ok {
		e = &entry{}
		s.sessions[sessionID] = e
		s.enforceCapLocked()
	}
	e.lastSeen = s.now()
	return e.memory, nil
}

// Update overwrites the session's memory, creating the session if needed.
func (s *MemoryStore) Update(sessionID, contextText, questionText string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[sessionID]
	if !ok {
		e = &entry{}
		s.sessions[sessionID] = e
		s.enforceCapLocked()
	}
	e.memory = Memory{LastContext: contextText, LastQuestion: questionText}
	e.lastSeen = s.now()
	return nil
}

// Len returns the number of live sessions.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Close stops the janitor goroutine.
func (s *MemoryStore) Close() error {
	s.stopOnce.Do(func() { close(s.done) })
	return nil
}

// enforceCapLocked evicts least recently touched sessions while over the cap.
// Caller must hold the write lock.
func (s *MemoryStore) enforceCapLocked() {
	if s.maxSize <= 0 {
		return
	}
	for len(s.sessions) > s.maxSize {
		var oldestID string
		var oldest time.Time
		for id, e := range s.sessions {
			if oldestID == "" || e.lastSeen.Before(oldest) {
				oldestID = id
				oldest = e.lastSeen
			}
		}
		delete(s.sessions, oldestID)
	}
}

func (s *MemoryStore) janitor() {
	ticker := time.NewTicker(janitorInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.evictIdle()
		}
	}
}

func (s *MemoryStore) evictIdle() {
	cutoff := s.now().Add(-s.idleTTL)
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, e := range s.sessions {
		if e.lastSeen.Before(cutoff) {
			delete(s.sessions, id)
		}
	}
}
