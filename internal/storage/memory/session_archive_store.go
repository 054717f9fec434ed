package memory

import (
	"context"
	"sort"
	"sync"

	"chartpulse/internal/domain"
	"chartpulse/internal/storage"
)

// SessionArchiveStore is an in-memory implementation of storage.SessionArchiveStore.
type SessionArchiveStore struct {
	mu   sync.RWMutex
	data map[string]*domain.SessionRecord // keyed by session_id
}

// NewSessionArchiveStore creates a new in-memory session archive store.
func NewSessionArchiveStore() *SessionArchiveStore {
	return &SessionArchiveStore{
		data: make(map[string]*domain.SessionRecord),
	}
}

// Insert adds a new session record. Returns ErrDuplicateKey if session_id exists.
func (s *SessionArchiveStore) Insert(_ context.Context, r *domain.SessionRecord) error {
	if r == nil || r.SessionID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[r.SessionID]; exists {
		return storage.ErrDuplicateKey
	}

	// Store a copy to prevent external mutation
	recordCopy := *r
	s.data[r.SessionID] = &recordCopy
	return nil
}

// MarkEnded finalizes a session with its end reason and tick count.
func (s *SessionArchiveStore) MarkEnded(_ context.Context, sessionID, reason string, ticksProcessed int) error {
	if sessionID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	r, exists := s.data[sessionID]
	if !exists {
		return storage.ErrNotFound
	}

	r.EndedReason = reason
	r.TicksProcessed = ticksProcessed
	return nil
}

// GetByID retrieves a record by session ID. Returns ErrNotFound if not exists.
func (s *SessionArchiveStore) GetByID(_ context.Context, sessionID string) (*domain.SessionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, exists := s.data[sessionID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	// Return a copy
	recordCopy := *r
	return &recordCopy, nil
}

// GetByTokenMint retrieves all records for a mint, ordered by start time ASC.
func (s *SessionArchiveStore) GetByTokenMint(_ context.Context, tokenMint string) ([]*domain.SessionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.SessionRecord
	for _, r := range s.data {
		if r.TokenMint == tokenMint {
			recordCopy := *r
			result = append(result, &recordCopy)
		}
	}

	// Sort by start_time_ms ASC
	sort.Slice(result, func(i, j int) bool {
		return result[i].StartTimeMs < result[j].StartTimeMs
	})

	return result, nil
}

// GetByTimeRange retrieves records started within [start, end] (inclusive).
func (s *SessionArchiveStore) GetByTimeRange(_ context.Context, start, end int64) ([]*domain.SessionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.SessionRecord
	for _, r := range s.data {
		if r.StartTimeMs >= start && r.StartTimeMs <= end {
			recordCopy := *r
			result = append(result, &recordCopy)
		}
	}

	// Sort by start_time_ms ASC
	sort.Slice(result, func(i, j int) bool {
		return result[i].StartTimeMs < result[j].StartTimeMs
	})

	return result, nil
}

// Verify interface compliance at compile time.
var _ storage.SessionArchiveStore = (*SessionArchiveStore)(nil)
