package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"chartpulse/internal/domain"
	"chartpulse/internal/storage"
)

// CommandJournalStore is an in-memory implementation of storage.CommandJournalStore.
type CommandJournalStore struct {
	mu   sync.RWMutex
	data map[string]*domain.CommandPoint // keyed by (session_id, tick)
}

// NewCommandJournalStore creates a new in-memory command journal store.
func NewCommandJournalStore() *CommandJournalStore {
	return &CommandJournalStore{
		data: make(map[string]*domain.CommandPoint),
	}
}

// commandKey generates a unique key for a command point.
func commandKey(sessionID string, tick int) string {
	return fmt.Sprintf("%s|%d", sessionID, tick)
}

// InsertBulk adds multiple points. Fails entire batch on duplicate.
func (s *CommandJournalStore) InsertBulk(_ context.Context, points []*domain.CommandPoint) error {
	if len(points) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Track keys in this batch to detect intra-batch duplicates
	batchKeys := make(map[string]struct{}, len(points))

	// First pass: check for duplicates (existing + intra-batch)
	for _, p := range points {
		if p == nil || p.SessionID == "" || p.Tick < 0 {
			return storage.ErrInvalidInput
		}
		key := commandKey(p.SessionID, p.Tick)

		// Check existing data
		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		// Check intra-batch duplicate
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	// Second pass: insert all
	for _, p := range points {
		key := commandKey(p.SessionID, p.Tick)
		pointCopy := *p
		s.data[key] = &pointCopy
	}

	return nil
}

// GetBySessionID retrieves all points for a session, ordered by tick ASC.
func (s *CommandJournalStore) GetBySessionID(_ context.Context, sessionID string) ([]*domain.CommandPoint, error) {
	if sessionID == "" {
		return nil, storage.ErrInvalidInput
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.CommandPoint
	for _, p := range s.data {
		if p.SessionID == sessionID {
			pointCopy := *p
			result = append(result, &pointCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Tick < result[j].Tick
	})

	return result, nil
}

// GetByTimeRange retrieves points for a session within [start, end] (inclusive).
func (s *CommandJournalStore) GetByTimeRange(_ context.Context, sessionID string, start, end int64) ([]*domain.CommandPoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.CommandPoint
	for _, p := range s.data {
		if p.SessionID == sessionID && p.TimestampMs >= start && p.TimestampMs <= end {
			pointCopy := *p
			result = append(result, &pointCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Tick < result[j].Tick
	})

	return result, nil
}

// CountBySessionID returns the number of journaled points for a session.
func (s *CommandJournalStore) CountBySessionID(_ context.Context, sessionID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, p := range s.data {
		if p.SessionID == sessionID {
			count++
		}
	}

	return count, nil
}

var _ storage.CommandJournalStore = (*CommandJournalStore)(nil)
