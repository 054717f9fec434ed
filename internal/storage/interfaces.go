package storage

import (
	"context"

	"chartpulse/internal/domain"
)

// SessionArchiveStore provides access to session_archive storage. One row
// per session lifecycle; rows are inserted on creation and finalized once
// when the session ends or expires.
type SessionArchiveStore interface {
	// Insert adds a new session record. Returns ErrDuplicateKey if session_id exists.
	Insert(ctx context.Context, r *domain.SessionRecord) error

	// MarkEnded finalizes a session with its end reason and tick count.
	// Returns ErrNotFound if session_id does not exist.
	MarkEnded(ctx context.Context, sessionID, reason string, ticksProcessed int) error

	// GetByID retrieves a record by session ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, sessionID string) (*domain.SessionRecord, error)

	// GetByTokenMint retrieves all records for a mint, ordered by start time ASC.
	GetByTokenMint(ctx context.Context, tokenMint string) ([]*domain.SessionRecord, error)

	// GetByTimeRange retrieves records started within [start, end] (inclusive).
	GetByTimeRange(ctx context.Context, start, end int64) ([]*domain.SessionRecord, error)
}

// CommandJournalStore provides access to command_journal storage.
// Append-only tick output log used for replay, reporting and audits.
type CommandJournalStore interface {
	// InsertBulk adds multiple points. Fails entire batch on duplicate (session_id, tick).
	InsertBulk(ctx context.Context, points []*domain.CommandPoint) error

	// GetBySessionID retrieves all points for a session, ordered by tick ASC.
	GetBySessionID(ctx context.Context, sessionID string) ([]*domain.CommandPoint, error)

	// GetByTimeRange retrieves points for a session within [start, end] (inclusive).
	GetByTimeRange(ctx context.Context, sessionID string, start, end int64) ([]*domain.CommandPoint, error)

	// CountBySessionID returns the number of journaled points for a session.
	CountBySessionID(ctx context.Context, sessionID string) (int, error)
}
