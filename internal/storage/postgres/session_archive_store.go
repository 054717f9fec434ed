package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"chartpulse/internal/domain"
	"chartpulse/internal/storage"
)

// SessionArchiveStore implements storage.SessionArchiveStore using PostgreSQL.
type SessionArchiveStore struct {
	pool *Pool
}

// NewSessionArchiveStore creates a new SessionArchiveStore.
func NewSessionArchiveStore(pool *Pool) *SessionArchiveStore {
	return &SessionArchiveStore{pool: pool}
}

// Compile-time interface check.
var _ storage.SessionArchiveStore = (*SessionArchiveStore)(nil)

// Insert adds a new session record. Returns ErrDuplicateKey if session_id exists.
func (s *SessionArchiveStore) Insert(ctx context.Context, r *domain.SessionRecord) error {
	if r == nil || r.SessionID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO session_archive (
			session_id, session_state_id, token_mint, seed,
			start_time_ms, end_time_ms, ended_reason, ticks_processed, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := s.pool.Exec(ctx, query,
		r.SessionID,
		r.SessionStateID,
		r.TokenMint,
		int64(r.Seed),
		r.StartTimeMs,
		r.EndTimeMs,
		r.EndedReason,
		r.TicksProcessed,
		r.CreatedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert session record: %w", err)
	}
	return nil
}

// MarkEnded finalizes a session with its end reason and processed tick count.
// Returns ErrNotFound if no record has the given session_id.
func (s *SessionArchiveStore) MarkEnded(ctx context.Context, sessionID, reason string, ticksProcessed int) error {
	if sessionID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		UPDATE session_archive
		SET ended_reason = $2, ticks_processed = $3
		WHERE session_id = $1
	`

	tag, err := s.pool.Exec(ctx, query, sessionID, reason, ticksProcessed)
	if err != nil {
		return fmt.Errorf("mark session ended: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// GetByID retrieves a record by session ID. Returns ErrNotFound if not exists.
func (s *SessionArchiveStore) GetByID(ctx context.Context, sessionID string) (*domain.SessionRecord, error) {
	query := `
		SELECT session_id, session_state_id, token_mint, seed,
		       start_time_ms, end_time_ms, ended_reason, ticks_processed, created_at
		FROM session_archive
		WHERE session_id = $1
	`

	row := s.pool.QueryRow(ctx, query, sessionID)
	r, err := scanSessionRecord(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get session record by id: %w", err)
	}
	return r, nil
}

// GetByTokenMint retrieves all records for a mint, ordered by start time ASC.
func (s *SessionArchiveStore) GetByTokenMint(ctx context.Context, tokenMint string) ([]*domain.SessionRecord, error) {
	query := `
		SELECT session_id, session_state_id, token_mint, seed,
		       start_time_ms, end_time_ms, ended_reason, ticks_processed, created_at
		FROM session_archive
		WHERE token_mint = $1
		ORDER BY start_time_ms ASC, session_id ASC
	`

	rows, err := s.pool.Query(ctx, query, tokenMint)
	if err != nil {
		return nil, fmt.Errorf("get session records by mint: %w", err)
	}
	defer rows.Close()

	return scanSessionRecords(rows)
}

// GetByTimeRange retrieves records started within [start, end] (inclusive).
func (s *SessionArchiveStore) GetByTimeRange(ctx context.Context, start, end int64) ([]*domain.SessionRecord, error) {
	query := `
		SELECT session_id, session_state_id, token_mint, seed,
		       start_time_ms, end_time_ms, ended_reason, ticks_processed, created_at
		FROM session_archive
		WHERE start_time_ms >= $1 AND start_time_ms <= $2
		ORDER BY start_time_ms ASC, session_id ASC
	`

	rows, err := s.pool.Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("get session records by time range: %w", err)
	}
	defer rows.Close()

	return scanSessionRecords(rows)
}

// scanSessionRecord scans a single row into a SessionRecord.
func scanSessionRecord(row pgx.Row) (*domain.SessionRecord, error) {
	var r domain.SessionRecord
	var seed int64

	err := row.Scan(
		&r.SessionID,
		&r.SessionStateID,
		&r.TokenMint,
		&seed,
		&r.StartTimeMs,
		&r.EndTimeMs,
		&r.EndedReason,
		&r.TicksProcessed,
		&r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	r.Seed = uint32(seed)
	return &r, nil
}

// scanSessionRecords scans multiple rows into a slice of SessionRecord.
func scanSessionRecords(rows pgx.Rows) ([]*domain.SessionRecord, error) {
	var records []*domain.SessionRecord

	for rows.Next() {
		var r domain.SessionRecord
		var seed int64

		err := rows.Scan(
			&r.SessionID,
			&r.SessionStateID,
			&r.TokenMint,
			&seed,
			&r.StartTimeMs,
			&r.EndTimeMs,
			&r.EndedReason,
			&r.TicksProcessed,
			&r.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan session record row: %w", err)
		}

		r.Seed = uint32(seed)
		records = append(records, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate session record rows: %w", err)
	}

	return records, nil
}
