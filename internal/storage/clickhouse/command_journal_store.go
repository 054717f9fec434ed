package clickhouse

import (
	"context"
	"fmt"

	"chartpulse/internal/domain"
	"chartpulse/internal/storage"
)

// CommandJournalStore implements storage.CommandJournalStore using ClickHouse.
type CommandJournalStore struct {
	conn *Conn
}

// NewCommandJournalStore creates a new CommandJournalStore.
func NewCommandJournalStore(conn *Conn) *CommandJournalStore {
	return &CommandJournalStore{conn: conn}
}

// Compile-time interface check.
var _ storage.CommandJournalStore = (*CommandJournalStore)(nil)

// InsertBulk adds multiple points. Fails entire batch on duplicate (session_id, tick).
func (s *CommandJournalStore) InsertBulk(ctx context.Context, points []*domain.CommandPoint) error {
	if len(points) == 0 {
		return nil
	}

	// Check for intra-batch duplicates
	type key struct {
		sessionID string
		tick      int
	}
	seen := make(map[key]struct{})
	for _, p := range points {
		if p == nil || p.SessionID == "" || p.Tick < 0 {
			return storage.ErrInvalidInput
		}
		k := key{p.SessionID, p.Tick}
		if _, exists := seen[k]; exists {
			return storage.ErrDuplicateKey
		}
		seen[k] = struct{}{}
	}

	// Check for duplicates against existing DB rows.
	// MergeTree does not enforce uniqueness, so the check is explicit.
	for _, p := range points {
		exists, err := s.exists(ctx, p.SessionID, p.Tick)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if exists {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO command_journal (
			session_id, token_mint, timestamp_ms, tick, mode,
			intensity, speed, min_y, max_y, boosted, limited, degraded
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, p := range points {
		err = batch.Append(
			p.SessionID, p.TokenMint, uint64(p.TimestampMs), uint32(p.Tick), string(p.Mode),
			p.Intensity, p.Speed, p.MinY, p.MaxY,
			boolToUint8(p.Boosted), boolToUint8(p.Limited), boolToUint8(p.Degraded),
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetBySessionID retrieves all points for a session, ordered by tick ASC.
func (s *CommandJournalStore) GetBySessionID(ctx context.Context, sessionID string) ([]*domain.CommandPoint, error) {
	if sessionID == "" {
		return nil, storage.ErrInvalidInput
	}

	query := `
		SELECT session_id, token_mint, timestamp_ms, tick, mode,
		       intensity, speed, min_y, max_y, boosted, limited, degraded
		FROM command_journal
		WHERE session_id = ?
		ORDER BY tick ASC
	`

	rows, err := s.conn.Query(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query by session id: %w", err)
	}
	defer rows.Close()

	return scanCommandPoints(rows)
}

// GetByTimeRange retrieves points for a session within [start, end] (inclusive).
func (s *CommandJournalStore) GetByTimeRange(ctx context.Context, sessionID string, start, end int64) ([]*domain.CommandPoint, error) {
	query := `
		SELECT session_id, token_mint, timestamp_ms, tick, mode,
		       intensity, speed, min_y, max_y, boosted, limited, degraded
		FROM command_journal
		WHERE session_id = ? AND timestamp_ms >= ? AND timestamp_ms <= ?
		ORDER BY tick ASC
	`

	rows, err := s.conn.Query(ctx, query, sessionID, uint64(start), uint64(end))
	if err != nil {
		return nil, fmt.Errorf("query by time range: %w", err)
	}
	defer rows.Close()

	return scanCommandPoints(rows)
}

// CountBySessionID returns the number of journaled points for a session.
func (s *CommandJournalStore) CountBySessionID(ctx context.Context, sessionID string) (int, error) {
	query := `
		SELECT count(*) FROM command_journal
		WHERE session_id = ?
	`

	var count uint64
	err := s.conn.QueryRow(ctx, query, sessionID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count by session id: %w", err)
	}
	return int(count), nil
}

// exists checks if a point with the given key exists.
func (s *CommandJournalStore) exists(ctx context.Context, sessionID string, tick int) (bool, error) {
	query := `
		SELECT count(*) FROM command_journal
		WHERE session_id = ? AND tick = ?
	`

	var count uint64
	err := s.conn.QueryRow(ctx, query, sessionID, uint32(tick)).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Rows interface for scanning
type chRows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}

// scanCommandPoints scans multiple rows into a slice.
func scanCommandPoints(rows chRows) ([]*domain.CommandPoint, error) {
	var points []*domain.CommandPoint

	for rows.Next() {
		var p domain.CommandPoint
		var timestampMs uint64
		var tick uint32
		var mode string
		var boosted, limited, degraded uint8

		err := rows.Scan(
			&p.SessionID, &p.TokenMint, &timestampMs, &tick, &mode,
			&p.Intensity, &p.Speed, &p.MinY, &p.MaxY,
			&boosted, &limited, &degraded,
		)
		if err != nil {
			return nil, fmt.Errorf("scan command point row: %w", err)
		}

		p.TimestampMs = int64(timestampMs)
		p.Tick = int(tick)
		p.Mode = domain.Mode(mode)
		p.Boosted = boosted != 0
		p.Limited = limited != 0
		p.Degraded = degraded != 0
		points = append(points, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate command point rows: %w", err)
	}

	return points, nil
}

func boolToUint8(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
