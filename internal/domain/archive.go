package domain

// SessionRecord represents an archived session lifecycle row.
// Corresponds to session_archive table in PostgreSQL.
type SessionRecord struct {
	SessionID      string // PRIMARY KEY
	SessionStateID string // caller-side state identifier
	TokenMint      string // token mint address
	Seed           uint32 // derived RNG seed
	StartTimeMs    int64  // Unix timestamp in milliseconds
	EndTimeMs      int64  // scheduled expiry timestamp (ms)
	EndedReason    string // "" while live, then "ended" | "expired"
	TicksProcessed int    // tick count at last update
	CreatedAt      int64  // record creation timestamp (ms)
}

// Session end reasons recorded in the archive.
const (
	EndedReasonEnded   = "ended"
	EndedReasonExpired = "expired"
)

// CommandPoint represents one journaled tick output.
// Corresponds to command_journal table in ClickHouse.
type CommandPoint struct {
	SessionID   string  // session identifier
	TokenMint   string  // token mint address
	TimestampMs int64   // Unix timestamp in milliseconds
	Tick        int     // tick ordinal within the session, 1-based
	Mode        Mode    // selected mode for this tick
	Intensity   float64 // mode intensity in [0, 1]
	Speed       float64 // commanded speed
	MinY        float64 // commanded band lower bound
	MaxY        float64 // commanded band upper bound
	Boosted     bool    // booster pattern applied this tick
	Limited     bool    // safety pipeline altered the raw output
	Degraded    bool    // fallback command after a tick failure
}
