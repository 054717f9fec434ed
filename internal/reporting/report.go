package reporting

import (
	"time"

	"chartpulse/internal/domain"
)

// Report represents one session's rendered history.
type Report struct {
	// Metadata
	GeneratedAt time.Time
	SessionID   string
	TokenMint   string
	Seed        uint32

	// Session window
	StartTimeMs    int64
	EndTimeMs      int64
	EndedReason    string // empty while the session is still live
	TicksProcessed int

	// Summary over all processed ticks
	Summary Summary

	// ModeUsage is sorted by tick count descending, then mode name.
	ModeUsage []ModeUsageRow

	// Ticks holds the per-tick log in tick order.
	Ticks []TickRow
}

// Summary aggregates the command stream.
type Summary struct {
	TotalTicks    int
	BoostedTicks  int
	LimitedTicks  int
	DegradedTicks int
	MeanSpeed     float64
	PeakSpeed     float64
	MeanAmplitude float64
	PeakAmplitude float64
}

// ModeUsageRow counts how often one mode was selected.
type ModeUsageRow struct {
	Mode  domain.Mode
	Ticks int
	Share float64 // fraction of processed ticks
}

// TickRow represents one row in the per-tick log.
type TickRow struct {
	Tick        int
	TimestampMs int64
	Mode        domain.Mode
	Intensity   float64
	Speed       float64
	MinY        float64
	MaxY        float64
	Boosted     bool
	Limited     bool
	Degraded    bool
}
