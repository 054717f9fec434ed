package replay

import "chartpulse/internal/domain"

// TickTrace captures one tick of a replayed session. Rows after expiry
// carry the stop command, an empty mode and Active false.
type TickTrace struct {
	Tick        int
	TimestampMs int64
	Mode        domain.Mode
	Intensity   float64
	Command     domain.DeviceCommand
	BoosterStep int
	Boosted     bool
	Limited     bool
	Degraded    bool
	Active      bool
}

// Result holds the outcome of one replayed session.
type Result struct {
	SessionID string
	Seed      uint32
	Params    domain.ModeParams
	Trace     []TickTrace

	// Final is the session snapshot after the last tick.
	Final *domain.Session

	// CommandsSent counts frames that passed the gate; StopsSent counts
	// terminal stop frames.
	CommandsSent int
	StopsSent    int
}

// ModeCounts tallies how often each mode was selected. Terminal rows have
// no selection and are not counted.
func (r *Result) ModeCounts() map[domain.Mode]int {
	counts := make(map[domain.Mode]int)
	for _, row := range r.Trace {
		if row.Mode == "" {
			continue
		}
		counts[row.Mode]++
	}
	return counts
}
