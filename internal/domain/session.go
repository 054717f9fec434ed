package domain

// Session represents one time-boxed device control session bound to a token.
// LastSpeed and LastAmplitude carry the rate-limiter baseline between ticks
// and always hold post-safety values in [0, 100].
type Session struct {
	SessionID      string     // "<sessionStateID>-<startUnixMs>"
	SessionStateID string     // opaque caller-side state identifier
	TokenMint      string     // token mint address, opaque to the engine
	StartTimeMs    int64      // Unix timestamp in milliseconds
	EndTimeMs      int64      // StartTimeMs + SessionDurationMs
	IsActive       bool       // false once ended or expired
	Seed           uint32     // derived RNG seed, 31-bit non-negative
	Params         ModeParams // generated once at creation, immutable
	ModeID         Mode       // mode selected on the most recent tick
	LastSpeed      float64    // last commanded speed
	LastAmplitude  float64    // last commanded amplitude
	BoosterStep    int        // monotonic booster pattern counter
	TicksProcessed int        // completed tick count
	Candles        []Candle   // bounded buffer, oldest first
}

// Engine timing and sizing constants.
const (
	SessionDurationMs    = 10 * 60 * 1000 // fixed session length
	TickIntervalMs       = 60 * 1000      // cadence of tick sweeps over active sessions
	CandleBufferSize     = 30             // max candles retained per session
	MinCommandIntervalMs = 2 * 1000       // global floor between device sends

	InitialSpeed     = 40.0 // speed baseline for a fresh session
	InitialAmplitude = 25.0 // amplitude baseline for a fresh session
)

// RemainingMs returns milliseconds until expiry at the given time, never
// negative.
func (s *Session) RemainingMs(nowMs int64) int64 {
	if nowMs >= s.EndTimeMs {
		return 0
	}
	return s.EndTimeMs - nowMs
}

// IsExpired reports whether the session has passed its end time.
func (s *Session) IsExpired(nowMs int64) bool {
	return nowMs >= s.EndTimeMs
}
