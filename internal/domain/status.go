package domain

// SessionStatus represents a point-in-time snapshot of a session for
// status queries. It carries no mutable engine state.
type SessionStatus struct {
	SessionID      string  // session identifier
	TokenMint      string  // token mint address
	IsActive       bool    // false once ended or expired
	Mode           Mode    // mode from the most recent tick
	StartTimeMs    int64   // Unix timestamp in milliseconds
	EndTimeMs      int64   // scheduled expiry timestamp (ms)
	RemainingMs    int64   // time until expiry, zero when past due
	LastSpeed      float64 // last commanded speed
	LastAmplitude  float64 // last commanded amplitude
	BoosterStep    int     // booster pattern counter
	TicksProcessed int     // completed tick count
}
