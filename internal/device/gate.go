package device

import "sync"

// Gate enforces the global minimum interval between device commands.
// One gate covers all sessions: when several sessions tick inside the
// same window only the first command goes out, the rest are skipped.
// Skipped commands are never queued.
type Gate struct {
	mu            sync.Mutex
	minIntervalMs int64
	lastMs        int64
	primed        bool
}

// NewGate creates a gate with the given minimum interval in milliseconds.
func NewGate(minIntervalMs int64) *Gate {
	return &Gate{minIntervalMs: minIntervalMs}
}

// Allow reports whether a command may be sent at the given time and, if so,
// advances the gate. The first call always passes.
func (g *Gate) Allow(nowMs int64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.primed && nowMs-g.lastMs < g.minIntervalMs {
		return false
	}

	g.lastMs = nowMs
	g.primed = true
	return true
}
