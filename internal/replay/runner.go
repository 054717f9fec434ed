// Package replay drives a session through scripted market data on a
// synthetic clock. The same script and identity always produce the same
// trace, which makes the engine's decisions diffable offline.
package replay

import (
	"context"
	"fmt"
	"time"

	"chartpulse/internal/device"
	devstub "chartpulse/internal/device/stub"
	"chartpulse/internal/domain"
	mdstub "chartpulse/internal/marketdata/stub"
	"chartpulse/internal/session"
	"chartpulse/internal/storage/memory"
)

// Replay identity defaults. The start falls on a fixed epoch so runs are
// reproducible without flags.
const (
	DefaultStateID = "replay-001"
	DefaultMint    = "So11111111111111111111111111111111111111112"
	DefaultStartMs = int64(1704067200000) // 2024-01-01 00:00:00 UTC
)

// Options configures one replay run.
type Options struct {
	// SessionStateID and TokenMint define the session identity and with
	// it the seed. Empty values use the defaults above.
	SessionStateID string
	TokenMint      string

	// StartTime anchors the synthetic clock. Zero means DefaultStartMs.
	StartTime time.Time

	// Ticks is the number of tick intervals to simulate. Zero means a
	// full session including the terminal tick.
	Ticks int

	// Batches holds one fetch result per tick, consumed in order. A nil
	// batch leaves the buffer stale for that tick.
	Batches [][]domain.Candle

	// Verbose enables per-tick logging in the underlying manager.
	Verbose bool
}

// Run replays one session tick by tick and returns its trace. The manager,
// stores and device are all private to the run, so replays never touch
// live state.
func Run(ctx context.Context, opts Options) (*Result, error) {
	stateID := opts.SessionStateID
	if stateID == "" {
		stateID = DefaultStateID
	}
	mint := opts.TokenMint
	if mint == "" {
		mint = DefaultMint
	}
	startMs := DefaultStartMs
	if !opts.StartTime.IsZero() {
		startMs = opts.StartTime.UnixMilli()
	}
	ticks := opts.Ticks
	if ticks <= 0 {
		ticks = int(domain.SessionDurationMs / domain.TickIntervalMs)
	}

	source := mdstub.NewCandleSource()
	for _, batch := range opts.Batches {
		source.AddBatch(mint, batch)
	}

	transport := devstub.NewTransport()
	journal := memory.NewCommandJournalStore()
	archive := memory.NewSessionArchiveStore()

	clockMs := startMs
	mgr := session.New(session.Options{
		Candles: source,
		Device:  transport,
		Gate:    device.NewGate(domain.MinCommandIntervalMs),
		Archive: archive,
		Journal: journal,
		Verbose: opts.Verbose,
		Now:     func() time.Time { return time.UnixMilli(clockMs) },
	})

	created := mgr.CreateSession(ctx, stateID, mint, time.UnixMilli(startMs))

	result := &Result{
		SessionID: created.SessionID,
		Seed:      created.Seed,
		Params:    created.Params,
		Trace:     make([]TickTrace, 0, ticks),
	}

	for i := 1; i <= ticks; i++ {
		clockMs = startMs + int64(i)*domain.TickIntervalMs

		cmd := mgr.ProcessTick(ctx, created.SessionID)
		if cmd == nil {
			return nil, fmt.Errorf("replay: session %s vanished at tick %d", created.SessionID, i)
		}
		status := mgr.GetSessionStatus(created.SessionID)

		row := TickTrace{
			Tick:        i,
			TimestampMs: clockMs,
			Command:     *cmd,
			BoosterStep: status.BoosterStep,
			Active:      status.IsActive,
		}
		if status.IsActive {
			row.Mode = status.Mode
		}
		result.Trace = append(result.Trace, row)
	}

	// Annotate processed rows from the journal. Journal tick numbers line
	// up with trace positions until the session expires.
	points, err := journal.GetBySessionID(ctx, created.SessionID)
	if err != nil {
		return nil, fmt.Errorf("replay: read journal: %w", err)
	}
	for _, p := range points {
		if p.Tick < 1 || p.Tick > len(result.Trace) {
			continue
		}
		row := &result.Trace[p.Tick-1]
		row.Intensity = p.Intensity
		row.Boosted = p.Boosted
		row.Limited = p.Limited
		row.Degraded = p.Degraded
	}

	result.Final = mgr.GetSession(created.SessionID)
	result.CommandsSent = len(transport.Commands())
	result.StopsSent = transport.StopCount()

	return result, nil
}
