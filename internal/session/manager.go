// Package session provides the per-token control loop: session lifecycle,
// the 60-second tick pipeline and the bridge to device and storage.
package session

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"chartpulse/internal/device"
	"chartpulse/internal/domain"
	"chartpulse/internal/marketdata"
	"chartpulse/internal/modes"
	"chartpulse/internal/observability"
	"chartpulse/internal/seedrand"
	"chartpulse/internal/storage"
)

// entry pairs a session with the mutex serializing its ticks. Two ticks on
// the same session must never interleave their read-modify-write of the
// rate-limiter baseline; different sessions tick in parallel.
type entry struct {
	mu      sync.Mutex
	session *domain.Session
}

// Manager owns the session table and coordinates the tick pipeline.
// Flow per tick: expiry check → buffer refresh → metrics → mode → booster →
// safety → persist state → journal + device (fire-and-forget).
type Manager struct {
	candles marketdata.CandleSource
	device  device.Transport
	gate    *device.Gate
	archive storage.SessionArchiveStore
	journal storage.CommandJournalStore

	verbose bool
	now     func() time.Time

	mu      sync.RWMutex
	entries map[string]*entry

	// active tracks the gauge without holding entry locks. Incremented on
	// create, decremented exactly once on finalize.
	active atomic.Int64
}

// Options for creating a Manager. Every collaborator is optional; a nil
// collaborator skips that step of the pipeline.
type Options struct {
	// Candles supplies market data each tick. Nil means ticks run on
	// whatever buffer the session already holds.
	Candles marketdata.CandleSource

	// Device receives the resulting commands. Nil disables device I/O.
	Device device.Transport

	// Gate throttles outbound commands globally. Nil creates a default
	// gate with the standard minimum interval.
	Gate *device.Gate

	// Archive records session lifecycle rows. Nil disables archiving.
	Archive storage.SessionArchiveStore

	// Journal records per-tick command points. Nil disables journaling.
	Journal storage.CommandJournalStore

	// Verbose enables per-tick logging.
	Verbose bool

	// Now overrides the clock, used by replay and tests.
	Now func() time.Time
}

// New creates a new Manager.
func New(opts Options) *Manager {
	gate := opts.Gate
	if gate == nil {
		gate = device.NewGate(domain.MinCommandIntervalMs)
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &Manager{
		candles: opts.Candles,
		device:  opts.Device,
		gate:    gate,
		archive: opts.Archive,
		journal: opts.Journal,
		verbose: opts.Verbose,
		now:     now,
		entries: make(map[string]*entry),
	}
}

// CreateSession registers a new session for a token. A zero startTime means
// the current clock. The seed, and with it every threshold the session will
// ever use, is fully determined by (sessionStateID, tokenMint, start
// minute); creating the same triple again yields the same session identity.
// The manager does not reject a second session for the same token - callers
// check GetActiveSessionForToken first.
func (m *Manager) CreateSession(ctx context.Context, sessionStateID, tokenMint string, startTime time.Time) *domain.Session {
	if startTime.IsZero() {
		startTime = m.now()
	}
	startMs := startTime.UnixMilli()

	sessionID := fmt.Sprintf("%s-%d", sessionStateID, startMs)
	seed := seedrand.DeriveSeed(sessionStateID, tokenMint, startMs)

	s := &domain.Session{
		SessionID:      sessionID,
		SessionStateID: sessionStateID,
		TokenMint:      tokenMint,
		StartTimeMs:    startMs,
		EndTimeMs:      startMs + domain.SessionDurationMs,
		IsActive:       true,
		Seed:           seed,
		Params:         modes.GenerateParams(seed),
		ModeID:         domain.ModeTrendRider,
		LastSpeed:      domain.InitialSpeed,
		LastAmplitude:  domain.InitialAmplitude,
	}

	m.mu.Lock()
	if existing, ok := m.entries[sessionID]; ok {
		// Same (state, start) pair re-registered: hand back the live one.
		m.mu.Unlock()
		existing.mu.Lock()
		defer existing.mu.Unlock()
		return copySession(existing.session)
	}
	m.entries[sessionID] = &entry{session: s}
	m.mu.Unlock()

	m.log("created session %s for %s (seed=%d, mode params emaN=%d)",
		sessionID, tokenMint, seed, s.Params.EmaN)
	observability.RecordSessionCreated()
	observability.SetActiveSessions(int(m.active.Add(1)))

	m.archiveCreate(ctx, s)

	return copySession(s)
}

// GetSession returns a copy of the session, or nil if unknown.
func (m *Manager) GetSession(sessionID string) *domain.Session {
	m.mu.RLock()
	e := m.entries[sessionID]
	m.mu.RUnlock()
	if e == nil {
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return copySession(e.session)
}

// GetActiveSessionForToken returns a copy of the live session bound to the
// token, or nil. Sessions past their end time are not reported even before
// a tick or sweep has finalized them. When several qualify the most
// recently started wins.
func (m *Manager) GetActiveSessionForToken(tokenMint string) *domain.Session {
	nowMs := m.now().UnixMilli()

	m.mu.RLock()
	candidates := make([]*entry, 0, 1)
	for _, e := range m.entries {
		candidates = append(candidates, e)
	}
	m.mu.RUnlock()

	var best *domain.Session
	for _, e := range candidates {
		e.mu.Lock()
		s := e.session
		if s.TokenMint == tokenMint && s.IsActive && !s.IsExpired(nowMs) {
			if best == nil || s.StartTimeMs > best.StartTimeMs {
				best = copySession(s)
			}
		}
		e.mu.Unlock()
	}
	return best
}

// IsSessionExpired reports whether the session has passed its end time.
// Unknown sessions report false; use GetSession to test existence.
func (m *Manager) IsSessionExpired(sessionID string) bool {
	m.mu.RLock()
	e := m.entries[sessionID]
	m.mu.RUnlock()
	if e == nil {
		return false
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session.IsExpired(m.now().UnixMilli())
}

// ProcessTick runs one evaluation of the control pipeline. It returns nil
// only for unknown sessions and never returns an error: upstream failures
// degrade the command instead of propagating. Expired sessions yield the
// canonical stop command and deactivate.
func (m *Manager) ProcessTick(ctx context.Context, sessionID string) *domain.DeviceCommand {
	m.mu.RLock()
	e := m.entries[sessionID]
	m.mu.RUnlock()
	if e == nil {
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	s := e.session
	nowMs := m.now().UnixMilli()

	if !s.IsActive {
		stop := domain.CommandStop
		return &stop
	}

	if s.IsExpired(nowMs) {
		m.finalizeLocked(ctx, s, domain.EndedReasonExpired)
		observability.RecordTick("expired")
		stop := domain.CommandStop
		return &stop
	}

	m.refreshBuffer(ctx, s)

	out, ok := m.computeTick(s)
	if !ok {
		out = m.degradeTick(s)
		observability.RecordTick("degraded")
	} else {
		observability.RecordTick("ok")
	}
	s.TicksProcessed++
	observability.RecordLastTick(nowMs / 1000)

	m.log("tick %d %s: mode=%s intensity=%.2f speed=%.1f band=[%.1f, %.1f]",
		s.TicksProcessed, s.SessionID, out.mode, out.intensity,
		out.cmd.Speed, out.cmd.MinY, out.cmd.MaxY)

	m.journalTick(ctx, s, out, nowMs)
	m.forwardCommand(ctx, out.cmd, nowMs)

	cmd := out.cmd
	return &cmd
}

// EndSession deactivates the session explicitly. Returns false if the
// session is unknown or already inactive.
func (m *Manager) EndSession(ctx context.Context, sessionID string) bool {
	m.mu.RLock()
	e := m.entries[sessionID]
	m.mu.RUnlock()
	if e == nil {
		return false
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.session.IsActive {
		return false
	}
	m.finalizeLocked(ctx, e.session, domain.EndedReasonEnded)
	return true
}

// GetSessionStatus returns a point-in-time snapshot, or nil if unknown.
func (m *Manager) GetSessionStatus(sessionID string) *domain.SessionStatus {
	m.mu.RLock()
	e := m.entries[sessionID]
	m.mu.RUnlock()
	if e == nil {
		return nil
	}

	nowMs := m.now().UnixMilli()

	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.session

	return &domain.SessionStatus{
		SessionID:      s.SessionID,
		TokenMint:      s.TokenMint,
		IsActive:       s.IsActive && !s.IsExpired(nowMs),
		Mode:           s.ModeID,
		StartTimeMs:    s.StartTimeMs,
		EndTimeMs:      s.EndTimeMs,
		RemainingMs:    s.RemainingMs(nowMs),
		LastSpeed:      s.LastSpeed,
		LastAmplitude:  s.LastAmplitude,
		BoosterStep:    s.BoosterStep,
		TicksProcessed: s.TicksProcessed,
	}
}

// CleanupExpiredSessions removes inactive and past-end sessions from the
// table and returns the removed count. Expired sessions that never saw
// their final tick are finalized on the way out.
func (m *Manager) CleanupExpiredSessions(ctx context.Context) int {
	nowMs := m.now().UnixMilli()

	m.mu.RLock()
	ids := make([]string, 0, len(m.entries))
	for id := range m.entries {
		ids = append(ids, id)
	}
	m.mu.RUnlock()

	removed := 0
	for _, id := range ids {
		m.mu.RLock()
		e := m.entries[id]
		m.mu.RUnlock()
		if e == nil {
			continue
		}

		e.mu.Lock()
		s := e.session
		drop := false
		if s.IsActive && s.IsExpired(nowMs) {
			m.finalizeLocked(ctx, s, domain.EndedReasonExpired)
		}
		if !s.IsActive || s.IsExpired(nowMs) {
			drop = true
		}
		e.mu.Unlock()

		if drop {
			m.mu.Lock()
			delete(m.entries, id)
			m.mu.Unlock()
			removed++
		}
	}

	if removed > 0 {
		m.log("cleanup removed %d sessions", removed)
	}
	return removed
}

// GetAllActiveSessions returns copies of every active session, ordered by
// start time then ID so sweep callers iterate deterministically.
func (m *Manager) GetAllActiveSessions() []*domain.Session {
	m.mu.RLock()
	all := make([]*entry, 0, len(m.entries))
	for _, e := range m.entries {
		all = append(all, e)
	}
	m.mu.RUnlock()

	var result []*domain.Session
	for _, e := range all {
		e.mu.Lock()
		if e.session.IsActive {
			result = append(result, copySession(e.session))
		}
		e.mu.Unlock()
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].StartTimeMs != result[j].StartTimeMs {
			return result[i].StartTimeMs < result[j].StartTimeMs
		}
		return result[i].SessionID < result[j].SessionID
	})
	return result
}

// tickOutcome carries one tick's command plus the journal annotations.
type tickOutcome struct {
	cmd       domain.DeviceCommand
	mode      domain.Mode
	intensity float64
	boosted   bool
	limited   bool
	degraded  bool
}

// computeTick runs metrics → mode → booster → safety and persists the
// session's runtime fields. Entry lock held by the caller. Any panic in
// the computation is caught here so the tick can degrade instead of
// crashing the caller.
func (m *Manager) computeTick(s *domain.Session) (out tickOutcome, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[session] tick computation failed for %s: %v", s.SessionID, r)
			ok = false
		}
	}()

	prevVolume := 0.0
	if n := len(s.Candles); n >= 2 {
		prevVolume = s.Candles[n-2].Volume
	}

	metrics := marketdata.ComputeMetrics(s.Candles, prevVolume, s.Params.EmaN)
	mode := modes.SelectMode(metrics, s.Params)
	modeOut := modes.ComputeOutput(mode, metrics, s.Params)
	booster := modes.ApplyBooster(modeOut.Intensity, modeOut.Speed, modeOut.Amplitude, s.BoosterStep)
	safety := modes.ApplySafety(booster.Speed, booster.Amplitude, s.LastSpeed, s.LastAmplitude, false)
	minY, maxY := modes.Band(safety.Amplitude)

	s.ModeID = mode
	s.LastSpeed = safety.Speed
	s.LastAmplitude = safety.Amplitude
	s.BoosterStep = booster.Step

	observability.RecordModeSelection(mode.String())
	if booster.Applied {
		observability.RecordBoosterActivation()
	}
	if safety.Limited {
		observability.RecordLimitedTick()
	}

	return tickOutcome{
		cmd:       domain.DeviceCommand{Speed: safety.Speed, MinY: minY, MaxY: maxY},
		mode:      mode,
		intensity: modeOut.Intensity,
		boosted:   booster.Applied,
		limited:   safety.Limited,
	}, true
}

// degradeTick produces the fallback command after a computation failure:
// speed eases down from the last known value, bounded away from zero, over
// a widened band. The degraded values persist so repeated failures decay
// toward the floor instead of oscillating.
func (m *Manager) degradeTick(s *domain.Session) tickOutcome {
	speed := s.LastSpeed * 0.6
	if speed < 20 {
		speed = 20
	}
	s.LastSpeed = speed
	s.LastAmplitude = 60

	return tickOutcome{
		cmd:      domain.DeviceCommand{Speed: speed, MinY: 20, MaxY: 80},
		mode:     s.ModeID,
		degraded: true,
	}
}

// refreshBuffer merges freshly fetched candles into the session buffer.
// Fetch failures leave the buffer stale; the tick proceeds regardless.
func (m *Manager) refreshBuffer(ctx context.Context, s *domain.Session) {
	if m.candles == nil {
		return
	}

	start := time.Now()
	fetched, err := m.candles.FetchCandles(ctx, s.TokenMint)
	observability.RecordCandleFetch(time.Since(start).Seconds(), err)
	if err != nil {
		log.Printf("[session] candle fetch failed for %s, keeping stale buffer: %v", s.SessionID, err)
		return
	}
	if len(fetched) == 0 {
		return
	}
	s.Candles = marketdata.MergeCandles(s.Candles, fetched, domain.CandleBufferSize)
}

// finalizeLocked deactivates the session and fires the terminal side
// effects. Entry lock held by the caller.
func (m *Manager) finalizeLocked(ctx context.Context, s *domain.Session, reason string) {
	s.IsActive = false

	m.log("session %s finalized (%s) after %d ticks", s.SessionID, reason, s.TicksProcessed)
	observability.RecordSessionEnded(reason)
	observability.SetActiveSessions(int(m.active.Add(-1)))

	if m.archive != nil {
		if err := m.archive.MarkEnded(ctx, s.SessionID, reason, s.TicksProcessed); err != nil {
			log.Printf("[session] archive mark-ended failed for %s: %v", s.SessionID, err)
			observability.RecordArchiveError()
		}
	}

	if m.device != nil {
		if err := m.device.StopDevice(ctx); err != nil {
			log.Printf("[session] device stop failed for %s: %v", s.SessionID, err)
			observability.RecordDeviceCommand(err)
		}
	}
}

// archiveCreate inserts the lifecycle row for a new session. Failures are
// logged and never surface to the caller.
func (m *Manager) archiveCreate(ctx context.Context, s *domain.Session) {
	if m.archive == nil {
		return
	}

	record := &domain.SessionRecord{
		SessionID:      s.SessionID,
		SessionStateID: s.SessionStateID,
		TokenMint:      s.TokenMint,
		Seed:           s.Seed,
		StartTimeMs:    s.StartTimeMs,
		EndTimeMs:      s.EndTimeMs,
		CreatedAt:      m.now().UnixMilli(),
	}
	if err := m.archive.Insert(ctx, record); err != nil {
		log.Printf("[session] archive insert failed for %s: %v", s.SessionID, err)
		observability.RecordArchiveError()
	}
}

// journalTick records one command point. Failures are logged and never
// surface to the caller.
func (m *Manager) journalTick(ctx context.Context, s *domain.Session, out tickOutcome, nowMs int64) {
	if m.journal == nil {
		return
	}

	point := &domain.CommandPoint{
		SessionID:   s.SessionID,
		TokenMint:   s.TokenMint,
		TimestampMs: nowMs,
		Tick:        s.TicksProcessed,
		Mode:        out.mode,
		Intensity:   out.intensity,
		Speed:       out.cmd.Speed,
		MinY:        out.cmd.MinY,
		MaxY:        out.cmd.MaxY,
		Boosted:     out.boosted,
		Limited:     out.limited,
		Degraded:    out.degraded,
	}
	if err := m.journal.InsertBulk(ctx, []*domain.CommandPoint{point}); err != nil {
		log.Printf("[session] journal write failed for %s tick %d: %v", s.SessionID, point.Tick, err)
		observability.RecordJournalError()
	}
}

// forwardCommand pushes the command through the global gate to the device.
// Gate-skipped commands are dropped, never queued. Failures are logged and
// session state stays authoritative.
func (m *Manager) forwardCommand(ctx context.Context, cmd domain.DeviceCommand, nowMs int64) {
	if m.device == nil {
		return
	}

	if !m.gate.Allow(nowMs) {
		observability.RecordDeviceCommandSkipped()
		return
	}

	err := m.device.SendCommand(ctx, cmd)
	observability.RecordDeviceCommand(err)
	if err != nil {
		log.Printf("[session] device send failed: %v", err)
	}
}

// copySession returns a detached copy with its own candle slice.
func copySession(s *domain.Session) *domain.Session {
	c := *s
	c.Candles = make([]domain.Candle, len(s.Candles))
	copy(c.Candles, s.Candles)
	return &c
}

func (m *Manager) log(format string, args ...interface{}) {
	if m.verbose {
		log.Printf("[session] "+format, args...)
	}
}
