package reporting

import (
	"context"
	"sort"
	"time"

	"chartpulse/internal/domain"
	"chartpulse/internal/replay"
	"chartpulse/internal/storage"
)

// Generator produces session reports from stored data.
type Generator struct {
	archive storage.SessionArchiveStore
	journal storage.CommandJournalStore
	now     func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator.
func NewGenerator(archive storage.SessionArchiveStore, journal storage.CommandJournalStore) *Generator {
	return &Generator{
		archive: archive,
		journal: journal,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate builds the report for a recorded session. The session must have
// an archive row; a session with no journaled ticks yields an empty log.
func (g *Generator) Generate(ctx context.Context, sessionID string) (*Report, error) {
	record, err := g.archive.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	points, err := g.journal.GetBySessionID(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	rows := make([]TickRow, 0, len(points))
	for _, p := range points {
		rows = append(rows, TickRow{
			Tick:        p.Tick,
			TimestampMs: p.TimestampMs,
			Mode:        p.Mode,
			Intensity:   p.Intensity,
			Speed:       p.Speed,
			MinY:        p.MinY,
			MaxY:        p.MaxY,
			Boosted:     p.Boosted,
			Limited:     p.Limited,
			Degraded:    p.Degraded,
		})
	}

	report := assemble(rows, g.now())
	report.SessionID = record.SessionID
	report.TokenMint = record.TokenMint
	report.Seed = record.Seed
	report.StartTimeMs = record.StartTimeMs
	report.EndTimeMs = record.EndTimeMs
	report.EndedReason = record.EndedReason
	report.TicksProcessed = record.TicksProcessed

	return report, nil
}

// FromResult builds the report for a replayed session without touching any
// store.
func FromResult(r *replay.Result, generatedAt time.Time) *Report {
	rows := make([]TickRow, 0, len(r.Trace))
	for _, row := range r.Trace {
		if row.Mode == "" {
			continue
		}
		rows = append(rows, TickRow{
			Tick:        row.Tick,
			TimestampMs: row.TimestampMs,
			Mode:        row.Mode,
			Intensity:   row.Intensity,
			Speed:       row.Command.Speed,
			MinY:        row.Command.MinY,
			MaxY:        row.Command.MaxY,
			Boosted:     row.Boosted,
			Limited:     row.Limited,
			Degraded:    row.Degraded,
		})
	}

	report := assemble(rows, generatedAt)
	report.SessionID = r.SessionID
	report.Seed = r.Seed

	if r.Final != nil {
		report.TokenMint = r.Final.TokenMint
		report.StartTimeMs = r.Final.StartTimeMs
		report.EndTimeMs = r.Final.EndTimeMs
		report.TicksProcessed = r.Final.TicksProcessed
		if !r.Final.IsActive {
			report.EndedReason = domain.EndedReasonExpired
		}
	}

	return report
}

// assemble computes the summary and mode usage for a tick log.
func assemble(rows []TickRow, generatedAt time.Time) *Report {
	summary := Summary{TotalTicks: len(rows)}
	counts := make(map[domain.Mode]int)

	for _, row := range rows {
		if row.Boosted {
			summary.BoostedTicks++
		}
		if row.Limited {
			summary.LimitedTicks++
		}
		if row.Degraded {
			summary.DegradedTicks++
		}
		summary.MeanSpeed += row.Speed
		summary.MeanAmplitude += row.MaxY - row.MinY
		if row.Speed > summary.PeakSpeed {
			summary.PeakSpeed = row.Speed
		}
		if amp := row.MaxY - row.MinY; amp > summary.PeakAmplitude {
			summary.PeakAmplitude = amp
		}
		counts[row.Mode]++
	}
	if len(rows) > 0 {
		summary.MeanSpeed /= float64(len(rows))
		summary.MeanAmplitude /= float64(len(rows))
	}

	usage := make([]ModeUsageRow, 0, len(counts))
	for mode, ticks := range counts {
		usage = append(usage, ModeUsageRow{
			Mode:  mode,
			Ticks: ticks,
			Share: float64(ticks) / float64(len(rows)),
		})
	}
	sort.Slice(usage, func(i, j int) bool {
		if usage[i].Ticks != usage[j].Ticks {
			return usage[i].Ticks > usage[j].Ticks
		}
		return usage[i].Mode < usage[j].Mode
	})

	return &Report{
		GeneratedAt: generatedAt,
		Summary:     summary,
		ModeUsage:   usage,
		Ticks:       rows,
	}
}
