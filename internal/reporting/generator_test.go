package reporting

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"chartpulse/internal/domain"
	"chartpulse/internal/replay"
	"chartpulse/internal/storage"
	"chartpulse/internal/storage/memory"
)

const testSessionID = "state-001-1704067200000"

func setupTestData(t *testing.T) (*memory.SessionArchiveStore, *memory.CommandJournalStore) {
	ctx := context.Background()

	archive := memory.NewSessionArchiveStore()
	journal := memory.NewCommandJournalStore()

	record := &domain.SessionRecord{
		SessionID:      testSessionID,
		SessionStateID: "state-001",
		TokenMint:      "mintA",
		Seed:           123456,
		StartTimeMs:    1704067200000,
		EndTimeMs:      1704067200000 + domain.SessionDurationMs,
		EndedReason:    domain.EndedReasonExpired,
		TicksProcessed: 3,
		CreatedAt:      1704067200000,
	}
	if err := archive.Insert(ctx, record); err != nil {
		t.Fatalf("Insert record failed: %v", err)
	}

	points := []*domain.CommandPoint{
		{
			SessionID: testSessionID, TokenMint: "mintA",
			TimestampMs: 1704067260000, Tick: 1,
			Mode: domain.ModeTrendRider, Intensity: 0.5,
			Speed: 50, MinY: 35, MaxY: 65,
		},
		{
			SessionID: testSessionID, TokenMint: "mintA",
			TimestampMs: 1704067320000, Tick: 2,
			Mode: domain.ModeLiquidityPanic, Intensity: 1.0,
			Speed: 65, MinY: 20, MaxY: 80,
			Boosted: true, Limited: true,
		},
		{
			SessionID: testSessionID, TokenMint: "mintA",
			TimestampMs: 1704067380000, Tick: 3,
			Mode: domain.ModeTrendRider, Intensity: 0.4,
			Speed: 55, MinY: 30, MaxY: 70,
		},
	}
	if err := journal.InsertBulk(ctx, points); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	return archive, journal
}

func TestGenerate_FromStores(t *testing.T) {
	ctx := context.Background()
	archive, journal := setupTestData(t)

	fixed := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	gen := NewGenerator(archive, journal).WithClock(func() time.Time { return fixed })

	report, err := gen.Generate(ctx, testSessionID)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if report.GeneratedAt != fixed {
		t.Errorf("expected injected clock time, got %v", report.GeneratedAt)
	}
	if report.SessionID != testSessionID || report.TokenMint != "mintA" || report.Seed != 123456 {
		t.Errorf("unexpected metadata: %+v", report)
	}
	if report.EndedReason != domain.EndedReasonExpired || report.TicksProcessed != 3 {
		t.Errorf("unexpected lifecycle fields: reason=%q ticks=%d", report.EndedReason, report.TicksProcessed)
	}

	if report.Summary.TotalTicks != 3 {
		t.Errorf("expected 3 ticks, got %d", report.Summary.TotalTicks)
	}
	if report.Summary.BoostedTicks != 1 || report.Summary.LimitedTicks != 1 || report.Summary.DegradedTicks != 0 {
		t.Errorf("unexpected flag counts: %+v", report.Summary)
	}
	if want := (50.0 + 65.0 + 55.0) / 3; math.Abs(report.Summary.MeanSpeed-want) > 1e-9 {
		t.Errorf("expected mean speed %v, got %v", want, report.Summary.MeanSpeed)
	}
	if report.Summary.PeakSpeed != 65 {
		t.Errorf("expected peak speed 65, got %v", report.Summary.PeakSpeed)
	}
	if report.Summary.PeakAmplitude != 60 {
		t.Errorf("expected peak amplitude 60, got %v", report.Summary.PeakAmplitude)
	}

	if len(report.ModeUsage) != 2 {
		t.Fatalf("expected 2 mode rows, got %d", len(report.ModeUsage))
	}
	if report.ModeUsage[0].Mode != domain.ModeTrendRider || report.ModeUsage[0].Ticks != 2 {
		t.Errorf("expected TREND_RIDER x2 first, got %+v", report.ModeUsage[0])
	}
	if math.Abs(report.ModeUsage[1].Share-1.0/3) > 1e-9 {
		t.Errorf("expected share 1/3, got %v", report.ModeUsage[1].Share)
	}
}

func TestGenerate_UnknownSession(t *testing.T) {
	ctx := context.Background()
	archive, journal := setupTestData(t)
	gen := NewGenerator(archive, journal)

	if _, err := gen.Generate(ctx, "no-such-session"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestFromResult(t *testing.T) {
	ctx := context.Background()

	result, err := replay.Run(ctx, replay.Options{
		Batches: replay.SyntheticBatches(replay.DefaultMint, replay.DefaultStartMs),
	})
	if err != nil {
		t.Fatalf("replay: %v", err)
	}

	fixed := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	report := FromResult(result, fixed)

	if report.SessionID != result.SessionID || report.Seed != result.Seed {
		t.Errorf("expected replay identity, got %+v", report)
	}
	if report.EndedReason != domain.EndedReasonExpired {
		t.Errorf("expected expired reason for a full run, got %q", report.EndedReason)
	}

	// The terminal stop row is not part of the tick log.
	wantTicks := len(result.Trace) - 1
	if report.Summary.TotalTicks != wantTicks {
		t.Errorf("expected %d ticks, got %d", wantTicks, report.Summary.TotalTicks)
	}
	if len(report.Ticks) != wantTicks {
		t.Errorf("expected %d tick rows, got %d", wantTicks, len(report.Ticks))
	}

	total := 0
	for _, row := range report.ModeUsage {
		total += row.Ticks
	}
	if total != wantTicks {
		t.Errorf("expected mode usage to cover all ticks, got %d of %d", total, wantTicks)
	}
}

func TestRenderMarkdown_Format(t *testing.T) {
	ctx := context.Background()
	archive, journal := setupTestData(t)
	gen := NewGenerator(archive, journal).WithClock(func() time.Time {
		return time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	})

	report, err := gen.Generate(ctx, testSessionID)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	md := RenderMarkdown(report)

	for _, want := range []string{
		"# Session Report",
		"Generated: 2024-01-02T00:00:00Z",
		"Session: " + testSessionID,
		"Ended: expired after 3 ticks",
		"## Summary",
		"## Mode Usage",
		"| TREND_RIDER | 2 | 66.67% |",
		"## Tick Log",
		"| 2 | 1704067320000 | LIQUIDITY_PANIC | 1.000 | 65.0 | 20.0 | 80.0 | yes | yes | no |",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("expected markdown to contain %q", want)
		}
	}
}

func TestRenderMarkdown_EmptyLog(t *testing.T) {
	report := assemble(nil, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC))
	report.SessionID = "state-empty-1"

	md := RenderMarkdown(report)
	if !strings.Contains(md, "No ticks recorded.") {
		t.Error("expected empty-log marker")
	}
	if !strings.Contains(md, "Still active after 0 ticks") {
		t.Error("expected still-active line when no ended reason is set")
	}
}

func TestRenderCSV(t *testing.T) {
	rows := []TickRow{
		{
			Tick: 1, TimestampMs: 1704067260000,
			Mode: domain.ModeTrendRider, Intensity: 0.5,
			Speed: 50, MinY: 35, MaxY: 65,
		},
		{
			Tick: 2, TimestampMs: 1704067320000,
			Mode: domain.ModeLiquidityPanic, Intensity: 1,
			Speed: 65, MinY: 20, MaxY: 80,
			Boosted: true, Limited: true,
		},
	}

	csv := RenderCSV(rows)
	lines := strings.Split(strings.TrimSpace(csv), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header and 2 rows, got %d lines", len(lines))
	}
	if lines[0] != "tick,timestamp_ms,mode,intensity,speed,min_y,max_y,boosted,limited,degraded" {
		t.Errorf("unexpected header: %q", lines[0])
	}
	if lines[1] != "1,1704067260000,TREND_RIDER,0.500000,50.000000,35.000000,65.000000,0,0,0" {
		t.Errorf("unexpected row 1: %q", lines[1])
	}
	if lines[2] != "2,1704067320000,LIQUIDITY_PANIC,1.000000,65.000000,20.000000,80.000000,1,1,0" {
		t.Errorf("unexpected row 2: %q", lines[2])
	}
}
