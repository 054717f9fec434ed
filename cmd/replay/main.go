package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"chartpulse/internal/domain"
	"chartpulse/internal/replay"
	"chartpulse/internal/reporting"
)

func main() {
	// Parse flags
	stateID := flag.String("state", replay.DefaultStateID, "Session state ID (seed input)")
	tokenMint := flag.String("mint", replay.DefaultMint, "Token mint (seed input)")
	startTime := flag.String("start", "", "Session start time (RFC3339, default fixed epoch)")
	ticks := flag.Int("ticks", 0, "Number of ticks to simulate (0 = full session)")
	candlesPath := flag.String("candles", "", "Candle CSV file (default built-in synthetic script)")
	outDir := flag.String("out", "", "Directory for the Markdown report and tick CSV (empty skips)")
	outputJSON := flag.Bool("json", false, "Output summary as JSON")
	verbose := flag.Bool("v", false, "Enable per-tick engine logging")

	flag.Parse()

	// Setup logger
	logger := log.New(os.Stderr, "[replay] ", log.LstdFlags)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, shutting down...", sig)
		cancel()
	}()

	opts := replay.Options{
		SessionStateID: *stateID,
		TokenMint:      *tokenMint,
		Ticks:          *ticks,
		Verbose:        *verbose,
	}

	if *startTime != "" {
		t, err := time.Parse(time.RFC3339, *startTime)
		if err != nil {
			logger.Fatalf("parse start time: %v", err)
		}
		opts.StartTime = t
	}

	// Load the candle script
	startMs := replay.DefaultStartMs
	if !opts.StartTime.IsZero() {
		startMs = opts.StartTime.UnixMilli()
	}
	if *candlesPath != "" {
		batches, err := replay.LoadCandlesCSV(*candlesPath, *tokenMint)
		if err != nil {
			logger.Fatalf("load candles: %v", err)
		}
		opts.Batches = batches
		logger.Printf("Loaded %d candle batches from %s", len(batches), *candlesPath)
	} else {
		opts.Batches = replay.SyntheticBatches(*tokenMint, startMs)
	}

	// Run replay
	result, err := replay.Run(ctx, opts)
	if err != nil {
		logger.Fatalf("replay failed: %v", err)
	}

	// Output result
	if *outputJSON {
		output, _ := json.MarshalIndent(buildSummary(result), "", "  ")
		fmt.Println(string(output))
	} else {
		printTrace(result)
		printSummary(result)
	}

	// Write report files
	if *outDir != "" {
		if err := writeReport(result, *outDir); err != nil {
			logger.Fatalf("write report: %v", err)
		}
	}
}

// ReplaySummary holds the machine-readable run summary.
type ReplaySummary struct {
	SessionID     string         `json:"session_id"`
	Seed          int64          `json:"seed"`
	Ticks         int            `json:"ticks"`
	CommandsSent  int            `json:"commands_sent"`
	StopsSent     int            `json:"stops_sent"`
	BoostedTicks  int            `json:"boosted_ticks"`
	LimitedTicks  int            `json:"limited_ticks"`
	DegradedTicks int            `json:"degraded_ticks"`
	ModeUsage     map[domain.Mode]int `json:"mode_usage"`
}

func buildSummary(r *replay.Result) ReplaySummary {
	s := ReplaySummary{
		SessionID:    r.SessionID,
		Seed:         int64(r.Seed),
		Ticks:        len(r.Trace),
		CommandsSent: r.CommandsSent,
		StopsSent:    r.StopsSent,
		ModeUsage:    r.ModeCounts(),
	}
	for _, row := range r.Trace {
		if row.Boosted {
			s.BoostedTicks++
		}
		if row.Limited {
			s.LimitedTicks++
		}
		if row.Degraded {
			s.DegradedTicks++
		}
	}
	return s
}

// printTrace outputs one line per simulated tick.
func printTrace(r *replay.Result) {
	for _, row := range r.Trace {
		ts := time.UnixMilli(row.TimestampMs).Format(time.RFC3339)
		if !row.Active {
			fmt.Printf("[%s] tick=%d STOP speed=%.0f band=%.0f..%.0f\n",
				ts, row.Tick, row.Command.Speed, row.Command.MinY, row.Command.MaxY)
			continue
		}

		var flags []string
		if row.Boosted {
			flags = append(flags, "boosted")
		}
		if row.Limited {
			flags = append(flags, "limited")
		}
		if row.Degraded {
			flags = append(flags, "degraded")
		}
		suffix := ""
		if len(flags) > 0 {
			suffix = " " + strings.Join(flags, " ")
		}

		fmt.Printf("[%s] tick=%d mode=%s intensity=%.3f speed=%.1f band=%.1f..%.1f%s\n",
			ts, row.Tick, row.Mode, row.Intensity,
			row.Command.Speed, row.Command.MinY, row.Command.MaxY, suffix)
	}
}

// printSummary outputs human-readable run summary.
func printSummary(r *replay.Result) {
	fmt.Println()
	fmt.Println("=== Replay Summary ===")
	fmt.Printf("Session ID:     %s\n", r.SessionID)
	fmt.Printf("Seed:           %d\n", r.Seed)
	fmt.Printf("Ticks:          %d\n", len(r.Trace))
	fmt.Printf("Commands Sent:  %d\n", r.CommandsSent)
	fmt.Printf("Stops Sent:     %d\n", r.StopsSent)

	counts := r.ModeCounts()
	if len(counts) == 0 {
		return
	}
	modes := make([]string, 0, len(counts))
	for mode := range counts {
		modes = append(modes, string(mode))
	}
	sort.Strings(modes)

	fmt.Println("Mode Usage:")
	for _, mode := range modes {
		fmt.Printf("  %-18s %d\n", mode, counts[domain.Mode(mode)])
	}
}

// writeReport renders the run as Markdown and CSV under dir.
func writeReport(r *replay.Result, dir string) error {
	report := reporting.FromResult(r, time.Now().UTC())

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	mdPath := filepath.Join(dir, "SESSION_REPORT.md")
	if err := os.WriteFile(mdPath, []byte(reporting.RenderMarkdown(report)), 0644); err != nil {
		return fmt.Errorf("write markdown report: %w", err)
	}

	csvPath := filepath.Join(dir, "TICK_LOG.csv")
	if err := os.WriteFile(csvPath, []byte(reporting.RenderCSV(report.Ticks)), 0644); err != nil {
		return fmt.Errorf("write tick CSV: %w", err)
	}

	fmt.Println("Report generated:")
	fmt.Printf("  - %s\n", mdPath)
	fmt.Printf("  - %s\n", csvPath)
	return nil
}
