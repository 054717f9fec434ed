package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderMarkdown renders a session report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Session Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Session: %s | Token: %s | Seed: %d\n\n", r.SessionID, r.TokenMint, r.Seed))
	sb.WriteString(fmt.Sprintf("Window: %d to %d (ms)\n\n", r.StartTimeMs, r.EndTimeMs))
	if r.EndedReason != "" {
		sb.WriteString(fmt.Sprintf("Ended: %s after %d ticks\n\n", r.EndedReason, r.TicksProcessed))
	} else {
		sb.WriteString(fmt.Sprintf("Still active after %d ticks\n\n", r.TicksProcessed))
	}

	// Summary
	sb.WriteString("## Summary\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Ticks | %d |\n", r.Summary.TotalTicks))
	sb.WriteString(fmt.Sprintf("| Boosted Ticks | %d |\n", r.Summary.BoostedTicks))
	sb.WriteString(fmt.Sprintf("| Limited Ticks | %d |\n", r.Summary.LimitedTicks))
	sb.WriteString(fmt.Sprintf("| Degraded Ticks | %d |\n", r.Summary.DegradedTicks))
	sb.WriteString(fmt.Sprintf("| Mean Speed | %.2f |\n", r.Summary.MeanSpeed))
	sb.WriteString(fmt.Sprintf("| Peak Speed | %.2f |\n", r.Summary.PeakSpeed))
	sb.WriteString(fmt.Sprintf("| Mean Amplitude | %.2f |\n", r.Summary.MeanAmplitude))
	sb.WriteString(fmt.Sprintf("| Peak Amplitude | %.2f |\n", r.Summary.PeakAmplitude))
	sb.WriteString("\n")

	// Mode Usage
	sb.WriteString("## Mode Usage\n\n")
	if len(r.ModeUsage) > 0 {
		sb.WriteString("| Mode | Ticks | Share |\n")
		sb.WriteString("|------|-------|-------|\n")
		for _, row := range r.ModeUsage {
			sb.WriteString(fmt.Sprintf("| %s | %d | %.2f%% |\n",
				row.Mode, row.Ticks, row.Share*100))
		}
	} else {
		sb.WriteString("No ticks recorded.\n")
	}
	sb.WriteString("\n")

	// Tick Log
	sb.WriteString("## Tick Log\n\n")
	if len(r.Ticks) > 0 {
		sb.WriteString("| Tick | Timestamp (ms) | Mode | Intensity | Speed | MinY | MaxY | Boosted | Limited | Degraded |\n")
		sb.WriteString("|------|----------------|------|-----------|-------|------|------|---------|---------|----------|\n")
		for _, row := range r.Ticks {
			sb.WriteString(fmt.Sprintf("| %d | %d | %s | %.3f | %.1f | %.1f | %.1f | %s | %s | %s |\n",
				row.Tick, row.TimestampMs, row.Mode, row.Intensity,
				row.Speed, row.MinY, row.MaxY,
				yesNo(row.Boosted), yesNo(row.Limited), yesNo(row.Degraded)))
		}
	} else {
		sb.WriteString("No ticks recorded.\n")
	}
	sb.WriteString("\n")

	return sb.String()
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
