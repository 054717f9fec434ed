package reporting

import (
	"fmt"
	"strings"
)

// RenderCSV renders the per-tick log as CSV string.
func RenderCSV(rows []TickRow) string {
	var sb strings.Builder

	// Header
	sb.WriteString("tick,timestamp_ms,mode,intensity,speed,min_y,max_y,boosted,limited,degraded\n")

	// Rows
	for _, row := range rows {
		sb.WriteString(fmt.Sprintf("%d,%d,%s,%.6f,%.6f,%.6f,%.6f,%d,%d,%d\n",
			row.Tick,
			row.TimestampMs,
			row.Mode,
			row.Intensity,
			row.Speed,
			row.MinY,
			row.MaxY,
			flag(row.Boosted),
			flag(row.Limited),
			flag(row.Degraded),
		))
	}

	return sb.String()
}

func flag(v bool) int {
	if v {
		return 1
	}
	return 0
}
