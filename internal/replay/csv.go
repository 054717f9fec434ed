package replay

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"chartpulse/internal/domain"
)

// candleCSVHeader is the expected first row of a candle fixture file.
var candleCSVHeader = []string{"tick", "timestamp_ms", "open", "high", "low", "close", "volume"}

// LoadCandlesCSV reads a candle fixture into per-tick batches. Each row
// belongs to the 1-based tick in its first column; ticks with no rows get
// a nil batch so fetch alignment is preserved. Rows may appear in any
// order.
func LoadCandlesCSV(path, tokenMint string) ([][]domain.Candle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open candle fixture: %w", err)
	}
	defer f.Close()

	return parseCandlesCSV(f, tokenMint)
}

func parseCandlesCSV(r io.Reader, tokenMint string) ([][]domain.Candle, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = len(candleCSVHeader)

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read candle fixture header: %w", err)
	}
	for i, want := range candleCSVHeader {
		if header[i] != want {
			return nil, fmt.Errorf("candle fixture header: expected %q in column %d, got %q", want, i+1, header[i])
		}
	}

	byTick := make(map[int][]domain.Candle)
	maxTick := 0
	line := 1

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read candle fixture: %w", err)
		}
		line++

		tick, err := strconv.Atoi(record[0])
		if err != nil || tick < 1 {
			return nil, fmt.Errorf("candle fixture line %d: bad tick %q", line, record[0])
		}
		ts, err := strconv.ParseInt(record[1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("candle fixture line %d: bad timestamp %q", line, record[1])
		}

		values := make([]float64, 5)
		for i := 0; i < 5; i++ {
			v, err := strconv.ParseFloat(record[i+2], 64)
			if err != nil {
				return nil, fmt.Errorf("candle fixture line %d: bad %s %q", line, candleCSVHeader[i+2], record[i+2])
			}
			values[i] = v
		}

		byTick[tick] = append(byTick[tick], domain.Candle{
			TokenMint:   tokenMint,
			TimestampMs: ts,
			Open:        values[0],
			High:        values[1],
			Low:         values[2],
			Close:       values[3],
			Volume:      values[4],
		})
		if tick > maxTick {
			maxTick = tick
		}
	}

	batches := make([][]domain.Candle, maxTick)
	for tick, candles := range byTick {
		batches[tick-1] = candles
	}
	return batches, nil
}
