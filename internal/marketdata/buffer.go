package marketdata

import "chartpulse/internal/domain"

// UpdateBuffer returns a new buffer with sample appended and the oldest
// entries evicted so at most capacity candles remain, oldest first.
// The input slice is never mutated.
func UpdateBuffer(buf []domain.Candle, sample domain.Candle, capacity int) []domain.Candle {
	if capacity <= 0 {
		return nil
	}

	out := make([]domain.Candle, 0, len(buf)+1)
	out = append(out, buf...)
	out = append(out, sample)

	if len(out) > capacity {
		out = out[len(out)-capacity:]
	}
	return out
}

// MergeCandles folds a fetched batch into the buffer, keeping only samples
// strictly newer than the latest buffered timestamp. Fetch windows overlap
// between ticks, so most of the batch is usually discarded.
func MergeCandles(buf []domain.Candle, fetched []domain.Candle, capacity int) []domain.Candle {
	var lastTs int64
	if len(buf) > 0 {
		lastTs = buf[len(buf)-1].TimestampMs
	}

	out := buf
	for _, c := range fetched {
		if c.TimestampMs <= lastTs {
			continue
		}
		out = UpdateBuffer(out, c, capacity)
		lastTs = c.TimestampMs
	}
	return out
}
