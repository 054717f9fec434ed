package replay

import "chartpulse/internal/domain"

// SyntheticBatches returns the built-in market script: a calm open, a
// momentum ramp, a choppy stretch and a volume collapse. Nine batches, one
// per tick of a full session, leaving the terminal tick to the clock.
func SyntheticBatches(tokenMint string, startMs int64) [][]domain.Candle {
	c := func(tick int, close, volume float64) domain.Candle {
		return domain.Candle{
			TokenMint:   tokenMint,
			TimestampMs: startMs + int64(tick)*domain.TickIntervalMs,
			Open:        close,
			High:        close * 1.005,
			Low:         close * 0.995,
			Close:       close,
			Volume:      volume,
		}
	}

	return [][]domain.Candle{
		// Calm open: three flat samples establish the baseline.
		{c(0, 1.00, 1000), c(1, 1.00, 1020), c(2, 1.00, 1010)},
		// Momentum ramp.
		{c(3, 1.04, 1150)},
		{c(4, 1.12, 1400)},
		// Choppy stretch: price whipsaws around the ramp's top.
		{c(5, 1.05, 1300)},
		{c(6, 1.11, 1350)},
		{c(7, 1.04, 1250)},
		{c(8, 1.10, 1200)},
		// Volume collapse.
		{c(9, 1.06, 130)},
		{c(10, 1.02, 60)},
	}
}
