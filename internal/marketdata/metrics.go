package marketdata

import (
	"math"

	"chartpulse/internal/domain"
)

// ComputeMetrics derives chart metrics from the candle buffer.
// prevVolume is the volume of the sample before the latest one (zero when
// unknown). Candles must be in chronological order. Every output is finite;
// any ratio whose inputs are unavailable is reported as zero, so a fresh
// single-sample buffer yields all-zero metrics.
func ComputeMetrics(candles []domain.Candle, prevVolume float64, emaN int) domain.Metrics {
	if len(candles) == 0 {
		return domain.Metrics{}
	}
	if emaN < 1 {
		emaN = 1
	}

	closes := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
	}

	return domain.Metrics{
		Trend:     computeTrend(closes),
		Chop:      computeChop(closes),
		Accel:     computeAccel(closes, emaN),
		Deviation: computeDeviation(closes, emaN),
		LiqDrop:   computeLiqDrop(candles[len(candles)-1].Volume, prevVolume),
	}
}

// computeTrend calculates net relative price change over the window.
// trend = (last - first) / first. Signed; zero for short or degenerate input.
func computeTrend(closes []float64) float64 {
	n := len(closes)
	if n < 2 || closes[0] == 0 {
		return 0
	}
	return (closes[n-1] - closes[0]) / closes[0]
}

// computeChop calculates choppiness as 1 - |net move| / path length,
// where path length is the sum of absolute step moves. A straight march
// scores 0, pure oscillation approaches 1. Zero for short or flat input.
func computeChop(closes []float64) float64 {
	n := len(closes)
	if n < 2 {
		return 0
	}

	path := 0.0
	for i := 1; i < n; i++ {
		path += math.Abs(closes[i] - closes[i-1])
	}
	if path == 0 {
		return 0
	}

	net := math.Abs(closes[n-1] - closes[0])
	return 1 - net/path
}

// computeAccel calculates trend acceleration as the absolute difference
// between the trend of the last window and the trend of the window before
// it. Windows are adjacent and emaN samples wide; needs 2*emaN samples.
func computeAccel(closes []float64, emaN int) float64 {
	n := len(closes)
	if n < 2*emaN || emaN < 2 {
		return 0
	}

	recent := computeTrend(closes[n-emaN:])
	prior := computeTrend(closes[n-2*emaN : n-emaN])
	return math.Abs(recent - prior)
}

// computeDeviation calculates the relative distance of the last price from
// its short moving average: (last - SMA) / SMA over the final emaN closes
// (or fewer when the buffer is still filling). Signed.
func computeDeviation(closes []float64, emaN int) float64 {
	n := len(closes)
	if n == 0 {
		return 0
	}

	window := emaN
	if window > n {
		window = n
	}

	sum := 0.0
	for _, c := range closes[n-window:] {
		sum += c
	}
	sma := sum / float64(window)
	if sma == 0 {
		return 0
	}

	return (closes[n-1] - sma) / sma
}

// computeLiqDrop calculates the relative volume drop vs the previous sample:
// max(0, (prev - last) / prev). Volume growth reads as zero drop.
func computeLiqDrop(lastVolume, prevVolume float64) float64 {
	if prevVolume <= 0 {
		return 0
	}

	drop := (prevVolume - lastVolume) / prevVolume
	if drop < 0 {
		return 0
	}
	return drop
}
