package domain

// Metrics represents derived chart metrics computed from the candle buffer
// on every tick. All values are finite; ratios whose inputs are unavailable
// (single-sample buffer, zero denominators) are reported as zero.
type Metrics struct {
	Trend     float64 // net relative price change over the buffer, signed
	Chop      float64 // 1 - |net move| / path length, in [0, 1]
	Accel     float64 // absolute change in trend between adjacent windows, >= 0
	Deviation float64 // relative distance of price from its short SMA, signed
	LiqDrop   float64 // relative volume drop vs previous sample, >= 0
}
