package domain

// ModeParams represents per-session mode thresholds and weights, generated
// once from the session seed and immutable afterwards. Two sessions on the
// same token get different params; re-creating a session within the same
// minute reproduces them exactly.
type ModeParams struct {
	TrendCap     float64 // trend magnitude treated as full intensity
	ChopCap      float64 // chop level above which CHOP_MONSTER triggers
	AccelCap     float64 // accel level above which MOMENTUM_BURST triggers
	DeviationCap float64 // |deviation| level above which DEVIATION_SURFER triggers
	LiqDropCap   float64 // liqDrop level above which LIQUIDITY_PANIC triggers
	WeightTrend  float64 // trend weight in the TREND_RIDER blend
	WeightChop   float64 // chop weight, always 1 - WeightTrend
	EmaN         int     // smoothing window for accel and deviation
}
