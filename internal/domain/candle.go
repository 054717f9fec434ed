package domain

// Candle represents one aggregated market data sample for a token.
// Sourced from the DEX aggregator at minute resolution.
type Candle struct {
	TokenMint   string  // token mint address
	TimestampMs int64   // Unix timestamp in milliseconds (interval start)
	Open        float64 // first price in interval
	High        float64 // highest price in interval
	Low         float64 // lowest price in interval
	Close       float64 // last price in interval
	Volume      float64 // traded volume in interval
}

// Price returns the price used for metric derivation (the close).
func (c Candle) Price() float64 {
	return c.Close
}
